// Package scheduler drains the webpage ingest queue on a cron schedule.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/masahif/webingest/internal/ingest"
)

// Drainer processes one batch of the webpage queue
type Drainer interface {
	ProcessWebpageIngestQueue(ctx context.Context) (*ingest.QueueResult, error)
}

// Scheduler handles periodic queue drains. Overlapping runs are skipped.
type Scheduler struct {
	drainer Drainer
	cron    *cron.Cron
	job     cron.Job
	timeout time.Duration
}

// New creates a scheduler. Each run is cancelled after timeout.
func New(drainer Drainer, timeout time.Duration) *Scheduler {
	logger := slogAdapter{}
	s := &Scheduler{
		drainer: drainer,
		cron:    cron.New(cron.WithLogger(logger)),
		timeout: timeout,
	}
	s.job = cron.NewChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)).Then(cron.FuncJob(s.run))
	return s
}

// Start registers the drain under schedule and starts the cron loop
func (s *Scheduler) Start(schedule string) error {
	if _, err := s.cron.AddJob(schedule, s.job); err != nil {
		return err
	}

	s.cron.Start()
	slog.Info("Queue scheduler started", "schedule", schedule)
	return nil
}

// Stop stops the cron loop and waits for a running drain to finish
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	slog.Info("Queue scheduler stopped")
}

func (s *Scheduler) run() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	if _, err := RunOnce(ctx, s.drainer); err != nil {
		slog.Error("Scheduled queue drain failed", "error", err)
	}
}

// RunOnce drains one batch and returns the line reported to operators
func RunOnce(ctx context.Context, drainer Drainer) (string, error) {
	start := time.Now()

	result, err := drainer.ProcessWebpageIngestQueue(ctx)
	if err != nil {
		return "", err
	}

	message := Summary(result)
	attrs := []any{"duration", time.Since(start), "ingested", result.Ingested, "leased", result.Leased}
	if result.Website != nil {
		attrs = append(attrs, "website_id", result.Website.ID)
	}
	slog.Info(message, attrs...)
	return message, nil
}

// Summary renders a queue result the way the ingest:webpages command prints it
func Summary(result *ingest.QueueResult) string {
	if result == nil || result.Leased == 0 {
		return "No pages to ingest."
	}
	return fmt.Sprintf("Ingested %d out of %d pending webpages.", result.Ingested, result.Leased)
}

// slogAdapter routes cron's own logging into slog
type slogAdapter struct{}

func (slogAdapter) Info(msg string, keysAndValues ...any) {
	slog.Debug(msg, keysAndValues...)
}

func (slogAdapter) Error(err error, msg string, keysAndValues ...any) {
	slog.Error(msg, append(keysAndValues, "error", err)...)
}
