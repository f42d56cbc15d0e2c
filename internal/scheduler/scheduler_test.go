package scheduler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/masahif/webingest/internal/ingest"
)

func init() {
	slog.SetDefault(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

type fakeDrainer struct {
	calls   atomic.Int32
	running atomic.Int32
	overlap atomic.Bool
	delay   time.Duration
	result  *ingest.QueueResult
	err     error
}

func (f *fakeDrainer) ProcessWebpageIngestQueue(ctx context.Context) (*ingest.QueueResult, error) {
	f.calls.Add(1)
	if f.running.Add(1) > 1 {
		f.overlap.Store(true)
	}
	defer f.running.Add(-1)

	select {
	case <-time.After(f.delay):
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	if f.err != nil {
		return nil, f.err
	}
	if f.result == nil {
		return &ingest.QueueResult{}, nil
	}
	return f.result, nil
}

func TestSummary(t *testing.T) {
	assert.Equal(t, "No pages to ingest.", Summary(nil))
	assert.Equal(t, "No pages to ingest.", Summary(&ingest.QueueResult{Website: &ingest.Website{ID: 1}}))
	assert.Equal(t, "Ingested 3 out of 5 pending webpages.", Summary(&ingest.QueueResult{Leased: 5, Ingested: 3}))
	assert.Equal(t, "Ingested 0 out of 2 pending webpages.", Summary(&ingest.QueueResult{Leased: 2}))
}

func TestRunOnce(t *testing.T) {
	d := &fakeDrainer{result: &ingest.QueueResult{Website: &ingest.Website{ID: 4}, Pending: 9, Leased: 4, Ingested: 4}}

	msg, err := RunOnce(context.Background(), d)
	require.NoError(t, err)
	assert.Equal(t, "Ingested 4 out of 4 pending webpages.", msg)

	d.err = errors.New("database is locked")
	_, err = RunOnce(context.Background(), d)
	assert.EqualError(t, err, "database is locked")
}

func TestInvalidSchedule(t *testing.T) {
	s := New(&fakeDrainer{}, time.Second)
	assert.Error(t, s.Start("every now and then"))
}

func TestOverlappingRunsAreSkipped(t *testing.T) {
	d := &fakeDrainer{delay: 200 * time.Millisecond}
	s := New(d, time.Minute)

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.job.Run()
		}()
	}
	wg.Wait()

	assert.False(t, d.overlap.Load())
	assert.Less(t, d.calls.Load(), int32(5))
}

func TestRunHonoursTimeout(t *testing.T) {
	d := &fakeDrainer{delay: time.Minute}
	s := New(d, 50*time.Millisecond)

	done := make(chan struct{})
	go func() {
		s.run()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("run did not stop at its timeout")
	}
}

func TestStartStop(t *testing.T) {
	s := New(&fakeDrainer{}, time.Second)
	require.NoError(t, s.Start("@every 1h"))
	s.Stop()
}
