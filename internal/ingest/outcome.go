package ingest

import (
	"context"
	"errors"
	"log/slog"

	"github.com/masahif/webingest/internal/scraper"
)

// outcome is the verdict on one attempt to ingest a webpage
type outcome int

const (
	outcomeSuccess outcome = iota
	// outcomeRetryable puts the page back in the queue until it runs out of tries
	outcomeRetryable
	// outcomePermanent deletes the page right away
	outcomePermanent
)

func (o outcome) String() string {
	switch o {
	case outcomeSuccess:
		return "success"
	case outcomeRetryable:
		return "retryable"
	case outcomePermanent:
		return "permanent"
	}
	return "unknown"
}

// classify maps a processing error to an outcome
func classify(err error) outcome {
	switch {
	case err == nil:
		return outcomeSuccess
	case scraper.IsPermanent(err),
		errors.Is(err, errHostChanged),
		errors.Is(err, errDuplicateContent):
		return outcomePermanent
	default:
		return outcomeRetryable
	}
}

// applyOutcome records o on page. Success marks the page scanned in the
// website's current crawl; a retryable failure re-queues the page or, once
// MaxScanTries is used up, deletes it; a permanent failure deletes it.
// Pages that were never stored are left alone.
func (in *Ingester) applyOutcome(ctx context.Context, website *Website, page *Webpage, o outcome, cause error) error {
	if page == nil || page.ID == 0 {
		return nil
	}

	switch o {
	case outcomeSuccess:
		page.FullyScanned = true
		page.ScanPending = false
		page.ScanStartedAt = nil
		page.ScanVersion = website.ScanVersion
		page.LastFullScanVersion = website.ScanVersion
		return in.store.SaveWebpage(ctx, page)

	case outcomeRetryable:
		if page.ScanTries < in.config.MaxScanTries {
			page.ScanTries++
			page.ScanPending = true
			page.ScanStartedAt = nil
			slog.Info("Webpage will be retried",
				"webpage_id", page.ID,
				"url", page.URL,
				"tries", page.ScanTries,
				"error", cause)
			return in.store.SaveWebpage(ctx, page)
		}
		slog.Warn("Deleting webpage after repeated failures",
			"webpage_id", page.ID,
			"url", page.URL,
			"tries", page.ScanTries,
			"error", cause)

	default:
		slog.Info("Deleting webpage that cannot be ingested",
			"webpage_id", page.ID,
			"url", page.URL,
			"error", cause)
	}

	return in.store.DeleteWebpages(ctx, []int64{page.ID})
}
