package ingest

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/masahif/webingest/internal/urlnorm"
)

// ProcessWebpageIngestQueue drains one batch of the most recently updated
// crawling website. It is safe to run from several processes at once: pages
// are claimed with a lease before they are processed.
func (in *Ingester) ProcessWebpageIngestQueue(ctx context.Context) (*QueueResult, error) {
	result := &QueueResult{}

	website, err := in.store.NextPendingWebsite(ctx)
	if err != nil {
		return nil, fmt.Errorf("find pending website: %w", err)
	}
	if website == nil {
		return result, nil
	}
	result.Website = website

	pending, err := in.store.CountPendingWebpages(ctx, website.ID)
	if err != nil {
		return nil, err
	}
	result.Pending = pending

	if pending == 0 {
		return result, in.markWebsiteAsFinished(ctx, website)
	}

	batchID := uuid.NewString()
	now := in.now()
	pages, err := in.store.LeaseWebpages(ctx, website.ID, in.config.BatchSize, now, now.Add(-in.config.LeaseTimeout))
	if err != nil {
		return nil, fmt.Errorf("lease webpages: %w", err)
	}
	result.Leased = len(pages)

	logger := slog.With("batch_id", batchID, "website_id", website.ID)
	logger.Info("Processing webpage batch", "leased", len(pages), "pending", pending)

	follow := website.ScanType != ScanSingle
	for _, page := range pages {
		if ctx.Err() != nil {
			logger.Warn("Batch interrupted", "error", ctx.Err())
			break
		}

		ok, err := in.processLeasedWebpage(ctx, website, page, follow)
		if err != nil {
			logger.Error("Webpage processing failed", "webpage_id", page.ID, "url", page.URL, "error", err)
			if err := in.retryLeasedWebpage(ctx, website, page, err); err != nil {
				logger.Error("Failed to record webpage failure", "webpage_id", page.ID, "error", err)
			}
			continue
		}
		if ok {
			result.Ingested++
		}
	}

	remaining, err := in.store.CountPendingWebpages(ctx, website.ID)
	if err != nil {
		return result, err
	}
	if remaining == 0 {
		if err := in.markWebsiteAsFinished(ctx, website); err != nil {
			return result, err
		}
	}

	logger.Info("Webpage batch done", "ingested", result.Ingested, "leased", result.Leased, "remaining", remaining)
	return result, nil
}

// processLeasedWebpage runs processWebpage, turning a panic into an error
func (in *Ingester) processLeasedWebpage(ctx context.Context, website *Website, page *Webpage, follow bool) (ok bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic while processing %s: %v", page.URL, r)
		}
	}()
	return in.processWebpage(ctx, website, page.URL, follow, nil)
}

// retryLeasedWebpage applies the retry policy to the stored state of page,
// which processing may already have changed
func (in *Ingester) retryLeasedWebpage(ctx context.Context, website *Website, page *Webpage, cause error) error {
	current, err := in.store.GetWebpage(ctx, page.ID)
	if err != nil {
		// already deleted
		return nil
	}
	return in.applyOutcome(ctx, website, current, outcomeRetryable, cause)
}

// createWebpagesForIngesting enqueues urls for website. Known pages are marked
// as seen in the current crawl and re-queued unless already scanned in it;
// unknown pages are inserted and attached to the website's agents.
func (in *Ingester) createWebpagesForIngesting(ctx context.Context, website *Website, urls []string) error {
	seen := make(map[string]struct{}, len(urls))
	unique := make([]NewWebpage, 0, len(urls))
	for _, raw := range urls {
		normalized, err := urlnorm.Normalize(raw)
		if err != nil {
			continue
		}
		hash := urlnorm.Hash(normalized)
		if _, dup := seen[hash]; dup {
			continue
		}
		seen[hash] = struct{}{}
		unique = append(unique, NewWebpage{URL: normalized, URLHash: hash})
	}

	chunkSize := in.config.EnqueueChunkSize
	inserted := 0
	for start := 0; start < len(unique); start += chunkSize {
		end := min(start+chunkSize, len(unique))
		batch := unique[start:end]

		hashes := make([]string, len(batch))
		for i, p := range batch {
			hashes[i] = p.URLHash
		}

		existing, err := in.store.FindWebpagesByURLHashes(ctx, website.ID, hashes)
		if err != nil {
			return err
		}

		var seenIDs []int64
		var fresh []NewWebpage
		for _, p := range batch {
			if page, ok := existing[p.URLHash]; ok {
				seenIDs = append(seenIDs, page.ID)
			} else {
				fresh = append(fresh, p)
			}
		}

		if err := in.store.MarkWebpagesSeen(ctx, seenIDs, website.ScanVersion); err != nil {
			return err
		}

		ids, err := in.store.InsertPendingWebpages(ctx, website.ID, fresh, website.ScanVersion)
		if err != nil {
			return err
		}
		if err := in.store.AttachWebpageAgents(ctx, website.ID, ids); err != nil {
			return err
		}
		inserted += len(ids)
	}

	slog.Debug("Enqueued webpages",
		"website_id", website.ID,
		"host", urlnorm.Host(website.URL),
		"urls", len(unique),
		"inserted", inserted)
	return nil
}

// markWebsiteAsFinished ends the crawl and deletes pages it did not see
func (in *Ingester) markWebsiteAsFinished(ctx context.Context, website *Website) error {
	if err := in.store.FinishWebsite(ctx, website.ID); err != nil {
		return fmt.Errorf("finish website: %w", err)
	}
	website.ScanPending = false

	removed, err := in.store.DeleteStaleWebpages(ctx, website.ID, website.ScanVersion)
	if err != nil {
		return fmt.Errorf("delete stale webpages: %w", err)
	}

	slog.Info("Website ingest finished",
		"website_id", website.ID,
		"url", website.URL,
		"scan_version", website.ScanVersion,
		"removed_webpages", removed)
	return nil
}
