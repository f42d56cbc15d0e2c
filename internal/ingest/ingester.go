// Package ingest turns websites into Markdown webpages for AI agents. It owns
// the crawl state machine: starting a crawl, draining the webpage queue with
// leases, retrying or dropping failing pages and collecting pages that
// disappeared from the site.
package ingest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/masahif/webingest/internal/config"
	"github.com/masahif/webingest/internal/markdown"
	"github.com/masahif/webingest/internal/scraper"
	"github.com/masahif/webingest/internal/urlnorm"
)

var (
	errNoContent   = errors.New("no usable content")
	errHostChanged = errors.New("redirected to another host")

	errDuplicateContent = errors.New("content duplicates another webpage")
)

// Ingester coordinates scraping, conversion, chunking and persistence
type Ingester struct {
	config    *config.Config
	store     Store
	pages     PageScraper
	sitemaps  SitemapDiscoverer
	extractor MarkdownExtractor
	chunks    ChunkGenerator

	now func() time.Time
}

// New creates an ingester from its collaborators
func New(cfg *config.Config, store Store, pages PageScraper, sitemaps SitemapDiscoverer, extractor MarkdownExtractor, chunks ChunkGenerator) *Ingester {
	return &Ingester{
		config:    cfg,
		store:     store,
		pages:     pages,
		sitemaps:  sitemaps,
		extractor: extractor,
		chunks:    chunks,
		now:       time.Now,
	}
}

// StartWebsiteIngest validates rawURL by fetching it, creates or refreshes the
// website, enqueues discovered pages and ingests the root page synchronously.
// Rejections are returned as *ValidationError.
func (in *Ingester) StartWebsiteIngest(ctx context.Context, agentID, rawURL string, scanType ScanType, scrapeConfig markdown.ScrapeConfig) (*Website, error) {
	if _, err := ParseScanType(string(scanType)); err != nil {
		return nil, validationError("scanType", err.Error())
	}
	if err := scrapeConfig.Validate(); err != nil {
		return nil, validationError("scrapeConfig", err.Error())
	}

	rootURL, err := urlnorm.Normalize(rawURL)
	if err != nil {
		return nil, validationError("url", MsgCouldNotIngest)
	}

	doc, err := in.pages.Fetch(ctx, rootURL)
	if err != nil {
		slog.Warn("Root URL is not ingestable", "url", rootURL, "error", err)
		if errors.Is(err, scraper.ErrBlockedByFirewall) {
			return nil, validationError("url", MsgBlockedByFirewall)
		}
		return nil, validationError("url", MsgCouldNotIngest)
	}

	// follow a cross-host redirect of the root: the website lives where it landed
	if doc.Host != urlnorm.Host(rootURL) {
		if final, err := urlnorm.Normalize(doc.URL); err == nil {
			slog.Info("Root URL redirected to another host", "url", rootURL, "final_url", final)
			rootURL = final
		}
	}

	urlHash := urlnorm.Hash(rootURL)
	website, err := in.store.FindWebsiteByURLHash(ctx, urlHash)
	if err != nil {
		return nil, err
	}

	if website == nil {
		website = &Website{URL: rootURL, URLHash: urlHash}
	} else {
		inProgress, err := in.syncIsInProgress(ctx, website)
		if err != nil {
			return nil, err
		}
		if inProgress {
			return nil, validationError("url", MsgAlreadyIngesting)
		}
	}

	website.ScanType = scanType
	website.ScrapeConfig = scrapeConfig
	website.ScanVersion++
	website.ScanPending = true
	if doc.Title != "" {
		website.Title = doc.Title
	}
	if doc.Language != "" {
		website.Language = doc.Language
	}

	if err := in.store.SaveWebsite(ctx, website); err != nil {
		return nil, fmt.Errorf("save website: %w", err)
	}
	if agentID != "" {
		if err := in.store.AttachWebsiteAgent(ctx, website.ID, agentID); err != nil {
			return nil, fmt.Errorf("attach agent: %w", err)
		}
	}

	slog.Info("Website ingest started",
		"website_id", website.ID,
		"url", website.URL,
		"scan_type", website.ScanType,
		"scan_version", website.ScanVersion)

	follow := scanType != ScanSingle
	if follow {
		if urls := in.sitemaps.Discover(ctx, website.URL, scanType == ScanNested); len(urls) > 0 {
			if err := in.createWebpagesForIngesting(ctx, website, urls); err != nil {
				return nil, fmt.Errorf("enqueue sitemap urls: %w", err)
			}
		}
	}

	if _, err := in.processWebpage(ctx, website, website.URL, follow, doc); err != nil {
		slog.Error("Failed to ingest root page", "url", website.URL, "error", err)
	}

	return website, nil
}

// SyncWebsite re-crawls a website with its stored settings
func (in *Ingester) SyncWebsite(ctx context.Context, websiteID int64) (*Website, error) {
	website, err := in.store.GetWebsite(ctx, websiteID)
	if err != nil {
		return nil, err
	}
	return in.StartWebsiteIngest(ctx, "", website.URL, website.ScanType, website.ScrapeConfig)
}

// SyncWebpage re-scrapes a single known webpage right away
func (in *Ingester) SyncWebpage(ctx context.Context, webpageID int64) (*Webpage, error) {
	page, err := in.store.GetWebpage(ctx, webpageID)
	if err != nil {
		return nil, err
	}
	website, err := in.store.GetWebsite(ctx, page.WebsiteID)
	if err != nil {
		return nil, err
	}

	inProgress, err := in.syncIsInProgress(ctx, website)
	if err != nil {
		return nil, err
	}
	if inProgress {
		return nil, validationError("url", MsgAlreadyIngesting)
	}

	doc, err := in.pages.Fetch(ctx, page.URL)
	if err != nil {
		slog.Warn("Webpage sync failed", "webpage_id", page.ID, "url", page.URL, "error", err)
		if errors.Is(err, scraper.ErrBlockedByFirewall) {
			return nil, validationError("url", MsgBlockedByFirewall)
		}
		return nil, validationError("url", MsgCouldNotIngest)
	}

	previous := *page
	ok, err := in.processWebpage(ctx, website, page.URL, false, doc)
	if err != nil {
		return nil, err
	}
	if !ok {
		// the website is idle, so a re-queued page would never be leased
		if err := in.restoreWebpage(ctx, &previous); err != nil {
			return nil, err
		}
		return nil, validationError("url", MsgCouldNotIngest)
	}

	return in.store.GetWebpage(ctx, webpageID)
}

// restoreWebpage puts back the state a page had before a failed sync.
// Pages the sync deleted stay deleted.
func (in *Ingester) restoreWebpage(ctx context.Context, page *Webpage) error {
	if _, err := in.store.GetWebpage(ctx, page.ID); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil
		}
		return err
	}
	slog.Warn("Webpage sync failed, keeping previous content", "webpage_id", page.ID, "url", page.URL)
	return in.store.SaveWebpage(ctx, page)
}

// Website returns a website by id
func (in *Ingester) Website(ctx context.Context, websiteID int64) (*Website, error) {
	return in.store.GetWebsite(ctx, websiteID)
}

// WebsiteStatus reports queue counts for a website
func (in *Ingester) WebsiteStatus(ctx context.Context, websiteID int64) (*WebsiteStatus, error) {
	if _, err := in.store.GetWebsite(ctx, websiteID); err != nil {
		return nil, err
	}
	return in.store.WebsiteStatus(ctx, websiteID, in.leaseCutoff())
}

// DeleteWebsite removes a website with its webpages and chunks
func (in *Ingester) DeleteWebsite(ctx context.Context, websiteID int64) error {
	if _, err := in.store.GetWebsite(ctx, websiteID); err != nil {
		return err
	}
	slog.Info("Deleting website", "website_id", websiteID)
	return in.store.DeleteWebsite(ctx, websiteID)
}

// DeleteWebpages removes webpages and their chunks
func (in *Ingester) DeleteWebpages(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	slog.Info("Deleting webpages", "count", len(ids))
	return in.store.DeleteWebpages(ctx, ids)
}

// processWebpage ingests one URL of website. doc, when given, is used instead
// of fetching. Failures are recorded on the page (retry or delete); the error
// is reserved for storage problems. The boolean reports a successful ingest.
func (in *Ingester) processWebpage(ctx context.Context, website *Website, pageURL string, extractURLs bool, doc *scraper.Document) (bool, error) {
	urlHash := urlnorm.Hash(pageURL)
	page, err := in.store.FindWebpageByURLHash(ctx, website.ID, urlHash)
	if err != nil {
		return false, err
	}

	if doc == nil {
		doc, err = in.pages.Fetch(ctx, pageURL)
		if err != nil {
			return false, in.applyOutcome(ctx, website, page, classify(err), err)
		}
	}

	if doc.Host != urlnorm.Host(pageURL) {
		err := fmt.Errorf("%w: %s", errHostChanged, doc.URL)
		return false, in.applyOutcome(ctx, website, page, classify(err), err)
	}

	md, ok := in.extractor.ToMarkdown(ctx, doc.HTML, doc.URL, website.ScrapeConfig)
	if !ok {
		return false, in.applyOutcome(ctx, website, page, outcomeRetryable, errNoContent)
	}
	contentHash := hashContent(md)

	if page == nil {
		dup, err := in.store.ContentHashExists(ctx, website.ID, contentHash, 0, website.ScanVersion)
		if err != nil {
			return false, err
		}
		if dup {
			slog.Debug("Skipping duplicate content", "url", pageURL)
			return false, nil
		}
		normalized, err := urlnorm.Normalize(pageURL)
		if err != nil {
			normalized = pageURL
		}
		page = &Webpage{WebsiteID: website.ID, URL: normalized, URLHash: urlHash}
	}

	if doc.Title != "" {
		page.Title = doc.Title
	}

	if page.ID != 0 && page.ContentHash == contentHash {
		if err := in.applyOutcome(ctx, website, page, outcomeSuccess, nil); err != nil {
			return false, err
		}
		slog.Debug("Webpage unchanged", "webpage_id", page.ID, "url", page.URL)
	} else {
		if page.ID != 0 {
			dup, err := in.store.ContentHashExists(ctx, website.ID, contentHash, page.ID, website.ScanVersion)
			if err != nil {
				return false, err
			}
			if dup {
				return false, in.applyOutcome(ctx, website, page, outcomePermanent, errDuplicateContent)
			}
		}

		if err := in.storeContent(ctx, website, page, md, contentHash); err != nil {
			return false, err
		}
		if page.ContentHash != contentHash {
			// chunk generation failed and the page was rescheduled
			return false, nil
		}
	}

	if extractURLs {
		urls := in.pages.ExtractURLs(doc.URL, doc.HTML, website.URL, website.ScanType == ScanNested)
		if len(urls) > 0 {
			if err := in.createWebpagesForIngesting(ctx, website, urls); err != nil {
				slog.Error("Failed to enqueue extracted links", "url", page.URL, "error", err)
			}
		}
	}

	return true, nil
}

// storeContent persists new Markdown and regenerates chunks. The content
// hash is only recorded once chunks exist, so a failed generation is redone.
func (in *Ingester) storeContent(ctx context.Context, website *Website, page *Webpage, md, contentHash string) error {
	page.Markdown = md
	if page.ID == 0 {
		page.ScanVersion = website.ScanVersion
		page.ScanPending = true
		if err := in.store.SaveWebpage(ctx, page); err != nil {
			return err
		}
		if err := in.store.AttachWebpageAgents(ctx, website.ID, []int64{page.ID}); err != nil {
			return err
		}
	}

	if err := in.chunks.GenerateChunks(ctx, page); err != nil {
		slog.Warn("Chunk generation failed", "webpage_id", page.ID, "url", page.URL, "error", err)
		return in.applyOutcome(ctx, website, page, outcomeRetryable, err)
	}

	page.ContentHash = contentHash
	if err := in.applyOutcome(ctx, website, page, outcomeSuccess, nil); err != nil {
		return err
	}

	slog.Info("Webpage ingested", "webpage_id", page.ID, "url", page.URL, "bytes", len(md))
	return nil
}

// syncIsInProgress reports whether website has a crawl with work left
func (in *Ingester) syncIsInProgress(ctx context.Context, website *Website) (bool, error) {
	if website.ID == 0 || !website.ScanPending {
		return false, nil
	}
	pending, err := in.store.CountPendingWebpages(ctx, website.ID)
	if err != nil {
		return false, err
	}
	return pending > 0, nil
}

func (in *Ingester) leaseCutoff() time.Time {
	return in.now().Add(-in.config.LeaseTimeout)
}

func hashContent(md string) string {
	sum := sha256.Sum256([]byte(md))
	return hex.EncodeToString(sum[:])
}
