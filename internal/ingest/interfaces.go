package ingest

import (
	"context"
	"time"

	"github.com/masahif/webingest/internal/markdown"
	"github.com/masahif/webingest/internal/scraper"
)

// Store persists websites, webpages and their agent associations
type Store interface {
	// Websites
	GetWebsite(ctx context.Context, id int64) (*Website, error)
	FindWebsiteByURLHash(ctx context.Context, urlHash string) (*Website, error)
	SaveWebsite(ctx context.Context, website *Website) error
	DeleteWebsite(ctx context.Context, id int64) error
	AttachWebsiteAgent(ctx context.Context, websiteID int64, agentID string) error
	NextPendingWebsite(ctx context.Context) (*Website, error)
	FinishWebsite(ctx context.Context, websiteID int64) error

	// Webpages
	GetWebpage(ctx context.Context, id int64) (*Webpage, error)
	FindWebpageByURLHash(ctx context.Context, websiteID int64, urlHash string) (*Webpage, error)
	FindWebpagesByURLHashes(ctx context.Context, websiteID int64, urlHashes []string) (map[string]*Webpage, error)
	ContentHashExists(ctx context.Context, websiteID int64, contentHash string, excludeID, version int64) (bool, error)
	SaveWebpage(ctx context.Context, page *Webpage) error
	DeleteWebpages(ctx context.Context, ids []int64) error

	// Queue
	MarkWebpagesSeen(ctx context.Context, ids []int64, version int64) error
	InsertPendingWebpages(ctx context.Context, websiteID int64, pages []NewWebpage, version int64) ([]int64, error)
	AttachWebpageAgents(ctx context.Context, websiteID int64, webpageIDs []int64) error
	CountPendingWebpages(ctx context.Context, websiteID int64) (int, error)
	LeaseWebpages(ctx context.Context, websiteID int64, limit int, now, cutoff time.Time) ([]*Webpage, error)
	DeleteStaleWebpages(ctx context.Context, websiteID int64, version int64) (int64, error)
	WebsiteStatus(ctx context.Context, websiteID int64, cutoff time.Time) (*WebsiteStatus, error)
}

// PageScraper fetches pages and extracts their links
type PageScraper interface {
	Fetch(ctx context.Context, url string) (*scraper.Document, error)
	ExtractURLs(pageURL, html, scopeURL string, nestedOnly bool) []string
}

// SitemapDiscoverer lists URLs announced by a site's sitemaps
type SitemapDiscoverer interface {
	Discover(ctx context.Context, rootURL string, nestedOnly bool) []string
}

// MarkdownExtractor converts fetched HTML into Markdown
type MarkdownExtractor interface {
	ToMarkdown(ctx context.Context, html, pageURL string, cfg markdown.ScrapeConfig) (string, bool)
}

// ChunkGenerator rebuilds the chunks of a webpage from its Markdown
type ChunkGenerator interface {
	GenerateChunks(ctx context.Context, page *Webpage) error
}
