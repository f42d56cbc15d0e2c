package ingest

import (
	"fmt"
	"time"

	"github.com/masahif/webingest/internal/markdown"
)

// ScanType selects how far a website crawl reaches
type ScanType string

const (
	// ScanSingle ingests only the submitted URL
	ScanSingle ScanType = "single"
	// ScanNested follows sitemap entries and links below the submitted path
	ScanNested ScanType = "nested"
	// ScanFull follows every sitemap entry and link on the host
	ScanFull ScanType = "full"
)

// ParseScanType validates s
func ParseScanType(s string) (ScanType, error) {
	switch t := ScanType(s); t {
	case ScanSingle, ScanNested, ScanFull:
		return t, nil
	}
	return "", fmt.Errorf("invalid scan type %q: must be full, nested or single", s)
}

// Website is a crawl root attached to one or more AI agents
type Website struct {
	ID           int64                 `json:"id"`
	URL          string                `json:"url"`
	URLHash      string                `json:"urlHash"`
	Title        string                `json:"title"`
	Language     string                `json:"language"`
	ScanType     ScanType              `json:"scanType"`
	ScanPending  bool                  `json:"scanPending"`
	ScanVersion  int64                 `json:"scanVersion"`
	ScrapeConfig markdown.ScrapeConfig `json:"scrapeConfig"`
	CreatedAt    time.Time             `json:"createdAt"`
	UpdatedAt    time.Time             `json:"updatedAt"`
}

// Webpage is one URL of a website and the queue entry for it
type Webpage struct {
	ID                  int64      `json:"id"`
	WebsiteID           int64      `json:"websiteId"`
	URL                 string     `json:"url"`
	URLHash             string     `json:"urlHash"`
	Title               string     `json:"title"`
	Markdown            string     `json:"markdown,omitempty"`
	ContentHash         string     `json:"contentHash,omitempty"`
	FullyScanned        bool       `json:"fullyScanned"`
	ScanPending         bool       `json:"scanPending"`
	ScanStartedAt       *time.Time `json:"scanStartedAt,omitempty"`
	ScanTries           int        `json:"scanTries"`
	ScanVersion         int64      `json:"scanVersion"`
	LastFullScanVersion int64      `json:"lastFullScanVersion"`
	CreatedAt           time.Time  `json:"createdAt"`
	UpdatedAt           time.Time  `json:"updatedAt"`
}

// Chunk is a retrievable slice of a webpage's Markdown
type Chunk struct {
	ID            int64  `json:"id"`
	WebpageID     int64  `json:"webpageId"`
	Position      int    `json:"position"`
	Heading       string `json:"heading,omitempty"`
	Content       string `json:"content"`
	TokenEstimate int    `json:"tokenEstimate"`
}

// WebsiteStatus summarises the queue for one website
type WebsiteStatus struct {
	Total   int `json:"total"`
	Pending int `json:"pending"`
	Leased  int `json:"leased"`
	Failing int `json:"failing"` // pending pages with at least one failed attempt
}

// QueueResult reports one queue drain
type QueueResult struct {
	Website  *Website
	Pending  int // pending pages when the batch was claimed
	Leased   int // pages claimed by this run
	Ingested int // pages successfully processed
}

// NewWebpage is a URL about to be enqueued
type NewWebpage struct {
	URL     string
	URLHash string
}
