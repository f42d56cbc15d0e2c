// Package sitemap discovers page URLs from a site's sitemap.xml, following
// sitemap indexes down to their leaf sitemaps.
package sitemap

import (
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	sitemap "github.com/oxffaa/gopher-parse-sitemap"

	"github.com/masahif/webingest/internal/scraper"
	"github.com/masahif/webingest/internal/urlnorm"
)

// DefaultMaxDepth bounds sitemap index recursion
const DefaultMaxDepth = 5

var errLimitReached = errors.New("sitemap url limit reached")

// Fetcher retrieves raw documents
type Fetcher interface {
	Get(ctx context.Context, url string) (*scraper.HTTPResponse, error)
}

// Parser discovers URLs from sitemaps
type Parser struct {
	fetcher  Fetcher
	urlLimit int
	maxDepth int
}

// New creates a sitemap parser that returns at most urlLimit URLs
func New(fetcher Fetcher, urlLimit int) *Parser {
	return &Parser{
		fetcher:  fetcher,
		urlLimit: urlLimit,
		maxDepth: DefaultMaxDepth,
	}
}

// discovery accumulates results across one Discover call
type discovery struct {
	root       string
	nestedOnly bool
	urls       []string
	seen       map[string]struct{}
	visited    map[string]struct{}
}

// Discover fetches {scheme}://{host}/sitemap.xml for rootURL and returns the
// normalized page URLs on rootURL's host. With nestedOnly, only URLs below
// rootURL's path are kept. It returns nil when nothing usable was found.
// Fetch and parse failures are logged, never returned.
func (p *Parser) Discover(ctx context.Context, rootURL string, nestedOnly bool) []string {
	root, err := urlnorm.Normalize(rootURL)
	if err != nil {
		slog.Warn("Sitemap discovery skipped", "url", rootURL, "error", err)
		return nil
	}
	// root is already normalized, so it parses
	u, _ := url.Parse(root)

	d := &discovery{
		root:       root,
		nestedOnly: nestedOnly,
		seen:       make(map[string]struct{}),
		visited:    make(map[string]struct{}),
	}

	_ = p.walk(ctx, d, u.Scheme+"://"+u.Host+"/sitemap.xml", 0)

	slog.Info("Sitemap discovery finished", "url", root, "urls", len(d.urls), "nested_only", nestedOnly)

	if len(d.urls) == 0 {
		return nil
	}
	return d.urls
}

// walk processes one sitemap or sitemap index. It only returns
// errLimitReached, which unwinds the whole recursion.
func (p *Parser) walk(ctx context.Context, d *discovery, sitemapURL string, depth int) error {
	if depth > p.maxDepth {
		slog.Warn("Sitemap index nesting too deep", "url", sitemapURL, "depth", depth)
		return nil
	}
	if _, ok := d.visited[sitemapURL]; ok {
		return nil
	}
	d.visited[sitemapURL] = struct{}{}

	resp, err := p.fetcher.Get(ctx, sitemapURL)
	if err != nil {
		slog.Warn("Failed to fetch sitemap", "url", sitemapURL, "error", err)
		return nil
	}
	if resp.StatusCode != http.StatusOK {
		slog.Debug("Sitemap not available", "url", sitemapURL, "status", resp.StatusCode)
		return nil
	}

	body, err := maybeGunzip(resp.Body)
	if err != nil {
		slog.Warn("Failed to decompress sitemap", "url", sitemapURL, "error", err)
		return nil
	}

	if bytes.Contains(body, []byte("<sitemapindex")) {
		var children []string
		err := sitemap.ParseIndex(bytes.NewReader(body), func(e sitemap.IndexEntry) error {
			if loc := strings.TrimSpace(e.GetLocation()); loc != "" {
				children = append(children, loc)
			}
			return nil
		})
		if err != nil {
			slog.Warn("Failed to parse sitemap index", "url", sitemapURL, "error", err)
		}

		for _, child := range children {
			if ctx.Err() != nil {
				return nil
			}
			if err := p.walk(ctx, d, child, depth+1); err != nil {
				return err
			}
		}
		return nil
	}

	err = sitemap.Parse(bytes.NewReader(body), func(e sitemap.Entry) error {
		return p.add(d, e.GetLocation())
	})
	if errors.Is(err, errLimitReached) {
		return err
	}
	if err != nil {
		slog.Warn("Failed to parse sitemap", "url", sitemapURL, "error", err)
	}
	return nil
}

// add records loc if it passes the host and nesting filters
func (p *Parser) add(d *discovery, loc string) error {
	normalized, err := urlnorm.Normalize(loc)
	if err != nil {
		return nil
	}
	if !urlnorm.SameHost(normalized, d.root) {
		return nil
	}
	if d.nestedOnly && !urlnorm.IsNested(d.root, normalized) {
		return nil
	}
	if _, dup := d.seen[normalized]; dup {
		return nil
	}

	d.seen[normalized] = struct{}{}
	d.urls = append(d.urls, normalized)

	if p.urlLimit > 0 && len(d.urls) >= p.urlLimit {
		return errLimitReached
	}
	return nil
}

// maybeGunzip inflates gzip-compressed sitemaps (sitemap.xml.gz)
func maybeGunzip(body []byte) ([]byte, error) {
	if len(body) < 2 || body[0] != 0x1f || body[1] != 0x8b {
		return body, nil
	}
	zr, err := gzip.NewReader(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	defer func() { _ = zr.Close() }()
	return io.ReadAll(zr)
}
