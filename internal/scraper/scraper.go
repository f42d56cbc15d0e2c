// Package scraper fetches single web pages for ingestion. It applies the
// content-type allow-list, detects firewall block pages, honours robots.txt
// when asked to, and extracts same-site links from fetched HTML.
package scraper

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/gabriel-vasile/mimetype"
	"golang.org/x/net/html/charset"

	"github.com/masahif/webingest/internal/config"
	"github.com/masahif/webingest/internal/parser"
	"github.com/masahif/webingest/internal/urlnorm"
)

// Document is a successfully fetched HTML page
type Document struct {
	URL      string // final URL after redirects
	HTML     string
	Title    string
	Language string
	Host     string // host of URL, lower-cased
}

// Scraper fetches pages and extracts links from them
type Scraper struct {
	client   *HTTPClient
	throttle *HostThrottle
	robots   *RobotsChecker // nil unless robots.txt is respected
	maxLinks int
}

// New creates a scraper from configuration
func New(cfg *config.Config) *Scraper {
	client := NewHTTPClient(cfg.UserAgent, cfg.RequestTimeout, cfg.MaxBodySize)
	client.SetCustomHeaders(parseHeaders(cfg.Headers))

	s := &Scraper{
		client:   client,
		throttle: NewHostThrottle(cfg.RequestDelay),
		maxLinks: cfg.MaxLinksPerPage,
	}
	if cfg.RespectRobots {
		s.robots = NewRobotsChecker(client, cfg.UserAgent)
	}
	return s
}

// Client exposes the underlying HTTP client for sitemap discovery
func (s *Scraper) Client() *HTTPClient {
	return s.client
}

// Close releases network resources
func (s *Scraper) Close() {
	s.client.Close()
}

// Fetch downloads rawURL and returns the page as a Document.
//
// Errors wrapping ErrInvalidContentType or ErrDisallowedByRobots are
// permanent. ErrBlockedByFirewall, *StatusError and transport errors may
// succeed later.
func (s *Scraper) Fetch(ctx context.Context, rawURL string) (*Document, error) {
	if ct, known := ContentTypeForURL(rawURL); known && !IsAllowedContentType(ct) {
		return nil, fmt.Errorf("%w: %s (by extension)", ErrInvalidContentType, ct)
	}

	if s.robots != nil {
		allowed, err := s.robots.IsAllowed(ctx, rawURL)
		if err != nil {
			return nil, err
		}
		if !allowed {
			return nil, fmt.Errorf("%w: %s", ErrDisallowedByRobots, rawURL)
		}
		if rules, err := s.robots.Rules(ctx, rawURL); err == nil && rules.CrawlDelay > 0 {
			s.throttle.SlowDown(urlnorm.Host(rawURL), rules.CrawlDelay)
		}
	}

	if err := s.throttle.Wait(ctx, rawURL); err != nil {
		return nil, err
	}

	resp, err := s.client.Get(ctx, rawURL)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", rawURL, err)
	}

	body := decodeBody(resp.Body, resp.ContentType)

	if isFirewallBlock(body) {
		return nil, fmt.Errorf("%w: %s", ErrBlockedByFirewall, rawURL)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if len(bytes.TrimSpace(resp.Body)) == 0 || !IsAllowedContentType(resp.ContentType) {
			return nil, fmt.Errorf("%w: status %d with %q", ErrInvalidContentType, resp.StatusCode, resp.ContentType)
		}
		return nil, &StatusError{URL: rawURL, StatusCode: resp.StatusCode}
	}

	contentType := resp.ContentType
	if contentType == "" {
		contentType = mimetype.Detect(resp.Body).String()
	}
	if !IsAllowedContentType(contentType) {
		return nil, fmt.Errorf("%w: %s", ErrInvalidContentType, contentType)
	}

	if resp.Truncated {
		slog.Warn("Response body truncated", "url", rawURL, "limit", len(resp.Body))
	}

	doc := &Document{
		URL:  resp.FinalURL,
		HTML: body,
		Host: urlnorm.Host(resp.FinalURL),
	}

	if p, err := parser.NewHTMLParser(resp.FinalURL); err == nil {
		if parsed, err := p.Parse(body); err == nil {
			doc.Title = parsed.Title
			doc.Language = parsed.Language
		}
	}

	slog.Debug("Fetched page",
		"url", rawURL,
		"final_url", resp.FinalURL,
		"status", resp.StatusCode,
		"ttfb_ms", resp.Metrics.TTFB.Milliseconds(),
		"download_ms", resp.Metrics.DownloadTime.Milliseconds())

	return doc, nil
}

// ExtractURLs returns the normalized, de-duplicated links of htmlContent that
// stay on scopeURL's host. With nestedOnly, links must also live under
// scopeURL's path. Relative links resolve against pageURL.
func (s *Scraper) ExtractURLs(pageURL, htmlContent, scopeURL string, nestedOnly bool) []string {
	p, err := parser.NewHTMLParser(pageURL)
	if err != nil {
		return nil
	}
	parsed, err := p.Parse(htmlContent)
	if err != nil {
		slog.Debug("Link extraction failed", "url", pageURL, "error", err)
		return nil
	}

	scope, err := urlnorm.Normalize(scopeURL)
	if err != nil {
		return nil
	}

	seen := make(map[string]struct{})
	var urls []string
	for _, link := range parsed.Links {
		normalized, err := urlnorm.Normalize(link.URL)
		if err != nil {
			continue
		}
		if !urlnorm.SameHost(normalized, scope) {
			continue
		}
		if nestedOnly && !urlnorm.IsNested(scope, normalized) {
			continue
		}
		if _, dup := seen[normalized]; dup {
			continue
		}
		seen[normalized] = struct{}{}
		urls = append(urls, normalized)

		if s.maxLinks > 0 && len(urls) >= s.maxLinks {
			break
		}
	}

	return urls
}

// decodeBody converts body to UTF-8 using the declared or sniffed charset
func decodeBody(body []byte, contentType string) string {
	enc, name, certain := charset.DetermineEncoding(body, contentType)
	if name == "utf-8" || (!certain && utf8.Valid(body)) {
		return string(body)
	}

	decoded, err := enc.NewDecoder().Bytes(body)
	if err != nil {
		return string(body)
	}
	return string(decoded)
}

// parseHeaders turns "Name: Value" strings into a header map
func parseHeaders(raw []string) map[string]string {
	headers := make(map[string]string, len(raw))
	for _, h := range raw {
		name, value, ok := strings.Cut(h, ":")
		if !ok {
			slog.Warn("Ignoring malformed header", "header", h)
			continue
		}
		headers[strings.TrimSpace(name)] = strings.TrimSpace(value)
	}
	return headers
}
