// Package markdown extracts the relevant part of an HTML page and converts
// it to Markdown through a pluggable Converter.
package markdown

import (
	"context"
	"log/slog"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const (
	noiseSelector      = "script, style, head, noscript, aside, template, svg, button, footer, nav, dialog, iframe, img"
	lineNumberSelector = ".linenos, .lineno, .line-numbers, .hljs-ln-numbers, .gutter, span.ln"
)

// Extractor selects page content and converts it
type Extractor struct {
	converter Converter
}

// NewExtractor creates an extractor using converter
func NewExtractor(converter Converter) *Extractor {
	return &Extractor{converter: converter}
}

// ToMarkdown returns the Markdown for the relevant part of html. The boolean
// is false when the page has no usable content.
func (e *Extractor) ToMarkdown(ctx context.Context, html, pageURL string, cfg ScrapeConfig) (string, bool) {
	content, ok := relevantHTML(html, cfg)
	if !ok {
		return "", false
	}

	out, err := e.converter.Convert(ctx, content, pageURL)
	if err != nil {
		slog.Warn("Markdown conversion failed", "url", pageURL, "error", err)
		return "", false
	}

	out = strings.TrimSpace(out)
	if out == "" {
		return "", false
	}
	return out, true
}

// relevantHTML applies the content selector and strips noise
func relevantHTML(html string, cfg ScrapeConfig) (string, bool) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", false
	}

	selector := strings.TrimSpace(cfg.ContentCSSSelector)
	if selector == "" {
		selector = "body"
	}

	selection := doc.Find(selector)
	if selection.Length() == 0 {
		return "", false
	}

	selection.Find(noiseSelector).Remove()
	selection.Find(lineNumberSelector).Remove()
	if exclude := strings.TrimSpace(cfg.CSSSelectorsToExclude); exclude != "" {
		selection.Find(exclude).Remove()
	}

	var b strings.Builder
	selection.Each(func(_ int, s *goquery.Selection) {
		if outer, err := goquery.OuterHtml(s); err == nil {
			b.WriteString(outer)
		}
	})

	content := strings.TrimSpace(b.String())
	if content == "" {
		return "", false
	}

	if !strings.Contains(strings.ToLower(content), "<body") {
		content = "<html><body>" + content + "</body></html>"
	}
	return content, true
}
