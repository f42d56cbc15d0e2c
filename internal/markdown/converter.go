package markdown

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os/exec"
	"regexp"
	"strings"
	"time"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/JohannesKaufmann/html-to-markdown/plugin"
	"github.com/PuerkitoBio/goquery"
	"github.com/microcosm-cc/bluemonday"

	"github.com/masahif/webingest/internal/config"
)

// Converter turns an HTML document into Markdown
type Converter interface {
	Convert(ctx context.Context, html, pageURL string) (string, error)
}

var (
	emptyTagRe       = regexp.MustCompile(`<p>\s*</p>|<code>\s*</code>|<pre>\s*</pre>`)
	excessiveLinesRe = regexp.MustCompile(`\n{3,}`)
)

// NewConverter builds the converter chain for cfg: the built-in path alone,
// or the external command with the built-in path as fallback.
func NewConverter(cfg config.ConverterConfig) Converter {
	basic := NewBasicConverter()
	if cfg.Command == "" {
		return basic
	}

	return &FallbackConverter{
		Primary: &CommandConverter{
			Command: cfg.Command,
			Args:    cfg.Args,
			Timeout: cfg.Timeout,
		},
		Fallback: basic,
	}
}

// BasicConverter sanitizes HTML down to structural tags and converts it
type BasicConverter struct {
	policy    *bluemonday.Policy
	converter *md.Converter
}

// NewBasicConverter creates the sanitize-then-convert converter
func NewBasicConverter() *BasicConverter {
	policy := bluemonday.NewPolicy()
	policy.AllowElements("p", "h1", "h2", "h3", "h4", "h5", "h6",
		"ul", "ol", "li", "pre", "code",
		"table", "thead", "tbody", "tr", "td", "th")
	policy.AllowAttrs("href").OnElements("a")
	policy.AllowURLSchemes("http", "https", "mailto")
	policy.AllowRelativeURLs(true)
	policy.RequireParseableURLs(true)

	converter := md.NewConverter("", true, nil)
	converter.Use(plugin.GitHubFlavored())

	return &BasicConverter{
		policy:    policy,
		converter: converter,
	}
}

// Convert implements Converter
func (c *BasicConverter) Convert(_ context.Context, html, pageURL string) (string, error) {
	resolved, err := resolveLinks(html, pageURL)
	if err != nil {
		return "", err
	}

	clean := c.policy.Sanitize(resolved)
	clean = emptyTagRe.ReplaceAllString(clean, "")

	out, err := c.converter.ConvertString(clean)
	if err != nil {
		return "", fmt.Errorf("convert to markdown: %w", err)
	}
	return cleanMarkdown(out), nil
}

// resolveLinks rewrites relative hrefs to absolute ones against pageURL
func resolveLinks(html, pageURL string) (string, error) {
	base, err := url.Parse(pageURL)
	if err != nil {
		return "", fmt.Errorf("invalid page URL: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", fmt.Errorf("parse HTML: %w", err)
	}

	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		ref, err := url.Parse(strings.TrimSpace(href))
		if err != nil {
			s.RemoveAttr("href")
			return
		}
		s.SetAttr("href", base.ResolveReference(ref).String())
	})

	return doc.Html()
}

// cleanMarkdown trims trailing spaces and collapses runs of blank lines
func cleanMarkdown(content string) string {
	lines := strings.Split(content, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t")
	}
	content = strings.Join(lines, "\n")
	content = excessiveLinesRe.ReplaceAllString(content, "\n\n")
	return strings.TrimSpace(content)
}

// CommandConverter pipes HTML through an external document parser such as
// markitdown. The command reads HTML on stdin and writes Markdown to stdout.
type CommandConverter struct {
	Command string
	Args    []string
	Timeout time.Duration
}

// Convert implements Converter
func (c *CommandConverter) Convert(ctx context.Context, html, _ string) (string, error) {
	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, c.Command, c.Args...)
	cmd.Stdin = strings.NewReader(html)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", fmt.Errorf("%s timed out after %v", c.Command, c.Timeout)
		}
		return "", fmt.Errorf("%s failed: %w: %s", c.Command, err, strings.TrimSpace(stderr.String()))
	}

	return cleanMarkdown(stdout.String()), nil
}

// FallbackConverter tries Primary and uses Fallback when it fails or
// produces nothing.
type FallbackConverter struct {
	Primary  Converter
	Fallback Converter
}

// Convert implements Converter
func (c *FallbackConverter) Convert(ctx context.Context, html, pageURL string) (string, error) {
	out, err := c.Primary.Convert(ctx, html, pageURL)
	if err == nil && strings.TrimSpace(out) != "" {
		return out, nil
	}

	if err != nil {
		slog.Warn("Document parser failed, using basic conversion", "url", pageURL, "error", err)
	} else {
		slog.Debug("Document parser returned no content, using basic conversion", "url", pageURL)
	}
	return c.Fallback.Convert(ctx, html, pageURL)
}
