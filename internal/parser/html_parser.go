// Package parser provides HTML parsing and metadata extraction.
// It extracts the title, the declared language and the anchors of a document.
package parser

import (
	"fmt"
	"net/url"
	"strings"

	"golang.org/x/net/html"
)

// HTMLParser extracts metadata and links from HTML
type HTMLParser struct {
	baseURL        *url.URL
	allowedSchemes []string
}

// ParseResult contains the parsed HTML data
type ParseResult struct {
	Title        string
	Language     string
	MetaDesc     string
	CanonicalURL string
	Links        []Link
}

// Link represents a parsed anchor
type Link struct {
	URL        string // absolute, resolved against the base URL
	AnchorText string
	IsExternal bool
}

// language candidates in order of precedence
type languageHints struct {
	htmlLang     string
	httpEquiv    string
	metaLanguage string
}

// NewHTMLParser creates a new HTML parser with default allowed schemes
func NewHTMLParser(baseURL string) (*HTMLParser, error) {
	return NewHTMLParserWithSchemes(baseURL, []string{"https://", "http://"})
}

// NewHTMLParserWithSchemes creates a new HTML parser with custom allowed schemes
func NewHTMLParserWithSchemes(baseURL string, allowedSchemes []string) (*HTMLParser, error) {
	parsedURL, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}

	if len(allowedSchemes) == 0 {
		allowedSchemes = []string{"https://", "http://"}
	}

	return &HTMLParser{
		baseURL:        parsedURL,
		allowedSchemes: allowedSchemes,
	}, nil
}

// Parse parses HTML content and extracts title, language and links.
// Language precedence is <html lang>, then <meta http-equiv="content-language">,
// then <meta name="language">.
func (p *HTMLParser) Parse(htmlContent string) (*ParseResult, error) {
	doc, err := html.Parse(strings.NewReader(htmlContent))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	result := &ParseResult{
		Links: []Link{},
	}
	var hints languageHints

	p.traverse(doc, result, &hints)

	switch {
	case hints.htmlLang != "":
		result.Language = hints.htmlLang
	case hints.httpEquiv != "":
		result.Language = hints.httpEquiv
	default:
		result.Language = hints.metaLanguage
	}

	return result, nil
}

// traverse recursively walks the HTML tree
func (p *HTMLParser) traverse(n *html.Node, result *ParseResult, hints *languageHints) {
	if n.Type == html.ElementNode {
		switch n.Data {
		case "html":
			if lang := strings.TrimSpace(attr(n, "lang")); lang != "" && hints.htmlLang == "" {
				hints.htmlLang = lang
			}

		case "title":
			// Inline <svg><title> elements must not override the document title
			if result.Title == "" && n.FirstChild != nil && n.FirstChild.Type == html.TextNode {
				result.Title = strings.TrimSpace(n.FirstChild.Data)
			}

		case "meta":
			p.parseMeta(n, result, hints)

		case "link":
			p.parseLink(n, result)

		case "a":
			p.parseAnchor(n, result)
		}
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		p.traverse(c, result, hints)
	}
}

// parseMeta extracts description and language hints from meta tags
func (p *HTMLParser) parseMeta(n *html.Node, result *ParseResult, hints *languageHints) {
	name := strings.ToLower(attr(n, "name"))
	httpEquiv := strings.ToLower(attr(n, "http-equiv"))
	content := strings.TrimSpace(attr(n, "content"))

	if content == "" {
		return
	}

	switch {
	case name == "description":
		result.MetaDesc = content
	case name == "language" && hints.metaLanguage == "":
		hints.metaLanguage = content
	case httpEquiv == "content-language" && hints.httpEquiv == "":
		hints.httpEquiv = content
	}
}

// parseLink extracts canonical URL from link tags
func (p *HTMLParser) parseLink(n *html.Node, result *ParseResult) {
	if strings.ToLower(attr(n, "rel")) != "canonical" {
		return
	}
	if href := attr(n, "href"); href != "" {
		if absURL, err := p.resolveURL(href); err == nil {
			result.CanonicalURL = absURL
		}
	}
}

// parseAnchor extracts links from anchor tags
func (p *HTMLParser) parseAnchor(n *html.Node, result *ParseResult) {
	href := strings.TrimSpace(attr(n, "href"))

	if href == "" || strings.HasPrefix(href, "#") || strings.HasPrefix(href, "javascript:") {
		return
	}

	// Early scheme validation before URL resolution
	if !p.isAllowedScheme(href) {
		return
	}

	absURL, err := p.resolveURL(href)
	if err != nil || !p.isAllowedScheme(absURL) {
		return
	}

	parsedURL, err := url.Parse(absURL)
	if err != nil {
		return
	}

	result.Links = append(result.Links, Link{
		URL:        absURL,
		AnchorText: strings.TrimSpace(p.extractText(n)),
		IsExternal: !strings.EqualFold(parsedURL.Host, p.baseURL.Host),
	})
}

// resolveURL converts relative URLs to absolute URLs
func (p *HTMLParser) resolveURL(href string) (string, error) {
	u, err := url.Parse(href)
	if err != nil {
		return "", err
	}
	return p.baseURL.ResolveReference(u).String(), nil
}

// extractText recursively extracts text content from a node
func (p *HTMLParser) extractText(n *html.Node) string {
	if n.Type == html.TextNode {
		return strings.TrimSpace(n.Data)
	}

	var parts []string
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if text := p.extractText(c); text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, " ")
}

// isAllowedScheme checks if the URL has an allowed scheme
func (p *HTMLParser) isAllowedScheme(href string) bool {
	if strings.Contains(href, "://") {
		for _, scheme := range p.allowedSchemes {
			if strings.HasPrefix(strings.ToLower(href), scheme) {
				return true
			}
		}
		return false
	}

	// tel:, mailto:, data: and friends
	if strings.Contains(href, ":") && !strings.HasPrefix(href, "/") && !strings.HasPrefix(href, "?") && !strings.HasPrefix(href, "#") {
		for _, scheme := range p.allowedSchemes {
			if strings.HasPrefix(href, strings.TrimSuffix(scheme, "://")) {
				return true
			}
		}
		return false
	}

	// Relative URLs inherit the base URL's scheme
	return true
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}
