package markdown

import (
	"fmt"
	"strings"

	"github.com/andybalholm/cascadia"
)

// ScrapeConfig is the per-website extraction configuration
type ScrapeConfig struct {
	// ContentCSSSelector picks the relevant subtree; empty means <body>
	ContentCSSSelector string `json:"contentCssSelector,omitempty" yaml:"content_css_selector,omitempty"`
	// CSSSelectorsToExclude is a selector group removed before conversion
	CSSSelectorsToExclude string `json:"cssSelectorsToExclude,omitempty" yaml:"css_selectors_to_exclude,omitempty"`
}

// Validate checks that both selectors compile
func (c ScrapeConfig) Validate() error {
	for _, sel := range []string{c.ContentCSSSelector, c.CSSSelectorsToExclude} {
		if strings.TrimSpace(sel) == "" {
			continue
		}
		if _, err := cascadia.Compile(sel); err != nil {
			return fmt.Errorf("invalid CSS selector %q: %w", sel, err)
		}
	}
	return nil
}
