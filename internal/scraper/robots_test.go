package scraper

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestRobotsChecker(t *testing.T) {
	robotsTxt := `
User-agent: *
Disallow: /admin/
Disallow: /private/
Allow: /private/public/
Crawl-delay: 2

User-agent: Googlebot
Disallow: /no-google/

Sitemap: https://example.com/sitemap.xml
`

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" {
			w.Header().Set("Content-Type", "text/plain")
			_, _ = w.Write([]byte(robotsTxt))
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	httpClient := NewHTTPClient("Test-Agent/1.0", 10*time.Second, 1<<20)
	defer httpClient.Close()

	checker := NewRobotsChecker(httpClient, "Test-Agent/1.0")
	ctx := context.Background()

	tests := []struct {
		name     string
		url      string
		expected bool
	}{
		{"Root allowed", server.URL + "/", true},
		{"Admin disallowed", server.URL + "/admin/page", false},
		{"Private disallowed", server.URL + "/private/secret", false},
		{"Private public allowed", server.URL + "/private/public/page", true},
		{"Googlebot group ignored", server.URL + "/no-google/page", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			allowed, err := checker.IsAllowed(ctx, tt.url)
			if err != nil {
				t.Fatalf("IsAllowed failed: %v", err)
			}
			if allowed != tt.expected {
				t.Errorf("IsAllowed(%s) = %v, want %v", tt.url, allowed, tt.expected)
			}
		})
	}

	rules, err := checker.Rules(ctx, server.URL+"/")
	if err != nil {
		t.Fatalf("Rules failed: %v", err)
	}
	if rules.CrawlDelay != 2*time.Second {
		t.Errorf("Expected crawl delay 2s, got %v", rules.CrawlDelay)
	}
	if len(rules.Sitemaps) != 1 || rules.Sitemaps[0] != "https://example.com/sitemap.xml" {
		t.Errorf("Unexpected sitemaps: %v", rules.Sitemaps)
	}
}

func TestRobotsCheckerMissingFile(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	defer server.Close()

	httpClient := NewHTTPClient("Test-Agent/1.0", 10*time.Second, 1<<20)
	defer httpClient.Close()

	checker := NewRobotsChecker(httpClient, "Test-Agent/1.0")
	allowed, err := checker.IsAllowed(context.Background(), server.URL+"/anything")
	if err != nil {
		t.Fatalf("IsAllowed failed: %v", err)
	}
	if !allowed {
		t.Error("Missing robots.txt should allow everything")
	}
}

func TestParseRobotsTxtSharedGroup(t *testing.T) {
	content := `
User-agent: examplebot
User-agent: *
Disallow: /shared/ # both agents
`
	rules := parseRobotsTxt(content, "mozilla/5.0")
	if len(rules.Disallowed) != 1 || rules.Disallowed[0] != "/shared/" {
		t.Errorf("Expected grouped user agents to share rules, got %v", rules.Disallowed)
	}
}

func TestMatchesPattern(t *testing.T) {
	tests := []struct {
		path    string
		pattern string
		want    bool
	}{
		{"/admin/page", "/admin/", true},
		{"/administrator", "/admin/", false},
		{"/files/report.pdf", "/*.pdf$", true},
		{"/files/report.pdf?x=1", "/*.pdf$", false},
		{"/search", "/search$", true},
		{"/search/more", "/search$", false},
		{"/a/b/c", "/a/*/c", true},
		{"/a/c", "/a/*/c", false},
		{"/anything", "/*", true},
	}

	for _, tt := range tests {
		if got := matchesPattern(tt.path, tt.pattern); got != tt.want {
			t.Errorf("matchesPattern(%q, %q) = %v, want %v", tt.path, tt.pattern, got, tt.want)
		}
	}
}
