package sitemap

import (
	"bytes"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/masahif/webingest/internal/scraper"
)

func init() {
	slog.SetDefault(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func urlset(locs ...string) string {
	var b bytes.Buffer
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?><urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">`)
	for _, loc := range locs {
		fmt.Fprintf(&b, "<url><loc>%s</loc></url>", loc)
	}
	b.WriteString(`</urlset>`)
	return b.String()
}

func sitemapIndex(locs ...string) string {
	var b bytes.Buffer
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?><sitemapindex xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">`)
	for _, loc := range locs {
		fmt.Fprintf(&b, "<sitemap><loc>%s</loc></sitemap>", loc)
	}
	b.WriteString(`</sitemapindex>`)
	return b.String()
}

func newParser(limit int) *Parser {
	return New(scraper.NewHTTPClient("Test-Agent/1.0", 5*time.Second, 1<<20), limit)
}

func serve(t *testing.T, routes func(base string) map[string]string) *httptest.Server {
	t.Helper()
	var server *httptest.Server
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := routes(server.URL)[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/xml")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server
}

func TestDiscoverSitemapIndexNested(t *testing.T) {
	server := serve(t, func(base string) map[string]string {
		return map[string]string{
			"/sitemap.xml":      sitemapIndex(base+"/sitemap-docs.xml", base+"/sitemap-blog.xml"),
			"/sitemap-docs.xml": urlset(base+"/docs/a", base+"/docs/a/", base+"/docs", base+"/docsearch"),
			"/sitemap-blog.xml": urlset(base+"/blog/b", "https://other.com/docs/x"),
		}
	})

	urls := newParser(100).Discover(context.Background(), server.URL+"/docs", true)

	assert.Equal(t, []string{server.URL + "/docs/a"}, urls)
}

func TestDiscoverHostFilter(t *testing.T) {
	server := serve(t, func(base string) map[string]string {
		return map[string]string{
			"/sitemap.xml": urlset(base+"/a", base+"/blog/b?page=2", "https://other.com/x"),
		}
	})

	urls := newParser(100).Discover(context.Background(), server.URL, false)

	assert.Equal(t, []string{server.URL + "/a", server.URL + "/blog/b"}, urls)
}

func TestDiscoverSkipsBrokenNestedSitemap(t *testing.T) {
	server := serve(t, func(base string) map[string]string {
		return map[string]string{
			"/sitemap.xml": sitemapIndex(base+"/missing.xml", base+"/broken.xml", base+"/good.xml"),
			"/broken.xml":  `<urlset><url><loc>`,
			"/good.xml":    urlset(base + "/ok"),
		}
	})

	urls := newParser(100).Discover(context.Background(), server.URL, false)

	assert.Contains(t, urls, server.URL+"/ok")
}

func TestDiscoverLimit(t *testing.T) {
	server := serve(t, func(base string) map[string]string {
		return map[string]string{
			"/sitemap.xml": sitemapIndex(base+"/one.xml", base+"/two.xml"),
			"/one.xml":     urlset(base+"/1", base+"/2"),
			"/two.xml":     urlset(base+"/3", base+"/4"),
		}
	})

	urls := newParser(3).Discover(context.Background(), server.URL, false)

	assert.Equal(t, []string{server.URL + "/1", server.URL + "/2", server.URL + "/3"}, urls)
}

func TestDiscoverMissingSitemap(t *testing.T) {
	server := serve(t, func(base string) map[string]string {
		return map[string]string{}
	})

	urls := newParser(100).Discover(context.Background(), server.URL+"/docs", true)

	assert.Nil(t, urls)
}

func TestDiscoverIndexCycle(t *testing.T) {
	server := serve(t, func(base string) map[string]string {
		return map[string]string{
			"/sitemap.xml": sitemapIndex(base+"/loop.xml", base+"/leaf.xml"),
			"/loop.xml":    sitemapIndex(base + "/sitemap.xml"),
			"/leaf.xml":    urlset(base + "/page"),
		}
	})

	urls := newParser(100).Discover(context.Background(), server.URL, false)

	assert.Equal(t, []string{server.URL + "/page"}, urls)
}

func TestDiscoverGzip(t *testing.T) {
	var gz bytes.Buffer
	zw := gzip.NewWriter(&gz)

	var server *httptest.Server
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/sitemap.xml" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/octet-stream")
		_, _ = w.Write(gz.Bytes())
	}))
	defer server.Close()

	_, err := zw.Write([]byte(urlset(server.URL + "/zipped")))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	urls := newParser(100).Discover(context.Background(), server.URL, false)

	assert.Equal(t, []string{server.URL + "/zipped"}, urls)
}

func TestDiscoverInvalidRoot(t *testing.T) {
	assert.Nil(t, newParser(10).Discover(context.Background(), "ftp://example.com", false))
}
