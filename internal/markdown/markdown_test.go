package markdown

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/masahif/webingest/internal/config"
)

func init() {
	slog.SetDefault(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

const page = `<html><head><title>Doc</title><style>body{}</style></head>
<body>
  <nav><a href="/home">Home</a></nav>
  <main>
    <h1>Getting started</h1>
    <p>Read the <a href="guide">guide</a> first.</p>
    <div class="ads">Buy now</div>
    <pre><code><span class="ln">1</span>go run .</code></pre>
    <img src="/logo.png">
    <p></p>
  </main>
  <footer>Copyright</footer>
  <script>alert(1)</script>
</body></html>`

func TestToMarkdownBody(t *testing.T) {
	e := NewExtractor(NewBasicConverter())

	out, ok := e.ToMarkdown(context.Background(), page, "https://example.com/docs/start", ScrapeConfig{})
	require.True(t, ok)

	assert.Contains(t, out, "# Getting started")
	assert.Contains(t, out, "[guide](https://example.com/docs/guide)")
	assert.Contains(t, out, "go run .")
	assert.NotContains(t, out, "Home")
	assert.NotContains(t, out, "Copyright")
	assert.NotContains(t, out, "alert")
	assert.NotContains(t, out, "1go run")
	assert.NotContains(t, out, "<p>")
}

func TestToMarkdownSelectors(t *testing.T) {
	e := NewExtractor(NewBasicConverter())
	cfg := ScrapeConfig{
		ContentCSSSelector:    "main",
		CSSSelectorsToExclude: ".ads",
	}

	out, ok := e.ToMarkdown(context.Background(), page, "https://example.com/docs/start", cfg)
	require.True(t, ok)

	assert.Contains(t, out, "Getting started")
	assert.NotContains(t, out, "Buy now")
}

func TestToMarkdownNoContent(t *testing.T) {
	e := NewExtractor(NewBasicConverter())
	ctx := context.Background()

	_, ok := e.ToMarkdown(ctx, page, "https://example.com/", ScrapeConfig{ContentCSSSelector: "#missing"})
	assert.False(t, ok, "missing content selector")

	_, ok = e.ToMarkdown(ctx, `<html><body><nav>menu</nav><script>x()</script></body></html>`, "https://example.com/", ScrapeConfig{})
	assert.False(t, ok, "only noise")
}

type stubConverter struct {
	out   string
	err   error
	calls int
}

func (s *stubConverter) Convert(_ context.Context, _, _ string) (string, error) {
	s.calls++
	return s.out, s.err
}

func TestFallbackConverter(t *testing.T) {
	tests := []struct {
		name         string
		primary      *stubConverter
		want         string
		wantFallback bool
	}{
		{"primary succeeds", &stubConverter{out: "# primary"}, "# primary", false},
		{"primary errors", &stubConverter{err: errors.New("boom")}, "# fallback", true},
		{"primary empty", &stubConverter{out: "  \n"}, "# fallback", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fallback := &stubConverter{out: "# fallback"}
			c := &FallbackConverter{Primary: tt.primary, Fallback: fallback}

			out, err := c.Convert(context.Background(), "<p>x</p>", "https://example.com/")
			require.NoError(t, err)
			assert.Equal(t, tt.want, out)
			assert.Equal(t, tt.wantFallback, fallback.calls == 1)
		})
	}
}

func TestCommandConverter(t *testing.T) {
	c := &CommandConverter{Command: "sh", Args: []string{"-c", "sed 's/<[^>]*>//g'"}, Timeout: 5 * time.Second}

	out, err := c.Convert(context.Background(), "<h1>Title</h1>", "https://example.com/")
	require.NoError(t, err)
	assert.Equal(t, "Title", out)
}

func TestCommandConverterFailure(t *testing.T) {
	c := &CommandConverter{Command: "sh", Args: []string{"-c", "echo nope >&2; exit 3"}, Timeout: 5 * time.Second}

	_, err := c.Convert(context.Background(), "<h1>Title</h1>", "https://example.com/")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nope")
}

func TestCommandConverterTimeout(t *testing.T) {
	c := &CommandConverter{Command: "sleep", Args: []string{"5"}, Timeout: 50 * time.Millisecond}

	_, err := c.Convert(context.Background(), "", "https://example.com/")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "timed out")
}

func TestNewConverter(t *testing.T) {
	_, isBasic := NewConverter(config.ConverterConfig{}).(*BasicConverter)
	assert.True(t, isBasic)

	c := NewConverter(config.ConverterConfig{Command: "does-not-exist-webingest", Timeout: time.Second})
	require.IsType(t, &FallbackConverter{}, c)

	out, err := c.Convert(context.Background(), "<html><body><h2>Hi</h2></body></html>", "https://example.com/")
	require.NoError(t, err)
	assert.Equal(t, "## Hi", out)
}

func TestScrapeConfigValidate(t *testing.T) {
	assert.NoError(t, ScrapeConfig{}.Validate())
	assert.NoError(t, ScrapeConfig{ContentCSSSelector: "article.main", CSSSelectorsToExclude: ".ads, #cookie"}.Validate())
	assert.Error(t, ScrapeConfig{ContentCSSSelector: "div[["}.Validate())
	assert.Error(t, ScrapeConfig{CSSSelectorsToExclude: ">>>"}.Validate())
}
