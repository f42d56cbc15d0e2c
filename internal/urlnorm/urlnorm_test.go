package urlnorm

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "https://Example.COM/Docs/", want: "https://example.com/Docs"},
		{in: "https://example.com/a?b=c#frag", want: "https://example.com/a"},
		{in: "https://example.com/", want: "https://example.com"},
		{in: "  http://example.com:8080/x/  ", want: "http://example.com:8080/x"},
		{in: "HTTPS://example.com/a%2Fb", want: "https://example.com/a%2Fb"},
		{in: "mailto:someone@example.com", wantErr: true},
		{in: "/relative/path", wantErr: true},
		{in: "ftp://example.com/file", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := Normalize(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolve(t *testing.T) {
	base, err := url.Parse("https://example.com/docs/guide/")
	require.NoError(t, err)

	got, err := Resolve(base, "../api/?x=1#top")
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/docs/api", got)

	got, err = Resolve(base, "//cdn.example.com/lib")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/lib", got)

	_, err = Resolve(base, "javascript:void(0)")
	assert.Error(t, err)
}

func TestHash(t *testing.T) {
	assert.Equal(t, Hash("https://example.com/a"), Hash("https://EXAMPLE.com/a/?utm=1#x"))
	assert.NotEqual(t, Hash("https://example.com/a"), Hash("https://example.com/b"))
	assert.Len(t, Hash("https://example.com"), 64)
	assert.NotEmpty(t, Hash("not a url"))
}

func TestSameHost(t *testing.T) {
	assert.True(t, SameHost("https://example.com/a", "http://EXAMPLE.com/b"))
	assert.False(t, SameHost("https://example.com", "https://www.example.com"))
	assert.False(t, SameHost("https://example.com:8080", "https://example.com"))
	assert.False(t, SameHost("", ""))
}

func TestIsNested(t *testing.T) {
	assert.True(t, IsNested("https://example.com/docs", "https://example.com/docs/a"))
	assert.True(t, IsNested("https://example.com/docs/", "https://example.com/docs/a/b?x=1"))
	assert.False(t, IsNested("https://example.com/docs", "https://example.com/docs"))
	assert.False(t, IsNested("https://example.com/docs", "https://example.com/docsearch"))
	assert.False(t, IsNested("https://example.com/docs", "https://example.com/blog/b"))
	assert.False(t, IsNested("https://example.com/docs", "https://other.com/docs/a"))
}
