package chunker

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/masahif/webingest/internal/config"
	"github.com/masahif/webingest/internal/ingest"
)

type memoryStore struct {
	chunks map[int64][]ingest.Chunk
	err    error
}

func (m *memoryStore) ReplaceChunks(_ context.Context, webpageID int64, chunks []ingest.Chunk) error {
	if m.err != nil {
		return m.err
	}
	if m.chunks == nil {
		m.chunks = make(map[int64][]ingest.Chunk)
	}
	m.chunks[webpageID] = chunks
	return nil
}

func newGenerator(target, max int) (*Generator, *memoryStore) {
	store := &memoryStore{}
	return New(store, config.ChunkingConfig{TargetTokens: target, MaxTokens: max}), store
}

func TestSplitByHeadings(t *testing.T) {
	g, _ := newGenerator(500, 1000)

	md := "Intro text.\n\n# Title\n\nFirst.\n\n## Install\n\n```sh\n# not a heading\ngo install\n```\n\n#### Detail\n\nStill install.\n\n## Usage\n\nRun it.\n"

	chunks := g.Split(md)
	require.Len(t, chunks, 4)

	assert.Equal(t, "", chunks[0].Heading)
	assert.Equal(t, "Intro text.", chunks[0].Content)

	assert.Equal(t, "Title", chunks[1].Heading)
	assert.True(t, strings.HasPrefix(chunks[1].Content, "# Title"))

	assert.Equal(t, "Install", chunks[2].Heading)
	assert.Contains(t, chunks[2].Content, "# not a heading")
	assert.Contains(t, chunks[2].Content, "#### Detail")

	assert.Equal(t, "Usage", chunks[3].Heading)
	assert.Equal(t, "## Usage\n\nRun it.", chunks[3].Content)
}

func TestSplitLargeSection(t *testing.T) {
	g, _ := newGenerator(10, 20)

	para := strings.Repeat("word ", 8) // 40 chars, 10 tokens
	md := "## Big\n\n" + strings.TrimSpace(strings.Repeat(para+"\n\n", 5))

	chunks := g.Split(md)
	require.Greater(t, len(chunks), 1)
	for _, c := range chunks {
		assert.Equal(t, "Big", c.Heading)
		assert.LessOrEqual(t, c.TokenEstimate, 20)
	}
}

func TestSplitHugeParagraph(t *testing.T) {
	g, _ := newGenerator(5, 10)

	chunks := g.Split(strings.Repeat("x", 100))
	require.Len(t, chunks, 3)
	assert.Len(t, chunks[0].Content, 40)
	assert.Len(t, chunks[2].Content, 20)
}

func TestSplitEmpty(t *testing.T) {
	g, _ := newGenerator(500, 1000)
	assert.Empty(t, g.Split("  \n\n "))
}

func TestGenerateChunks(t *testing.T) {
	g, store := newGenerator(500, 1000)
	page := &ingest.Webpage{ID: 7, URL: "https://example.com/", Markdown: "# A\n\none\n\n# B\n\ntwo"}

	require.NoError(t, g.GenerateChunks(context.Background(), page))

	chunks := store.chunks[7]
	require.Len(t, chunks, 2)
	for i, c := range chunks {
		assert.Equal(t, int64(7), c.WebpageID)
		assert.Equal(t, i, c.Position)
	}
}

func TestGenerateChunksErrors(t *testing.T) {
	g, store := newGenerator(500, 1000)

	err := g.GenerateChunks(context.Background(), &ingest.Webpage{URL: "https://example.com/"})
	assert.Error(t, err, "unsaved page")

	store.err = errors.New("disk full")
	err = g.GenerateChunks(context.Background(), &ingest.Webpage{ID: 1, Markdown: "x"})
	assert.ErrorIs(t, err, store.err)
}

func TestEstimateTokens(t *testing.T) {
	assert.Equal(t, 0, EstimateTokens(""))
	assert.Equal(t, 1, EstimateTokens("abc"))
	assert.Equal(t, 2, EstimateTokens("abcde"))
	assert.Equal(t, 1, EstimateTokens("日本語"))
}
