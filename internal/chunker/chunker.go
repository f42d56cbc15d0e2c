// Package chunker splits webpage Markdown into heading-scoped chunks sized
// for embedding, and stores them for the downstream embedder.
package chunker

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"github.com/masahif/webingest/internal/config"
	"github.com/masahif/webingest/internal/ingest"
)

// maxHeadingLevel is the deepest heading that starts a new section
const maxHeadingLevel = 3

// ChunkStore persists chunks
type ChunkStore interface {
	ReplaceChunks(ctx context.Context, webpageID int64, chunks []ingest.Chunk) error
}

// Generator implements ingest.ChunkGenerator
type Generator struct {
	store        ChunkStore
	md           goldmark.Markdown
	targetTokens int
	maxTokens    int
}

// New creates a generator writing to store
func New(store ChunkStore, cfg config.ChunkingConfig) *Generator {
	return &Generator{
		store:        store,
		md:           goldmark.New(),
		targetTokens: cfg.TargetTokens,
		maxTokens:    cfg.MaxTokens,
	}
}

// GenerateChunks replaces the stored chunks of page with fresh ones
func (g *Generator) GenerateChunks(ctx context.Context, page *ingest.Webpage) error {
	if page.ID == 0 {
		return fmt.Errorf("webpage %s has no id", page.URL)
	}

	chunks := g.Split(page.Markdown)
	for i := range chunks {
		chunks[i].WebpageID = page.ID
		chunks[i].Position = i
	}

	return g.store.ReplaceChunks(ctx, page.ID, chunks)
}

type section struct {
	heading string
	body    string
}

// Split cuts Markdown into chunks. Sections start at headings of level 1-3;
// sections above the token limit are packed paragraph by paragraph.
func (g *Generator) Split(markdown string) []ingest.Chunk {
	var chunks []ingest.Chunk
	for _, sec := range g.sections([]byte(markdown)) {
		for _, piece := range g.pack(sec.body) {
			chunks = append(chunks, ingest.Chunk{
				Heading:       sec.heading,
				Content:       piece,
				TokenEstimate: EstimateTokens(piece),
			})
		}
	}
	return chunks
}

// sections splits src at top-level headings using the goldmark AST, so that
// "#" lines inside code blocks are not mistaken for headings
func (g *Generator) sections(src []byte) []section {
	doc := g.md.Parser().Parse(text.NewReader(src))

	type boundary struct {
		offset  int
		heading string
	}
	var bounds []boundary

	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		h, ok := n.(*ast.Heading)
		if !ok || h.Level > maxHeadingLevel || h.Lines().Len() == 0 {
			continue
		}

		lines := h.Lines()
		start := lines.At(0).Start
		if i := bytes.LastIndexByte(src[:start], '\n'); i >= 0 {
			start = i + 1
		} else {
			start = 0
		}

		var title bytes.Buffer
		for i := 0; i < lines.Len(); i++ {
			seg := lines.At(i)
			title.Write(seg.Value(src))
		}
		bounds = append(bounds, boundary{offset: start, heading: strings.TrimSpace(title.String())})
	}

	var out []section
	add := func(heading string, body []byte) {
		if b := strings.TrimSpace(string(body)); b != "" {
			out = append(out, section{heading: heading, body: b})
		}
	}

	if len(bounds) == 0 {
		add("", src)
		return out
	}

	add("", src[:bounds[0].offset])
	for i, b := range bounds {
		end := len(src)
		if i+1 < len(bounds) {
			end = bounds[i+1].offset
		}
		add(b.heading, src[b.offset:end])
	}
	return out
}

// pack returns body unchanged when it fits, otherwise paragraphs grouped up
// to the target size. Paragraphs above the limit are cut by runes.
func (g *Generator) pack(body string) []string {
	if EstimateTokens(body) <= g.maxTokens {
		return []string{body}
	}

	var pieces []string
	var current strings.Builder
	flush := func() {
		if s := strings.TrimSpace(current.String()); s != "" {
			pieces = append(pieces, s)
		}
		current.Reset()
	}

	for _, para := range strings.Split(body, "\n\n") {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}

		if EstimateTokens(para) > g.maxTokens {
			flush()
			pieces = append(pieces, splitRunes(para, g.maxTokens*charsPerToken)...)
			continue
		}

		if current.Len() > 0 && EstimateTokens(current.String())+EstimateTokens(para) > g.targetTokens {
			flush()
		}
		if current.Len() > 0 {
			current.WriteString("\n\n")
		}
		current.WriteString(para)
	}
	flush()

	return pieces
}

const charsPerToken = 4

// EstimateTokens approximates the token count of s
func EstimateTokens(s string) int {
	return (utf8.RuneCountInString(s) + charsPerToken - 1) / charsPerToken
}

func splitRunes(s string, size int) []string {
	runes := []rune(s)
	var out []string
	for len(runes) > 0 {
		n := min(size, len(runes))
		if piece := strings.TrimSpace(string(runes[:n])); piece != "" {
			out = append(out, piece)
		}
		runes = runes[n:]
	}
	return out
}
