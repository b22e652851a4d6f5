// Package chunker splits document content into overlapping chunks, preferring
// sentence and paragraph boundaries over hard cuts.
package chunker

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/quarrylabs/quarry/internal/core/domain"
)

// minLookback is the smallest boundary scan window regardless of chunk size.
const minLookback = 40

// lookbackDivisor derives the default scan window from the chunk size.
const lookbackDivisor = 5

// Processor splits document content into overlapping chunks.
// It implements the PostProcessor interface.
type Processor struct {
	chunkSize int
	overlap   int
	lookback  int
}

// Option configures the chunker processor.
type Option func(*Processor)

// WithChunkSize sets the maximum chunk size in characters.
func WithChunkSize(size int) Option {
	return func(p *Processor) {
		p.chunkSize = size
	}
}

// WithOverlap sets the number of characters repeated between consecutive chunks.
func WithOverlap(overlap int) Option {
	return func(p *Processor) {
		p.overlap = overlap
	}
}

// WithLookback sets the boundary scan window in characters.
func WithLookback(lookback int) Option {
	return func(p *Processor) {
		p.lookback = lookback
	}
}

// New creates a chunker processor with the given options.
// The overlap must leave room for new content in every chunk; configurations
// where it does not are rejected with ErrInvalidConfig.
func New(opts ...Option) (*Processor, error) {
	p := &Processor{
		chunkSize: domain.DefaultMaxChunkSize,
		overlap:   domain.DefaultChunkOverlap,
	}

	for _, opt := range opts {
		opt(p)
	}

	if p.chunkSize <= 0 {
		return nil, fmt.Errorf("%w: chunk size must be positive, got %d", domain.ErrInvalidConfig, p.chunkSize)
	}
	if p.overlap < 0 {
		return nil, fmt.Errorf("%w: chunk overlap must not be negative, got %d", domain.ErrInvalidConfig, p.overlap)
	}
	if p.overlap >= p.chunkSize {
		return nil, fmt.Errorf("%w: chunk overlap %d must be smaller than chunk size %d", domain.ErrInvalidConfig, p.overlap, p.chunkSize)
	}

	if p.lookback <= 0 {
		p.lookback = p.chunkSize / lookbackDivisor
		if p.lookback < minLookback {
			p.lookback = minLookback
		}
	}

	return p, nil
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "chunker"
}

// Process splits the document content into chunks.
// Input chunks are ignored; this processor creates new chunks from document
// content. Chunk IDs and versions are assigned later by the ingestion
// service, once the document version is known.
func (p *Processor) Process(ctx context.Context, doc *domain.Document, _ []domain.Chunk) ([]domain.Chunk, error) {
	spans := p.Split(doc.Content)
	if len(spans) == 0 {
		return nil, nil
	}

	chunks := make([]domain.Chunk, 0, len(spans))
	for i, span := range spans {
		chunks = append(chunks, domain.Chunk{
			DocumentID:  doc.ID,
			Ordinal:     i,
			StartOffset: span.Start,
			EndOffset:   span.End,
			Text:        span.Text,
		})
	}

	return chunks, nil
}

// Span is a section of the source text produced by Split.
// Text always equals the source slice [Start:End].
type Span struct {
	Start int
	End   int
	Text  string
}

// Split cuts text into overlapping spans of at most the configured chunk
// size. Each cut prefers the nearest paragraph break or sentence end inside
// the lookback window and falls back to a hard cut when neither exists. The
// output depends only on the text and the configuration.
func (p *Processor) Split(text string) []Span {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	n := len(text)
	spans := make([]Span, 0, n/(p.chunkSize-p.overlap)+1)

	start := 0
	for start < n {
		end := n
		if start+p.chunkSize < n {
			end = p.cut(text, start, start+p.chunkSize)
		}

		spans = append(spans, Span{Start: start, End: end, Text: text[start:end]})
		if end >= n {
			break
		}

		next := end - p.overlap
		if next <= start {
			// A boundary cut can land inside the previous overlap; the next
			// span then starts at the cut so the walk always advances.
			next = end
		}
		start = next
	}

	return spans
}

// cut returns the end offset for a span starting at start with a hard limit
// at limit. It scans the lookback window for the boundary closest to the
// limit and falls back to a rune-aligned hard cut.
func (p *Processor) cut(text string, start, limit int) int {
	window := limit - p.lookback
	if window < start {
		window = start
	}

	best := -1
	if idx := strings.LastIndex(text[window:limit], "\n\n"); idx >= 0 {
		best = window + idx + 2
	}
	if idx := lastSentenceEnd(text, window, limit); idx > best {
		best = idx
	}
	if best > start {
		return best
	}

	for limit > start && !utf8.RuneStart(text[limit]) {
		limit--
	}
	if limit == start {
		// A rune wider than the remaining budget still advances the walk.
		_, size := utf8.DecodeRuneInString(text[start:])
		limit = start + size
	}
	return limit
}

// lastSentenceEnd returns the offset just past the last sentence terminator
// in text[window:limit] that is followed by whitespace, or -1 when the
// window holds none.
func lastSentenceEnd(text string, window, limit int) int {
	for j := limit - 1; j >= window; j-- {
		if !isSentenceEnd(text[j]) {
			continue
		}
		if j+1 < len(text) && !isSpaceByte(text[j+1]) {
			continue
		}
		return j + 1
	}
	return -1
}

func isSentenceEnd(b byte) bool {
	return b == '.' || b == '!' || b == '?'
}

func isSpaceByte(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}
