package driven

import (
	"context"

	"github.com/quarrylabs/quarry/internal/core/domain"
)

// IndexStore persists chunk entries and serves both retrieval channels
// over the same entry set. One store owns both channels so that
// replacing a document's entries is atomic across vector and keyword
// search: queries observe either the old version or the new one in
// full, never a mixture.
type IndexStore interface {
	// Upsert atomically replaces all entries for documentID belonging
	// to version or any earlier version with the given set. If the
	// store already holds entries for a newer version, it fails with
	// domain.ErrStaleWrite and changes nothing.
	Upsert(ctx context.Context, documentID string, version int64, entries []domain.IndexEntry) error

	// Delete removes all entries for a document.
	Delete(ctx context.Context, documentID string) error

	// VectorSearch returns up to k entries ranked by cosine similarity
	// to the query vector, descending. Ties break by lower ordinal
	// then lower document ID for determinism. Fails with
	// domain.ErrDimensionMismatch when the query length differs from
	// the stored vectors.
	VectorSearch(ctx context.Context, query []float32, k int) ([]IndexHit, error)

	// KeywordSearch returns up to k entries ranked by stemmed
	// term-frequency overlap with the query text, descending, with the
	// same tie-break rules.
	KeywordSearch(ctx context.Context, query string, k int) ([]IndexHit, error)

	// Close releases resources.
	Close() error
}

// IndexHit is one ranked result from a single retrieval channel.
type IndexHit struct {
	// Entry is the matched index entry.
	Entry domain.IndexEntry

	// Score is the channel's raw score: cosine similarity for the
	// vector channel, term-frequency overlap for the keyword channel.
	// Scores are comparable within one result set, not across channels.
	Score float64
}
