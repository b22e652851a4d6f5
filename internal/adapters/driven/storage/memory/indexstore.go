package memory

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/quarrylabs/quarry/internal/core/domain"
	"github.com/quarrylabs/quarry/internal/core/ports/driven"
)

// Ensure IndexStore implements the interface.
var _ driven.IndexStore = (*IndexStore)(nil)

// IndexStore is an in-memory implementation of driven.IndexStore.
// Both retrieval channels scan the same entry map, so a document's entries
// swap versions atomically under the store lock.
type IndexStore struct {
	mu       sync.RWMutex
	entries  map[string][]domain.IndexEntry
	versions map[string]int64
}

// NewIndexStore creates a new in-memory index store.
func NewIndexStore() *IndexStore {
	return &IndexStore{
		entries:  make(map[string][]domain.IndexEntry),
		versions: make(map[string]int64),
	}
}

// Upsert replaces all entries for the document with the given set.
// Writes for a version older than the stored one fail with ErrStaleWrite
// and change nothing; rewriting the same version is idempotent.
func (s *IndexStore) Upsert(_ context.Context, documentID string, version int64, entries []domain.IndexEntry) error {
	if documentID == "" {
		return fmt.Errorf("%w: document ID is empty", domain.ErrInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if current, ok := s.versions[documentID]; ok && version < current {
		return fmt.Errorf("%w: document %s holds version %d, rejected version %d",
			domain.ErrStaleWrite, documentID, current, version)
	}

	copied := make([]domain.IndexEntry, len(entries))
	copy(copied, entries)
	s.entries[documentID] = copied
	s.versions[documentID] = version
	return nil
}

// Delete removes all entries for a document. Unknown documents are a no-op.
func (s *IndexStore) Delete(_ context.Context, documentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, documentID)
	delete(s.versions, documentID)
	return nil
}

// VectorSearch ranks entries by cosine similarity to the query vector.
func (s *IndexStore) VectorSearch(_ context.Context, query []float32, k int) ([]driven.IndexHit, error) {
	if len(query) == 0 {
		return nil, fmt.Errorf("%w: query vector is empty", domain.ErrInvalidInput)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var hits []driven.IndexHit
	for _, docEntries := range s.entries {
		for _, entry := range docEntries {
			if len(entry.Vector) == 0 {
				continue
			}
			if len(entry.Vector) != len(query) {
				return nil, fmt.Errorf("%w: query has %d dimensions, entry %s has %d",
					domain.ErrDimensionMismatch, len(query), entry.ChunkID, len(entry.Vector))
			}
			hits = append(hits, driven.IndexHit{
				Entry: entry,
				Score: cosineSimilarity(query, entry.Vector),
			})
		}
	}

	return rankHits(hits, k), nil
}

// KeywordSearch ranks entries by how often the query's stemmed terms occur
// in the entry text.
func (s *IndexStore) KeywordSearch(_ context.Context, query string, k int) ([]driven.IndexHit, error) {
	queryTerms := domain.Tokenize(query)
	if len(queryTerms) == 0 {
		return nil, nil
	}

	unique := make(map[string]struct{}, len(queryTerms))
	for _, term := range queryTerms {
		unique[term] = struct{}{}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var hits []driven.IndexHit
	for _, docEntries := range s.entries {
		for _, entry := range docEntries {
			score := termFrequency(entry.Text, unique)
			if score <= 0 {
				continue
			}
			hits = append(hits, driven.IndexHit{Entry: entry, Score: score})
		}
	}

	return rankHits(hits, k), nil
}

// Close releases resources. A no-op for the in-memory store.
func (s *IndexStore) Close() error {
	return nil
}

// rankHits sorts by score descending, then ordinal, then document ID, and
// truncates to k.
func rankHits(hits []driven.IndexHit, k int) []driven.IndexHit {
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		if hits[i].Entry.Ordinal != hits[j].Entry.Ordinal {
			return hits[i].Entry.Ordinal < hits[j].Entry.Ordinal
		}
		return hits[i].Entry.DocumentID < hits[j].Entry.DocumentID
	})

	if k > 0 && len(hits) > k {
		hits = hits[:k]
	}
	return hits
}

// termFrequency sums how often each query term occurs in the text after
// tokenisation and stemming.
func termFrequency(text string, queryTerms map[string]struct{}) float64 {
	count := 0
	for _, token := range domain.Tokenize(text) {
		if _, ok := queryTerms[token]; ok {
			count++
		}
	}
	return float64(count)
}

// cosineSimilarity computes the cosine of the angle between two vectors.
// Zero vectors yield zero similarity.
func cosineSimilarity(a, b []float32) float64 {
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
