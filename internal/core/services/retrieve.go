package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/quarrylabs/quarry/internal/core/domain"
	"github.com/quarrylabs/quarry/internal/core/ports/driven"
	"github.com/quarrylabs/quarry/internal/core/ports/driving"
	"github.com/quarrylabs/quarry/internal/logger"
)

// Ensure RetrieveService implements the interface.
var _ driving.RetrieveService = (*RetrieveService)(nil)

// RetrieveService answers queries by fusing vector and keyword search over
// the index store.
type RetrieveService struct {
	index    driven.IndexStore
	embedder driven.EmbeddingService
	config   domain.RetrievalConfig
}

// NewRetrieveService creates a retrieve service.
// The embedder is optional; without one retrieval runs keyword-only.
func NewRetrieveService(
	index driven.IndexStore,
	embedder driven.EmbeddingService,
	config domain.RetrievalConfig,
) *RetrieveService {
	return &RetrieveService{
		index:    index,
		embedder: embedder,
		config:   config,
	}
}

// Retrieve runs both search channels, normalises their scores and returns
// the top k chunks by weighted fused score.
func (s *RetrieveService) Retrieve(
	ctx context.Context, query string, opts domain.RetrieveOptions,
) ([]domain.RetrievalResult, error) {
	logger.Section("Retrieval")

	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: query is empty", domain.ErrInvalidQuery)
	}
	logger.Debug("Query: %q", query)

	k := opts.K
	if k <= 0 {
		k = s.config.TopK
	}

	vectorWeight, keywordWeight := opts.VectorWeight, opts.KeywordWeight
	if vectorWeight == 0 && keywordWeight == 0 {
		vectorWeight, keywordWeight = s.config.VectorWeight, s.config.KeywordWeight
	}
	if vectorWeight < 0 || keywordWeight < 0 {
		return nil, fmt.Errorf("%w: fusion weights must not be negative", domain.ErrInvalidInput)
	}
	if vectorWeight+keywordWeight <= 0 {
		return nil, fmt.Errorf("%w: fusion weights must sum to a positive total", domain.ErrInvalidInput)
	}

	// Each channel fetches more than k so fusion still has k results to
	// return when the candidate sets barely intersect.
	fetch := k * s.config.OverfetchFactor
	if fetch < k {
		fetch = k * domain.DefaultOverfetchFactor
	}
	logger.Debug("k=%d, fetch=%d, weights: vector=%.2f keyword=%.2f",
		k, fetch, vectorWeight, keywordWeight)

	var (
		wg          sync.WaitGroup
		vectorHits  []driven.IndexHit
		keywordHits []driven.IndexHit
		vectorErr   error
		keywordErr  error
	)

	// A channel whose weight is zero contributes nothing and is skipped.
	if vectorWeight > 0 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			vectorHits, vectorErr = s.vectorSearch(ctx, query, fetch)
		}()
	}
	if keywordWeight > 0 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			keywordHits, keywordErr = s.index.KeywordSearch(ctx, query, fetch)
		}()
	}
	wg.Wait()

	if vectorErr != nil {
		if keywordWeight > 0 && keywordErr == nil && embeddingDegradable(vectorErr) {
			logger.Warn("Vector channel unavailable, continuing keyword-only: %v", vectorErr)
			vectorHits = nil
		} else {
			return nil, fmt.Errorf("vector search: %w", vectorErr)
		}
	}
	if keywordErr != nil {
		return nil, fmt.Errorf("keyword search: %w", keywordErr)
	}

	logger.Debug("Channel hits: vector=%d, keyword=%d", len(vectorHits), len(keywordHits))

	results := fuse(vectorHits, keywordHits, vectorWeight, keywordWeight)
	if len(results) > k {
		results = results[:k]
	}

	logger.Info("Retrieved %d results for %q", len(results), query)
	return results, nil
}

// vectorSearch embeds the query and searches the vector channel.
func (s *RetrieveService) vectorSearch(ctx context.Context, query string, limit int) ([]driven.IndexHit, error) {
	if s.embedder == nil {
		return nil, fmt.Errorf("%w: no embedding service configured", domain.ErrEmbeddingUnavailable)
	}

	vector, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	hits, err := s.index.VectorSearch(ctx, vector, limit)
	if err != nil {
		return nil, fmt.Errorf("vector index: %w", err)
	}
	return hits, nil
}

// embeddingDegradable reports whether a vector channel failure may fall back
// to keyword-only retrieval instead of failing the query.
func embeddingDegradable(err error) bool {
	return errors.Is(err, domain.ErrEmbeddingUnavailable) || errors.Is(err, domain.ErrRateLimited)
}

// fuse merges the two ranked channels into a single weighted ranking.
//
// Scores are normalised per channel to [0,1] by dividing by that channel's
// maximum, so neither scoring scale dominates the other. A chunk found by
// only one channel scores zero on the missing one. Within a channel,
// duplicate chunk IDs keep their highest normalised score. The fused list
// sorts by score descending with ties broken by chunk ID ascending, which
// keeps rankings stable across runs.
func fuse(vectorHits, keywordHits []driven.IndexHit, vectorWeight, keywordWeight float64) []domain.RetrievalResult {
	type fusedHit struct {
		entry        domain.IndexEntry
		vectorScore  float64
		keywordScore float64
	}

	byChunk := make(map[string]*fusedHit, len(vectorHits)+len(keywordHits))
	order := make([]string, 0, len(vectorHits)+len(keywordHits))

	collect := func(hits []driven.IndexHit, assign func(*fusedHit, float64)) {
		ceiling := maxScore(hits)
		for _, hit := range hits {
			score := 0.0
			if ceiling > 0 && hit.Score > 0 {
				score = hit.Score / ceiling
			}

			f, ok := byChunk[hit.Entry.ChunkID]
			if !ok {
				f = &fusedHit{entry: hit.Entry}
				byChunk[hit.Entry.ChunkID] = f
				order = append(order, hit.Entry.ChunkID)
			}
			assign(f, score)
		}
	}

	collect(vectorHits, func(f *fusedHit, score float64) {
		if score > f.vectorScore {
			f.vectorScore = score
		}
	})
	collect(keywordHits, func(f *fusedHit, score float64) {
		if score > f.keywordScore {
			f.keywordScore = score
		}
	})

	results := make([]domain.RetrievalResult, 0, len(order))
	for _, id := range order {
		f := byChunk[id]
		results = append(results, domain.RetrievalResult{
			Entry:        f.entry,
			Score:        vectorWeight*f.vectorScore + keywordWeight*f.keywordScore,
			VectorScore:  f.vectorScore,
			KeywordScore: f.keywordScore,
			DocumentName: f.entry.DocumentName,
		})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Entry.ChunkID < results[j].Entry.ChunkID
	})

	return results
}

// maxScore returns the highest positive score in the hit list, or zero.
func maxScore(hits []driven.IndexHit) float64 {
	ceiling := 0.0
	for _, hit := range hits {
		if hit.Score > ceiling {
			ceiling = hit.Score
		}
	}
	return ceiling
}
