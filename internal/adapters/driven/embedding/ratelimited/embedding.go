// Package ratelimited wraps an embedding service with a client-side
// request budget, so bulk ingestion cannot trample provider quotas.
package ratelimited

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/quarrylabs/quarry/internal/core/domain"
	"github.com/quarrylabs/quarry/internal/core/ports/driven"
)

// Ensure EmbeddingService implements the interface.
var _ driven.EmbeddingService = (*EmbeddingService)(nil)

// Default configuration values. Conservative: well below typical
// provider limits so concurrent ingests stay clear of 429s.
const (
	DefaultRequestsPerSecond = 5.0
	DefaultBurstSize         = 10
	DefaultBackoff           = 30 * time.Second
)

// Config holds rate limiting configuration.
type Config struct {
	// RequestsPerSecond is the sustained request rate.
	RequestsPerSecond float64

	// BurstSize is the maximum burst size.
	BurstSize int

	// Backoff is how long to hold off after the provider reports a
	// rate limit despite the local budget.
	Backoff time.Duration
}

// EmbeddingService paces calls to an inner embedding service with a
// token bucket. A provider-side rate limit error additionally pauses
// all requests for the backoff period.
type EmbeddingService struct {
	inner   driven.EmbeddingService
	limiter *rate.Limiter
	backoff time.Duration

	mu      sync.Mutex
	retryAt time.Time
}

// Wrap decorates an embedding service with rate limiting.
func Wrap(inner driven.EmbeddingService, cfg Config) *EmbeddingService {
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = DefaultRequestsPerSecond
	}
	if cfg.BurstSize <= 0 {
		cfg.BurstSize = DefaultBurstSize
	}
	if cfg.Backoff <= 0 {
		cfg.Backoff = DefaultBackoff
	}

	return &EmbeddingService{
		inner:   inner,
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.BurstSize),
		backoff: cfg.Backoff,
	}
}

// Embed generates a vector embedding for a single text.
func (s *EmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := s.wait(ctx); err != nil {
		return nil, err
	}

	embedding, err := s.inner.Embed(ctx, text)
	s.recordResult(err)
	return embedding, err
}

// EmbedBatch generates embeddings for multiple texts.
// One token covers the whole batch; the provider counts requests, not
// inputs.
func (s *EmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	if err := s.wait(ctx); err != nil {
		return nil, err
	}

	embeddings, err := s.inner.EmbedBatch(ctx, texts)
	s.recordResult(err)
	return embeddings, err
}

// Dimensions returns the embedding vector size.
func (s *EmbeddingService) Dimensions() int {
	return s.inner.Dimensions()
}

// ModelName returns the name of the embedding model being used.
func (s *EmbeddingService) ModelName() string {
	return s.inner.ModelName()
}

// Ping validates the inner service is reachable.
func (s *EmbeddingService) Ping(ctx context.Context) error {
	return s.inner.Ping(ctx)
}

// Close releases resources.
func (s *EmbeddingService) Close() error {
	return s.inner.Close()
}

// wait blocks until a request fits the budget, honouring any backoff
// from a previous provider rate limit.
func (s *EmbeddingService) wait(ctx context.Context) error {
	s.mu.Lock()
	retryAt := s.retryAt
	s.mu.Unlock()

	if until := time.Until(retryAt); until > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(until):
		}
	}

	return s.limiter.Wait(ctx)
}

// recordResult starts the backoff window when the provider reports a
// rate limit.
func (s *EmbeddingService) recordResult(err error) {
	if err == nil || !errors.Is(err, domain.ErrRateLimited) {
		return
	}

	s.mu.Lock()
	s.retryAt = time.Now().Add(s.backoff)
	s.mu.Unlock()
}
