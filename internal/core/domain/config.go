package domain

import (
	"fmt"
	"time"
)

// Retrieval defaults. Weights are configuration, not policy: callers
// may pass arbitrary weights as long as they sum to a positive total.
const (
	DefaultTopK            = 5
	DefaultVectorWeight    = 0.7
	DefaultKeywordWeight   = 0.3
	DefaultOverfetchFactor = 4
)

// Ingestion defaults.
const (
	DefaultMaxChunkSize    = 1000
	DefaultChunkOverlap    = 200
	DefaultEmbedBatchSize  = 100
	DefaultEmbedMaxRetries = 3
	DefaultEmbedRetryBase  = 500 * time.Millisecond
	DefaultEmbedTimeout    = 60 * time.Second
	DefaultStoreTimeout    = 30 * time.Second
)

// RetrievalConfig holds hybrid retrieval settings.
type RetrievalConfig struct {
	// TopK is the default number of results when a query doesn't
	// specify one.
	TopK int

	// VectorWeight and KeywordWeight are the default fusion weights.
	VectorWeight  float64
	KeywordWeight float64

	// OverfetchFactor multiplies k for each sub-search so fusion still
	// yields k results when the two candidate sets barely intersect.
	OverfetchFactor int
}

// DefaultRetrievalConfig returns the standard retrieval settings.
func DefaultRetrievalConfig() RetrievalConfig {
	return RetrievalConfig{
		TopK:            DefaultTopK,
		VectorWeight:    DefaultVectorWeight,
		KeywordWeight:   DefaultKeywordWeight,
		OverfetchFactor: DefaultOverfetchFactor,
	}
}

// Validate rejects settings that can never produce results.
func (c RetrievalConfig) Validate() error {
	if c.TopK <= 0 {
		return fmt.Errorf("%w: top-k must be positive, got %d", ErrInvalidConfig, c.TopK)
	}
	if c.OverfetchFactor < 1 {
		return fmt.Errorf("%w: overfetch factor must be at least 1, got %d", ErrInvalidConfig, c.OverfetchFactor)
	}
	if c.VectorWeight+c.KeywordWeight <= 0 {
		return fmt.Errorf("%w: weights must sum to a positive total", ErrInvalidConfig)
	}
	return nil
}

// IngestConfig holds chunking and embedding settings for ingestion.
type IngestConfig struct {
	// MaxChunkSize is the maximum chunk length in characters.
	MaxChunkSize int

	// ChunkOverlap is how many characters consecutive chunks share.
	ChunkOverlap int

	// EmbedBatchSize caps how many texts go to the provider per call.
	EmbedBatchSize int

	// EmbedMaxRetries bounds retry attempts for transient embedding
	// failures before the document's ingestion fails.
	EmbedMaxRetries int

	// EmbedRetryBase is the first backoff delay; it doubles per attempt.
	EmbedRetryBase time.Duration

	// EmbedTimeout bounds a single embedding provider call.
	EmbedTimeout time.Duration

	// StoreTimeout bounds a single index store operation.
	StoreTimeout time.Duration
}

// DefaultIngestConfig returns the standard ingestion settings.
func DefaultIngestConfig() IngestConfig {
	return IngestConfig{
		MaxChunkSize:    DefaultMaxChunkSize,
		ChunkOverlap:    DefaultChunkOverlap,
		EmbedBatchSize:  DefaultEmbedBatchSize,
		EmbedMaxRetries: DefaultEmbedMaxRetries,
		EmbedRetryBase:  DefaultEmbedRetryBase,
		EmbedTimeout:    DefaultEmbedTimeout,
		StoreTimeout:    DefaultStoreTimeout,
	}
}

// Validate rejects chunking configuration that can never terminate or
// makes no forward progress.
func (c IngestConfig) Validate() error {
	if c.MaxChunkSize <= 0 {
		return fmt.Errorf("%w: max chunk size must be positive, got %d", ErrInvalidConfig, c.MaxChunkSize)
	}
	if c.ChunkOverlap < 0 {
		return fmt.Errorf("%w: chunk overlap must not be negative, got %d", ErrInvalidConfig, c.ChunkOverlap)
	}
	if c.ChunkOverlap >= c.MaxChunkSize {
		return fmt.Errorf("%w: chunk overlap %d must be smaller than max chunk size %d",
			ErrInvalidConfig, c.ChunkOverlap, c.MaxChunkSize)
	}
	if c.EmbedBatchSize <= 0 {
		return fmt.Errorf("%w: embed batch size must be positive, got %d", ErrInvalidConfig, c.EmbedBatchSize)
	}
	return nil
}
