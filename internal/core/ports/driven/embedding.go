package driven

import "context"

// EmbeddingService generates vector embeddings from text.
// This is an optional service - when nil, vector search is disabled
// and retrieval degrades to keyword-only.
//
// Implementations may include:
//   - OpenAI (text-embedding-3-small, text-embedding-3-large)
//   - Ollama (nomic-embed-text, all-minilm)
//   - Local models via inference servers
type EmbeddingService interface {
	// Embed generates a vector embedding for a single text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embeddings for multiple texts, preserving
	// order: one vector per input, all of Dimensions() length.
	// Implementations split the input into provider-sized batches.
	// An empty input is a no-op returning an empty result.
	//
	// Failures wrap domain.ErrEmbeddingUnavailable (provider/network),
	// domain.ErrRateLimited (quota) or domain.ErrEmbeddingMalformed
	// (count or dimension mismatch). The first two are transient and
	// worth retrying with backoff; a malformed response is not, since
	// retrying returns the same payload.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the embedding vector size (e.g., 768, 1536).
	// This is determined by the model and must match the index.
	Dimensions() int

	// ModelName returns the name of the embedding model being used.
	ModelName() string

	// Ping validates the service is reachable by making a lightweight
	// test request. Used at startup before committing to hybrid mode.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}
