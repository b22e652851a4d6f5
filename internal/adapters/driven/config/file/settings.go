package file

import (
	"os"
	"time"

	"github.com/quarrylabs/quarry/internal/core/domain"
	"github.com/quarrylabs/quarry/internal/core/ports/driven"
)

// Config keys recognised by the settings readers. The store is free-form
// key/value; these are the keys the rest of the application reads.
const (
	KeyEmbeddingProvider = "embedding.provider"
	KeyEmbeddingModel    = "embedding.model"
	KeyEmbeddingBaseURL  = "embedding.base_url"
	KeyEmbeddingAPIKey   = "embedding.api_key"

	KeyRetrievalTopK          = "retrieval.top_k"
	KeyRetrievalVectorWeight  = "retrieval.vector_weight"
	KeyRetrievalKeywordWeight = "retrieval.keyword_weight"
	KeyRetrievalOverfetch     = "retrieval.overfetch_factor"

	KeyIngestMaxChunkSize   = "ingest.max_chunk_size"
	KeyIngestChunkOverlap   = "ingest.chunk_overlap"
	KeyIngestEmbedBatchSize = "ingest.embed_batch_size"

	KeySyncIntervalMinutes = "sync.interval_minutes"
)

// EmbeddingSettingsFrom reads the embedding provider configuration.
// The OPENAI_API_KEY environment variable backfills a missing API key so
// secrets can stay out of the config file.
func EmbeddingSettingsFrom(store driven.ConfigStore) domain.EmbeddingSettings {
	settings := domain.EmbeddingSettings{
		Provider: domain.AIProvider(store.GetString(KeyEmbeddingProvider)),
		Model:    store.GetString(KeyEmbeddingModel),
		BaseURL:  store.GetString(KeyEmbeddingBaseURL),
		APIKey:   store.GetString(KeyEmbeddingAPIKey),
	}

	if settings.Model == "" {
		settings.Model = domain.DefaultEmbeddingModels()[settings.Provider]
	}
	if settings.APIKey == "" {
		settings.APIKey = os.Getenv("OPENAI_API_KEY")
	}

	return settings
}

// RetrievalConfigFrom reads retrieval settings, falling back to the
// standard defaults for keys that are unset. A weight explicitly set to
// zero is honoured; only absent keys fall back.
func RetrievalConfigFrom(store driven.ConfigStore) domain.RetrievalConfig {
	cfg := domain.DefaultRetrievalConfig()

	if k := store.GetInt(KeyRetrievalTopK); k > 0 {
		cfg.TopK = k
	}
	if _, ok := store.Get(KeyRetrievalVectorWeight); ok {
		cfg.VectorWeight = store.GetFloat(KeyRetrievalVectorWeight)
	}
	if _, ok := store.Get(KeyRetrievalKeywordWeight); ok {
		cfg.KeywordWeight = store.GetFloat(KeyRetrievalKeywordWeight)
	}
	if f := store.GetInt(KeyRetrievalOverfetch); f >= 1 {
		cfg.OverfetchFactor = f
	}

	return cfg
}

// IngestConfigFrom reads chunking and embedding settings, falling back to
// the standard defaults for keys that are unset.
func IngestConfigFrom(store driven.ConfigStore) domain.IngestConfig {
	cfg := domain.DefaultIngestConfig()

	if v := store.GetInt(KeyIngestMaxChunkSize); v > 0 {
		cfg.MaxChunkSize = v
	}
	if _, ok := store.Get(KeyIngestChunkOverlap); ok {
		cfg.ChunkOverlap = store.GetInt(KeyIngestChunkOverlap)
	}
	if v := store.GetInt(KeyIngestEmbedBatchSize); v > 0 {
		cfg.EmbedBatchSize = v
	}

	return cfg
}

// SyncIntervalFrom reads the scheduler interval. The unit is minutes,
// which keeps the floor at one minute by construction. Zero or unset
// means periodic sync is off and sources are only synced on demand.
func SyncIntervalFrom(store driven.ConfigStore) time.Duration {
	minutes := store.GetInt(KeySyncIntervalMinutes)
	if minutes <= 0 {
		return 0
	}
	return time.Duration(minutes) * time.Minute
}
