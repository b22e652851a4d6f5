package file

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quarrylabs/quarry/internal/core/domain"
)

func newSettingsStore(t *testing.T) *ConfigStore {
	t.Helper()
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)
	return store
}

func TestEmbeddingSettingsFrom(t *testing.T) {
	t.Run("reads configured provider", func(t *testing.T) {
		store := newSettingsStore(t)
		require.NoError(t, store.Set(KeyEmbeddingProvider, "openai"))
		require.NoError(t, store.Set(KeyEmbeddingModel, "text-embedding-3-large"))
		require.NoError(t, store.Set(KeyEmbeddingAPIKey, "sk-test"))

		settings := EmbeddingSettingsFrom(store)

		assert.Equal(t, domain.AIProviderOpenAI, settings.Provider)
		assert.Equal(t, "text-embedding-3-large", settings.Model)
		assert.Equal(t, "sk-test", settings.APIKey)
		assert.True(t, settings.IsConfigured())
	})

	t.Run("defaults model per provider", func(t *testing.T) {
		store := newSettingsStore(t)
		require.NoError(t, store.Set(KeyEmbeddingProvider, "ollama"))

		settings := EmbeddingSettingsFrom(store)

		assert.Equal(t, domain.AIProviderOllama, settings.Provider)
		assert.Equal(t, "nomic-embed-text", settings.Model)
	})

	t.Run("environment backfills missing api key", func(t *testing.T) {
		t.Setenv("OPENAI_API_KEY", "sk-from-env")
		store := newSettingsStore(t)
		require.NoError(t, store.Set(KeyEmbeddingProvider, "openai"))

		settings := EmbeddingSettingsFrom(store)

		assert.Equal(t, "sk-from-env", settings.APIKey)
		assert.True(t, settings.IsConfigured())
	})

	t.Run("stored key wins over environment", func(t *testing.T) {
		t.Setenv("OPENAI_API_KEY", "sk-from-env")
		store := newSettingsStore(t)
		require.NoError(t, store.Set(KeyEmbeddingProvider, "openai"))
		require.NoError(t, store.Set(KeyEmbeddingAPIKey, "sk-stored"))

		settings := EmbeddingSettingsFrom(store)

		assert.Equal(t, "sk-stored", settings.APIKey)
	})

	t.Run("empty store is not configured", func(t *testing.T) {
		t.Setenv("OPENAI_API_KEY", "")
		store := newSettingsStore(t)

		settings := EmbeddingSettingsFrom(store)

		assert.False(t, settings.IsConfigured())
	})
}

func TestRetrievalConfigFrom(t *testing.T) {
	t.Run("empty store yields defaults", func(t *testing.T) {
		store := newSettingsStore(t)

		cfg := RetrievalConfigFrom(store)

		assert.Equal(t, domain.DefaultRetrievalConfig(), cfg)
	})

	t.Run("configured values override defaults", func(t *testing.T) {
		store := newSettingsStore(t)
		require.NoError(t, store.Set(KeyRetrievalTopK, 20))
		require.NoError(t, store.Set(KeyRetrievalVectorWeight, 0.5))
		require.NoError(t, store.Set(KeyRetrievalKeywordWeight, 0.5))
		require.NoError(t, store.Set(KeyRetrievalOverfetch, 2))

		cfg := RetrievalConfigFrom(store)

		assert.Equal(t, 20, cfg.TopK)
		assert.Equal(t, 0.5, cfg.VectorWeight)
		assert.Equal(t, 0.5, cfg.KeywordWeight)
		assert.Equal(t, 2, cfg.OverfetchFactor)
	})

	t.Run("explicit zero weight is honoured", func(t *testing.T) {
		store := newSettingsStore(t)
		require.NoError(t, store.Set(KeyRetrievalVectorWeight, 0.0))

		cfg := RetrievalConfigFrom(store)

		assert.Equal(t, 0.0, cfg.VectorWeight)
		assert.Equal(t, domain.DefaultKeywordWeight, cfg.KeywordWeight)
	})

	t.Run("non-positive top-k falls back", func(t *testing.T) {
		store := newSettingsStore(t)
		require.NoError(t, store.Set(KeyRetrievalTopK, 0))

		cfg := RetrievalConfigFrom(store)

		assert.Equal(t, domain.DefaultTopK, cfg.TopK)
	})
}

func TestIngestConfigFrom(t *testing.T) {
	t.Run("empty store yields defaults", func(t *testing.T) {
		store := newSettingsStore(t)

		cfg := IngestConfigFrom(store)

		assert.Equal(t, domain.DefaultIngestConfig(), cfg)
	})

	t.Run("configured values override defaults", func(t *testing.T) {
		store := newSettingsStore(t)
		require.NoError(t, store.Set(KeyIngestMaxChunkSize, 500))
		require.NoError(t, store.Set(KeyIngestChunkOverlap, 50))
		require.NoError(t, store.Set(KeyIngestEmbedBatchSize, 10))

		cfg := IngestConfigFrom(store)

		assert.Equal(t, 500, cfg.MaxChunkSize)
		assert.Equal(t, 50, cfg.ChunkOverlap)
		assert.Equal(t, 10, cfg.EmbedBatchSize)
	})

	t.Run("explicit zero overlap is honoured", func(t *testing.T) {
		store := newSettingsStore(t)
		require.NoError(t, store.Set(KeyIngestChunkOverlap, 0))

		cfg := IngestConfigFrom(store)

		assert.Equal(t, 0, cfg.ChunkOverlap)
	})
}

func TestSyncIntervalFrom(t *testing.T) {
	t.Run("unset means manual sync only", func(t *testing.T) {
		store := newSettingsStore(t)

		assert.Equal(t, time.Duration(0), SyncIntervalFrom(store))
	})

	t.Run("configured minutes", func(t *testing.T) {
		store := newSettingsStore(t)
		require.NoError(t, store.Set(KeySyncIntervalMinutes, 15))

		assert.Equal(t, 15*time.Minute, SyncIntervalFrom(store))
	})

	t.Run("negative value means manual sync only", func(t *testing.T) {
		store := newSettingsStore(t)
		require.NoError(t, store.Set(KeySyncIntervalMinutes, -5))

		assert.Equal(t, time.Duration(0), SyncIntervalFrom(store))
	})
}
