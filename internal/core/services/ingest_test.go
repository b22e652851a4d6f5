package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	stdsync "sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quarrylabs/quarry/internal/adapters/driven/storage/memory"
	"github.com/quarrylabs/quarry/internal/core/domain"
	"github.com/quarrylabs/quarry/internal/postprocessors"
	"github.com/quarrylabs/quarry/internal/postprocessors/chunker"
)

// --- Mock implementations for ingest testing ---

// ingestMockPipeline implements driven.PostProcessorPipeline.
type ingestMockPipeline struct {
	chunks []domain.Chunk
	err    error
}

func (p *ingestMockPipeline) Process(_ context.Context, doc *domain.Document) ([]domain.Chunk, error) {
	if p.err != nil {
		return nil, p.err
	}
	if p.chunks != nil {
		return p.chunks, nil
	}
	return []domain.Chunk{{
		DocumentID: doc.ID,
		Ordinal:    0,
		EndOffset:  len(doc.Content),
		Text:       doc.Content,
	}}, nil
}

// --- Test helpers ---

func testPipeline(t *testing.T) *postprocessors.Pipeline {
	t.Helper()
	proc, err := chunker.New(chunker.WithChunkSize(80), chunker.WithOverlap(10))
	require.NoError(t, err)
	return postprocessors.NewPipeline(proc)
}

func testIngestConfig() domain.IngestConfig {
	cfg := domain.DefaultIngestConfig()
	cfg.EmbedRetryBase = time.Millisecond
	return cfg
}

// --- Tests ---

func TestNewIngestService(t *testing.T) {
	service := NewIngestService(
		memory.NewDocumentStore(), memory.NewIndexStore(),
		testPipeline(t), nil, testIngestConfig(),
	)

	require.NotNil(t, service)
	assert.NotNil(t, service.locks)
}

func TestIngestService_Ingest_EmptyDocumentID(t *testing.T) {
	service := NewIngestService(
		memory.NewDocumentStore(), memory.NewIndexStore(),
		testPipeline(t), nil, testIngestConfig(),
	)

	_, err := service.Ingest(context.Background(), domain.Document{Content: "text"})

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestIngestService_Ingest_NewDocument(t *testing.T) {
	docs := memory.NewDocumentStore()
	index := memory.NewIndexStore()
	embedder := &mockEmbeddingService{embedding: []float32{1, 0}}
	service := NewIngestService(docs, index, testPipeline(t), embedder, testIngestConfig())
	ctx := context.Background()

	content := "Refunds are processed within thirty days of purchase."
	outcome, err := service.Ingest(ctx, domain.Document{
		ID:      "doc-1",
		Name:    "Refund Policy",
		Content: content,
	})

	require.NoError(t, err)
	assert.Equal(t, domain.IngestIndexed, outcome.Status)
	assert.Equal(t, int64(1), outcome.Version)
	assert.Equal(t, 1, outcome.ChunkCount)

	saved, err := docs.GetDocument(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), saved.Version)
	assert.Equal(t, domain.Fingerprint(content), saved.Fingerprint)
	assert.False(t, saved.CreatedAt.IsZero())
	assert.False(t, saved.LastIndexedAt.IsZero())

	hits, err := index.KeywordSearch(ctx, "refunds", 10)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "doc-1:1:0", hits[0].Entry.ChunkID)
	assert.Equal(t, "Refund Policy", hits[0].Entry.DocumentName)
	assert.Equal(t, []float32{1, 0}, hits[0].Entry.Vector)
}

func TestIngestService_Ingest_UnchangedSkipped(t *testing.T) {
	docs := memory.NewDocumentStore()
	index := memory.NewIndexStore()
	embedder := &mockEmbeddingService{}
	service := NewIngestService(docs, index, testPipeline(t), embedder, testIngestConfig())
	ctx := context.Background()

	doc := domain.Document{ID: "doc-1", Content: "Stable content."}

	first, err := service.Ingest(ctx, doc)
	require.NoError(t, err)
	require.Equal(t, domain.IngestIndexed, first.Status)

	second, err := service.Ingest(ctx, doc)
	require.NoError(t, err)
	assert.Equal(t, domain.IngestUnchanged, second.Status)
	assert.Equal(t, int64(1), second.Version)

	// No second embedding round for unchanged content.
	_, batchCalls := embedder.calls()
	assert.Equal(t, 1, batchCalls)

	saved, err := docs.GetDocument(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), saved.Version)
}

func TestIngestService_Ingest_ChangedContentBumpsVersion(t *testing.T) {
	docs := memory.NewDocumentStore()
	index := memory.NewIndexStore()
	service := NewIngestService(docs, index, testPipeline(t), nil, testIngestConfig())
	ctx := context.Background()

	_, err := service.Ingest(ctx, domain.Document{ID: "doc-1", Content: "Refunds take thirty days."})
	require.NoError(t, err)

	outcome, err := service.Ingest(ctx, domain.Document{ID: "doc-1", Content: "Refunds take sixty days."})
	require.NoError(t, err)
	assert.Equal(t, domain.IngestIndexed, outcome.Status)
	assert.Equal(t, int64(2), outcome.Version)

	// Only the new version is searchable.
	hits, err := index.KeywordSearch(ctx, "refunds", 10)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "doc-1:2:0", hits[0].Entry.ChunkID)

	old, err := index.KeywordSearch(ctx, "thirty", 10)
	require.NoError(t, err)
	assert.Empty(t, old)
}

func TestIngestService_Ingest_PreservesCreatedAt(t *testing.T) {
	docs := memory.NewDocumentStore()
	service := NewIngestService(docs, memory.NewIndexStore(), testPipeline(t), nil, testIngestConfig())
	ctx := context.Background()

	_, err := service.Ingest(ctx, domain.Document{ID: "doc-1", Content: "first"})
	require.NoError(t, err)
	first, err := docs.GetDocument(ctx, "doc-1")
	require.NoError(t, err)

	_, err = service.Ingest(ctx, domain.Document{ID: "doc-1", Content: "second"})
	require.NoError(t, err)
	second, err := docs.GetDocument(ctx, "doc-1")
	require.NoError(t, err)

	assert.Equal(t, int64(2), second.Version)
	assert.True(t, second.CreatedAt.Equal(first.CreatedAt))
	assert.False(t, second.LastIndexedAt.Before(first.LastIndexedAt))
}

func TestIngestService_Ingest_KeywordOnlyWithoutEmbedder(t *testing.T) {
	docs := memory.NewDocumentStore()
	index := memory.NewIndexStore()
	service := NewIngestService(docs, index, testPipeline(t), nil, testIngestConfig())
	ctx := context.Background()

	outcome, err := service.Ingest(ctx, domain.Document{ID: "doc-1", Content: "Keyword only content."})
	require.NoError(t, err)
	assert.Equal(t, domain.IngestIndexed, outcome.Status)

	hits, err := index.KeywordSearch(ctx, "keyword", 10)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Nil(t, hits[0].Entry.Vector)

	// Vector-less entries stay out of the vector channel.
	vectorHits, err := index.VectorSearch(ctx, []float32{1, 0}, 10)
	require.NoError(t, err)
	assert.Empty(t, vectorHits)
}

func TestIngestService_Ingest_StaleWriteSuperseded(t *testing.T) {
	docs := memory.NewDocumentStore()
	index := memory.NewIndexStore()
	service := NewIngestService(docs, index, testPipeline(t), nil, testIngestConfig())
	ctx := context.Background()

	// Another writer already committed version 5 to the index while this
	// ingest still bases its version on the stored record at version 1.
	require.NoError(t, index.Upsert(ctx, "doc-1", 5, []domain.IndexEntry{{
		ChunkID:    domain.ChunkID("doc-1", 5, 0),
		DocumentID: "doc-1",
		Version:    5,
		Text:       "winning content",
	}}))
	require.NoError(t, docs.SaveDocument(ctx, &domain.Document{
		ID:          "doc-1",
		Fingerprint: domain.Fingerprint("old content"),
		Version:     1,
	}))

	outcome, err := service.Ingest(ctx, domain.Document{ID: "doc-1", Content: "new content"})

	require.NoError(t, err)
	assert.Equal(t, domain.IngestSuperseded, outcome.Status)
	assert.Equal(t, int64(2), outcome.Version)

	// The newer index version and the stored record are untouched.
	hits, err := index.KeywordSearch(ctx, "winning", 10)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "doc-1:5:0", hits[0].Entry.ChunkID)

	saved, err := docs.GetDocument(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), saved.Version)
	assert.Equal(t, domain.Fingerprint("old content"), saved.Fingerprint)
}

func TestIngestService_Ingest_RetriesTransientEmbedFailures(t *testing.T) {
	embedder := &mockEmbeddingService{batchErrs: []error{
		fmt.Errorf("connect: %w", domain.ErrEmbeddingUnavailable),
		fmt.Errorf("429: %w", domain.ErrRateLimited),
	}}
	service := NewIngestService(
		memory.NewDocumentStore(), memory.NewIndexStore(),
		testPipeline(t), embedder, testIngestConfig(),
	)

	outcome, err := service.Ingest(context.Background(), domain.Document{
		ID:      "doc-1",
		Content: "Content worth retrying for.",
	})

	require.NoError(t, err)
	assert.Equal(t, domain.IngestIndexed, outcome.Status)

	_, batchCalls := embedder.calls()
	assert.Equal(t, 3, batchCalls)
}

func TestIngestService_Ingest_EmbedRetryExhaustion(t *testing.T) {
	embedder := &mockEmbeddingService{batchErrs: []error{
		fmt.Errorf("down: %w", domain.ErrEmbeddingUnavailable),
		fmt.Errorf("down: %w", domain.ErrEmbeddingUnavailable),
		fmt.Errorf("down: %w", domain.ErrEmbeddingUnavailable),
	}}
	docs := memory.NewDocumentStore()
	index := memory.NewIndexStore()
	cfg := testIngestConfig()
	cfg.EmbedMaxRetries = 2
	service := NewIngestService(docs, index, testPipeline(t), embedder, cfg)
	ctx := context.Background()

	outcome, err := service.Ingest(ctx, domain.Document{ID: "doc-1", Content: "Doomed content."})

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)
	assert.Contains(t, err.Error(), "3 attempts")
	assert.Nil(t, outcome)

	_, batchCalls := embedder.calls()
	assert.Equal(t, 3, batchCalls)

	// A failed ingestion leaves no trace.
	_, err = docs.GetDocument(ctx, "doc-1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	hits, err := index.KeywordSearch(ctx, "doomed", 10)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestIngestService_Ingest_MalformedResponseNotRetried(t *testing.T) {
	// One vector short of the request is a malformed response, and
	// retrying would just return the same payload.
	embedder := &mockEmbeddingService{shortBatch: true}
	service := NewIngestService(
		memory.NewDocumentStore(), memory.NewIndexStore(),
		testPipeline(t), embedder, testIngestConfig(),
	)

	_, err := service.Ingest(context.Background(), domain.Document{
		ID:      "doc-1",
		Content: "Some content.",
	})

	assert.ErrorIs(t, err, domain.ErrEmbeddingMalformed)

	_, batchCalls := embedder.calls()
	assert.Equal(t, 1, batchCalls)
}

func TestIngestService_Ingest_MalformedProviderErrorNotRetried(t *testing.T) {
	embedder := &mockEmbeddingService{batchErrs: []error{
		fmt.Errorf("bad payload: %w", domain.ErrEmbeddingMalformed),
	}}
	service := NewIngestService(
		memory.NewDocumentStore(), memory.NewIndexStore(),
		testPipeline(t), embedder, testIngestConfig(),
	)

	_, err := service.Ingest(context.Background(), domain.Document{
		ID:      "doc-1",
		Content: "Some content.",
	})

	assert.ErrorIs(t, err, domain.ErrEmbeddingMalformed)

	_, batchCalls := embedder.calls()
	assert.Equal(t, 1, batchCalls)
}

func TestIngestService_Ingest_CancelledDuringBackoff(t *testing.T) {
	embedder := &mockEmbeddingService{batchErrs: []error{
		fmt.Errorf("down: %w", domain.ErrEmbeddingUnavailable),
	}}
	cfg := testIngestConfig()
	cfg.EmbedRetryBase = time.Hour
	service := NewIngestService(
		memory.NewDocumentStore(), memory.NewIndexStore(),
		testPipeline(t), embedder, cfg,
	)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	_, err := service.Ingest(ctx, domain.Document{ID: "doc-1", Content: "Some content."})

	assert.ErrorIs(t, err, context.Canceled)
}

func TestIngestService_Ingest_ChunkIDsAreDeterministic(t *testing.T) {
	docs := memory.NewDocumentStore()
	index := memory.NewIndexStore()
	service := NewIngestService(docs, index, testPipeline(t), nil, testIngestConfig())
	ctx := context.Background()

	content := strings.Repeat("Refunds follow the policy. ", 20)
	outcome, err := service.Ingest(ctx, domain.Document{ID: "doc-1", Content: content})
	require.NoError(t, err)
	require.Greater(t, outcome.ChunkCount, 1)

	hits, err := index.KeywordSearch(ctx, "refunds", 100)
	require.NoError(t, err)
	require.Len(t, hits, outcome.ChunkCount)

	// IDs derive from document, version and ordinal; ordinals are
	// contiguous from zero.
	seen := make(map[int]bool)
	for _, hit := range hits {
		assert.Equal(t, domain.ChunkID("doc-1", 1, hit.Entry.Ordinal), hit.Entry.ChunkID)
		seen[hit.Entry.Ordinal] = true
	}
	assert.Len(t, seen, outcome.ChunkCount)
	assert.True(t, seen[0])
	assert.True(t, seen[outcome.ChunkCount-1])
}

func TestIngestService_Ingest_EmptyContent(t *testing.T) {
	docs := memory.NewDocumentStore()
	index := memory.NewIndexStore()
	embedder := &mockEmbeddingService{}
	service := NewIngestService(docs, index, testPipeline(t), embedder, testIngestConfig())
	ctx := context.Background()

	outcome, err := service.Ingest(ctx, domain.Document{ID: "doc-1", Content: "   \n\t "})

	require.NoError(t, err)
	assert.Equal(t, domain.IngestIndexed, outcome.Status)
	assert.Equal(t, 0, outcome.ChunkCount)

	// The record commits so the empty state is remembered.
	saved, err := docs.GetDocument(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), saved.Version)

	_, batchCalls := embedder.calls()
	assert.Equal(t, 0, batchCalls)
}

func TestIngestService_Ingest_PipelineErrorSurfaces(t *testing.T) {
	docs := memory.NewDocumentStore()
	pipeline := &ingestMockPipeline{err: errors.New("split failed")}
	service := NewIngestService(docs, memory.NewIndexStore(), pipeline, nil, testIngestConfig())
	ctx := context.Background()

	_, err := service.Ingest(ctx, domain.Document{ID: "doc-1", Content: "content"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "chunk document")

	_, err = docs.GetDocument(ctx, "doc-1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestIngestService_Ingest_SerialisesPerDocument(t *testing.T) {
	docs := memory.NewDocumentStore()
	index := memory.NewIndexStore()
	service := NewIngestService(docs, index, &ingestMockPipeline{}, nil, testIngestConfig())
	ctx := context.Background()

	contents := []string{
		"Refund policy alpha.",
		"Refund policy beta.",
	}

	var wg stdsync.WaitGroup
	wg.Add(10)
	for i := 0; i < 10; i++ {
		go func(i int) {
			defer wg.Done()
			_, err := service.Ingest(ctx, domain.Document{
				ID:      "doc-1",
				Content: contents[i%len(contents)],
			})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	// Serialised ingests leave the record and the index on one version.
	saved, err := docs.GetDocument(ctx, "doc-1")
	require.NoError(t, err)

	hits, err := index.KeywordSearch(ctx, "refund", 100)
	require.NoError(t, err)
	require.NotEmpty(t, hits)
	for _, hit := range hits {
		assert.Equal(t, saved.Version, hit.Entry.Version)
	}
}

func TestIngestService_Remove(t *testing.T) {
	docs := memory.NewDocumentStore()
	index := memory.NewIndexStore()
	service := NewIngestService(docs, index, testPipeline(t), nil, testIngestConfig())
	ctx := context.Background()

	_, err := service.Ingest(ctx, domain.Document{ID: "doc-1", Content: "Removable content."})
	require.NoError(t, err)

	require.NoError(t, service.Remove(ctx, "doc-1"))

	_, err = docs.GetDocument(ctx, "doc-1")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	hits, err := index.KeywordSearch(ctx, "removable", 10)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestIngestService_Remove_Unknown(t *testing.T) {
	service := NewIngestService(
		memory.NewDocumentStore(), memory.NewIndexStore(),
		testPipeline(t), nil, testIngestConfig(),
	)

	assert.NoError(t, service.Remove(context.Background(), "never-seen"))
}

func TestIngestService_Remove_EmptyID(t *testing.T) {
	service := NewIngestService(
		memory.NewDocumentStore(), memory.NewIndexStore(),
		testPipeline(t), nil, testIngestConfig(),
	)

	err := service.Remove(context.Background(), "")

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
