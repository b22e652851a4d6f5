package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/quarrylabs/quarry/internal/core/domain"
	"github.com/quarrylabs/quarry/internal/core/ports/driven"
	"github.com/quarrylabs/quarry/internal/core/ports/driving"
	"github.com/quarrylabs/quarry/internal/logger"
)

// Ensure IngestService implements the interface.
var _ driving.IngestService = (*IngestService)(nil)

// IngestService turns documents into index entries.
//
// For every document it fingerprints the content, skips unchanged versions,
// chunks and embeds the rest, and replaces the document's entries in the
// index store under a new version. Ingestions of the same document are
// serialised; different documents proceed in parallel.
type IngestService struct {
	docs     driven.DocumentStore
	index    driven.IndexStore
	pipeline driven.PostProcessorPipeline
	embedder driven.EmbeddingService
	config   domain.IngestConfig

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewIngestService creates an ingest service.
// The embedder is optional; without one documents are indexed for keyword
// search only.
func NewIngestService(
	docs driven.DocumentStore,
	index driven.IndexStore,
	pipeline driven.PostProcessorPipeline,
	embedder driven.EmbeddingService,
	config domain.IngestConfig,
) *IngestService {
	return &IngestService{
		docs:     docs,
		index:    index,
		pipeline: pipeline,
		embedder: embedder,
		config:   config,
		locks:    make(map[string]*sync.Mutex),
	}
}

// Ingest indexes one document version end to end.
//
// The index write is all-or-nothing: a document either appears fully under
// its new version or the previously indexed version stays untouched. A
// concurrent ingestion that already wrote a newer version turns this call
// into a no-op with IngestSuperseded.
func (s *IngestService) Ingest(ctx context.Context, doc domain.Document) (*domain.IngestOutcome, error) {
	if doc.ID == "" {
		return nil, fmt.Errorf("%w: document ID is empty", domain.ErrInvalidInput)
	}

	unlock := s.lockDocument(doc.ID)
	defer unlock()

	logger.Section(fmt.Sprintf("Ingest %s", doc.ID))

	fingerprint := domain.Fingerprint(doc.Content)

	stored, err := s.docs.GetDocument(ctx, doc.ID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("load document record: %w", err)
	}

	if !ShouldReindex(stored, fingerprint) {
		logger.Debug("Document %s unchanged, skipping", doc.ID)
		return &domain.IngestOutcome{
			Status:     domain.IngestUnchanged,
			DocumentID: doc.ID,
			Version:    stored.Version,
		}, nil
	}

	version := int64(1)
	if stored != nil {
		version = stored.Version + 1
	}
	logger.Debug("Indexing %s as version %d", doc.ID, version)

	chunks, err := s.pipeline.Process(ctx, &doc)
	if err != nil {
		return nil, fmt.Errorf("chunk document %s: %w", doc.ID, err)
	}
	for i := range chunks {
		chunks[i].Version = version
		chunks[i].ID = domain.ChunkID(doc.ID, version, chunks[i].Ordinal)
	}
	logger.Debug("Document %s split into %d chunks", doc.ID, len(chunks))

	if s.embedder != nil && len(chunks) > 0 {
		texts := make([]string, len(chunks))
		for i, chunk := range chunks {
			texts[i] = chunk.Text
		}

		vectors, err := s.embedTexts(ctx, texts)
		if err != nil {
			return nil, fmt.Errorf("embed document %s: %w", doc.ID, err)
		}
		for i := range chunks {
			chunks[i].Embedding = vectors[i]
		}
	}

	entries := make([]domain.IndexEntry, len(chunks))
	for i, chunk := range chunks {
		entries[i] = domain.EntryFromChunk(chunk, doc.Name)
	}

	storeCtx := ctx
	if s.config.StoreTimeout > 0 {
		var cancel context.CancelFunc
		storeCtx, cancel = context.WithTimeout(ctx, s.config.StoreTimeout)
		defer cancel()
	}

	if err := s.index.Upsert(storeCtx, doc.ID, version, entries); err != nil {
		if errors.Is(err, domain.ErrStaleWrite) {
			logger.Warn("Discarding stale write for %s version %d", doc.ID, version)
			return &domain.IngestOutcome{
				Status:     domain.IngestSuperseded,
				DocumentID: doc.ID,
				Version:    version,
			}, nil
		}
		return nil, fmt.Errorf("index document %s: %w", doc.ID, err)
	}

	// The document record commits only after the index write, so a crash
	// in between re-runs the ingestion instead of losing it.
	doc.Fingerprint = fingerprint
	doc.Version = version
	doc.LastIndexedAt = time.Now()
	if stored != nil {
		doc.CreatedAt = stored.CreatedAt
	} else if doc.CreatedAt.IsZero() {
		doc.CreatedAt = time.Now()
	}

	if err := s.docs.SaveDocument(ctx, &doc); err != nil {
		return nil, fmt.Errorf("save document record %s: %w", doc.ID, err)
	}

	logger.Info("Indexed %s version %d (%d chunks)", doc.ID, version, len(entries))
	return &domain.IngestOutcome{
		Status:     domain.IngestIndexed,
		DocumentID: doc.ID,
		Version:    version,
		ChunkCount: len(entries),
	}, nil
}

// Remove deletes a document and all its index entries.
// Removing an unknown document is a no-op.
func (s *IngestService) Remove(ctx context.Context, documentID string) error {
	if documentID == "" {
		return fmt.Errorf("%w: document ID is empty", domain.ErrInvalidInput)
	}

	unlock := s.lockDocument(documentID)
	defer unlock()

	if err := s.index.Delete(ctx, documentID); err != nil && !errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("delete index entries for %s: %w", documentID, err)
	}
	if err := s.docs.DeleteDocument(ctx, documentID); err != nil && !errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("delete document record %s: %w", documentID, err)
	}

	logger.Info("Removed document %s", documentID)
	return nil
}

// embedTexts embeds all texts in one logical batch, retrying transient
// provider failures with doubling backoff. Either every text gets a vector
// or the whole call fails.
func (s *IngestService) embedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	attempts := s.config.EmbedMaxRetries + 1
	if attempts < 1 {
		attempts = 1
	}
	delay := s.config.EmbedRetryBase
	if delay <= 0 {
		delay = domain.DefaultEmbedRetryBase
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			logger.Debug("Embedding retry %d/%d in %s", attempt, attempts-1, delay)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
			delay *= 2
		}

		vectors, err := s.embedOnce(ctx, texts)
		if err == nil {
			if len(vectors) != len(texts) {
				return nil, fmt.Errorf("%w: got %d vectors for %d texts",
					domain.ErrEmbeddingMalformed, len(vectors), len(texts))
			}
			return vectors, nil
		}

		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		lastErr = err
		if !retryableEmbedError(err) {
			return nil, err
		}
		logger.Warn("Embedding attempt %d failed: %v", attempt+1, err)
	}

	return nil, fmt.Errorf("embedding failed after %d attempts: %w", attempts, lastErr)
}

// embedOnce makes a single provider call under the configured timeout.
func (s *IngestService) embedOnce(ctx context.Context, texts []string) ([][]float32, error) {
	if s.config.EmbedTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.config.EmbedTimeout)
		defer cancel()
	}
	return s.embedder.EmbedBatch(ctx, texts)
}

// retryableEmbedError reports whether an embedding failure is transient.
// Malformed responses are not: retrying them returns the same payload.
func retryableEmbedError(err error) bool {
	return errors.Is(err, domain.ErrEmbeddingUnavailable) ||
		errors.Is(err, domain.ErrRateLimited) ||
		errors.Is(err, context.DeadlineExceeded)
}

// lockDocument serialises work on a single document and returns the unlock.
func (s *IngestService) lockDocument(id string) func() {
	s.mu.Lock()
	lock, ok := s.locks[id]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[id] = lock
	}
	s.mu.Unlock()

	lock.Lock()
	return lock.Unlock
}
