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

// Ensure SyncService implements the interface.
var _ driving.SyncService = (*SyncService)(nil)

// SyncService coordinates document synchronisation from sources into the
// index. It pulls raw documents from connectors, normalises them and hands
// them to the ingest service one by one.
type SyncService struct {
	sourceStore driven.SourceStore
	syncStore   driven.SyncStateStore
	docStore    driven.DocumentStore
	factory     driven.ConnectorFactory
	registry    driven.NormaliserRegistry
	ingest      driving.IngestService

	mu          sync.Mutex
	activeSyncs map[string]*driving.SyncStatus
}

// NewSyncService creates a sync service.
func NewSyncService(
	sourceStore driven.SourceStore,
	syncStore driven.SyncStateStore,
	docStore driven.DocumentStore,
	factory driven.ConnectorFactory,
	registry driven.NormaliserRegistry,
	ingest driving.IngestService,
) *SyncService {
	return &SyncService{
		sourceStore: sourceStore,
		syncStore:   syncStore,
		docStore:    docStore,
		factory:     factory,
		registry:    registry,
		ingest:      ingest,
		activeSyncs: make(map[string]*driving.SyncStatus),
	}
}

// Sync synchronises one source. Incremental sync runs when the connector
// supports it and a cursor from a previous run exists; otherwise every
// document is fetched and unchanged ones are skipped by fingerprint.
// Only one sync per source runs at a time.
func (o *SyncService) Sync(ctx context.Context, sourceID string) error {
	source, err := o.sourceStore.Get(ctx, sourceID)
	if err != nil {
		return fmt.Errorf("get source: %w", err)
	}

	connector, err := o.createConnector(ctx, source)
	if err != nil {
		return err
	}
	defer connector.Close()

	syncState, err := o.syncStore.Get(ctx, sourceID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("get sync state: %w", err)
	}

	if !o.beginSync(sourceID) {
		return fmt.Errorf("%w: source %s", domain.ErrSyncInProgress, sourceID)
	}
	defer o.endSync(sourceID)

	logger.Section(fmt.Sprintf("Sync %s (%s)", source.Name, source.Type))

	caps := connector.Capabilities()

	var newCursor string
	if caps.SupportsIncremental && syncState != nil && syncState.Cursor != "" {
		logger.Debug("Incremental sync from cursor %q", syncState.Cursor)
		changesCh, errsCh := connector.IncrementalSync(ctx, *syncState)
		newCursor, err = o.processChanges(ctx, source, changesCh, errsCh)
	} else {
		logger.Debug("Full sync")
		docsCh, errsCh := connector.FullSync(ctx)
		newCursor, err = o.processDocuments(ctx, source, docsCh, errsCh)
		if err == nil && newCursor == "" && caps.SupportsCursorReturn {
			newCursor = fmt.Sprintf("%d", time.Now().UnixNano())
		}
	}
	if err != nil {
		return err
	}

	newState := domain.SyncState{
		SourceID: sourceID,
		Cursor:   newCursor,
		LastSync: time.Now(),
	}
	if err := o.syncStore.Save(ctx, newState); err != nil {
		return fmt.Errorf("save sync state: %w", err)
	}

	processed, failed := o.counts(sourceID)
	logger.Info("Sync complete: %d documents, %d errors", processed, failed)
	return nil
}

// SyncAll synchronises every configured source, collecting failures rather
// than stopping at the first one.
func (o *SyncService) SyncAll(ctx context.Context) error {
	sources, err := o.sourceStore.List(ctx)
	if err != nil {
		return fmt.Errorf("list sources: %w", err)
	}

	var errs []error
	for _, source := range sources {
		if err := o.Sync(ctx, source.ID); err != nil {
			errs = append(errs, fmt.Errorf("sync %s: %w", source.ID, err))
		}
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// Watch follows a source's change feed and applies changes as they arrive.
// It blocks until the context is cancelled or the feed closes. Sources whose
// connector cannot push events fail with ErrWatchUnsupported.
func (o *SyncService) Watch(ctx context.Context, sourceID string) error {
	source, err := o.sourceStore.Get(ctx, sourceID)
	if err != nil {
		return fmt.Errorf("get source: %w", err)
	}

	connector, err := o.createConnector(ctx, source)
	if err != nil {
		return err
	}
	defer connector.Close()

	if !connector.Capabilities().SupportsWatch {
		return fmt.Errorf("%w: source %s (%s)", domain.ErrWatchUnsupported, sourceID, source.Type)
	}

	changesCh, err := connector.Watch(ctx)
	if err != nil {
		return fmt.Errorf("watch source %s: %w", sourceID, err)
	}

	if !o.beginSync(sourceID) {
		return fmt.Errorf("%w: source %s", domain.ErrSyncInProgress, sourceID)
	}
	defer o.endSync(sourceID)

	logger.Section(fmt.Sprintf("Watching %s (%s)", source.Name, source.Type))

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case change, ok := <-changesCh:
			if !ok {
				logger.Info("Watch feed for %s closed", sourceID)
				return nil
			}
			if err := o.applyChange(ctx, source, change); err != nil {
				o.recordError(sourceID)
				logger.Warn("Failed to apply change for %s: %v", change.Document.URI, err)
				continue
			}
			o.recordProcessed(sourceID)
		}
	}
}

// Status reports the state of a running sync, or an idle status when no
// sync is active for the source.
func (o *SyncService) Status(_ context.Context, sourceID string) (*driving.SyncStatus, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if status, ok := o.activeSyncs[sourceID]; ok {
		copied := *status
		return &copied, nil
	}

	return &driving.SyncStatus{
		SourceID: sourceID,
		Running:  false,
	}, nil
}

// createConnector builds and validates a connector for the source.
func (o *SyncService) createConnector(ctx context.Context, source *domain.Source) (driven.Connector, error) {
	if o.factory == nil {
		return nil, errors.New("create connector: connector factory not configured")
	}

	connector, err := o.factory.Create(ctx, *source)
	if err != nil {
		return nil, fmt.Errorf("create connector: %w", err)
	}

	if connector.Capabilities().SupportsValidation {
		if err := connector.Validate(ctx); err != nil {
			connector.Close()
			return nil, fmt.Errorf("%w: %w", domain.ErrConnectorValidation, err)
		}
	}

	return connector, nil
}

// processDocuments drains a full sync feed.
// Returns the new cursor when the connector sends a SyncComplete sentinel.
func (o *SyncService) processDocuments(
	ctx context.Context,
	source *domain.Source,
	docsCh <-chan domain.RawDocument,
	errsCh <-chan error,
) (string, error) {
	var newCursor string

	for {
		select {
		case <-ctx.Done():
			return "", ctx.Err()

		case err, ok := <-errsCh:
			if !ok {
				errsCh = nil
				continue
			}
			if sc, done := driven.IsSyncComplete(err); done {
				newCursor = sc.NewCursor
				continue
			}
			if err != nil {
				return "", fmt.Errorf("connector error: %w", err)
			}

		case rawDoc, ok := <-docsCh:
			if !ok {
				return o.drainFeedErrors(ctx, errsCh, newCursor)
			}

			logger.Debug("Processing: %s", rawDoc.URI)
			if err := o.processOneDocument(ctx, source, &rawDoc); err != nil {
				o.recordError(source.ID)
				logger.Warn("Failed to process %s: %v", rawDoc.URI, err)
				continue
			}
			o.recordProcessed(source.ID)
		}
	}
}

// processChanges drains an incremental sync feed.
// Returns the new cursor when the connector sends a SyncComplete sentinel.
func (o *SyncService) processChanges(
	ctx context.Context,
	source *domain.Source,
	changesCh <-chan domain.RawDocumentChange,
	errsCh <-chan error,
) (string, error) {
	var newCursor string

	for {
		select {
		case <-ctx.Done():
			return "", ctx.Err()

		case err, ok := <-errsCh:
			if !ok {
				errsCh = nil
				continue
			}
			if sc, done := driven.IsSyncComplete(err); done {
				newCursor = sc.NewCursor
				continue
			}
			if err != nil {
				return "", fmt.Errorf("connector error: %w", err)
			}

		case change, ok := <-changesCh:
			if !ok {
				return o.drainFeedErrors(ctx, errsCh, newCursor)
			}

			if err := o.applyChange(ctx, source, change); err != nil {
				o.recordError(source.ID)
				logger.Warn("Failed to apply change for %s: %v", change.Document.URI, err)
				continue
			}
			o.recordProcessed(source.ID)
		}
	}
}

// drainFeedErrors consumes errors still pending after the feed closed.
// The SyncComplete sentinel commonly trails the last document, so the
// cursor it carries must not be lost to channel scheduling.
func (o *SyncService) drainFeedErrors(ctx context.Context, errsCh <-chan error, cursor string) (string, error) {
	if errsCh == nil {
		return cursor, nil
	}

	for {
		select {
		case <-ctx.Done():
			return "", ctx.Err()

		case err, ok := <-errsCh:
			if !ok {
				return cursor, nil
			}
			if sc, done := driven.IsSyncComplete(err); done {
				cursor = sc.NewCursor
				continue
			}
			if err != nil {
				return "", fmt.Errorf("connector error: %w", err)
			}
		}
	}
}

// applyChange routes one change to ingestion or removal.
func (o *SyncService) applyChange(ctx context.Context, source *domain.Source, change domain.RawDocumentChange) error {
	switch change.Type {
	case domain.ChangeCreated, domain.ChangeUpdated:
		logger.Debug("Processing: %s", change.Document.URI)
		return o.processOneDocument(ctx, source, &change.Document)

	case domain.ChangeDeleted:
		logger.Debug("Deleting: %s", change.Document.URI)
		return o.deleteDocument(ctx, source.ID, &change.Document)

	default:
		return fmt.Errorf("%w: unknown change type %q", domain.ErrInvalidInput, change.Type)
	}
}

// processOneDocument normalises a raw document and ingests it.
func (o *SyncService) processOneDocument(ctx context.Context, source *domain.Source, raw *domain.RawDocument) error {
	doc, err := o.registry.Normalise(ctx, raw)
	if err != nil {
		return fmt.Errorf("normalise: %w", err)
	}

	doc.SourceID = source.ID
	doc.SourceType = source.Type

	outcome, err := o.ingest.Ingest(ctx, *doc)
	if err != nil {
		return fmt.Errorf("ingest: %w", err)
	}

	logger.Debug("Ingest outcome for %s: %s", doc.ID, outcome.Status)
	return nil
}

// deleteDocument removes a deleted source document from the index.
// Connectors that cannot report stable document IDs for deletions are
// resolved by URI instead.
func (o *SyncService) deleteDocument(ctx context.Context, sourceID string, raw *domain.RawDocument) error {
	docID := raw.DocumentID
	if docID == "" {
		docs, err := o.docStore.ListDocuments(ctx, sourceID)
		if err != nil {
			return fmt.Errorf("list documents: %w", err)
		}
		for i := range docs {
			if docs[i].URI == raw.URI {
				docID = docs[i].ID
				break
			}
		}
	}
	if docID == "" {
		// Already gone.
		return nil
	}

	return o.ingest.Remove(ctx, docID)
}

// beginSync registers a running sync for the source.
// Returns false when one is already active.
func (o *SyncService) beginSync(sourceID string) bool {
	o.mu.Lock()
	defer o.mu.Unlock()

	if _, running := o.activeSyncs[sourceID]; running {
		return false
	}
	o.activeSyncs[sourceID] = &driving.SyncStatus{
		SourceID: sourceID,
		Running:  true,
	}
	return true
}

// endSync clears the running sync for the source.
func (o *SyncService) endSync(sourceID string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	delete(o.activeSyncs, sourceID)
}

func (o *SyncService) recordProcessed(sourceID string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if status, ok := o.activeSyncs[sourceID]; ok {
		status.DocumentsProcessed++
	}
}

func (o *SyncService) recordError(sourceID string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if status, ok := o.activeSyncs[sourceID]; ok {
		status.ErrorCount++
	}
}

// counts returns the processed and error counters of the active sync.
func (o *SyncService) counts(sourceID string) (processed, failed int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if status, ok := o.activeSyncs[sourceID]; ok {
		return status.DocumentsProcessed, status.ErrorCount
	}
	return 0, 0
}
