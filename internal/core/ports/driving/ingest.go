package driving

import (
	"context"

	"github.com/quarrylabs/quarry/internal/core/domain"
)

// IngestService runs the ingestion pipeline for extracted documents.
type IngestService interface {
	// Ingest fingerprints doc.Content, decides whether a reindex is
	// needed, and if so chunks, embeds and atomically replaces the
	// document's index entries before committing the record.
	// Unchanged content is a no-op. Concurrent ingests of the same
	// document serialise; ingests of different documents do not.
	Ingest(ctx context.Context, doc domain.Document) (*domain.IngestOutcome, error)

	// Remove deletes a document's index entries and its record.
	Remove(ctx context.Context, documentID string) error
}
