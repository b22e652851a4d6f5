package driven

import (
	"context"

	"github.com/quarrylabs/quarry/internal/core/domain"
)

// DocumentStore persists document records. The record is the single
// source of truth for a document's last successfully indexed
// fingerprint and version; chunk entries live in the IndexStore.
type DocumentStore interface {
	// SaveDocument stores or updates a document record.
	SaveDocument(ctx context.Context, doc *domain.Document) error

	// GetDocument retrieves a document by ID.
	// Returns domain.ErrNotFound if no record exists.
	GetDocument(ctx context.Context, id string) (*domain.Document, error)

	// DeleteDocument removes a document record.
	DeleteDocument(ctx context.Context, id string) error

	// ListDocuments returns the documents belonging to a source.
	ListDocuments(ctx context.Context, sourceID string) ([]domain.Document, error)

	// ListAll returns every document record.
	ListAll(ctx context.Context) ([]domain.Document, error)
}
