package driven

import (
	"context"

	"github.com/quarrylabs/quarry/internal/core/domain"
)

// SourceStore persists configured sources and their connector settings.
type SourceStore interface {
	// Save stores or updates a source.
	Save(ctx context.Context, source domain.Source) error

	// Get retrieves a source by ID.
	// Returns domain.ErrNotFound if the source does not exist.
	Get(ctx context.Context, id string) (*domain.Source, error)

	// Delete removes a source.
	// Returns domain.ErrNotFound if the source does not exist.
	Delete(ctx context.Context, id string) error

	// List returns all configured sources, ordered by ID.
	List(ctx context.Context) ([]domain.Source, error)
}
