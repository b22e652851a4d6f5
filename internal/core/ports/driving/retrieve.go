package driving

import (
	"context"

	"github.com/quarrylabs/quarry/internal/core/domain"
)

// RetrieveService answers queries through hybrid vector+keyword search.
type RetrieveService interface {
	// Retrieve returns the top-k chunks for a query, ranked by the
	// weighted fusion of normalised vector and keyword scores.
	// Empty queries fail with domain.ErrInvalidQuery.
	Retrieve(ctx context.Context, query string, opts domain.RetrieveOptions) ([]domain.RetrievalResult, error)
}
