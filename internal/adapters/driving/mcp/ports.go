package mcp

import (
	"github.com/quarrylabs/quarry/internal/core/ports/driven"
	"github.com/quarrylabs/quarry/internal/core/ports/driving"
)

// Ports aggregates everything the MCP server needs from the application.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Retrieve answers queries against the index.
	Retrieve driving.RetrieveService

	// Source manages source configurations.
	Source driving.SourceService

	// Documents is the read model for document resources. The store is
	// used directly; resources expose stored state, not operations.
	Documents driven.DocumentStore
}

// Validate ensures all required ports are set.
// Returns an error if any required port is nil.
func (p *Ports) Validate() error {
	if p.Retrieve == nil {
		return ErrMissingRetrieveService
	}
	// Source and Documents are optional; their resources degrade to
	// empty or not-found responses.
	return nil
}
