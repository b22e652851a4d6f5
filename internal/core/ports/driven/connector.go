package driven

import (
	"context"
	"errors"

	"github.com/quarrylabs/quarry/internal/core/domain"
)

// Connector fetches documents from a data source.
// Each connector type (upload, drive) implements this interface.
type Connector interface {
	// Type returns the connector type identifier.
	Type() string

	// SourceID returns the configured source ID.
	SourceID() string

	// Capabilities returns what this connector supports.
	Capabilities() ConnectorCapabilities

	// Validate checks if the connector is properly configured.
	// For the upload connector this checks the path exists and is
	// readable; for Drive it makes a lightweight API call.
	// Returns nil if ready to sync, error describing the problem otherwise.
	Validate(ctx context.Context) error

	// FullSync fetches all documents from the source.
	// Returns channels for documents and errors. Connectors that
	// support cursor return send SyncComplete on the error channel
	// upon successful completion.
	FullSync(ctx context.Context) (<-chan domain.RawDocument, <-chan error)

	// IncrementalSync fetches only changes since the last sync.
	// Only available if SupportsIncremental is true.
	IncrementalSync(ctx context.Context, state domain.SyncState) (<-chan domain.RawDocumentChange, <-chan error)

	// Watch listens for real-time changes.
	// Only available if SupportsWatch is true; otherwise it fails with
	// domain.ErrWatchUnsupported.
	Watch(ctx context.Context) (<-chan domain.RawDocumentChange, error)

	// Close releases resources.
	Close() error
}

// ConnectorCapabilities describes what a connector supports.
type ConnectorCapabilities struct {
	// SupportsIncremental indicates the connector can fetch only changes.
	SupportsIncremental bool

	// SupportsWatch indicates the connector can push real-time events.
	SupportsWatch bool

	// RequiresAuth indicates the connector needs credentials.
	// False for local connectors like upload.
	RequiresAuth bool

	// SupportsValidation indicates Validate() performs actual validation.
	SupportsValidation bool

	// SupportsCursorReturn indicates sync can return an updated cursor
	// via the SyncComplete sentinel on the error channel.
	SupportsCursorReturn bool
}

// SyncComplete is sent on the error channel when sync completes successfully.
// Carries the new cursor state for incremental sync.
type SyncComplete struct {
	NewCursor string
}

// Error implements the error interface.
// This allows SyncComplete to be sent on the error channel.
func (SyncComplete) Error() string {
	return "sync complete"
}

// IsSyncComplete checks if an error is actually a successful completion.
// Returns the SyncComplete and true if it is, nil and false otherwise.
func IsSyncComplete(err error) (*SyncComplete, bool) {
	var sc *SyncComplete
	if errors.As(err, &sc) {
		return sc, true
	}
	return nil, false
}

// ConnectorFactory creates connectors from source configurations.
type ConnectorFactory interface {
	// Create builds a connector for the source's type.
	// Returns domain.ErrUnsupportedType for unknown types.
	Create(ctx context.Context, source domain.Source) (Connector, error)
}
