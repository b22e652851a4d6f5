package domain

import "time"

// Source types supported by Quarry. The set is closed: documents come
// either from local uploads or from Google Drive.
const (
	// SourceTypeUpload is a local directory of uploaded files.
	SourceTypeUpload = "upload"

	// SourceTypeDrive is a Google Drive account or folder.
	SourceTypeDrive = "drive"
)

// Source represents a configured data source.
// Each source produces documents via a connector.
type Source struct {
	// ID is the unique identifier for the source.
	ID string

	// Type identifies the connector type ("upload" or "drive").
	Type string

	// Name is the human-readable name for this source.
	Name string

	// Config contains connector-specific configuration.
	Config map[string]string

	// CreatedAt is when the source was created.
	CreatedAt time.Time

	// UpdatedAt is when the source was last updated.
	UpdatedAt time.Time
}

// SyncState tracks the synchronisation progress for a source.
type SyncState struct {
	// SourceID links to the Source being synced.
	SourceID string

	// Cursor is an opaque token for incremental sync.
	Cursor string

	// LastSync is when the last successful sync completed.
	LastSync time.Time
}

// ConfigKey describes one configuration field a connector accepts.
type ConfigKey struct {
	// Key is the config map key.
	Key string

	// Label is the human-readable field name.
	Label string

	// Description explains the field.
	Description string

	// Default is the value used when unset.
	Default string

	// Required marks fields that must be provided.
	Required bool
}

// ConnectorType describes an available connector for registration
// and source config validation.
type ConnectorType struct {
	// ID is the connector type identifier ("upload", "drive").
	ID string

	// Name is the human-readable connector name.
	Name string

	// Description explains what the connector indexes.
	Description string

	// RequiresAuth indicates the connector needs credentials.
	RequiresAuth bool

	// ConfigKeys lists the accepted configuration fields.
	ConfigKeys []ConfigKey
}
