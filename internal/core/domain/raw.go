package domain

import "time"

// RawDocument represents opaque bytes fetched by a connector.
// It is the connector's output before normalisation.
type RawDocument struct {
	// SourceID links to the Source that produced this document.
	SourceID string

	// DocumentID is the stable identifier the connector derives for
	// this document (from the file path or provider file ID).
	DocumentID string

	// Name is the display name (file name, Drive title).
	Name string

	// URI is the original location (file path, gdrive:// URI).
	URI string

	// MIMEType is the content type (e.g. "text/plain").
	MIMEType string

	// Content is the raw bytes.
	Content []byte

	// ModifiedAt is the provider's last-modified timestamp, when known.
	ModifiedAt time.Time
}

// ChangeType represents the type of document change.
type ChangeType int

const (
	// ChangeCreated indicates a new document.
	ChangeCreated ChangeType = iota

	// ChangeUpdated indicates a modified document.
	ChangeUpdated

	// ChangeDeleted indicates a removed document.
	ChangeDeleted
)

// RawDocumentChange represents a change event from a connector.
// Used for incremental sync and watch operations.
type RawDocumentChange struct {
	// Type is the kind of change.
	Type ChangeType

	// Document is the affected document. For deletions only the
	// identifying fields (DocumentID, URI) are populated.
	Document RawDocument
}
