package domain

import (
	"fmt"
	"time"
)

// Document represents a source document and its indexing record.
// The record is owned by the ingestion pipeline and mutated only
// when a reindex commits or the document is deleted.
type Document struct {
	// ID is the stable identifier, derived from the source and the
	// document's path or provider file ID.
	ID string

	// SourceID links to the Source that produced this document.
	SourceID string

	// SourceType is the connector type ("upload" or "drive").
	SourceType string

	// Name is the human-readable display name, used for citation.
	Name string

	// URI is the original location (file path, gdrive:// URI, etc).
	URI string

	// Content is the full extracted text as of the last ingestion.
	Content string

	// Fingerprint is the content hash of the whitespace-normalised
	// extracted text at the last successful index.
	Fingerprint string

	// Version is a monotonic counter incremented on each successful
	// reindex. Zero means the document has never been indexed.
	Version int64

	// CreatedAt is when the document was first successfully indexed.
	CreatedAt time.Time

	// LastIndexedAt is when the current version was committed.
	LastIndexedAt time.Time
}

// Chunk is a bounded, overlapping slice of a document's extracted text.
// It is the atomic unit of embedding and retrieval.
type Chunk struct {
	// ID is "<documentID>:<version>:<ordinal>", assigned at ingestion.
	ID string

	// DocumentID links back to the parent Document.
	DocumentID string

	// Version is the document version this chunk belongs to.
	Version int64

	// Ordinal is the position within the document, contiguous from 0
	// for a given version.
	Ordinal int

	// StartOffset and EndOffset are character offsets into the
	// extracted text, so the original can be reconstructed.
	StartOffset int
	EndOffset   int

	// Text is the chunk content. Its length never exceeds the
	// configured maximum chunk size.
	Text string

	// Embedding is the vector representation. All chunks of an index
	// share one dimensionality.
	Embedding []float32
}

// ChunkID builds the deterministic chunk identifier for a document
// version and ordinal. Determinism matters: re-ingesting identical
// text must produce identical IDs.
func ChunkID(documentID string, version int64, ordinal int) string {
	return fmt.Sprintf("%s:%d:%d", documentID, version, ordinal)
}

// IndexEntry is the persisted, searchable representation of a chunk
// inside the index store: vector + text + metadata. Entries are keyed
// by document and version so a superseded version's entries can be
// removed atomically with the insertion of the new set.
type IndexEntry struct {
	// ChunkID identifies the chunk ("<documentID>:<version>:<ordinal>").
	ChunkID string

	// DocumentID links to the owning document.
	DocumentID string

	// Version is the document version the entry belongs to.
	Version int64

	// Ordinal is the chunk position within the document.
	Ordinal int

	// DocumentName is the display name of the source document,
	// carried for citation without a second lookup.
	DocumentName string

	// Text is the raw chunk text.
	Text string

	// Vector is the embedding, fixed dimensionality per index.
	Vector []float32
}

// EntryFromChunk builds the persisted form of a chunk.
func EntryFromChunk(c Chunk, documentName string) IndexEntry {
	return IndexEntry{
		ChunkID:      c.ID,
		DocumentID:   c.DocumentID,
		Version:      c.Version,
		Ordinal:      c.Ordinal,
		DocumentName: documentName,
		Text:         c.Text,
		Vector:       c.Embedding,
	}
}
