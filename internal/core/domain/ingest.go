package domain

// IngestStatus describes what an ingestion attempt did.
type IngestStatus int

const (
	// IngestIndexed means a new document version was chunked, embedded
	// and committed.
	IngestIndexed IngestStatus = iota

	// IngestUnchanged means the fingerprint matched the stored record,
	// so no work was performed.
	IngestUnchanged

	// IngestSuperseded means the write lost a version race and was
	// discarded; a newer version is already searchable.
	IngestSuperseded
)

// String returns the status name for logging.
func (s IngestStatus) String() string {
	switch s {
	case IngestIndexed:
		return "indexed"
	case IngestUnchanged:
		return "unchanged"
	case IngestSuperseded:
		return "superseded"
	default:
		return "unknown"
	}
}

// IngestOutcome reports what happened to a single document ingestion.
type IngestOutcome struct {
	// Status is what the pipeline did.
	Status IngestStatus

	// DocumentID identifies the document.
	DocumentID string

	// Version is the document version now searchable.
	Version int64

	// ChunkCount is how many chunks the searchable version has.
	ChunkCount int
}
