package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates an entity already exists.
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidConfig indicates configuration that can never work,
	// such as a chunk overlap equal to or larger than the chunk size.
	// Rejected immediately, never retried.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrInvalidQuery indicates an empty or unusable query.
	// Rejected immediately, never retried.
	ErrInvalidQuery = errors.New("invalid query")

	// ErrUnsupportedType indicates an unknown connector or normaliser type.
	ErrUnsupportedType = errors.New("unsupported type")

	// ErrSyncInProgress indicates a sync is already running for a source.
	ErrSyncInProgress = errors.New("sync in progress")

	// Embedding errors. Both are transient from the caller's point of
	// view: retry with backoff up to a bounded attempt count, then
	// surface as an ingestion failure for that document only.

	// ErrEmbeddingUnavailable indicates the embedding provider could not
	// be reached or refused the request.
	ErrEmbeddingUnavailable = errors.New("embedding provider unavailable")

	// ErrEmbeddingMalformed indicates the provider returned a mismatched
	// vector count or dimensionality.
	ErrEmbeddingMalformed = errors.New("embedding response malformed")

	// Index store errors.

	// ErrStoreUnavailable indicates the index backend is unreachable.
	// Fatal to the calling operation; surfaced, not silently retried.
	ErrStoreUnavailable = errors.New("index store unavailable")

	// ErrDimensionMismatch indicates a query or entry vector whose
	// dimensionality differs from the index. Programmer error, fatal.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")

	// ErrStaleWrite indicates a versioned upsert lost a race: the store
	// already holds entries for a newer version of the document. The
	// losing write is discarded, never partially applied.
	ErrStaleWrite = errors.New("stale write superseded by newer version")

	// Connector errors.

	// ErrConnectorValidation indicates connector validation failed.
	// The source is misconfigured or credentials are invalid.
	ErrConnectorValidation = errors.New("connector validation failed")

	// ErrConnectorClosed indicates the connector has been closed.
	ErrConnectorClosed = errors.New("connector closed")

	// ErrWatchUnsupported indicates the connector cannot push
	// real-time change events.
	ErrWatchUnsupported = errors.New("watch not supported")

	// ErrRateLimited indicates a provider rate limit was exceeded.
	ErrRateLimited = errors.New("rate limited")
)
