package driven

import (
	"context"

	"github.com/quarrylabs/quarry/internal/core/domain"
)

// Normaliser extracts plain text from raw documents.
// Each normaliser handles specific MIME types.
type Normaliser interface {
	// SupportedMIMETypes returns the MIME types this normaliser handles.
	SupportedMIMETypes() []string

	// Priority returns the selection priority (higher = preferred)
	// when several normalisers support the same MIME type.
	Priority() int

	// Normalise transforms a raw document into a document whose
	// Content holds the extracted plain text.
	Normalise(ctx context.Context, raw *domain.RawDocument) (*domain.Document, error)
}

// NormaliserRegistry routes raw documents to the right normaliser.
type NormaliserRegistry interface {
	// Normalise selects the highest-priority normaliser for the document's
	// MIME type and runs it. Returns domain.ErrUnsupportedType when no
	// normaliser handles the type.
	Normalise(ctx context.Context, raw *domain.RawDocument) (*domain.Document, error)

	// Register adds a normaliser to the registry.
	Register(normaliser Normaliser)

	// SupportedMIMETypes returns all MIME types that can be normalised.
	SupportedMIMETypes() []string
}
