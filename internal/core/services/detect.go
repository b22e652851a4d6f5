package services

import "github.com/quarrylabs/quarry/internal/core/domain"

// ShouldReindex reports whether a document needs (re-)indexing given the
// stored record and the fingerprint of the incoming content. A document
// never seen before always needs indexing; a known document only when its
// content fingerprint changed. Formatting-only edits produce the same
// fingerprint and are skipped.
func ShouldReindex(stored *domain.Document, fingerprint string) bool {
	if stored == nil {
		return true
	}
	return stored.Fingerprint != fingerprint
}
