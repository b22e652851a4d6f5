package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"unicode"
)

// Fingerprint computes the content hash used for change detection.
//
// The hash is taken over the whitespace-normalised text: runs of any
// whitespace collapse to a single space and leading/trailing space is
// trimmed. Formatting-only edits therefore produce the same
// fingerprint and do not trigger a spurious reindex. This deliberately
// trades away detection of whitespace-significant changes to avoid
// re-embedding cost.
func Fingerprint(text string) string {
	sum := sha256.Sum256([]byte(NormaliseWhitespace(text)))
	return hex.EncodeToString(sum[:])
}

// NormaliseWhitespace collapses every run of whitespace to a single
// space and trims the ends.
func NormaliseWhitespace(text string) string {
	var b strings.Builder
	b.Grow(len(text))

	inSpace := false
	for _, r := range text {
		if unicode.IsSpace(r) {
			inSpace = true
			continue
		}
		if inSpace && b.Len() > 0 {
			b.WriteByte(' ')
		}
		inSpace = false
		b.WriteRune(r)
	}

	return b.String()
}
