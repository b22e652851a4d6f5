package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFingerprint_Deterministic(t *testing.T) {
	text := "The refund policy allows returns within 30 days."

	first := Fingerprint(text)
	second := Fingerprint(text)

	require.NotEmpty(t, first)
	assert.Equal(t, first, second)
	assert.Len(t, first, 64) // hex-encoded sha-256
}

func TestFingerprint_IgnoresFormattingOnlyEdits(t *testing.T) {
	original := "Refunds are processed\nwithin five business days."
	reformatted := "Refunds   are processed within \t five business days.\n\n"

	assert.Equal(t, Fingerprint(original), Fingerprint(reformatted))
}

func TestFingerprint_DetectsContentEdits(t *testing.T) {
	before := Fingerprint("Returns accepted within 30 days.")
	after := Fingerprint("Returns accepted within 60 days.")

	assert.NotEqual(t, before, after)
}

func TestFingerprint_EmptyAndWhitespaceAgree(t *testing.T) {
	assert.Equal(t, Fingerprint(""), Fingerprint("   \n\t  "))
}

func TestNormaliseWhitespace(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"collapses runs", "a  b\t\tc", "a b c"},
		{"trims ends", "  hello  ", "hello"},
		{"newlines become spaces", "line one\nline two", "line one line two"},
		{"empty stays empty", "", ""},
		{"whitespace only", " \n\t ", ""},
		{"preserves unicode", "café  au  lait", "café au lait"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormaliseWhitespace(tt.input))
		})
	}
}
