package domain

import (
	"strings"
	"unicode"
)

// stopwords are excluded from keyword scoring. Small fixed set; the
// goal is token overlap scoring, not full-text relevance sophistication.
var stopwords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "are": {}, "as": {}, "at": {},
	"be": {}, "by": {}, "for": {}, "from": {}, "has": {}, "he": {},
	"in": {}, "is": {}, "it": {}, "its": {}, "of": {}, "on": {},
	"or": {}, "that": {}, "the": {}, "to": {}, "was": {}, "were": {},
	"will": {}, "with": {},
}

// Tokenize splits text into lowercased, stemmed keyword tokens with
// stopwords removed. It mirrors the porter/unicode61 tokenisation the
// SQLite keyword index uses, closely enough that in-memory scoring
// ranks the same way.
func Tokenize(text string) []string {
	var tokens []string

	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	for _, f := range fields {
		if _, skip := stopwords[f]; skip {
			continue
		}
		if t := stem(f); t != "" {
			tokens = append(tokens, t)
		}
	}

	return tokens
}

// stem applies light suffix stripping. Not a full Porter stemmer, just
// the common plural and participle endings that matter for overlap
// between query and chunk tokens.
func stem(token string) string {
	if len(token) <= 3 {
		return token
	}

	switch {
	case strings.HasSuffix(token, "sses"):
		return token[:len(token)-2]
	case strings.HasSuffix(token, "ies"):
		return token[:len(token)-2]
	case strings.HasSuffix(token, "ing") && len(token) > 5:
		return token[:len(token)-3]
	case strings.HasSuffix(token, "ed") && len(token) > 4:
		return token[:len(token)-2]
	case strings.HasSuffix(token, "ss"):
		return token
	case strings.HasSuffix(token, "s"):
		return token[:len(token)-1]
	case strings.HasSuffix(token, "y") && len(token) > 4:
		// Terminal y maps to i so singular and plural agree
		// ("policy" and "policies" both stem to "polici").
		return token[:len(token)-1] + "i"
	}

	return token
}
