// Package analyzer turns raw document or query text into the normalized
// token stream the rest of the engine indexes and searches on.
package analyzer

import (
	"strings"
	"unicode"

	"github.com/kljensen/snowball"
)

// stopWords is the fixed English stop-word set. Comparison happens on the
// already-lowercased surface form, before stemming.
var stopWords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "are": {}, "as": {}, "at": {}, "be": {},
	"by": {}, "for": {}, "from": {}, "has": {}, "have": {}, "he": {},
	"in": {}, "is": {}, "it": {}, "its": {}, "of": {}, "on": {}, "that": {},
	"the": {}, "to": {}, "was": {}, "were": {}, "will": {}, "with": {},
}

// Analyze runs the pipeline: lowercase, split on non-alphanumeric runs,
// drop stop words, stem survivors with the English Porter algorithm. Order
// matters — stop words are matched in their surface form, before stemming
// can turn a non-stop-word into one (e.g. "being" -> "be").
func Analyze(text string) []string {
	lower := strings.ToLower(text)

	var tokens []string
	for _, word := range splitWords(lower) {
		if word == "" {
			continue
		}
		if _, stop := stopWords[word]; stop {
			continue
		}
		stemmed, err := snowball.Stem(word, "english", true)
		if err != nil || stemmed == "" {
			continue
		}
		tokens = append(tokens, stemmed)
	}
	return tokens
}

// splitWords breaks s on any run of characters that are not letters or
// digits; adjacent separators collapse and leading/trailing separators
// produce no empty entries.
func splitWords(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
