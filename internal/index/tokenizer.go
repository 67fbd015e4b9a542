package index

import (
	"slices"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Fold returns s with diacritics removed and case folded, so "Piña" and
// "PINA" compare equal
func Fold(s string) string {
	// transformers carry state and are built per call
	stripMarks := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	stripped, _, err := transform.String(stripMarks, s)
	if err != nil {
		stripped = s
	}
	return cases.Fold().String(stripped)
}

// Tokenize folds text and splits it on anything that is not a letter or a
// digit. Tokens are returned in first-seen order without duplicates.
func Tokenize(text string) []string {
	words := strings.FieldsFunc(Fold(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	tokens := make([]string, 0, len(words))
	for _, word := range words {
		if !slices.Contains(tokens, word) {
			tokens = append(tokens, word)
		}
	}
	return tokens
}
