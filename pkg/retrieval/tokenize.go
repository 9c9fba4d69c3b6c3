// Package retrieval implements the lexical side of context assembly:
// chunking source documents, scoring chunks against a query, and ranking
// stored learnings. Everything here is pure and deterministic.
package retrieval

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// MinTokenLength is the shortest token kept by Tokenize.
const MinTokenLength = 3

// Tokenize lowercases text, splits it on runs of non-alphanumeric characters
// and drops tokens shorter than MinTokenLength. Order and duplicates are kept.
func Tokenize(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		if utf8.RuneCountInString(f) >= MinTokenLength {
			tokens = append(tokens, f)
		}
	}
	return tokens
}

// uniqueTokens returns the distinct tokens of text in first-seen order.
func uniqueTokens(text string) []string {
	tokens := Tokenize(text)
	seen := make(map[string]struct{}, len(tokens))
	out := tokens[:0]
	for _, t := range tokens {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

// tokenSet returns the set of tokens of text.
func tokenSet(text string) map[string]struct{} {
	tokens := Tokenize(text)
	set := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		set[t] = struct{}{}
	}
	return set
}
