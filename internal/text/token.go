package text

import (
	"iter"
	"slices"
	"strings"
	"unicode"
)

// Tokens returns a lazy sequence of lowercase word tokens in s, left to
// right. A token is a maximal run of Unicode letters or digits; everything
// else (punctuation, symbols, whitespace) is a boundary and is discarded.
// The sequence is finite and restartable: ranging over it again replays
// the same tokens.
func Tokens(s string) iter.Seq[string] {
	return func(yield func(string) bool) {
		start := -1
		for i, r := range s {
			if isWordRune(r) {
				if start < 0 {
					start = i
				}
				continue
			}
			if start >= 0 {
				if !yield(strings.ToLower(s[start:i])) {
					return
				}
				start = -1
			}
		}
		if start >= 0 {
			yield(strings.ToLower(s[start:]))
		}
	}
}

// Tokenize returns all tokens of s at once.
func Tokenize(s string) []string {
	return slices.Collect(Tokens(s))
}

// CountTokens counts tokens without materializing them.
func CountTokens(s string) int {
	n := 0
	for range Tokens(s) {
		n++
	}
	return n
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsNumber(r)
}
