// Package tokenize splits one line of StupiD source into the chunks that are
// sent to the classifier and painted by the editor.
//
// A line is scanned left to right; at each position the first matching rule
// wins:
//
//  1. a double quoted run  "..."
//  2. a single quoted run  '...'
//  3. a backtick run       `...`
//  4. a run of word characters (letters, digits, underscore)
//  5. a run of whitespace
//  6. any other single character
//
// A quote without a closing partner on the same line falls through to rule 6.
// Concatenating the tokens always reproduces the input.
package tokenize

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Tokenize returns the tokens of line in order. An empty line yields nil.
func Tokenize(line string) []string {
	var tokens []string
	for pos := 0; pos < len(line); {
		n := next(line[pos:])
		tokens = append(tokens, line[pos:pos+n])
		pos += n
	}
	return tokens
}

// Count returns len(Tokenize(line)) without allocating the tokens.
func Count(line string) int {
	count := 0
	for pos := 0; pos < len(line); count++ {
		pos += next(line[pos:])
	}
	return count
}

// IsBlank reports whether line has no non-whitespace content.
func IsBlank(line string) bool {
	return strings.TrimSpace(line) == ""
}

// next returns the byte length of the token at the start of s (len(s) > 0).
func next(s string) int {
	switch s[0] {
	case '"', '\'', '`':
		if end := strings.IndexByte(s[1:], s[0]); end >= 0 {
			return end + 2
		}
		return 1
	}

	r, size := utf8.DecodeRuneInString(s)
	switch {
	case isWord(r):
		return size + spanOf(s[size:], isWord)
	case unicode.IsSpace(r):
		return size + spanOf(s[size:], unicode.IsSpace)
	default:
		return size
	}
}

// spanOf returns the byte length of the longest prefix of s whose runes all
// satisfy pred.
func spanOf(s string, pred func(rune) bool) int {
	for i, r := range s {
		if !pred(r) {
			return i
		}
	}
	return len(s)
}

func isWord(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}
