// Package indexer normalizes item descriptions and imports catalog files into storage.
package indexer

import (
	"strings"
	"unicode"
)

// Normalize lower-cases text and deletes every character that is not an ASCII
// lowercase letter, a digit, or whitespace. Whitespace runs are kept as-is.
func Normalize(text string) string {
	lowered := strings.ToLower(text)
	var b strings.Builder
	b.Grow(len(lowered))
	for _, r := range lowered {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || isSpace(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// isSpace reports Unicode whitespace plus the ASCII file, group, record and unit
// separators (U+001C to U+001F), which also separate words.
func isSpace(r rune) bool {
	return unicode.IsSpace(r) || (r >= 0x1c && r <= 0x1f)
}

// NormalizeNullable is Normalize for optional text; nil yields "".
func NormalizeNullable(text *string) string {
	if text == nil {
		return ""
	}
	return Normalize(*text)
}

// Tokenize splits text into maximal runs of letters and digits.
// Tokens shorter than minLen runes are dropped; minLen <= 1 keeps everything.
func Tokenize(text string, minLen int) []string {
	fields := strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	if minLen <= 1 {
		return fields
	}
	out := fields[:0]
	for _, f := range fields {
		if len([]rune(f)) >= minLen {
			out = append(out, f)
		}
	}
	return out
}
