package ai

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Finalize trims text, capitalises its first letter and makes sure it ends in
// ".", "!" or "?". Empty input stays empty.
func Finalize(text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return ""
	}

	first, size := utf8.DecodeRuneInString(text)
	if upper := unicode.ToUpper(first); upper != first {
		text = string(upper) + text[size:]
	}

	switch text[len(text)-1] {
	case '.', '!', '?':
		return text
	default:
		return text + "."
	}
}
