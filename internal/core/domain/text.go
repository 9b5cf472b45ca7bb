package domain

import (
	"strings"
	"unicode"
)

// CleanText normalizes recognized text: whitespace runs collapse to single
// spaces, leading/trailing whitespace is trimmed and non-printable runes are
// stripped. An empty result means the pipeline produced no usable text.
func CleanText(raw string) string {
	mapped := strings.Map(func(r rune) rune {
		switch {
		case unicode.IsSpace(r):
			return ' '
		case unicode.IsPrint(r):
			return r
		default:
			return -1
		}
	}, raw)
	return strings.Join(strings.Fields(mapped), " ")
}
