package utils

import (
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
)

// asciiFold maps anything outside printable ASCII to '.', so identifiers
// land in the audit log without control characters or encoding surprises.
var asciiFold = runes.Map(func(r rune) rune {
	if r < ' ' || r > '~' {
		return '.'
	}
	return r
})

// FilterASCII sanitizes a string for logging. Invalid UTF-8 input is
// replaced wholesale rather than logged as-is.
func FilterASCII(s string) string {
	out, _, err := transform.String(asciiFold, s)
	if err != nil {
		return "<unprintable>"
	}
	return out
}
