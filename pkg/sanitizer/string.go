package sanitizer

import (
	"strings"
	"unicode"
)

// TrimText trims surrounding whitespace and drops control characters other
// than newlines and tabs. Used for free-text profile fields.
func TrimText(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return s
	}
	return strings.Map(func(r rune) rune {
		if r == '\n' || r == '\t' {
			return r
		}
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, s)
}
