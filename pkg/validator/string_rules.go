package validator

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Required fails for empty or whitespace-only values.
func Required(field, value string) Rule {
	return Rule{
		Field:   field,
		Message: "field is required",
		Valid:   func() bool { return strings.TrimSpace(value) != "" },
	}
}

// MinLen counts runes of the trimmed value.
func MinLen(field, value string, n int) Rule {
	return Rule{
		Field:   field,
		Message: fmt.Sprintf("must be at least %d characters long", n),
		Valid:   func() bool { return utf8.RuneCountInString(strings.TrimSpace(value)) >= n },
	}
}

// MaxBytes limits the raw byte length; bcrypt rejects inputs over 72 bytes.
func MaxBytes(field, value string, n int) Rule {
	return Rule{
		Field:   field,
		Message: fmt.Sprintf("must be at most %d bytes long", n),
		Valid:   func() bool { return len(value) <= n },
	}
}
