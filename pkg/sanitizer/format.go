package sanitizer

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// NormalizeEmail returns the canonical form used as the unique account key:
// trimmed, NFC-normalized and lowercased. Malformed input is normalized the
// same way and left for validation to reject.
func NormalizeEmail(email string) string {
	email = strings.TrimSpace(email)
	email = norm.NFC.String(email)
	return strings.ToLower(email)
}

// EmailLocalPart returns the part before the last "@", or the whole input
// when there is no "@".
func EmailLocalPart(email string) string {
	if i := strings.LastIndex(email, "@"); i >= 0 {
		return email[:i]
	}
	return email
}

// MaskEmail preserves full domain for user recognition while hiding personal info.
func MaskEmail(email string) string {
	email = strings.TrimSpace(email)
	parts := strings.Split(email, "@")
	if len(parts) != 2 {
		return email
	}

	local := parts[0]
	domain := parts[1]

	if len(local) == 0 {
		return email
	}

	if len(local) == 1 {
		return "*@" + domain
	}

	masked := string(local[0]) + strings.Repeat("*", len(local)-1)
	return masked + "@" + domain
}
