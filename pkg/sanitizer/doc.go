// Package sanitizer normalizes user-supplied strings before they reach storage.
//
// Emails are the account key, so NormalizeEmail must be applied everywhere an
// email is used for lookup or persistence:
//
//	email := sanitizer.NormalizeEmail("  Alice@Example.COM ")
//	// "alice@example.com"
//
// Free-text profile fields go through TrimText, which strips surrounding
// whitespace and control characters.
package sanitizer
