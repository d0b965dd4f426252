package identity

import "strings"

// NormalizeEmail performs case-insensitive canonicalization (upper-invariant).
// Lookups and uniqueness checks always use the normalized form.
func NormalizeEmail(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// NormalizeKey trims surrounding whitespace from a user key.
func NormalizeKey(s string) string {
	return strings.TrimSpace(s)
}
