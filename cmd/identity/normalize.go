package identity

import "strings"

// NormalizeUsername trims surrounding whitespace. Usernames keep their case.
func NormalizeUsername(s string) string {
	return strings.TrimSpace(s)
}

// NormalizeEmail trims surrounding whitespace.
// Emails are matched exactly as stored; no case folding is applied.
func NormalizeEmail(s string) string {
	return strings.TrimSpace(s)
}
