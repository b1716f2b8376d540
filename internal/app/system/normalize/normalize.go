// Package normalize canonicalizes user-supplied identity fields before
// they are written to the database, so lookups and uniqueness checks
// behave predictably regardless of how the value was typed.
package normalize

import "strings"

// Email lowercases and trims an email address.
func Email(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Name collapses interior whitespace runs and trims a display name.
func Name(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// StudentID trims a student identifier. Empty stays empty (the field is
// optional and backed by a sparse unique index).
func StudentID(s string) string {
	return strings.TrimSpace(s)
}
