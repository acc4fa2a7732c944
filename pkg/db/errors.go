package db

import "strings"

// IsUniqueViolation reports whether the provided error references a unique
// constraint violation. Works for both the sqlite and postgres drivers, which
// is why it inspects the message rather than driver error types. When
// indexName is provided, the helper looks for the index text in the message.
func IsUniqueViolation(err error, indexName string) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	if indexName != "" && strings.Contains(msg, indexName) {
		return true
	}
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value")
}
