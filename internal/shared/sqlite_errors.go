// Package shared provides common utilities used across the codebase.
//
//nolint:revive // "shared" is an intentional package name for cross-cutting helpers.
package shared

import "strings"

// SQLite concurrency failures surface as driver error strings rather than
// typed errors, so classification is substring-based.
var sqliteConflictMarkers = []string{
	"SQLITE_BUSY",
	"database is locked",
}

// IsSQLiteConflictError reports whether the error is a SQLite concurrency
// failure (SQLITE_BUSY or a locked database). Both clear up on their own and
// warrant a retry with backoff.
func IsSQLiteConflictError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	for _, marker := range sqliteConflictMarkers {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}
