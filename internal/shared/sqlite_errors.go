// Package shared provides common utilities used across the codebase.
//
//nolint:revive // "shared" is an intentional package name for cross-cutting helpers.
package shared

import "strings"

// IsSQLiteConflict reports whether err is a SQLite concurrency error
// (SQLITE_BUSY or "database is locked"). WAL mode keeps readers out of the
// writer's way, but two writers can still collide; these errors clear on
// retry once the competing write finishes.
func IsSQLiteConflict(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}
