// Package datalog persists sensor readings to SQLite.
//
// Every sample the daemon polls is appended to the readings table, so
// history survives restarts and can be queried by robot, port and time
// range. Retention is enforced by Prune, which the daemon runs
// periodically with the configured retention window.
//
// The package owns its schema: New creates the readings table and its
// indexes on startup if they do not exist. Timestamps are stored as
// RFC3339 UTC strings, which sort correctly as text.
package datalog
