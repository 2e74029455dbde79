// Package database provides SQLite-based storage for arcrack.
//
// This package implements the StateDB, which stores:
//   - Recovery sessions, one JSON record per archive, keyed by the session id
//   - Learned password patterns, one JSON record per (type, key) hash
//
// The driver is modernc.org/sqlite, a CGO-free implementation, so the binary
// cross-compiles without a C toolchain. The database is a single file in the
// XDG data directory and runs in WAL mode with one writer connection.
//
// Storage is last-write-wins. Single-job-per-archive is enforced by the
// session manager's pending-session check, not by database locks.
package database
