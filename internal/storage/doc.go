// Package storage persists birthday events and the dispatch history.
//
// Drivers:
//   - "sqlite": SQLite database file (modernc.org/sqlite, pure Go)
//   - "file": JSON snapshot + JSONL dispatch log
//   - "memory": process-local, nothing touches disk
package storage
