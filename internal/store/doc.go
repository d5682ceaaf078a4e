// Package store provides SQLite-backed local key-value storage.
//
// The journal keeps all of its state under a handful of string keys, each
// holding one opaque value that is always written whole:
//   - the journal document (a JSON blob)
//   - the PIN digest (a hex string, absent when no PIN is set)
//
// # Database Configuration
//
//   - WAL mode: readers do not block the single writer
//   - synchronous=NORMAL: balance durability/performance
//   - busy_timeout=5000: a second process waits up to 5 seconds for the lock
//   - foreign_keys=ON
//
// Schema changes are applied on Open and tracked with PRAGMA user_version.
package store
