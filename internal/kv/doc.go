// Package kv is the string-valued key-value persistence boundary.
//
// Every backend implements Store. Callers hold the interface, never a
// concrete backend, so the driver store can run against the in-memory
// backend in tests and against SQLite from the command line.
//
// # Backends
//
//   - Memory: process-local map with an optional byte quota. Mirrors a
//     browser storage area, including quota-exceeded failures.
//   - SQLite: single `kv` table in a WAL-mode database file.
//
// # Atomicity
//
// Apply commits a batch of puts and deletes as one unit. Either every
// operation in the batch is visible to the next read or none is.
package kv
