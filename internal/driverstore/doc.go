// Package driverstore owns the canonical list of driver records.
//
// Records live in two overlapping key-value representations:
//
//   - Aggregate: key "drivers" holds a JSON array of every record.
//   - Individual: key "driver_<id>" holds one record as a JSON object.
//
// Load reconciles both into one deduplicated canonical list and repairs the
// aggregate entry. Every mutation (Create, Update, Delete, AttachDocument)
// updates the in-memory list first and then writes the aggregate entry and
// the affected individual entry in one atomic kv batch.
//
// # Merge Policy
//
// Two records with the same id are resolved by:
//  1. Higher Version wins.
//  2. Equal Version: later UpdatedAt wins.
//  3. Full tie: the aggregate entry wins.
//
// The winner keeps the position of the first occurrence. Aggregate entries
// come first in stored order, followed by individual-only records in
// ascending key order.
//
// # Identifiers
//
// Ids come from a store-owned atomic Sequence seeded above the largest id
// seen at Load, so ids stay distinct even with concurrent callers.
//
// # Failure Semantics
//
// Storage failures never abort an operation. Read failures are logged and
// treated as "no data". Write failures leave the in-memory list updated and
// are reported as *StorageError alongside the new list; callers decide
// whether to warn. A missing id on Update, Delete or AttachDocument is a
// silent no-op.
package driverstore
