// Package driver defines the driver record and everything derived from it.
//
// A Driver is the only persisted entity. Its JSON form is the storage
// format shared by the aggregate list and the per-driver entries, so field
// names here are load-bearing: changing a json tag orphans existing data.
//
// Documents are embedded inline as DocumentBlob values whose Data is a
// self-describing data URI. A blob is either complete or nil; Normalize
// collapses partial blobs read from storage to nil.
package driver
