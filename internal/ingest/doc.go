// Package ingest turns uploaded files into document blobs.
//
// Uploads travel inline with their driver record as data URIs. Reading a
// file is an explicit asynchronous task bound to one (owner, kind) slot;
// starting a new task on a slot supersedes the pending one, and a
// superseded task reports ErrSuperseded instead of its blob.
//
// Content types are sniffed from the file bytes with
// github.com/gabriel-vasile/mimetype rather than trusted from the file name.
package ingest
