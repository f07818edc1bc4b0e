package kv

import (
	"context"
	"errors"
)

// ErrQuotaExceeded is returned when a write would push a bounded backend
// over its byte quota.
var ErrQuotaExceeded = errors.New("kv: quota exceeded")

// ErrClosed is returned by operations on a closed backend.
var ErrClosed = errors.New("kv: store closed")

// Store is a string-valued key-value store.
type Store interface {
	// Get returns the value stored under key. ok is false when the key is absent.
	Get(ctx context.Context, key string) (value string, ok bool, err error)

	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key, value string) error

	// Remove deletes key. Removing an absent key is not an error.
	Remove(ctx context.Context, key string) error

	// Keys returns every key in ascending byte order.
	Keys(ctx context.Context) ([]string, error)

	// Apply commits ops atomically, in order.
	Apply(ctx context.Context, ops ...Op) error
}

// Op is a single write inside an Apply batch.
type Op struct {
	Key    string
	Value  string
	Delete bool
}

// Put returns an Op that stores value under key.
func Put(key, value string) Op {
	return Op{Key: key, Value: value}
}

// Del returns an Op that removes key.
func Del(key string) Op {
	return Op{Key: key, Delete: true}
}
