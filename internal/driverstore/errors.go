package driverstore

import (
	"errors"
	"fmt"
)

// StorageError reports that an operation's result was not persisted.
// The in-memory canonical list still reflects the operation.
type StorageError struct {
	// Op names the store operation ("load", "create", "update", ...).
	Op string

	// Keys lists the kv keys the failed batch touched.
	Keys []string

	Err error
}

// Error implements the error interface.
func (e *StorageError) Error() string {
	return fmt.Sprintf("%s: not persisted (keys=%v): %v", e.Op, e.Keys, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// IsStorageError returns true if err is, or wraps, a StorageError.
func IsStorageError(err error) bool {
	var se *StorageError
	return errors.As(err, &se)
}
