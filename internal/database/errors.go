package database

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when a mutation targets an id that isn't in the collection
var ErrNotFound = errors.New("todo not found")

// StorageError reports a failed write (or a read that a write depended on)
type StorageError struct {
	Op  string
	Key string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s %q failed: %v", e.Op, e.Key, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// IsStorageError reports whether err is or wraps a *StorageError
func IsStorageError(err error) bool {
	var sErr *StorageError
	return errors.As(err, &sErr)
}
