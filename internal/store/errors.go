package store

import (
	"errors"
	"fmt"
)

var (
	// ErrCorruptBlob marks a stored float array whose bytes cannot be decoded.
	ErrCorruptBlob = errors.New("corrupt float blob")

	// ErrUnknownUser is returned when a result is saved for an email with no user row.
	ErrUnknownUser = errors.New("unknown user")

	// ErrUnknownBackend is returned by Open for an unsupported backend name.
	ErrUnknownBackend = errors.New("unknown store backend")
)

// StorageError wraps a failure of the underlying storage medium.
// Lookups of missing keys never produce a StorageError; they return nil.
type StorageError struct {
	Op  string // operation that failed, e.g. "save result"
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("store: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// storageErr wraps err as a StorageError unless it is nil or already one.
func storageErr(op string, err error) error {
	if err == nil {
		return nil
	}
	var se *StorageError
	if errors.As(err, &se) {
		return err
	}
	return &StorageError{Op: op, Err: err}
}
