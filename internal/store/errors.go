package store

import (
	"errors"
	"fmt"

	"edefter/pkg/models"
)

// ErrAlreadyProcessed is returned by MarkProcessed when the key already has an item.
var ErrAlreadyProcessed = models.ErrAlreadyProcessed

// StoreError wraps bbolt failures with the operation and key involved.
type StoreError struct {
	// Op is the operation that failed (e.g., "MarkProcessed").
	Op string

	// Key is the "taxNo/period" key, if any.
	Key string

	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *StoreError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("store: %s failed for %s: %v", e.Op, e.Key, e.Err)
	}
	return fmt.Sprintf("store: %s failed: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error for error unwrapping.
func (e *StoreError) Unwrap() error {
	return e.Err
}

// WrapStoreError wraps an error as a StoreError if it isn't already one.
func WrapStoreError(op, key string, err error) error {
	if err == nil {
		return nil
	}

	var storeErr *StoreError
	if errors.As(err, &storeErr) {
		return err
	}

	return &StoreError{Op: op, Key: key, Err: err}
}
