package ledger

import (
	"errors"
	"fmt"
)

// Common ledger folder errors
var (
	// ErrSourceNotFound is returned when the e-defter root folder does not exist.
	// A missing period folder is not an error; it is reported as FolderExists=false.
	ErrSourceNotFound = errors.New("source folder not found")

	// ErrNotDirectory is returned when a path that must be a folder is a file.
	ErrNotDirectory = errors.New("path is not a directory")

	// ErrNotLedgerPath is returned when a path does not follow the
	// <root>/<taxNo>/<DD.MM.YYYY-DD.MM.YYYY>/<MM>/ layout.
	ErrNotLedgerPath = errors.New("not an e-defter path")
)

// ScanError wraps file-system failures with the operation and path involved.
type ScanError struct {
	// Op is the operation that failed (e.g., "CheckPeriod", "ScanAll").
	Op string

	// Path is the folder being read.
	Path string

	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *ScanError) Error() string {
	return fmt.Sprintf("ledger: %s failed for %s: %v", e.Op, e.Path, e.Err)
}

// Unwrap returns the underlying error for error unwrapping.
func (e *ScanError) Unwrap() error {
	return e.Err
}

// Is implements error matching for Go 1.13+ error handling.
func (e *ScanError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// WrapScanError wraps an error as a ScanError if it isn't already one.
func WrapScanError(op, path string, err error) error {
	if err == nil {
		return nil
	}

	var scanErr *ScanError
	if errors.As(err, &scanErr) {
		return err
	}

	return &ScanError{Op: op, Path: path, Err: err}
}
