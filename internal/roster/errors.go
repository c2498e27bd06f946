package roster

import (
	"errors"
	"fmt"
)

// Common roster errors
var (
	// ErrFileNotFound is returned when the roster workbook does not exist.
	ErrFileNotFound = errors.New("dosya bulunamadı")

	// ErrEmptyRoster is returned when the source has no header row or no usable customer.
	ErrEmptyRoster = errors.New("excel dosyası boş veya başlık satırı eksik")

	// ErrNoIdentifier is returned when neither a tax number nor a national ID column exists.
	ErrNoIdentifier = errors.New("vergi no veya TC kimlik no sütunu bulunamadı")
)

// RosterError wraps import failures with the operation and source involved.
// No partial roster is ever returned alongside it.
type RosterError struct {
	// Op is the operation that failed (e.g., "LoadExcel").
	Op string

	// Source is the file path or sheet name.
	Source string

	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *RosterError) Error() string {
	return fmt.Sprintf("roster: %s failed for %s: %v", e.Op, e.Source, e.Err)
}

// Unwrap returns the underlying error for error unwrapping.
func (e *RosterError) Unwrap() error {
	return e.Err
}

// WrapRosterError wraps an error as a RosterError if it isn't already one.
func WrapRosterError(op, source string, err error) error {
	if err == nil {
		return nil
	}

	var rosterErr *RosterError
	if errors.As(err, &rosterErr) {
		return err
	}

	return &RosterError{Op: op, Source: source, Err: err}
}
