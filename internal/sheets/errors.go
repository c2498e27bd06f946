package sheets

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingCredentials is returned when neither GOOGLE_APPLICATION_CREDENTIALS
	// nor GOOGLE_CREDENTIALS is set.
	ErrMissingCredentials = errors.New("google credentials not configured")

	// ErrInvalidCredentials is returned when the credentials cannot be read or parsed.
	ErrInvalidCredentials = errors.New("invalid google credentials")

	// ErrInvalidURL is returned when a URL is not a Google Sheets document link.
	ErrInvalidURL = errors.New("invalid Google Sheets URL")
)

// SheetsError records the operation and the spreadsheet, tab or range involved.
type SheetsError struct {
	Op     string
	Target string
	Err    error
}

func (e *SheetsError) Error() string {
	return fmt.Sprintf("sheets %s %s: %v", e.Op, e.Target, e.Err)
}

func (e *SheetsError) Unwrap() error {
	return e.Err
}

// WrapSheetsError wraps err unless it is nil or already a *SheetsError.
func WrapSheetsError(op, target string, err error) error {
	if err == nil {
		return nil
	}
	var se *SheetsError
	if errors.As(err, &se) {
		return err
	}
	return &SheetsError{Op: op, Target: target, Err: err}
}
