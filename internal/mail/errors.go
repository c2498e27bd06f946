package mail

import (
	"errors"
	"fmt"
)

// Common mail errors
var (
	// ErrMissingSMTPConfig is returned when host, user or password is not configured.
	// It surfaces when a message is sent, not when the configuration is loaded.
	ErrMissingSMTPConfig = errors.New("e-posta ayarları eksik: SMTP_HOST, SMTP_USER ve SMTP_PASSWORD gerekli")

	// ErrNoRecipient is returned when a message has no To address.
	ErrNoRecipient = errors.New("message has no recipient")
)

// MailError wraps SMTP failures with the operation and recipient involved.
type MailError struct {
	// Op is the operation that failed (e.g., "Send", "TestConnection").
	Op string

	// To is the recipient, if any.
	To string

	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *MailError) Error() string {
	if e.To != "" {
		return fmt.Sprintf("mail: %s to %s failed: %v", e.Op, e.To, e.Err)
	}
	return fmt.Sprintf("mail: %s failed: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error for error unwrapping.
func (e *MailError) Unwrap() error {
	return e.Err
}

// WrapMailError wraps an error as a MailError if it isn't already one.
func WrapMailError(op, to string, err error) error {
	if err == nil {
		return nil
	}

	var mailErr *MailError
	if errors.As(err, &mailErr) {
		return err
	}

	return &MailError{Op: op, To: to, Err: err}
}
