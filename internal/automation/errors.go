package automation

import (
	"errors"
	"fmt"

	"edefter/pkg/models"
)

// Common automation errors
var (
	// ErrAlreadyProcessed is returned when the period already has a processed item.
	ErrAlreadyProcessed = models.ErrAlreadyProcessed

	// ErrIncomplete is returned when HandleComplete receives an incomplete period.
	ErrIncomplete = errors.New("period is not complete")

	// ErrAllActionsFailed is returned when every enabled action failed. The
	// period is left unprocessed so that the next change retries it.
	ErrAllActionsFailed = errors.New("all automation actions failed")
)

// ActionError records the failure of one side effect.
type ActionError struct {
	// Action is backup, email or report.
	Action string

	// TaxNo and Period identify the company period.
	TaxNo  string
	Period string

	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *ActionError) Error() string {
	return fmt.Sprintf("automation: %s failed for %s/%s: %v", e.Action, e.TaxNo, e.Period, e.Err)
}

// Unwrap returns the underlying error for error unwrapping.
func (e *ActionError) Unwrap() error {
	return e.Err
}
