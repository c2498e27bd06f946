package models

import (
	"errors"
	"time"
)

// ErrAlreadyProcessed is returned when a processed item already exists for the key.
var ErrAlreadyProcessed = errors.New("period already processed")

// Action names a side effect performed for a completed period.
type Action string

const (
	ActionBackup Action = "backup"
	ActionEmail  Action = "email"
	ActionReport Action = "report"
)

// ProcessedItem records that automation ran for a (tax number, period) pair.
// Once written it is never modified.
type ProcessedItem struct {
	TaxNo       string    `json:"tax_no"`
	Period      string    `json:"period"`
	ProcessedAt time.Time `json:"processed_at"`
	Actions     []Action  `json:"actions"`
	RunID       string    `json:"run_id,omitempty"`
}

// Key returns the idempotence key of the item.
func (p ProcessedItem) Key() string {
	return ProcessedKey(p.TaxNo, p.Period)
}

// ProcessedKey builds the idempotence key for a tax number and period code.
func ProcessedKey(taxNo, period string) string {
	return taxNo + "/" + period
}
