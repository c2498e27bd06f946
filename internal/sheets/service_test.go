package sheets

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractSpreadsheetID(t *testing.T) {
	id, err := extractSpreadsheetID("https://docs.google.com/spreadsheets/d/1AbC-d_EF/edit#gid=0")
	require.NoError(t, err)
	assert.Equal(t, "1AbC-d_EF", id)

	_, err = extractSpreadsheetID("https://example.com/musteriler.xlsx")
	assert.ErrorIs(t, err, ErrInvalidURL)
}

func TestColumnLetter(t *testing.T) {
	assert.Equal(t, "A", columnLetter(1))
	assert.Equal(t, "H", columnLetter(8))
	assert.Equal(t, "Z", columnLetter(26))
	assert.Equal(t, "AA", columnLetter(27))
	assert.Equal(t, "AZ", columnLetter(52))
}

func TestTableRange(t *testing.T) {
	assert.Equal(t, "'Detaylı Rapor'!A1:L3", tableRange("Detaylı Rapor", 12, 2))
	assert.Equal(t, "'Eksik Dönemler'!A1:E1", tableRange("Eksik Dönemler", 5, 0))
}

func TestNewSheetsServiceCredentials(t *testing.T) {
	const url = "https://docs.google.com/spreadsheets/d/abc123/edit"

	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "")
	t.Setenv("GOOGLE_CREDENTIALS", "")
	_, err := NewSheetsService(context.Background(), url)
	assert.ErrorIs(t, err, ErrMissingCredentials)

	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", filepath.Join(t.TempDir(), "yok.json"))
	_, err = NewSheetsService(context.Background(), url)
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "")
	t.Setenv("GOOGLE_CREDENTIALS", "{not json")
	_, err = NewSheetsService(context.Background(), url)
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = NewSheetsService(context.Background(), "not a sheet")
	assert.ErrorIs(t, err, ErrInvalidURL)
	var se *SheetsError
	assert.ErrorAs(t, err, &se)
	assert.Equal(t, "NewSheetsService", se.Op)
}
