package roster

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"edefter/pkg/models"
)

func TestParseRows(t *testing.T) {
	rows := [][]string{
		{"Firma Adı", "VKN", "TCKN", "Email", "Vergi Tipi", "Dönem", "Durum", "Açıklama"},
		{"ABC Ticaret", "1234567890", "", "abc@example.com", "Kurumlar", "Aylık", "Evet"},
		{"", "", "", "", "", "", ""},
		{"Mehmet Yılmaz", "", "12345678901", "mehmet@example.com", "Şahıs", "Üç Aylık", "pasif", "not"},
		{"Kimliksiz", "", "", "x@example.com"},
		{"", "5555555555", "", "bozuk-adres"},
	}

	r, warnings, err := ParseRows(rows, "test.xlsx")
	require.NoError(t, err)
	require.Equal(t, 3, r.Len())
	assert.Equal(t, "test.xlsx", r.Source())

	cs := r.Customers()
	assert.Equal(t, models.Customer{
		ID: "customer-1", CompanyName: "ABC Ticaret", TaxNo: "1234567890", Email: "abc@example.com",
		Category: models.CategoryKurumlar, Cadence: models.CadenceMonthly, IsActive: true,
	}, cs[0])

	assert.Equal(t, "12345678901", cs[1].Identifier())
	assert.Equal(t, models.CategoryGelir, cs[1].Category)
	assert.Equal(t, models.CadenceQuarterly, cs[1].Cadence)
	assert.False(t, cs[1].IsActive)
	assert.Equal(t, "not", cs[1].Notes)

	assert.Equal(t, "Müşteri 5", cs[2].CompanyName)

	require.Len(t, warnings, 2)
	assert.Contains(t, warnings[0], "Satır 5")
	assert.Contains(t, warnings[1], "bozuk-adres")
}

func TestParseRowsErrors(t *testing.T) {
	_, _, err := ParseRows([][]string{{"Şirket Adı", "Vergi No"}}, "x")
	assert.ErrorIs(t, err, ErrEmptyRoster)

	_, _, err = ParseRows([][]string{{"Şirket Adı", "E-Posta"}, {"ABC", "a@example.com"}}, "x")
	assert.ErrorIs(t, err, ErrNoIdentifier)

	_, _, err = ParseRows([][]string{{"Şirket Adı", "Vergi No"}, {"ABC", ""}}, "x")
	assert.ErrorIs(t, err, ErrEmptyRoster)
}

func TestSampleRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "musteriler.xlsx")
	require.NoError(t, WriteSample(path))

	r, err := NewLoader().LoadExcel(path)
	require.NoError(t, err)
	require.Equal(t, 3, r.Len())

	c, ok := r.Lookup("12345678901")
	require.True(t, ok)
	assert.Equal(t, "Mehmet Yılmaz", c.CompanyName)
	assert.True(t, c.IsQuarterly())
	assert.Len(t, r.ByCategory(models.CategoryKurumlar), 2)
}

func TestLoadExcelMissingFile(t *testing.T) {
	_, err := NewLoader().LoadExcel(filepath.Join(t.TempDir(), "yok.xlsx"))
	assert.ErrorIs(t, err, ErrFileNotFound)

	var rosterErr *RosterError
	require.ErrorAs(t, err, &rosterErr)
	assert.Equal(t, "LoadExcel", rosterErr.Op)
}

type fakeReader struct {
	rangeSpec string
	values    [][]interface{}
	err       error
}

func (f *fakeReader) ReadRange(_ context.Context, rangeSpec string) ([][]interface{}, error) {
	f.rangeSpec = rangeSpec
	return f.values, f.err
}

func TestLoadSheet(t *testing.T) {
	reader := &fakeReader{values: [][]interface{}{
		{"Şirket Adı", "Vergi No", "E-Posta"},
		{"ABC Ticaret", 1234567890, "abc@example.com"},
	}}

	r, err := NewLoader().LoadSheet(context.Background(), reader, "Müşteriler")
	require.NoError(t, err)
	assert.Equal(t, "Müşteriler!A:Z", reader.rangeSpec)
	c, ok := r.Lookup("1234567890")
	require.True(t, ok)
	assert.Equal(t, "ABC Ticaret", c.CompanyName)
	assert.Equal(t, "sheet:Müşteriler", r.Source())
}

func TestLoadSheetError(t *testing.T) {
	boom := errors.New("quota exceeded")
	_, err := NewLoader().LoadSheet(context.Background(), &fakeReader{err: boom}, "Müşteriler")
	assert.ErrorIs(t, err, boom)
}
