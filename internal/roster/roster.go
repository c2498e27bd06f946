// Package roster imports the customer list from an Excel workbook or a Google
// Sheet. Headers are matched loosely in Turkish or English; see columnAliases.
package roster

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"

	"edefter/internal/logger"
	"edefter/pkg/models"
)

type field int

const (
	fieldCompanyName field = iota
	fieldTaxNo
	fieldTCNo
	fieldEmail
	fieldCategory
	fieldCadence
	fieldActive
	fieldNotes
)

// columnAliases are matched as substrings of the lower-cased header, in field
// order. A header is assigned to the first field it matches.
var columnAliases = []struct {
	field   field
	aliases []string
}{
	{fieldCompanyName, []string{"şirket adı", "sirket adi", "firma adı", "firma adi", "unvan", "company", "name", "ad"}},
	{fieldTaxNo, []string{"vergi no", "vergi numarası", "vergino", "tax no", "vkn"}},
	{fieldTCNo, []string{"tc kimlik", "tc no", "tckn", "tc kimlik no", "kimlik no"}},
	{fieldEmail, []string{"e-posta", "eposta", "email", "mail", "e-mail"}},
	{fieldCategory, []string{"mükellef tipi", "vergi tipi", "tip", "type", "mükellef türü"}},
	{fieldCadence, []string{"yükleme periyodu", "dönem", "period", "periyot"}},
	{fieldActive, []string{"aktif", "durum", "active", "status"}},
	{fieldNotes, []string{"notlar", "not", "notes", "açıklama"}},
}

// SampleHeaders is the header row of the template written by WriteSample.
var SampleHeaders = []string{"Şirket Adı", "Vergi No", "TC Kimlik No", "E-Posta", "Mükellef Tipi", "Yükleme Periyodu", "Aktif", "Notlar"}

var sampleRows = [][]string{
	{"ABC Ticaret Ltd. Şti.", "1234567890", "", "abc@example.com", "Kurumlar", "Aylık", "Evet", ""},
	{"Mehmet Yılmaz", "", "12345678901", "mehmet@example.com", "Gelir", "3 Aylık", "Evet", "Şahıs firması"},
	{"XYZ Holding A.Ş.", "9876543210", "", "xyz@example.com", "Kurumlar", "Aylık", "Evet", ""},
}

var validate = validator.New()

func normalize(s string) string {
	s = strings.ReplaceAll(s, "İ", "i")
	return strings.ToLower(strings.TrimSpace(s))
}

func mapColumns(headers []string) map[field]int {
	columns := make(map[field]int)
	for i, h := range headers {
		header := normalize(h)
		if header == "" {
			continue
		}
	match:
		for _, c := range columnAliases {
			for _, alias := range c.aliases {
				if strings.Contains(header, alias) {
					if _, taken := columns[c.field]; !taken {
						columns[c.field] = i
					}
					break match
				}
			}
		}
	}
	return columns
}

// ParseRows builds a roster from a header row followed by data rows. Rows with
// neither a tax number nor a national ID are skipped and reported in warnings.
func ParseRows(rows [][]string, source string) (*models.Roster, []string, error) {
	if len(rows) < 2 {
		return nil, nil, ErrEmptyRoster
	}

	columns := mapColumns(rows[0])
	if _, ok := columns[fieldTaxNo]; !ok {
		if _, ok := columns[fieldTCNo]; !ok {
			return nil, nil, ErrNoIdentifier
		}
	}

	var (
		customers []models.Customer
		warnings  []string
	)
	for i, row := range rows[1:] {
		rowNo := i + 2 // 1-based, after the header
		get := func(f field) string {
			idx, ok := columns[f]
			if !ok || idx >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[idx])
		}

		name, taxNo, tcNo := get(fieldCompanyName), get(fieldTaxNo), get(fieldTCNo)
		if name == "" && taxNo == "" && tcNo == "" {
			continue
		}
		if taxNo == "" && tcNo == "" {
			warnings = append(warnings, fmt.Sprintf("Satır %d: vergi no veya TC kimlik no bulunamadı", rowNo))
			continue
		}

		email := get(fieldEmail)
		if email != "" && validate.Var(email, "email") != nil {
			warnings = append(warnings, fmt.Sprintf("Satır %d: geçersiz e-posta adresi %q", rowNo, email))
		}
		if name == "" {
			name = fmt.Sprintf("Müşteri %d", rowNo-1)
		}

		customers = append(customers, models.Customer{
			ID:          fmt.Sprintf("customer-%d", rowNo-1),
			CompanyName: name,
			TaxNo:       taxNo,
			TCNo:        tcNo,
			Email:       email,
			Category:    parseCategory(get(fieldCategory)),
			Cadence:     parseCadence(get(fieldCadence)),
			IsActive:    parseActive(get(fieldActive)),
			Notes:       get(fieldNotes),
		})
	}

	if len(customers) == 0 {
		return nil, warnings, ErrEmptyRoster
	}
	return models.NewRoster(customers, source), warnings, nil
}

func parseCategory(v string) models.TaxpayerCategory {
	v = normalize(v)
	if strings.Contains(v, "gelir") || strings.Contains(v, "şahıs") || strings.Contains(v, "sahis") {
		return models.CategoryGelir
	}
	return models.CategoryKurumlar
}

func parseCadence(v string) models.Cadence {
	v = normalize(v)
	for _, hint := range []string{"3", "üç", "quarterly", "çeyrek"} {
		if strings.Contains(v, hint) {
			return models.CadenceQuarterly
		}
	}
	return models.CadenceMonthly
}

func parseActive(v string) bool {
	switch normalize(v) {
	case "hayır", "false", "0", "pasif":
		return false
	}
	return true
}

// Loader reads rosters from the configured sources.
type Loader struct {
	log zerolog.Logger
}

// NewLoader creates a Loader.
func NewLoader() *Loader {
	return &Loader{log: logger.WithComponent("roster")}
}

// LoadExcel reads the first sheet of the workbook at path.
func (l *Loader) LoadExcel(path string) (*models.Roster, error) {
	const op = "LoadExcel"

	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil, WrapRosterError(op, path, ErrFileNotFound)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, WrapRosterError(op, path, fmt.Errorf("failed to open file: %w", err))
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, WrapRosterError(op, path, ErrEmptyRoster)
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, WrapRosterError(op, path, err)
	}

	return l.finish(op, path, rows)
}

// RangeReader reads a cell range from a spreadsheet.
type RangeReader interface {
	ReadRange(ctx context.Context, rangeSpec string) ([][]interface{}, error)
}

// LoadSheet reads columns A..Z of sheetName through r.
func (l *Loader) LoadSheet(ctx context.Context, r RangeReader, sheetName string) (*models.Roster, error) {
	const op = "LoadSheet"

	values, err := r.ReadRange(ctx, sheetName+"!A:Z")
	if err != nil {
		return nil, WrapRosterError(op, sheetName, err)
	}

	rows := make([][]string, len(values))
	for i, row := range values {
		rows[i] = make([]string, len(row))
		for j, cell := range row {
			rows[i][j] = fmt.Sprint(cell)
		}
	}

	return l.finish(op, "sheet:"+sheetName, rows)
}

func (l *Loader) finish(op, source string, rows [][]string) (*models.Roster, error) {
	roster, warnings, err := ParseRows(rows, source)
	for _, w := range warnings {
		l.log.Warn().Str("source", source).Msg(w)
	}
	if err != nil {
		return nil, WrapRosterError(op, source, err)
	}

	l.log.Info().
		Str("source", source).
		Int("customers", roster.Len()).
		Int("active", len(roster.Active())).
		Msg("Customer roster loaded")
	return roster, nil
}

// WriteSample writes a template workbook with the expected headers and three
// example customers.
func WriteSample(path string) error {
	const op = "WriteSample"
	const sheet = "Müşteriler"

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return WrapRosterError(op, path, err)
	}

	widths := []float64{30, 15, 15, 25, 15, 18, 8, 30}
	for i, w := range widths {
		col, _ := excelize.ColumnNumberToName(i + 1)
		if err := f.SetColWidth(sheet, col, col, w); err != nil {
			return WrapRosterError(op, path, err)
		}
	}

	for r, row := range append([][]string{SampleHeaders}, sampleRows...) {
		cell, _ := excelize.CoordinatesToCellName(1, r+1)
		values := make([]interface{}, len(row))
		for i, v := range row {
			values[i] = v
		}
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return WrapRosterError(op, path, err)
		}
	}

	if err := f.SaveAs(path); err != nil {
		return WrapRosterError(op, path, err)
	}
	return nil
}
