// Package report renders scan results as an Excel workbook and, optionally,
// mirrors the detail table to a Google Sheet.
package report

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"

	"edefter/internal/ledger"
	"edefter/internal/logger"
	"edefter/pkg/models"
)

const (
	SheetSummary    = "Özet"
	SheetDetail     = "Detaylı Rapor"
	SheetIncomplete = "Eksik Dönemler"

	trDateTime = "02.01.2006 15:04:05"
)

var (
	DetailHeaders = []string{
		"Şirket Adı", "Vergi No", "E-Posta", "Mükellef Tipi", "Dönem", "Klasör Yolu",
		"Durum", "Kebir XML", "Kebir ZIP", "Yevmiye XML", "Yevmiye ZIP", "Son Değişiklik",
	}
	detailWidths = []float64{30, 15, 25, 15, 15, 50, 10, 10, 10, 12, 12, 20}

	IncompleteHeaders = []string{"Şirket Adı", "Vergi No", "E-Posta", "Dönem", "Eksik Dosyalar"}
	incompleteWidths  = []float64{30, 15, 25, 15, 40}
)

func mark(ok bool) string {
	if ok {
		return "✓"
	}
	return "✗"
}

func companyName(p *ledger.PeriodCheckResult, c *ledger.CompanyScanResult) string {
	if p.CompanyName != "" && p.CompanyName != p.TaxNo {
		return p.CompanyName
	}
	return c.CompanyName
}

func categoryLabel(c models.TaxpayerCategory) string {
	if c == "" {
		return ""
	}
	return c.Label()
}

// DetailRows returns one row per scanned period, matching DetailHeaders.
func DetailRows(scan *ledger.ScanResult) [][]interface{} {
	var rows [][]interface{}
	for _, c := range scan.Companies {
		for _, p := range c.Periods {
			status := "EKSİK"
			if p.IsComplete {
				status = "TAMAM"
			}
			lastModified := ""
			if !p.LastModified.IsZero() {
				lastModified = p.LastModified.Format(trDateTime)
			}
			rows = append(rows, []interface{}{
				companyName(p, c),
				p.TaxNo,
				p.CustomerEmail,
				categoryLabel(p.Category),
				p.PeriodDisplay,
				p.FolderPath,
				status,
				mark(p.Has(ledger.KebirXML)),
				mark(p.Has(ledger.KebirZIP)),
				mark(p.Has(ledger.YevmiyeXML)),
				mark(p.Has(ledger.YevmiyeZIP)),
				lastModified,
			})
		}
	}
	return rows
}

// IncompleteRows returns one row per incomplete period, matching IncompleteHeaders.
func IncompleteRows(scan *ledger.ScanResult) [][]interface{} {
	var rows [][]interface{}
	for _, c := range scan.Companies {
		for _, p := range c.Periods {
			if p.IsComplete {
				continue
			}
			rows = append(rows, []interface{}{
				companyName(p, c),
				p.TaxNo,
				p.CustomerEmail,
				p.PeriodDisplay,
				strings.Join(p.MissingFiles(), ", "),
			})
		}
	}
	return rows
}

// FileName returns the report file name for a generation time.
func FileName(now time.Time) string {
	return fmt.Sprintf("E-Defter-Rapor-%s.xlsx", now.UTC().Format("2006-01-02T15-04-05"))
}

// WriteExcel writes the three-sheet report into dir and returns its path.
func WriteExcel(scan *ledger.ScanResult, dir string, now time.Time) (string, error) {
	const op = "WriteExcel"

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetSummary); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	header, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"4472C4"}},
	})
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	if err := writeSummary(f, scan, header); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	if err := writeTable(f, SheetDetail, DetailHeaders, detailWidths, DetailRows(scan), header); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	if err := writeTable(f, SheetIncomplete, IncompleteHeaders, incompleteWidths, IncompleteRows(scan), header); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	path := filepath.Join(dir, FileName(now))
	if err := f.SaveAs(path); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return path, nil
}

func writeSummary(f *excelize.File, scan *ledger.ScanResult, header int) error {
	rows := [][]interface{}{
		{"E-Defter Kontrol Raporu"},
		{},
		{"Tarama Tarihi", scan.ScanDate.Format(trDateTime)},
		{"Kaynak Klasör", scan.SourceFolder},
		{},
		{"Toplam Şirket", scan.TotalCompanies},
		{"Toplam Dönem", scan.TotalPeriods},
		{"Tamamlanan Dönem", scan.CompletePeriods},
		{"Eksik Dönem", scan.IncompletePeriods},
		{"Tamamlanma Oranı", fmt.Sprintf("%.1f%%", scan.CompletionRate())},
	}
	for i, row := range rows {
		if len(row) == 0 {
			continue
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow(SheetSummary, cell, &row); err != nil {
			return err
		}
	}
	if err := f.SetCellStyle(SheetSummary, "A1", "A1", header); err != nil {
		return err
	}
	if err := f.SetColWidth(SheetSummary, "A", "A", 20); err != nil {
		return err
	}
	return f.SetColWidth(SheetSummary, "B", "B", 50)
}

func writeTable(f *excelize.File, sheet string, headers []string, widths []float64, rows [][]interface{}, header int) error {
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}

	values := make([]interface{}, len(headers))
	for i, h := range headers {
		values[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &values); err != nil {
		return err
	}
	last, _ := excelize.ColumnNumberToName(len(headers))
	if err := f.SetCellStyle(sheet, "A1", last+"1", header); err != nil {
		return err
	}

	for i, w := range widths {
		col, _ := excelize.ColumnNumberToName(i + 1)
		if err := f.SetColWidth(sheet, col, col, w); err != nil {
			return err
		}
	}

	for i, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}
	return f.SetPanes(sheet, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"})
}

// Scanner walks the e-defter root.
type Scanner interface {
	ScanAll(ctx context.Context, root string, roster *models.Roster) (*ledger.ScanResult, error)
}

// Publisher mirrors a table to a spreadsheet.
type Publisher interface {
	ReplaceRows(ctx context.Context, sheetName string, headers []string, rows [][]interface{}) error
}

// Generator rescans the source folder and writes a fresh report. It satisfies
// the automation reporter.
type Generator struct {
	Scanner   Scanner
	Root      string
	OutputDir string
	Roster    func() *models.Roster
	Publisher Publisher // optional
	Now       func() time.Time

	log zerolog.Logger
}

// NewGenerator creates a Generator that scans root and writes workbooks to
// outputDir. roster is called on every Generate so reloads are picked up.
func NewGenerator(scanner Scanner, root, outputDir string, roster func() *models.Roster) *Generator {
	return &Generator{
		Scanner:   scanner,
		Root:      root,
		OutputDir: outputDir,
		Roster:    roster,
		Now:       time.Now,
		log:       logger.WithComponent("report"),
	}
}

// Generate scans, writes the workbook and returns its path. A failed sheet
// publish is logged and does not fail the report.
func (g *Generator) Generate(ctx context.Context) (string, error) {
	var roster *models.Roster
	if g.Roster != nil {
		roster = g.Roster()
	}

	scan, err := g.Scanner.ScanAll(ctx, g.Root, roster)
	if err != nil {
		return "", err
	}

	path, err := WriteExcel(scan, g.OutputDir, g.Now())
	if err != nil {
		return "", err
	}
	g.log.Info().Str("path", path).Int("periods", scan.TotalPeriods).Msg("Report generated")

	if g.Publisher != nil {
		if err := PublishSheet(ctx, g.Publisher, scan); err != nil {
			g.log.Warn().Err(err).Msg("Failed to publish report to Google Sheet")
		}
	}
	return path, nil
}

// PublishSheet mirrors the detail and incomplete tables to pub.
func PublishSheet(ctx context.Context, pub Publisher, scan *ledger.ScanResult) error {
	if err := pub.ReplaceRows(ctx, SheetDetail, DetailHeaders, DetailRows(scan)); err != nil {
		return fmt.Errorf("publish %s: %w", SheetDetail, err)
	}
	if err := pub.ReplaceRows(ctx, SheetIncomplete, IncompleteHeaders, IncompleteRows(scan)); err != nil {
		return fmt.Errorf("publish %s: %w", SheetIncomplete, err)
	}
	return nil
}
