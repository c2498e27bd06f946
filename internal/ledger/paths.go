package ledger

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"edefter/pkg/models"
)

var (
	fiscalYearPattern = regexp.MustCompile(`^\d{2}\.\d{2}\.\d{4}-\d{2}\.\d{2}\.\d{4}$`)
	monthPattern      = regexp.MustCompile(`^(0[1-9]|1[0-2])$`)
	taxNoPattern      = regexp.MustCompile(`^\d+$`)
	ledgerFilePattern = regexp.MustCompile(`(?i)^GIB-\d+-\d{6}-(KB|YB)-\d+\.(xml|zip)$`)
)

// IsFiscalYearFolder reports whether name looks like "01.01.2025-31.12.2025".
func IsFiscalYearFolder(name string) bool {
	return fiscalYearPattern.MatchString(name)
}

// IsMonthFolder reports whether name is a zero-padded month "01".."12".
func IsMonthFolder(name string) bool {
	return monthPattern.MatchString(name)
}

// IsTaxNo reports whether name is all digits.
func IsTaxNo(name string) bool {
	return taxNoPattern.MatchString(name)
}

// IsLedgerFile reports whether name is a GIB Kebir or Yevmiye file.
func IsLedgerFile(name string) bool {
	return ledgerFilePattern.MatchString(name)
}

// PeriodFromFolders derives the period from a fiscal-year folder and a month
// folder. The year is taken from the start date of the fiscal year.
func PeriodFromFolders(fiscalYear, month string) (models.Period, error) {
	if !IsFiscalYearFolder(fiscalYear) || !IsMonthFolder(month) {
		return models.Period{}, fmt.Errorf("%w: %s/%s", ErrNotLedgerPath, fiscalYear, month)
	}
	year, _ := strconv.Atoi(fiscalYear[6:10])
	m, _ := strconv.Atoi(month)
	return models.ParsePeriod(fmt.Sprintf("%04d%02d", year, m))
}

// Location identifies one company period folder under the root.
type Location struct {
	TaxNo      string
	FiscalYear string
	Month      string
	FileName   string // empty when the path is the month folder itself
	Period     models.Period
}

// PeriodPath returns the month folder of the location under root.
func (l Location) PeriodPath(root string) string {
	return filepath.Join(root, l.TaxNo, l.FiscalYear, l.Month)
}

// ParseLocation resolves a changed file path below root into its company period.
// Paths that are not <root>/<taxNo>/<fiscalYear>/<MM>/<file> yield ErrNotLedgerPath.
func ParseLocation(root, path string) (Location, error) {
	rel, err := filepath.Rel(root, path)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return Location{}, fmt.Errorf("%w: %s", ErrNotLedgerPath, path)
	}

	parts := strings.Split(rel, string(filepath.Separator))
	if len(parts) < 4 {
		return Location{}, fmt.Errorf("%w: %s", ErrNotLedgerPath, path)
	}

	taxNo, fiscalYear, month := parts[0], parts[1], parts[2]
	if !IsTaxNo(taxNo) {
		return Location{}, fmt.Errorf("%w: %s", ErrNotLedgerPath, path)
	}

	period, err := PeriodFromFolders(fiscalYear, month)
	if err != nil {
		return Location{}, fmt.Errorf("%w: %s", ErrNotLedgerPath, path)
	}

	return Location{
		TaxNo:      taxNo,
		FiscalYear: fiscalYear,
		Month:      month,
		FileName:   strings.Join(parts[3:], string(filepath.Separator)),
		Period:     period,
	}, nil
}

// FindPeriodFolder returns the month folder of period p under
// <root>/<taxNo>/, searching every fiscal-year folder. It fails with
// ErrNotLedgerPath when no such folder exists.
func FindPeriodFolder(root, taxNo string, p models.Period) (string, error) {
	const op = "FindPeriodFolder"

	company := filepath.Join(root, taxNo)
	years, err := subdirs(company, IsFiscalYearFolder)
	if err != nil {
		return "", WrapScanError(op, company, err)
	}
	month := fmt.Sprintf("%02d", int(p.Month))
	for _, fy := range years {
		got, err := PeriodFromFolders(fy, month)
		if err != nil || got != p {
			continue
		}
		dir := filepath.Join(company, fy, month)
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			return dir, nil
		}
	}
	return "", fmt.Errorf("%s: %w: %s/%s", op, ErrNotLedgerPath, taxNo, p.Code())
}
