package ledger

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"edefter/pkg/models"
)

// CompanyScanResult holds every period found under one company folder.
type CompanyScanResult struct {
	TaxNo             string                  `json:"tax_no"`
	CompanyName       string                  `json:"company_name"`
	FolderPath        string                  `json:"folder_path"`
	FiscalYearFolders []string                `json:"fiscal_year_folders"`
	Periods           []*PeriodCheckResult    `json:"periods"`
	Email             string                  `json:"email,omitempty"`
	Category          models.TaxpayerCategory `json:"category,omitempty"`
}

// ScanResult is the outcome of a full walk of the e-defter root.
type ScanResult struct {
	ScanDate          time.Time            `json:"scan_date"`
	SourceFolder      string               `json:"source_folder"`
	TotalCompanies    int                  `json:"total_companies"`
	TotalPeriods      int                  `json:"total_periods"`
	CompletePeriods   int                  `json:"complete_periods"`
	IncompletePeriods int                  `json:"incomplete_periods"`
	Companies         []*CompanyScanResult `json:"companies"`
}

// Company returns the scanned company whose folder name is taxNo.
func (s *ScanResult) Company(taxNo string) (*CompanyScanResult, bool) {
	if s == nil {
		return nil, false
	}
	for _, c := range s.Companies {
		if c.TaxNo == taxNo {
			return c, true
		}
	}
	return nil, false
}

// CompletionRate returns complete periods as a percentage of all periods.
func (s *ScanResult) CompletionRate() float64 {
	if s == nil || s.TotalPeriods == 0 {
		return 0
	}
	return float64(s.CompletePeriods) / float64(s.TotalPeriods) * 100
}

// ScanAll walks root and checks every <taxNo>/<fiscalYear>/<MM> folder.
// Companies are scanned concurrently; the result keeps directory order.
// Companies without any fiscal-year folder are left out.
func (c *Checker) ScanAll(ctx context.Context, root string, roster *models.Roster) (*ScanResult, error) {
	const op = "ScanAll"

	info, err := os.Stat(root)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, WrapScanError(op, root, ErrSourceNotFound)
	}
	if err != nil {
		return nil, WrapScanError(op, root, err)
	}
	if !info.IsDir() {
		return nil, WrapScanError(op, root, ErrNotDirectory)
	}

	taxNos, err := subdirs(root, nil)
	if err != nil {
		return nil, WrapScanError(op, root, err)
	}

	companies := make([]*CompanyScanResult, len(taxNos))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())
	for i, taxNo := range taxNos {
		i, taxNo := i, taxNo
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			company, err := c.scanCompany(root, taxNo, roster)
			if err != nil {
				return err
			}
			companies[i] = company
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, WrapScanError(op, root, err)
	}

	result := &ScanResult{
		ScanDate:     c.now(),
		SourceFolder: root,
	}
	for _, company := range companies {
		if len(company.FiscalYearFolders) == 0 && len(company.Periods) == 0 {
			continue
		}
		result.Companies = append(result.Companies, company)
		result.TotalCompanies++
		for _, p := range company.Periods {
			result.TotalPeriods++
			if p.IsComplete {
				result.CompletePeriods++
			} else {
				result.IncompletePeriods++
			}
		}
	}

	c.log.Info().
		Str("source", root).
		Int("companies", result.TotalCompanies).
		Int("periods", result.TotalPeriods).
		Int("complete", result.CompletePeriods).
		Msg("Scan completed")

	return result, nil
}

func (c *Checker) scanCompany(root, taxNo string, roster *models.Roster) (*CompanyScanResult, error) {
	companyPath := filepath.Join(root, taxNo)
	customer, known := roster.Lookup(taxNo)

	company := &CompanyScanResult{
		TaxNo:       taxNo,
		CompanyName: taxNo,
		FolderPath:  companyPath,
	}
	if known {
		company.CompanyName = customer.CompanyName
		company.Email = customer.Email
		company.Category = customer.Category
	}

	fiscalYears, err := subdirs(companyPath, IsFiscalYearFolder)
	if err != nil {
		return nil, err
	}
	company.FiscalYearFolders = fiscalYears

	for _, fy := range fiscalYears {
		fyPath := filepath.Join(companyPath, fy)
		months, err := subdirs(fyPath, IsMonthFolder)
		if err != nil {
			return nil, err
		}
		for _, month := range months {
			period, err := PeriodFromFolders(fy, month)
			if err != nil {
				continue
			}
			result, err := c.CheckPeriod(filepath.Join(fyPath, month), taxNo, period)
			if err != nil {
				return nil, err
			}
			if known {
				result.AttachCustomer(customer)
			}
			company.Periods = append(company.Periods, result)
		}
	}

	return company, nil
}

// subdirs lists the directory names in dir accepted by keep (all when nil).
func subdirs(dir string, keep func(string) bool) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if keep == nil || keep(e.Name()) {
			names = append(names, e.Name())
		}
	}
	return names, nil
}
