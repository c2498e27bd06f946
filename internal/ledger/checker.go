// Package ledger inspects e-defter folders and reports which of the four
// required GIB files exist for a company period.
//
// Folder layout:
//
//	<root>/<taxNo>/<DD.MM.YYYY>-<DD.MM.YYYY>/<MM>/
//
// File naming (case-insensitive):
//
//	GIB-<taxNo>-<YYYYMM>-KB-<digits>.xml   Kebir (ledger) XML
//	GIB-<taxNo>-<YYYYMM>-KB-<digits>.zip   Kebir (ledger) ZIP
//	GIB-<taxNo>-<YYYYMM>-YB-<digits>.xml   Yevmiye (journal) XML
//	GIB-<taxNo>-<YYYYMM>-YB-<digits>.zip   Yevmiye (journal) ZIP
//
// When several files match the same slot, the one with the newest modification
// time is kept; ties go to the lexicographically smallest name.
package ledger

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/rs/zerolog"

	"edefter/internal/logger"
	"edefter/pkg/models"
)

// FileType tags one of the four required artifacts.
type FileType string

const (
	KebirXML   FileType = "KB-XML"
	KebirZIP   FileType = "KB-ZIP"
	YevmiyeXML FileType = "YB-XML"
	YevmiyeZIP FileType = "YB-ZIP"
)

// Label returns the Turkish display name of the file type.
func (t FileType) Label() string {
	switch t {
	case KebirXML:
		return "Kebir XML"
	case KebirZIP:
		return "Kebir ZIP"
	case YevmiyeXML:
		return "Yevmiye XML"
	case YevmiyeZIP:
		return "Yevmiye ZIP"
	}
	return string(t)
}

type slot struct {
	fileType FileType
	book     string // KB or YB
	ext      string // xml or zip
}

// slots is the required artifact set, in report order.
var slots = [4]slot{
	{KebirXML, "KB", "xml"},
	{KebirZIP, "KB", "zip"},
	{YevmiyeXML, "YB", "xml"},
	{YevmiyeZIP, "YB", "zip"},
}

func (s slot) pattern(taxNo string, period models.Period) *regexp.Regexp {
	return regexp.MustCompile(fmt.Sprintf(`(?i)^GIB-%s-%s-%s-\d+\.%s$`,
		regexp.QuoteMeta(taxNo), period.Code(), s.book, s.ext))
}

func (s slot) placeholder(taxNo string, period models.Period) string {
	return fmt.Sprintf("GIB-%s-%s-%s-000000.%s", taxNo, period.Code(), s.book, s.ext)
}

// FileCheckResult is the state of one artifact slot.
type FileCheckResult struct {
	FileName   string    `json:"file_name"` // Matched name, or the expected name when absent
	FileType   FileType  `json:"file_type"`
	Exists     bool      `json:"exists"`
	FilePath   string    `json:"file_path,omitempty"`
	FileSize   int64     `json:"file_size,omitempty"`
	ModifiedAt time.Time `json:"modified_at,omitempty"`
	FoundAt    time.Time `json:"found_at,omitempty"`
}

// PeriodCheckResult is the snapshot for one (tax number, period) pair.
type PeriodCheckResult struct {
	TaxNo         string            `json:"tax_no"`
	Period        models.Period     `json:"period"`
	PeriodDisplay string            `json:"period_display"`
	FolderPath    string            `json:"folder_path"`
	FolderExists  bool              `json:"folder_exists"`
	Files         []FileCheckResult `json:"files"`
	IsComplete    bool              `json:"is_complete"`
	LastModified  time.Time         `json:"last_modified,omitempty"`

	// Customer fields attached by the caller
	CompanyName   string                  `json:"company_name"`
	CustomerEmail string                  `json:"customer_email,omitempty"`
	Category      models.TaxpayerCategory `json:"category,omitempty"`
}

// Has reports whether the slot of the given type was found.
func (r *PeriodCheckResult) Has(t FileType) bool {
	for _, f := range r.Files {
		if f.FileType == t {
			return f.Exists
		}
	}
	return false
}

// MissingFiles returns the labels of absent slots.
func (r *PeriodCheckResult) MissingFiles() []string {
	var missing []string
	for _, f := range r.Files {
		if !f.Exists {
			missing = append(missing, f.FileType.Label())
		}
	}
	return missing
}

// AttachCustomer copies the customer's display fields onto the result.
func (r *PeriodCheckResult) AttachCustomer(c models.Customer) {
	r.CompanyName = c.CompanyName
	r.CustomerEmail = c.Email
	r.Category = c.Category
}

// Checker reads period folders. It never writes.
type Checker struct {
	now func() time.Time
	log zerolog.Logger
}

// NewChecker creates a checker. A nil clock uses time.Now.
func NewChecker(now func() time.Time) *Checker {
	if now == nil {
		now = time.Now
	}
	return &Checker{
		now: now,
		log: logger.WithComponent("ledger-checker"),
	}
}

// CheckPeriod reports which required files exist in folderPath for taxNo and
// period. A missing folder yields FolderExists=false and no error.
func (c *Checker) CheckPeriod(folderPath, taxNo string, period models.Period) (*PeriodCheckResult, error) {
	const op = "CheckPeriod"

	if period.Month < time.January || period.Month > time.December {
		panic(fmt.Sprintf("ledger: invalid period %q", period.Code()))
	}

	result := &PeriodCheckResult{
		TaxNo:         taxNo,
		CompanyName:   taxNo,
		Period:        period,
		PeriodDisplay: period.Display(),
		FolderPath:    folderPath,
	}

	info, err := os.Stat(folderPath)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		result.Files = absentSlots(taxNo, period)
		return result, nil
	case err != nil:
		return nil, WrapScanError(op, folderPath, err)
	case !info.IsDir():
		return nil, WrapScanError(op, folderPath, ErrNotDirectory)
	}
	result.FolderExists = true

	entries, err := os.ReadDir(folderPath)
	if err != nil {
		return nil, WrapScanError(op, folderPath, err)
	}

	foundAt := c.now()
	result.Files = make([]FileCheckResult, 0, len(slots))
	for _, s := range slots {
		match, err := matchSlot(entries, s.pattern(taxNo, period))
		if err != nil {
			return nil, WrapScanError(op, folderPath, err)
		}
		if match == nil {
			result.Files = append(result.Files, FileCheckResult{
				FileName: s.placeholder(taxNo, period),
				FileType: s.fileType,
			})
			continue
		}

		result.Files = append(result.Files, FileCheckResult{
			FileName:   match.Name(),
			FileType:   s.fileType,
			Exists:     true,
			FilePath:   filepath.Join(folderPath, match.Name()),
			FileSize:   match.Size(),
			ModifiedAt: match.ModTime(),
			FoundAt:    foundAt,
		})
		if match.ModTime().After(result.LastModified) {
			result.LastModified = match.ModTime()
		}
	}

	result.IsComplete = result.Has(KebirXML) && result.Has(KebirZIP) &&
		result.Has(YevmiyeXML) && result.Has(YevmiyeZIP)

	c.log.Debug().
		Str("tax_no", taxNo).
		Str("period", period.Code()).
		Bool("complete", result.IsComplete).
		Strs("missing", result.MissingFiles()).
		Msg("Period checked")

	return result, nil
}

// matchSlot returns the newest regular file matching re. entries are sorted by
// name, so keeping the first of equal modification times keeps the smallest name.
func matchSlot(entries []os.DirEntry, re *regexp.Regexp) (fs.FileInfo, error) {
	var best fs.FileInfo
	for _, e := range entries {
		if e.IsDir() || !re.MatchString(e.Name()) {
			continue
		}
		info, err := e.Info()
		if errors.Is(err, fs.ErrNotExist) {
			// Removed between listing and stat; treat as not yet present.
			continue
		}
		if err != nil {
			return nil, err
		}
		if !info.Mode().IsRegular() {
			continue
		}
		if best == nil || info.ModTime().After(best.ModTime()) {
			best = info
		}
	}
	return best, nil
}

func absentSlots(taxNo string, period models.Period) []FileCheckResult {
	files := make([]FileCheckResult, 0, len(slots))
	for _, s := range slots {
		files = append(files, FileCheckResult{
			FileName: s.placeholder(taxNo, period),
			FileType: s.fileType,
		})
	}
	return files
}
