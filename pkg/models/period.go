package models

import (
	"errors"
	"fmt"
	"strconv"
	"time"
)

// ErrInvalidPeriod is returned when a period code is not a valid YYYYMM value.
var ErrInvalidPeriod = errors.New("invalid period code")

var monthNamesTR = [12]string{
	"Ocak", "Şubat", "Mart", "Nisan", "Mayıs", "Haziran",
	"Temmuz", "Ağustos", "Eylül", "Ekim", "Kasım", "Aralık",
}

// Quarter is one of the four fixed three-month blocks of a calendar year.
type Quarter int

const (
	Q1 Quarter = iota + 1 // Ocak-Mart
	Q2                    // Nisan-Haziran
	Q3                    // Temmuz-Eylül
	Q4                    // Ekim-Aralık
)

func (q Quarter) String() string {
	return fmt.Sprintf("Q%d", int(q))
}

// Period is a calendar tax period identified by a 6-digit YYYYMM code.
type Period struct {
	Year  int
	Month time.Month
}

// NewPeriod builds a period from a year and month. It panics when the month is
// outside 1..12.
func NewPeriod(year int, month time.Month) Period {
	if month < time.January || month > time.December {
		panic(fmt.Sprintf("models: month %d out of range", month))
	}
	return Period{Year: year, Month: month}
}

// ParsePeriod parses a YYYYMM code such as "202506".
func ParsePeriod(code string) (Period, error) {
	if len(code) != 6 {
		return Period{}, fmt.Errorf("%w: %q", ErrInvalidPeriod, code)
	}
	year, err := strconv.Atoi(code[:4])
	if err != nil || year < 1 {
		return Period{}, fmt.Errorf("%w: %q", ErrInvalidPeriod, code)
	}
	month, err := strconv.Atoi(code[4:])
	if err != nil || month < 1 || month > 12 {
		return Period{}, fmt.Errorf("%w: %q", ErrInvalidPeriod, code)
	}
	return Period{Year: year, Month: time.Month(month)}, nil
}

// MustParsePeriod is like ParsePeriod but panics on a malformed code.
func MustParsePeriod(code string) Period {
	p, err := ParsePeriod(code)
	if err != nil {
		panic(err)
	}
	return p
}

// Code returns the YYYYMM form of the period.
func (p Period) Code() string {
	return fmt.Sprintf("%04d%02d", p.Year, int(p.Month))
}

func (p Period) String() string {
	return p.Code()
}

// Display returns the Turkish month name and year, e.g. "Haziran 2025".
func (p Period) Display() string {
	return fmt.Sprintf("%s %d", MonthNameTR(p.Month), p.Year)
}

// IsZero reports whether the period is unset.
func (p Period) IsZero() bool {
	return p.Year == 0 && p.Month == 0
}

// MarshalText encodes the period as its YYYYMM code; an unset period encodes
// as an empty string.
func (p Period) MarshalText() ([]byte, error) {
	if p.IsZero() {
		return []byte{}, nil
	}
	return []byte(p.Code()), nil
}

// UnmarshalText parses a YYYYMM code. An empty string yields the zero period.
func (p *Period) UnmarshalText(text []byte) error {
	if len(text) == 0 {
		*p = Period{}
		return nil
	}
	parsed, err := ParsePeriod(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// Quarter returns the quarter the period's month falls into.
func (p Period) Quarter() Quarter {
	return Quarter((int(p.Month)-1)/3 + 1)
}

// IsQuarterEnd reports whether the period is March, June, September or December.
func (p Period) IsQuarterEnd() bool {
	return p.Month%3 == 0
}

// Prev returns the period n months earlier.
func (p Period) Prev(n int) Period {
	t := time.Date(p.Year, p.Month-time.Month(n), 1, 0, 0, 0, 0, time.UTC)
	return Period{Year: t.Year(), Month: t.Month()}
}

// PeriodOf returns the period containing t.
func PeriodOf(t time.Time) Period {
	return Period{Year: t.Year(), Month: t.Month()}
}

// MonthNameTR returns the Turkish name of a month.
func MonthNameTR(m time.Month) string {
	if m < time.January || m > time.December {
		return ""
	}
	return monthNamesTR[m-1]
}
