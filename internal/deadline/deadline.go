// Package deadline derives statutory e-defter submission deadlines.
//
// Monthly filers upload the ledger for month M by a fixed day of month M+4
// (the 10th for gelir, the 14th for kurumlar taxpayers). Quarterly filers
// follow the provisional tax calendar:
//
//	Ocak-Mart     -> 10 / 14 Haziran
//	Nisan-Haziran -> 10 / 14 Eylül
//	Temmuz-Eylül  -> 10 / 14 Aralık
//	Ekim-Aralık   -> 10 Nisan / 14 Mayıs of the following year
//
// All functions are pure; a deadline is recomputed on every call.
package deadline

import (
	"fmt"
	"time"

	"edefter/pkg/models"
)

// Date is a calendar date without a time-of-day component.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// In returns midnight of the date in loc.
func (d Date) In(loc *time.Location) time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, loc)
}

func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// MarshalText encodes the date as YYYY-MM-DD.
func (d Date) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText parses a YYYY-MM-DD date.
func (d *Date) UnmarshalText(text []byte) error {
	t, err := time.Parse(time.DateOnly, string(text))
	if err != nil {
		return fmt.Errorf("deadline: invalid date %q: %w", text, err)
	}
	*d = Date{Year: t.Year(), Month: t.Month(), Day: t.Day()}
	return nil
}

// Turkish returns the date in dd.mm.yyyy form.
func (d Date) Turkish() string {
	return fmt.Sprintf("%02d.%02d.%04d", d.Day, int(d.Month), d.Year)
}

type dueDay struct {
	month time.Month
	day   int
}

type rule struct {
	gelir    dueDay
	kurumlar dueDay
}

func (r rule) pick(category models.TaxpayerCategory) dueDay {
	switch category {
	case models.CategoryGelir:
		return r.gelir
	case models.CategoryKurumlar:
		return r.kurumlar
	default:
		panic(fmt.Sprintf("deadline: unknown taxpayer category %q", category))
	}
}

func monthlyRule(m time.Month) rule {
	switch m {
	case time.January:
		return rule{dueDay{time.May, 10}, dueDay{time.May, 14}}
	case time.February:
		return rule{dueDay{time.June, 10}, dueDay{time.June, 14}}
	case time.March:
		return rule{dueDay{time.July, 10}, dueDay{time.July, 14}}
	case time.April:
		return rule{dueDay{time.August, 10}, dueDay{time.August, 14}}
	case time.May:
		return rule{dueDay{time.September, 10}, dueDay{time.September, 14}}
	case time.June:
		return rule{dueDay{time.October, 10}, dueDay{time.October, 14}}
	case time.July:
		return rule{dueDay{time.November, 10}, dueDay{time.November, 14}}
	case time.August:
		return rule{dueDay{time.December, 10}, dueDay{time.December, 14}}
	case time.September:
		return rule{dueDay{time.January, 10}, dueDay{time.January, 14}}
	case time.October:
		return rule{dueDay{time.February, 10}, dueDay{time.February, 14}}
	case time.November:
		return rule{dueDay{time.March, 10}, dueDay{time.March, 14}}
	case time.December:
		return rule{dueDay{time.April, 10}, dueDay{time.April, 14}}
	default:
		panic(fmt.Sprintf("deadline: month %d out of range", m))
	}
}

func quarterlyRule(q models.Quarter) rule {
	switch q {
	case models.Q1:
		return rule{dueDay{time.June, 10}, dueDay{time.June, 14}}
	case models.Q2:
		return rule{dueDay{time.September, 10}, dueDay{time.September, 14}}
	case models.Q3:
		return rule{dueDay{time.December, 10}, dueDay{time.December, 14}}
	case models.Q4:
		return rule{dueDay{time.April, 10}, dueDay{time.May, 14}}
	default:
		panic(fmt.Sprintf("deadline: quarter %d out of range", q))
	}
}

// For returns the submission deadline of period p. It panics when p's month is
// outside 1..12 or the category is unknown; callers validate period codes first.
func For(p models.Period, category models.TaxpayerCategory, quarterly bool) Date {
	if p.Month < time.January || p.Month > time.December {
		panic(fmt.Sprintf("deadline: period %s has month %d out of range", p.Code(), p.Month))
	}
	if quarterly {
		return quarterlyDeadline(p, category)
	}
	return monthlyDeadline(p, category)
}

// ForCustomer is For with the customer's category and cadence.
func ForCustomer(p models.Period, c models.Customer) Date {
	return For(p, c.Category, c.IsQuarterly())
}

func monthlyDeadline(p models.Period, category models.TaxpayerCategory) Date {
	due := monthlyRule(p.Month).pick(category)
	year := p.Year
	if due.month < p.Month {
		year++
	}
	return Date{Year: year, Month: due.month, Day: due.day}
}

func quarterlyDeadline(p models.Period, category models.TaxpayerCategory) Date {
	q := p.Quarter()
	due := quarterlyRule(q).pick(category)
	year := p.Year
	if q == models.Q4 || (q == models.Q3 && due.month < time.October) {
		year++
	}
	return Date{Year: year, Month: due.month, Day: due.day}
}
