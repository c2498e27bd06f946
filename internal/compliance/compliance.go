// Package compliance rolls deadlines and scan results up per customer.
//
// Both read operations are pure given the roster, the scan and the clock.
// The clock is injected so that tests can pin "now".
package compliance

import (
	"math"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"edefter/internal/deadline"
	"edefter/internal/ledger"
	"edefter/internal/logger"
	"edefter/pkg/models"
)

const (
	// LookbackMonths is how many months, counting the current one, are
	// considered when listing deadlines.
	LookbackMonths = 12

	// MaxDaysAhead and MaxDaysOverdue bound the deadline window.
	MaxDaysAhead   = 90
	MaxDaysOverdue = 30

	// SoonDays marks a next deadline as imminent in summaries.
	SoonDays = 7
)

// UpcomingDeadline is one (customer, period) deadline inside the window.
type UpcomingDeadline struct {
	Customer      models.Customer `json:"customer"`
	Period        models.Period   `json:"period"`
	PeriodDisplay string          `json:"period_display"`
	Deadline      deadline.Date   `json:"deadline"`
	DaysRemaining int             `json:"days_remaining"`
	IsOverdue     bool            `json:"is_overdue"`
	IsCompleted   bool            `json:"is_completed"`
}

// CompletionStatus buckets a customer's scanned periods by display name.
type CompletionStatus struct {
	Customer          models.Customer `json:"customer"`
	CompletedPeriods  []string        `json:"completed_periods"`
	IncompletePeriods []string        `json:"incomplete_periods"`
	OverduePeriods    []string        `json:"overdue_periods"`

	// Ended periods of the year to date that have no month folder at all.
	MissingPeriods []string `json:"missing_periods"`

	// Nearest deadline that is not overdue; nil when none is in the window.
	NextDeadline       *deadline.Date `json:"next_deadline,omitempty"`
	DaysToNextDeadline *int           `json:"days_to_next_deadline,omitempty"`
}

// Aggregator computes deadline and completion views.
type Aggregator struct {
	now func() time.Time
	log zerolog.Logger
}

// NewAggregator creates an aggregator. A nil clock uses time.Now.
func NewAggregator(now func() time.Time) *Aggregator {
	if now == nil {
		now = time.Now
	}
	return &Aggregator{now: now, log: logger.WithComponent("compliance")}
}

// Now returns the aggregator's current time.
func (a *Aggregator) Now() time.Time {
	return a.now()
}

// UpcomingDeadlines lists, for every active customer, the deadlines of the
// trailing twelve periods that fall between 30 days overdue and 90 days ahead,
// sorted by deadline. Quarterly customers only get quarter-end periods.
func (a *Aggregator) UpcomingDeadlines(customers []models.Customer) []UpcomingDeadline {
	return upcomingAt(customers, a.now())
}

func upcomingAt(customers []models.Customer, now time.Time) []UpcomingDeadline {
	current := models.PeriodOf(now)

	var out []UpcomingDeadline
	for _, c := range customers {
		if !c.IsActive {
			continue
		}
		for i := 0; i < LookbackMonths; i++ {
			p := current.Prev(i)
			if c.IsQuarterly() && !p.IsQuarterEnd() {
				continue
			}

			due := deadline.ForCustomer(p, c)
			days := DaysUntil(due, now)
			if days > MaxDaysAhead || days < -MaxDaysOverdue {
				continue
			}

			out = append(out, UpcomingDeadline{
				Customer:      c,
				Period:        p,
				PeriodDisplay: p.Display(),
				Deadline:      due,
				DaysRemaining: days,
				IsOverdue:     days < 0,
			})
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Deadline.In(time.UTC).Before(out[j].Deadline.In(time.UTC))
	})
	return out
}

// DaysUntil returns the whole days from now until midnight of d in now's
// location, rounded up.
func DaysUntil(d deadline.Date, now time.Time) int {
	diff := d.In(now.Location()).Sub(now)
	return int(math.Ceil(diff.Hours() / 24))
}

// CompletionStatus classifies every scanned period of every active customer as
// completed, overdue (deadline passed) or incomplete. Customers without a
// scanned company folder are listed with empty buckets.
func (a *Aggregator) CompletionStatus(scan *ledger.ScanResult, customers []models.Customer) []CompletionStatus {
	now := a.now()

	statuses := make([]CompletionStatus, 0, len(customers))
	for _, c := range customers {
		if !c.IsActive {
			continue
		}

		status := CompletionStatus{
			Customer:          c,
			CompletedPeriods:  []string{},
			IncompletePeriods: []string{},
			OverduePeriods:    []string{},
			MissingPeriods:    []string{},
		}

		present := make(map[models.Period]bool)
		if company, ok := scan.Company(c.Identifier()); ok {
			for _, p := range company.Periods {
				present[p.Period] = true
				if c.IsQuarterly() && !p.Period.IsQuarterEnd() {
					continue
				}
				due := deadline.ForCustomer(p.Period, c).In(now.Location())
				switch {
				case p.IsComplete:
					status.CompletedPeriods = append(status.CompletedPeriods, p.PeriodDisplay)
				case due.Before(now):
					status.OverduePeriods = append(status.OverduePeriods, p.PeriodDisplay)
				default:
					status.IncompletePeriods = append(status.IncompletePeriods, p.PeriodDisplay)
				}
			}
		}

		last := models.PeriodOf(now).Prev(1)
		for _, p := range ExpectedPeriods(last.Year, last.Month, c.IsQuarterly()) {
			if !present[p] {
				status.MissingPeriods = append(status.MissingPeriods, p.Display())
			}
		}

		for _, d := range upcomingAt([]models.Customer{c}, now) {
			if d.IsOverdue {
				continue
			}
			next, days := d.Deadline, d.DaysRemaining
			status.NextDeadline = &next
			status.DaysToNextDeadline = &days
			break
		}

		statuses = append(statuses, status)
	}

	a.log.Debug().Int("customers", len(statuses)).Msg("Completion status computed")
	return statuses
}

// MarkCompleted sets IsCompleted on deadlines whose period is complete in scan.
func MarkCompleted(deadlines []UpcomingDeadline, scan *ledger.ScanResult) {
	for i := range deadlines {
		company, ok := scan.Company(deadlines[i].Customer.Identifier())
		if !ok {
			continue
		}
		for _, p := range company.Periods {
			if p.Period == deadlines[i].Period && p.IsComplete {
				deadlines[i].IsCompleted = true
				break
			}
		}
	}
}

// DueReminders returns the deadlines that warrant a customer reminder: not yet
// completed, and either overdue or at most SoonDays away.
func DueReminders(deadlines []UpcomingDeadline) []UpcomingDeadline {
	var out []UpcomingDeadline
	for _, d := range deadlines {
		if d.IsCompleted {
			continue
		}
		if d.IsOverdue || d.DaysRemaining <= SoonDays {
			out = append(out, d)
		}
	}
	return out
}

// Summary aggregates a completion status list for reporting.
type Summary struct {
	TotalCustomers            int      `json:"total_customers"`
	TotalCompleted            int      `json:"total_completed"`
	TotalIncomplete           int      `json:"total_incomplete"`
	TotalOverdue              int      `json:"total_overdue"`
	OverdueCustomers          []string `json:"overdue_customers"`
	UpcomingDeadlineCustomers []string `json:"upcoming_deadline_customers"`
}

// Summarize folds statuses into totals and the names of customers that are
// overdue or whose next deadline is at most seven days away.
func Summarize(statuses []CompletionStatus) Summary {
	s := Summary{
		TotalCustomers:            len(statuses),
		OverdueCustomers:          []string{},
		UpcomingDeadlineCustomers: []string{},
	}
	for _, st := range statuses {
		s.TotalCompleted += len(st.CompletedPeriods)
		s.TotalIncomplete += len(st.IncompletePeriods)
		s.TotalOverdue += len(st.OverduePeriods)

		if len(st.OverduePeriods) > 0 {
			s.OverdueCustomers = append(s.OverdueCustomers, st.Customer.CompanyName)
		}
		if st.DaysToNextDeadline != nil && *st.DaysToNextDeadline <= SoonDays {
			s.UpcomingDeadlineCustomers = append(s.UpcomingDeadlineCustomers, st.Customer.CompanyName)
		}
	}
	return s
}
