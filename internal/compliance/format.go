package compliance

import (
	"fmt"
	"time"

	"edefter/pkg/models"
)

// FormatDeadlineInfo renders the remaining time of d in Turkish.
func FormatDeadlineInfo(d UpcomingDeadline) string {
	switch {
	case d.IsOverdue:
		return fmt.Sprintf("%d gün gecikmiş", -d.DaysRemaining)
	case d.DaysRemaining == 0:
		return "Bugün son gün!"
	case d.DaysRemaining == 1:
		return "Yarın son gün!"
	case d.DaysRemaining <= SoonDays:
		return fmt.Sprintf("%d gün kaldı", d.DaysRemaining)
	default:
		return fmt.Sprintf("%d gün kaldı (%s)", d.DaysRemaining, d.Deadline.Turkish())
	}
}

// ExpectedPeriods returns the periods of year up to and including month that
// a customer should have filed: every month, or only quarter ends.
func ExpectedPeriods(year int, month time.Month, quarterly bool) []models.Period {
	var periods []models.Period
	for m := time.January; m <= month && m <= time.December; m++ {
		p := models.NewPeriod(year, m)
		if quarterly && !p.IsQuarterEnd() {
			continue
		}
		periods = append(periods, p)
	}
	return periods
}
