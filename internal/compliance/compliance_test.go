package compliance

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"edefter/internal/deadline"
	"edefter/internal/ledger"
	"edefter/pkg/models"
)

func at(year int, month time.Month, day int) func() time.Time {
	return func() time.Time { return time.Date(year, month, day, 0, 0, 0, 0, time.UTC) }
}

func kurumlarMonthly() models.Customer {
	return models.Customer{
		ID:          "1",
		CompanyName: "ABC Ticaret",
		TaxNo:       "1234567890",
		Category:    models.CategoryKurumlar,
		Cadence:     models.CadenceMonthly,
		IsActive:    true,
	}
}

func codes(ds []UpcomingDeadline) []string {
	out := make([]string, 0, len(ds))
	for _, d := range ds {
		out = append(out, d.Period.Code())
	}
	return out
}

func find(ds []UpcomingDeadline, code string) (UpcomingDeadline, bool) {
	for _, d := range ds {
		if d.Period.Code() == code {
			return d, true
		}
	}
	return UpcomingDeadline{}, false
}

func TestUpcomingDeadlinesScenario(t *testing.T) {
	a := NewAggregator(at(2025, time.June, 1))
	ds := a.UpcomingDeadlines([]models.Customer{kurumlarMonthly()})

	jan, ok := find(ds, "202501")
	require.True(t, ok, "202501 is 18 days overdue and stays in the window")
	assert.Equal(t, deadline.Date{Year: 2025, Month: time.May, Day: 14}, jan.Deadline)
	assert.Equal(t, -18, jan.DaysRemaining)
	assert.True(t, jan.IsOverdue)
	assert.Equal(t, "Ocak 2025", jan.PeriodDisplay)

	_, ok = find(ds, "202506")
	assert.False(t, ok, "202506 is due in 135 days")
	assert.Equal(t, 135, DaysUntil(deadline.For(models.MustParsePeriod("202506"), models.CategoryKurumlar, false),
		at(2025, time.June, 1)()))
}

func TestUpcomingDeadlinesWindowBoundaries(t *testing.T) {
	c := kurumlarMonthly()

	// 202502 is due 2025-06-14: exactly 90 days after 2025-03-16.
	ds := NewAggregator(at(2025, time.March, 16)).UpcomingDeadlines([]models.Customer{c})
	assert.Equal(t, []string{"202410", "202411", "202412", "202501", "202502"}, codes(ds))
	last := ds[len(ds)-1]
	assert.Equal(t, 90, last.DaysRemaining)
	assert.Equal(t, -30, ds[0].DaysRemaining)

	// One day earlier the same deadline is 91 days away.
	ds = NewAggregator(at(2025, time.March, 15)).UpcomingDeadlines([]models.Customer{c})
	assert.Equal(t, []string{"202410", "202411", "202412", "202501"}, codes(ds))
	assert.Equal(t, -29, ds[0].DaysRemaining)
}

func TestUpcomingDeadlinesQuarterlyOnlyQuarterEnds(t *testing.T) {
	c := kurumlarMonthly()
	c.Cadence = models.CadenceQuarterly
	g := c
	g.Category = models.CategoryGelir

	for m := time.January; m <= time.December; m++ {
		ds := NewAggregator(at(2025, m, 20)).UpcomingDeadlines([]models.Customer{c, g})
		for _, d := range ds {
			assert.True(t, d.Period.IsQuarterEnd(), "now=%s period=%s", m, d.Period.Code())
		}
	}
}

func TestUpcomingDeadlinesSkipsInactiveAndSortsStable(t *testing.T) {
	a := kurumlarMonthly()
	b := kurumlarMonthly()
	b.CompanyName, b.TaxNo = "XYZ Ltd", "9999999999"
	off := kurumlarMonthly()
	off.TaxNo, off.IsActive = "5555555555", false

	ds := NewAggregator(at(2025, time.June, 1)).UpcomingDeadlines([]models.Customer{a, b, off})
	require.NotEmpty(t, ds)
	for i := 1; i < len(ds); i++ {
		prev, cur := ds[i-1], ds[i]
		assert.False(t, cur.Deadline.In(time.UTC).Before(prev.Deadline.In(time.UTC)))
		if cur.Deadline == prev.Deadline {
			assert.Equal(t, "ABC Ticaret", prev.Customer.CompanyName)
			assert.Equal(t, "XYZ Ltd", cur.Customer.CompanyName)
		}
		assert.NotEqual(t, "5555555555", cur.Customer.TaxNo)
	}
}

func TestDaysUntilRoundsUp(t *testing.T) {
	d := deadline.Date{Year: 2025, Month: time.May, Day: 14}
	assert.Equal(t, -18, DaysUntil(d, time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)))
	assert.Equal(t, 1, DaysUntil(d, time.Date(2025, 5, 13, 9, 0, 0, 0, time.UTC)))
	assert.Equal(t, 0, DaysUntil(d, time.Date(2025, 5, 14, 0, 0, 0, 0, time.UTC)))
}

func scanWith(taxNo string, periods ...*ledger.PeriodCheckResult) *ledger.ScanResult {
	return &ledger.ScanResult{Companies: []*ledger.CompanyScanResult{{TaxNo: taxNo, Periods: periods}}}
}

func period(code string, complete bool) *ledger.PeriodCheckResult {
	p := models.MustParsePeriod(code)
	return &ledger.PeriodCheckResult{Period: p, PeriodDisplay: p.Display(), IsComplete: complete}
}

func TestCompletionStatus(t *testing.T) {
	c := kurumlarMonthly()
	missing := kurumlarMonthly()
	missing.CompanyName, missing.TaxNo = "Yeni Şirket", "1111111111"
	inactive := kurumlarMonthly()
	inactive.TaxNo, inactive.IsActive = "2222222222", false

	// On 2025-06-01, 202502 (due 2025-06-14) is still open and 202412 (due 2025-04-14) is late.
	scan := scanWith(c.TaxNo, period("202501", true), period("202502", false), period("202412", false))

	statuses := NewAggregator(at(2025, time.June, 1)).CompletionStatus(scan, []models.Customer{c, missing, inactive})
	require.Len(t, statuses, 2)

	st := statuses[0]
	assert.Equal(t, []string{"Ocak 2025"}, st.CompletedPeriods)
	assert.Equal(t, []string{"Şubat 2025"}, st.IncompletePeriods)
	assert.Equal(t, []string{"Aralık 2024"}, st.OverduePeriods)
	require.NotNil(t, st.NextDeadline)
	assert.Equal(t, deadline.Date{Year: 2025, Month: time.June, Day: 14}, *st.NextDeadline)
	assert.Equal(t, 13, *st.DaysToNextDeadline)
	assert.Equal(t, []string{"Mart 2025", "Nisan 2025", "Mayıs 2025"}, st.MissingPeriods)

	empty := statuses[1]
	assert.Equal(t, "Yeni Şirket", empty.Customer.CompanyName)
	assert.Empty(t, empty.CompletedPeriods)
	assert.Empty(t, empty.IncompletePeriods)
	assert.Empty(t, empty.OverduePeriods)
	assert.NotNil(t, empty.NextDeadline)
	assert.Len(t, empty.MissingPeriods, 5)
}

func TestCompletionStatusQuarterlySkipsOtherMonths(t *testing.T) {
	c := kurumlarMonthly()
	c.Cadence = models.CadenceQuarterly

	scan := scanWith(c.TaxNo, period("202504", true), period("202506", false))
	statuses := NewAggregator(at(2025, time.July, 1)).CompletionStatus(scan, []models.Customer{c})
	require.Len(t, statuses, 1)
	assert.Empty(t, statuses[0].CompletedPeriods)
	assert.Equal(t, []string{"Haziran 2025"}, statuses[0].IncompletePeriods)
	assert.Equal(t, []string{"Mart 2025"}, statuses[0].MissingPeriods)
}

func TestCompletionStatusNilScan(t *testing.T) {
	statuses := NewAggregator(at(2025, time.June, 1)).CompletionStatus(nil, []models.Customer{kurumlarMonthly()})
	require.Len(t, statuses, 1)
	assert.Empty(t, statuses[0].CompletedPeriods)
}

func TestSummarize(t *testing.T) {
	three, ten := 3, 10
	s := Summarize([]CompletionStatus{
		{
			Customer:           models.Customer{CompanyName: "A"},
			CompletedPeriods:   []string{"x", "y"},
			OverduePeriods:     []string{"z"},
			DaysToNextDeadline: &three,
		},
		{
			Customer:           models.Customer{CompanyName: "B"},
			IncompletePeriods:  []string{"x"},
			DaysToNextDeadline: &ten,
		},
		{Customer: models.Customer{CompanyName: "C"}},
	})

	assert.Equal(t, 3, s.TotalCustomers)
	assert.Equal(t, 2, s.TotalCompleted)
	assert.Equal(t, 1, s.TotalIncomplete)
	assert.Equal(t, 1, s.TotalOverdue)
	assert.Equal(t, []string{"A"}, s.OverdueCustomers)
	assert.Equal(t, []string{"A"}, s.UpcomingDeadlineCustomers)
}

func TestMarkCompleted(t *testing.T) {
	c := kurumlarMonthly()
	ds := NewAggregator(at(2025, time.June, 1)).UpcomingDeadlines([]models.Customer{c})
	MarkCompleted(ds, scanWith(c.TaxNo, period("202501", true), period("202502", false)))

	jan, _ := find(ds, "202501")
	feb, _ := find(ds, "202502")
	assert.True(t, jan.IsCompleted)
	assert.False(t, feb.IsCompleted)
}

func TestDueReminders(t *testing.T) {
	c := kurumlarMonthly()
	ds := NewAggregator(at(2025, time.June, 7)).UpcomingDeadlines([]models.Customer{c})
	require.Equal(t, []string{"202501", "202502", "202503", "202504"}, codes(ds))

	assert.Equal(t, []string{"202501", "202502"}, codes(DueReminders(ds)))

	MarkCompleted(ds, scanWith(c.TaxNo, period("202501", true)))
	assert.Equal(t, []string{"202502"}, codes(DueReminders(ds)))
}

func TestFormatDeadlineInfo(t *testing.T) {
	due := deadline.Date{Year: 2025, Month: time.June, Day: 14}
	cases := []struct {
		days    int
		overdue bool
		want    string
	}{
		{-5, true, "5 gün gecikmiş"},
		{0, false, "Bugün son gün!"},
		{1, false, "Yarın son gün!"},
		{7, false, "7 gün kaldı"},
		{13, false, "13 gün kaldı (14.06.2025)"},
	}
	for _, tc := range cases {
		got := FormatDeadlineInfo(UpcomingDeadline{Deadline: due, DaysRemaining: tc.days, IsOverdue: tc.overdue})
		assert.Equal(t, tc.want, got)
	}
}

func TestExpectedPeriods(t *testing.T) {
	monthly := ExpectedPeriods(2025, time.April, false)
	require.Len(t, monthly, 4)
	assert.Equal(t, "202501", monthly[0].Code())
	assert.Equal(t, "202504", monthly[3].Code())

	quarterly := ExpectedPeriods(2025, time.October, true)
	got := make([]string, 0, len(quarterly))
	for _, p := range quarterly {
		got = append(got, p.Code())
	}
	assert.Equal(t, []string{"202503", "202506", "202509"}, got)
}
