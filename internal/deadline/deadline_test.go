package deadline

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"edefter/pkg/models"
)

func TestMonthlyDeadlineScenarios(t *testing.T) {
	cases := []struct {
		period   string
		category models.TaxpayerCategory
		want     string
	}{
		{"202501", models.CategoryKurumlar, "2025-05-14"},
		{"202501", models.CategoryGelir, "2025-05-10"},
		{"202506", models.CategoryKurumlar, "2025-10-14"},
		{"202508", models.CategoryGelir, "2025-12-10"},
		{"202509", models.CategoryKurumlar, "2026-01-14"},
		{"202512", models.CategoryGelir, "2026-04-10"},
	}
	for _, tc := range cases {
		got := For(models.MustParsePeriod(tc.period), tc.category, false)
		assert.Equal(t, tc.want, got.String(), "%s %s", tc.period, tc.category)
	}
}

func TestMonthlyDeadlineProperties(t *testing.T) {
	for m := time.January; m <= time.December; m++ {
		p := models.NewPeriod(2025, m)
		gelir := For(p, models.CategoryGelir, false)
		kurumlar := For(p, models.CategoryKurumlar, false)

		assert.Equal(t, gelir.Month, kurumlar.Month)
		assert.Equal(t, 4, kurumlar.Day-gelir.Day, m.String())

		// The due month always lies after the period month.
		due := gelir.In(time.UTC)
		assert.True(t, due.After(time.Date(2025, m+1, 0, 0, 0, 0, 0, time.UTC)), m.String())

		wantYear := 2025
		if m >= time.September {
			wantYear = 2026
		}
		assert.Equal(t, wantYear, gelir.Year, m.String())
	}

	sep := For(models.NewPeriod(2025, time.September), models.CategoryGelir, false)
	assert.Equal(t, Date{2026, time.January, 10}, sep)
}

func TestQuarterlyDeadlines(t *testing.T) {
	cases := []struct {
		period   string
		category models.TaxpayerCategory
		want     string
	}{
		{"202503", models.CategoryGelir, "2025-06-10"},
		{"202501", models.CategoryKurumlar, "2025-06-14"},
		{"202506", models.CategoryKurumlar, "2025-09-14"},
		{"202509", models.CategoryGelir, "2025-12-10"},
		{"202512", models.CategoryGelir, "2026-04-10"},
		{"202512", models.CategoryKurumlar, "2026-05-14"},
		{"202410", models.CategoryKurumlar, "2025-05-14"},
	}
	for _, tc := range cases {
		got := For(models.MustParsePeriod(tc.period), tc.category, true)
		assert.Equal(t, tc.want, got.String(), "%s %s", tc.period, tc.category)
	}
}

func TestQuarterlyGroupsByQuarter(t *testing.T) {
	for _, category := range []models.TaxpayerCategory{models.CategoryGelir, models.CategoryKurumlar} {
		for m := time.January; m <= time.December; m++ {
			p := models.NewPeriod(2030, m)
			end := models.NewPeriod(2030, time.Month((int(p.Quarter())-1)*3+3))
			assert.Equal(t, For(end, category, true), For(p, category, true))
		}
		q4 := For(models.NewPeriod(2030, time.December), category, true)
		assert.Equal(t, 2031, q4.Year)
	}
}

func TestForPanicsOnInvalidPeriod(t *testing.T) {
	assert.Panics(t, func() { For(models.Period{Year: 2025, Month: 13}, models.CategoryGelir, false) })
	assert.Panics(t, func() { For(models.Period{Year: 2025, Month: 0}, models.CategoryGelir, true) })
	assert.Panics(t, func() { For(models.NewPeriod(2025, time.May), "", false) })
}

func TestForCustomer(t *testing.T) {
	c := models.Customer{TaxNo: "1234567890", Category: models.CategoryKurumlar, Cadence: models.CadenceQuarterly}
	got := ForCustomer(models.MustParsePeriod("202512"), c)
	require.Equal(t, "2026-05-14", got.String())
	assert.Equal(t, "14.05.2026", got.Turkish())
}

func TestDateText(t *testing.T) {
	d := For(models.MustParsePeriod("202506"), models.CategoryKurumlar, false)

	data, err := json.Marshal(map[string]Date{"deadline": d})
	require.NoError(t, err)
	assert.JSONEq(t, `{"deadline":"2025-10-14"}`, string(data))

	var back map[string]Date
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, d, back["deadline"])

	var bad Date
	assert.Error(t, bad.UnmarshalText([]byte("14.10.2025")))
}
