package cmd

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"edefter/internal/compliance"
	"edefter/internal/deadline"
	"edefter/pkg/models"
)

func TestReminderMessages(t *testing.T) {
	withMail := models.Customer{CompanyName: "ABC Ticaret", TaxNo: "1234567890", Email: "abc@example.com"}
	noMail := models.Customer{CompanyName: "XYZ Ltd", TaxNo: "9876543210"}

	deadlines := []compliance.UpcomingDeadline{
		{Customer: withMail, Period: models.MustParsePeriod("202501"), PeriodDisplay: "Ocak 2025",
			Deadline: deadline.Date{Year: 2025, Month: time.May, Day: 14}, DaysRemaining: -3, IsOverdue: true},
		{Customer: withMail, Period: models.MustParsePeriod("202502"), PeriodDisplay: "Şubat 2025",
			Deadline: deadline.Date{Year: 2025, Month: time.June, Day: 14}, DaysRemaining: 5},
		{Customer: noMail, Period: models.MustParsePeriod("202502"), PeriodDisplay: "Şubat 2025",
			Deadline: deadline.Date{Year: 2025, Month: time.June, Day: 14}, DaysRemaining: 5},
	}

	msgs, skipped := reminderMessages(deadlines)
	require.Len(t, msgs, 2)
	assert.Equal(t, 1, skipped)

	assert.Equal(t, "abc@example.com", msgs[0].To)
	assert.Equal(t, "E-Defter Gecikme Uyarısı - ABC Ticaret - Ocak 2025", msgs[0].Subject)
	assert.Contains(t, msgs[0].Body, "Son yükleme tarihi geçmiştir")

	assert.Equal(t, "E-Defter Hatırlatma - ABC Ticaret - Şubat 2025", msgs[1].Subject)
	assert.Empty(t, msgs[1].Attachments)
}
