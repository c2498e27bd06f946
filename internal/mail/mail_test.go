package mail

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRender(t *testing.T) {
	d := TemplateData{CompanyName: "ABC Ticaret", TaxNo: "1234567890", Period: "Haziran 2025", PeriodCode: "202506"}

	got := Render("{{companyName}} ({{taxNo}}) - {{period}} / {{periodCode}} / {{period}}", d)
	assert.Equal(t, "ABC Ticaret (1234567890) - Haziran 2025 / 202506 / Haziran 2025", got)

	subject, body := DeliveryTemplate.Render(d)
	assert.Equal(t, "E-Defter Dosyaları - ABC Ticaret - Haziran 2025", subject)
	assert.Contains(t, body, "Sayın ABC Ticaret,")
	assert.NotContains(t, body, "{{")
}

func TestFormatHTML(t *testing.T) {
	out := FormatHTML("Sayın <ABC> & Ortakları,\n\nSaygılarımızla")

	assert.Contains(t, out, `<meta charset="UTF-8">`)
	assert.Contains(t, out, `<p style="margin: 5px 0;">Sayın &lt;ABC&gt; &amp; Ortakları,</p>`)
	assert.Contains(t, out, "<br>")
	assert.Contains(t, out, `<p style="margin: 5px 0;">Saygılarımızla</p>`)
}

func TestSendRequiresConfiguration(t *testing.T) {
	s := NewSender(Config{Host: "smtp.example.com", Port: 587})

	err := s.Send(context.Background(), Message{To: "abc@example.com", Subject: "x"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMissingSMTPConfig)

	var mailErr *MailError
	require.ErrorAs(t, err, &mailErr)
	assert.Equal(t, "Send", mailErr.Op)
	assert.Equal(t, "abc@example.com", mailErr.To)

	assert.ErrorIs(t, s.TestConnection(context.Background()), ErrMissingSMTPConfig)
}

func TestDialerVerifiesCertificatesByDefault(t *testing.T) {
	d, err := NewSender(Config{Host: "smtp.example.com", Port: 587, User: "u", Password: "p"}).dialer()
	require.NoError(t, err)
	require.NotNil(t, d.TLSConfig)
	assert.False(t, d.TLSConfig.InsecureSkipVerify)
	assert.Equal(t, "smtp.example.com", d.TLSConfig.ServerName)

	d, err = NewSender(Config{Host: "smtp.example.com", Port: 465, Secure: true, Insecure: true, User: "u", Password: "p"}).dialer()
	require.NoError(t, err)
	assert.True(t, d.TLSConfig.InsecureSkipVerify)
	assert.True(t, d.SSL)
}

func TestSendRequiresRecipient(t *testing.T) {
	s := NewSender(Config{Host: "smtp.example.com", Port: 587, User: "u", Password: "p"})
	assert.ErrorIs(t, s.Send(context.Background(), Message{Subject: "x"}), ErrNoRecipient)
}

func TestSendBulkCollectsFailures(t *testing.T) {
	s := NewSender(Config{RatePerSecond: 1000})

	result := s.SendBulk(context.Background(), []Message{
		{To: "a@example.com"},
		{To: "b@example.com"},
	})
	assert.Equal(t, 0, result.Success)
	assert.Equal(t, 2, result.Failed)
	require.Len(t, result.Errors, 2)
	assert.Contains(t, result.Errors[0], "a@example.com")
}

func TestBuildUsesUserAsDefaultSender(t *testing.T) {
	s := NewSender(Config{User: "muhasebe@example.com"})
	m := s.build(Message{To: "abc@example.com", CC: "cc@example.com", Subject: "Konu"})

	assert.Equal(t, []string{"muhasebe@example.com"}, m.GetHeader("From"))
	assert.Equal(t, []string{"cc@example.com"}, m.GetHeader("Cc"))
	assert.Equal(t, []string{"Konu"}, m.GetHeader("Subject"))
}
