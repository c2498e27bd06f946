package mail

import (
	"html"
	"strings"
)

// TemplateData fills the {{...}} placeholders of subject and body templates.
type TemplateData struct {
	CompanyName string // {{companyName}}
	TaxNo       string // {{taxNo}}
	Period      string // {{period}}, display form such as "Haziran 2025"
	PeriodCode  string // {{periodCode}}, raw YYYYMM
}

// Render replaces every placeholder occurrence in tpl.
func Render(tpl string, d TemplateData) string {
	return strings.NewReplacer(
		"{{companyName}}", d.CompanyName,
		"{{taxNo}}", d.TaxNo,
		"{{period}}", d.Period,
		"{{periodCode}}", d.PeriodCode,
	).Replace(tpl)
}

// Template is a subject/body pair.
type Template struct {
	Subject string
	Body    string
}

// Render fills both parts of the template.
func (t Template) Render(d TemplateData) (subject, body string) {
	return Render(t.Subject, d), Render(t.Body, d)
}

var (
	// DeliveryTemplate accompanies the archive of a completed period.
	DeliveryTemplate = Template{
		Subject: "E-Defter Dosyaları - {{companyName}} - {{period}}",
		Body: `Sayın {{companyName}},

{{period}} dönemine ait e-defter dosyalarınız ekte gönderilmiştir.

Dosya içeriği:
- Kebir Defteri (XML ve ZIP)
- Yevmiye Defteri (XML ve ZIP)

Saygılarımızla,
E-Defter Yönetim Sistemi`,
	}

	// ReminderTemplate warns about an approaching deadline.
	ReminderTemplate = Template{
		Subject: "E-Defter Hatırlatma - {{companyName}} - {{period}}",
		Body: `Sayın {{companyName}},

{{period}} dönemine ait e-defter dosyalarınızın son yükleme tarihi yaklaşmaktadır.

Lütfen dosyaların zamanında yüklenmesini sağlayınız.

Saygılarımızla,
E-Defter Yönetim Sistemi`,
	}

	// LateTemplate reports a missed deadline.
	LateTemplate = Template{
		Subject: "E-Defter Gecikme Uyarısı - {{companyName}} - {{period}}",
		Body: `Sayın {{companyName}},

{{period}} dönemine ait e-defter dosyalarınız henüz yüklenmemiştir.

Son yükleme tarihi geçmiştir. Lütfen en kısa sürede işlem yapınız.

Saygılarımızla,
E-Defter Yönetim Sistemi`,
	}
)

const htmlHead = `<!DOCTYPE html>
<html>
<head>
<meta charset="UTF-8">
<style>
body { font-family: Arial, sans-serif; font-size: 14px; line-height: 1.6; color: #333; }
</style>
</head>
<body>
`

// FormatHTML turns a plain-text body into a minimal HTML document, one
// paragraph per line and a <br> per blank line.
func FormatHTML(text string) string {
	var b strings.Builder
	b.WriteString(htmlHead)
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) == "" {
			b.WriteString("<br>\n")
			continue
		}
		b.WriteString(`<p style="margin: 5px 0;">`)
		b.WriteString(html.EscapeString(line))
		b.WriteString("</p>\n")
	}
	b.WriteString("</body>\n</html>\n")
	return b.String()
}
