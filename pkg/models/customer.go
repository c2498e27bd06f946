package models

// TaxpayerCategory selects which statutory due day applies to a customer.
type TaxpayerCategory string

const (
	CategoryGelir    TaxpayerCategory = "gelir"    // Gelir Vergisi (individual)
	CategoryKurumlar TaxpayerCategory = "kurumlar" // Kurumlar Vergisi (corporate)
)

// Label returns the display label used in reports.
func (c TaxpayerCategory) Label() string {
	if c == CategoryGelir {
		return "Gelir Vergisi"
	}
	return "Kurumlar Vergisi"
}

// Cadence is the filing frequency of a customer.
type Cadence string

const (
	CadenceMonthly   Cadence = "monthly"
	CadenceQuarterly Cadence = "quarterly"
)

// Customer is a tracked taxpayer imported from the roster.
type Customer struct {
	ID          string           `json:"id"`               // Stable identifier assigned at import
	CompanyName string           `json:"company_name"`     // Display name
	TaxNo       string           `json:"tax_no,omitempty"` // Vergi No (companies)
	TCNo        string           `json:"tc_no,omitempty"`  // TC Kimlik No (individuals)
	Email       string           `json:"email,omitempty"`  // Recipient of automated e-mails
	Category    TaxpayerCategory `json:"category"`         // gelir or kurumlar
	Cadence     Cadence          `json:"cadence"`          // monthly or quarterly
	IsActive    bool             `json:"is_active"`        // Inactive customers are ignored everywhere
	Notes       string           `json:"notes,omitempty"`  // Free text
}

// Identifier returns the tax number, falling back to the national ID. It is the
// join key against company folder names.
func (c Customer) Identifier() string {
	if c.TaxNo != "" {
		return c.TaxNo
	}
	return c.TCNo
}

// IsQuarterly reports whether the customer files quarterly.
func (c Customer) IsQuarterly() bool {
	return c.Cadence == CadenceQuarterly
}

// Matches reports whether id equals either of the customer's identifiers.
func (c Customer) Matches(id string) bool {
	if id == "" {
		return false
	}
	return c.TaxNo == id || c.TCNo == id
}
