package models

// Roster is an immutable snapshot of the imported customer list. A fresh import
// replaces the whole roster; there is no partial update.
type Roster struct {
	customers []Customer
	source    string
}

// NewRoster copies customers into a new roster loaded from source.
func NewRoster(customers []Customer, source string) *Roster {
	cs := make([]Customer, len(customers))
	copy(cs, customers)
	return &Roster{customers: cs, source: source}
}

// Customers returns a copy of all customers.
func (r *Roster) Customers() []Customer {
	if r == nil {
		return nil
	}
	cs := make([]Customer, len(r.customers))
	copy(cs, r.customers)
	return cs
}

// Active returns the active customers.
func (r *Roster) Active() []Customer {
	if r == nil {
		return nil
	}
	var cs []Customer
	for _, c := range r.customers {
		if c.IsActive {
			cs = append(cs, c)
		}
	}
	return cs
}

// ByCategory returns the active customers of the given category.
func (r *Roster) ByCategory(category TaxpayerCategory) []Customer {
	var cs []Customer
	for _, c := range r.Active() {
		if c.Category == category {
			cs = append(cs, c)
		}
	}
	return cs
}

// Lookup finds a customer by tax number or national ID.
func (r *Roster) Lookup(id string) (Customer, bool) {
	if r == nil {
		return Customer{}, false
	}
	for _, c := range r.customers {
		if c.Matches(id) {
			return c, true
		}
	}
	return Customer{}, false
}

// Source returns where the roster was loaded from.
func (r *Roster) Source() string {
	if r == nil {
		return ""
	}
	return r.source
}

func (r *Roster) Len() int {
	if r == nil {
		return 0
	}
	return len(r.customers)
}
