package sellout

import "strings"

// References is an immutable in-memory snapshot of the reference tables
type References struct {
	products  map[string]Product
	byModel   map[string]Product
	dealers   map[string]Dealer
	employees map[string]Employee
	// dealerOrder keeps the reference table order for seeding dealer rows
	dealerOrder []string
}

// NewReferences indexes the reference tables by their codes. Codes are
// compared case-insensitively and with surrounding whitespace ignored.
func NewReferences(products []Product, dealers []Dealer, employees []Employee) *References {
	r := &References{
		products:    make(map[string]Product, len(products)),
		byModel:     make(map[string]Product, len(products)),
		dealers:     make(map[string]Dealer, len(dealers)),
		employees:   make(map[string]Employee, len(employees)),
		dealerOrder: make([]string, 0, len(dealers)),
	}
	for _, p := range products {
		r.products[normalizeCode(p.ID)] = p
		if p.Model != "" {
			r.byModel[normalizeCode(p.Model)] = p
		}
	}
	for _, d := range dealers {
		code := normalizeCode(d.Code)
		if _, dup := r.dealers[code]; !dup {
			r.dealerOrder = append(r.dealerOrder, d.Code)
		}
		r.dealers[code] = d
	}
	for _, e := range employees {
		r.employees[normalizeCode(e.Code)] = e
	}
	return r
}

// Product looks up a catalog entry
func (r *References) Product(id string) (Product, bool) {
	p, ok := r.products[normalizeCode(id)]
	return p, ok
}

// ProductByModel looks up a catalog entry by its model name or code
func (r *References) ProductByModel(model string) (Product, bool) {
	p, ok := r.byModel[normalizeCode(model)]
	return p, ok
}

// Dealer looks up a dealer by code
func (r *References) Dealer(code string) (Dealer, bool) {
	d, ok := r.dealers[normalizeCode(code)]
	return d, ok
}

// Employee looks up an employee by code
func (r *References) Employee(code string) (Employee, bool) {
	e, ok := r.employees[normalizeCode(code)]
	return e, ok
}

// Dealers returns every known dealer in reference table order
func (r *References) Dealers() []Dealer {
	out := make([]Dealer, 0, len(r.dealerOrder))
	for _, code := range r.dealerOrder {
		out = append(out, r.dealers[normalizeCode(code)])
	}
	return out
}

// ShopName returns the dealer's shop name or N/A
func (r *References) ShopName(code string) string {
	if d, ok := r.Dealer(code); ok && d.ShopName != "" {
		return d.ShopName
	}
	return NotAvailable
}

// Counts reports the size of each reference table
func (r *References) Counts() (products, dealers, employees int) {
	return len(r.products), len(r.dealers), len(r.employees)
}

func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// ReferenceSnapshot is the raw content of the reference tables, suitable for caching
type ReferenceSnapshot struct {
	Products  []Product  `json:"products"`
	Dealers   []Dealer   `json:"dealers"`
	Employees []Employee `json:"employees"`
}

// Index builds the lookup structure for the snapshot
func (s ReferenceSnapshot) Index() *References {
	return NewReferences(s.Products, s.Dealers, s.Employees)
}
