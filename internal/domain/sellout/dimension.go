package sellout

import (
	"fmt"
	"strings"
)

// Dimension is one axis a sale can be grouped or filtered by
type Dimension int

const (
	DimDealer Dimension = iota + 1
	DimBrand
	DimModel
	DimSegment
	DimCategory
	DimMonth
	DimSalesType
	DimTSE
	DimZSM
	DimArea
	DimABM
	DimASE
	DimASM
	DimRSO
	DimType
)

type dimensionInfo struct {
	name    string
	extract func(NormalizedSale) string
}

func roleExtractor(role Role) func(NormalizedSale) string {
	return func(s NormalizedSale) string { return s.Attribution.Get(role) }
}

var dimensions = map[Dimension]dimensionInfo{
	DimDealer:    {"dealerCode", func(s NormalizedSale) string { return s.DealerCode }},
	DimBrand:     {"brand", func(s NormalizedSale) string { return s.Brand }},
	DimModel:     {"model", func(s NormalizedSale) string { return s.Model }},
	DimSegment:   {"segment", func(s NormalizedSale) string { return string(s.Segment) }},
	DimCategory:  {"category", func(s NormalizedSale) string { return string(s.Category) }},
	DimMonth:     {"month", func(s NormalizedSale) string { return s.Date.Format("2006-01") }},
	DimSalesType: {"salesType", func(s NormalizedSale) string { return s.SalesType }},
	DimTSE:       {"tse", roleExtractor(RoleTSE)},
	DimZSM:       {"zsm", roleExtractor(RoleZSM)},
	DimArea:      {"area", roleExtractor(RoleArea)},
	DimABM:       {"abm", roleExtractor(RoleABM)},
	DimASE:       {"ase", roleExtractor(RoleASE)},
	DimASM:       {"asm", roleExtractor(RoleASM)},
	DimRSO:       {"rso", roleExtractor(RoleRSO)},
	DimType:      {"type", roleExtractor(RoleType)},
}

var roleDimensions = map[Role]Dimension{
	RoleTSE:  DimTSE,
	RoleZSM:  DimZSM,
	RoleArea: DimArea,
	RoleABM:  DimABM,
	RoleASE:  DimASE,
	RoleASM:  DimASM,
	RoleRSO:  DimRSO,
	RoleType: DimType,
}

// DimensionForRole returns the grouping dimension of a role
func DimensionForRole(role Role) Dimension {
	return roleDimensions[role]
}

func (d Dimension) String() string {
	if info, ok := dimensions[d]; ok {
		return info.name
	}
	return fmt.Sprintf("dimension(%d)", int(d))
}

// Value extracts the dimension value of a sale
func (d Dimension) Value(s NormalizedSale) string {
	info, ok := dimensions[d]
	if !ok {
		return NotAvailable
	}
	return info.extract(s)
}

// ParseDimension matches a dimension by its query parameter name
func ParseDimension(name string) (Dimension, bool) {
	for d, info := range dimensions {
		if strings.EqualFold(info.name, strings.TrimSpace(name)) {
			return d, true
		}
	}
	if role, ok := ParseRole(name); ok {
		return DimensionForRole(role), true
	}
	return 0, false
}

// FilterDimensions lists the dimensions accepted as inclusion filters
var FilterDimensions = []Dimension{
	DimBrand, DimModel, DimSegment, DimDealer, DimCategory, DimSalesType,
	DimTSE, DimZSM, DimArea, DimABM, DimASE, DimASM, DimRSO, DimType,
}

// SaleFilter keeps sales whose dimension values are in the allowed sets.
// An empty filter keeps everything.
type SaleFilter struct {
	allowed map[Dimension]map[string]struct{}
}

// NewSaleFilter builds a filter from dimension value lists. Empty lists are ignored.
func NewSaleFilter(values map[Dimension][]string) SaleFilter {
	f := SaleFilter{allowed: make(map[Dimension]map[string]struct{})}
	for d, vs := range values {
		set := make(map[string]struct{}, len(vs))
		for _, v := range vs {
			if v = strings.TrimSpace(v); v != "" {
				set[strings.ToLower(v)] = struct{}{}
			}
		}
		if len(set) > 0 {
			f.allowed[d] = set
		}
	}
	return f
}

// Empty reports whether the filter has no constraints
func (f SaleFilter) Empty() bool {
	return len(f.allowed) == 0
}

// Has reports whether the filter constrains d
func (f SaleFilter) Has(d Dimension) bool {
	_, ok := f.allowed[d]
	return ok
}

// Without returns a copy of the filter with the given dimensions removed
func (f SaleFilter) Without(dims ...Dimension) SaleFilter {
	out := SaleFilter{allowed: make(map[Dimension]map[string]struct{}, len(f.allowed))}
	for d, set := range f.allowed {
		out.allowed[d] = set
	}
	for _, d := range dims {
		delete(out.allowed, d)
	}
	return out
}

// Allows reports whether value passes the constraint on d
func (f SaleFilter) Allows(d Dimension, value string) bool {
	set, ok := f.allowed[d]
	if !ok {
		return true
	}
	_, ok = set[strings.ToLower(value)]
	return ok
}

// Matches reports whether the sale passes every constraint
func (f SaleFilter) Matches(s NormalizedSale) bool {
	for d, set := range f.allowed {
		if _, ok := set[strings.ToLower(d.Value(s))]; !ok {
			return false
		}
	}
	return true
}

// Apply returns the sales that match and the number removed
func (f SaleFilter) Apply(sales []NormalizedSale) ([]NormalizedSale, int) {
	if f.Empty() {
		return sales, 0
	}
	out := make([]NormalizedSale, 0, len(sales))
	for _, s := range sales {
		if f.Matches(s) {
			out = append(out, s)
		}
	}
	return out, len(sales) - len(out)
}
