package report

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/sellout/backend/internal/domain/sellout"
)

// RequestParams are report parameters as received from a caller, before validation
type RequestParams struct {
	Type        string
	StartDate   string
	EndDate     string
	ValueVolume string
	ShowShare   bool
	Comparison  string
	Role        string
	Layout      string
	Page        int
	Limit       int
	// Filters maps a dimension name (brand, segment, tse, ...) to allowed values.
	// Values may also be comma separated.
	Filters map[string][]string
}

// Parse validates the parameters and converts them into a Request.
// Dates are interpreted in loc.
func (p RequestParams) Parse(loc *time.Location) (Request, error) {
	req := Request{
		Type:      strings.TrimSpace(p.Type),
		ShowShare: p.ShowShare,
		Page:      p.Page,
		Limit:     p.Limit,
	}

	var err error
	if req.StartDate, err = sellout.ParseDateParam(p.StartDate, loc); err != nil {
		return Request{}, err
	}
	if req.EndDate, err = sellout.ParseDateParam(p.EndDate, loc); err != nil {
		return Request{}, err
	}
	if req.Selector, err = sellout.ParseValueSelector(strings.ToLower(strings.TrimSpace(p.ValueVolume))); err != nil {
		return Request{}, err
	}
	if req.Comparison, err = sellout.ParseComparisonMode(p.Comparison, ""); err != nil {
		return Request{}, err
	}
	if req.Layout, err = ParseLayout(p.Layout); err != nil {
		return Request{}, err
	}

	if strings.TrimSpace(p.Role) != "" {
		role, ok := sellout.ParseRole(p.Role)
		if !ok {
			return Request{}, sellout.ErrInvalidParameter.WithMessage(fmt.Sprintf("unknown role %q", p.Role))
		}
		req.Role = role
	}

	if p.Page < 0 {
		return Request{}, sellout.ErrInvalidParameter.WithMessage("page must not be negative")
	}
	if p.Limit < 0 {
		return Request{}, sellout.ErrInvalidParameter.WithMessage("limit must not be negative")
	}

	if req.Filter, err = parseFilters(p.Filters); err != nil {
		return Request{}, err
	}
	return req, nil
}

func parseFilters(raw map[string][]string) (sellout.SaleFilter, error) {
	names := make([]string, 0, len(raw))
	for name := range raw {
		names = append(names, name)
	}
	sort.Strings(names)

	values := make(map[sellout.Dimension][]string, len(raw))
	for _, name := range names {
		dim, ok := sellout.ParseDimension(name)
		if !ok || !isFilterDimension(dim) {
			return sellout.SaleFilter{}, sellout.ErrInvalidParameter.WithMessage(fmt.Sprintf("unknown filter %q", name))
		}
		for _, v := range raw[name] {
			for _, part := range strings.Split(v, ",") {
				if part = strings.TrimSpace(part); part != "" {
					values[dim] = append(values[dim], part)
				}
			}
		}
	}
	return sellout.NewSaleFilter(values), nil
}

func isFilterDimension(d sellout.Dimension) bool {
	for _, f := range sellout.FilterDimensions {
		if f == d {
			return true
		}
	}
	return false
}
