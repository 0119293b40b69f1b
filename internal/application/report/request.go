package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/sellout/backend/internal/domain/sellout"
)

// Report types served by the sell-out service
const (
	TypeDealerSegment = "dealer-segment"
	TypePriceBand     = "price-band"
	TypeRoleWise      = "role-wise"
	TypeSegmentDetail = "segment-detail"
	TypeBrandShare    = "brand-share"
)

// Request is a validated report request
type Request struct {
	Type      string
	StartDate *time.Time
	EndDate   *time.Time
	Selector  sellout.ValueSelector
	ShowShare bool
	// Comparison overrides the report's comparison mode when set
	Comparison sellout.ComparisonMode
	// Role groups the role-wise report; zero means TSE
	Role   sellout.Role
	Filter sellout.SaleFilter
	Page   int
	Limit  int
	Layout Layout
	// Unpaginated renders every data row, ignoring Page, Limit and the default page size
	Unpaginated bool
}

// Result is a rendered report plus the context it was computed in
type Result struct {
	Type        string              `json:"type"`
	Report      Report              `json:"report"`
	Summary     *Report             `json:"summary,omitempty"`
	Windows     sellout.Windows     `json:"windows"`
	Diagnostics sellout.Diagnostics `json:"diagnostics"`
	GeneratedAt time.Time           `json:"generatedAt"`
}

// Settings are the deployment-wide report parameters
type Settings struct {
	DistinguishedBrand string
	SegmentPolicy      sellout.SegmentPolicy
	DefaultComparison  sellout.ComparisonMode
	DefaultLimit       int
	MaxLimit           int
}

// DefaultSettings returns the settings used when none are configured
func DefaultSettings() Settings {
	return Settings{
		DistinguishedBrand: "Samsung",
		SegmentPolicy:      sellout.InclusiveLadder,
		DefaultComparison:  sellout.ComparisonShiftOneMonth,
		DefaultLimit:       100,
		MaxLimit:           1000,
	}
}

// ParseSettings builds settings from their configured names. Empty or
// non-positive values keep the defaults.
func ParseSettings(brand, policy, comparison string, defaultLimit, maxLimit int) (Settings, error) {
	s := DefaultSettings()
	if b := strings.TrimSpace(brand); b != "" {
		s.DistinguishedBrand = b
	}
	if strings.TrimSpace(policy) != "" {
		p, ok := sellout.PolicyByName(policy)
		if !ok {
			return Settings{}, fmt.Errorf("unknown segment policy %q", policy)
		}
		s.SegmentPolicy = p
	}
	mode, err := sellout.ParseComparisonMode(comparison, s.DefaultComparison)
	if err != nil {
		return Settings{}, fmt.Errorf("default comparison: %w", err)
	}
	s.DefaultComparison = mode
	if defaultLimit > 0 {
		s.DefaultLimit = defaultLimit
	}
	if maxLimit > 0 {
		s.MaxLimit = maxLimit
	}
	if s.DefaultLimit > s.MaxLimit {
		return Settings{}, fmt.Errorf("default limit %d exceeds max limit %d", s.DefaultLimit, s.MaxLimit)
	}
	return s, nil
}
