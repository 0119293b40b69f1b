package sellout

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// FeedDateLayout is the distributor feed's M/D/YYYY date format
const FeedDateLayout = "1/2/2006"

// maxManagerDepth bounds the walk up the reporting chain
const maxManagerDepth = 8

// externalRoleColumns maps every role onto the feed column that carries it
var externalRoleColumns = map[Role]func(ExternalRecord) string{
	RoleTSE:  func(r ExternalRecord) string { return r.TSE },
	RoleZSM:  func(r ExternalRecord) string { return r.ZSM },
	RoleArea: func(r ExternalRecord) string { return r.Area },
	RoleABM:  func(r ExternalRecord) string { return r.ABM },
	RoleASE:  func(r ExternalRecord) string { return r.ASE },
	RoleASM:  func(r ExternalRecord) string { return r.ASM },
	RoleRSO:  func(r ExternalRecord) string { return r.RSO },
	RoleType: func(r ExternalRecord) string { return r.Type },
}

// Normalizer reduces internal and external records to NormalizedSale
type Normalizer struct {
	refs      *References
	policy    SegmentPolicy
	feedBrand string
	location  *time.Location
}

// NormalizerOption configures a Normalizer
type NormalizerOption func(*Normalizer)

// WithSegmentPolicy sets the ladder used when a segment must be derived
func WithSegmentPolicy(p SegmentPolicy) NormalizerOption {
	return func(n *Normalizer) {
		n.policy = p
	}
}

// WithFeedBrand sets the sole brand the distributor feed reports
func WithFeedBrand(brand string) NormalizerOption {
	return func(n *Normalizer) {
		n.feedBrand = brand
	}
}

// WithLocation sets the location feed dates are interpreted in
func WithLocation(loc *time.Location) NormalizerOption {
	return func(n *Normalizer) {
		if loc != nil {
			n.location = loc
		}
	}
}

// NewNormalizer creates a Normalizer over a reference snapshot
func NewNormalizer(refs *References, opts ...NormalizerOption) *Normalizer {
	if refs == nil {
		refs = NewReferences(nil, nil, nil)
	}
	n := &Normalizer{
		refs:      refs,
		policy:    InclusiveLadder,
		feedBrand: "Samsung",
		location:  time.UTC,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// NormalizeInternal converts extraction log records. A record without a
// timestamp aborts the batch; anything else is recovered per record.
func (n *Normalizer) NormalizeInternal(records []InternalRecord) ([]NormalizedSale, Diagnostics, error) {
	diag := Diagnostics{Records: len(records)}
	sales := make([]NormalizedSale, 0, len(records))

	for i, rec := range records {
		if rec.CreatedAt.IsZero() {
			return nil, diag, ErrMalformedRecord.WithMessage(
				fmt.Sprintf("internal record %d (%s) has no timestamp", i, rec.ID))
		}
		dealerCode := strings.TrimSpace(rec.DealerCode)
		if dealerCode == "" {
			diag.Dropped++
			continue
		}

		sale := NormalizedSale{
			Source:      SourceInternal,
			Brand:       NotAvailable,
			Model:       NotAvailable,
			Category:    CategorySmartphone,
			DealerCode:  dealerCode,
			SalesType:   SalesTypeSellOut,
			Value:       rec.TotalPrice,
			Volume:      rec.Quantity,
			Date:        rec.CreatedAt.In(n.location),
			Attribution: Attribution{},
		}

		if product, ok := n.refs.Product(rec.ProductID); ok {
			sale.Brand = orNA(product.Brand)
			sale.Model = orNA(product.Model)
			if product.Category != "" {
				sale.Category = product.Category
			}
		} else {
			diag.UnresolvedReferences++
		}

		if !n.attributeEmployee(sale.Attribution, rec.UploadedBy) {
			diag.UnresolvedReferences++
		}
		if dealer, ok := n.refs.Dealer(dealerCode); ok {
			sale.DealerCode = dealer.Code
			sale.Attribution.Set(RoleType, dealer.Type)
		} else {
			diag.UnresolvedReferences++
		}

		sale.Segment = ClassifySale(n.policy, sale.Value, sale.Volume, sale.Category)
		if !sale.Segmented() {
			diag.UnclassifiablePrices++
		}

		sales = append(sales, sale)
	}

	diag.Normalized = len(sales)
	return sales, diag, nil
}

// NormalizeExternal converts distributor feed rows. A malformed date aborts
// the batch; unparsable numbers count as zero.
func (n *Normalizer) NormalizeExternal(records []ExternalRecord) ([]NormalizedSale, Diagnostics, error) {
	diag := Diagnostics{Records: len(records)}
	sales := make([]NormalizedSale, 0, len(records))

	for i, rec := range records {
		date, err := time.ParseInLocation(FeedDateLayout, strings.TrimSpace(rec.Date), n.location)
		if err != nil {
			return nil, diag, ErrMalformedRecord.WithMessage(
				fmt.Sprintf("feed record %d (%s) has malformed date %q", i, rec.ID, rec.Date))
		}
		dealerCode := strings.TrimSpace(rec.BuyerCode)
		if dealerCode == "" {
			diag.Dropped++
			continue
		}

		value, ok := ParseNumeric(rec.MTDValue)
		if !ok {
			diag.MalformedNumerics++
		}
		volume, ok := ParseNumeric(rec.MTDVolume)
		if !ok {
			diag.MalformedNumerics++
		}

		sale := NormalizedSale{
			Source:      SourceExternal,
			Brand:       orNA(n.feedBrand),
			Model:       firstNonEmpty(rec.ModelCode, rec.MarketName, NotAvailable),
			Category:    CategorySmartphone,
			DealerCode:  dealerCode,
			SalesType:   firstNonEmpty(rec.SalesType, SalesTypeSellOut),
			Value:       value,
			Volume:      volume,
			Date:        date,
			Attribution: Attribution{},
		}
		if product, ok := n.refs.ProductByModel(sale.Model); ok && product.Category != "" {
			sale.Category = product.Category
		}
		if dealer, ok := n.refs.Dealer(dealerCode); ok {
			sale.DealerCode = dealer.Code
		}

		for _, role := range AllRoles {
			sale.Attribution.Set(role, externalRoleColumns[role](rec))
		}

		switch supplied := firstNonEmpty(rec.SegmentNew, rec.Segment); {
		case !value.IsZero() && !volume.IsPositive():
			// a supplied segment does not make a unit price out of a missing volume
			sale.Segment = SegmentUnclassed
			diag.UnclassifiablePrices++
		case supplied != "":
			sale.Segment = Segment(supplied)
		default:
			sale.Segment = ClassifySale(n.policy, value, volume, sale.Category)
			if !sale.Segmented() {
				diag.UnclassifiablePrices++
			}
		}

		sales = append(sales, sale)
	}

	diag.Normalized = len(sales)
	return sales, diag, nil
}

// attributeEmployee fills the attribution from the uploader and their
// reporting chain. It reports false if the uploader is unknown.
func (n *Normalizer) attributeEmployee(a Attribution, code string) bool {
	emp, ok := n.refs.Employee(code)
	if !ok {
		return false
	}
	a.Set(emp.Role, emp.Name)
	a.Set(RoleArea, emp.Area)

	visited := map[string]struct{}{normalizeCode(emp.Code): {}}
	next := emp.ManagerCode
	for depth := 0; depth < maxManagerDepth && next != ""; depth++ {
		if _, seen := visited[normalizeCode(next)]; seen {
			break
		}
		visited[normalizeCode(next)] = struct{}{}

		manager, ok := n.refs.Employee(next)
		if !ok {
			break
		}
		if _, taken := a[manager.Role]; !taken {
			a.Set(manager.Role, manager.Name)
		}
		if _, taken := a[RoleArea]; !taken {
			a.Set(RoleArea, manager.Area)
		}
		next = manager.ManagerCode
	}
	return true
}

// ParseNumeric parses a feed number, tolerating blanks, thousands separators
// and surrounding whitespace. ok is false only for non-empty text that is not
// a number; both cases yield zero.
func ParseNumeric(s string) (decimal.Decimal, bool) {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", ""))
	if s == "" || s == "-" {
		return decimal.Zero, true
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

func orNA(s string) string {
	if strings.TrimSpace(s) == "" {
		return NotAvailable
	}
	return strings.TrimSpace(s)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
