package report

import (
	"github.com/sellout/backend/internal/domain/sellout"
	"github.com/shopspring/decimal"
)

// Column and label headers shared by the report definitions
const (
	colTotal      = "Total"
	colMTD        = "MTD"
	colLMTD       = "LMTD"
	colFTD        = "FTD"
	colGrowth     = "Growth %"
	labelDealer   = "Dealer Code"
	labelShop     = "Shop Name"
	labelBrand    = "Brand"
	labelSegment  = "Segment"
	totalsLabel   = "Total"
	noLabel       = ""
	percentFactor = 100
)

// renderInput is what a definition renders from
type renderInput struct {
	data     *Dataset
	req      Request
	settings Settings
	policy   sellout.SegmentPolicy
}

type rendered struct {
	main    Report
	summary *Report
}

// Definition describes one report as a parameterization of the shared pipeline
type Definition struct {
	Type string
	// Policy fixes the segment ladder; nil uses the configured policy
	Policy          sellout.SegmentPolicy
	NeedsComparison bool
	// Comparison is the report's own comparison convention; empty uses the configured default
	Comparison sellout.ComparisonMode
	// Paginated reports fall back to the default page size when no limit is given
	Paginated bool
	render    func(in renderInput) rendered
}

func builtinDefinitions() map[string]Definition {
	defs := []Definition{
		{
			Type:   TypeDealerSegment,
			Policy: sellout.InclusiveLadder,
			render: renderDealerSegment,
		},
		{
			Type:   TypePriceBand,
			Policy: sellout.ExclusiveLadder,
			render: renderPriceBand,
		},
		{
			Type:            TypeRoleWise,
			NeedsComparison: true,
			render:          renderRoleWise,
		},
		{
			Type:            TypeSegmentDetail,
			NeedsComparison: true,
			Comparison:      sellout.ComparisonPreviousCalendarMonth,
			Paginated:       true,
			render:          renderSegmentDetail,
		},
		{
			Type:   TypeBrandShare,
			render: renderBrandShare,
		},
	}
	out := make(map[string]Definition, len(defs))
	for _, d := range defs {
		out[d.Type] = d
	}
	return out
}

func (in renderInput) basis(b sellout.ShareBasis) sellout.ShareBasis {
	if !in.req.ShowShare {
		return sellout.BasisNone
	}
	return b
}

func (in renderInput) assemble(pt sellout.PresentationTable, totals TotalsPosition) Report {
	return Assemble(pt, AssembleOptions{
		Layout: in.req.Layout,
		Totals: totals,
		Page:   in.req.Page,
		Limit:  in.req.Limit,
	})
}

// segmentColumns lists the smartphone bands of a policy, highest first
func segmentColumns(policy sellout.SegmentPolicy) []string {
	segments := policy.Segments(sellout.CategorySmartphone)
	out := make([]string, len(segments))
	for i, s := range segments {
		out[i] = string(s)
	}
	return out
}

func inSegments(columns []string) func(sellout.NormalizedSale) bool {
	set := make(map[string]struct{}, len(columns))
	for _, c := range columns {
		set[c] = struct{}{}
	}
	return func(s sellout.NormalizedSale) bool {
		_, ok := set[string(s.Segment)]
		return ok
	}
}

// distinguishedFirst moves brand to the front of brands, adding it when the filter allows it
func distinguishedFirst(brands []string, brand string, filter sellout.SaleFilter) []string {
	out := make([]string, 0, len(brands)+1)
	found := false
	for _, b := range brands {
		if b == brand {
			found = true
			continue
		}
		out = append(out, b)
	}
	if !found && !filter.Allows(sellout.DimBrand, brand) {
		return out
	}
	return append([]string{brand}, out...)
}

// withShopName inserts the dealer's shop name after the dealer code label
func withShopName(raw *sellout.RawTable, refs *sellout.References) {
	for i, r := range raw.Rows {
		labels := make([]string, 0, len(r.Labels)+1)
		labels = append(labels, r.Labels[0], refs.ShopName(r.Labels[0]))
		labels = append(labels, r.Labels[1:]...)
		raw.Rows[i].Labels = labels
	}
}

// renderDealerSegment shows every known dealer against the inclusive ladder.
// Sales from dealers missing in the directory are collected in a trailing N/A row.
func renderDealerSegment(in renderInput) rendered {
	segments := segmentColumns(in.policy)

	table := sellout.NewTable(TypeDealerSegment, sellout.KeySpec{sellout.DimDealer, sellout.DimSegment}, sellout.SeededOnly())
	for _, d := range in.data.Refs.Dealers() {
		if !in.req.Filter.Allows(sellout.DimDealer, d.Code) {
			continue
		}
		for _, s := range segments {
			table.Seed(sellout.NewCompositeKey(d.Code, s))
		}
	}

	sales, unknown := unknownDealersAsNA(in.data.Current, in.data.Refs)
	if unknown {
		for _, s := range segments {
			table.Seed(sellout.NewCompositeKey(sellout.NotAvailable, s))
		}
	}
	sellout.Accumulate(sales, table)

	raw := sellout.Pivot(table, segments, in.req.Selector)
	withShopName(&raw, in.data.Refs)
	raw.AppendColumn(colTotal, sellout.RawRow.Sum)

	pt := sellout.Present(raw, sellout.PresentOptions{
		LabelColumns: []string{labelDealer, labelShop},
		TotalsLabels: []string{totalsLabel, noLabel},
		Basis:        in.basis(sellout.BasisRow),
		ShareColumns: len(segments),
	})
	return rendered{main: in.assemble(pt, TotalsLast)}
}

// unknownDealersAsNA returns sales with dealer codes missing from refs
// replaced by N/A. The input slice is not modified.
func unknownDealersAsNA(sales []sellout.NormalizedSale, refs *sellout.References) ([]sellout.NormalizedSale, bool) {
	var out []sellout.NormalizedSale
	for i, sale := range sales {
		if _, ok := refs.Dealer(sale.DealerCode); ok {
			continue
		}
		if out == nil {
			out = make([]sellout.NormalizedSale, len(sales))
			copy(out, sales)
		}
		out[i].DealerCode = sellout.NotAvailable
	}
	if out == nil {
		return sales, false
	}
	return out, true
}

// renderPriceBand compares brands within each exclusive-ladder band and ranks the distinguished brand
func renderPriceBand(in renderInput) rendered {
	segments := segmentColumns(in.policy)
	brand := in.settings.DistinguishedBrand

	table := sellout.NewTable(TypePriceBand, sellout.KeySpec{sellout.DimSegment, sellout.DimBrand},
		sellout.Where(inSegments(segments)))
	sellout.Accumulate(in.data.Current, table)

	brands := distinguishedFirst(sellout.ColumnValues(table), brand, in.req.Filter)
	raw := sellout.Pivot(table, brands, in.req.Selector).OrderBy(segments)

	pt := sellout.Present(raw, sellout.PresentOptions{
		LabelColumns: []string{labelSegment},
		TotalsLabels: []string{totalsLabel},
		Basis:        in.basis(sellout.BasisRow),
		RankColumn:   brand,
	})
	return rendered{main: in.assemble(pt, TotalsFirst)}
}

// renderRoleWise compares MTD, LMTD and FTD per value of the selected role
func renderRoleWise(in renderInput) rendered {
	role := in.req.Role
	if role == 0 {
		role = sellout.RoleTSE
	}
	spec := sellout.KeySpec{sellout.DimensionForRole(role)}
	endDay := in.data.Windows.Current.EndDay()

	mtd := sellout.NewTable(colMTD, spec)
	ftd := sellout.NewTable(colFTD, spec, sellout.Where(func(s sellout.NormalizedSale) bool {
		return endDay.Contains(s.Date)
	}))
	lmtd := sellout.NewTable(colLMTD, spec)

	sellout.Accumulate(in.data.Current, mtd, ftd)
	sellout.Accumulate(in.data.Comparison, lmtd)

	raw := sellout.Join([]string{colMTD, colLMTD, colFTD}, in.req.Selector, mtd, lmtd, ftd)
	pt := sellout.Present(raw, sellout.PresentOptions{
		LabelColumns: []string{role.String()},
		TotalsLabels: []string{totalsLabel},
	})
	appendGrowth(&pt, 0, 1)
	return rendered{main: in.assemble(pt, TotalsLast)}
}

// renderSegmentDetail builds a segment summary and a dealer by brand detail from one pass
func renderSegmentDetail(in renderInput) rendered {
	segments := segmentColumns(in.policy)
	ladder := sellout.Where(inSegments(segments))

	summary := sellout.NewTable(colMTD, sellout.KeySpec{sellout.DimSegment}, ladder)
	detail := sellout.NewTable(TypeSegmentDetail, sellout.KeySpec{sellout.DimDealer, sellout.DimBrand, sellout.DimSegment})
	previous := sellout.NewTable(colLMTD, sellout.KeySpec{sellout.DimSegment}, ladder)

	sellout.Accumulate(in.data.Current, summary, detail)
	sellout.Accumulate(in.data.Comparison, previous)

	summaryRaw := sellout.Join([]string{colMTD, colLMTD}, in.req.Selector, summary, previous).OrderBy(segments)
	summaryPt := sellout.Present(summaryRaw, sellout.PresentOptions{
		LabelColumns: []string{labelSegment},
		TotalsLabels: []string{totalsLabel},
	})
	appendGrowth(&summaryPt, 0, 1)
	summaryRep := Assemble(summaryPt, AssembleOptions{Layout: in.req.Layout, Totals: TotalsLast})

	raw := sellout.Pivot(detail, segments, in.req.Selector)
	withShopName(&raw, in.data.Refs)
	raw.AppendColumn(colTotal, sellout.RawRow.Sum)
	pt := sellout.Present(raw, sellout.PresentOptions{
		LabelColumns: []string{labelDealer, labelShop, labelBrand},
		TotalsLabels: []string{totalsLabel, noLabel, noLabel},
		Basis:        in.basis(sellout.BasisRow),
		ShareColumns: len(segments),
	})
	return rendered{main: in.assemble(pt, TotalsLast), summary: &summaryRep}
}

// renderBrandShare shows each dealer's brand mix as a share of the grand total
func renderBrandShare(in renderInput) rendered {
	brand := in.settings.DistinguishedBrand

	table := sellout.NewTable(TypeBrandShare, sellout.KeySpec{sellout.DimDealer, sellout.DimBrand})
	sellout.Accumulate(in.data.Current, table)

	brands := distinguishedFirst(sellout.ColumnValues(table), brand, in.req.Filter)
	raw := sellout.Pivot(table, brands, in.req.Selector)
	withShopName(&raw, in.data.Refs)

	pt := sellout.Present(raw, sellout.PresentOptions{
		LabelColumns: []string{labelDealer, labelShop},
		TotalsLabels: []string{totalsLabel, noLabel},
		Basis:        in.basis(sellout.BasisGrandTotal),
		RankColumn:   brand,
	})
	return rendered{main: in.assemble(pt, TotalsLast)}
}

// appendGrowth adds a presentation-only growth column comparing two raw columns
func appendGrowth(pt *sellout.PresentationTable, current, previous int) {
	pt.Columns = append(pt.Columns, colGrowth)
	for i := range pt.Rows {
		pt.Rows[i].Cells = append(pt.Rows[i].Cells, growthCell(pt.Rows[i].Cells, current, previous))
	}
	if pt.Totals != nil {
		pt.Totals.Cells = append(pt.Totals.Cells, growthCell(pt.Totals.Cells, current, previous))
	}
}

func growthCell(cells []sellout.Cell, current, previous int) sellout.Cell {
	cur, prev := cells[current].Raw, cells[previous].Raw
	if prev.IsZero() {
		return sellout.Cell{Text: sellout.NotAvailable}
	}
	pct := cur.Sub(prev).Div(prev).Mul(decimal.NewFromInt(percentFactor))
	return sellout.Cell{Raw: pct, Text: sellout.FormatShare(pct)}
}
