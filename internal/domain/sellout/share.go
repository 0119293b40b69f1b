package sellout

import (
	"sort"

	"github.com/shopspring/decimal"
)

// ShareBasis selects the denominator of share percentages
type ShareBasis string

const (
	BasisNone       ShareBasis = ""
	BasisRow        ShareBasis = "row"
	BasisGrandTotal ShareBasis = "grandTotal"
)

var hundred = decimal.NewFromInt(100)

// FormatShare renders a percentage with two decimals
func FormatShare(pct decimal.Decimal) string {
	return pct.StringFixed(2) + " %"
}

// PresentOptions controls how a raw table becomes a presentation table
type PresentOptions struct {
	LabelColumns []string
	// TotalsLabels labels the totals row; nil means no totals row
	TotalsLabels []string
	Basis        ShareBasis
	// ShareColumns is the number of leading columns that take part in shares
	// and ranking. Trailing columns are derived and always shown raw. Zero means all.
	ShareColumns int
	// RankColumn names the distinguished column to rank; empty disables ranking
	RankColumn string
}

// Present converts a raw table for output. The totals row and ranks are
// computed from raw values before any percentage conversion.
func Present(raw RawTable, opts PresentOptions) PresentationTable {
	width := opts.ShareColumns
	if width <= 0 || width > len(raw.Columns) {
		width = len(raw.Columns)
	}

	pt := PresentationTable{
		LabelColumns: append([]string(nil), opts.LabelColumns...),
		Columns:      append([]string(nil), raw.Columns...),
		Rows:         make([]PresentationRow, len(raw.Rows)),
		Ranked:       opts.RankColumn != "",
	}

	var ranks []int
	if pt.Ranked {
		ranks = Rank(raw, opts.RankColumn, width)
	}

	var grand decimal.Decimal
	if opts.Basis == BasisGrandTotal {
		for _, r := range raw.Rows {
			grand = grand.Add(sumCells(r.Cells[:width]))
		}
	}

	convert := func(r RawRow) []Cell {
		switch opts.Basis {
		case BasisRow:
			return shareCells(r.Cells, width, sumCells(r.Cells[:width]))
		case BasisGrandTotal:
			return shareCells(r.Cells, width, grand)
		default:
			return numberCells(r.Cells)
		}
	}

	for i, r := range raw.Rows {
		pt.Rows[i] = PresentationRow{
			Labels: append([]string(nil), r.Labels...),
			Cells:  convert(r),
		}
		if pt.Ranked {
			pt.Rows[i].Rank = ranks[i]
		}
	}

	if opts.TotalsLabels != nil {
		totals := raw.Totals(opts.TotalsLabels...)
		row := PresentationRow{Labels: totals.Labels, Cells: convert(totals), Total: true}
		if pt.Ranked {
			row.Rank = rankRow(totals, raw.ColumnIndex(opts.RankColumn), width)
		}
		pt.Totals = &row
	}
	return pt
}

// ToShares converts raw cells to percentages of basis. It is Present without totals or rank.
func ToShares(raw RawTable, basis ShareBasis) PresentationTable {
	return Present(raw, PresentOptions{Basis: basis})
}

// Rank returns, for every row, the 1-based position of column among the
// first width columns sorted by raw value descending. Ties keep column order.
// Rows get 0 when the column does not exist.
func Rank(raw RawTable, column string, width int) []int {
	if width <= 0 || width > len(raw.Columns) {
		width = len(raw.Columns)
	}
	idx := raw.ColumnIndex(column)
	ranks := make([]int, len(raw.Rows))
	for i, r := range raw.Rows {
		ranks[i] = rankRow(r, idx, width)
	}
	return ranks
}

func rankRow(r RawRow, idx, width int) int {
	if idx < 0 || idx >= width {
		return 0
	}
	order := make([]int, width)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return r.Cells[order[a]].GreaterThan(r.Cells[order[b]])
	})
	for pos, col := range order {
		if col == idx {
			return pos + 1
		}
	}
	return 0
}

func shareCells(cells []decimal.Decimal, width int, basis decimal.Decimal) []Cell {
	out := numberCells(cells)
	if basis.IsZero() {
		return out
	}
	for i := 0; i < width; i++ {
		out[i] = Cell{Raw: cells[i], Text: FormatShare(cells[i].Div(basis).Mul(hundred))}
	}
	return out
}

func numberCells(cells []decimal.Decimal) []Cell {
	out := make([]Cell, len(cells))
	for i, c := range cells {
		out[i] = NumberCell(c)
	}
	return out
}

func sumCells(cells []decimal.Decimal) decimal.Decimal {
	sum := decimal.Zero
	for _, c := range cells {
		sum = sum.Add(c)
	}
	return sum
}
