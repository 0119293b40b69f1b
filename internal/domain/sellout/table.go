package sellout

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// RawRow is one row of numeric cells plus the labels that identify it
type RawRow struct {
	Labels []string
	Cells  []decimal.Decimal
}

// NewRawRow creates a row with zeroed cells
func NewRawRow(labels []string, width int) RawRow {
	cells := make([]decimal.Decimal, width)
	for i := range cells {
		cells[i] = decimal.Zero
	}
	return RawRow{Labels: labels, Cells: cells}
}

// Sum adds every cell of the row
func (r RawRow) Sum() decimal.Decimal {
	sum := decimal.Zero
	for _, c := range r.Cells {
		sum = sum.Add(c)
	}
	return sum
}

// RawTable is always numeric. Presentation formatting never writes back into it.
type RawTable struct {
	Columns []string
	Rows    []RawRow
}

// ColumnIndex returns the position of a column, or -1
func (t RawTable) ColumnIndex(name string) int {
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// Totals is the column-wise sum of every row's raw cells
func (t RawTable) Totals(labels ...string) RawRow {
	total := NewRawRow(labels, len(t.Columns))
	for _, r := range t.Rows {
		for i, c := range r.Cells {
			total.Cells[i] = total.Cells[i].Add(c)
		}
	}
	return total
}

// GrandTotal sums every cell of every row
func (t RawTable) GrandTotal() decimal.Decimal {
	sum := decimal.Zero
	for _, r := range t.Rows {
		sum = sum.Add(r.Sum())
	}
	return sum
}

// AppendColumn adds a computed column to every row
func (t *RawTable) AppendColumn(name string, value func(RawRow) decimal.Decimal) {
	t.Columns = append(t.Columns, name)
	for i := range t.Rows {
		t.Rows[i].Cells = append(t.Rows[i].Cells, value(t.Rows[i]))
	}
}

// OrderBy returns a table whose leading rows follow order by first label.
// Labels without a row get a zero row; remaining rows keep their order after them.
func (t RawTable) OrderBy(order []string) RawTable {
	byLabel := make(map[string]int, len(t.Rows))
	for i, r := range t.Rows {
		if len(r.Labels) > 0 {
			if _, dup := byLabel[r.Labels[0]]; !dup {
				byLabel[r.Labels[0]] = i
			}
		}
	}

	out := RawTable{Columns: t.Columns, Rows: make([]RawRow, 0, len(t.Rows)+len(order))}
	used := make(map[int]bool, len(order))
	for _, label := range order {
		if i, ok := byLabel[label]; ok {
			out.Rows = append(out.Rows, t.Rows[i])
			used[i] = true
			continue
		}
		out.Rows = append(out.Rows, NewRawRow([]string{label}, len(t.Columns)))
	}
	for i, r := range t.Rows {
		if !used[i] {
			out.Rows = append(out.Rows, r)
		}
	}
	return out
}

// Clone returns a deep copy
func (t RawTable) Clone() RawTable {
	out := RawTable{Columns: append([]string(nil), t.Columns...), Rows: make([]RawRow, len(t.Rows))}
	for i, r := range t.Rows {
		out.Rows[i] = RawRow{
			Labels: append([]string(nil), r.Labels...),
			Cells:  append([]decimal.Decimal(nil), r.Cells...),
		}
	}
	return out
}

// Cell is a presented value: the raw number, or formatted text when a share was computed
type Cell struct {
	Raw  decimal.Decimal
	Text string
}

// NumberCell wraps a raw number
func NumberCell(d decimal.Decimal) Cell {
	return Cell{Raw: d}
}

// Formatted reports whether the cell renders as text
func (c Cell) Formatted() bool {
	return c.Text != ""
}

// String renders the cell for CSV and console output
func (c Cell) String() string {
	if c.Formatted() {
		return c.Text
	}
	return c.Raw.String()
}

// MarshalJSON renders raw cells as JSON numbers and formatted cells as strings
func (c Cell) MarshalJSON() ([]byte, error) {
	if c.Formatted() {
		return json.Marshal(c.Text)
	}
	return []byte(c.Raw.String()), nil
}

// PresentationRow is a row ready for output
type PresentationRow struct {
	Labels []string
	Cells  []Cell
	Rank   int
	Total  bool
}

// PresentationTable is what report consumers see. It carries the totals row
// separately so callers decide where to place it.
type PresentationTable struct {
	LabelColumns []string
	Columns      []string
	Rows         []PresentationRow
	Totals       *PresentationRow
	Ranked       bool
}
