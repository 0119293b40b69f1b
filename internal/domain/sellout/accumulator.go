package sellout

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// MaxKeyDimensions is the widest key a table supports
const MaxKeyDimensions = 6

// CompositeKey identifies one bucket of a table. It is comparable, so it can
// be used as a map key without joining values into a string.
type CompositeKey struct {
	n     int
	parts [MaxKeyDimensions]string
}

// NewCompositeKey builds a key from ordered dimension values
func NewCompositeKey(values ...string) CompositeKey {
	if len(values) > MaxKeyDimensions {
		panic(fmt.Sprintf("composite key supports at most %d dimensions, got %d", MaxKeyDimensions, len(values)))
	}
	var k CompositeKey
	k.n = copy(k.parts[:], values)
	return k
}

// Len returns the number of dimensions in the key
func (k CompositeKey) Len() int {
	return k.n
}

// Part returns the i-th dimension value
func (k CompositeKey) Part(i int) string {
	if i < 0 || i >= k.n {
		return ""
	}
	return k.parts[i]
}

// Values returns a copy of the dimension values
func (k CompositeKey) Values() []string {
	out := make([]string, k.n)
	copy(out, k.parts[:k.n])
	return out
}

// Prefix returns the key made of the first n dimensions
func (k CompositeKey) Prefix(n int) CompositeKey {
	if n >= k.n {
		return k
	}
	return NewCompositeKey(k.parts[:n]...)
}

// KeySpec lists the dimensions that make up a table's key, in order
type KeySpec []Dimension

// Key derives the composite key of a sale
func (ks KeySpec) Key(s NormalizedSale) CompositeKey {
	var k CompositeKey
	for i, d := range ks {
		k.parts[i] = d.Value(s)
	}
	k.n = len(ks)
	return k
}

// Contains reports whether the spec groups by d
func (ks KeySpec) Contains(d Dimension) bool {
	for _, x := range ks {
		if x == d {
			return true
		}
	}
	return false
}

// ValueSelector picks the measure that populates report cells
type ValueSelector string

const (
	SelectValue  ValueSelector = "value"
	SelectVolume ValueSelector = "volume"
)

// ParseValueSelector accepts "value" or "volume"; empty yields value
func ParseValueSelector(s string) (ValueSelector, error) {
	switch s {
	case "", "value":
		return SelectValue, nil
	case "volume":
		return SelectVolume, nil
	default:
		return "", ErrInvalidParameter.WithMessage("valueVolume must be one of: value, volume")
	}
}

// Totals is the running sum of one bucket
type Totals struct {
	Value  decimal.Decimal
	Volume decimal.Decimal
	Count  int
}

// Add folds a sale into the totals
func (t *Totals) Add(s NormalizedSale) {
	t.Value = t.Value.Add(s.Value)
	t.Volume = t.Volume.Add(s.Volume)
	t.Count++
}

// Select returns the chosen measure
func (t Totals) Select(sel ValueSelector) decimal.Decimal {
	if sel == SelectVolume {
		return t.Volume
	}
	return t.Value
}

// Table accumulates totals per composite key, remembering first-seen order
type Table struct {
	Name       string
	spec       KeySpec
	order      []CompositeKey
	buckets    map[CompositeKey]*Totals
	seededOnly bool
	segmented  bool
	accept     func(NormalizedSale) bool
}

// TableOption configures a Table
type TableOption func(*Table)

// SeededOnly drops sales whose key is outside the seeded universe
func SeededOnly() TableOption {
	return func(t *Table) {
		t.seededOnly = true
	}
}

// Where restricts the table to sales matching pred
func Where(pred func(NormalizedSale) bool) TableOption {
	return func(t *Table) {
		t.accept = pred
	}
}

// NewTable creates an empty table keyed by spec. Tables keyed by segment
// ignore sales that could not be placed in a price band.
func NewTable(name string, spec KeySpec, opts ...TableOption) *Table {
	if len(spec) > MaxKeyDimensions {
		panic(fmt.Sprintf("table %s: key spec has %d dimensions, max %d", name, len(spec), MaxKeyDimensions))
	}
	t := &Table{
		Name:      name,
		spec:      spec,
		buckets:   make(map[CompositeKey]*Totals),
		segmented: spec.Contains(DimSegment),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Spec returns the table's key spec
func (t *Table) Spec() KeySpec {
	return t.spec
}

// Seed pre-creates zero buckets so they appear even without sales
func (t *Table) Seed(keys ...CompositeKey) {
	for _, k := range keys {
		t.bucket(k)
	}
}

// Add folds one sale into its bucket. It reports whether the sale was counted.
func (t *Table) Add(s NormalizedSale) bool {
	if t.segmented && !s.Segmented() {
		return false
	}
	if t.accept != nil && !t.accept(s) {
		return false
	}
	key := t.spec.Key(s)
	if t.seededOnly {
		if _, ok := t.buckets[key]; !ok {
			return false
		}
	}
	t.bucket(key).Add(s)
	return true
}

// Get returns the totals of a key
func (t *Table) Get(k CompositeKey) (Totals, bool) {
	b, ok := t.buckets[k]
	if !ok {
		return Totals{}, false
	}
	return *b, true
}

// Keys returns the keys in first-seen order, seeded keys first
func (t *Table) Keys() []CompositeKey {
	out := make([]CompositeKey, len(t.order))
	copy(out, t.order)
	return out
}

// Len returns the number of buckets
func (t *Table) Len() int {
	return len(t.order)
}

// GrandTotal sums every bucket
func (t *Table) GrandTotal() Totals {
	var total Totals
	for _, k := range t.order {
		b := t.buckets[k]
		total.Value = total.Value.Add(b.Value)
		total.Volume = total.Volume.Add(b.Volume)
		total.Count += b.Count
	}
	return total
}

func (t *Table) bucket(k CompositeKey) *Totals {
	b, ok := t.buckets[k]
	if !ok {
		b = &Totals{}
		t.buckets[k] = b
		t.order = append(t.order, k)
	}
	return b
}

// Accumulate feeds every sale into every table in a single pass
func Accumulate(sales []NormalizedSale, tables ...*Table) {
	for _, s := range sales {
		for _, t := range tables {
			t.Add(s)
		}
	}
}

// Pivot turns a table whose key is (row dims..., column dim) into a raw
// table. Rows keep the table's first-seen order of their row key; columns
// follow the given order, and keys whose column is not listed are ignored.
// The column dimension must be the last element of the key.
func Pivot(t *Table, columns []string, sel ValueSelector) RawTable {
	rowDims := len(t.spec) - 1
	colIndex := make(map[string]int, len(columns))
	for i, c := range columns {
		colIndex[c] = i
	}

	raw := RawTable{Columns: append([]string(nil), columns...)}
	rowIndex := make(map[CompositeKey]int)

	for _, k := range t.order {
		rowKey := k.Prefix(rowDims)
		ri, ok := rowIndex[rowKey]
		if !ok {
			ri = len(raw.Rows)
			rowIndex[rowKey] = ri
			raw.Rows = append(raw.Rows, NewRawRow(rowKey.Values(), len(columns)))
		}
		ci, ok := colIndex[k.Part(rowDims)]
		if !ok {
			continue
		}
		raw.Rows[ri].Cells[ci] = raw.Rows[ri].Cells[ci].Add(t.buckets[k].Select(sel))
	}
	return raw
}

// Join lays tables that share a key spec side by side, one column per
// table. Rows follow first-seen order across the tables in argument order.
func Join(columns []string, sel ValueSelector, tables ...*Table) RawTable {
	raw := RawTable{Columns: append([]string(nil), columns...)}
	rowIndex := make(map[CompositeKey]int)
	for ci, t := range tables {
		if ci >= len(columns) {
			break
		}
		for _, k := range t.order {
			ri, ok := rowIndex[k]
			if !ok {
				ri = len(raw.Rows)
				rowIndex[k] = ri
				raw.Rows = append(raw.Rows, NewRawRow(k.Values(), len(columns)))
			}
			raw.Rows[ri].Cells[ci] = t.buckets[k].Select(sel)
		}
	}
	return raw
}

// ColumnValues returns the distinct values of the key's last dimension in first-seen order
func ColumnValues(t *Table) []string {
	last := len(t.spec) - 1
	seen := make(map[string]struct{})
	var out []string
	for _, k := range t.order {
		v := k.Part(last)
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
