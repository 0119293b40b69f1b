package sellout

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rawTable(columns []string, rows map[string][]int64, order ...string) RawTable {
	t := RawTable{Columns: columns}
	for _, label := range order {
		r := NewRawRow([]string{label}, len(columns))
		for i, v := range rows[label] {
			r.Cells[i] = decimal.NewFromInt(v)
		}
		t.Rows = append(t.Rows, r)
	}
	return t
}

func parseShare(t *testing.T, c Cell) decimal.Decimal {
	t.Helper()
	require.True(t, c.Formatted(), "cell %v is not a share", c)
	d, err := decimal.NewFromString(strings.TrimSuffix(c.Text, " %"))
	require.NoError(t, err)
	return d
}

func TestPresent_RowShareSumsToHundred(t *testing.T) {
	raw := rawTable([]string{"Samsung", "Apple", "Xiaomi"}, map[string][]int64{
		"10-15k": {1, 1, 1},
		"20-30k": {7, 2, 13},
		"<10k":   {0, 0, 0},
	}, "10-15k", "20-30k", "<10k")

	pt := Present(raw, PresentOptions{Basis: BasisRow, TotalsLabels: []string{"Total"}})

	for _, row := range pt.Rows[:2] {
		sum := decimal.Zero
		for _, c := range row.Cells {
			sum = sum.Add(parseShare(t, c))
		}
		assert.True(t, sum.Sub(decimal.NewFromInt(100)).Abs().LessThanOrEqual(decimal.RequireFromString("0.02")),
			"row %v sums to %s", row.Labels, sum)
	}
	assert.Equal(t, "33.33 %", pt.Rows[0].Cells[0].String())

	for _, c := range pt.Rows[2].Cells {
		assert.False(t, c.Formatted())
		assert.True(t, c.Raw.IsZero())
	}

	require.NotNil(t, pt.Totals)
	assert.True(t, pt.Totals.Total)
	assert.Equal(t, []string{"Total"}, pt.Totals.Labels)
	assert.Equal(t, "8", pt.Totals.Cells[0].Raw.String())
	assert.Equal(t, "14", pt.Totals.Cells[2].Raw.String())
}

func TestPresent_DoesNotMutateRaw(t *testing.T) {
	raw := rawTable([]string{"A", "B"}, map[string][]int64{"r": {1, 3}}, "r")
	before := raw.Clone()

	Present(raw, PresentOptions{Basis: BasisRow, TotalsLabels: []string{"Total"}, RankColumn: "A"})
	ToShares(raw, BasisGrandTotal)

	assert.Equal(t, before, raw)
}

func TestPresent_TotalsEqualColumnSums(t *testing.T) {
	raw := rawTable([]string{"A", "B"}, map[string][]int64{
		"r1": {10, 30},
		"r2": {5, 0},
		"r3": {85, 70},
	}, "r1", "r2", "r3")

	for _, basis := range []ShareBasis{BasisNone, BasisRow, BasisGrandTotal} {
		pt := Present(raw, PresentOptions{Basis: basis, TotalsLabels: []string{"Total"}})
		assert.Equal(t, "100", pt.Totals.Cells[0].Raw.String(), basis)
		assert.Equal(t, "100", pt.Totals.Cells[1].Raw.String(), basis)
	}
}

func TestPresent_GrandTotalBasis(t *testing.T) {
	raw := rawTable([]string{"A", "B"}, map[string][]int64{
		"r1": {25, 25},
		"r2": {50, 100},
	}, "r1", "r2")

	pt := Present(raw, PresentOptions{Basis: BasisGrandTotal, TotalsLabels: []string{"Total"}})
	assert.Equal(t, "12.50 %", pt.Rows[0].Cells[0].Text)
	assert.Equal(t, "50.00 %", pt.Rows[1].Cells[1].Text)
	assert.Equal(t, "37.50 %", pt.Totals.Cells[0].Text)
	assert.Equal(t, "62.50 %", pt.Totals.Cells[1].Text)

	zero := rawTable([]string{"A"}, map[string][]int64{"r": {0}}, "r")
	pt = ToShares(zero, BasisGrandTotal)
	assert.False(t, pt.Rows[0].Cells[0].Formatted())
}

func TestPresent_ShareColumnsLeaveDerivedRaw(t *testing.T) {
	raw := rawTable([]string{"A", "B"}, map[string][]int64{"r": {1, 3}}, "r")
	raw.AppendColumn("Total", RawRow.Sum)

	pt := Present(raw, PresentOptions{Basis: BasisRow, ShareColumns: 2})
	assert.Equal(t, "25.00 %", pt.Rows[0].Cells[0].Text)
	assert.Equal(t, "75.00 %", pt.Rows[0].Cells[1].Text)
	assert.Equal(t, "4", pt.Rows[0].Cells[2].String())
}

func TestRank(t *testing.T) {
	raw := rawTable([]string{"Samsung", "Apple", "Xiaomi"}, map[string][]int64{
		"r1": {10, 20, 5},
		"r2": {30, 20, 5},
		"r3": {5, 5, 5},
		"r4": {0, 0, 0},
	}, "r1", "r2", "r3", "r4")

	assert.Equal(t, []int{2, 1, 1, 1}, Rank(raw, "Samsung", 0))
	assert.Equal(t, []int{3, 3, 3, 3}, Rank(raw, "Xiaomi", 0))
	assert.Equal(t, []int{0, 0, 0, 0}, Rank(raw, "Nokia", 0))
}

func TestRank_ZeroCompetitorDoesNotChangeRank(t *testing.T) {
	raw := rawTable([]string{"Samsung", "Apple"}, map[string][]int64{
		"r1": {10, 20},
		"r2": {30, 20},
		"r3": {0, 20},
	}, "r1", "r2", "r3")
	before := Rank(raw, "Samsung", 0)

	withZero := raw.Clone()
	withZero.AppendColumn("Nokia", func(RawRow) decimal.Decimal { return decimal.Zero })
	after := Rank(withZero, "Samsung", 0)

	for i := range before {
		if raw.Rows[i].Cells[0].IsZero() {
			continue
		}
		assert.Equal(t, before[i], after[i], "row %d", i)
	}
}

func TestPresent_RankedTotals(t *testing.T) {
	raw := rawTable([]string{"Samsung", "Apple"}, map[string][]int64{
		"r1": {10, 20},
		"r2": {30, 5},
	}, "r1", "r2")

	pt := Present(raw, PresentOptions{Basis: BasisRow, TotalsLabels: []string{"Total"}, RankColumn: "Samsung"})
	assert.True(t, pt.Ranked)
	assert.Equal(t, 2, pt.Rows[0].Rank)
	assert.Equal(t, 1, pt.Rows[1].Rank)
	assert.Equal(t, 1, pt.Totals.Rank)
}

func TestPresent_Idempotent(t *testing.T) {
	raw := rawTable([]string{"A", "B", "C"}, map[string][]int64{
		"r1": {3, 3, 3},
		"r2": {1, 0, 2},
	}, "r1", "r2")
	opts := PresentOptions{Basis: BasisRow, TotalsLabels: []string{"Total"}, RankColumn: "B"}

	first, err := json.Marshal(Present(raw, opts))
	require.NoError(t, err)
	second, err := json.Marshal(Present(raw, opts))
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestCell_MarshalJSON(t *testing.T) {
	b, err := json.Marshal([]Cell{NumberCell(decimal.RequireFromString("12.5")), {Raw: decimal.NewFromInt(1), Text: "50.00 %"}})
	require.NoError(t, err)
	assert.JSONEq(t, `[12.5, "50.00 %"]`, string(b))
}
