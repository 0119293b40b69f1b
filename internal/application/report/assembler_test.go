package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/sellout/backend/internal/domain/sellout"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func numberedTable(n int) sellout.RawTable {
	raw := sellout.RawTable{Columns: []string{"Value"}}
	for i := 1; i <= n; i++ {
		r := sellout.NewRawRow([]string{fmt.Sprintf("D%03d", i)}, 1)
		r.Cells[0] = decimal.NewFromInt(int64(i))
		raw.Rows = append(raw.Rows, r)
	}
	return raw
}

func TestAssemble_Pagination(t *testing.T) {
	pt := sellout.Present(numberedTable(250), sellout.PresentOptions{
		LabelColumns: []string{"Dealer"},
		TotalsLabels: []string{"Total"},
	})

	rep := Assemble(pt, AssembleOptions{Layout: LayoutPositional, Totals: TotalsLast, Page: 2, Limit: 100})

	assert.Equal(t, 250, rep.TotalRecords)
	assert.Equal(t, 2, rep.Page)
	assert.Equal(t, 100, rep.Limit)
	require.Len(t, rep.Data, 101)

	assert.Equal(t, "D101", rep.Data[0].Strings()[0])
	assert.Equal(t, "D200", rep.Data[99].Strings()[0])

	totals := rep.Data[100]
	assert.True(t, totals.IsTotal())
	// 1 + 2 + ... + 250
	assert.Equal(t, []string{"Total", "31375"}, totals.Strings())
}

func TestAssemble_PageOutOfRange(t *testing.T) {
	pt := sellout.Present(numberedTable(5), sellout.PresentOptions{TotalsLabels: []string{"Total"}, LabelColumns: []string{"Dealer"}})
	rep := Assemble(pt, AssembleOptions{Totals: TotalsFirst, Page: 3, Limit: 5})

	require.Len(t, rep.Data, 1)
	assert.True(t, rep.Data[0].IsTotal())
	assert.Equal(t, 5, rep.TotalRecords)
	assert.False(t, rep.Empty)
}

func TestAssemble_TotalsPosition(t *testing.T) {
	pt := sellout.Present(numberedTable(3), sellout.PresentOptions{LabelColumns: []string{"Dealer"}, TotalsLabels: []string{"Total"}})

	first := Assemble(pt, AssembleOptions{Totals: TotalsFirst})
	assert.True(t, first.Data[0].IsTotal())
	assert.Len(t, first.Data, 4)

	last := Assemble(pt, AssembleOptions{Totals: TotalsLast})
	assert.True(t, last.Data[3].IsTotal())

	none := Assemble(pt, AssembleOptions{Totals: TotalsNone})
	assert.Len(t, none.Data, 3)
}

func TestAssemble_KeyedJSONKeepsColumnOrder(t *testing.T) {
	raw := sellout.RawTable{Columns: []string{"Samsung", "Apple"}}
	r := sellout.NewRawRow([]string{"10-15k"}, 2)
	r.Cells[0] = decimal.NewFromInt(3)
	r.Cells[1] = decimal.NewFromInt(1)
	raw.Rows = append(raw.Rows, r)

	pt := sellout.Present(raw, sellout.PresentOptions{
		LabelColumns: []string{"Segment"},
		Basis:        sellout.BasisRow,
		RankColumn:   "Samsung",
	})
	rep := Assemble(pt, AssembleOptions{Layout: LayoutKeyed})

	assert.Equal(t, []string{"Segment", "Samsung", "Apple", RankColumn}, rep.Columns)
	b, err := json.Marshal(rep.Data[0])
	require.NoError(t, err)
	assert.Equal(t, `{"Segment":"10-15k","Samsung":"75.00 %","Apple":"25.00 %","Rank":1}`, string(b))

	positional := Assemble(pt, AssembleOptions{Layout: LayoutPositional})
	b, err = json.Marshal(positional.Data[0])
	require.NoError(t, err)
	assert.Equal(t, `["10-15k","75.00 %","25.00 %",1]`, string(b))
}

func TestAssemble_Empty(t *testing.T) {
	rep := Assemble(sellout.Present(sellout.RawTable{Columns: []string{"A"}}, sellout.PresentOptions{}), AssembleOptions{})
	assert.True(t, rep.Empty)
	assert.Zero(t, rep.TotalRecords)
	assert.NotNil(t, rep.Data)
}

func TestWriteCSV(t *testing.T) {
	raw := sellout.RawTable{Columns: []string{"Value"}}
	r := sellout.NewRawRow([]string{"Shop, Main Road"}, 1)
	r.Cells[0] = decimal.RequireFromString("1234.5")
	raw.Rows = append(raw.Rows, r)

	pt := sellout.Present(raw, sellout.PresentOptions{
		LabelColumns: []string{"Dealer, Name"},
		TotalsLabels: []string{"Total"},
	})
	rep := Assemble(pt, AssembleOptions{Totals: TotalsLast})

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, rep))
	assert.Equal(t, "Dealer Name,Value\nShop Main Road,1234.5\nTotal,1234.5\n", buf.String())
}

func TestParseLayout(t *testing.T) {
	l, err := ParseLayout("")
	require.NoError(t, err)
	assert.Equal(t, LayoutKeyed, l)

	l, err = ParseLayout("Array")
	require.NoError(t, err)
	assert.Equal(t, LayoutPositional, l)

	_, err = ParseLayout("tree")
	assert.ErrorIs(t, err, sellout.ErrInvalidParameter)
}
