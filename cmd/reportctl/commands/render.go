package commands

import (
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/sellout/backend/internal/application/report"
)

const dateLayout = "2006-01-02"

func renderTable(w io.Writer, result *report.Result) {
	writeTable(w, result.Type, result.Report)
	if result.Summary != nil {
		fmt.Fprintln(w)
		writeTable(w, result.Type+" summary", *result.Summary)
	}

	cur, cmp := result.Windows.Current, result.Windows.Comparison
	fmt.Fprintf(w, "Window %s to %s, compared with %s to %s\n",
		cur.Start.Format(dateLayout), cur.End.Format(dateLayout),
		cmp.Start.Format(dateLayout), cmp.End.Format(dateLayout),
	)

	d := result.Diagnostics
	fmt.Fprintf(w, "%s of %s records normalized", humanize.Comma(int64(d.Normalized)), humanize.Comma(int64(d.Records)))
	if !d.Clean() {
		fmt.Fprintf(w, "; %d unresolved references, %d malformed numerics, %d unclassifiable prices, %d dropped",
			d.UnresolvedReferences, d.MalformedNumerics, d.UnclassifiablePrices, d.Dropped)
	}
	fmt.Fprintln(w)
}

// writeTable renders rows with the totals row as the footer
func writeTable(w io.Writer, title string, rep report.Report) {
	if rep.Empty {
		fmt.Fprintf(w, "%s: no data\n", title)
		return
	}

	tbl := table.NewWriter()
	tbl.SetOutputMirror(w)
	tbl.SetStyle(table.StyleLight)
	tbl.SetTitle(title)

	header := make(table.Row, len(rep.Columns))
	for i, col := range rep.Columns {
		header[i] = col
	}
	tbl.AppendHeader(header)

	for _, row := range rep.Data {
		cells := row.Strings()
		r := make(table.Row, len(cells))
		for i, c := range cells {
			r[i] = c
		}
		if row.IsTotal() {
			tbl.AppendFooter(r)
			continue
		}
		tbl.AppendRow(r)
	}

	if rep.Limit > 0 {
		tbl.SetCaption("Page %d, %s rows in total", rep.Page, humanize.Comma(int64(rep.TotalRecords)))
	}
	tbl.Render()
}
