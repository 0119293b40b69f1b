package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/sellout/backend/internal/domain/sellout"
)

// RankColumn is the header of the rank column appended to ranked tables
const RankColumn = "Rank"

// Layout selects the JSON shape of report rows
type Layout string

const (
	// LayoutKeyed emits each row as an object keyed by column name
	LayoutKeyed Layout = "keyed"
	// LayoutPositional emits each row as an array aligned to columns
	LayoutPositional Layout = "positional"
)

// ParseLayout accepts "keyed" or "positional"; empty yields keyed
func ParseLayout(s string) (Layout, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "keyed", "object":
		return LayoutKeyed, nil
	case "positional", "array":
		return LayoutPositional, nil
	default:
		return "", sellout.ErrInvalidParameter.WithMessage("layout must be one of: keyed, positional")
	}
}

// TotalsPosition places the totals row relative to the data rows
type TotalsPosition int

const (
	TotalsNone TotalsPosition = iota
	TotalsFirst
	TotalsLast
)

// AssembleOptions controls report assembly
type AssembleOptions struct {
	Layout Layout
	Totals TotalsPosition
	// Page and Limit paginate data rows; Limit <= 0 disables pagination
	Page  int
	Limit int
}

// Row is one output row. It marshals as an object whose keys follow the
// declared column order, or as a positional array.
type Row struct {
	columns []string
	values  []any
	layout  Layout
	total   bool
}

// Values returns the row's cells in column order
func (r Row) Values() []any {
	return r.values
}

// IsTotal reports whether this is the totals row
func (r Row) IsTotal() bool {
	return r.total
}

// Strings renders every cell as text
func (r Row) Strings() []string {
	out := make([]string, len(r.values))
	for i, v := range r.values {
		out[i] = cellText(v)
	}
	return out
}

// MarshalJSON implements json.Marshaler
func (r Row) MarshalJSON() ([]byte, error) {
	if r.layout == LayoutPositional {
		return json.Marshal(r.values)
	}

	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, col := range r.columns {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(col)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(r.values[i])
		if err != nil {
			return nil, fmt.Errorf("column %s: %w", col, err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Report is the assembled output of one table
type Report struct {
	Columns      []string `json:"columns"`
	Data         []Row    `json:"data"`
	TotalRecords int      `json:"totalRecords"`
	Page         int      `json:"page,omitempty"`
	Limit        int      `json:"limit,omitempty"`
	Empty        bool     `json:"empty"`
}

// Assemble lays out a presentation table. Pagination slices data rows only;
// the totals row always reflects the whole table.
func Assemble(pt sellout.PresentationTable, opts AssembleOptions) Report {
	if opts.Layout == "" {
		opts.Layout = LayoutKeyed
	}

	columns := make([]string, 0, len(pt.LabelColumns)+len(pt.Columns)+1)
	columns = append(columns, pt.LabelColumns...)
	columns = append(columns, pt.Columns...)
	if pt.Ranked {
		columns = append(columns, RankColumn)
	}

	rep := Report{
		Columns:      columns,
		TotalRecords: len(pt.Rows),
		Empty:        len(pt.Rows) == 0,
	}

	rows := pt.Rows
	if opts.Limit > 0 {
		page := opts.Page
		if page < 1 {
			page = 1
		}
		rep.Page, rep.Limit = page, opts.Limit
		rows = paginate(rows, page, opts.Limit)
	}

	build := func(pr sellout.PresentationRow) Row {
		values := make([]any, 0, len(columns))
		for i := range pt.LabelColumns {
			label := ""
			if i < len(pr.Labels) {
				label = pr.Labels[i]
			}
			values = append(values, label)
		}
		for _, c := range pr.Cells {
			values = append(values, c)
		}
		if pt.Ranked {
			values = append(values, pr.Rank)
		}
		return Row{columns: columns, values: values, layout: opts.Layout, total: pr.Total}
	}

	rep.Data = make([]Row, 0, len(rows)+1)
	if pt.Totals != nil && opts.Totals == TotalsFirst {
		rep.Data = append(rep.Data, build(*pt.Totals))
	}
	for _, r := range rows {
		rep.Data = append(rep.Data, build(r))
	}
	if pt.Totals != nil && opts.Totals == TotalsLast {
		rep.Data = append(rep.Data, build(*pt.Totals))
	}
	return rep
}

func paginate(rows []sellout.PresentationRow, page, limit int) []sellout.PresentationRow {
	offset := (page - 1) * limit
	if offset >= len(rows) {
		return nil
	}
	end := offset + limit
	if end > len(rows) {
		end = len(rows)
	}
	return rows[offset:end]
}

// WriteCSV writes a header line and one line per row. Embedded commas are
// removed from every cell and nothing is quoted.
func WriteCSV(w io.Writer, rep Report) error {
	if err := writeCSVLine(w, rep.Columns); err != nil {
		return err
	}
	for _, row := range rep.Data {
		if err := writeCSVLine(w, row.Strings()); err != nil {
			return err
		}
	}
	return nil
}

func writeCSVLine(w io.Writer, cells []string) error {
	clean := make([]string, len(cells))
	for i, c := range cells {
		clean[i] = strings.ReplaceAll(c, ",", "")
	}
	_, err := io.WriteString(w, strings.Join(clean, ",")+"\n")
	return err
}

func cellText(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case sellout.Cell:
		return x.String()
	case int:
		return strconv.Itoa(x)
	case fmt.Stringer:
		return x.String()
	default:
		return fmt.Sprint(x)
	}
}
