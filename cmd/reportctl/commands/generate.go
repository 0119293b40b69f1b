package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/sellout/backend/internal/application/report"
)

// Output formats accepted by generate
const (
	FormatTable = "table"
	FormatCSV   = "csv"
	FormatJSON  = "json"
)

type generateFlags struct {
	start       string
	end         string
	valueVolume string
	showShare   bool
	comparison  string
	role        string
	layout      string
	page        int
	limit       int
	filters     []string
	format      string
	output      string
}

// NewGenerateCommand renders one report
func NewGenerateCommand(src *SourceOptions) *cobra.Command {
	flags := &generateFlags{}

	cmd := &cobra.Command{
		Use:   "generate <type>",
		Short: "Render one report as a table, CSV or JSON",
		Example: `  reportctl generate price-band --start 2024-03-01 --end 2024-03-31
  reportctl generate role-wise --role ASM --filter brand=Samsung,Apple --format csv -o role.csv`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(cmd, src, flags, args[0])
		},
	}

	fs := cmd.Flags()
	fs.StringVar(&flags.start, "start", "", "first day of the current window (YYYY-MM-DD)")
	fs.StringVar(&flags.end, "end", "", "last day of the current window (YYYY-MM-DD)")
	fs.StringVar(&flags.valueVolume, "value-volume", "", "measure to report: value or volume")
	fs.BoolVar(&flags.showShare, "show-share", false, "render cells as percentage shares")
	fs.StringVar(&flags.comparison, "comparison", "", "comparison window: shift or calendar")
	fs.StringVar(&flags.role, "role", "", "hierarchy role for role-wise reports")
	fs.StringVar(&flags.layout, "layout", "", "JSON row layout: keyed or positional")
	fs.IntVar(&flags.page, "page", 0, "page number")
	fs.IntVar(&flags.limit, "limit", 0, "rows per page")
	fs.StringArrayVar(&flags.filters, "filter", nil, "filter as dimension=v1,v2 (repeatable)")
	fs.StringVarP(&flags.format, "format", "f", FormatTable, "output format: table, csv or json")
	fs.StringVarP(&flags.output, "output", "o", "", "write to a file instead of stdout")

	return cmd
}

func runGenerate(cmd *cobra.Command, src *SourceOptions, flags *generateFlags, reportType string) error {
	format := strings.ToLower(flags.format)
	if format != FormatTable && format != FormatCSV && format != FormatJSON {
		return fmt.Errorf("unknown format %q", flags.format)
	}

	filters, err := parseFilterFlags(flags.filters)
	if err != nil {
		return err
	}

	return src.withSource(func(s *source) error {
		req, err := report.RequestParams{
			Type:        reportType,
			StartDate:   flags.start,
			EndDate:     flags.end,
			ValueVolume: flags.valueVolume,
			ShowShare:   flags.showShare,
			Comparison:  flags.comparison,
			Role:        flags.role,
			Layout:      flags.layout,
			Page:        flags.page,
			Limit:       flags.limit,
			Filters:     filters,
		}.Parse(s.location)
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		result, err := s.service.Generate(ctx, req)
		if err != nil {
			return err
		}

		var buf bytes.Buffer
		if err := writeResult(&buf, format, result); err != nil {
			return err
		}
		return emit(cmd, flags.output, buf.Bytes(), result)
	})
}

// parseFilterFlags turns repeated dimension=v1,v2 flags into request filters
func parseFilterFlags(raw []string) (map[string][]string, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	out := make(map[string][]string, len(raw))
	for _, f := range raw {
		name, values, ok := strings.Cut(f, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid filter %q, expected dimension=value", f)
		}
		out[name] = append(out[name], values)
	}
	return out, nil
}

func writeResult(w io.Writer, format string, result *report.Result) error {
	switch format {
	case FormatCSV:
		return report.WriteCSV(w, result.Report)
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	default:
		renderTable(w, result)
		return nil
	}
}

func emit(cmd *cobra.Command, path string, body []byte, result *report.Result) error {
	if path == "" {
		_, err := cmd.OutOrStdout().Write(body)
		return err
	}
	if err := os.WriteFile(path, body, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %s (%s rows, %s)\n",
		path,
		humanize.Comma(int64(result.Report.TotalRecords)),
		humanize.Bytes(uint64(len(body))),
	)
	return nil
}
