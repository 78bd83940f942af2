package presenter

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// ReportFormat controls how a report is rendered for a terminal.
type ReportFormat string

const (
	ReportASCII    ReportFormat = "ascii"
	ReportMarkdown ReportFormat = "markdown"
	// ReportPretty renders the markdown report through a styled terminal renderer.
	ReportPretty ReportFormat = "pretty"
)

// ParseReportFormat validates a format name.
func ParseReportFormat(s string) (ReportFormat, error) {
	switch f := ReportFormat(strings.ToLower(strings.TrimSpace(s))); f {
	case ReportASCII, ReportMarkdown, ReportPretty:
		return f, nil
	case "":
		return ReportASCII, nil
	default:
		return "", fmt.Errorf("unknown report format %q (want ascii, markdown or pretty)", s)
	}
}

// IndicatorTable renders the latest-value indicators as a table.
func IndicatorTable(inds []Indicator, format ReportFormat) (string, error) {
	tw := table.NewWriter()
	tw.AppendHeader(table.Row{"Series", "Indicator", "Month", "Value", "Change"})
	for _, ind := range inds {
		tw.AppendRow(table.Row{
			ind.Series.ID,
			ind.Series.Label,
			ind.Latest.Date.Time().Format("Jan 2006"),
			FormatValue(ind.Latest.Value, ind.Series.Unit),
			FormatChange(ind),
		})
	}
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 4, Align: text.AlignRight},
		{Number: 5, Align: text.AlignRight},
	})

	switch format {
	case ReportMarkdown:
		return tw.RenderMarkdown(), nil
	case ReportPretty:
		return renderMarkdown("## Latest labor market indicators\n\n" + tw.RenderMarkdown())
	default:
		tw.SetStyle(table.StyleLight)
		return tw.Render(), nil
	}
}

// PivotTable renders a wide table of the last n months of t (all when n <= 0).
func PivotTable(t Table, n int, format ReportFormat) (string, error) {
	tw := table.NewWriter()
	head := table.Row{"Month"}
	for _, c := range t.Columns {
		head = append(head, c)
	}
	tw.AppendHeader(head)

	start := 0
	if n > 0 && len(t.Dates) > n {
		start = len(t.Dates) - n
	}
	for i := start; i < len(t.Dates); i++ {
		row := table.Row{t.Dates[i].Time().Format("2006-01")}
		for _, v := range t.Values[i] {
			if v == nil {
				row = append(row, "")
				continue
			}
			row = append(row, fmt.Sprintf("%g", *v))
		}
		tw.AppendRow(row)
	}

	switch format {
	case ReportMarkdown:
		return tw.RenderMarkdown(), nil
	case ReportPretty:
		return renderMarkdown(tw.RenderMarkdown())
	default:
		tw.SetStyle(table.StyleLight)
		return tw.Render(), nil
	}
}

// renderer options are swapped in tests to get deterministic output.
var rendererOptions = []glamour.TermRendererOption{
	glamour.WithAutoStyle(),
	glamour.WithWordWrap(120),
}

func renderMarkdown(md string) (string, error) {
	r, err := glamour.NewTermRenderer(rendererOptions...)
	if err != nil {
		return "", fmt.Errorf("failed to create markdown renderer: %w", err)
	}
	out, err := r.Render(md)
	if err != nil {
		return "", fmt.Errorf("failed to render markdown: %w", err)
	}
	return out, nil
}

func decimals(u Unit) int32 {
	if u == UnitPercent {
		return 1
	}
	return 0
}

// FormatChange renders the month-over-month change with an explicit sign, or "n/a".
func FormatChange(ind Indicator) string {
	if !ind.HasChange {
		return "n/a"
	}
	return signed(ind.Change.StringFixed(decimals(ind.Series.Unit)))
}

// FormatValue renders v in the notation of its unit.
func FormatValue(v float64, u Unit) string {
	switch u {
	case UnitPercent:
		return fmt.Sprintf("%.1f%%", v)
	case UnitCount:
		return fmt.Sprintf("%.0f", v)
	default:
		return fmt.Sprintf("%g", v)
	}
}

func signed(s string) string {
	if strings.HasPrefix(s, "-") || strings.Trim(s, "0.") == "" {
		return s
	}
	return "+" + s
}
