package presenter

import (
	"errors"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/i474232898/labor-market-dashboard/internal/labor"
)

// ErrEmptyChart is returned when a group has no rows to plot.
var ErrEmptyChart = errors.New("no observations to plot")

// ChartFormat selects the image encoding of a rendered chart.
type ChartFormat int

const (
	SVG ChartFormat = iota
	PNG
)

// ContentType returns the MIME type of the format.
func (f ChartFormat) ContentType() string {
	if f == PNG {
		return "image/png"
	}
	return "image/svg+xml"
}

const (
	chartWidth  = 900
	chartHeight = 380
)

// RenderChart draws one line per series of g on a shared time axis.
func RenderChart(w io.Writer, g UnitGroup, cat *Catalog, format ChartFormat) error {
	if len(g.Rows) == 0 {
		return ErrEmptyChart
	}

	lo, hi := math.Inf(1), math.Inf(-1)
	series := make([]chart.Series, 0, len(g.SeriesIDs))
	for _, id := range g.SeriesIDs {
		meta := cat.Meta(id)
		ts := chart.TimeSeries{
			Name: meta.Label,
			Style: chart.Style{
				StrokeColor: hexColor(meta.Color),
				StrokeWidth: 2,
			},
		}
		for _, o := range g.Rows {
			if o.SeriesID != id {
				continue
			}
			ts.XValues = append(ts.XValues, o.Date.Time())
			ts.YValues = append(ts.YValues, o.Value)
			lo, hi = math.Min(lo, o.Value), math.Max(hi, o.Value)
		}
		if len(ts.XValues) == 1 {
			// a single point has no x range; repeat it one month later
			next := labor.MonthOf(ts.XValues[0]).AddMonths(1)
			ts.XValues = append(ts.XValues, next.Time())
			ts.YValues = append(ts.YValues, ts.YValues[0])
		}
		if len(ts.XValues) > 0 {
			series = append(series, ts)
		}
	}
	if len(series) == 0 {
		return ErrEmptyChart
	}

	yAxis := chart.YAxis{
		Name:           g.Unit.Label(),
		ValueFormatter: valueFormatter(g.Unit),
	}
	if hi-lo == 0 {
		yAxis.Range = &chart.ContinuousRange{Min: lo - 1, Max: hi + 1}
	}

	ch := chart.Chart{
		Width:      chartWidth,
		Height:     chartHeight,
		Background: chart.Style{Padding: chart.Box{Top: 20, Left: 20, Right: 20, Bottom: 20}},
		XAxis: chart.XAxis{
			ValueFormatter: chart.TimeValueFormatterWithFormat("2006-01"),
		},
		YAxis:  yAxis,
		Series: series,
	}
	ch.Elements = []chart.Renderable{chart.Legend(&ch)}

	provider := chart.SVG
	if format == PNG {
		provider = chart.PNG
	}
	if err := ch.Render(provider, w); err != nil {
		return fmt.Errorf("failed to render %s chart: %w", g.Unit, err)
	}
	return nil
}

func valueFormatter(u Unit) chart.ValueFormatter {
	switch u {
	case UnitPercent:
		return func(v interface{}) string {
			if f, ok := v.(float64); ok {
				return fmt.Sprintf("%.1f%%", f)
			}
			return ""
		}
	case UnitCount:
		return func(v interface{}) string {
			if f, ok := v.(float64); ok {
				return fmt.Sprintf("%.0f", f)
			}
			return ""
		}
	default:
		return chart.FloatValueFormatter
	}
}

func hexColor(s string) drawing.Color {
	s = strings.TrimPrefix(s, "#")
	if len(s) != 6 {
		return chart.ColorAlternateGray
	}
	return drawing.ColorFromHex(s)
}
