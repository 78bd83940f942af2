package httpapi

import (
	"bytes"
	_ "embed"
	"html/template"
	"log"
	"net/url"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/labor-market-dashboard/internal/presenter"
)

//go:embed dashboard.html
var dashboardHTML string

var dashboardTmpl = template.Must(template.New("dashboard").Funcs(template.FuncMap{
	"value":  presenter.FormatValue,
	"change": presenter.FormatChange,
}).Parse(dashboardHTML))

const (
	sliderMin = 12
	sliderMax = 120
)

type seriesOption struct {
	Meta     presenter.SeriesMeta
	Checked  bool
	Describe template.HTML
}

type chartLink struct {
	Unit presenter.Unit
	URL  string
}

type dashboardView struct {
	Empty      bool
	LatestDate string
	Indicators []presenter.Indicator
	Options    []seriesOption
	Months     int
	SliderMin  int
	SliderMax  int
	Charts     []chartLink
	NoneChosen bool
}

// dashboard renders the HTML page. Unlike the JSON endpoints it never fails on bad
// input: an out-of-range window is clamped and unknown series are ignored.
func (h *handler) dashboard(c *fiber.Ctx) error {
	ds, err := h.load(c)
	if err != nil {
		return err
	}

	view := dashboardView{
		Empty:     len(ds) == 0,
		Months:    defaultMonths,
		SliderMin: sliderMin,
		SliderMax: sliderMax,
	}
	if n, err := strconv.Atoi(c.Query("months")); err == nil {
		view.Months = min(max(n, sliderMin), sliderMax)
	}

	var selected []string
	for _, id := range selectedSeries(c) {
		if _, ok := h.cat.Lookup(id); ok {
			selected = append(selected, id)
		}
	}
	// a submitted form with every box unchecked is an explicit empty selection
	if len(selected) == 0 && c.Query("submitted") == "" {
		selected = defaultSelection
	}
	view.NoneChosen = len(selected) == 0

	chosen := make(map[string]bool, len(selected))
	for _, id := range selected {
		chosen[id] = true
	}
	for _, m := range h.cat.Series() {
		view.Options = append(view.Options, seriesOption{Meta: m, Checked: chosen[m.ID], Describe: m.DescriptionHTML()})
	}

	if !view.Empty {
		view.LatestDate = ds.LastDate().Time().Format("January 2006")
		view.Indicators = presenter.Indicators(ds, h.cat)

		rows := presenter.WindowedView(ds, selected, view.Months)
		for _, g := range presenter.GroupByUnit(rows, selected, h.cat) {
			view.Charts = append(view.Charts, chartLink{Unit: g.Unit, URL: chartURL(g, view.Months)})
		}
	}

	var buf bytes.Buffer
	if err := dashboardTmpl.Execute(&buf, view); err != nil {
		log.Printf("ERROR: render dashboard: %v", err)
		return fiber.NewError(fiber.StatusInternalServerError, "failed to render dashboard")
	}
	c.Type("html", "utf-8")
	return c.Send(buf.Bytes())
}

func chartURL(g presenter.UnitGroup, months int) string {
	q := url.Values{}
	for _, id := range g.SeriesIDs {
		q.Add("series", id)
	}
	q.Set("months", strconv.Itoa(months))
	return "/api/v1/charts/" + url.PathEscape(string(g.Unit)) + ".svg?" + q.Encode()
}
