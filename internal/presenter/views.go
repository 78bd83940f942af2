package presenter

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/i474232898/labor-market-dashboard/internal/labor"
)

// LatestPerSeries selects, for each series present, the observation with the
// latest date. Ties resolve to the last one in (series, date) sort order.
func LatestPerSeries(ds labor.Dataset) map[string]labor.Observation {
	sorted := ds.Clone()
	sorted.Sort()

	latest := make(map[string]labor.Observation)
	for _, o := range sorted {
		if cur, ok := latest[o.SeriesID]; !ok || !o.Date.Before(cur.Date) {
			latest[o.SeriesID] = o
		}
	}
	return latest
}

// Indicator is the latest value of a series with its month-over-month change.
type Indicator struct {
	Series    SeriesMeta         `json:"series"`
	Latest    labor.Observation  `json:"latest"`
	Previous  *labor.Observation `json:"previous,omitempty"`
	Change    decimal.Decimal    `json:"change"`
	HasChange bool               `json:"hasChange"`
}

// Indicators returns one Indicator per series in ds, in catalog order; series
// missing from the catalog come last, sorted by id.
func Indicators(ds labor.Dataset, cat *Catalog) []Indicator {
	latest := LatestPerSeries(ds)

	prevByID := make(map[string]labor.Observation)
	for _, o := range ds {
		l := latest[o.SeriesID]
		if o.Date == l.Date.AddMonths(-1) {
			prevByID[o.SeriesID] = o
		}
	}

	ids := make([]string, 0, len(latest))
	for id := range latest {
		ids = append(ids, id)
	}
	sortByCatalog(ids, cat)

	out := make([]Indicator, 0, len(ids))
	for _, id := range ids {
		ind := Indicator{Series: cat.Meta(id), Latest: latest[id]}
		if prev, ok := prevByID[id]; ok {
			ind.Previous = &prev
			ind.Change = decimal.NewFromFloat(ind.Latest.Value).Sub(decimal.NewFromFloat(prev.Value))
			ind.HasChange = true
		}
		out = append(out, ind)
	}
	return out
}

// WindowedView keeps the rows of the requested series whose date is no earlier
// than monthsBack months before the latest date among those rows.
// An empty ids list yields an empty view.
func WindowedView(ds labor.Dataset, ids []string, monthsBack int) labor.Dataset {
	if len(ids) == 0 {
		return labor.Dataset{}
	}
	if monthsBack < 0 {
		monthsBack = 0
	}

	filtered := ds.Filter(ids)
	if len(filtered) == 0 {
		return labor.Dataset{}
	}
	cutoff := filtered.LastDate().AddMonths(-monthsBack)

	out := labor.Dataset{}
	for _, o := range filtered {
		if !o.Date.Before(cutoff) {
			out = append(out, o)
		}
	}
	out.Sort()
	return out
}

// Cutoff returns the first month kept by WindowedView for the same arguments,
// or the zero Month when the view is empty.
func Cutoff(ds labor.Dataset, ids []string, monthsBack int) labor.Month {
	if len(ids) == 0 {
		return labor.Month{}
	}
	filtered := ds.Filter(ids)
	if len(filtered) == 0 {
		return labor.Month{}
	}
	if monthsBack < 0 {
		monthsBack = 0
	}
	return filtered.LastDate().AddMonths(-monthsBack)
}

// UnitGroup is the set of rows of series sharing one unit.
type UnitGroup struct {
	Unit      Unit          `json:"unit"`
	SeriesIDs []string      `json:"seriesIds"`
	Rows      labor.Dataset `json:"rows"`
}

// GroupByUnit partitions the rows of the requested series by unit group, so that
// series with incompatible scales are never plotted on a shared axis.
// Groups follow catalog order; series unknown to the catalog fall in UnitOther.
func GroupByUnit(rows labor.Dataset, ids []string, cat *Catalog) []UnitGroup {
	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}

	groups := make(map[Unit]*UnitGroup)
	seen := make(map[string]bool)
	for _, o := range rows {
		if !want[o.SeriesID] {
			continue
		}
		u := cat.UnitOf(o.SeriesID)
		g, ok := groups[u]
		if !ok {
			g = &UnitGroup{Unit: u}
			groups[u] = g
		}
		if !seen[o.SeriesID] {
			seen[o.SeriesID] = true
			g.SeriesIDs = append(g.SeriesIDs, o.SeriesID)
		}
		g.Rows = append(g.Rows, o)
	}

	out := make([]UnitGroup, 0, len(groups))
	for _, g := range groups {
		sortByCatalog(g.SeriesIDs, cat)
		g.Rows.Sort()
		out = append(out, *g)
	}
	sort.Slice(out, func(i, j int) bool {
		return unitOrder(out[i].Unit, cat) < unitOrder(out[j].Unit, cat)
	})
	return out
}

// unitOrder ranks a unit by the catalog position of its first series.
func unitOrder(u Unit, cat *Catalog) int {
	if u == UnitOther {
		return len(cat.series) + 1
	}
	for i, m := range cat.series {
		if m.Unit == u {
			return i
		}
	}
	return len(cat.series)
}

func sortByCatalog(ids []string, cat *Catalog) {
	sort.SliceStable(ids, func(i, j int) bool {
		oi, oj := cat.order(ids[i]), cat.order(ids[j])
		if oi != oj {
			return oi < oj
		}
		return ids[i] < ids[j]
	})
}

// Table is a wide view of rows: one line per month, one column per series.
type Table struct {
	SeriesIDs []string      `json:"seriesIds"`
	Columns   []string      `json:"columns"`
	Dates     []labor.Month `json:"dates"`
	Values    [][]*float64  `json:"values"` // Values[date][column], nil when missing
}

// Pivot turns long rows into a Table with series columns in catalog order.
func Pivot(rows labor.Dataset, cat *Catalog) Table {
	col := make(map[string]int)
	var ids []string
	for _, o := range rows {
		if _, ok := col[o.SeriesID]; !ok {
			col[o.SeriesID] = 0
			ids = append(ids, o.SeriesID)
		}
	}
	sortByCatalog(ids, cat)

	t := Table{SeriesIDs: ids, Columns: make([]string, len(ids))}
	for i, id := range ids {
		col[id] = i
		t.Columns[i] = cat.Label(id)
	}

	row := make(map[labor.Month]int)
	for _, o := range rows {
		if _, ok := row[o.Date]; !ok {
			row[o.Date] = 0
			t.Dates = append(t.Dates, o.Date)
		}
	}
	sort.Slice(t.Dates, func(i, j int) bool { return t.Dates[i].Before(t.Dates[j]) })

	t.Values = make([][]*float64, len(t.Dates))
	for i, d := range t.Dates {
		row[d] = i
		t.Values[i] = make([]*float64, len(ids))
	}
	for _, o := range rows {
		v := o.Value
		t.Values[row[o.Date]][col[o.SeriesID]] = &v
	}
	return t
}
