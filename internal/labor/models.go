package labor

import (
	"sort"
)

// Series identifiers tracked by the dashboard.
const (
	SeriesNonfarmEmployment = "CES0000000001"         // Total nonfarm employment, thousands
	SeriesUnemploymentRate  = "LNS14000000"           // Unemployment rate, percent
	SeriesParticipationRate = "LNS11300000"           // Labor force participation rate, percent
	SeriesJobOpenings       = "JTS000000000000000JOL" // Job openings, total nonfarm, thousands
)

// DefaultSeries is the fixed set of series fetched by bootstrap and incremental updates.
var DefaultSeries = []string{
	SeriesNonfarmEmployment,
	SeriesUnemploymentRate,
	SeriesParticipationRate,
	SeriesJobOpenings,
}

// Observation is one (series, month, value) data point.
type Observation struct {
	SeriesID string  `json:"seriesId"`
	Date     Month   `json:"date"`
	Value    float64 `json:"value"`
}

// key identifies the observation slot; a dataset holds at most one observation per key.
type key struct {
	seriesID string
	date     Month
}

func (o Observation) key() key { return key{o.SeriesID, o.Date} }

// less orders observations by series id, then date.
func less(a, b Observation) bool {
	if a.SeriesID != b.SeriesID {
		return a.SeriesID < b.SeriesID
	}
	return a.Date.Before(b.Date)
}

// Dataset is the full collection of observations.
// After a merge it is sorted by (SeriesID, Date) with no duplicate keys.
type Dataset []Observation

// Sort sorts d in place by (SeriesID, Date). The sort is stable.
func (d Dataset) Sort() {
	sort.SliceStable(d, func(i, j int) bool { return less(d[i], d[j]) })
}

// IsSorted reports whether d is sorted by (SeriesID, Date).
func (d Dataset) IsSorted() bool {
	return sort.SliceIsSorted(d, func(i, j int) bool { return less(d[i], d[j]) })
}

// LastDate returns the maximum date across all observations, or the zero Month when d is empty.
func (d Dataset) LastDate() Month {
	var last Month
	for _, o := range d {
		if o.Date.After(last) {
			last = o.Date
		}
	}
	return last
}

// SeriesIDs returns the distinct series ids present in d, sorted.
func (d Dataset) SeriesIDs() []string {
	seen := make(map[string]struct{})
	var ids []string
	for _, o := range d {
		if _, ok := seen[o.SeriesID]; ok {
			continue
		}
		seen[o.SeriesID] = struct{}{}
		ids = append(ids, o.SeriesID)
	}
	sort.Strings(ids)
	return ids
}

// Filter returns the observations whose series id is in ids, preserving order.
func (d Dataset) Filter(ids []string) Dataset {
	want := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		want[id] = struct{}{}
	}
	var out Dataset
	for _, o := range d {
		if _, ok := want[o.SeriesID]; ok {
			out = append(out, o)
		}
	}
	return out
}

// Clone returns a copy of d that shares no backing array with it.
func (d Dataset) Clone() Dataset {
	if d == nil {
		return nil
	}
	out := make(Dataset, len(d))
	copy(out, d)
	return out
}
