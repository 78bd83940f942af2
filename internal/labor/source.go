package labor

import (
	"context"
)

// FetchRequest selects the series and inclusive year range to retrieve upstream.
type FetchRequest struct {
	SeriesIDs []string
	StartYear int
	EndYear   int
}

// FetchResult carries either observations or an explicit "no data" marker.
// NoData is non-empty when the upstream answered successfully at the transport
// level but with unusable content; Observations is then empty.
type FetchResult struct {
	Observations []Observation
	NoData       string
}

// Empty reports whether the result carries no observations, for any reason.
func (r FetchResult) Empty() bool { return len(r.Observations) == 0 }

// NoDataResult returns a result marked with the given reason.
func NoDataResult(reason string) FetchResult { return FetchResult{NoData: reason} }

// Source abstracts the upstream statistics API.
// Transport failures are returned as *TransportError; content anomalies are
// reported through FetchResult.NoData with a nil error.
type Source interface {
	Name() string
	Fetch(ctx context.Context, req FetchRequest) (FetchResult, error)
}

// Store is the contract for persisted datasets.
// Load must return an error wrapping fs.ErrNotExist when no dataset exists yet.
type Store interface {
	Load(ctx context.Context) (Dataset, error)
	Save(ctx context.Context, ds Dataset) error
}
