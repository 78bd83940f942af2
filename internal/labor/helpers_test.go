package labor

import (
	"context"
	"fmt"
	"io/fs"
)

// fakeSource replays a canned result and counts calls.
type fakeSource struct {
	result   FetchResult
	err      error
	calls    int
	requests []FetchRequest
}

func (f *fakeSource) Name() string { return "fake" }

func (f *fakeSource) Fetch(_ context.Context, req FetchRequest) (FetchResult, error) {
	f.calls++
	f.requests = append(f.requests, req)
	return f.result, f.err
}

// fakeStore keeps a dataset in memory; a nil dataset means "not persisted yet".
type fakeStore struct {
	ds      Dataset
	saves   int
	saveErr error
}

func (f *fakeStore) Load(context.Context) (Dataset, error) {
	if f.ds == nil {
		return nil, fmt.Errorf("load dataset: %w", fs.ErrNotExist)
	}
	return f.ds.Clone(), nil
}

func (f *fakeStore) Save(_ context.Context, ds Dataset) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.saves++
	f.ds = ds.Clone()
	return nil
}

func obs(series, month string, v float64) Observation {
	return Observation{SeriesID: series, Date: MustParseMonth(month), Value: v}
}
