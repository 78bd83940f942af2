package labor

import (
	"context"
	"fmt"
	"log"
	"time"
)

// Merge concatenates the datasets, removes duplicate (series, month) pairs and
// sorts the result. When a key is duplicated the first occurrence survives.
// The inputs are not modified.
func Merge(sets ...Dataset) Dataset {
	n := 0
	for _, s := range sets {
		n += len(s)
	}

	seen := make(map[key]struct{}, n)
	out := make(Dataset, 0, n)
	for _, s := range sets {
		for _, o := range s {
			k := o.key()
			if _, dup := seen[k]; dup {
				continue
			}
			seen[k] = struct{}{}
			out = append(out, o)
		}
	}
	out.Sort()
	return out
}

// Bootstrap fetches all requested series over the inclusive year range and
// returns them as a sorted, deduplicated dataset.
//
// A soft "no data" answer from the source yields an empty dataset and a nil error;
// callers persisting a baseline must check for emptiness themselves.
func Bootstrap(ctx context.Context, src Source, seriesIDs []string, startYear, endYear int) (Dataset, error) {
	if startYear > endYear {
		return nil, fmt.Errorf("invalid year range %d-%d", startYear, endYear)
	}

	res, err := src.Fetch(ctx, FetchRequest{
		SeriesIDs: seriesIDs,
		StartYear: startYear,
		EndYear:   endYear,
	})
	if err != nil {
		return nil, err
	}
	if res.NoData != "" {
		log.Printf("WARN: %s returned no data for bootstrap %d-%d: %s", src.Name(), startYear, endYear, res.NoData)
	}
	return Merge(res.Observations), nil
}

// IncrementalUpdate fetches observations newer than the last month of existing
// and merges them in. It returns the merged dataset and the number of rows added.
//
// When nothing new is available, existing is returned unchanged with 0 added.
// An empty existing dataset fails with ErrMissingBaseline before any fetch.
func IncrementalUpdate(ctx context.Context, src Source, seriesIDs []string, existing Dataset, now time.Time) (Dataset, int, error) {
	if len(existing) == 0 {
		return nil, 0, ErrMissingBaseline
	}

	lastDate := existing.LastDate()
	startYear, endYear := lastDate.Year(), now.Year()
	if endYear < startYear {
		endYear = startYear
	}

	res, err := src.Fetch(ctx, FetchRequest{
		SeriesIDs: seriesIDs,
		StartYear: startYear,
		EndYear:   endYear,
	})
	if err != nil {
		return nil, 0, err
	}
	if res.NoData != "" {
		log.Printf("WARN: %s returned no data for %d-%d: %s", src.Name(), startYear, endYear, res.NoData)
		return existing, 0, nil
	}

	var fresh Dataset
	for _, o := range res.Observations {
		if o.Date.After(lastDate) {
			fresh = append(fresh, o)
		}
	}
	if len(fresh) == 0 {
		return existing, 0, nil
	}

	merged := Merge(existing, fresh)
	return merged, len(merged) - len(Merge(existing)), nil
}
