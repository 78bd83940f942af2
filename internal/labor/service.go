package labor

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"time"

	"github.com/google/uuid"
)

// Service orchestrates fetching from the upstream source and persisting the dataset.
// It assumes a single writer: concurrent Update calls against the same store race
// and the last writer wins.
type Service struct {
	store  Store
	source Source
	series []string
	now    func() time.Time
}

// NewService creates a new Service. A nil or empty series list selects DefaultSeries.
func NewService(store Store, source Source, series []string) *Service {
	if len(series) == 0 {
		series = DefaultSeries
	}
	return &Service{
		store:  store,
		source: source,
		series: series,
		now:    time.Now,
	}
}

// Series returns the series ids the service fetches.
func (s *Service) Series() []string { return s.series }

// UpdateResult summarizes one incremental refresh.
type UpdateResult struct {
	RunID    string
	LastDate Month // last month of the baseline before the update
	Added    int
	Total    int
	Dataset  Dataset
}

// Bootstrap fetches the full historical window and persists it as the baseline.
// Nothing is written unless the fetch succeeded and produced observations.
func (s *Service) Bootstrap(ctx context.Context, startYear, endYear int) (Dataset, error) {
	log.Printf("INFO: bootstrap requesting %d series from %s for %d-%d", len(s.series), s.source.Name(), startYear, endYear)

	ds, err := Bootstrap(ctx, s.source, s.series, startYear, endYear)
	if err != nil {
		return nil, err
	}
	if len(ds) == 0 {
		return nil, ErrEmptyBootstrap
	}

	if err := s.store.Save(ctx, ds); err != nil {
		return nil, fmt.Errorf("failed to save baseline dataset: %w", err)
	}
	log.Printf("INFO: bootstrap saved %d rows", len(ds))
	return ds, nil
}

// Update loads the baseline, merges in newer observations and persists the
// result when rows were added. The baseline is checked before any network I/O.
func (s *Service) Update(ctx context.Context) (UpdateResult, error) {
	res := UpdateResult{RunID: uuid.NewString()}

	existing, err := s.store.Load(ctx)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return res, ErrMissingBaseline
		}
		return res, fmt.Errorf("failed to load baseline dataset: %w", err)
	}
	if len(existing) == 0 {
		return res, ErrMissingBaseline
	}

	res.LastDate = existing.LastDate()
	log.Printf("INFO: run %s: last date in existing dataset: %s", res.RunID, res.LastDate)

	merged, added, err := IncrementalUpdate(ctx, s.source, s.series, existing, s.now())
	if err != nil {
		return res, err
	}
	res.Added = added
	res.Total = len(merged)
	res.Dataset = merged

	if added == 0 {
		log.Printf("INFO: run %s: no new data available; dataset is already up to date", res.RunID)
		return res, nil
	}

	if err := s.store.Save(ctx, merged); err != nil {
		return res, fmt.Errorf("failed to save updated dataset: %w", err)
	}
	log.Printf("INFO: run %s: added %d rows (%d total)", res.RunID, added, len(merged))
	return res, nil
}
