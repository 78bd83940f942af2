package store

import (
	"context"
	"fmt"
	"io/fs"
	"sync"

	"github.com/i474232898/labor-market-dashboard/internal/labor"
)

var (
	// ErrNotFound is returned when no dataset has been persisted yet.
	ErrNotFound = fmt.Errorf("no dataset: %w", fs.ErrNotExist)
)

// MemoryStore is a concurrency-safe in-memory dataset store.
// The dashboard reads from it while the scheduler replaces its content.
type MemoryStore struct {
	mu sync.RWMutex

	data    labor.Dataset
	present bool
	version int
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Load returns a copy of the current dataset.
func (s *MemoryStore) Load(_ context.Context) (labor.Dataset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.present {
		return nil, ErrNotFound
	}
	return s.data.Clone(), nil
}

// Save replaces the dataset with a sorted copy of ds.
func (s *MemoryStore) Save(_ context.Context, ds labor.Dataset) error {
	data := ds.Clone()
	if data == nil {
		data = labor.Dataset{}
	}
	data.Sort()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.data = data
	s.present = true
	s.version++
	return nil
}

// Snapshot returns the current dataset without copying, and its version.
// Callers must not modify the returned slice.
func (s *MemoryStore) Snapshot() (labor.Dataset, int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data, s.version
}
