package store

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/klauspost/compress/gzip"

	"github.com/i474232898/labor-market-dashboard/internal/labor"
)

// header is the column layout of a dataset file.
var header = []string{"series_id", "date", "value"}

// FileStore persists a dataset as a CSV file. Paths ending in ".gz" are gzip-compressed.
// Saves write a temporary file next to the target and rename it into place, so a
// reader never sees a partially written dataset. Concurrent writers are not coordinated.
type FileStore struct {
	path string
}

// NewFileStore returns a store for the dataset at path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the dataset location.
func (s *FileStore) Path() string { return s.path }

func (s *FileStore) compressed() bool { return strings.HasSuffix(s.path, ".gz") }

// Load reads the full dataset. A missing file yields an error wrapping fs.ErrNotExist.
// Rows with an unparseable date or value are skipped and logged.
func (s *FileStore) Load(_ context.Context) (labor.Dataset, error) {
	f, err := os.Open(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, s.path)
		}
		return nil, err
	}
	defer f.Close()

	var r io.Reader = f
	if s.compressed() {
		gz, err := gzip.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("failed to open gzip dataset %s: %w", s.path, err)
		}
		defer gz.Close()
		r = gz
	}

	ds, err := ReadCSV(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read dataset %s: %w", s.path, err)
	}
	return ds, nil
}

// Save writes the dataset sorted by (series_id, date).
func (s *FileStore) Save(_ context.Context, ds labor.Dataset) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name()) // no-op once renamed

	if err := tmp.Chmod(s.fileMode()); err != nil {
		tmp.Close()
		return err
	}
	if err := s.encode(tmp, ds); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write dataset %s: %w", s.path, err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), s.path)
}

// fileMode keeps the permissions of an existing dataset; new files get 0644.
func (s *FileStore) fileMode() os.FileMode {
	if fi, err := os.Stat(s.path); err == nil {
		return fi.Mode().Perm()
	}
	return 0o644
}

func (s *FileStore) encode(w io.Writer, ds labor.Dataset) error {
	if !s.compressed() {
		return WriteCSV(w, ds)
	}
	gz := gzip.NewWriter(w)
	if err := WriteCSV(gz, ds); err != nil {
		gz.Close()
		return err
	}
	return gz.Close()
}

// ReadCSV parses a dataset with a series_id,date,value header.
func ReadCSV(r io.Reader) (labor.Dataset, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	first, err := reader.Read()
	if err == io.EOF {
		return labor.Dataset{}, nil
	}
	if err != nil {
		return nil, err
	}
	cols, err := columnIndex(first)
	if err != nil {
		return nil, err
	}

	ds := labor.Dataset{}
	for line := 2; ; line++ {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if len(rec) <= cols.max {
			log.Printf("WARN: skipping dataset line %d: expected %d fields, got %d", line, cols.max+1, len(rec))
			continue
		}

		rawDate := strings.TrimSpace(rec[cols.date])
		if i := strings.IndexAny(rawDate, " T"); i > 0 {
			rawDate = rawDate[:i] // tolerate "2015-01-01 00:00:00"
		}
		date, err := labor.ParseMonth(rawDate)
		if err != nil {
			log.Printf("WARN: skipping dataset line %d: %v", line, err)
			continue
		}
		value, err := strconv.ParseFloat(strings.TrimSpace(rec[cols.value]), 64)
		if err != nil {
			log.Printf("WARN: skipping dataset line %d: invalid value %q", line, rec[cols.value])
			continue
		}
		ds = append(ds, labor.Observation{
			SeriesID: strings.TrimSpace(rec[cols.series]),
			Date:     date,
			Value:    value,
		})
	}
	return ds, nil
}

// WriteCSV serializes ds with a header row, sorted by (series_id, date).
// ds itself is not reordered.
func WriteCSV(w io.Writer, ds labor.Dataset) error {
	sorted := ds.Clone()
	sorted.Sort()

	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, o := range sorted {
		rec := []string{o.SeriesID, o.Date.String(), strconv.FormatFloat(o.Value, 'f', -1, 64)}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

type columns struct {
	series, date, value, max int
}

func columnIndex(rec []string) (columns, error) {
	c := columns{series: -1, date: -1, value: -1}
	for i, name := range rec {
		switch strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")) {
		case "series_id":
			c.series = i
		case "date":
			c.date = i
		case "value":
			c.value = i
		}
	}
	if c.series < 0 || c.date < 0 || c.value < 0 {
		return c, fmt.Errorf("dataset header %v lacks one of %v", rec, header)
	}
	c.max = max(c.series, c.date, c.value)
	return c, nil
}
