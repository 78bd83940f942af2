package store

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/i474232898/labor-market-dashboard/internal/labor"
)

func sample() labor.Dataset {
	return labor.Dataset{
		{SeriesID: "LNS14000000", Date: labor.MustParseMonth("2023-02-01"), Value: 3.6},
		{SeriesID: "CES0000000001", Date: labor.MustParseMonth("2023-01-01"), Value: 155007},
		{SeriesID: "LNS14000000", Date: labor.MustParseMonth("2023-01-01"), Value: 3.4},
	}
}

func TestFileStore_RoundTrip(t *testing.T) {
	for _, name := range []string{"bls_labor_data.csv", "bls_labor_data.csv.gz"} {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			st := NewFileStore(filepath.Join(t.TempDir(), "data", name))

			if err := st.Save(ctx, sample()); err != nil {
				t.Fatalf("Save() failed: %v", err)
			}
			got, err := st.Load(ctx)
			if err != nil {
				t.Fatalf("Load() failed: %v", err)
			}

			want := sample()
			want.Sort()
			if diff := cmp.Diff(want, got); diff != "" {
				t.Errorf("round trip mismatch (-want +got):\n%s", diff)
			}

			entries, err := os.ReadDir(filepath.Dir(st.Path()))
			if err != nil {
				t.Fatal(err)
			}
			if len(entries) != 1 {
				t.Errorf("dataset directory holds %d entries, want only the dataset", len(entries))
			}
		})
	}
}

func TestFileStore_WritesSortedCSV(t *testing.T) {
	st := NewFileStore(filepath.Join(t.TempDir(), "ds.csv"))
	if err := st.Save(context.Background(), sample()); err != nil {
		t.Fatalf("Save() failed: %v", err)
	}
	b, err := os.ReadFile(st.Path())
	if err != nil {
		t.Fatal(err)
	}
	want := "series_id,date,value\n" +
		"CES0000000001,2023-01-01,155007\n" +
		"LNS14000000,2023-01-01,3.4\n" +
		"LNS14000000,2023-02-01,3.6\n"
	if string(b) != want {
		t.Errorf("file content =\n%s\nwant\n%s", b, want)
	}
}

func TestFileStore_FileMode(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "data.csv")
	st := NewFileStore(path)

	if err := st.Save(ctx, sample()); err != nil {
		t.Fatalf("Save() failed: %v", err)
	}
	fi, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat() failed: %v", err)
	}
	if got := fi.Mode().Perm(); got != 0o644 {
		t.Errorf("new dataset mode = %v, want %v", got, os.FileMode(0o644))
	}

	if err := os.Chmod(path, 0o640); err != nil {
		t.Fatalf("Chmod() failed: %v", err)
	}
	if err := st.Save(ctx, sample()); err != nil {
		t.Fatalf("Save() failed: %v", err)
	}
	if fi, err = os.Stat(path); err != nil {
		t.Fatalf("Stat() failed: %v", err)
	}
	if got := fi.Mode().Perm(); got != 0o640 {
		t.Errorf("rewritten dataset mode = %v, want the existing %v", got, os.FileMode(0o640))
	}
}

func TestFileStore_Missing(t *testing.T) {
	st := NewFileStore(filepath.Join(t.TempDir(), "absent.csv"))
	_, err := st.Load(context.Background())
	if !errors.Is(err, fs.ErrNotExist) || !errors.Is(err, ErrNotFound) {
		t.Fatalf("Load() error = %v, want ErrNotFound wrapping fs.ErrNotExist", err)
	}
}

func TestReadCSV_SkipsMalformedRows(t *testing.T) {
	in := "series_id,date,value\n" +
		"A,2023-01-01,1.5\n" +
		"A,not-a-date,2\n" +
		"A,2023-03-01,n/a\n" +
		"A,2023-04-01 00:00:00,4\n" +
		"B\n"
	got, err := ReadCSV(strings.NewReader(in))
	if err != nil {
		t.Fatalf("ReadCSV() failed: %v", err)
	}
	want := labor.Dataset{
		{SeriesID: "A", Date: labor.MustParseMonth("2023-01"), Value: 1.5},
		{SeriesID: "A", Date: labor.MustParseMonth("2023-04"), Value: 4},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ReadCSV() mismatch (-want +got):\n%s", diff)
	}
}

func TestReadCSV_ColumnOrderAndHeader(t *testing.T) {
	got, err := ReadCSV(strings.NewReader("date,value,series_id\n2024-05-01,7,X\n"))
	if err != nil {
		t.Fatalf("ReadCSV() failed: %v", err)
	}
	if len(got) != 1 || got[0].SeriesID != "X" || got[0].Value != 7 {
		t.Errorf("ReadCSV() = %v", got)
	}

	if _, err := ReadCSV(strings.NewReader("a,b,c\n1,2,3\n")); err == nil {
		t.Errorf("ReadCSV() accepted a header without the dataset columns")
	}
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	st := NewMemoryStore()

	if _, err := st.Load(ctx); !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("Load() on empty store error = %v, want fs.ErrNotExist", err)
	}

	if err := st.Save(ctx, sample()); err != nil {
		t.Fatalf("Save() failed: %v", err)
	}
	got, err := st.Load(ctx)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if !got.IsSorted() || len(got) != 3 {
		t.Errorf("Load() = %v, want 3 sorted rows", got)
	}

	got[0].Value = -1
	again, _ := st.Load(ctx)
	if again[0].Value == -1 {
		t.Errorf("Load() returned a slice sharing state with the store")
	}

	if _, v := st.Snapshot(); v != 1 {
		t.Errorf("Snapshot() version = %d, want 1", v)
	}
}
