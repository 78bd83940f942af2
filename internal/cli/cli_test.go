package cli

import (
	"bytes"
	"context"
	"flag"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/subcommands"

	"github.com/i474232898/labor-market-dashboard/internal/config"
	"github.com/i474232898/labor-market-dashboard/internal/labor"
	"github.com/i474232898/labor-market-dashboard/internal/store"
)

type fakeSource struct {
	result labor.FetchResult
	err    error
	calls  int
}

func (f *fakeSource) Name() string { return "fake" }

func (f *fakeSource) Fetch(context.Context, labor.FetchRequest) (labor.FetchResult, error) {
	f.calls++
	return f.result, f.err
}

type harness struct {
	app    *App
	src    *fakeSource
	stdout bytes.Buffer
	stderr bytes.Buffer
	path   string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{src: &fakeSource{}, path: filepath.Join(t.TempDir(), "data.csv")}
	h.app = &App{
		Config: &config.AppConfig{
			Series:             []string{"A"},
			DataPath:           h.path,
			BootstrapStartYear: 2015,
		},
		OpenSource: func(*config.AppConfig) (labor.Source, func(), error) {
			return h.src, func() {}, nil
		},
		Stdout: &h.stdout,
		Stderr: &h.stderr,
		Now:    func() time.Time { return time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC) },
	}
	return h
}

func (h *harness) run(t *testing.T, args ...string) subcommands.ExitStatus {
	t.Helper()
	h.stdout.Reset()
	h.stderr.Reset()

	fs := flag.NewFlagSet("labordata", flag.ContinueOnError)
	cmdr := subcommands.NewCommander(fs, "labordata")
	Register(cmdr, h.app)
	if err := fs.Parse(args); err != nil {
		t.Fatalf("parse %v: %v", args, err)
	}
	return cmdr.Execute(context.Background())
}

func obs(month string, v float64) labor.Observation {
	return labor.Observation{SeriesID: "A", Date: labor.MustParseMonth(month), Value: v}
}

func TestBootstrap(t *testing.T) {
	h := newHarness(t)
	h.src.result = labor.FetchResult{Observations: []labor.Observation{obs("2024-01-01", 1), obs("2023-12-01", 2)}}

	if got := h.run(t, "bootstrap", "-start", "2023"); got != subcommands.ExitSuccess {
		t.Fatalf("bootstrap exit = %v, stderr: %s", got, h.stderr.String())
	}
	if want := "Data saved to " + h.path + " (2 rows)"; !strings.Contains(h.stdout.String(), want) {
		t.Errorf("stdout = %q, want %q", h.stdout.String(), want)
	}

	ds, err := store.NewFileStore(h.path).Load(context.Background())
	if err != nil || len(ds) != 2 || !ds.IsSorted() {
		t.Fatalf("persisted dataset = %v, err = %v", ds, err)
	}
}

func TestBootstrapFailureWritesNothing(t *testing.T) {
	h := newHarness(t)
	h.src.err = &labor.TransportError{StatusCode: 500, Err: context.DeadlineExceeded}

	if got := h.run(t, "bootstrap"); got != subcommands.ExitFailure {
		t.Fatalf("bootstrap exit = %v, want failure", got)
	}
	if !strings.Contains(h.stderr.String(), "Bootstrap failed") {
		t.Errorf("stderr = %q", h.stderr.String())
	}
	if _, err := store.NewFileStore(h.path).Load(context.Background()); err == nil {
		t.Error("a failed bootstrap must not write a dataset")
	}
}

func TestUpdate(t *testing.T) {
	h := newHarness(t)

	if got := h.run(t, "update"); got != subcommands.ExitFailure {
		t.Fatalf("update without baseline exit = %v, want failure", got)
	}
	if !strings.Contains(h.stderr.String(), "run bootstrap first") {
		t.Errorf("stderr = %q", h.stderr.String())
	}
	if h.src.calls != 0 {
		t.Errorf("update without baseline fetched %d times", h.src.calls)
	}

	if err := store.NewFileStore(h.path).Save(context.Background(), labor.Dataset{obs("2024-01-01", 1)}); err != nil {
		t.Fatal(err)
	}

	h.src.result = labor.FetchResult{Observations: []labor.Observation{obs("2024-01-01", 9), obs("2024-02-01", 2)}}
	if got := h.run(t, "update"); got != subcommands.ExitSuccess {
		t.Fatalf("update exit = %v, stderr: %s", got, h.stderr.String())
	}
	if !strings.Contains(h.stdout.String(), "Fetched 1 new rows") {
		t.Errorf("stdout = %q", h.stdout.String())
	}

	if got := h.run(t, "update"); got != subcommands.ExitSuccess {
		t.Fatalf("second update exit = %v", got)
	}
	if !strings.Contains(h.stdout.String(), "No new data available") {
		t.Errorf("stdout = %q", h.stdout.String())
	}
}

func TestLatest(t *testing.T) {
	h := newHarness(t)
	if err := store.NewFileStore(h.path).Save(context.Background(), labor.Dataset{obs("2024-01-01", 1), obs("2024-02-01", 3)}); err != nil {
		t.Fatal(err)
	}

	if got := h.run(t, "latest", "-format", "markdown", "-months", "2"); got != subcommands.ExitSuccess {
		t.Fatalf("latest exit = %v, stderr: %s", got, h.stderr.String())
	}
	for _, want := range []string{"| A ", "Feb 2024", "2024-01"} {
		if !strings.Contains(h.stdout.String(), want) {
			t.Errorf("stdout lacks %q:\n%s", want, h.stdout.String())
		}
	}

	if got := h.run(t, "latest", "-format", "html"); got != subcommands.ExitUsageError {
		t.Errorf("latest with bad format exit = %v, want usage error", got)
	}
}
