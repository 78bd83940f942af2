package httpapi

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/labor-market-dashboard/internal/labor"
	"github.com/i474232898/labor-market-dashboard/internal/presenter"
	"github.com/i474232898/labor-market-dashboard/internal/store"
)

func newTestApp(t *testing.T, ds labor.Dataset) *fiber.App {
	t.Helper()

	mem := store.NewMemoryStore()
	if ds != nil {
		if err := mem.Save(context.Background(), ds); err != nil {
			t.Fatalf("Save() unexpected error: %v", err)
		}
	}
	app := fiber.New()
	RegisterRoutes(app, mem, presenter.DefaultCatalog())
	return app
}

func sampleDataset() labor.Dataset {
	var ds labor.Dataset
	start := labor.NewMonth(2019, time.January)
	for i := 0; i < 72; i++ {
		m := start.AddMonths(i)
		ds = append(ds,
			labor.Observation{SeriesID: labor.SeriesNonfarmEmployment, Date: m, Value: 150000 + float64(i)*100},
			labor.Observation{SeriesID: labor.SeriesUnemploymentRate, Date: m, Value: 3.5 + float64(i%10)/10},
		)
	}
	return ds
}

func get(t *testing.T, app *fiber.App, target string) *http.Response {
	t.Helper()
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, target, nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return resp
}

// TestObservationsMonthsValidation verifies that the observations endpoint enforces the
// expected 1-600 range for the `months` query parameter.
func TestObservationsMonthsValidation(t *testing.T) {
	app := newTestApp(t, sampleDataset())

	tests := []struct {
		target string
		want   int
	}{
		{"/api/v1/observations?months=0", http.StatusBadRequest},
		{"/api/v1/observations?months=601", http.StatusBadRequest},
		{"/api/v1/observations?months=abc", http.StatusBadRequest},
		{"/api/v1/observations?series=NOPE", http.StatusBadRequest},
		{"/api/v1/observations?months=12", http.StatusOK},
		{"/api/v1/observations", http.StatusOK},
	}
	for _, tt := range tests {
		if resp := get(t, app, tt.target); resp.StatusCode != tt.want {
			t.Errorf("GET %s: expected status %d, got %d", tt.target, tt.want, resp.StatusCode)
		}
	}
}

func TestObservationsGroups(t *testing.T) {
	app := newTestApp(t, sampleDataset())

	resp := get(t, app, "/api/v1/observations?series="+labor.SeriesNonfarmEmployment+","+labor.SeriesUnemploymentRate+"&months=12")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.StatusCode)
	}

	var body struct {
		Cutoff string `json:"cutoff"`
		Groups []struct {
			Unit  string `json:"unit"`
			Table struct {
				Dates []string `json:"dates"`
			} `json:"table"`
		} `json:"groups"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Cutoff != "2023-12-01" {
		t.Errorf("cutoff = %q, want 2023-12-01", body.Cutoff)
	}
	if len(body.Groups) != 2 || body.Groups[0].Unit != "count" || body.Groups[1].Unit != "percent" {
		t.Fatalf("unexpected groups %+v", body.Groups)
	}
	if n := len(body.Groups[0].Table.Dates); n != 13 {
		t.Errorf("count group has %d months, want 13", n)
	}
}

func TestLatest(t *testing.T) {
	resp := get(t, newTestApp(t, nil), "/api/v1/latest")
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("empty dataset: expected status 404, got %d", resp.StatusCode)
	}

	resp = get(t, newTestApp(t, sampleDataset()), "/api/v1/latest")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.StatusCode)
	}
	var body struct {
		LatestDate string            `json:"latestDate"`
		Indicators []json.RawMessage `json:"indicators"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.LatestDate != "2024-12-01" || len(body.Indicators) != 2 {
		t.Errorf("latest = %s with %d indicators", body.LatestDate, len(body.Indicators))
	}
}

func TestChart(t *testing.T) {
	app := newTestApp(t, sampleDataset())

	resp := get(t, app, "/api/v1/charts/percent.svg?series="+labor.SeriesUnemploymentRate)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.StatusCode)
	}
	if ct := resp.Header.Get(fiber.HeaderContentType); ct != "image/svg+xml" {
		t.Errorf("content type = %q, want image/svg+xml", ct)
	}

	resp = get(t, app, "/api/v1/charts/count.svg?series="+labor.SeriesUnemploymentRate)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("unit without rows: expected status 404, got %d", resp.StatusCode)
	}
}

func TestDashboard(t *testing.T) {
	resp := get(t, newTestApp(t, sampleDataset()), "/?months=500")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.StatusCode)
	}
	b, _ := io.ReadAll(resp.Body)
	page := string(b)

	for _, want := range []string{
		"Bureau of Labor Statistics",
		"December 2024",
		`value="CES0000000001" checked`,
		`value="LNS14000000" checked`,
		`value="120"`,
		"/api/v1/charts/count.svg",
	} {
		if !strings.Contains(page, want) {
			t.Errorf("dashboard lacks %q", want)
		}
	}
	if strings.Contains(page, `value="LNS11300000" checked`) {
		t.Error("participation rate should not be selected by default")
	}

	resp = get(t, newTestApp(t, nil), "/")
	b, _ = io.ReadAll(resp.Body)
	if !strings.Contains(string(b), "No data available") {
		t.Error("empty dashboard should tell the operator to bootstrap")
	}
}
