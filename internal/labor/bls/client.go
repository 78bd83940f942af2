// Package bls implements labor.Source for the U.S. Bureau of Labor Statistics
// public data API (v2).
//
// A request selects series ids and an inclusive year range; the answer is a JSON
// document whose Results.series[].data[] entries carry a year, a period code and a
// string value. Only monthly periods (M01..M12) are kept. The API caps the number
// of years per request, so wider ranges are split into consecutive windows.
package bls

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/PaesslerAG/jsonpath"
	"github.com/shopspring/decimal"
	"github.com/sony/gobreaker"
	"golang.org/x/sync/errgroup"

	"github.com/i474232898/labor-market-dashboard/internal/common"
	"github.com/i474232898/labor-market-dashboard/internal/labor"
)

// DefaultBaseURL is the BLS v2 time-series endpoint.
const DefaultBaseURL = "https://api.bls.gov/publicAPI/v2/timeseries/data/"

const statusSucceeded = "REQUEST_SUCCEEDED"

// Per-request year caps documented by BLS.
const (
	MaxYearsRegistered = 20
	MaxYearsAnonymous  = 10
)

// Client implements the labor.Source interface for the BLS API.
type Client struct {
	name     string
	apiKey   string
	baseURL  string
	maxYears int
	httpCfg  HTTPClientConfig
	circuit  *gobreaker.CircuitBreaker
}

// Option customizes a Client.
type Option func(*Client)

// WithBaseURL overrides the upstream endpoint.
func WithBaseURL(u string) Option {
	return func(c *Client) {
		if u != "" {
			c.baseURL = u
		}
	}
}

// WithMaxYears overrides the per-request year cap. Values <= 0 keep the default.
func WithMaxYears(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxYears = n
		}
	}
}

// WithBackoff overrides the retry policy.
func WithBackoff(b BackoffConfig) Option {
	return func(c *Client) { c.httpCfg.Backoff = b }
}

// NewClient returns a BLS client. An empty apiKey selects anonymous access,
// which BLS rate-limits more aggressively and caps at fewer years per request.
func NewClient(client *http.Client, apiKey string, opts ...Option) *Client {
	maxYears := MaxYearsAnonymous
	if apiKey != "" {
		maxYears = MaxYearsRegistered
	}

	c := &Client{
		name:     "bls",
		apiKey:   apiKey,
		baseURL:  DefaultBaseURL,
		maxYears: maxYears,
		httpCfg: HTTPClientConfig{
			Client:  client,
			Backoff: DefaultBackoff,
		},
		circuit: newCircuitBreaker("bls"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) Name() string {
	return c.name
}

// request is the JSON body accepted by the timeseries endpoint.
type request struct {
	SeriesID        []string `json:"seriesid"`
	StartYear       string   `json:"startyear"`
	EndYear         string   `json:"endyear"`
	RegistrationKey string   `json:"registrationkey,omitempty"`
}

// response is the subset of the timeseries answer we read.
type response struct {
	Status  string `json:"status"`
	Results struct {
		Series []struct {
			SeriesID string `json:"seriesID"`
			Data     []struct {
				Year   string `json:"year"`
				Period string `json:"period"`
				Value  string `json:"value"`
			} `json:"data"`
		} `json:"series"`
	} `json:"Results"`
}

// Succeeded reports whether a raw upstream answer carries the success status.
func Succeeded(content []byte) bool {
	return bytes.Contains(content, []byte(`"`+statusSucceeded+`"`))
}

// Fetch retrieves monthly observations for the requested series and years.
func (c *Client) Fetch(ctx context.Context, req labor.FetchRequest) (labor.FetchResult, error) {
	if len(req.SeriesIDs) == 0 {
		return labor.NoDataResult("no series requested"), nil
	}

	windows := yearWindows(req.StartYear, req.EndYear, c.maxYears)
	if len(windows) == 1 {
		return c.fetchWindow(ctx, req.SeriesIDs, windows[0])
	}

	results := make([]labor.FetchResult, len(windows))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(2)
	for i, w := range windows {
		g.Go(func() error {
			r, err := c.fetchWindow(gctx, req.SeriesIDs, w)
			if err != nil {
				return err
			}
			results[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return labor.FetchResult{}, err
	}

	var combined labor.FetchResult
	var reasons []string
	for _, r := range results {
		if r.NoData != "" {
			reasons = append(reasons, r.NoData)
			continue
		}
		combined.Observations = append(combined.Observations, r.Observations...)
	}
	if len(combined.Observations) == 0 && len(reasons) > 0 {
		return labor.NoDataResult(strings.Join(reasons, "; ")), nil
	}
	return combined, nil
}

// window is an inclusive year range.
type window struct{ start, end int }

// yearWindows splits [start, end] into consecutive windows of at most limit years.
func yearWindows(start, end, limit int) []window {
	if limit <= 0 || end-start+1 <= limit {
		return []window{{start, end}}
	}
	var out []window
	for s := start; s <= end; s += limit {
		e := s + limit - 1
		if e > end {
			e = end
		}
		out = append(out, window{s, e})
	}
	return out
}

func (c *Client) fetchWindow(ctx context.Context, seriesIDs []string, w window) (labor.FetchResult, error) {
	body, err := json.Marshal(request{
		SeriesID:        seriesIDs,
		StartYear:       strconv.Itoa(w.start),
		EndYear:         strconv.Itoa(w.end),
		RegistrationKey: c.apiKey,
	})
	if err != nil {
		return labor.FetchResult{}, err
	}

	buildRequest := func() (*http.Request, error) {
		req, err := http.NewRequest(http.MethodPost, c.baseURL, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		return req, nil
	}

	resp, err := doRequestWithResilience(ctx, c.httpCfg, c.circuit, buildRequest)
	if err != nil {
		return labor.FetchResult{}, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return labor.FetchResult{}, &labor.TransportError{StatusCode: resp.StatusCode, Err: fmt.Errorf("failed to read response body: %w", err)}
	}

	return parseResponse(raw, w), nil
}

// parseResponse never fails: structural problems degrade to a NoData result.
func parseResponse(raw []byte, w window) labor.FetchResult {
	var payload response
	if err := json.Unmarshal(raw, &payload); err != nil {
		log.Printf("WARN: bls response for %d-%d is not valid JSON: %v", w.start, w.end, err)
		return labor.NoDataResult("malformed response: " + err.Error())
	}

	if payload.Status != statusSucceeded {
		msgs := upstreamMessages(raw)
		log.Printf("WARN: bls request for %d-%d failed. Status: %q Message: %v", w.start, w.end, payload.Status, msgs)
		if common.HasAny(strings.ToLower(strings.Join(msgs, " ")), "threshold", "exceeded") {
			log.Printf("ERROR: bls daily request threshold reached; configure BLS_API_KEY or retry tomorrow")
		}
		return labor.NoDataResult(fmt.Sprintf("status %q", payload.Status))
	}

	if len(payload.Results.Series) == 0 {
		log.Printf("WARN: bls returned no series data for %d-%d. Message: %v", w.start, w.end, upstreamMessages(raw))
		return labor.NoDataResult("no series in response")
	}

	var out labor.FetchResult
	for _, s := range payload.Results.Series {
		for _, item := range s.Data {
			year, err := strconv.Atoi(strings.TrimSpace(item.Year))
			if err != nil {
				log.Printf("WARN: skipping %s row with invalid year %q", s.SeriesID, item.Year)
				continue
			}
			month, ok := labor.ParsePeriod(year, item.Period)
			if !ok {
				continue
			}
			value, err := decimal.NewFromString(strings.TrimSpace(item.Value))
			if err != nil {
				log.Printf("WARN: skipping %s %s with unparseable value %q", s.SeriesID, month, item.Value)
				continue
			}
			out.Observations = append(out.Observations, labor.Observation{
				SeriesID: s.SeriesID,
				Date:     month,
				Value:    value.InexactFloat64(),
			})
		}
	}
	return out
}

// upstreamMessages extracts the "message" entries of a BLS answer. The field is
// usually a list of strings but is not guaranteed to be present or typed.
func upstreamMessages(raw []byte) []string {
	var obj any
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil
	}
	v, err := jsonpath.Get("$.message", obj)
	if err != nil {
		return nil
	}
	switch m := v.(type) {
	case string:
		return []string{m}
	case []any:
		msgs := make([]string, 0, len(m))
		for _, item := range m {
			msgs = append(msgs, fmt.Sprint(item))
		}
		return msgs
	}
	return nil
}
