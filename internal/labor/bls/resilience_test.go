package bls

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/i474232898/labor-market-dashboard/internal/labor"
)

func TestDoRequestWithResilience_SetupFailuresAreTransportErrors(t *testing.T) {
	buildOK := func() (*http.Request, error) {
		return http.NewRequest(http.MethodGet, "http://127.0.0.1:1/", nil)
	}
	errBuild := errors.New("bad payload")

	tests := []struct {
		name    string
		cfg     HTTPClientConfig
		build   func() (*http.Request, error)
		wantErr error
	}{
		{
			name:    "no http client",
			cfg:     HTTPClientConfig{Backoff: fastBackoff},
			build:   buildOK,
			wantErr: errNoHTTPClient,
		},
		{
			name:    "invalid backoff",
			cfg:     HTTPClientConfig{Client: http.DefaultClient, Backoff: BackoffConfig{MaxRetries: -1}},
			build:   buildOK,
			wantErr: errInvalidConfig,
		},
		{
			name:    "request build failure",
			cfg:     HTTPClientConfig{Client: http.DefaultClient, Backoff: fastBackoff},
			build:   func() (*http.Request, error) { return nil, errBuild },
			wantErr: errBuild,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := doRequestWithResilience(context.Background(), tt.cfg, newCircuitBreaker("test"), tt.build)
			if resp != nil {
				t.Fatal("expected no response")
			}
			if !labor.IsTransportError(err) {
				t.Fatalf("error %v is not a transport error", err)
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("error %v does not wrap %v", err, tt.wantErr)
			}
		})
	}
}
