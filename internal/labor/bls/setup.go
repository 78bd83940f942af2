package bls

import (
	"log"
	"net/http"

	"github.com/i474232898/labor-market-dashboard/internal/config"
	"github.com/i474232898/labor-market-dashboard/internal/httpcache"
)

// NewFromConfig builds the client described by cfg. When a cache directory is
// configured, upstream responses go through the badger response cache. The
// returned close function releases the cache and is always safe to call.
func NewFromConfig(cfg *config.AppConfig) (*Client, func(), error) {
	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}
	closeFn := func() {}

	if cfg.CacheDir != "" {
		db, err := httpcache.Open(cfg.CacheDir)
		if err != nil {
			return nil, closeFn, err
		}
		httpClient.Transport = httpcache.New(http.DefaultTransport, db, cfg.CacheTTL).WithAccept(Succeeded)
		closeFn = func() {
			if err := db.Close(); err != nil {
				log.Printf("WARN: closing response cache: %v", err)
			}
		}
		log.Printf("INFO: caching upstream responses in %s for %s", cfg.CacheDir, cfg.CacheTTL)
	}

	if cfg.BLSAPIKey == "" {
		log.Printf("WARN: BLS_API_KEY is not set; using anonymous access with lower rate limits")
	}

	c := NewClient(httpClient, cfg.BLSAPIKey,
		WithBaseURL(cfg.BLSAPIURL),
		WithMaxYears(cfg.MaxYearsPerRequest),
	)
	return c, closeFn, nil
}
