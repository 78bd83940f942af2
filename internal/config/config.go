package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/i474232898/labor-market-dashboard/internal/common"
	"github.com/i474232898/labor-market-dashboard/internal/labor"
)

type AppConfig struct {
	// BLSAPIKey is the optional registration key; empty means anonymous access.
	BLSAPIKey string
	BLSAPIURL string

	// Series to fetch; defaults to labor.DefaultSeries.
	Series []string

	// MaxYearsPerRequest caps the year span of one upstream request (0 = client default).
	MaxYearsPerRequest int

	// Upstream response cache (disabled when CacheDir is empty).
	CacheDir string
	CacheTTL time.Duration

	// DataPath is the persisted dataset location.
	DataPath string

	BootstrapStartYear int

	HTTPTimeout time.Duration

	// RefreshInterval controls how often the server runs an incremental update (0 = never).
	RefreshInterval time.Duration

	// SeriesCatalog optionally replaces the embedded series metadata.
	SeriesCatalog string

	Port string
}

// DefaultDataPath is where the dataset lives unless DATA_PATH says otherwise.
const DefaultDataPath = "data/bls_labor_data.csv"

// Load reads configuration from environment with sensible defaults.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}
	cfg := &AppConfig{}

	cfg.BLSAPIKey = os.Getenv("BLS_API_KEY")
	cfg.BLSAPIURL = os.Getenv("BLS_API_URL")

	cfg.Series = common.SplitList(os.Getenv("BLS_SERIES"))
	if len(cfg.Series) == 0 {
		cfg.Series = append([]string(nil), labor.DefaultSeries...)
	}

	cfg.MaxYearsPerRequest = getenvInt("BLS_MAX_YEARS", 0)

	cfg.CacheDir = os.Getenv("BLS_CACHE_DIR")
	ttl, err := time.ParseDuration(getenvDefault("BLS_CACHE_TTL", "12h"))
	if err != nil {
		return nil, fmt.Errorf("invalid BLS_CACHE_TTL: %w", err)
	}
	cfg.CacheTTL = ttl

	cfg.DataPath = getenvDefault("DATA_PATH", DefaultDataPath)
	cfg.BootstrapStartYear = getenvInt("BOOTSTRAP_START_YEAR", 2015)

	timeout, err := time.ParseDuration(getenvDefault("HTTP_TIMEOUT", "30s"))
	if err != nil {
		return nil, fmt.Errorf("invalid HTTP_TIMEOUT: %w", err)
	}
	cfg.HTTPTimeout = timeout

	// Scheduler interval: default once a day. BLS publishes monthly.
	interval, err := time.ParseDuration(getenvDefault("REFRESH_INTERVAL", "24h"))
	if err != nil {
		return nil, fmt.Errorf("invalid REFRESH_INTERVAL: %w", err)
	}
	cfg.RefreshInterval = interval

	cfg.SeriesCatalog = os.Getenv("SERIES_CATALOG")
	cfg.Port = getenvDefault("PORT", "8080")

	return cfg, nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return def
}
