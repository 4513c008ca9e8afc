// Package config loads application configuration from environment variables.
package config

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Default upstream endpoints.
const (
	DefaultCSSEURL     = "https://covid-19-statistics.p.rapidapi.com"
	DefaultVaccovidURL = "https://vaccovid-coronavirus-vaccine-and-treatment-tracker.p.rapidapi.com"
)

// Config holds the application configuration loaded from environment variables.
type Config struct {
	ListenAddr        string
	DBPath            string
	RefreshInterval   time.Duration
	SnapshotTTL       time.Duration
	SnapshotRetention int
	Offline           bool
	SecretKey         []byte // 32-byte AES-256 key; nil disables stored credentials.
	HTTPTimeout       time.Duration

	CSSEURL     string
	VaccovidURL string
	StocksURL   string // Empty disables the stock price section.

	CSSEKeyFile     string
	VaccovidKeyFile string
	StocksKeyFile   string
	StatesFile      string

	DefaultState string
	RegionName   string
	ISO          string
	StockSymbols []string
	StockPeriod  string

	DumpDir string
}

// HasStocks returns true when a stock price endpoint is configured.
func (c *Config) HasStocks() bool {
	return c.StocksURL != ""
}

// KeyFiles maps each upstream service to its credential file.
func (c *Config) KeyFiles() map[string]string {
	return map[string]string{
		"csse":     c.CSSEKeyFile,
		"vaccovid": c.VaccovidKeyFile,
		"stocks":   c.StocksKeyFile,
	}
}

// LoadDotEnv loads variables from a .env file at path if it exists. Variables
// already set in the environment win.
func LoadDotEnv(path string) error {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("checking %s: %w", path, err)
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("loading %s: %w", path, err)
	}
	return nil
}

// Load reads configuration from environment variables and returns a validated Config.
// Every variable is optional. Defaults: COVIDDASH_LISTEN_ADDR (127.0.0.1:8080),
// COVIDDASH_DB_PATH (coviddash.db), COVIDDASH_REFRESH_INTERVAL (30m),
// COVIDDASH_SNAPSHOT_TTL (15m), COVIDDASH_SNAPSHOT_RETENTION (48),
// COVIDDASH_HTTP_TIMEOUT (15s), COVIDDASH_DEFAULT_STATE (Florida).
func Load() (*Config, error) {
	cfg := &Config{
		ListenAddr:        envOr("COVIDDASH_LISTEN_ADDR", "127.0.0.1:8080"),
		DBPath:            envOr("COVIDDASH_DB_PATH", "coviddash.db"),
		CSSEURL:           envOr("COVIDDASH_CSSE_URL", DefaultCSSEURL),
		VaccovidURL:       envOr("COVIDDASH_VACCOVID_URL", DefaultVaccovidURL),
		StocksURL:         os.Getenv("COVIDDASH_STOCKS_URL"),
		CSSEKeyFile:       envOr("COVIDDASH_CSSE_KEY_FILE", "csse_api.json"),
		VaccovidKeyFile:   envOr("COVIDDASH_VACCOVID_KEY_FILE", "vaccovid_api.json"),
		StocksKeyFile:     envOr("COVIDDASH_STOCKS_KEY_FILE", "stocks_api.json"),
		StatesFile:        envOr("COVIDDASH_STATES_FILE", "states.csv"),
		DefaultState:      envOr("COVIDDASH_DEFAULT_STATE", "Florida"),
		RegionName:        envOr("COVIDDASH_REGION_NAME", "US"),
		ISO:               envOr("COVIDDASH_ISO", "USA"),
		StockPeriod:       envOr("COVIDDASH_STOCK_PERIOD", "1mo"),
		DumpDir:           envOr("COVIDDASH_DUMP_DIR", "."),
		SnapshotRetention: 48,
	}

	var err error
	if cfg.RefreshInterval, err = durationEnv("COVIDDASH_REFRESH_INTERVAL", 30*time.Minute); err != nil {
		return nil, err
	}
	if cfg.SnapshotTTL, err = durationEnv("COVIDDASH_SNAPSHOT_TTL", 15*time.Minute); err != nil {
		return nil, err
	}
	if cfg.HTTPTimeout, err = durationEnv("COVIDDASH_HTTP_TIMEOUT", 15*time.Second); err != nil {
		return nil, err
	}

	if v, ok := os.LookupEnv("COVIDDASH_SNAPSHOT_RETENTION"); ok {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return nil, fmt.Errorf("COVIDDASH_SNAPSHOT_RETENTION must be a positive integer, got %q", v)
		}
		cfg.SnapshotRetention = n
	}

	if v, ok := os.LookupEnv("COVIDDASH_OFFLINE"); ok && v != "" {
		offline, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("COVIDDASH_OFFLINE has invalid boolean %q: %w", v, err)
		}
		cfg.Offline = offline
	}

	if v, ok := os.LookupEnv("COVIDDASH_SECRET_KEY"); ok && v != "" {
		key, err := hex.DecodeString(v)
		if err != nil || len(key) != 32 {
			return nil, fmt.Errorf("COVIDDASH_SECRET_KEY must be 64 hex characters (32 bytes)")
		}
		cfg.SecretKey = key
	}

	for name, raw := range map[string]string{
		"COVIDDASH_CSSE_URL":     cfg.CSSEURL,
		"COVIDDASH_VACCOVID_URL": cfg.VaccovidURL,
		"COVIDDASH_STOCKS_URL":   cfg.StocksURL,
	} {
		if raw == "" {
			continue
		}
		if u, err := url.Parse(raw); err != nil || u.Scheme == "" || u.Host == "" {
			return nil, fmt.Errorf("%s must be an absolute URL, got %q", name, raw)
		}
	}

	if v, ok := os.LookupEnv("COVIDDASH_STOCK_SYMBOLS"); ok && v != "" {
		for _, sym := range strings.Split(v, ",") {
			sym = strings.ToUpper(strings.TrimSpace(sym))
			if sym != "" {
				cfg.StockSymbols = append(cfg.StockSymbols, sym)
			}
		}
	}
	if cfg.StockSymbols == nil {
		cfg.StockSymbols = []string{}
	}

	return cfg, nil
}

func envOr(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func durationEnv(key string, fallback time.Duration) (time.Duration, error) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s has invalid duration %q: %w", key, v, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s must be positive, got %s", key, d)
	}
	return d, nil
}
