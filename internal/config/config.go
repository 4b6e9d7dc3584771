// Package config loads the bridge configuration from a YAML file with
// environment variable overrides.
package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

// ---------------------------------------------------------------------------
// Configuration structs
// ---------------------------------------------------------------------------

// Config is the top-level configuration for the bridge.
type Config struct {
	Alpaca  Alpaca        `yaml:"alpaca"`
	Data    Data          `yaml:"data"`
	Journal Journal       `yaml:"journal"`
	Logging Logging       `yaml:"logging"`
	Trading TradingConfig `yaml:"trading"`
}

// Alpaca holds credentials and endpoints for the brokerage API. DataKey and
// DataSecret are the optional auxiliary market-data credentials; their
// presence steers feed selection towards the consolidated tape.
type Alpaca struct {
	APIKey     string `yaml:"api_key"`
	APISecret  string `yaml:"api_secret"`
	BaseURL    string `yaml:"base_url"`
	DataURL    string `yaml:"data_url"`
	DataKey    string `yaml:"data_key"`
	DataSecret string `yaml:"data_secret"`
	Paper      bool   `yaml:"paper"`
}

// Data configures the market-data gateway.
type Data struct {
	// Feed forces a data source ("iex" or "sip"). Empty means the feed is
	// selected automatically at login.
	Feed     string `yaml:"feed"`
	CacheDir string `yaml:"cache_dir"`
}

// Journal holds the order-event journal location.
type Journal struct {
	Path string `yaml:"path"`
}

// Logging configures the application logger.
type Logging struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// TradingConfig defines the session defaults the host can later override
// through the command surface.
type TradingConfig struct {
	TimeInForce     string `yaml:"time_in_force"`
	Multiplier      int    `yaml:"multiplier"`
	RateLimitPerMin int    `yaml:"rate_limit_per_min"`
	FillTimeoutSec  int    `yaml:"fill_timeout_sec"`
	PollIntervalMS  int    `yaml:"poll_interval_ms"`
}

// ---------------------------------------------------------------------------
// Loading
// ---------------------------------------------------------------------------

// Load reads the YAML configuration file at the given path, parses it into a
// Config struct, applies environment variable overrides, and fills defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)
	applyDefaults(cfg)

	return cfg, nil
}

// applyEnvOverrides checks well-known environment variables and overrides the
// corresponding configuration fields when they are set.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("BRIDGE_CACHE_DIR"); v != "" {
		cfg.Data.CacheDir = v
	}
	if v := os.Getenv("BRIDGE_JOURNAL_PATH"); v != "" {
		cfg.Journal.Path = v
	}
	if v := os.Getenv("BRIDGE_DATA_FEED"); v != "" {
		cfg.Data.Feed = v
	}

	if v := os.Getenv("ALPACA_BASE_URL"); v != "" {
		cfg.Alpaca.BaseURL = v
	}
	if v := os.Getenv("ALPACA_DATA_URL"); v != "" {
		cfg.Alpaca.DataURL = v
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}

	// Standard Alpaca env vars (highest priority — canonical names used by SDK).
	if v := os.Getenv("APCA_API_KEY_ID"); v != "" {
		cfg.Alpaca.APIKey = v
	}
	if v := os.Getenv("APCA_API_SECRET_KEY"); v != "" {
		cfg.Alpaca.APISecret = v
	}
}

// applyDefaults fills zero-valued fields with the session defaults.
func applyDefaults(cfg *Config) {
	if cfg.Trading.TimeInForce == "" {
		cfg.Trading.TimeInForce = "fok"
	}
	if cfg.Trading.Multiplier <= 0 {
		cfg.Trading.Multiplier = 1
	}
	if cfg.Trading.RateLimitPerMin <= 0 {
		cfg.Trading.RateLimitPerMin = 200
	}
	if cfg.Trading.FillTimeoutSec <= 0 {
		cfg.Trading.FillTimeoutSec = 30
	}
	if cfg.Trading.PollIntervalMS <= 0 {
		cfg.Trading.PollIntervalMS = 500
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
}
