package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "bridge.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing temp config: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
alpaca:
  api_key: "test-key"
  api_secret: "test-secret"
  base_url: "https://paper-api.alpaca.markets"
  data_url: "https://data.alpaca.markets"
  data_key: "aux-key"
  data_secret: "aux-secret"
  paper: true
data:
  feed: "sip"
  cache_dir: "/tmp/bridge/bars"
journal:
  path: "/tmp/bridge/journal.db"
logging:
  level: "debug"
  format: "json"
trading:
  time_in_force: "ioc"
  multiplier: 2
  rate_limit_per_min: 100
  fill_timeout_sec: 20
  poll_interval_ms: 250
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Alpaca.APIKey != "test-key" {
		t.Errorf("APIKey = %q, want %q", cfg.Alpaca.APIKey, "test-key")
	}
	if !cfg.Alpaca.Paper {
		t.Error("Paper = false, want true")
	}
	if cfg.Alpaca.DataKey != "aux-key" {
		t.Errorf("DataKey = %q, want %q", cfg.Alpaca.DataKey, "aux-key")
	}
	if cfg.Data.Feed != "sip" {
		t.Errorf("Feed = %q, want %q", cfg.Data.Feed, "sip")
	}
	if cfg.Journal.Path != "/tmp/bridge/journal.db" {
		t.Errorf("Journal.Path = %q", cfg.Journal.Path)
	}
	if cfg.Trading.TimeInForce != "ioc" {
		t.Errorf("TimeInForce = %q, want %q", cfg.Trading.TimeInForce, "ioc")
	}
	if cfg.Trading.FillTimeoutSec != 20 {
		t.Errorf("FillTimeoutSec = %d, want 20", cfg.Trading.FillTimeoutSec)
	}
}

func TestLoadDefaults(t *testing.T) {
	path := writeConfig(t, `
alpaca:
  api_key: "k"
  api_secret: "s"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Trading.TimeInForce != "fok" {
		t.Errorf("default TimeInForce = %q, want %q", cfg.Trading.TimeInForce, "fok")
	}
	if cfg.Trading.Multiplier != 1 {
		t.Errorf("default Multiplier = %d, want 1", cfg.Trading.Multiplier)
	}
	if cfg.Trading.RateLimitPerMin != 200 {
		t.Errorf("default RateLimitPerMin = %d, want 200", cfg.Trading.RateLimitPerMin)
	}
	if cfg.Trading.FillTimeoutSec != 30 {
		t.Errorf("default FillTimeoutSec = %d, want 30", cfg.Trading.FillTimeoutSec)
	}
	if cfg.Trading.PollIntervalMS != 500 {
		t.Errorf("default PollIntervalMS = %d, want 500", cfg.Trading.PollIntervalMS)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("default Logging.Level = %q, want %q", cfg.Logging.Level, "info")
	}
}

func TestEnvOverrides(t *testing.T) {
	path := writeConfig(t, `
alpaca:
  api_key: "file-key"
  api_secret: "file-secret"
`)

	t.Setenv("APCA_API_KEY_ID", "env-key")
	t.Setenv("APCA_API_SECRET_KEY", "env-secret")
	t.Setenv("BRIDGE_DATA_FEED", "iex")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Alpaca.APIKey != "env-key" {
		t.Errorf("APIKey = %q, want env override %q", cfg.Alpaca.APIKey, "env-key")
	}
	if cfg.Alpaca.APISecret != "env-secret" {
		t.Errorf("APISecret = %q, want env override %q", cfg.Alpaca.APISecret, "env-secret")
	}
	if cfg.Data.Feed != "iex" {
		t.Errorf("Feed = %q, want env override %q", cfg.Data.Feed, "iex")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("Load of missing file should return error")
	}
}
