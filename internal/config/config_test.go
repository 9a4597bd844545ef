package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_NonExistent(t *testing.T) {
	// When config file doesn't exist, should return defaults
	cfg, err := Load("/nonexistent/path/config.yaml")
	if err != nil {
		t.Fatalf("Load() error = %v, want nil", err)
	}

	if cfg.Market.Provider != "auto" {
		t.Errorf("Market.Provider = %q, want %q", cfg.Market.Provider, "auto")
	}
	if !cfg.Cache.Enabled {
		t.Error("Cache.Enabled = false, want true")
	}
	if got := cfg.Cache.TTL.MarketData.Std(); got != DefaultMarketDataTTL {
		t.Errorf("Cache.TTL.MarketData = %v, want %v", got, DefaultMarketDataTTL)
	}
	if got := cfg.Providers.AlphaVantage.DailyLimit; got != 25 {
		t.Errorf("AlphaVantage.DailyLimit = %d, want 25", got)
	}
}

func TestLoad_ValidConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	content := `force_mock_data: true
market:
  provider: polygon
  preference: [polygon, finnhub]
trading:
  provider: alpaca
cache:
  store: file
  ttl:
    market_data: 90s
    portfolio: 10s
providers:
  alpaca:
    paper: false
  ibkr:
    gateway_url: "https://localhost:5000"
    account_id: "DU123456"
`
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v, want nil", err)
	}

	if !cfg.ForceMockData {
		t.Error("ForceMockData = false, want true")
	}
	if cfg.Market.Provider != "polygon" {
		t.Errorf("Market.Provider = %q, want %q", cfg.Market.Provider, "polygon")
	}
	if len(cfg.Market.Preference) != 2 || cfg.Market.Preference[1] != "finnhub" {
		t.Errorf("Market.Preference = %v, want [polygon finnhub]", cfg.Market.Preference)
	}
	if cfg.Cache.Store != "file" {
		t.Errorf("Cache.Store = %q, want %q", cfg.Cache.Store, "file")
	}
	if got := cfg.Cache.TTL.MarketData.Std(); got != 90*time.Second {
		t.Errorf("Cache.TTL.MarketData = %v, want 90s", got)
	}
	if got := cfg.Cache.TTL.Portfolio.Std(); got != 10*time.Second {
		t.Errorf("Cache.TTL.Portfolio = %v, want 10s", got)
	}
	if cfg.Providers.Alpaca.Paper {
		t.Error("Alpaca.Paper = true, want false")
	}
	if cfg.Providers.IBKR.AccountID != "DU123456" {
		t.Errorf("IBKR.AccountID = %q, want %q", cfg.Providers.IBKR.AccountID, "DU123456")
	}
}

func TestLoad_PartialConfig(t *testing.T) {
	// Config with only some fields should use defaults for missing
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	content := `market:
  provider: finnhub
`
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v, want nil", err)
	}

	if cfg.Market.Provider != "finnhub" {
		t.Errorf("Market.Provider = %q, want %q", cfg.Market.Provider, "finnhub")
	}
	if cfg.Trading.Provider != "auto" {
		t.Errorf("Trading.Provider = %q, want default %q", cfg.Trading.Provider, "auto")
	}
	if got := cfg.Cache.TTL.News.Std(); got != DefaultNewsTTL {
		t.Errorf("Cache.TTL.News = %v, want default %v", got, DefaultNewsTTL)
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	content := `invalid: yaml: content: [broken`
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}

	_, err := Load(configPath)
	if err == nil {
		t.Error("Load() error = nil, want error for invalid YAML")
	}
}

func TestLoad_InvalidDuration(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	content := `cache:
  ttl:
    market_data: soon
`
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}

	_, err := Load(configPath)
	if err == nil {
		t.Error("Load() error = nil, want error for invalid duration")
	}
}

func TestLoad_BareSecondsDuration(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	content := `cache:
  ttl:
    market_data: 120
`
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v, want nil", err)
	}
	if got := cfg.Cache.TTL.MarketData.Std(); got != 2*time.Minute {
		t.Errorf("Cache.TTL.MarketData = %v, want 2m", got)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("DESK_MARKET_PROVIDER", "iexcloud")
	t.Setenv("DESK_FORCE_MOCK_DATA", "true")
	t.Setenv("DESK_ALPACA_PAPER", "false")

	cfg, err := Load("/nonexistent/path/config.yaml")
	if err != nil {
		t.Fatalf("Load() error = %v, want nil", err)
	}

	if cfg.Market.Provider != "iexcloud" {
		t.Errorf("Market.Provider = %q, want %q", cfg.Market.Provider, "iexcloud")
	}
	if !cfg.ForceMockData {
		t.Error("ForceMockData = false, want true")
	}
	if cfg.Providers.Alpaca.Paper {
		t.Error("Alpaca.Paper = true, want false")
	}
}

func TestSave(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	cfg := DefaultConfig()
	cfg.Market.Provider = "polygon"
	cfg.Cache.TTL.MarketData = Duration(45 * time.Second)
	cfg.Watchlist = []string{"NVDA"}

	if err := Save(configPath, cfg); err != nil {
		t.Fatalf("Save() error = %v, want nil", err)
	}

	// Verify file was created with correct permissions
	info, err := os.Stat(configPath)
	if err != nil {
		t.Fatalf("Failed to stat config file: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("Config file permissions = %o, want %o", perm, 0600)
	}

	// Load it back and verify
	loaded, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() after Save() error = %v", err)
	}

	if loaded.Market.Provider != "polygon" {
		t.Errorf("Market.Provider = %q, want %q", loaded.Market.Provider, "polygon")
	}
	if got := loaded.Cache.TTL.MarketData.Std(); got != 45*time.Second {
		t.Errorf("Cache.TTL.MarketData = %v, want 45s", got)
	}
	if len(loaded.Watchlist) != 1 || loaded.Watchlist[0] != "NVDA" {
		t.Errorf("Watchlist = %v, want [NVDA]", loaded.Watchlist)
	}
}

func TestSave_CreatesDirectory(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "subdir", "deep", "config.yaml")

	if err := Save(configPath, DefaultConfig()); err != nil {
		t.Fatalf("Save() error = %v, want nil", err)
	}

	// Verify file exists
	if _, err := os.Stat(configPath); err != nil {
		t.Errorf("Config file not created: %v", err)
	}
}

func TestClone(t *testing.T) {
	cfg := DefaultConfig()
	clone := cfg.Clone()

	clone.Market.Preference[0] = "changed"
	clone.Watchlist = append(clone.Watchlist, "EXTRA")

	if cfg.Market.Preference[0] == "changed" {
		t.Error("Clone() shares Market.Preference backing array")
	}
	if len(cfg.Watchlist) != 3 {
		t.Errorf("Watchlist length = %d, want 3", len(cfg.Watchlist))
	}
}

func TestConfigDir_WithXDG(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/custom/config")

	dir := ConfigDir()
	want := "/custom/config/desk"
	if dir != want {
		t.Errorf("ConfigDir() = %q, want %q", dir, want)
	}
}

func TestConfigPath_WithoutXDG(t *testing.T) {
	orig := os.Getenv("XDG_CONFIG_HOME")
	defer os.Setenv("XDG_CONFIG_HOME", orig)

	os.Unsetenv("XDG_CONFIG_HOME")
	path := ConfigPath()

	home, _ := os.UserHomeDir()
	want := filepath.Join(home, ".config", "desk", "config.yaml")
	if path != want {
		t.Errorf("ConfigPath() = %q, want %q", path, want)
	}
}
