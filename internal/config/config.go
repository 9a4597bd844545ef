// Package config loads and saves the desk configuration file. A Config is
// an immutable snapshot: services receive it at construction and are
// rebuilt for reconfiguration, never mutated in place.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Default cache TTLs per data class.
const (
	DefaultMarketDataTTL   = 60 * time.Second
	DefaultFundamentalsTTL = time.Hour
	DefaultNewsTTL         = 5 * time.Minute
	DefaultPortfolioTTL    = 30 * time.Second
)

// Provider preference orders walked by auto selection. First available wins.
var (
	DefaultMarketPreference  = []string{"polygon", "alpaca", "iexcloud", "finnhub", "alphavantage"}
	DefaultTradingPreference = []string{"alpaca", "ibkr"}
)

// Duration wraps time.Duration so YAML reads "90s"/"5m" forms.
type Duration time.Duration

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// UnmarshalYAML implements yaml.Unmarshaler. Accepts duration strings and
// bare integers, which are taken as seconds.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err == nil {
		parsed, err := time.ParseDuration(s)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", s, err)
		}
		*d = Duration(parsed)
		return nil
	}
	var secs int64
	if err := value.Decode(&secs); err != nil {
		return fmt.Errorf("invalid duration value on line %d", value.Line)
	}
	*d = Duration(time.Duration(secs) * time.Second)
	return nil
}

// Config holds the desk configuration.
type Config struct {
	LogLevel      string          `yaml:"log_level"`
	ForceMockData bool            `yaml:"force_mock_data"`
	Market        SelectionConfig `yaml:"market"`
	Trading       SelectionConfig `yaml:"trading"`
	Cache         CacheConfig     `yaml:"cache"`
	Providers     ProvidersConfig `yaml:"providers"`
	Watchlist     []string        `yaml:"watchlist"`
}

// SelectionConfig pins a default provider and the auto-selection walk order
// for one service family.
type SelectionConfig struct {
	Provider   string   `yaml:"provider"`
	Preference []string `yaml:"preference"`
}

// CacheConfig selects the cache backing store and per-data-class TTLs.
type CacheConfig struct {
	Enabled bool      `yaml:"enabled"`
	Store   string    `yaml:"store"` // memory or file
	Dir     string    `yaml:"dir"`
	TTL     TTLConfig `yaml:"ttl"`
}

// TTLConfig holds the cache validity window per data class.
type TTLConfig struct {
	MarketData   Duration `yaml:"market_data"`
	Fundamentals Duration `yaml:"fundamentals"`
	News         Duration `yaml:"news"`
	Portfolio    Duration `yaml:"portfolio"`
}

// ProvidersConfig holds per-vendor settings. Credential material never
// lives here; it comes from the keyring or environment.
type ProvidersConfig struct {
	AlphaVantage AlphaVantageConfig `yaml:"alphavantage"`
	Polygon      EndpointConfig     `yaml:"polygon"`
	IEXCloud     EndpointConfig     `yaml:"iexcloud"`
	Finnhub      FinnhubConfig      `yaml:"finnhub"`
	Alpaca       AlpacaConfig       `yaml:"alpaca"`
	IBKR         IBKRConfig         `yaml:"ibkr"`
}

// EndpointConfig overrides a vendor base URL, mainly for tests and proxies.
type EndpointConfig struct {
	BaseURL string `yaml:"base_url"`
}

// AlphaVantageConfig carries the free-tier request budget.
type AlphaVantageConfig struct {
	BaseURL    string `yaml:"base_url"`
	DailyLimit int    `yaml:"daily_limit"`
}

// FinnhubConfig carries the per-minute request budget.
type FinnhubConfig struct {
	BaseURL       string `yaml:"base_url"`
	PerMinuteRate int    `yaml:"per_minute_rate"`
}

// AlpacaConfig selects paper vs live and optional host overrides.
type AlpacaConfig struct {
	Paper       bool   `yaml:"paper"`
	BaseURL     string `yaml:"base_url"`
	DataBaseURL string `yaml:"data_base_url"`
}

// IBKRConfig points at a Client Portal gateway. Both fields are required
// for the provider to be available.
type IBKRConfig struct {
	GatewayURL string `yaml:"gateway_url"`
	AccountID  string `yaml:"account_id"`
}

// DefaultConfig returns a new Config with default values.
func DefaultConfig() *Config {
	return &Config{
		LogLevel: "warn",
		Market: SelectionConfig{
			Provider:   "auto",
			Preference: append([]string(nil), DefaultMarketPreference...),
		},
		Trading: SelectionConfig{
			Provider:   "auto",
			Preference: append([]string(nil), DefaultTradingPreference...),
		},
		Cache: CacheConfig{
			Enabled: true,
			Store:   "memory",
			TTL: TTLConfig{
				MarketData:   Duration(DefaultMarketDataTTL),
				Fundamentals: Duration(DefaultFundamentalsTTL),
				News:         Duration(DefaultNewsTTL),
				Portfolio:    Duration(DefaultPortfolioTTL),
			},
		},
		Providers: ProvidersConfig{
			AlphaVantage: AlphaVantageConfig{DailyLimit: 25},
			Finnhub:      FinnhubConfig{PerMinuteRate: 60},
			Alpaca:       AlpacaConfig{Paper: true},
		},
		Watchlist: []string{"AAPL", "MSFT", "SPY"},
	}
}

// Load reads the config file at path, falling back to defaults when the
// file does not exist, then applies DESK_* environment overrides. A .env
// file in the working directory is picked up first.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	} else if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	applyEnvOverrides(cfg)
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	cfg.LogLevel = getEnv("DESK_LOG_LEVEL", cfg.LogLevel)
	cfg.Market.Provider = getEnv("DESK_MARKET_PROVIDER", cfg.Market.Provider)
	cfg.Trading.Provider = getEnv("DESK_TRADING_PROVIDER", cfg.Trading.Provider)
	cfg.Cache.Store = getEnv("DESK_CACHE_STORE", cfg.Cache.Store)
	cfg.Cache.Dir = getEnv("DESK_CACHE_DIR", cfg.Cache.Dir)
	cfg.Providers.IBKR.GatewayURL = getEnv("DESK_IBKR_GATEWAY_URL", cfg.Providers.IBKR.GatewayURL)
	cfg.Providers.IBKR.AccountID = getEnv("DESK_IBKR_ACCOUNT_ID", cfg.Providers.IBKR.AccountID)

	if v := os.Getenv("DESK_FORCE_MOCK_DATA"); v != "" {
		if parsed, err := strconv.ParseBool(v); err == nil {
			cfg.ForceMockData = parsed
		}
	}
	if v := os.Getenv("DESK_ALPACA_PAPER"); v != "" {
		if parsed, err := strconv.ParseBool(v); err == nil {
			cfg.Providers.Alpaca.Paper = parsed
		}
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// Save writes the config to path with 0600 permissions, creating parent
// directories with 0700 as needed.
func Save(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	return os.WriteFile(path, data, 0600)
}

// Clone returns a deep copy so reconfiguration never aliases the snapshot
// held by running services.
func (c *Config) Clone() *Config {
	copied := *c
	copied.Market.Preference = append([]string(nil), c.Market.Preference...)
	copied.Trading.Preference = append([]string(nil), c.Trading.Preference...)
	copied.Watchlist = append([]string(nil), c.Watchlist...)
	return &copied
}

// ConfigDir returns the configuration directory.
// Uses XDG_CONFIG_HOME if set, otherwise ~/.config/desk.
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "desk")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "desk")
}

// ConfigPath returns the path to the config file.
func ConfigPath() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}
