// Package app wires configuration, credentials, the provider registry, and
// the market and trading services into one assembled application. The CLI,
// the HTTP server, and the TUI all start from an App.
package app

import (
	"io"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/skovera/desk/internal/cache"
	"github.com/skovera/desk/internal/config"
	"github.com/skovera/desk/internal/keyring"
	"github.com/skovera/desk/internal/logging"
	"github.com/skovera/desk/internal/market"
	"github.com/skovera/desk/internal/providers"
	"github.com/skovera/desk/internal/providers/alpaca"
	"github.com/skovera/desk/internal/providers/alphavantage"
	"github.com/skovera/desk/internal/providers/finnhub"
	"github.com/skovera/desk/internal/providers/ibkr"
	"github.com/skovera/desk/internal/providers/iexcloud"
	"github.com/skovera/desk/internal/providers/mock"
	"github.com/skovera/desk/internal/providers/polygon"
	"github.com/skovera/desk/internal/trading"
)

// Options configures app assembly. Zero values pull everything from the
// default config path, the system keyring, and stderr logging.
type Options struct {
	// Config is used as-is when set; otherwise ConfigPath is loaded.
	Config     *config.Config
	ConfigPath string

	// Keyring overrides the credential store. Defaults to the system
	// keyring with DESK_* environment overrides.
	Keyring keyring.Store

	// LogLevel overrides the configured level when non-empty. LogOut
	// redirects logs (tests); nil means stderr. LogJSON disables the
	// console writer for the server.
	LogLevel string
	LogOut   io.Writer
	LogJSON  bool

	// ForceMock pins every selection to the mock provider regardless of
	// config, for the --mock flag.
	ForceMock bool
}

// App is the assembled application.
type App struct {
	Config   *config.Config
	Log      zerolog.Logger
	Keyring  keyring.Store
	Registry *providers.Registry
	Market   *market.Service
	Trading  *trading.Service
}

// New assembles the application: load config, open the credential store,
// build every adapter, and wire the registry and services.
func New(opts Options) (*App, error) {
	cfg := opts.Config
	if cfg == nil {
		path := opts.ConfigPath
		if path == "" {
			path = config.ConfigPath()
		}
		loaded, err := config.Load(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	level := cfg.LogLevel
	if opts.LogLevel != "" {
		level = opts.LogLevel
	}
	log := logging.New(logging.Config{
		Level:  level,
		Pretty: !opts.LogJSON,
		Out:    opts.LogOut,
	})

	secrets := opts.Keyring
	if secrets == nil {
		secrets = keyring.NewEnvStore(keyring.NewSystemStore())
	}

	store := NewStore(cfg)
	ttl := providers.TTLs{
		MarketData:   cfg.Cache.TTL.MarketData.Std(),
		Fundamentals: cfg.Cache.TTL.Fundamentals.Std(),
		News:         cfg.Cache.TTL.News.Std(),
		Portfolio:    cfg.Cache.TTL.Portfolio.Std(),
	}

	registry := providers.NewRegistry(cfg.ForceMockData || opts.ForceMock, log)

	registry.RegisterMarket(polygon.New(polygon.Options{
		APIKey:  keyring.GetOrEmpty(secrets, "polygon", keyring.FieldAPIKey),
		BaseURL: cfg.Providers.Polygon.BaseURL,
		Store:   store,
		TTL:     ttl,
		Log:     log,
	}))

	alpacaProvider := alpaca.New(alpaca.Options{
		KeyID:       keyring.GetOrEmpty(secrets, "alpaca", keyring.FieldKeyID),
		Secret:      keyring.GetOrEmpty(secrets, "alpaca", keyring.FieldSecret),
		Paper:       cfg.Providers.Alpaca.Paper,
		BaseURL:     cfg.Providers.Alpaca.BaseURL,
		DataBaseURL: cfg.Providers.Alpaca.DataBaseURL,
		Store:       store,
		TTL:         ttl,
		Log:         log,
	})
	registry.RegisterMarket(alpacaProvider)
	registry.RegisterTrading(alpacaProvider)

	registry.RegisterMarket(iexcloud.New(iexcloud.Options{
		Token:   keyring.GetOrEmpty(secrets, "iexcloud", keyring.FieldAPIKey),
		BaseURL: cfg.Providers.IEXCloud.BaseURL,
		Store:   store,
		TTL:     ttl,
		Log:     log,
	}))

	registry.RegisterMarket(finnhub.New(finnhub.Options{
		APIKey:        keyring.GetOrEmpty(secrets, "finnhub", keyring.FieldAPIKey),
		BaseURL:       cfg.Providers.Finnhub.BaseURL,
		PerMinuteRate: cfg.Providers.Finnhub.PerMinuteRate,
		Store:         store,
		TTL:           ttl,
		Log:           log,
	}))

	registry.RegisterMarket(alphavantage.New(alphavantage.Options{
		APIKey:     keyring.GetOrEmpty(secrets, "alphavantage", keyring.FieldAPIKey),
		BaseURL:    cfg.Providers.AlphaVantage.BaseURL,
		DailyLimit: cfg.Providers.AlphaVantage.DailyLimit,
		Store:      store,
		TTL:        ttl,
		Log:        log,
	}))

	registry.RegisterTrading(ibkr.New(ibkr.Options{
		GatewayURL: cfg.Providers.IBKR.GatewayURL,
		AccountID:  cfg.Providers.IBKR.AccountID,
		Store:      store,
		TTL:        ttl,
		Log:        log,
	}))

	fallback := mock.New(mock.Options{Log: log})
	registry.SetDefaults(fallback, fallback)

	registry.SetMarketPreference(cfg.Market.Preference)
	registry.SetTradingPreference(cfg.Trading.Preference)

	marketPref, err := providers.Parse(cfg.Market.Provider)
	if err != nil {
		return nil, err
	}
	tradingPref, err := providers.Parse(cfg.Trading.Provider)
	if err != nil {
		return nil, err
	}

	return &App{
		Config:   cfg,
		Log:      log,
		Keyring:  secrets,
		Registry: registry,
		Market:   market.New(registry, marketPref, log),
		Trading:  trading.New(registry, tradingPref, log),
	}, nil
}

// NewStore picks the cache backing store. Disabled caching returns nil,
// which the adapters treat as no caching at all.
func NewStore(cfg *config.Config) cache.Store {
	if !cfg.Cache.Enabled {
		return nil
	}
	if cfg.Cache.Store == "file" {
		dir := cfg.Cache.Dir
		if dir == "" {
			dir = filepath.Join(config.ConfigDir(), "cache")
		}
		return cache.NewFileStore(dir)
	}
	return cache.NewMemoryStore()
}
