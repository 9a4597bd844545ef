// Package polygon adapts the Polygon.io REST API: v2 aggregates and
// snapshots, v3 reference data. Authentication is an apiKey query parameter.
package polygon

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/skovera/desk/internal/cache"
	"github.com/skovera/desk/internal/domain"
	"github.com/skovera/desk/internal/providers"
	"github.com/skovera/desk/internal/rest"
)

// DefaultBaseURL is the public Polygon endpoint.
const DefaultBaseURL = "https://api.polygon.io"

// Options configures the provider.
type Options struct {
	APIKey    string
	BaseURL   string
	Store     cache.Store
	TTL       providers.TTLs
	Log       zerolog.Logger
	RetryBase time.Duration
}

// Provider implements providers.MarketData over Polygon.
type Provider struct {
	client *rest.Client
	apiKey string
	ttl    providers.TTLs
	now    func() time.Time
}

// New builds the provider. An empty API key makes it report unavailable.
func New(opts Options) *Provider {
	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	var c *cache.Cache
	if opts.Store != nil {
		c = cache.New(string(providers.Polygon), opts.Store, opts.Log)
	}

	return &Provider{
		client: rest.NewClient(rest.Options{
			Service:   string(providers.Polygon),
			BaseURL:   baseURL,
			Auth:      rest.QueryAuth("apiKey", opts.APIKey),
			Cache:     c,
			Log:       opts.Log,
			RetryBase: opts.RetryBase,
		}),
		apiKey: opts.APIKey,
		ttl:    opts.TTL,
		now:    time.Now,
	}
}

func (p *Provider) ID() providers.ID { return providers.Polygon }

// Available reports whether an API key is configured.
func (p *Provider) Available() bool { return p.apiKey != "" }

func (p *Provider) Quote(ctx context.Context, symbol string) (domain.Quote, error) {
	var resp snapshotResponse
	path := "/v2/snapshot/locale/us/markets/stocks/tickers/" + symbol
	cc := &rest.CacheSpec{TTL: p.ttl.MarketData, Key: "quote_" + symbol}
	if err := p.client.Get(ctx, path, nil, cc, &resp); err != nil {
		return domain.Quote{}, err
	}
	if resp.Ticker.Ticker == "" {
		return domain.Quote{}, fmt.Errorf("no snapshot data for %q", symbol)
	}
	return resp.Ticker.toQuote(), nil
}

func (p *Provider) Bars(ctx context.Context, symbol string, params domain.BarParams) ([]domain.Bar, error) {
	mult, timespan, lookback, err := aggWindow(params.Interval)
	if err != nil {
		return nil, err
	}

	end := params.End
	if end.IsZero() {
		end = p.now()
	}
	start := params.Start
	if start.IsZero() {
		start = end.Add(-lookback)
	}

	path := fmt.Sprintf("/v2/aggs/ticker/%s/range/%d/%s/%s/%s",
		symbol, mult, timespan, start.Format("2006-01-02"), end.Format("2006-01-02"))

	var resp aggsResponse
	cc := &rest.CacheSpec{
		TTL: p.ttl.MarketData,
		Key: fmt.Sprintf("bars_%s_%s_%s_%s", symbol, params.Interval, start.Format("2006-01-02"), end.Format("2006-01-02")),
	}
	err = p.client.Get(ctx, path, map[string]string{
		"adjusted": "true",
		"sort":     "asc",
		"limit":    "5000",
	}, cc, &resp)
	if err != nil {
		return nil, err
	}
	if len(resp.Results) == 0 {
		return nil, fmt.Errorf("no aggregate data for %q", symbol)
	}

	bars := make([]domain.Bar, 0, len(resp.Results))
	for _, a := range resp.Results {
		bars = append(bars, a.toBar())
	}
	if params.Limit > 0 && len(bars) > params.Limit {
		bars = bars[len(bars)-params.Limit:]
	}
	return bars, nil
}

func (p *Provider) Search(ctx context.Context, query string) ([]domain.SymbolMatch, error) {
	var resp tickersResponse
	cc := &rest.CacheSpec{TTL: p.ttl.Fundamentals, Key: "search_" + strings.ToLower(query)}
	err := p.client.Get(ctx, "/v3/reference/tickers", map[string]string{
		"search": query,
		"active": "true",
		"limit":  "20",
	}, cc, &resp)
	if err != nil {
		return nil, err
	}

	matches := make([]domain.SymbolMatch, 0, len(resp.Results))
	for _, r := range resp.Results {
		matches = append(matches, r.toMatch())
	}
	return matches, nil
}

func (p *Provider) Movers(ctx context.Context, kind domain.MoverKind) ([]domain.Mover, error) {
	var direction string
	switch kind {
	case domain.MoverGainers:
		direction = "gainers"
	case domain.MoverLosers:
		direction = "losers"
	case domain.MoverActives:
		// Polygon has no most-active endpoint.
		return nil, providers.NotSupported(providers.Polygon, "movers/actives")
	default:
		return nil, fmt.Errorf("unknown movers kind %q", kind)
	}

	var resp moversResponse
	path := "/v2/snapshot/locale/us/markets/stocks/" + direction
	cc := &rest.CacheSpec{TTL: p.ttl.MarketData, Key: "movers_" + direction}
	if err := p.client.Get(ctx, path, nil, cc, &resp); err != nil {
		return nil, err
	}

	movers := make([]domain.Mover, 0, len(resp.Tickers))
	for _, t := range resp.Tickers {
		movers = append(movers, t.toMover())
	}
	return movers, nil
}

func (p *Provider) News(ctx context.Context, symbol string) ([]domain.NewsItem, error) {
	var resp newsResponse
	cc := &rest.CacheSpec{TTL: p.ttl.News, Key: "news_" + symbol}
	err := p.client.Get(ctx, "/v2/reference/news", map[string]string{
		"ticker": symbol,
		"limit":  "20",
	}, cc, &resp)
	if err != nil {
		return nil, err
	}

	items := make([]domain.NewsItem, 0, len(resp.Results))
	for _, r := range resp.Results {
		items = append(items, r.toDomain())
	}
	return items, nil
}

func (p *Provider) Overview(ctx context.Context, symbol string) (domain.CompanyOverview, error) {
	var resp tickerDetailsResponse
	cc := &rest.CacheSpec{TTL: p.ttl.Fundamentals, Key: "overview_" + symbol}
	if err := p.client.Get(ctx, "/v3/reference/tickers/"+symbol, nil, cc, &resp); err != nil {
		return domain.CompanyOverview{}, err
	}
	if resp.Results.Ticker == "" {
		return domain.CompanyOverview{}, fmt.Errorf("no ticker details for %q", symbol)
	}
	return resp.Results.toOverview(), nil
}

// aggWindow maps a canonical interval onto Polygon's multiplier/timespan
// pair and a default lookback window when the caller gives no range.
func aggWindow(interval string) (mult int, timespan string, lookback time.Duration, err error) {
	switch interval {
	case "1m":
		return 1, "minute", 24 * time.Hour, nil
	case "5m":
		return 5, "minute", 5 * 24 * time.Hour, nil
	case "15m":
		return 15, "minute", 5 * 24 * time.Hour, nil
	case "1h":
		return 1, "hour", 30 * 24 * time.Hour, nil
	case "", "1d":
		return 1, "day", 90 * 24 * time.Hour, nil
	case "1w":
		return 1, "week", 365 * 24 * time.Hour, nil
	}
	return 0, "", 0, fmt.Errorf("unsupported bar interval %q", interval)
}
