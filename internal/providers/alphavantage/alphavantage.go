// Package alphavantage adapts the Alpha Vantage REST API. Every response
// field arrives as a string, keyed by numbered labels; the free tier
// budget is 25 requests per day, enforced client-side before any call.
package alphavantage

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/skovera/desk/internal/cache"
	"github.com/skovera/desk/internal/domain"
	"github.com/skovera/desk/internal/providers"
	"github.com/skovera/desk/internal/ratelimit"
	"github.com/skovera/desk/internal/rest"
)

// DefaultBaseURL is the public Alpha Vantage endpoint.
const DefaultBaseURL = "https://www.alphavantage.co"

// Options configures the provider.
type Options struct {
	APIKey     string
	BaseURL    string
	DailyLimit int
	Store      cache.Store
	TTL        providers.TTLs
	Log        zerolog.Logger
	RetryBase  time.Duration
}

// Provider implements providers.MarketData over Alpha Vantage.
type Provider struct {
	client  *rest.Client
	apiKey  string
	limiter *ratelimit.Limiter
	ttl     providers.TTLs
}

// New builds the provider. The API key may be empty; the provider then
// reports itself unavailable.
func New(opts Options) *Provider {
	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	limit := opts.DailyLimit
	if limit <= 0 {
		limit = 25
	}

	var c *cache.Cache
	if opts.Store != nil {
		c = cache.New(string(providers.AlphaVantage), opts.Store, opts.Log)
	}

	return &Provider{
		client: rest.NewClient(rest.Options{
			Service:   string(providers.AlphaVantage),
			BaseURL:   baseURL,
			Auth:      rest.QueryAuth("apikey", opts.APIKey),
			Cache:     c,
			Log:       opts.Log,
			RetryBase: opts.RetryBase,
		}),
		apiKey:  opts.APIKey,
		limiter: ratelimit.New(string(providers.AlphaVantage), limit, 24*time.Hour),
		ttl:     opts.TTL,
	}
}

func (p *Provider) ID() providers.ID { return providers.AlphaVantage }

// Available reports whether an API key is configured.
func (p *Provider) Available() bool { return p.apiKey != "" }

// Remaining reports how many requests are left in today's budget.
func (p *Provider) Remaining() int { return p.limiter.Remaining() }

// get wraps every call with the daily budget and the throttle-note check:
// Alpha Vantage reports throttling as a 200 with a Note/Information body.
func (p *Provider) get(ctx context.Context, params map[string]string, cc *rest.CacheSpec, out noteChecker) error {
	if err := p.limiter.Allow(); err != nil {
		return err
	}
	if err := p.client.Get(ctx, "/query", params, cc, out); err != nil {
		return err
	}
	if note := out.note(); note != "" {
		return fmt.Errorf("alphavantage throttled: %s", note)
	}
	return nil
}

func (p *Provider) Quote(ctx context.Context, symbol string) (domain.Quote, error) {
	var resp globalQuoteResponse
	err := p.get(ctx, map[string]string{
		"function": "GLOBAL_QUOTE",
		"symbol":   symbol,
	}, &rest.CacheSpec{TTL: p.ttl.MarketData, Key: "quote_" + symbol}, &resp)
	if err != nil {
		return domain.Quote{}, err
	}
	if resp.GlobalQuote.Symbol == "" {
		return domain.Quote{}, fmt.Errorf("no quote data for %q", symbol)
	}
	return resp.GlobalQuote.toDomain(), nil
}

func (p *Provider) Bars(ctx context.Context, symbol string, params domain.BarParams) ([]domain.Bar, error) {
	query := map[string]string{"symbol": symbol, "outputsize": "compact"}
	seriesKey := ""
	switch params.Interval {
	case "", "1d":
		query["function"] = "TIME_SERIES_DAILY"
		seriesKey = "Time Series (Daily)"
	case "1w":
		query["function"] = "TIME_SERIES_WEEKLY"
		seriesKey = "Weekly Time Series"
	case "1m", "5m", "15m", "30m", "1h":
		query["function"] = "TIME_SERIES_INTRADAY"
		query["interval"] = intradayInterval(params.Interval)
		seriesKey = "Time Series (" + query["interval"] + ")"
	default:
		return nil, fmt.Errorf("unsupported bar interval %q", params.Interval)
	}

	var resp timeSeriesResponse
	cc := &rest.CacheSpec{TTL: p.ttl.MarketData, Key: fmt.Sprintf("bars_%s_%s", symbol, params.Interval)}
	if err := p.get(ctx, query, cc, &resp); err != nil {
		return nil, err
	}

	series := resp.series(seriesKey)
	if len(series) == 0 {
		return nil, fmt.Errorf("no time series data for %q", symbol)
	}

	stamps := make([]string, 0, len(series))
	for ts := range series {
		stamps = append(stamps, ts)
	}
	sort.Strings(stamps)

	bars := make([]domain.Bar, 0, len(stamps))
	for _, ts := range stamps {
		bar := series[ts].toDomain(ts)
		if !params.Start.IsZero() && bar.Time.Before(params.Start) {
			continue
		}
		if !params.End.IsZero() && bar.Time.After(params.End) {
			continue
		}
		bars = append(bars, bar)
	}
	if params.Limit > 0 && len(bars) > params.Limit {
		bars = bars[len(bars)-params.Limit:]
	}
	return bars, nil
}

func (p *Provider) Search(ctx context.Context, query string) ([]domain.SymbolMatch, error) {
	var resp symbolSearchResponse
	err := p.get(ctx, map[string]string{
		"function": "SYMBOL_SEARCH",
		"keywords": query,
	}, &rest.CacheSpec{TTL: p.ttl.Fundamentals, Key: "search_" + strings.ToLower(query)}, &resp)
	if err != nil {
		return nil, err
	}

	matches := make([]domain.SymbolMatch, 0, len(resp.BestMatches))
	for _, m := range resp.BestMatches {
		matches = append(matches, m.toDomain())
	}
	return matches, nil
}

func (p *Provider) Movers(ctx context.Context, kind domain.MoverKind) ([]domain.Mover, error) {
	var resp topMoversResponse
	err := p.get(ctx, map[string]string{"function": "TOP_GAINERS_LOSERS"},
		&rest.CacheSpec{TTL: p.ttl.MarketData, Key: "movers"}, &resp)
	if err != nil {
		return nil, err
	}

	var raw []moverEntry
	switch kind {
	case domain.MoverGainers:
		raw = resp.TopGainers
	case domain.MoverLosers:
		raw = resp.TopLosers
	case domain.MoverActives:
		raw = resp.MostActivelyTraded
	default:
		return nil, fmt.Errorf("unknown movers kind %q", kind)
	}

	movers := make([]domain.Mover, 0, len(raw))
	for _, m := range raw {
		movers = append(movers, m.toDomain())
	}
	return movers, nil
}

func (p *Provider) News(ctx context.Context, symbol string) ([]domain.NewsItem, error) {
	var resp newsResponse
	err := p.get(ctx, map[string]string{
		"function": "NEWS_SENTIMENT",
		"tickers":  symbol,
		"limit":    "20",
	}, &rest.CacheSpec{TTL: p.ttl.News, Key: "news_" + symbol}, &resp)
	if err != nil {
		return nil, err
	}

	items := make([]domain.NewsItem, 0, len(resp.Feed))
	for _, f := range resp.Feed {
		items = append(items, f.toDomain())
	}
	return items, nil
}

func (p *Provider) Overview(ctx context.Context, symbol string) (domain.CompanyOverview, error) {
	var resp overviewResponse
	err := p.get(ctx, map[string]string{
		"function": "OVERVIEW",
		"symbol":   symbol,
	}, &rest.CacheSpec{TTL: p.ttl.Fundamentals, Key: "overview_" + symbol}, &resp)
	if err != nil {
		return domain.CompanyOverview{}, err
	}
	if resp.Symbol == "" {
		return domain.CompanyOverview{}, fmt.Errorf("no overview data for %q", symbol)
	}
	return resp.toDomain(), nil
}

func intradayInterval(interval string) string {
	switch interval {
	case "1m":
		return "1min"
	case "5m":
		return "5min"
	case "15m":
		return "15min"
	case "30m":
		return "30min"
	default:
		return "60min"
	}
}
