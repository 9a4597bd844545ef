// Package finnhub adapts the Finnhub REST API. Authentication is the
// X-Finnhub-Token header; the free tier allows 60 requests per minute,
// enforced client-side. Finnhub has no market-movers endpoint.
package finnhub

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/skovera/desk/internal/cache"
	"github.com/skovera/desk/internal/domain"
	"github.com/skovera/desk/internal/providers"
	"github.com/skovera/desk/internal/ratelimit"
	"github.com/skovera/desk/internal/rest"
)

// DefaultBaseURL is the public Finnhub endpoint.
const DefaultBaseURL = "https://finnhub.io/api/v1"

// Options configures the provider.
type Options struct {
	APIKey        string
	BaseURL       string
	PerMinuteRate int
	Store         cache.Store
	TTL           providers.TTLs
	Log           zerolog.Logger
	RetryBase     time.Duration
}

// Provider implements providers.MarketData over Finnhub.
type Provider struct {
	client  *rest.Client
	apiKey  string
	limiter *ratelimit.Limiter
	ttl     providers.TTLs
	now     func() time.Time
}

// New builds the provider. An empty API key makes it report unavailable.
func New(opts Options) *Provider {
	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	rate := opts.PerMinuteRate
	if rate <= 0 {
		rate = 60
	}

	var c *cache.Cache
	if opts.Store != nil {
		c = cache.New(string(providers.Finnhub), opts.Store, opts.Log)
	}

	return &Provider{
		client: rest.NewClient(rest.Options{
			Service:   string(providers.Finnhub),
			BaseURL:   baseURL,
			Auth:      rest.HeaderAuth(map[string]string{"X-Finnhub-Token": opts.APIKey}),
			Cache:     c,
			Log:       opts.Log,
			RetryBase: opts.RetryBase,
		}),
		apiKey:  opts.APIKey,
		limiter: ratelimit.New(string(providers.Finnhub), rate, time.Minute),
		ttl:     opts.TTL,
		now:     time.Now,
	}
}

func (p *Provider) ID() providers.ID { return providers.Finnhub }

// Available reports whether an API key is configured.
func (p *Provider) Available() bool { return p.apiKey != "" }

func (p *Provider) get(ctx context.Context, path string, params map[string]string, cc *rest.CacheSpec, out any) error {
	if err := p.limiter.Allow(); err != nil {
		return err
	}
	return p.client.Get(ctx, path, params, cc, out)
}

func (p *Provider) Quote(ctx context.Context, symbol string) (domain.Quote, error) {
	var resp quoteResponse
	cc := &rest.CacheSpec{TTL: p.ttl.MarketData, Key: "quote_" + symbol}
	if err := p.get(ctx, "/quote", map[string]string{"symbol": symbol}, cc, &resp); err != nil {
		return domain.Quote{}, err
	}
	// Finnhub returns all zeros for unknown symbols rather than an error.
	if resp.Current == 0 && resp.PrevClose == 0 && resp.Timestamp == 0 {
		return domain.Quote{}, fmt.Errorf("no quote data for %q", symbol)
	}
	return resp.toDomain(symbol), nil
}

func (p *Provider) Bars(ctx context.Context, symbol string, params domain.BarParams) ([]domain.Bar, error) {
	resolution, lookback, err := resolutionFor(params.Interval)
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

	var resp candleResponse
	cc := &rest.CacheSpec{
		TTL: p.ttl.MarketData,
		Key: fmt.Sprintf("bars_%s_%s_%d_%d", symbol, resolution, start.Unix(), end.Unix()),
	}
	err = p.get(ctx, "/stock/candle", map[string]string{
		"symbol":     symbol,
		"resolution": resolution,
		"from":       strconv.FormatInt(start.Unix(), 10),
		"to":         strconv.FormatInt(end.Unix(), 10),
	}, cc, &resp)
	if err != nil {
		return nil, err
	}
	if resp.Status != "ok" || len(resp.Close) == 0 {
		return nil, fmt.Errorf("no candle data for %q", symbol)
	}

	bars := resp.toDomain()
	if params.Limit > 0 && len(bars) > params.Limit {
		bars = bars[len(bars)-params.Limit:]
	}
	return bars, nil
}

func (p *Provider) Search(ctx context.Context, query string) ([]domain.SymbolMatch, error) {
	var resp searchResponse
	cc := &rest.CacheSpec{TTL: p.ttl.Fundamentals, Key: "search_" + strings.ToLower(query)}
	if err := p.get(ctx, "/search", map[string]string{"q": query}, cc, &resp); err != nil {
		return nil, err
	}

	matches := make([]domain.SymbolMatch, 0, len(resp.Result))
	for _, r := range resp.Result {
		matches = append(matches, r.toDomain())
	}
	return matches, nil
}

func (p *Provider) Movers(ctx context.Context, kind domain.MoverKind) ([]domain.Mover, error) {
	return nil, providers.NotSupported(providers.Finnhub, "movers")
}

func (p *Provider) News(ctx context.Context, symbol string) ([]domain.NewsItem, error) {
	to := p.now()
	from := to.Add(-7 * 24 * time.Hour)

	var resp []newsArticle
	cc := &rest.CacheSpec{TTL: p.ttl.News, Key: "news_" + symbol}
	err := p.get(ctx, "/company-news", map[string]string{
		"symbol": symbol,
		"from":   from.Format("2006-01-02"),
		"to":     to.Format("2006-01-02"),
	}, cc, &resp)
	if err != nil {
		return nil, err
	}

	items := make([]domain.NewsItem, 0, len(resp))
	for _, a := range resp {
		items = append(items, a.toDomain())
	}
	return items, nil
}

func (p *Provider) Overview(ctx context.Context, symbol string) (domain.CompanyOverview, error) {
	var resp profileResponse
	cc := &rest.CacheSpec{TTL: p.ttl.Fundamentals, Key: "overview_" + symbol}
	if err := p.get(ctx, "/stock/profile2", map[string]string{"symbol": symbol}, cc, &resp); err != nil {
		return domain.CompanyOverview{}, err
	}
	if resp.Ticker == "" {
		return domain.CompanyOverview{}, fmt.Errorf("no profile data for %q", symbol)
	}
	return resp.toDomain(), nil
}

// Sentiment returns Finnhub's news-sentiment scores for a symbol. Scores
// are the vendor's 0-1 scale; this stays vendor-local and is not part of
// the canonical model.
func (p *Provider) Sentiment(ctx context.Context, symbol string) (SentimentScores, error) {
	var resp SentimentScores
	cc := &rest.CacheSpec{TTL: p.ttl.News, Key: "sentiment_" + symbol}
	if err := p.get(ctx, "/news-sentiment", map[string]string{"symbol": symbol}, cc, &resp); err != nil {
		return SentimentScores{}, err
	}
	return resp, nil
}

func resolutionFor(interval string) (string, time.Duration, error) {
	switch interval {
	case "1m":
		return "1", 24 * time.Hour, nil
	case "5m":
		return "5", 5 * 24 * time.Hour, nil
	case "15m":
		return "15", 5 * 24 * time.Hour, nil
	case "1h":
		return "60", 30 * 24 * time.Hour, nil
	case "", "1d":
		return "D", 90 * 24 * time.Hour, nil
	case "1w":
		return "W", 365 * 24 * time.Hour, nil
	}
	return "", 0, fmt.Errorf("unsupported bar interval %q", interval)
}
