// Package iexcloud adapts the IEX Cloud REST API. Authentication is a token
// query parameter; changePercent arrives as a 0-1 fraction and is scaled to
// percent during normalization.
package iexcloud

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

// DefaultBaseURL is the public IEX Cloud endpoint, stable version.
const DefaultBaseURL = "https://cloud.iexapis.com/stable"

// Options configures the provider.
type Options struct {
	Token     string
	BaseURL   string
	Store     cache.Store
	TTL       providers.TTLs
	Log       zerolog.Logger
	RetryBase time.Duration
}

// Provider implements providers.MarketData over IEX Cloud.
type Provider struct {
	client *rest.Client
	token  string
	ttl    providers.TTLs
}

// New builds the provider. An empty token makes it report unavailable.
func New(opts Options) *Provider {
	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	var c *cache.Cache
	if opts.Store != nil {
		c = cache.New(string(providers.IEXCloud), opts.Store, opts.Log)
	}

	return &Provider{
		client: rest.NewClient(rest.Options{
			Service:   string(providers.IEXCloud),
			BaseURL:   baseURL,
			Auth:      rest.QueryAuth("token", opts.Token),
			Cache:     c,
			Log:       opts.Log,
			RetryBase: opts.RetryBase,
		}),
		token: opts.Token,
		ttl:   opts.TTL,
	}
}

func (p *Provider) ID() providers.ID { return providers.IEXCloud }

// Available reports whether a token is configured.
func (p *Provider) Available() bool { return p.token != "" }

func (p *Provider) Quote(ctx context.Context, symbol string) (domain.Quote, error) {
	var resp quoteResponse
	cc := &rest.CacheSpec{TTL: p.ttl.MarketData, Key: "quote_" + symbol}
	if err := p.client.Get(ctx, "/stock/"+symbol+"/quote", nil, cc, &resp); err != nil {
		return domain.Quote{}, err
	}
	if resp.Symbol == "" {
		return domain.Quote{}, fmt.Errorf("no quote data for %q", symbol)
	}
	return resp.toDomain(), nil
}

func (p *Provider) Bars(ctx context.Context, symbol string, params domain.BarParams) ([]domain.Bar, error) {
	chartRange, err := chartRangeFor(params.Interval)
	if err != nil {
		return nil, err
	}

	var resp []chartBar
	cc := &rest.CacheSpec{TTL: p.ttl.MarketData, Key: fmt.Sprintf("bars_%s_%s", symbol, chartRange)}
	if err := p.client.Get(ctx, "/stock/"+symbol+"/chart/"+chartRange, nil, cc, &resp); err != nil {
		return nil, err
	}
	if len(resp) == 0 {
		return nil, fmt.Errorf("no chart data for %q", symbol)
	}

	bars := make([]domain.Bar, 0, len(resp))
	for _, b := range resp {
		bar := b.toDomain()
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
	var resp []searchResult
	cc := &rest.CacheSpec{TTL: p.ttl.Fundamentals, Key: "search_" + strings.ToLower(query)}
	if err := p.client.Get(ctx, "/search/"+query, nil, cc, &resp); err != nil {
		return nil, err
	}

	matches := make([]domain.SymbolMatch, 0, len(resp))
	for _, r := range resp {
		matches = append(matches, r.toDomain())
	}
	return matches, nil
}

func (p *Provider) Movers(ctx context.Context, kind domain.MoverKind) ([]domain.Mover, error) {
	var list string
	switch kind {
	case domain.MoverGainers:
		list = "gainers"
	case domain.MoverLosers:
		list = "losers"
	case domain.MoverActives:
		list = "mostactive"
	default:
		return nil, fmt.Errorf("unknown movers kind %q", kind)
	}

	var resp []quoteResponse
	cc := &rest.CacheSpec{TTL: p.ttl.MarketData, Key: "movers_" + list}
	if err := p.client.Get(ctx, "/stock/market/list/"+list, nil, cc, &resp); err != nil {
		return nil, err
	}

	movers := make([]domain.Mover, 0, len(resp))
	for _, q := range resp {
		movers = append(movers, q.toMover())
	}
	return movers, nil
}

func (p *Provider) News(ctx context.Context, symbol string) ([]domain.NewsItem, error) {
	var resp []newsArticle
	cc := &rest.CacheSpec{TTL: p.ttl.News, Key: "news_" + symbol}
	if err := p.client.Get(ctx, "/stock/"+symbol+"/news/last/10", nil, cc, &resp); err != nil {
		return nil, err
	}

	items := make([]domain.NewsItem, 0, len(resp))
	for _, a := range resp {
		items = append(items, a.toDomain())
	}
	return items, nil
}

func (p *Provider) Overview(ctx context.Context, symbol string) (domain.CompanyOverview, error) {
	var resp companyResponse
	cc := &rest.CacheSpec{TTL: p.ttl.Fundamentals, Key: "overview_" + symbol}
	if err := p.client.Get(ctx, "/stock/"+symbol+"/company", nil, cc, &resp); err != nil {
		return domain.CompanyOverview{}, err
	}
	if resp.Symbol == "" {
		return domain.CompanyOverview{}, fmt.Errorf("no company data for %q", symbol)
	}
	return resp.toDomain(), nil
}

// chartRangeFor maps a canonical interval onto an IEX chart range. Intraday
// resolutions are not served by the chart endpoint on the standard plan.
func chartRangeFor(interval string) (string, error) {
	switch interval {
	case "", "1d":
		return "3m", nil
	case "1w":
		return "1y", nil
	case "1m", "5m", "15m", "1h":
		return "", fmt.Errorf("unsupported bar interval %q", interval)
	}
	return "", fmt.Errorf("unsupported bar interval %q", interval)
}
