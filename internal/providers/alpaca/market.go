package alpaca

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/skovera/desk/internal/domain"
	"github.com/skovera/desk/internal/providers"
	"github.com/skovera/desk/internal/rest"
)

func (p *Provider) Quote(ctx context.Context, symbol string) (domain.Quote, error) {
	var resp snapshotResponse
	cc := &rest.CacheSpec{TTL: p.ttl.MarketData, Key: "quote_" + symbol}
	if err := p.data.Get(ctx, "/v2/stocks/"+symbol+"/snapshot", nil, cc, &resp); err != nil {
		return domain.Quote{}, err
	}
	if resp.LatestTrade.Price == 0 && resp.DailyBar.Close == 0 {
		return domain.Quote{}, fmt.Errorf("no snapshot data for %q", symbol)
	}
	return resp.toQuote(symbol), nil
}

func (p *Provider) Bars(ctx context.Context, symbol string, params domain.BarParams) ([]domain.Bar, error) {
	timeframe, err := timeframeFor(params.Interval)
	if err != nil {
		return nil, err
	}

	query := map[string]string{
		"timeframe":  timeframe,
		"adjustment": "split",
	}
	if !params.Start.IsZero() {
		query["start"] = params.Start.Format("2006-01-02")
	}
	if !params.End.IsZero() {
		query["end"] = params.End.Format("2006-01-02")
	}
	if params.Limit > 0 {
		query["limit"] = fmt.Sprintf("%d", params.Limit)
	}

	var resp barsResponse
	cc := &rest.CacheSpec{TTL: p.ttl.MarketData, Key: fmt.Sprintf("bars_%s_%s", symbol, timeframe)}
	if err := p.data.Get(ctx, "/v2/stocks/"+symbol+"/bars", query, cc, &resp); err != nil {
		return nil, err
	}
	if len(resp.Bars) == 0 {
		return nil, fmt.Errorf("no bar data for %q", symbol)
	}

	bars := make([]domain.Bar, 0, len(resp.Bars))
	for _, b := range resp.Bars {
		bars = append(bars, b.toDomain())
	}
	return bars, nil
}

// Search resolves an exact symbol through the assets endpoint. Alpaca has
// no fuzzy search; an unknown symbol yields an empty result, not an error.
func (p *Provider) Search(ctx context.Context, query string) ([]domain.SymbolMatch, error) {
	symbol := strings.ToUpper(strings.TrimSpace(query))

	var resp assetResponse
	cc := &rest.CacheSpec{TTL: p.ttl.Fundamentals, Key: "asset_" + symbol}
	if err := p.trading.Get(ctx, "/v2/assets/"+symbol, nil, cc, &resp); err != nil {
		var apiErr *rest.APIError
		if errors.As(err, &apiErr) && apiErr.IsNotFound() {
			return nil, nil
		}
		return nil, err
	}
	return []domain.SymbolMatch{resp.toMatch()}, nil
}

func (p *Provider) Movers(ctx context.Context, kind domain.MoverKind) ([]domain.Mover, error) {
	if kind == domain.MoverActives {
		var resp mostActivesResponse
		cc := &rest.CacheSpec{TTL: p.ttl.MarketData, Key: "movers_actives"}
		err := p.data.Get(ctx, "/v1beta1/screener/stocks/most-actives",
			map[string]string{"top": "10"}, cc, &resp)
		if err != nil {
			return nil, err
		}
		movers := make([]domain.Mover, 0, len(resp.MostActives))
		for _, m := range resp.MostActives {
			movers = append(movers, m.toDomain())
		}
		return movers, nil
	}

	var resp moversResponse
	cc := &rest.CacheSpec{TTL: p.ttl.MarketData, Key: "movers"}
	err := p.data.Get(ctx, "/v1beta1/screener/stocks/movers",
		map[string]string{"top": "10"}, cc, &resp)
	if err != nil {
		return nil, err
	}

	var raw []moverEntry
	switch kind {
	case domain.MoverGainers:
		raw = resp.Gainers
	case domain.MoverLosers:
		raw = resp.Losers
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
	cc := &rest.CacheSpec{TTL: p.ttl.News, Key: "news_" + symbol}
	err := p.data.Get(ctx, "/v1beta1/news", map[string]string{
		"symbols": symbol,
		"limit":   "20",
	}, cc, &resp)
	if err != nil {
		return nil, err
	}

	items := make([]domain.NewsItem, 0, len(resp.News))
	for _, n := range resp.News {
		items = append(items, n.toDomain())
	}
	return items, nil
}

func (p *Provider) Overview(ctx context.Context, symbol string) (domain.CompanyOverview, error) {
	return domain.CompanyOverview{}, providers.NotSupported(providers.Alpaca, "overview")
}

func timeframeFor(interval string) (string, error) {
	switch interval {
	case "1m":
		return "1Min", nil
	case "5m":
		return "5Min", nil
	case "15m":
		return "15Min", nil
	case "1h":
		return "1Hour", nil
	case "", "1d":
		return "1Day", nil
	case "1w":
		return "1Week", nil
	}
	return "", fmt.Errorf("unsupported bar interval %q", interval)
}
