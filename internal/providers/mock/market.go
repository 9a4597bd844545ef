package mock

import (
	"context"
	"fmt"
	"hash/fnv"
	"math/rand"
	"strings"
	"time"

	"github.com/skovera/desk/internal/domain"
	"github.com/skovera/desk/internal/providers"
)

// Synthetic data is seeded per symbol so the same symbol always renders the
// same prices within a day, which keeps tests and repeated UI refreshes
// stable.

func symbolSeed(symbol string, day time.Time) int64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(strings.ToUpper(symbol)))
	_, _ = h.Write([]byte(day.Format("2006-01-02")))
	return int64(h.Sum64())
}

// priceFor is the current synthetic price, also used to fill orders.
// Callers must not rely on it being goroutine-local; it is pure.
func (p *Provider) priceFor(symbol string) float64 {
	day := p.now().UTC().Truncate(24 * time.Hour)
	rng := rand.New(rand.NewSource(symbolSeed(symbol, day)))
	base := 20 + rng.Float64()*480
	return round2(base)
}

func (p *Provider) Quote(ctx context.Context, symbol string) (domain.Quote, error) {
	symbol = strings.ToUpper(symbol)
	day := p.now().UTC().Truncate(24 * time.Hour)
	rng := rand.New(rand.NewSource(symbolSeed(symbol, day)))

	base := 20 + rng.Float64()*480
	price := round2(base)
	prev := round2(base * (1 + (rng.Float64()-0.5)*0.06))
	high := round2(maxf(price, prev) * (1 + rng.Float64()*0.01))
	low := round2(minf(price, prev) * (1 - rng.Float64()*0.01))

	return domain.Quote{
		Symbol:        symbol,
		Price:         price,
		Change:        round2(price - prev),
		ChangePercent: domain.ChangePercent(price, prev),
		Volume:        1_000_000 + rng.Int63n(100_000_000),
		Open:          prev,
		High:          high,
		Low:           low,
		PreviousClose: prev,
		Timestamp:     p.now().UTC(),
		Provider:      string(providers.Mock),
	}, nil
}

func (p *Provider) Bars(ctx context.Context, symbol string, params domain.BarParams) ([]domain.Bar, error) {
	symbol = strings.ToUpper(symbol)
	step := barStep(params.Interval)

	count := params.Limit
	if count <= 0 {
		count = 100
	}
	end := params.End
	if end.IsZero() {
		end = p.now().UTC()
	}

	// Walk backwards from the end so the most recent bar is last.
	rng := rand.New(rand.NewSource(symbolSeed(symbol, end.Truncate(24*time.Hour))))
	price := 20 + rng.Float64()*480

	bars := make([]domain.Bar, count)
	for i := count - 1; i >= 0; i-- {
		open := price * (1 + (rng.Float64()-0.5)*0.02)
		closePx := price
		high := maxf(open, closePx) * (1 + rng.Float64()*0.005)
		low := minf(open, closePx) * (1 - rng.Float64()*0.005)

		bars[i] = domain.Bar{
			Time:   end.Add(-time.Duration(count-1-i) * step),
			Open:   round2(open),
			High:   round2(high),
			Low:    round2(low),
			Close:  round2(closePx),
			Volume: 1_000_000 + rng.Int63n(50_000_000),
		}
		price = open
	}

	if !params.Start.IsZero() {
		filtered := bars[:0]
		for _, b := range bars {
			if !b.Time.Before(params.Start) {
				filtered = append(filtered, b)
			}
		}
		bars = filtered
	}
	return bars, nil
}

func (p *Provider) Search(ctx context.Context, query string) ([]domain.SymbolMatch, error) {
	symbol := strings.ToUpper(strings.TrimSpace(query))
	if symbol == "" {
		return nil, nil
	}
	return []domain.SymbolMatch{{
		Symbol:   symbol,
		Name:     fmt.Sprintf("%s Holdings (simulated)", strings.Title(strings.ToLower(symbol))),
		Type:     "Equity",
		Region:   "United States",
		Currency: "USD",
	}}, nil
}

func (p *Provider) Movers(ctx context.Context, kind domain.MoverKind) ([]domain.Mover, error) {
	symbols := []string{"AAPL", "MSFT", "NVDA", "TSLA", "AMZN", "META", "GOOGL", "AMD", "NFLX", "INTC"}

	movers := make([]domain.Mover, 0, len(symbols))
	for _, sym := range symbols {
		q, err := p.Quote(ctx, sym)
		if err != nil {
			return nil, err
		}
		switch kind {
		case domain.MoverGainers:
			if q.ChangePercent <= 0 {
				continue
			}
		case domain.MoverLosers:
			if q.ChangePercent >= 0 {
				continue
			}
		case domain.MoverActives:
		default:
			return nil, fmt.Errorf("unknown movers kind %q", kind)
		}
		movers = append(movers, domain.Mover{
			Symbol:        q.Symbol,
			Price:         q.Price,
			Change:        q.Change,
			ChangePercent: q.ChangePercent,
			Volume:        q.Volume,
		})
	}
	return movers, nil
}

func (p *Provider) News(ctx context.Context, symbol string) ([]domain.NewsItem, error) {
	symbol = strings.ToUpper(symbol)
	now := p.now().UTC()
	return []domain.NewsItem{
		{
			Headline:    fmt.Sprintf("%s reports simulated quarterly results", symbol),
			Source:      "Mock Newswire",
			URL:         "https://example.com/news/1",
			Summary:     "Synthetic article served because no market-data provider is configured.",
			PublishedAt: now.Add(-2 * time.Hour),
			Symbols:     []string{symbol},
		},
		{
			Headline:    fmt.Sprintf("Analysts weigh in on %s (simulated)", symbol),
			Source:      "Mock Newswire",
			URL:         "https://example.com/news/2",
			PublishedAt: now.Add(-26 * time.Hour),
			Symbols:     []string{symbol},
		},
	}, nil
}

func (p *Provider) Overview(ctx context.Context, symbol string) (domain.CompanyOverview, error) {
	symbol = strings.ToUpper(symbol)
	q, _ := p.Quote(ctx, symbol)
	return domain.CompanyOverview{
		Symbol:      symbol,
		Name:        fmt.Sprintf("%s Holdings (simulated)", strings.Title(strings.ToLower(symbol))),
		Exchange:    "MOCK",
		Sector:      "Simulation",
		Industry:    "Synthetic Data",
		Description: "Deterministic synthetic instrument.",
		MarketCap:   q.Price * 1e9,
		High52:      round2(q.Price * 1.3),
		Low52:       round2(q.Price * 0.7),
		Provider:    string(providers.Mock),
	}, nil
}

func barStep(interval string) time.Duration {
	switch interval {
	case "1m":
		return time.Minute
	case "5m":
		return 5 * time.Minute
	case "15m":
		return 15 * time.Minute
	case "1h":
		return time.Hour
	case "1w":
		return 7 * 24 * time.Hour
	default:
		return 24 * time.Hour
	}
}

func round2(f float64) float64 {
	return float64(int64(f*100+0.5)) / 100
}

func maxf(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

func minf(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
