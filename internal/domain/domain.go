// Package domain defines the canonical market-data and trading types that
// every provider adapter normalizes into. Consumers (CLI, TUI, HTTP façade)
// only ever see these shapes; vendor field names and units stay inside the
// provider packages.
package domain

import "time"

// Account is the normalized brokerage account snapshot.
type Account struct {
	ID          string  `json:"id"`
	Currency    string  `json:"currency"`
	Cash        float64 `json:"cash"`
	BuyingPower float64 `json:"buyingPower"`
	Equity      float64 `json:"equity"`
	Provider    string  `json:"provider"`
}

// Position is one normalized holding.
type Position struct {
	Symbol               string  `json:"symbol"`
	Quantity             float64 `json:"quantity"`
	AvgEntryPrice        float64 `json:"averageEntryPrice"`
	MarketValue          float64 `json:"marketValue"`
	UnrealizedPnl        float64 `json:"unrealizedPnl"`
	UnrealizedPnlPercent float64 `json:"unrealizedPnlPercent"`
	CurrentPrice         float64 `json:"currentPrice"`
	Provider             string  `json:"provider"`
}

// Quote is the normalized snapshot quote for one symbol.
type Quote struct {
	Symbol        string    `json:"symbol"`
	Price         float64   `json:"price"`
	Change        float64   `json:"change"`
	ChangePercent float64   `json:"changePercent"`
	Volume        int64     `json:"volume"`
	Open          float64   `json:"open"`
	High          float64   `json:"high"`
	Low           float64   `json:"low"`
	PreviousClose float64   `json:"previousClose"`
	Timestamp     time.Time `json:"timestamp"`
	Provider      string    `json:"provider"`
}

// Bar is one normalized OHLCV bar.
type Bar struct {
	Time   time.Time `json:"time"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume int64     `json:"volume"`
}

// BarParams selects the window and resolution for historical bars.
type BarParams struct {
	// Interval is one of "1m", "5m", "15m", "1h", "1d", "1w".
	Interval string
	Start    time.Time
	End      time.Time
	// Limit caps the number of bars returned, most recent last. Zero means
	// the provider default.
	Limit int
}

// SymbolMatch is one result of a symbol search.
type SymbolMatch struct {
	Symbol   string `json:"symbol"`
	Name     string `json:"name"`
	Type     string `json:"type"`
	Region   string `json:"region,omitempty"`
	Currency string `json:"currency,omitempty"`
}

// MoverKind selects a market-movers list.
type MoverKind string

const (
	MoverGainers MoverKind = "gainers"
	MoverLosers  MoverKind = "losers"
	MoverActives MoverKind = "actives"
)

// Mover is one entry in a market-movers list.
type Mover struct {
	Symbol        string  `json:"symbol"`
	Price         float64 `json:"price"`
	Change        float64 `json:"change"`
	ChangePercent float64 `json:"changePercent"`
	Volume        int64   `json:"volume"`
}

// NewsItem is one normalized news article reference.
type NewsItem struct {
	Headline    string    `json:"headline"`
	Source      string    `json:"source"`
	URL         string    `json:"url"`
	Summary     string    `json:"summary,omitempty"`
	PublishedAt time.Time `json:"publishedAt"`
	Symbols     []string  `json:"symbols,omitempty"`
}

// CompanyOverview is the normalized fundamentals snapshot for one symbol.
type CompanyOverview struct {
	Symbol        string  `json:"symbol"`
	Name          string  `json:"name"`
	Exchange      string  `json:"exchange,omitempty"`
	Sector        string  `json:"sector,omitempty"`
	Industry      string  `json:"industry,omitempty"`
	Description   string  `json:"description,omitempty"`
	MarketCap     float64 `json:"marketCap,omitempty"`
	PERatio       float64 `json:"peRatio,omitempty"`
	EPS           float64 `json:"eps,omitempty"`
	DividendYield float64 `json:"dividendYield,omitempty"`
	High52        float64 `json:"week52High,omitempty"`
	Low52         float64 `json:"week52Low,omitempty"`
	Provider      string  `json:"provider,omitempty"`
}

// ChangePercent computes the percent change from previousClose to price.
// Returns 0 when previousClose is 0 so a missing close cannot produce Inf.
func ChangePercent(price, previousClose float64) float64 {
	if previousClose == 0 {
		return 0
	}
	return (price - previousClose) / previousClose * 100
}

// PnlPercent computes unrealized P&L as a percentage of cost basis.
// Returns 0 when costBasis is 0.
func PnlPercent(pnl, costBasis float64) float64 {
	if costBasis == 0 {
		return 0
	}
	return pnl / costBasis * 100
}
