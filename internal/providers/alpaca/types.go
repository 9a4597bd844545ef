package alpaca

import (
	"strconv"
	"time"

	"github.com/skovera/desk/internal/domain"
	"github.com/skovera/desk/internal/providers"
)

type accountResponse struct {
	ID          string `json:"id"`
	Currency    string `json:"currency"`
	Cash        string `json:"cash"`
	BuyingPower string `json:"buying_power"`
	Equity      string `json:"equity"`
	Status      string `json:"status"`
}

func (a accountResponse) toDomain() domain.Account {
	return domain.Account{
		ID:          a.ID,
		Currency:    a.Currency,
		Cash:        parseDecimal(a.Cash),
		BuyingPower: parseDecimal(a.BuyingPower),
		Equity:      parseDecimal(a.Equity),
		Provider:    string(providers.Alpaca),
	}
}

type positionResponse struct {
	Symbol         string `json:"symbol"`
	Qty            string `json:"qty"`
	AvgEntryPrice  string `json:"avg_entry_price"`
	MarketValue    string `json:"market_value"`
	CostBasis      string `json:"cost_basis"`
	UnrealizedPl   string `json:"unrealized_pl"`
	UnrealizedPlpc string `json:"unrealized_plpc"`
	CurrentPrice   string `json:"current_price"`
}

func (p positionResponse) toDomain() domain.Position {
	pnl := parseDecimal(p.UnrealizedPl)
	// unrealized_plpc is a fraction; fall back to pnl over cost basis when
	// the vendor omits it.
	pct := parseDecimal(p.UnrealizedPlpc) * 100
	if p.UnrealizedPlpc == "" {
		pct = domain.PnlPercent(pnl, parseDecimal(p.CostBasis))
	}

	return domain.Position{
		Symbol:               p.Symbol,
		Quantity:             parseDecimal(p.Qty),
		AvgEntryPrice:        parseDecimal(p.AvgEntryPrice),
		MarketValue:          parseDecimal(p.MarketValue),
		UnrealizedPnl:        pnl,
		UnrealizedPnlPercent: pct,
		CurrentPrice:         parseDecimal(p.CurrentPrice),
		Provider:             string(providers.Alpaca),
	}
}

type orderResponse struct {
	ID            string `json:"id"`
	ClientOrderID string `json:"client_order_id"`
	Symbol        string `json:"symbol"`
	Side          string `json:"side"`
	Type          string `json:"type"`
	TimeInForce   string `json:"time_in_force"`
	Qty           string `json:"qty"`
	FilledQty     string `json:"filled_qty"`
	LimitPrice    string `json:"limit_price"`
	StopPrice     string `json:"stop_price"`
	Status        string `json:"status"`
	CreatedAt     string `json:"created_at"`
	UpdatedAt     string `json:"updated_at"`
}

func (o orderResponse) toDomain() domain.Order {
	return domain.Order{
		ID:             o.ID,
		Symbol:         o.Symbol,
		Side:           domain.Side(o.Side),
		Type:           domain.OrderType(o.Type),
		TimeInForce:    domain.TimeInForce(o.TimeInForce),
		Quantity:       parseDecimal(o.Qty),
		FilledQuantity: parseDecimal(o.FilledQty),
		LimitPrice:     parseDecimal(o.LimitPrice),
		StopPrice:      parseDecimal(o.StopPrice),
		Status:         mapOrderStatus(o.Status),
		CreatedAt:      parseTime(o.CreatedAt),
		UpdatedAt:      parseTime(o.UpdatedAt),
		Provider:       string(providers.Alpaca),
	}
}

// mapOrderStatus folds Alpaca's fine-grained lifecycle states into the
// canonical set.
func mapOrderStatus(status string) domain.OrderStatus {
	switch status {
	case "new":
		return domain.OrderNew
	case "accepted", "pending_new", "accepted_for_bidding", "pending_cancel", "pending_replace":
		return domain.OrderPending
	case "partially_filled":
		return domain.OrderPartiallyFilled
	case "filled":
		return domain.OrderFilled
	case "canceled", "expired", "done_for_day", "replaced":
		return domain.OrderCanceled
	case "rejected", "stopped", "suspended":
		return domain.OrderRejected
	}
	return domain.OrderStatus(status)
}

type orderRequestBody struct {
	Symbol        string `json:"symbol"`
	Qty           string `json:"qty"`
	Side          string `json:"side"`
	Type          string `json:"type"`
	TimeInForce   string `json:"time_in_force"`
	LimitPrice    string `json:"limit_price,omitempty"`
	StopPrice     string `json:"stop_price,omitempty"`
	ClientOrderID string `json:"client_order_id,omitempty"`
}

type snapshotResponse struct {
	LatestTrade struct {
		Price     float64   `json:"p"`
		Timestamp time.Time `json:"t"`
	} `json:"latestTrade"`
	DailyBar     barEntry `json:"dailyBar"`
	PrevDailyBar barEntry `json:"prevDailyBar"`
}

func (s snapshotResponse) toQuote(symbol string) domain.Quote {
	price := s.LatestTrade.Price
	if price == 0 {
		price = s.DailyBar.Close
	}
	prev := s.PrevDailyBar.Close

	ts := s.LatestTrade.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	}

	return domain.Quote{
		Symbol:        symbol,
		Price:         price,
		Change:        price - prev,
		ChangePercent: domain.ChangePercent(price, prev),
		Volume:        int64(s.DailyBar.Volume),
		Open:          s.DailyBar.Open,
		High:          s.DailyBar.High,
		Low:           s.DailyBar.Low,
		PreviousClose: prev,
		Timestamp:     ts,
		Provider:      string(providers.Alpaca),
	}
}

type barsResponse struct {
	Bars   []barEntry `json:"bars"`
	Symbol string     `json:"symbol"`
}

type barEntry struct {
	Time   time.Time `json:"t"`
	Open   float64   `json:"o"`
	High   float64   `json:"h"`
	Low    float64   `json:"l"`
	Close  float64   `json:"c"`
	Volume float64   `json:"v"`
}

func (b barEntry) toDomain() domain.Bar {
	return domain.Bar{
		Time:   b.Time,
		Open:   b.Open,
		High:   b.High,
		Low:    b.Low,
		Close:  b.Close,
		Volume: int64(b.Volume),
	}
}

type assetResponse struct {
	Symbol   string `json:"symbol"`
	Name     string `json:"name"`
	Class    string `json:"class"`
	Exchange string `json:"exchange"`
}

func (a assetResponse) toMatch() domain.SymbolMatch {
	return domain.SymbolMatch{
		Symbol:   a.Symbol,
		Name:     a.Name,
		Type:     a.Class,
		Region:   a.Exchange,
		Currency: "USD",
	}
}

type moversResponse struct {
	Gainers []moverEntry `json:"gainers"`
	Losers  []moverEntry `json:"losers"`
}

type moverEntry struct {
	Symbol        string  `json:"symbol"`
	Price         float64 `json:"price"`
	Change        float64 `json:"change"`
	PercentChange float64 `json:"percent_change"`
}

func (m moverEntry) toDomain() domain.Mover {
	return domain.Mover{
		Symbol:        m.Symbol,
		Price:         m.Price,
		Change:        m.Change,
		ChangePercent: m.PercentChange,
	}
}

type mostActivesResponse struct {
	MostActives []activeEntry `json:"most_actives"`
}

type activeEntry struct {
	Symbol string  `json:"symbol"`
	Volume float64 `json:"volume"`
}

func (a activeEntry) toDomain() domain.Mover {
	return domain.Mover{
		Symbol: a.Symbol,
		Volume: int64(a.Volume),
	}
}

type newsResponse struct {
	News []newsArticle `json:"news"`
}

type newsArticle struct {
	Headline  string    `json:"headline"`
	Summary   string    `json:"summary"`
	URL       string    `json:"url"`
	Source    string    `json:"source"`
	CreatedAt time.Time `json:"created_at"`
	Symbols   []string  `json:"symbols"`
}

func (n newsArticle) toDomain() domain.NewsItem {
	return domain.NewsItem{
		Headline:    n.Headline,
		Source:      n.Source,
		URL:         n.URL,
		Summary:     n.Summary,
		PublishedAt: n.CreatedAt,
		Symbols:     n.Symbols,
	}
}

// parseDecimal parses Alpaca's string-encoded decimals, treating empty and
// malformed values as zero.
func parseDecimal(s string) float64 {
	if s == "" {
		return 0
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return f
}

func parseTime(s string) time.Time {
	t, _ := time.Parse(time.RFC3339Nano, s)
	return t
}
