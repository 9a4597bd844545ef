package ibkr

import (
	"strconv"
	"strings"
	"time"

	"github.com/skovera/desk/internal/domain"
	"github.com/skovera/desk/internal/providers"
)

// snapshotFields are the numbered market-data fields requested from the
// gateway: 31 last, 70 high, 71 low, 82 change, 83 change percent,
// 87 volume, 7295 open, 7296 prior close.
const snapshotFields = "31,70,71,82,83,87,7295,7296"

type summaryResponse struct {
	TotalCashValue amountField `json:"totalcashvalue"`
	BuyingPower    amountField `json:"buyingpower"`
	NetLiquidation amountField `json:"netliquidation"`
}

type amountField struct {
	Amount   float64 `json:"amount"`
	Currency string  `json:"currency"`
}

func (s summaryResponse) toDomain(accountID string) domain.Account {
	currency := s.NetLiquidation.Currency
	if currency == "" {
		currency = "USD"
	}
	return domain.Account{
		ID:          accountID,
		Currency:    currency,
		Cash:        s.TotalCashValue.Amount,
		BuyingPower: s.BuyingPower.Amount,
		Equity:      s.NetLiquidation.Amount,
		Provider:    string(providers.IBKR),
	}
}

type positionResponse struct {
	Conid         int64   `json:"conid"`
	ContractDesc  string  `json:"contractDesc"`
	Ticker        string  `json:"ticker"`
	Position      float64 `json:"position"`
	MktPrice      float64 `json:"mktPrice"`
	MktValue      float64 `json:"mktValue"`
	AvgCost       float64 `json:"avgCost"`
	UnrealizedPnl float64 `json:"unrealizedPnl"`
}

func (p positionResponse) toDomain() domain.Position {
	// Some rows carry no ticker; the first word of the contract description
	// is the symbol there. Rows with neither fall back to the contract id.
	symbol := p.Ticker
	if symbol == "" {
		if fields := strings.Fields(p.ContractDesc); len(fields) > 0 {
			symbol = fields[0]
		} else {
			symbol = strconv.FormatInt(p.Conid, 10)
		}
	}
	// The gateway reports no PnL percentage; derive it from cost basis.
	costBasis := p.AvgCost * p.Position
	return domain.Position{
		Symbol:               symbol,
		Quantity:             p.Position,
		AvgEntryPrice:        p.AvgCost,
		MarketValue:          p.MktValue,
		UnrealizedPnl:        p.UnrealizedPnl,
		UnrealizedPnlPercent: domain.PnlPercent(p.UnrealizedPnl, costBasis),
		CurrentPrice:         p.MktPrice,
		Provider:             string(providers.IBKR),
	}
}

type ordersResponse struct {
	Orders []orderEntry `json:"orders"`
}

type orderEntry struct {
	OrderID         int64   `json:"orderId"`
	Ticker          string  `json:"ticker"`
	Side            string  `json:"side"`
	OrderType       string  `json:"orderType"`
	Price           float64 `json:"price"`
	AuxPrice        float64 `json:"auxPrice"`
	TotalSize       float64 `json:"totalSize"`
	FilledQuantity  float64 `json:"filledQuantity"`
	Status          string  `json:"status"`
	TimeInForce     string  `json:"timeInForce"`
	LastExecutionMs int64   `json:"lastExecutionTime_r"`
}

func (o orderEntry) toDomain() domain.Order {
	orderType := mapOrderType(o.OrderType)

	var limitPrice, stopPrice float64
	switch orderType {
	case domain.Limit:
		limitPrice = o.Price
	case domain.Stop:
		stopPrice = o.Price
	case domain.StopLimit:
		limitPrice = o.Price
		stopPrice = o.AuxPrice
	}

	var updated time.Time
	if o.LastExecutionMs > 0 {
		updated = time.UnixMilli(o.LastExecutionMs).UTC()
	}

	return domain.Order{
		ID:             strconv.FormatInt(o.OrderID, 10),
		Symbol:         o.Ticker,
		Side:           domain.Side(strings.ToLower(o.Side)),
		Type:           orderType,
		TimeInForce:    domain.TimeInForce(strings.ToLower(o.TimeInForce)),
		Quantity:       o.TotalSize,
		FilledQuantity: o.FilledQuantity,
		LimitPrice:     limitPrice,
		StopPrice:      stopPrice,
		Status:         mapOrderStatus(o.Status),
		UpdatedAt:      updated,
		Provider:       string(providers.IBKR),
	}
}

// mapOrderType translates IBKR's order-type codes into the canonical enum.
func mapOrderType(t string) domain.OrderType {
	switch strings.ToUpper(t) {
	case "MKT", "MARKET":
		return domain.Market
	case "LMT", "LIMIT":
		return domain.Limit
	case "STP", "STOP":
		return domain.Stop
	case "STOP_LIMIT", "STPLMT":
		return domain.StopLimit
	}
	return domain.OrderType(strings.ToLower(t))
}

// mapOrderStatus translates IBKR lifecycle names into the canonical enum.
func mapOrderStatus(status string) domain.OrderStatus {
	switch status {
	case "Submitted":
		return domain.OrderNew
	case "PreSubmitted", "PendingSubmit", "PendingCancel":
		return domain.OrderPending
	case "Filled":
		return domain.OrderFilled
	case "Cancelled", "Inactive":
		return domain.OrderCanceled
	case "Rejected":
		return domain.OrderRejected
	}
	return domain.OrderStatus(strings.ToLower(status))
}

type orderRequestBody struct {
	Orders []orderRequestEntry `json:"orders"`
}

type orderRequestEntry struct {
	Conid     int64   `json:"conid"`
	OrderType string  `json:"orderType"`
	Side      string  `json:"side"`
	Quantity  float64 `json:"quantity"`
	Price     float64 `json:"price,omitempty"`
	AuxPrice  float64 `json:"auxPrice,omitempty"`
	TIF       string  `json:"tif,omitempty"`
	COID      string  `json:"cOID,omitempty"`
}

type orderSubmitResult struct {
	OrderID     string `json:"order_id"`
	OrderStatus string `json:"order_status"`
}

type secdefResult struct {
	Conid       string `json:"conid"`
	Symbol      string `json:"symbol"`
	CompanyName string `json:"companyName"`
	Description string `json:"description"`
	SecType     string `json:"secType"`
}

func (r secdefResult) toMatch() domain.SymbolMatch {
	return domain.SymbolMatch{
		Symbol: r.Symbol,
		Name:   r.CompanyName,
		Type:   r.SecType,
		Region: r.Description,
	}
}

// snapshotEntry holds the numbered snapshot fields. The gateway encodes
// every value as a string.
type snapshotEntry struct {
	Last          string `json:"31"`
	High          string `json:"70"`
	Low           string `json:"71"`
	Change        string `json:"82"`
	ChangePercent string `json:"83"`
	Volume        string `json:"87"`
	Open          string `json:"7295"`
	PriorClose    string `json:"7296"`
}

func (s snapshotEntry) toQuote(symbol string) domain.Quote {
	price := parseFloat(s.Last)
	prev := parseFloat(s.PriorClose)
	pct := parseFloat(s.ChangePercent)
	if s.ChangePercent == "" {
		pct = domain.ChangePercent(price, prev)
	}

	return domain.Quote{
		Symbol:        symbol,
		Price:         price,
		Change:        parseFloat(s.Change),
		ChangePercent: pct,
		Volume:        parseVolume(s.Volume),
		Open:          parseFloat(s.Open),
		High:          parseFloat(s.High),
		Low:           parseFloat(s.Low),
		PreviousClose: prev,
		Timestamp:     time.Now().UTC(),
		Provider:      string(providers.IBKR),
	}
}

type historyResponse struct {
	Data []historyBar `json:"data"`
}

type historyBar struct {
	Open   float64 `json:"o"`
	High   float64 `json:"h"`
	Low    float64 `json:"l"`
	Close  float64 `json:"c"`
	Volume float64 `json:"v"`
	TimeMs int64   `json:"t"`
}

func (b historyBar) toDomain() domain.Bar {
	return domain.Bar{
		Time:   time.UnixMilli(b.TimeMs).UTC(),
		Open:   b.Open,
		High:   b.High,
		Low:    b.Low,
		Close:  b.Close,
		Volume: int64(b.Volume),
	}
}

func parseFloat(s string) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return f
}

// parseVolume handles the gateway's abbreviated volume strings ("54.7M").
func parseVolume(s string) int64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	mult := 1.0
	switch s[len(s)-1] {
	case 'K':
		mult, s = 1e3, s[:len(s)-1]
	case 'M':
		mult, s = 1e6, s[:len(s)-1]
	case 'B':
		mult, s = 1e9, s[:len(s)-1]
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return int64(f * mult)
}
