// Package ibkr adapts the Interactive Brokers Client Portal gateway. The
// gateway runs alongside desk and authenticates the session itself, so the
// adapter carries no API key; its credential is the gateway URL plus the
// account id. IBKR speaks its own enums (MKT/LMT, Submitted/PreSubmitted)
// and numbered snapshot fields, all mapped here.
package ibkr

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/skovera/desk/internal/cache"
	"github.com/skovera/desk/internal/domain"
	"github.com/skovera/desk/internal/providers"
	"github.com/skovera/desk/internal/rest"
)

// Options configures the provider. GatewayURL and AccountID are both
// required for availability.
type Options struct {
	GatewayURL string
	AccountID  string
	Store      cache.Store
	TTL        providers.TTLs
	Log        zerolog.Logger
	RetryBase  time.Duration
}

// Provider implements providers.Trading and providers.MarketData over the
// Client Portal gateway.
type Provider struct {
	client    *rest.Client
	gateway   string
	accountID string
	ttl       providers.TTLs

	// conids caches symbol -> contract id lookups for the session.
	mu     sync.Mutex
	conids map[string]int64
}

// New builds the provider.
func New(opts Options) *Provider {
	return &Provider{
		client: rest.NewClient(rest.Options{
			Service:   string(providers.IBKR),
			BaseURL:   strings.TrimSuffix(opts.GatewayURL, "/") + "/v1/api",
			Cache:     newCache(opts),
			Log:       opts.Log,
			RetryBase: opts.RetryBase,
		}),
		gateway:   opts.GatewayURL,
		accountID: opts.AccountID,
		ttl:       opts.TTL,
		conids:    make(map[string]int64),
	}
}

func newCache(opts Options) *cache.Cache {
	if opts.Store == nil {
		return nil
	}
	return cache.New(string(providers.IBKR), opts.Store, opts.Log)
}

func (p *Provider) ID() providers.ID { return providers.IBKR }

// Available reports whether a gateway URL and account id are configured.
func (p *Provider) Available() bool { return p.gateway != "" && p.accountID != "" }

// conid resolves a symbol to its IBKR contract id via secdef search,
// memoizing per session.
func (p *Provider) conid(ctx context.Context, symbol string) (int64, error) {
	symbol = strings.ToUpper(symbol)

	p.mu.Lock()
	id, ok := p.conids[symbol]
	p.mu.Unlock()
	if ok {
		return id, nil
	}

	var resp []secdefResult
	err := p.client.Get(ctx, "/iserver/secdef/search", map[string]string{"symbol": symbol}, nil, &resp)
	if err != nil {
		return 0, err
	}
	for _, r := range resp {
		if strings.EqualFold(r.Symbol, symbol) {
			id, err := strconv.ParseInt(r.Conid, 10, 64)
			if err != nil {
				continue
			}
			p.mu.Lock()
			p.conids[symbol] = id
			p.mu.Unlock()
			return id, nil
		}
	}
	return 0, fmt.Errorf("no contract found for %q", symbol)
}

func (p *Provider) Account(ctx context.Context) (domain.Account, error) {
	var resp summaryResponse
	path := "/portfolio/" + p.accountID + "/summary"
	if err := p.client.Get(ctx, path, nil, nil, &resp); err != nil {
		return domain.Account{}, err
	}
	return resp.toDomain(p.accountID), nil
}

func (p *Provider) Positions(ctx context.Context) ([]domain.Position, error) {
	var resp []positionResponse
	path := "/portfolio/" + p.accountID + "/positions/0"
	if err := p.client.Get(ctx, path, nil, nil, &resp); err != nil {
		return nil, err
	}

	positions := make([]domain.Position, 0, len(resp))
	for _, pos := range resp {
		positions = append(positions, pos.toDomain())
	}
	return positions, nil
}

func (p *Provider) Orders(ctx context.Context) ([]domain.Order, error) {
	var resp ordersResponse
	if err := p.client.Get(ctx, "/iserver/account/orders", nil, nil, &resp); err != nil {
		return nil, err
	}

	orders := make([]domain.Order, 0, len(resp.Orders))
	for _, o := range resp.Orders {
		orders = append(orders, o.toDomain())
	}
	return orders, nil
}

func (p *Provider) CreateOrder(ctx context.Context, req domain.OrderRequest) (domain.Order, error) {
	conid, err := p.conid(ctx, req.Symbol)
	if err != nil {
		return domain.Order{}, err
	}

	body := orderRequestBody{
		Orders: []orderRequestEntry{{
			Conid:     conid,
			OrderType: orderTypeToVendor(req.Type),
			Side:      strings.ToUpper(string(req.Side)),
			Quantity:  req.Quantity,
			TIF:       strings.ToUpper(string(req.TimeInForce)),
			COID:      req.ClientOrderID,
		}},
	}
	if req.LimitPrice > 0 {
		body.Orders[0].Price = req.LimitPrice
	}
	if req.StopPrice > 0 {
		// STP orders carry the trigger in price; stop-limit uses auxPrice.
		if req.Type == domain.Stop {
			body.Orders[0].Price = req.StopPrice
		} else {
			body.Orders[0].AuxPrice = req.StopPrice
		}
	}

	var resp []orderSubmitResult
	path := "/iserver/account/" + p.accountID + "/orders"
	if err := p.client.Post(ctx, path, body, &resp); err != nil {
		return domain.Order{}, err
	}
	if len(resp) == 0 {
		return domain.Order{}, fmt.Errorf("empty order response")
	}

	now := time.Now().UTC()
	return domain.Order{
		ID:          resp[0].OrderID,
		Symbol:      strings.ToUpper(req.Symbol),
		Side:        req.Side,
		Type:        req.Type,
		TimeInForce: req.TimeInForce,
		Quantity:    req.Quantity,
		LimitPrice:  req.LimitPrice,
		StopPrice:   req.StopPrice,
		Status:      mapOrderStatus(resp[0].OrderStatus),
		CreatedAt:   now,
		UpdatedAt:   now,
		Provider:    string(providers.IBKR),
	}, nil
}

func (p *Provider) CancelOrder(ctx context.Context, orderID string) error {
	path := "/iserver/account/" + p.accountID + "/order/" + orderID
	return p.client.Delete(ctx, path, nil)
}

func (p *Provider) Quote(ctx context.Context, symbol string) (domain.Quote, error) {
	conid, err := p.conid(ctx, symbol)
	if err != nil {
		return domain.Quote{}, err
	}

	var resp []snapshotEntry
	cc := &rest.CacheSpec{TTL: p.ttl.MarketData, Key: "quote_" + strings.ToUpper(symbol)}
	err = p.client.Get(ctx, "/iserver/marketdata/snapshot", map[string]string{
		"conids": strconv.FormatInt(conid, 10),
		"fields": snapshotFields,
	}, cc, &resp)
	if err != nil {
		return domain.Quote{}, err
	}
	if len(resp) == 0 {
		return domain.Quote{}, fmt.Errorf("no snapshot data for %q", symbol)
	}
	return resp[0].toQuote(strings.ToUpper(symbol)), nil
}

func (p *Provider) Bars(ctx context.Context, symbol string, params domain.BarParams) ([]domain.Bar, error) {
	conid, err := p.conid(ctx, symbol)
	if err != nil {
		return nil, err
	}
	period, bar, err := historyWindow(params.Interval)
	if err != nil {
		return nil, err
	}

	var resp historyResponse
	cc := &rest.CacheSpec{TTL: p.ttl.MarketData, Key: fmt.Sprintf("bars_%s_%s", strings.ToUpper(symbol), bar)}
	err = p.client.Get(ctx, "/iserver/marketdata/history", map[string]string{
		"conid":  strconv.FormatInt(conid, 10),
		"period": period,
		"bar":    bar,
	}, cc, &resp)
	if err != nil {
		return nil, err
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("no history data for %q", symbol)
	}

	bars := make([]domain.Bar, 0, len(resp.Data))
	for _, d := range resp.Data {
		bars = append(bars, d.toDomain())
	}
	if params.Limit > 0 && len(bars) > params.Limit {
		bars = bars[len(bars)-params.Limit:]
	}
	return bars, nil
}

func (p *Provider) Search(ctx context.Context, query string) ([]domain.SymbolMatch, error) {
	var resp []secdefResult
	cc := &rest.CacheSpec{TTL: p.ttl.Fundamentals, Key: "search_" + strings.ToLower(query)}
	err := p.client.Get(ctx, "/iserver/secdef/search", map[string]string{"symbol": query}, cc, &resp)
	if err != nil {
		return nil, err
	}

	matches := make([]domain.SymbolMatch, 0, len(resp))
	for _, r := range resp {
		matches = append(matches, r.toMatch())
	}
	return matches, nil
}

func (p *Provider) Movers(ctx context.Context, kind domain.MoverKind) ([]domain.Mover, error) {
	return nil, providers.NotSupported(providers.IBKR, "movers")
}

func (p *Provider) News(ctx context.Context, symbol string) ([]domain.NewsItem, error) {
	return nil, providers.NotSupported(providers.IBKR, "news")
}

func (p *Provider) Overview(ctx context.Context, symbol string) (domain.CompanyOverview, error) {
	return domain.CompanyOverview{}, providers.NotSupported(providers.IBKR, "overview")
}

func orderTypeToVendor(t domain.OrderType) string {
	switch t {
	case domain.Market:
		return "MKT"
	case domain.Limit:
		return "LMT"
	case domain.Stop:
		return "STP"
	case domain.StopLimit:
		return "STOP_LIMIT"
	}
	return string(t)
}

func historyWindow(interval string) (period, bar string, err error) {
	switch interval {
	case "1m":
		return "1d", "1min", nil
	case "5m":
		return "5d", "5min", nil
	case "15m":
		return "5d", "15min", nil
	case "1h":
		return "1m", "1h", nil
	case "", "1d":
		return "3m", "1d", nil
	case "1w":
		return "1y", "1w", nil
	}
	return "", "", fmt.Errorf("unsupported bar interval %q", interval)
}
