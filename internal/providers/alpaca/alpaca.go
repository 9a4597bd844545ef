// Package alpaca adapts the Alpaca trading and market-data REST APIs.
// Authentication is the APCA-API-KEY-ID / APCA-API-SECRET-KEY header pair;
// the trading host differs between paper and live accounts, and market data
// is served from a separate host. Every numeric field in the trading API is
// a string-encoded decimal.
package alpaca

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/skovera/desk/internal/cache"
	"github.com/skovera/desk/internal/domain"
	"github.com/skovera/desk/internal/providers"
	"github.com/skovera/desk/internal/rest"
)

// Default endpoints.
const (
	DefaultLiveBaseURL  = "https://api.alpaca.markets"
	DefaultPaperBaseURL = "https://paper-api.alpaca.markets"
	DefaultDataBaseURL  = "https://data.alpaca.markets"
)

// Options configures the provider.
type Options struct {
	KeyID       string
	Secret      string
	Paper       bool
	BaseURL     string
	DataBaseURL string
	Store       cache.Store
	TTL         providers.TTLs
	Log         zerolog.Logger
	RetryBase   time.Duration
}

// Provider implements providers.Trading and providers.MarketData over
// Alpaca, one client per host.
type Provider struct {
	trading *rest.Client
	data    *rest.Client
	keyID   string
	secret  string
	ttl     providers.TTLs
}

// New builds the provider. Both key id and secret are required for it to
// report available.
func New(opts Options) *Provider {
	baseURL := opts.BaseURL
	if baseURL == "" {
		if opts.Paper {
			baseURL = DefaultPaperBaseURL
		} else {
			baseURL = DefaultLiveBaseURL
		}
	}
	dataBaseURL := opts.DataBaseURL
	if dataBaseURL == "" {
		dataBaseURL = DefaultDataBaseURL
	}

	auth := rest.HeaderAuth(map[string]string{
		"APCA-API-KEY-ID":     opts.KeyID,
		"APCA-API-SECRET-KEY": opts.Secret,
	})

	var c *cache.Cache
	if opts.Store != nil {
		c = cache.New(string(providers.Alpaca), opts.Store, opts.Log)
	}

	return &Provider{
		trading: rest.NewClient(rest.Options{
			Service:   string(providers.Alpaca),
			BaseURL:   baseURL,
			Auth:      auth,
			Log:       opts.Log,
			RetryBase: opts.RetryBase,
		}),
		data: rest.NewClient(rest.Options{
			Service:   string(providers.Alpaca) + "-data",
			BaseURL:   dataBaseURL,
			Auth:      auth,
			Cache:     c,
			Log:       opts.Log,
			RetryBase: opts.RetryBase,
		}),
		keyID:  opts.KeyID,
		secret: opts.Secret,
		ttl:    opts.TTL,
	}
}

func (p *Provider) ID() providers.ID { return providers.Alpaca }

// Available reports whether both credential halves are configured.
func (p *Provider) Available() bool { return p.keyID != "" && p.secret != "" }

func (p *Provider) Account(ctx context.Context) (domain.Account, error) {
	var resp accountResponse
	if err := p.trading.Get(ctx, "/v2/account", nil, nil, &resp); err != nil {
		return domain.Account{}, err
	}
	return resp.toDomain(), nil
}

func (p *Provider) Positions(ctx context.Context) ([]domain.Position, error) {
	var resp []positionResponse
	if err := p.trading.Get(ctx, "/v2/positions", nil, nil, &resp); err != nil {
		return nil, err
	}

	positions := make([]domain.Position, 0, len(resp))
	for _, pos := range resp {
		positions = append(positions, pos.toDomain())
	}
	return positions, nil
}

func (p *Provider) Orders(ctx context.Context) ([]domain.Order, error) {
	var resp []orderResponse
	err := p.trading.Get(ctx, "/v2/orders", map[string]string{
		"status": "all",
		"limit":  "100",
	}, nil, &resp)
	if err != nil {
		return nil, err
	}

	orders := make([]domain.Order, 0, len(resp))
	for _, o := range resp {
		orders = append(orders, o.toDomain())
	}
	return orders, nil
}

func (p *Provider) CreateOrder(ctx context.Context, req domain.OrderRequest) (domain.Order, error) {
	body := orderRequestBody{
		Symbol:        req.Symbol,
		Qty:           formatQty(req.Quantity),
		Side:          string(req.Side),
		Type:          string(req.Type),
		TimeInForce:   string(req.TimeInForce),
		ClientOrderID: req.ClientOrderID,
	}
	if req.LimitPrice > 0 {
		body.LimitPrice = formatPrice(req.LimitPrice)
	}
	if req.StopPrice > 0 {
		body.StopPrice = formatPrice(req.StopPrice)
	}

	var resp orderResponse
	if err := p.trading.Post(ctx, "/v2/orders", body, &resp); err != nil {
		return domain.Order{}, err
	}
	return resp.toDomain(), nil
}

func (p *Provider) CancelOrder(ctx context.Context, orderID string) error {
	return p.trading.Delete(ctx, "/v2/orders/"+orderID, nil)
}

func formatQty(q float64) string {
	return fmt.Sprintf("%g", q)
}

func formatPrice(p float64) string {
	return fmt.Sprintf("%.2f", p)
}
