// Package mock is the designated default provider: deterministic synthetic
// market data plus an in-memory paper-trading book with simulated fills.
// It is always available and never touches the network, so it serves both
// the force-mock switch and the end of every selection walk.
package mock

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/skovera/desk/internal/domain"
	"github.com/skovera/desk/internal/providers"
)

const startingCash = 100_000.0

// Options configures the provider.
type Options struct {
	// FillDelay is how long a simulated order stays working before the
	// fill timer fires. Tests shrink it; zero means 500ms.
	FillDelay time.Duration
	Log       zerolog.Logger
}

// Provider implements providers.MarketData and providers.Trading on
// synthetic data.
type Provider struct {
	log       zerolog.Logger
	fillDelay time.Duration
	now       func() time.Time

	mu        sync.Mutex
	cash      float64
	orders    map[string]*domain.Order
	orderSeq  []string
	positions map[string]*domain.Position
}

// New builds the provider.
func New(opts Options) *Provider {
	fillDelay := opts.FillDelay
	if fillDelay == 0 {
		fillDelay = 500 * time.Millisecond
	}
	return &Provider{
		log:       opts.Log.With().Str("component", "mock").Logger(),
		fillDelay: fillDelay,
		now:       time.Now,
		cash:      startingCash,
		orders:    make(map[string]*domain.Order),
		positions: make(map[string]*domain.Position),
	}
}

func (p *Provider) ID() providers.ID { return providers.Mock }

// Available is always true; the mock needs no credentials.
func (p *Provider) Available() bool { return true }

func (p *Provider) Account(ctx context.Context) (domain.Account, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	equity := p.cash
	for _, pos := range p.positions {
		equity += pos.MarketValue
	}
	return domain.Account{
		ID:          "mock-account",
		Currency:    "USD",
		Cash:        p.cash,
		BuyingPower: p.cash * 2,
		Equity:      equity,
		Provider:    string(providers.Mock),
	}, nil
}

func (p *Provider) Positions(ctx context.Context) ([]domain.Position, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([]domain.Position, 0, len(p.positions))
	for _, pos := range p.positions {
		out = append(out, *pos)
	}
	return out, nil
}

func (p *Provider) Orders(ctx context.Context) ([]domain.Order, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([]domain.Order, 0, len(p.orderSeq))
	for _, id := range p.orderSeq {
		out = append(out, *p.orders[id])
	}
	return out, nil
}

func (p *Provider) CreateOrder(ctx context.Context, req domain.OrderRequest) (domain.Order, error) {
	now := p.now().UTC()
	order := &domain.Order{
		ID:          uuid.NewString(),
		Symbol:      strings.ToUpper(req.Symbol),
		Side:        req.Side,
		Type:        req.Type,
		TimeInForce: req.TimeInForce,
		Quantity:    req.Quantity,
		LimitPrice:  req.LimitPrice,
		StopPrice:   req.StopPrice,
		Status:      domain.OrderNew,
		CreatedAt:   now,
		UpdatedAt:   now,
		Provider:    string(providers.Mock),
	}

	p.mu.Lock()
	p.orders[order.ID] = order
	p.orderSeq = append(p.orderSeq, order.ID)
	p.mu.Unlock()

	time.AfterFunc(p.fillDelay, func() { p.fill(order.ID) })

	p.log.Debug().Str("order_id", order.ID).Str("symbol", order.Symbol).Msg("order accepted")
	return *order, nil
}

// fill applies the simulated execution. The order status is re-checked
// under the lock so a fill timer firing after a cancellation leaves the
// canceled status intact.
func (p *Provider) fill(orderID string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	order, ok := p.orders[orderID]
	if !ok || !order.Status.Open() {
		return
	}

	price := p.priceFor(order.Symbol)
	if order.Type == domain.Limit || order.Type == domain.StopLimit {
		price = order.LimitPrice
	}

	order.Status = domain.OrderFilled
	order.FilledQuantity = order.Quantity
	order.UpdatedAt = p.now().UTC()

	cost := price * order.Quantity
	pos := p.positions[order.Symbol]
	switch order.Side {
	case domain.Buy:
		p.cash -= cost
		if pos == nil {
			pos = &domain.Position{Symbol: order.Symbol, Provider: string(providers.Mock)}
			p.positions[order.Symbol] = pos
		}
		total := pos.AvgEntryPrice*pos.Quantity + cost
		pos.Quantity += order.Quantity
		pos.AvgEntryPrice = total / pos.Quantity
	case domain.Sell:
		p.cash += cost
		if pos != nil {
			pos.Quantity -= order.Quantity
			if pos.Quantity <= 0 {
				delete(p.positions, order.Symbol)
				pos = nil
			}
		}
	}
	if pos != nil {
		p.refreshPosition(pos)
	}

	p.log.Debug().Str("order_id", orderID).Float64("price", price).Msg("order filled")
}

func (p *Provider) refreshPosition(pos *domain.Position) {
	price := p.priceFor(pos.Symbol)
	pos.CurrentPrice = price
	pos.MarketValue = price * pos.Quantity
	costBasis := pos.AvgEntryPrice * pos.Quantity
	pos.UnrealizedPnl = pos.MarketValue - costBasis
	pos.UnrealizedPnlPercent = domain.PnlPercent(pos.UnrealizedPnl, costBasis)
}

func (p *Provider) CancelOrder(ctx context.Context, orderID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	order, ok := p.orders[orderID]
	if !ok {
		return fmt.Errorf("order %q not found", orderID)
	}
	if !order.Status.Open() {
		return fmt.Errorf("order %q is %s and cannot be canceled", orderID, order.Status)
	}

	order.Status = domain.OrderCanceled
	order.UpdatedAt = p.now().UTC()
	return nil
}
