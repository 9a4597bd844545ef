// Package providers defines the provider interfaces every vendor adapter
// implements and the registry that selects between them. Adapters return
// canonical domain types; each one carries its own vendor-shape mapping so
// adding a vendor never touches selection or normalization code elsewhere.
package providers

import (
	"context"
	"fmt"

	"github.com/skovera/desk/internal/domain"
)

// ID identifies one provider.
type ID string

const (
	// Auto defers provider choice to the registry's preference walk.
	Auto         ID = "auto"
	AlphaVantage ID = "alphavantage"
	Polygon      ID = "polygon"
	IEXCloud     ID = "iexcloud"
	Finnhub      ID = "finnhub"
	Alpaca       ID = "alpaca"
	IBKR         ID = "ibkr"
	// Mock serves synthetic data and is the fallback when nothing else is
	// configured.
	Mock ID = "mock"
)

var knownIDs = map[ID]bool{
	Auto:         true,
	AlphaVantage: true,
	Polygon:      true,
	IEXCloud:     true,
	Finnhub:      true,
	Alpaca:       true,
	IBKR:         true,
	Mock:         true,
}

// Parse validates a provider name from config or a CLI flag. An empty name
// means Auto.
func Parse(name string) (ID, error) {
	if name == "" {
		return Auto, nil
	}
	id := ID(name)
	if !knownIDs[id] {
		return "", fmt.Errorf("unknown provider %q", name)
	}
	return id, nil
}

// MarketData is the operation surface of a market-data provider. Available
// is advisory (credentials present); enforcement happens at selection.
// Operations a vendor has no endpoint for return *NotSupportedError.
type MarketData interface {
	ID() ID
	Available() bool
	Quote(ctx context.Context, symbol string) (domain.Quote, error)
	Bars(ctx context.Context, symbol string, params domain.BarParams) ([]domain.Bar, error)
	Search(ctx context.Context, query string) ([]domain.SymbolMatch, error)
	Movers(ctx context.Context, kind domain.MoverKind) ([]domain.Mover, error)
	News(ctx context.Context, symbol string) ([]domain.NewsItem, error)
	Overview(ctx context.Context, symbol string) (domain.CompanyOverview, error)
}

// Trading is the operation surface of a brokerage provider.
type Trading interface {
	ID() ID
	Available() bool
	Account(ctx context.Context) (domain.Account, error)
	Positions(ctx context.Context) ([]domain.Position, error)
	Orders(ctx context.Context) ([]domain.Order, error)
	CreateOrder(ctx context.Context, req domain.OrderRequest) (domain.Order, error)
	CancelOrder(ctx context.Context, orderID string) error
}

// NotSupportedError reports an operation the vendor has no endpoint for.
type NotSupportedError struct {
	Provider ID
	Op       string
}

func (e *NotSupportedError) Error() string {
	return fmt.Sprintf("%s does not support %s", e.Provider, e.Op)
}

// NotSupported builds a NotSupportedError for op.
func NotSupported(provider ID, op string) error {
	return &NotSupportedError{Provider: provider, Op: op}
}
