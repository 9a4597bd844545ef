package providers

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skovera/desk/internal/domain"
)

type fakeMarket struct {
	id        ID
	available bool
}

func (f *fakeMarket) ID() ID          { return f.id }
func (f *fakeMarket) Available() bool { return f.available }
func (f *fakeMarket) Quote(ctx context.Context, symbol string) (domain.Quote, error) {
	return domain.Quote{Symbol: symbol, Provider: string(f.id)}, nil
}
func (f *fakeMarket) Bars(ctx context.Context, symbol string, params domain.BarParams) ([]domain.Bar, error) {
	return nil, nil
}
func (f *fakeMarket) Search(ctx context.Context, query string) ([]domain.SymbolMatch, error) {
	return nil, nil
}
func (f *fakeMarket) Movers(ctx context.Context, kind domain.MoverKind) ([]domain.Mover, error) {
	return nil, nil
}
func (f *fakeMarket) News(ctx context.Context, symbol string) ([]domain.NewsItem, error) {
	return nil, nil
}
func (f *fakeMarket) Overview(ctx context.Context, symbol string) (domain.CompanyOverview, error) {
	return domain.CompanyOverview{}, nil
}

type fakeTrading struct {
	id        ID
	available bool
}

func (f *fakeTrading) ID() ID          { return f.id }
func (f *fakeTrading) Available() bool { return f.available }
func (f *fakeTrading) Account(ctx context.Context) (domain.Account, error) {
	return domain.Account{Provider: string(f.id)}, nil
}
func (f *fakeTrading) Positions(ctx context.Context) ([]domain.Position, error) { return nil, nil }
func (f *fakeTrading) Orders(ctx context.Context) ([]domain.Order, error)       { return nil, nil }
func (f *fakeTrading) CreateOrder(ctx context.Context, req domain.OrderRequest) (domain.Order, error) {
	return domain.Order{Provider: string(f.id)}, nil
}
func (f *fakeTrading) CancelOrder(ctx context.Context, orderID string) error { return nil }

func ids[T interface{ ID() ID }](list []T) []ID {
	out := make([]ID, len(list))
	for i, p := range list {
		out[i] = p.ID()
	}
	return out
}

func newTestRegistry(forceMock bool) (*Registry, *fakeMarket, *fakeMarket, *fakeMarket) {
	r := NewRegistry(forceMock, zerolog.Nop())
	polygon := &fakeMarket{id: Polygon}
	finnhub := &fakeMarket{id: Finnhub}
	mock := &fakeMarket{id: Mock, available: true}
	r.RegisterMarket(polygon)
	r.RegisterMarket(finnhub)
	r.SetDefaults(mock, &fakeTrading{id: Mock, available: true})
	return r, polygon, finnhub, mock
}

func TestParse(t *testing.T) {
	id, err := Parse("")
	require.NoError(t, err)
	assert.Equal(t, Auto, id)

	id, err = Parse("polygon")
	require.NoError(t, err)
	assert.Equal(t, Polygon, id)

	_, err = Parse("bloomberg")
	assert.ErrorContains(t, err, `unknown provider "bloomberg"`)
}

func TestMarketWalk_ExplicitAvailable(t *testing.T) {
	r, polygon, _, _ := newTestRegistry(false)
	polygon.available = true

	walk := r.MarketWalk(Polygon)
	assert.Equal(t, []ID{Polygon}, ids(walk))
}

func TestMarketWalk_ExplicitUnavailableWalksPreference(t *testing.T) {
	r, _, finnhub, _ := newTestRegistry(false)
	finnhub.available = true

	// Polygon has no credentials, so the walk falls through to the
	// preference order.
	walk := r.MarketWalk(Polygon)
	assert.Equal(t, []ID{Finnhub}, ids(walk))
}

func TestMarketWalk_AutoPrefersOrder(t *testing.T) {
	r, polygon, finnhub, _ := newTestRegistry(false)
	polygon.available = true
	finnhub.available = true

	// The default adapter never rides along when real providers are
	// configured; it serves only when the walk would otherwise be empty.
	walk := r.MarketWalk(Auto)
	assert.Equal(t, []ID{Polygon, Finnhub}, ids(walk))
}

func TestMarketWalk_NoneAvailableFallsToDefault(t *testing.T) {
	r, _, _, _ := newTestRegistry(false)

	walk := r.MarketWalk(Auto)
	assert.Equal(t, []ID{Mock}, ids(walk))
}

func TestMarketWalk_MockPinRoutesToDefault(t *testing.T) {
	r, polygon, finnhub, _ := newTestRegistry(false)
	polygon.available = true
	finnhub.available = true

	// The default adapter is never in the registered map, so pinning to
	// mock routes to it directly instead of falling back to a real vendor.
	walk := r.MarketWalk(Mock)
	assert.Equal(t, []ID{Mock}, ids(walk))
}

func TestMarketWalk_ForceMockShortCircuits(t *testing.T) {
	r, polygon, _, _ := newTestRegistry(true)
	polygon.available = true

	// Even an explicit, fully-configured provider is bypassed.
	assert.Equal(t, []ID{Mock}, ids(r.MarketWalk(Polygon)))
	assert.Equal(t, []ID{Mock}, ids(r.MarketWalk(Auto)))
	assert.True(t, r.ForceMock())
}

func TestSetMarketPreference_Reorders(t *testing.T) {
	r, polygon, finnhub, _ := newTestRegistry(false)
	polygon.available = true
	finnhub.available = true

	r.SetMarketPreference([]string{"finnhub", "polygon"})
	assert.Equal(t, []ID{Finnhub, Polygon}, ids(r.MarketWalk(Auto)))
}

func TestSetMarketPreference_DropsUnknownKeepsUnlisted(t *testing.T) {
	r, polygon, finnhub, _ := newTestRegistry(false)
	polygon.available = true
	finnhub.available = true

	// "bloomberg" is unknown and alpaca is not registered; finnhub is
	// listed first, polygon keeps its place after the listed entries.
	r.SetMarketPreference([]string{"bloomberg", "finnhub", "alpaca"})
	assert.Equal(t, []ID{Finnhub, Polygon}, ids(r.MarketWalk(Auto)))
}

func TestTradingWalk(t *testing.T) {
	r := NewRegistry(false, zerolog.Nop())
	alpaca := &fakeTrading{id: Alpaca, available: true}
	ibkr := &fakeTrading{id: IBKR}
	mock := &fakeTrading{id: Mock, available: true}
	r.RegisterTrading(alpaca)
	r.RegisterTrading(ibkr)
	r.SetDefaults(&fakeMarket{id: Mock, available: true}, mock)

	assert.Equal(t, []ID{Alpaca}, ids(r.TradingWalk(Alpaca)))
	assert.Equal(t, []ID{Alpaca}, ids(r.TradingWalk(Auto)))
	assert.Equal(t, []ID{Alpaca}, ids(r.TradingWalk(IBKR)))
	assert.Equal(t, []ID{Mock}, ids(r.TradingWalk(Mock)))
}

func TestStatuses(t *testing.T) {
	r := NewRegistry(false, zerolog.Nop())
	r.RegisterMarket(&fakeMarket{id: Polygon, available: true})
	r.RegisterMarket(&fakeMarket{id: Alpaca})
	r.RegisterTrading(&fakeTrading{id: Alpaca, available: true})
	r.SetDefaults(&fakeMarket{id: Mock, available: true}, &fakeTrading{id: Mock, available: true})

	statuses := r.Statuses()
	require.Len(t, statuses, 3)

	assert.Equal(t, Status{ID: Polygon, Market: true, Available: true}, statuses[0])
	// Alpaca serves both families; availability is merged.
	assert.Equal(t, Status{ID: Alpaca, Market: true, Trading: true, Available: true}, statuses[1])
	assert.Equal(t, Status{ID: Mock, Market: true, Trading: true, Available: true}, statuses[2])
}
