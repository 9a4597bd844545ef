package trading

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skovera/desk/internal/domain"
	"github.com/skovera/desk/internal/providers"
)

type stubBroker struct {
	id          providers.ID
	available   bool
	err         error
	createCalls int
	cancelCalls int
	accountCall int
	lastReq     domain.OrderRequest
}

func (s *stubBroker) ID() providers.ID { return s.id }
func (s *stubBroker) Available() bool  { return s.available }

func (s *stubBroker) Account(ctx context.Context) (domain.Account, error) {
	s.accountCall++
	if s.err != nil {
		return domain.Account{}, s.err
	}
	return domain.Account{ID: "acct", Provider: string(s.id)}, nil
}

func (s *stubBroker) Positions(ctx context.Context) ([]domain.Position, error) {
	if s.err != nil {
		return nil, s.err
	}
	return []domain.Position{{Symbol: "AAPL", Provider: string(s.id)}}, nil
}

func (s *stubBroker) Orders(ctx context.Context) ([]domain.Order, error) {
	if s.err != nil {
		return nil, s.err
	}
	return []domain.Order{{ID: "1", Provider: string(s.id)}}, nil
}

func (s *stubBroker) CreateOrder(ctx context.Context, req domain.OrderRequest) (domain.Order, error) {
	s.createCalls++
	s.lastReq = req
	if s.err != nil {
		return domain.Order{}, s.err
	}
	return domain.Order{ID: "order-1", Symbol: req.Symbol, Status: domain.OrderNew, Provider: string(s.id)}, nil
}

func (s *stubBroker) CancelOrder(ctx context.Context, orderID string) error {
	s.cancelCalls++
	return s.err
}

func newRegistry(forceMock bool, brokers ...*stubBroker) (*providers.Registry, *stubBroker) {
	r := providers.NewRegistry(forceMock, zerolog.Nop())
	for _, b := range brokers {
		r.RegisterTrading(b)
	}
	fallback := &stubBroker{id: providers.Mock, available: true}
	r.SetDefaults(nil, fallback)
	return r, fallback
}

func TestAccount_AutoPicksFirstAvailable(t *testing.T) {
	unavailable := &stubBroker{id: providers.Alpaca, available: false}
	available := &stubBroker{id: providers.IBKR, available: true}
	registry, _ := newRegistry(false, unavailable, available)

	s := New(registry, providers.Auto, zerolog.Nop())
	account, err := s.Account(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "ibkr", account.Provider)
	assert.Zero(t, unavailable.accountCall)
}

func TestAccount_ExplicitFailureRetriesWithAuto(t *testing.T) {
	failing := &stubBroker{id: providers.IBKR, available: true, err: errors.New("gateway down")}
	healthy := &stubBroker{id: providers.Alpaca, available: true}
	registry, _ := newRegistry(false, healthy, failing)

	s := New(registry, providers.IBKR, zerolog.Nop())
	account, err := s.Account(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "alpaca", account.Provider)
	assert.Equal(t, 1, failing.accountCall)
}

func TestAccount_AutoFailurePropagates(t *testing.T) {
	failing := &stubBroker{id: providers.Alpaca, available: true, err: errors.New("rate limited")}
	registry, fallback := newRegistry(false, failing)

	s := New(registry, providers.Auto, zerolog.Nop())
	_, err := s.Account(context.Background())

	require.ErrorContains(t, err, "rate limited")
	assert.Equal(t, 1, failing.accountCall)
	assert.Zero(t, fallback.accountCall, "synthetic data never masks a broker failure")
}

func TestCreateOrder_ValidatesBeforeNetwork(t *testing.T) {
	healthy := &stubBroker{id: providers.Alpaca, available: true}
	registry, _ := newRegistry(false, healthy)

	s := New(registry, providers.Auto, zerolog.Nop())
	_, err := s.CreateOrder(context.Background(), domain.OrderRequest{
		Symbol:   "AAPL",
		Side:     domain.Buy,
		Type:     domain.Limit,
		Quantity: 10,
		// limit order without a limit price
	})

	var vErr *domain.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "limitPrice", vErr.Field)
	assert.Zero(t, healthy.createCalls, "invalid requests never reach a provider")
}

func TestCreateOrder_NormalizesRequest(t *testing.T) {
	healthy := &stubBroker{id: providers.Alpaca, available: true}
	registry, _ := newRegistry(false, healthy)

	s := New(registry, providers.Auto, zerolog.Nop())
	order, err := s.CreateOrder(context.Background(), domain.OrderRequest{
		Symbol:   " aapl ",
		Side:     domain.Buy,
		Type:     domain.Market,
		Quantity: 10,
	})
	require.NoError(t, err)

	assert.Equal(t, "AAPL", order.Symbol)
	assert.Equal(t, "AAPL", healthy.lastReq.Symbol)
	assert.Equal(t, domain.Day, healthy.lastReq.TimeInForce, "time in force defaults to day")
}

func TestCreateOrder_NoFallbackOnFailure(t *testing.T) {
	failing := &stubBroker{id: providers.Alpaca, available: true, err: errors.New("rejected upstream")}
	healthy := &stubBroker{id: providers.IBKR, available: true}
	registry, fallback := newRegistry(false, failing, healthy)

	s := New(registry, providers.Auto, zerolog.Nop())
	_, err := s.CreateOrder(context.Background(), domain.OrderRequest{
		Symbol:   "AAPL",
		Side:     domain.Buy,
		Type:     domain.Market,
		Quantity: 10,
	})

	require.Error(t, err)
	assert.Equal(t, 1, failing.createCalls)
	assert.Zero(t, healthy.createCalls, "order submission must not retry against another broker")
	assert.Zero(t, fallback.createCalls)
}

func TestCreateOrder_ForceMockRoutesToDefault(t *testing.T) {
	healthy := &stubBroker{id: providers.Alpaca, available: true}
	registry, fallback := newRegistry(true, healthy)

	s := New(registry, providers.Auto, zerolog.Nop())
	order, err := s.CreateOrder(context.Background(), domain.OrderRequest{
		Symbol:   "AAPL",
		Side:     domain.Buy,
		Type:     domain.Market,
		Quantity: 1,
	})
	require.NoError(t, err)

	assert.Equal(t, "mock", order.Provider)
	assert.Zero(t, healthy.createCalls)
	assert.Equal(t, 1, fallback.createCalls)
}

func TestCancelOrder(t *testing.T) {
	healthy := &stubBroker{id: providers.Alpaca, available: true}
	registry, _ := newRegistry(false, healthy)

	s := New(registry, providers.Auto, zerolog.Nop())
	require.NoError(t, s.CancelOrder(context.Background(), "order-1"))
	assert.Equal(t, 1, healthy.cancelCalls)

	require.Error(t, s.CancelOrder(context.Background(), "  "))
	assert.Equal(t, 1, healthy.cancelCalls, "blank order id never reaches a provider")
}
