package alpaca

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skovera/desk/internal/domain"
)

func newTestProvider(t *testing.T, handler http.HandlerFunc) *Provider {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return New(Options{
		KeyID:       "test-key-id",
		Secret:      "test-secret",
		BaseURL:     server.URL,
		DataBaseURL: server.URL,
		Log:         zerolog.Nop(),
	})
}

func TestAvailable(t *testing.T) {
	assert.True(t, New(Options{KeyID: "k", Secret: "s", Log: zerolog.Nop()}).Available())
	assert.False(t, New(Options{KeyID: "k", Log: zerolog.Nop()}).Available())
	assert.False(t, New(Options{Secret: "s", Log: zerolog.Nop()}).Available())
}

func TestAccount_ParsesStringDecimals(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v2/account", r.URL.Path)
		assert.Equal(t, "test-key-id", r.Header.Get("APCA-API-KEY-ID"))
		assert.Equal(t, "test-secret", r.Header.Get("APCA-API-SECRET-KEY"))

		_, _ = w.Write([]byte(`{
			"id": "acct-1",
			"currency": "USD",
			"cash": "10000.50",
			"buying_power": "40002.00",
			"equity": "52340.25",
			"status": "ACTIVE"
		}`))
	})

	account, err := p.Account(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "acct-1", account.ID)
	assert.Equal(t, 10000.50, account.Cash)
	assert.Equal(t, 40002.00, account.BuyingPower)
	assert.Equal(t, 52340.25, account.Equity)
	assert.Equal(t, "alpaca", account.Provider)
}

func TestPositions(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v2/positions", r.URL.Path)

		_, _ = w.Write([]byte(`[{
			"symbol": "AAPL",
			"qty": "10",
			"avg_entry_price": "150.00",
			"market_value": "1859.20",
			"cost_basis": "1500.00",
			"unrealized_pl": "359.20",
			"unrealized_plpc": "0.2394666667",
			"current_price": "185.92"
		}]`))
	})

	positions, err := p.Positions(context.Background())
	require.NoError(t, err)
	require.Len(t, positions, 1)

	pos := positions[0]
	assert.Equal(t, "AAPL", pos.Symbol)
	assert.Equal(t, 10.0, pos.Quantity)
	assert.Equal(t, 359.20, pos.UnrealizedPnl)
	assert.InDelta(t, 23.9467, pos.UnrealizedPnlPercent, 0.001)
	assert.Equal(t, "alpaca", pos.Provider)
}

func TestPositions_ComputesPercentFromCostBasis(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{
			"symbol": "MSFT",
			"qty": "5",
			"cost_basis": "1000.00",
			"unrealized_pl": "250.00"
		}]`))
	})

	positions, err := p.Positions(context.Background())
	require.NoError(t, err)
	require.Len(t, positions, 1)
	assert.InDelta(t, 25.0, positions[0].UnrealizedPnlPercent, 1e-9)
}

func TestCreateOrder(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v2/orders", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "AAPL", body["symbol"])
		assert.Equal(t, "10", body["qty"])
		assert.Equal(t, "buy", body["side"])
		assert.Equal(t, "limit", body["type"])
		assert.Equal(t, "185.00", body["limit_price"])

		_, _ = w.Write([]byte(`{
			"id": "order-1",
			"symbol": "AAPL",
			"side": "buy",
			"type": "limit",
			"time_in_force": "day",
			"qty": "10",
			"filled_qty": "0",
			"limit_price": "185.00",
			"status": "accepted",
			"created_at": "2024-01-05T15:30:00Z",
			"updated_at": "2024-01-05T15:30:00Z"
		}`))
	})

	order, err := p.CreateOrder(context.Background(), domain.OrderRequest{
		Symbol:      "AAPL",
		Side:        domain.Buy,
		Type:        domain.Limit,
		Quantity:    10,
		TimeInForce: domain.Day,
		LimitPrice:  185.00,
	})
	require.NoError(t, err)

	assert.Equal(t, "order-1", order.ID)
	assert.Equal(t, domain.Limit, order.Type)
	// "accepted" folds into the canonical pending state.
	assert.Equal(t, domain.OrderPending, order.Status)
	assert.Equal(t, 185.00, order.LimitPrice)
}

func TestCancelOrder(t *testing.T) {
	var gotMethod, gotPath string
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		gotMethod, gotPath = r.Method, r.URL.Path
		w.WriteHeader(http.StatusNoContent)
	})

	require.NoError(t, p.CancelOrder(context.Background(), "order-1"))
	assert.Equal(t, http.MethodDelete, gotMethod)
	assert.Equal(t, "/v2/orders/order-1", gotPath)
}

func TestQuote(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v2/stocks/AAPL/snapshot", r.URL.Path)

		_, _ = w.Write([]byte(`{
			"latestTrade": {"p": 185.92, "t": "2024-01-05T21:00:00Z"},
			"dailyBar": {"o": 184.35, "h": 186.40, "l": 183.92, "c": 185.92, "v": 54686851},
			"prevDailyBar": {"c": 181.18}
		}`))
	})

	quote, err := p.Quote(context.Background(), "AAPL")
	require.NoError(t, err)

	assert.Equal(t, "AAPL", quote.Symbol)
	assert.Equal(t, 185.92, quote.Price)
	assert.InDelta(t, 4.74, quote.Change, 1e-9)
	assert.InDelta(t, (185.92-181.18)/181.18*100, quote.ChangePercent, 1e-9)
	assert.Equal(t, "alpaca", quote.Provider)
}

func TestBars(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v2/stocks/AAPL/bars", r.URL.Path)
		assert.Equal(t, "1Day", r.URL.Query().Get("timeframe"))

		_, _ = w.Write([]byte(`{"symbol": "AAPL", "bars": [
			{"t": "2024-01-04T05:00:00Z", "o": 182.15, "h": 183.09, "l": 180.88, "c": 181.91, "v": 71983570},
			{"t": "2024-01-05T05:00:00Z", "o": 181.99, "h": 182.76, "l": 180.17, "c": 181.18, "v": 62303310}
		]}`))
	})

	bars, err := p.Bars(context.Background(), "AAPL", domain.BarParams{Interval: "1d"})
	require.NoError(t, err)
	require.Len(t, bars, 2)
	assert.Equal(t, 181.18, bars[1].Close)
}

func TestSearch_UnknownSymbolIsEmpty(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"message": "asset not found"}`))
	})

	matches, err := p.Search(context.Background(), "nope")
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestMovers(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1beta1/screener/stocks/movers", r.URL.Path)

		_, _ = w.Write([]byte(`{
			"gainers": [{"symbol": "GME", "price": 25.0, "change": 5.0, "percent_change": 25.0}],
			"losers": []
		}`))
	})

	movers, err := p.Movers(context.Background(), domain.MoverGainers)
	require.NoError(t, err)
	require.Len(t, movers, 1)
	assert.Equal(t, "GME", movers[0].Symbol)
}
