package ibkr

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
	"github.com/skovera/desk/internal/providers"
)

func newTestProvider(t *testing.T, handler http.HandlerFunc) *Provider {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return New(Options{
		GatewayURL: server.URL,
		AccountID:  "DU12345",
		Log:        zerolog.Nop(),
	})
}

func TestAvailable(t *testing.T) {
	assert.True(t, New(Options{GatewayURL: "https://localhost:5000", AccountID: "DU1", Log: zerolog.Nop()}).Available())
	assert.False(t, New(Options{GatewayURL: "https://localhost:5000", Log: zerolog.Nop()}).Available())
	assert.False(t, New(Options{AccountID: "DU1", Log: zerolog.Nop()}).Available())
}

func TestAccount(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/api/portfolio/DU12345/summary", r.URL.Path)

		_, _ = w.Write([]byte(`{
			"totalcashvalue": {"amount": 10000.50, "currency": "USD"},
			"buyingpower": {"amount": 40002.00, "currency": "USD"},
			"netliquidation": {"amount": 52340.25, "currency": "USD"}
		}`))
	})

	account, err := p.Account(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "DU12345", account.ID)
	assert.Equal(t, 10000.50, account.Cash)
	assert.Equal(t, 40002.00, account.BuyingPower)
	assert.Equal(t, 52340.25, account.Equity)
	assert.Equal(t, "ibkr", account.Provider)
}

func TestPositions_ComputesPnlPercent(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/api/portfolio/DU12345/positions/0", r.URL.Path)

		_, _ = w.Write([]byte(`[{
			"conid": 265598,
			"contractDesc": "AAPL NASDAQ",
			"ticker": "AAPL",
			"position": 10,
			"mktPrice": 185.92,
			"mktValue": 1859.20,
			"avgCost": 150.00,
			"unrealizedPnl": 359.20
		}]`))
	})

	positions, err := p.Positions(context.Background())
	require.NoError(t, err)
	require.Len(t, positions, 1)

	pos := positions[0]
	assert.Equal(t, "AAPL", pos.Symbol)
	assert.InDelta(t, 359.20/1500.0*100, pos.UnrealizedPnlPercent, 1e-9)
	assert.Equal(t, "ibkr", pos.Provider)
}

func TestPositions_BareRowFallsBackToConid(t *testing.T) {
	// Expired or exotic contracts can come back with neither a ticker nor
	// a contract description.
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{
			"conid": 495512557,
			"contractDesc": "",
			"ticker": "",
			"position": 5,
			"mktPrice": 1.25,
			"mktValue": 6.25,
			"avgCost": 1.00,
			"unrealizedPnl": 1.25
		}]`))
	})

	positions, err := p.Positions(context.Background())
	require.NoError(t, err)
	require.Len(t, positions, 1)
	assert.Equal(t, "495512557", positions[0].Symbol)
}

func TestOrders_MapsVendorEnums(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/api/iserver/account/orders", r.URL.Path)

		_, _ = w.Write([]byte(`{"orders": [{
			"orderId": 987,
			"ticker": "AAPL",
			"side": "BUY",
			"orderType": "MKT",
			"totalSize": 10,
			"filledQuantity": 0,
			"status": "Submitted",
			"timeInForce": "DAY"
		}, {
			"orderId": 988,
			"ticker": "MSFT",
			"side": "SELL",
			"orderType": "LMT",
			"price": 400.50,
			"totalSize": 5,
			"filledQuantity": 5,
			"status": "Filled",
			"timeInForce": "GTC"
		}]}`))
	})

	orders, err := p.Orders(context.Background())
	require.NoError(t, err)
	require.Len(t, orders, 2)

	assert.Equal(t, "987", orders[0].ID)
	assert.Equal(t, domain.Market, orders[0].Type)
	assert.Equal(t, domain.OrderNew, orders[0].Status)
	assert.Equal(t, domain.Buy, orders[0].Side)

	assert.Equal(t, domain.Limit, orders[1].Type)
	assert.Equal(t, domain.OrderFilled, orders[1].Status)
	assert.Equal(t, 400.50, orders[1].LimitPrice)
}

func TestCreateOrder_ResolvesConid(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/api/iserver/secdef/search":
			assert.Equal(t, "AAPL", r.URL.Query().Get("symbol"))
			_, _ = w.Write([]byte(`[{"conid": "265598", "symbol": "AAPL", "companyName": "APPLE INC"}]`))
		case "/v1/api/iserver/account/DU12345/orders":
			var body map[string]any
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			orders := body["orders"].([]any)
			require.Len(t, orders, 1)
			entry := orders[0].(map[string]any)
			assert.Equal(t, float64(265598), entry["conid"])
			assert.Equal(t, "MKT", entry["orderType"])
			assert.Equal(t, "BUY", entry["side"])

			_, _ = w.Write([]byte(`[{"order_id": "456", "order_status": "Submitted"}]`))
		default:
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
	})

	order, err := p.CreateOrder(context.Background(), domain.OrderRequest{
		Symbol:      "AAPL",
		Side:        domain.Buy,
		Type:        domain.Market,
		Quantity:    10,
		TimeInForce: domain.Day,
	})
	require.NoError(t, err)

	assert.Equal(t, "456", order.ID)
	assert.Equal(t, domain.OrderNew, order.Status)
	assert.Equal(t, "ibkr", order.Provider)
}

func TestQuote(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/api/iserver/secdef/search":
			_, _ = w.Write([]byte(`[{"conid": "265598", "symbol": "AAPL"}]`))
		case "/v1/api/iserver/marketdata/snapshot":
			assert.Equal(t, "265598", r.URL.Query().Get("conids"))
			_, _ = w.Write([]byte(`[{
				"31": "185.92", "70": "186.40", "71": "183.92",
				"82": "4.74", "83": "2.62", "87": "54.7M",
				"7295": "184.35", "7296": "181.18"
			}]`))
		default:
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
	})

	quote, err := p.Quote(context.Background(), "AAPL")
	require.NoError(t, err)

	assert.Equal(t, "AAPL", quote.Symbol)
	assert.Equal(t, 185.92, quote.Price)
	assert.Equal(t, 2.62, quote.ChangePercent)
	assert.Equal(t, int64(54700000), quote.Volume)
	assert.Equal(t, "ibkr", quote.Provider)
}

func TestMovers_NotSupported(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no request expected")
	})

	_, err := p.Movers(context.Background(), domain.MoverGainers)
	var nsErr *providers.NotSupportedError
	require.ErrorAs(t, err, &nsErr)
}

func TestParseVolume(t *testing.T) {
	assert.Equal(t, int64(54700000), parseVolume("54.7M"))
	assert.Equal(t, int64(1500), parseVolume("1.5K"))
	assert.Equal(t, int64(2000000000), parseVolume("2B"))
	assert.Equal(t, int64(123), parseVolume("123"))
	assert.Equal(t, int64(0), parseVolume(""))
}
