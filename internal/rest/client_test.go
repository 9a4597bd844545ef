package rest

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skovera/desk/internal/cache"
)

type quotePayload struct {
	Symbol string  `json:"symbol"`
	Price  float64 `json:"price"`
}

func newTestClient(baseURL string, c *cache.Cache, auth AuthFunc) *Client {
	return NewClient(Options{
		Service:   "testvendor",
		BaseURL:   baseURL,
		Auth:      auth,
		RetryBase: 5 * time.Millisecond,
		Cache:     c,
		Log:       zerolog.Nop(),
	})
}

func TestClient_RetryOn5xx(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := newTestClient(server.URL, nil, nil)

	start := time.Now()
	var out quotePayload
	err := client.Get(context.Background(), "/quote", nil, nil, &out)
	elapsed := time.Since(start)

	require.Error(t, err)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusServiceUnavailable, apiErr.StatusCode)
	assert.True(t, apiErr.Retryable())

	// Initial attempt plus three retries, with 1x/2x/4x base backoff.
	assert.Equal(t, int32(4), calls.Load())
	assert.GreaterOrEqual(t, elapsed, 35*time.Millisecond)
}

func TestClient_NoRetryOn4xx(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"unknown symbol"}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL, nil, nil)

	err := client.Get(context.Background(), "/quote", map[string]string{"symbol": "NOPE"}, nil, &quotePayload{})
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.True(t, apiErr.IsNotFound())
	assert.False(t, apiErr.Retryable())
	assert.Equal(t, "unknown symbol", apiErr.Message)
	assert.Equal(t, int32(1), calls.Load())
}

func TestClient_RecoversAfterTransientErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"symbol":"AAPL","price":180.75}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL, nil, nil)

	var out quotePayload
	err := client.Get(context.Background(), "/quote", nil, nil, &out)
	require.NoError(t, err)
	assert.Equal(t, int32(3), calls.Load())
	assert.Equal(t, 180.75, out.Price)
}

func TestClient_NetworkErrorFlagged(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // nothing listening

	client := newTestClient(server.URL, nil, nil)

	err := client.Get(context.Background(), "/quote", nil, nil, &quotePayload{})
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.True(t, apiErr.Network)
	assert.Equal(t, 0, apiErr.StatusCode)
	assert.True(t, apiErr.Retryable())
}

func TestClient_PerAttemptTimeoutIsRetried(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer server.Close()

	client := NewClient(Options{
		Service:   "testvendor",
		BaseURL:   server.URL,
		Timeout:   30 * time.Millisecond,
		RetryBase: time.Millisecond,
		Log:       zerolog.Nop(),
	})

	err := client.Get(context.Background(), "/slow", nil, nil, &quotePayload{})
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.True(t, apiErr.Network)
	// A vendor answering slower than the per-attempt timeout is a
	// transient failure like any other: initial attempt plus three retries.
	assert.Equal(t, int32(4), calls.Load())
}

func TestClient_CallerDeadlineIsFinal(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer server.Close()

	client := newTestClient(server.URL, nil, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	err := client.Get(ctx, "/slow", nil, nil, &quotePayload{})
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load(), "an exhausted caller deadline stops retrying")
}

func TestClient_CancellationIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		time.Sleep(200 * time.Millisecond)
	}))
	defer server.Close()

	client := newTestClient(server.URL, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	err := client.Get(ctx, "/slow", nil, nil, &quotePayload{})
	require.Error(t, err)
	assert.Less(t, time.Since(start), 150*time.Millisecond)
	assert.Equal(t, int32(1), calls.Load())
}

func TestClient_CacheHitSkipsNetwork(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"symbol":"AAPL","price":180.75}`))
	}))
	defer server.Close()

	store := cache.NewMemoryStore()
	client := newTestClient(server.URL, cache.New("testvendor", store, zerolog.Nop()), nil)
	spec := &CacheSpec{TTL: time.Minute}

	var first, second quotePayload
	require.NoError(t, client.Get(context.Background(), "/quote", map[string]string{"symbol": "AAPL"}, spec, &first))
	require.NoError(t, client.Get(context.Background(), "/quote", map[string]string{"symbol": "AAPL"}, spec, &second))

	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, first, second)

	// Different params mean a different default key, so the network is hit.
	var other quotePayload
	require.NoError(t, client.Get(context.Background(), "/quote", map[string]string{"symbol": "MSFT"}, spec, &other))
	assert.Equal(t, int32(2), calls.Load())
}

func TestClient_CacheExpiryRefetches(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"symbol":"AAPL","price":180.75}`))
	}))
	defer server.Close()

	now := time.Now()
	c := cache.New("testvendor", cache.NewMemoryStore(), zerolog.Nop()).
		WithClock(func() time.Time { return now })
	client := newTestClient(server.URL, c, nil)
	spec := &CacheSpec{TTL: 30 * time.Second}

	var out quotePayload
	require.NoError(t, client.Get(context.Background(), "/quote", nil, spec, &out))
	require.NoError(t, client.Get(context.Background(), "/quote", nil, spec, &out))
	assert.Equal(t, int32(1), calls.Load())

	now = now.Add(31 * time.Second)
	require.NoError(t, client.Get(context.Background(), "/quote", nil, spec, &out))
	assert.Equal(t, int32(2), calls.Load())
}

func TestClient_SemanticCacheKey(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"symbol":"AAPL","price":180.75}`))
	}))
	defer server.Close()

	store := cache.NewMemoryStore()
	client := newTestClient(server.URL, cache.New("testvendor", store, zerolog.Nop()), nil)

	var out quotePayload
	spec := &CacheSpec{TTL: time.Minute, Key: "quote_AAPL"}
	require.NoError(t, client.Get(context.Background(), "/v1/quote", map[string]string{"symbol": "AAPL", "fmt": "full"}, spec, &out))

	keys, err := store.Keys()
	require.NoError(t, err)
	assert.Equal(t, []string{"testvendor_quote_AAPL"}, keys)
}

func TestClient_WritesAreNeverCached(t *testing.T) {
	var posts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			posts.Add(1)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"o-1"}`))
	}))
	defer server.Close()

	store := cache.NewMemoryStore()
	client := newTestClient(server.URL, cache.New("testvendor", store, zerolog.Nop()), nil)

	var out map[string]string
	require.NoError(t, client.Post(context.Background(), "/orders", map[string]string{"symbol": "AAPL"}, &out))
	require.NoError(t, client.Post(context.Background(), "/orders", map[string]string{"symbol": "AAPL"}, &out))

	assert.Equal(t, int32(2), posts.Load())
	keys, err := store.Keys()
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func TestClient_AuthSchemes(t *testing.T) {
	var gotQuery, gotBearer, gotKeyID, gotSecret string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("apikey")
		gotBearer = r.Header.Get("Authorization")
		gotKeyID = r.Header.Get("APCA-API-KEY-ID")
		gotSecret = r.Header.Get("APCA-API-SECRET-KEY")
		_, _ = w.Write([]byte(`{}`))
	}))
	defer server.Close()

	var out map[string]any

	query := newTestClient(server.URL, nil, QueryAuth("apikey", "demo-key"))
	require.NoError(t, query.Get(context.Background(), "/q", nil, nil, &out))
	assert.Equal(t, "demo-key", gotQuery)

	bearer := newTestClient(server.URL, nil, BearerAuth("tok-123"))
	require.NoError(t, bearer.Get(context.Background(), "/q", nil, nil, &out))
	assert.Equal(t, "Bearer tok-123", gotBearer)

	pair := newTestClient(server.URL, nil, HeaderAuth(map[string]string{
		"APCA-API-KEY-ID":     "key-id",
		"APCA-API-SECRET-KEY": "secret",
	}))
	require.NoError(t, pair.Get(context.Background(), "/q", nil, nil, &out))
	assert.Equal(t, "key-id", gotKeyID)
	assert.Equal(t, "secret", gotSecret)
}

func TestClient_DecodeFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html>not json</html>`))
	}))
	defer server.Close()

	client := newTestClient(server.URL, nil, nil)

	err := client.Get(context.Background(), "/quote", nil, nil, &quotePayload{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to decode response")
}
