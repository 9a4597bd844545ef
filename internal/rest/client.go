// Package rest is the shared HTTP core under every vendor client: one
// resty client per vendor carrying that vendor's base URL and auth scheme,
// with uniform retry, caching, and error normalization on top.
package rest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"

	"github.com/skovera/desk/internal/cache"
)

const (
	defaultTimeout   = 10 * time.Second
	defaultRetryBase = 1 * time.Second
	maxRetries       = 3
)

// AuthFunc injects a vendor's authentication into an outgoing request.
type AuthFunc func(r *resty.Request)

// QueryAuth authenticates with an API key query parameter.
func QueryAuth(param, key string) AuthFunc {
	return func(r *resty.Request) {
		r.SetQueryParam(param, key)
	}
}

// BearerAuth authenticates with an Authorization bearer header.
func BearerAuth(token string) AuthFunc {
	return func(r *resty.Request) {
		r.SetHeader("Authorization", "Bearer "+token)
	}
}

// HeaderAuth authenticates with one or more fixed headers.
func HeaderAuth(headers map[string]string) AuthFunc {
	return func(r *resty.Request) {
		for k, v := range headers {
			r.SetHeader(k, v)
		}
	}
}

// CacheSpec asks Get to serve from and populate the cache. Key overrides
// the default path+params key with a semantic one.
type CacheSpec struct {
	TTL time.Duration
	Key string
}

// Options configures a Client.
type Options struct {
	// Service names the vendor for logs and cache key prefixes.
	Service string
	BaseURL string
	Auth    AuthFunc
	// Timeout bounds each attempt; zero means 10s.
	Timeout time.Duration
	// RetryBase is the first backoff delay; zero means 1s. Tests shrink it.
	RetryBase time.Duration
	// Cache enables GET caching when non-nil.
	Cache *cache.Cache
	Log   zerolog.Logger
	// Debug turns on resty's request tracing.
	Debug bool
}

// Client issues requests against one vendor API. Failed attempts retry up
// to 3 times when the failure is network-level or a 5xx, waiting
// 2^attempt×RetryBase between attempts; 4xx responses are surfaced
// immediately. All failures come back as *APIError.
type Client struct {
	http  *resty.Client
	cache *cache.Cache
	log   zerolog.Logger
}

// NewClient builds a vendor client from options.
func NewClient(opts Options) *Client {
	log := opts.Log.With().Str("component", "rest").Str("service", opts.Service).Logger()

	timeout := opts.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}
	retryBase := opts.RetryBase
	if retryBase == 0 {
		retryBase = defaultRetryBase
	}

	hc := resty.New().
		SetBaseURL(opts.BaseURL).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json").
		SetHeader("User-Agent", "desk").
		SetLogger(restyLogger{log}).
		SetDebug(opts.Debug).
		SetRetryCount(maxRetries).
		SetRetryWaitTime(retryBase).
		SetRetryMaxWaitTime(retryBase << maxRetries).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			if err != nil {
				// Transport failures retry, including attempts killed by the
				// per-attempt timeout. Only a done caller context is final;
				// the error alone cannot tell the two apart since both
				// surface as context.DeadlineExceeded.
				return r.Request.Context().Err() == nil
			}
			return r.StatusCode() >= http.StatusInternalServerError
		}).
		SetRetryAfter(func(_ *resty.Client, resp *resty.Response) (time.Duration, error) {
			attempt := resp.Request.Attempt
			if attempt < 1 {
				attempt = 1
			}
			delay := retryBase << (attempt - 1)
			log.Debug().Int("attempt", attempt).Dur("delay", delay).Msg("retrying request")
			return delay, nil
		})

	if opts.Auth != nil {
		auth := opts.Auth
		hc.OnBeforeRequest(func(_ *resty.Client, r *resty.Request) error {
			auth(r)
			return nil
		})
	}

	return &Client{http: hc, cache: opts.Cache, log: log}
}

// Get issues a GET, serving from the cache first when cc is provided.
// Responses decode into out; a fresh result is written back to the cache.
func (c *Client) Get(ctx context.Context, path string, params map[string]string, cc *CacheSpec, out any) error {
	var key string
	if cc != nil && c.cache != nil && out != nil {
		key = cc.Key
		if key == "" {
			key = cache.Key(path, params)
		}
		if c.cache.Get(key, cc.TTL, out) {
			c.log.Debug().Str("path", path).Str("key", key).Msg("cache hit")
			return nil
		}
	}

	req := c.http.R().SetContext(ctx)
	if len(params) > 0 {
		req.SetQueryParams(params)
	}
	if err := c.do(req, http.MethodGet, path, out); err != nil {
		return err
	}

	if key != "" {
		c.cache.Set(key, out)
	}
	return nil
}

// Post issues a POST with a JSON body. Never cached.
func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	req := c.http.R().SetContext(ctx)
	if body != nil {
		req.SetHeader("Content-Type", "application/json").SetBody(body)
	}
	return c.do(req, http.MethodPost, path, out)
}

// Put issues a PUT with a JSON body. Never cached.
func (c *Client) Put(ctx context.Context, path string, body, out any) error {
	req := c.http.R().SetContext(ctx)
	if body != nil {
		req.SetHeader("Content-Type", "application/json").SetBody(body)
	}
	return c.do(req, http.MethodPut, path, out)
}

// Delete issues a DELETE. Never cached.
func (c *Client) Delete(ctx context.Context, path string, out any) error {
	return c.do(c.http.R().SetContext(ctx), http.MethodDelete, path, out)
}

func (c *Client) do(req *resty.Request, method, path string, out any) error {
	resp, err := req.Execute(method, path)
	if err != nil {
		c.log.Warn().Err(err).Str("method", method).Str("path", path).
			Int("attempts", req.Attempt).Msg("request failed")
		return &APIError{Network: true, Err: err, Message: err.Error()}
	}

	if err := CheckResponse(resp); err != nil {
		c.log.Warn().Str("method", method).Str("path", path).
			Int("status", resp.StatusCode()).Int("attempts", req.Attempt).
			Str("body", truncate(resp.Body(), 256)).Msg("request rejected")
		return err
	}

	c.log.Debug().Str("method", method).Str("path", path).
		Int("status", resp.StatusCode()).Int("attempts", req.Attempt).
		Dur("took", resp.Time()).Msg("request ok")

	if out == nil || len(resp.Body()) == 0 {
		return nil
	}
	if err := json.Unmarshal(resp.Body(), out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}

// restyLogger adapts resty's internal logging onto zerolog.
type restyLogger struct {
	log zerolog.Logger
}

func (l restyLogger) Errorf(format string, v ...any) { l.log.Warn().Msgf(format, v...) }
func (l restyLogger) Warnf(format string, v ...any)  { l.log.Warn().Msgf(format, v...) }
func (l restyLogger) Debugf(format string, v ...any) { l.log.Debug().Msgf(format, v...) }
