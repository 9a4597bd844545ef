// Package server exposes the market and trading services over HTTP for
// dashboards and scripts. It is a thin façade: every handler decodes the
// request, calls a service, and encodes the canonical domain type.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/skovera/desk/internal/domain"
	"github.com/skovera/desk/internal/market"
	"github.com/skovera/desk/internal/providers"
	"github.com/skovera/desk/internal/ratelimit"
	"github.com/skovera/desk/internal/rest"
	"github.com/skovera/desk/internal/trading"
)

// Server serves the HTTP API.
type Server struct {
	market   *market.Service
	trading  *trading.Service
	registry *providers.Registry
	log      zerolog.Logger
	router   chi.Router
}

// Options configures the server.
type Options struct {
	Market   *market.Service
	Trading  *trading.Service
	Registry *providers.Registry
	Log      zerolog.Logger
}

// New builds the server and its routes.
func New(opts Options) *Server {
	s := &Server{
		market:   opts.Market,
		trading:  opts.Trading,
		registry: opts.Registry,
		log:      opts.Log.With().Str("component", "server").Logger(),
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", s.handleHealth)
	r.Get("/api/providers", s.handleProviders)

	r.Route("/api/market", func(r chi.Router) {
		r.Get("/quote/{symbol}", s.handleQuote)
		r.Get("/bars/{symbol}", s.handleBars)
		r.Get("/search", s.handleSearch)
		r.Get("/movers/{kind}", s.handleMovers)
		r.Get("/news/{symbol}", s.handleNews)
		r.Get("/overview/{symbol}", s.handleOverview)
	})

	r.Route("/api/trading", func(r chi.Router) {
		r.Get("/account", s.handleAccount)
		r.Get("/positions", s.handlePositions)
		r.Get("/orders", s.handleOrders)
		r.Post("/orders", s.handleCreateOrder)
		r.Delete("/orders/{id}", s.handleCancelOrder)
	})

	s.router = r
	return s
}

// Handler returns the root handler, mainly for tests.
func (s *Server) Handler() http.Handler { return s.router }

// ListenAndServe runs the server until ctx is canceled, then drains
// in-flight requests for up to ten seconds.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", addr).Msg("http server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.log.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("duration", time.Since(start)).
			Msg("request")
	})
}

// marketFor applies the optional ?provider= override.
func (s *Server) marketFor(r *http.Request) (*market.Service, error) {
	id, err := providers.Parse(r.URL.Query().Get("provider"))
	if err != nil {
		return nil, err
	}
	if id == providers.Auto {
		return s.market, nil
	}
	return s.market.WithProvider(id), nil
}

func (s *Server) tradingFor(r *http.Request) (*trading.Service, error) {
	id, err := providers.Parse(r.URL.Query().Get("provider"))
	if err != nil {
		return nil, err
	}
	if id == providers.Auto {
		return s.trading, nil
	}
	return s.trading.WithProvider(id), nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respond(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleProviders(w http.ResponseWriter, r *http.Request) {
	type providerStatus struct {
		ID        string `json:"id"`
		Market    bool   `json:"market"`
		Trading   bool   `json:"trading"`
		Available bool   `json:"available"`
	}
	statuses := s.registry.Statuses()
	out := make([]providerStatus, 0, len(statuses))
	for _, st := range statuses {
		out = append(out, providerStatus{
			ID:        string(st.ID),
			Market:    st.Market,
			Trading:   st.Trading,
			Available: st.Available,
		})
	}
	s.respond(w, http.StatusOK, out)
}

func (s *Server) handleQuote(w http.ResponseWriter, r *http.Request) {
	svc, err := s.marketFor(r)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err)
		return
	}
	quote, err := svc.Quote(r.Context(), chi.URLParam(r, "symbol"))
	if err != nil {
		s.serviceError(w, err)
		return
	}
	s.respond(w, http.StatusOK, quote)
}

func (s *Server) handleBars(w http.ResponseWriter, r *http.Request) {
	svc, err := s.marketFor(r)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err)
		return
	}

	params := domain.BarParams{Interval: r.URL.Query().Get("interval")}
	if v := r.URL.Query().Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit < 0 {
			s.respondError(w, http.StatusBadRequest, errors.New("limit must be a non-negative integer"))
			return
		}
		params.Limit = limit
	}

	bars, err := svc.Bars(r.Context(), chi.URLParam(r, "symbol"), params)
	if err != nil {
		s.serviceError(w, err)
		return
	}
	s.respond(w, http.StatusOK, bars)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	svc, err := s.marketFor(r)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err)
		return
	}
	matches, err := svc.Search(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		s.serviceError(w, err)
		return
	}
	s.respond(w, http.StatusOK, matches)
}

func (s *Server) handleMovers(w http.ResponseWriter, r *http.Request) {
	svc, err := s.marketFor(r)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err)
		return
	}
	movers, err := svc.Movers(r.Context(), domain.MoverKind(chi.URLParam(r, "kind")))
	if err != nil {
		s.serviceError(w, err)
		return
	}
	s.respond(w, http.StatusOK, movers)
}

func (s *Server) handleNews(w http.ResponseWriter, r *http.Request) {
	svc, err := s.marketFor(r)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err)
		return
	}
	news, err := svc.News(r.Context(), chi.URLParam(r, "symbol"))
	if err != nil {
		s.serviceError(w, err)
		return
	}
	s.respond(w, http.StatusOK, news)
}

func (s *Server) handleOverview(w http.ResponseWriter, r *http.Request) {
	svc, err := s.marketFor(r)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err)
		return
	}
	overview, err := svc.Overview(r.Context(), chi.URLParam(r, "symbol"))
	if err != nil {
		s.serviceError(w, err)
		return
	}
	s.respond(w, http.StatusOK, overview)
}

func (s *Server) handleAccount(w http.ResponseWriter, r *http.Request) {
	svc, err := s.tradingFor(r)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err)
		return
	}
	account, err := svc.Account(r.Context())
	if err != nil {
		s.serviceError(w, err)
		return
	}
	s.respond(w, http.StatusOK, account)
}

func (s *Server) handlePositions(w http.ResponseWriter, r *http.Request) {
	svc, err := s.tradingFor(r)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err)
		return
	}
	positions, err := svc.Positions(r.Context())
	if err != nil {
		s.serviceError(w, err)
		return
	}
	s.respond(w, http.StatusOK, positions)
}

func (s *Server) handleOrders(w http.ResponseWriter, r *http.Request) {
	svc, err := s.tradingFor(r)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err)
		return
	}
	orders, err := svc.Orders(r.Context())
	if err != nil {
		s.serviceError(w, err)
		return
	}
	s.respond(w, http.StatusOK, orders)
}

func (s *Server) handleCreateOrder(w http.ResponseWriter, r *http.Request) {
	svc, err := s.tradingFor(r)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err)
		return
	}

	var req domain.OrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, errors.New("invalid request body"))
		return
	}

	order, err := svc.CreateOrder(r.Context(), req)
	if err != nil {
		s.serviceError(w, err)
		return
	}
	s.respond(w, http.StatusCreated, order)
}

func (s *Server) handleCancelOrder(w http.ResponseWriter, r *http.Request) {
	svc, err := s.tradingFor(r)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err)
		return
	}
	if err := svc.CancelOrder(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.serviceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// serviceError maps service failures to HTTP statuses.
func (s *Server) serviceError(w http.ResponseWriter, err error) {
	var vErr *domain.ValidationError
	var nsErr *providers.NotSupportedError
	var rlErr *ratelimit.Error
	var apiErr *rest.APIError

	switch {
	case errors.As(err, &vErr):
		s.respondError(w, http.StatusBadRequest, err)
	case errors.As(err, &nsErr):
		s.respondError(w, http.StatusNotImplemented, err)
	case errors.As(err, &rlErr):
		s.respondError(w, http.StatusTooManyRequests, err)
	case errors.As(err, &apiErr) && apiErr.IsNotFound():
		s.respondError(w, http.StatusNotFound, err)
	case errors.Is(err, providers.ErrNoProvider):
		s.respondError(w, http.StatusServiceUnavailable, err)
	default:
		s.respondError(w, http.StatusBadGateway, err)
	}
}

func (s *Server) respond(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Error().Err(err).Msg("failed to encode response")
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}
