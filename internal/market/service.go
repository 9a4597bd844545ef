// Package market exposes the provider-agnostic market-data service. It owns
// provider selection for every read operation: callers never talk to a
// vendor adapter directly.
package market

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/skovera/desk/internal/domain"
	"github.com/skovera/desk/internal/providers"
)

// Service routes market-data operations through the registry's selection
// walk. An explicit provider that fails is retried once against the auto
// walk; adapters that report an operation as unsupported are skipped.
type Service struct {
	registry *providers.Registry
	pref     providers.ID
	log      zerolog.Logger
}

// New builds the service with the configured default provider preference.
func New(registry *providers.Registry, pref providers.ID, log zerolog.Logger) *Service {
	return &Service{
		registry: registry,
		pref:     pref,
		log:      log.With().Str("component", "market").Logger(),
	}
}

// WithProvider returns a copy of the service pinned to the given provider
// for its lifetime. An empty id keeps the configured preference.
func (s *Service) WithProvider(id providers.ID) *Service {
	if id == "" {
		return s
	}
	copied := *s
	copied.pref = id
	return &copied
}

func (s *Service) Quote(ctx context.Context, symbol string) (domain.Quote, error) {
	symbol, err := cleanSymbol(symbol)
	if err != nil {
		return domain.Quote{}, err
	}
	return invoke(ctx, s, "quote", func(ctx context.Context, p providers.MarketData) (domain.Quote, error) {
		return p.Quote(ctx, symbol)
	})
}

func (s *Service) Bars(ctx context.Context, symbol string, params domain.BarParams) ([]domain.Bar, error) {
	symbol, err := cleanSymbol(symbol)
	if err != nil {
		return nil, err
	}
	return invoke(ctx, s, "bars", func(ctx context.Context, p providers.MarketData) ([]domain.Bar, error) {
		return p.Bars(ctx, symbol, params)
	})
}

func (s *Service) Search(ctx context.Context, query string) ([]domain.SymbolMatch, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, &domain.ValidationError{Field: "query", Message: "search query is required"}
	}
	return invoke(ctx, s, "search", func(ctx context.Context, p providers.MarketData) ([]domain.SymbolMatch, error) {
		return p.Search(ctx, query)
	})
}

func (s *Service) Movers(ctx context.Context, kind domain.MoverKind) ([]domain.Mover, error) {
	switch kind {
	case domain.MoverGainers, domain.MoverLosers, domain.MoverActives:
	default:
		return nil, &domain.ValidationError{Field: "kind", Message: fmt.Sprintf("unknown movers kind %q", kind)}
	}
	return invoke(ctx, s, "movers", func(ctx context.Context, p providers.MarketData) ([]domain.Mover, error) {
		return p.Movers(ctx, kind)
	})
}

func (s *Service) News(ctx context.Context, symbol string) ([]domain.NewsItem, error) {
	symbol, err := cleanSymbol(symbol)
	if err != nil {
		return nil, err
	}
	return invoke(ctx, s, "news", func(ctx context.Context, p providers.MarketData) ([]domain.NewsItem, error) {
		return p.News(ctx, symbol)
	})
}

func (s *Service) Overview(ctx context.Context, symbol string) (domain.CompanyOverview, error) {
	symbol, err := cleanSymbol(symbol)
	if err != nil {
		return domain.CompanyOverview{}, err
	}
	return invoke(ctx, s, "overview", func(ctx context.Context, p providers.MarketData) (domain.CompanyOverview, error) {
		return p.Overview(ctx, symbol)
	})
}

// invoke runs one operation against the selection walk. A pinned explicit
// provider that fails gets one more chance via the auto walk before the
// error surfaces.
func invoke[T any](ctx context.Context, s *Service, op string, call func(context.Context, providers.MarketData) (T, error)) (T, error) {
	walk := s.registry.MarketWalk(s.pref)
	out, err := tryWalk(ctx, s, walk, op, call)
	if err == nil {
		return out, nil
	}

	// Only when the walk was actually pinned to the explicit provider;
	// an unavailable explicit preference already walked the auto order.
	pinned := s.pref != "" && s.pref != providers.Auto &&
		len(walk) == 1 && walk[0] != nil && walk[0].ID() == s.pref
	if pinned && !s.registry.ForceMock() {
		s.log.Warn().Err(err).
			Str("provider", string(s.pref)).
			Str("op", op).
			Msg("explicit provider failed, retrying with auto selection")
		return tryWalk(ctx, s, s.registry.MarketWalk(providers.Auto), op, call)
	}
	return out, err
}

func tryWalk[T any](ctx context.Context, s *Service, walk []providers.MarketData, op string, call func(context.Context, providers.MarketData) (T, error)) (T, error) {
	var zero T
	var lastErr error

	for _, p := range walk {
		if p == nil {
			continue
		}
		out, err := call(ctx, p)
		if err == nil {
			return out, nil
		}
		if ctx.Err() != nil {
			return zero, err
		}
		var nsErr *providers.NotSupportedError
		if !errors.As(err, &nsErr) {
			// Real failures surface to the caller; only unsupported
			// operations move the walk along.
			s.log.Warn().Err(err).Str("provider", string(p.ID())).Str("op", op).Msg("provider call failed")
			return zero, err
		}
		s.log.Debug().Str("provider", string(p.ID())).Str("op", op).Msg("operation not supported, trying next provider")
		lastErr = err
	}
	if lastErr == nil {
		lastErr = providers.ErrNoProvider
	}
	return zero, lastErr
}

func cleanSymbol(symbol string) (string, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return "", &domain.ValidationError{Field: "symbol", Message: "symbol is required"}
	}
	return symbol, nil
}
