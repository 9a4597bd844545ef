// Package trading exposes the provider-agnostic trading service. Reads walk
// the selection order like market data; order mutations go to exactly one
// provider so a transient failure can never double-submit.
package trading

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/skovera/desk/internal/domain"
	"github.com/skovera/desk/internal/providers"
)

// Service routes trading operations through the registry's selection walk.
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
		log:      log.With().Str("component", "trading").Logger(),
	}
}

// WithProvider returns a copy of the service pinned to the given provider.
// An empty id keeps the configured preference.
func (s *Service) WithProvider(id providers.ID) *Service {
	if id == "" {
		return s
	}
	copied := *s
	copied.pref = id
	return &copied
}

func (s *Service) Account(ctx context.Context) (domain.Account, error) {
	return invoke(ctx, s, "account", func(ctx context.Context, p providers.Trading) (domain.Account, error) {
		return p.Account(ctx)
	})
}

func (s *Service) Positions(ctx context.Context) ([]domain.Position, error) {
	return invoke(ctx, s, "positions", func(ctx context.Context, p providers.Trading) ([]domain.Position, error) {
		return p.Positions(ctx)
	})
}

func (s *Service) Orders(ctx context.Context) ([]domain.Order, error) {
	return invoke(ctx, s, "orders", func(ctx context.Context, p providers.Trading) ([]domain.Order, error) {
		return p.Orders(ctx)
	})
}

// CreateOrder validates the request before any network call, then submits
// it to the single selected provider. No fallback: a failed submission
// surfaces rather than being retried against another broker.
func (s *Service) CreateOrder(ctx context.Context, req domain.OrderRequest) (domain.Order, error) {
	req = req.Normalize()
	if err := req.Validate(); err != nil {
		return domain.Order{}, err
	}

	p, err := s.selectOne()
	if err != nil {
		return domain.Order{}, err
	}
	order, err := p.CreateOrder(ctx, req)
	if err != nil {
		return domain.Order{}, fmt.Errorf("%s: %w", p.ID(), err)
	}
	s.log.Info().
		Str("provider", string(p.ID())).
		Str("order_id", order.ID).
		Str("symbol", order.Symbol).
		Str("side", string(order.Side)).
		Float64("quantity", order.Quantity).
		Msg("order submitted")
	return order, nil
}

// CancelOrder cancels against the single selected provider.
func (s *Service) CancelOrder(ctx context.Context, orderID string) error {
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return &domain.ValidationError{Field: "orderId", Message: "order id is required"}
	}

	p, err := s.selectOne()
	if err != nil {
		return err
	}
	if err := p.CancelOrder(ctx, orderID); err != nil {
		return fmt.Errorf("%s: %w", p.ID(), err)
	}
	s.log.Info().Str("provider", string(p.ID())).Str("order_id", orderID).Msg("order canceled")
	return nil
}

// selectOne resolves the provider order mutations go to: the head of the
// selection walk.
func (s *Service) selectOne() (providers.Trading, error) {
	walk := s.registry.TradingWalk(s.pref)
	for _, p := range walk {
		if p != nil {
			return p, nil
		}
	}
	return nil, providers.ErrNoProvider
}

func invoke[T any](ctx context.Context, s *Service, op string, call func(context.Context, providers.Trading) (T, error)) (T, error) {
	walk := s.registry.TradingWalk(s.pref)
	out, err := tryWalk(ctx, s, walk, op, call)
	if err == nil {
		return out, nil
	}

	pinned := s.pref != "" && s.pref != providers.Auto &&
		len(walk) == 1 && walk[0] != nil && walk[0].ID() == s.pref
	if pinned && !s.registry.ForceMock() {
		s.log.Warn().Err(err).
			Str("provider", string(s.pref)).
			Str("op", op).
			Msg("explicit provider failed, retrying with auto selection")
		return tryWalk(ctx, s, s.registry.TradingWalk(providers.Auto), op, call)
	}
	return out, err
}

func tryWalk[T any](ctx context.Context, s *Service, walk []providers.Trading, op string, call func(context.Context, providers.Trading) (T, error)) (T, error) {
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
