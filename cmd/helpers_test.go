package cmd

import (
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/skovera/desk/internal/market"
	"github.com/skovera/desk/internal/providers"
	"github.com/skovera/desk/internal/providers/mock"
	"github.com/skovera/desk/internal/trading"
)

// testServices builds mock-backed services so command tests run without
// network access or credentials.
func testServices(t *testing.T) (*market.Service, *trading.Service, *providers.Registry) {
	t.Helper()

	fallback := mock.New(mock.Options{FillDelay: time.Hour, Log: zerolog.Nop()})
	registry := providers.NewRegistry(false, zerolog.Nop())
	registry.SetDefaults(fallback, fallback)

	return market.New(registry, providers.Auto, zerolog.Nop()),
		trading.New(registry, providers.Auto, zerolog.Nop()),
		registry
}
