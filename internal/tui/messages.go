package tui

import (
	"time"

	"github.com/skovera/desk/internal/domain"
)

// TickMsg drives the periodic refresh.
type TickMsg time.Time

// PortfolioLoadedMsg carries a fresh account and position snapshot.
type PortfolioLoadedMsg struct {
	Account   domain.Account
	Positions []domain.Position
}

// PortfolioErrorMsg reports a failed portfolio fetch.
type PortfolioErrorMsg struct {
	Err error
}

// WatchlistQuotesMsg carries fresh quotes keyed by symbol.
type WatchlistQuotesMsg struct {
	Quotes map[string]domain.Quote
}

// WatchlistErrorMsg reports a failed watchlist fetch or save.
type WatchlistErrorMsg struct {
	Err error
}

// WatchlistSavedMsg confirms the watchlist was persisted.
type WatchlistSavedMsg struct{}

// OrdersLoadedMsg carries the current order list.
type OrdersLoadedMsg struct {
	Orders []domain.Order
}

// OrdersErrorMsg reports a failed orders fetch.
type OrdersErrorMsg struct {
	Err error
}

// OrderCanceledMsg confirms a cancellation went through.
type OrderCanceledMsg struct {
	OrderID string
}

// OrderCancelErrorMsg reports a failed cancellation.
type OrderCancelErrorMsg struct {
	Err error
}
