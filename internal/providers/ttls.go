package providers

import (
	"errors"
	"time"
)

// ErrNoProvider is returned when selection exhausts every option, including
// the default adapter. It only happens when a registry was built without
// defaults, which the standard wiring never does.
var ErrNoProvider = errors.New("no provider available")

// TTLs carries the cache validity window per data class. Adapters pick the
// class that matches each operation; a zero value disables caching for that
// class.
type TTLs struct {
	MarketData   time.Duration
	Fundamentals time.Duration
	News         time.Duration
	Portfolio    time.Duration
}
