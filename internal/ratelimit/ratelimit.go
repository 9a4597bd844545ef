// Package ratelimit guards free-tier vendor APIs with a client-side
// request budget so quota exhaustion is caught before a network call.
package ratelimit

import (
	"fmt"
	"sync"
	"time"
)

// Error reports an exhausted budget. It carries no HTTP status: the request
// was never sent.
type Error struct {
	Service string
	Limit   int
	Window  time.Duration
	// RetryAfter is how long until the current window rolls over.
	RetryAfter time.Duration
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: request budget of %d per %s exhausted, retry in %s",
		e.Service, e.Limit, e.Window, e.RetryAfter.Round(time.Second))
}

// Limiter is a fixed-window request budget: at most limit requests per
// window. Safe for concurrent use.
type Limiter struct {
	service string
	limit   int
	window  time.Duration

	mu      sync.Mutex
	used    int
	started time.Time
	now     func() time.Time
}

// New returns a limiter allowing limit requests per window.
func New(service string, limit int, window time.Duration) *Limiter {
	return &Limiter{
		service: service,
		limit:   limit,
		window:  window,
		now:     time.Now,
	}
}

// WithClock overrides the time source for tests.
func (l *Limiter) WithClock(now func() time.Time) *Limiter {
	l.now = now
	return l
}

func (l *Limiter) roll(now time.Time) {
	if l.started.IsZero() || now.Sub(l.started) >= l.window {
		l.started = now
		l.used = 0
	}
}

// Allow consumes one request from the budget, or returns a *Error when the
// window is exhausted.
func (l *Limiter) Allow() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.roll(now)
	if l.used >= l.limit {
		return &Error{
			Service:    l.service,
			Limit:      l.limit,
			Window:     l.window,
			RetryAfter: l.window - now.Sub(l.started),
		}
	}
	l.used++
	return nil
}

// Remaining reports how many requests are left in the current window.
func (l *Limiter) Remaining() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.roll(l.now())
	return l.limit - l.used
}

// Reset clears the current window. Used by tests and by explicit operator
// action; vendors reset quotas on their own schedule regardless.
func (l *Limiter) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.started = time.Time{}
	l.used = 0
}
