package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLimiter_Budget(t *testing.T) {
	now := time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC)
	l := New("alphavantage", 3, 24*time.Hour).WithClock(func() time.Time { return now })

	for i := 0; i < 3; i++ {
		require.NoError(t, l.Allow())
	}
	assert.Equal(t, 0, l.Remaining())

	err := l.Allow()
	require.Error(t, err)

	var rlErr *Error
	require.ErrorAs(t, err, &rlErr)
	assert.Equal(t, "alphavantage", rlErr.Service)
	assert.Equal(t, 3, rlErr.Limit)
	assert.Equal(t, 24*time.Hour, rlErr.RetryAfter)
}

func TestLimiter_WindowRollsOver(t *testing.T) {
	now := time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC)
	l := New("finnhub", 2, time.Minute).WithClock(func() time.Time { return now })

	require.NoError(t, l.Allow())
	require.NoError(t, l.Allow())
	require.Error(t, l.Allow())

	now = now.Add(time.Minute)
	assert.Equal(t, 2, l.Remaining())
	assert.NoError(t, l.Allow())
}

func TestLimiter_Reset(t *testing.T) {
	l := New("alphavantage", 1, 24*time.Hour)
	require.NoError(t, l.Allow())
	require.Error(t, l.Allow())

	l.Reset()
	assert.NoError(t, l.Allow())
}
