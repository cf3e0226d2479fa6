package ratelimit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingStore struct{}

func (failingStore) Hit(context.Context, string, time.Time, time.Duration) (Entry, error) {
	return Entry{}, errors.New("store down")
}

func newTestLimiter(clock *time.Time, limit Limit) *Limiter {
	limiter := New(NewMemoryStore(limit.WindowDuration), limit)
	limiter.Clock = func() time.Time { return *clock }
	return limiter
}

func TestLimiterRejectsAfterThreshold(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	limiter := newTestLimiter(&now, Limit{RequestsPerWindow: 120, WindowDuration: time.Minute})

	for i := 1; i <= 120; i++ {
		d, err := limiter.Allow(ctx, "10.0.0.1")
		require.NoError(t, err)
		require.True(t, d.Allowed, "request %d should be admitted", i)
		require.Equal(t, 120-i, d.Remaining)
	}

	d, err := limiter.Allow(ctx, "10.0.0.1")
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.Equal(t, 121, d.Count)
	assert.Equal(t, 0, d.Remaining)
	assert.Equal(t, time.Minute, d.RetryAfter)
	assert.Equal(t, now.Add(time.Minute), d.ResetAt)
}

func TestLimiterKeysAreIndependent(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	limiter := newTestLimiter(&now, Limit{RequestsPerWindow: 1, WindowDuration: time.Minute})

	d, err := limiter.Allow(ctx, "a")
	require.NoError(t, err)
	require.True(t, d.Allowed)

	d, err = limiter.Allow(ctx, "b")
	require.NoError(t, err)
	require.True(t, d.Allowed)

	d, err = limiter.Allow(ctx, "a")
	require.NoError(t, err)
	require.False(t, d.Allowed)
}

func TestLimiterWindowResetsOnlyAfterWindowElapsed(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	limiter := newTestLimiter(&now, Limit{RequestsPerWindow: 2, WindowDuration: time.Minute})

	for i := 0; i < 3; i++ {
		_, err := limiter.Allow(ctx, "k")
		require.NoError(t, err)
	}

	// Exactly one window later is still inside the window.
	now = now.Add(time.Minute)
	d, err := limiter.Allow(ctx, "k")
	require.NoError(t, err)
	require.False(t, d.Allowed)
	require.Equal(t, 4, d.Count)

	now = now.Add(time.Millisecond)
	d, err = limiter.Allow(ctx, "k")
	require.NoError(t, err)
	require.True(t, d.Allowed)
	require.Equal(t, 1, d.Count)
}

func TestLimiterFailsOpen(t *testing.T) {
	ctx := context.Background()

	limiter := New(failingStore{}, Limit{})
	d, err := limiter.Allow(ctx, "k")
	require.Error(t, err)
	assert.True(t, d.Allowed)

	limiter = New(NewMemoryStore(0), Limit{})
	d, err = limiter.Allow(ctx, "   ")
	require.ErrorIs(t, err, ErrEmptyKey)
	assert.True(t, d.Allowed)

	var nilLimiter *Limiter
	d, err = nilLimiter.Allow(ctx, "k")
	require.NoError(t, err)
	assert.True(t, d.Allowed)
	assert.Equal(t, DefaultRequestsPerWindow, d.Limit)
}
