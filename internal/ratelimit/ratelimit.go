// Package ratelimit implements a fixed-window request counter keyed by
// client identity.
package ratelimit

import (
	"context"
	"errors"
	"strings"
	"time"
)

// Defaults applied when a Limit field is zero.
const (
	DefaultRequestsPerWindow = 120
	DefaultWindow            = 60 * time.Second
)

// ErrEmptyKey is returned when no client identity could be derived.
var ErrEmptyKey = errors.New("rate limit key is empty")

// Entry captures the counter state for a single key.
type Entry struct {
	Count       int
	WindowStart time.Time
}

// Limit represents a rate limit window.
type Limit struct {
	RequestsPerWindow int
	WindowDuration    time.Duration
}

// Store holds rate limit state. Hit must apply the window reset and the
// increment atomically for a key and return the resulting entry.
type Store interface {
	Hit(ctx context.Context, key string, now time.Time, window time.Duration) (Entry, error)
}

// Decision is the outcome of a single Allow call.
type Decision struct {
	Allowed    bool
	Count      int
	Limit      int
	Remaining  int
	ResetAt    time.Time
	RetryAfter time.Duration
}

// Limiter enforces a fixed-window limit per key.
type Limiter struct {
	Store Store
	Limit Limit
	Clock func() time.Time
}

// New returns a limiter over store with the given limit.
func New(store Store, limit Limit) *Limiter {
	return &Limiter{Store: store, Limit: limit}
}

// Allow records a request for key and reports whether it is admitted.
//
// A nil limiter or store admits everything. Store errors are returned with an
// admitting decision so callers can fail open.
func (l *Limiter) Allow(ctx context.Context, key string) (Decision, error) {
	limit := l.limit()
	open := Decision{Allowed: true, Limit: limit.RequestsPerWindow, Remaining: limit.RequestsPerWindow}
	if l == nil || l.Store == nil {
		return open, nil
	}

	key = strings.TrimSpace(key)
	if key == "" {
		return open, ErrEmptyKey
	}

	now := l.now()
	entry, err := l.Store.Hit(ctx, key, now, limit.WindowDuration)
	if err != nil {
		return open, err
	}

	resetAt := entry.WindowStart.Add(limit.WindowDuration)
	decision := Decision{
		Allowed: entry.Count <= limit.RequestsPerWindow,
		Count:   entry.Count,
		Limit:   limit.RequestsPerWindow,
		ResetAt: resetAt,
	}
	if remaining := limit.RequestsPerWindow - entry.Count; remaining > 0 {
		decision.Remaining = remaining
	}
	if !decision.Allowed {
		decision.RetryAfter = resetAt.Sub(now)
		if decision.RetryAfter < 0 {
			decision.RetryAfter = 0
		}
	}
	return decision, nil
}

func (l *Limiter) limit() Limit {
	limit := Limit{RequestsPerWindow: DefaultRequestsPerWindow, WindowDuration: DefaultWindow}
	if l == nil {
		return limit
	}
	if l.Limit.RequestsPerWindow > 0 {
		limit.RequestsPerWindow = l.Limit.RequestsPerWindow
	}
	if l.Limit.WindowDuration > 0 {
		limit.WindowDuration = l.Limit.WindowDuration
	}
	return limit
}

func (l *Limiter) now() time.Time {
	if l != nil && l.Clock != nil {
		return l.Clock()
	}
	return time.Now().UTC()
}
