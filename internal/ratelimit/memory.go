package ratelimit

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps per-key windows in process memory.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]*Entry
	window  time.Duration
}

// NewMemoryStore returns an empty store. window is used by Sweep to decide
// when an entry is stale.
func NewMemoryStore(window time.Duration) *MemoryStore {
	if window <= 0 {
		window = DefaultWindow
	}
	return &MemoryStore{
		entries: make(map[string]*Entry),
		window:  window,
	}
}

// Hit implements Store.
func (s *MemoryStore) Hit(_ context.Context, key string, now time.Time, window time.Duration) (Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[key]
	if !ok {
		entry = &Entry{Count: 1, WindowStart: now}
		s.entries[key] = entry
		return *entry, nil
	}

	if now.Sub(entry.WindowStart) > window {
		entry.Count = 1
		entry.WindowStart = now
	} else {
		entry.Count++
	}
	return *entry, nil
}

// Len returns the number of tracked keys.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Sweep drops entries whose window ended more than one window before now
// and returns how many were removed.
func (s *MemoryStore) Sweep(now time.Time) int {
	cutoff := now.Add(-2 * s.window)

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for key, entry := range s.entries {
		if entry.WindowStart.Before(cutoff) {
			delete(s.entries, key)
			removed++
		}
	}
	return removed
}

// StartJanitor sweeps the store every interval until ctx is cancelled.
// onSweep, when set, receives the number of removed keys.
func (s *MemoryStore) StartJanitor(ctx context.Context, every time.Duration, onSweep func(removed int)) {
	if every <= 0 {
		return
	}

	t := time.NewTicker(every)
	go func() {
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-t.C:
				removed := s.Sweep(now)
				if onSweep != nil {
					onSweep(removed)
				}
			}
		}
	}()
}
