package ratelimit

import (
	"context"
	"sync"
	"time"
)

// sweepEvery is how many Allow calls pass between idle-key sweeps.
const sweepEvery = 1024

// MemoryLimiter is a per-key sliding-window limiter.
type MemoryLimiter struct {
	mu     sync.Mutex
	keys   map[string][]time.Time
	limit  int
	window time.Duration
	calls  int
}

// NewMemoryLimiter constructs a MemoryLimiter with safe defaults when inputs are invalid.
func NewMemoryLimiter(limit int, window time.Duration) *MemoryLimiter {
	limit, window = normalize(limit, window)
	return &MemoryLimiter{
		keys:   make(map[string][]time.Time),
		limit:  limit,
		window: window,
	}
}

// Allow reports whether an event for key at time "now" should be permitted.
func (l *MemoryLimiter) Allow(_ context.Context, key string, now time.Time) (Decision, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.calls++
	if l.calls%sweepEvery == 0 {
		l.sweep(now)
	}

	cut := now.Add(-l.window)
	events := l.keys[key]
	dst := events[:0]
	for _, t := range events {
		if t.After(cut) {
			dst = append(dst, t)
		}
	}
	events = dst

	if len(events) >= l.limit {
		l.keys[key] = events
		return Decision{
			Allowed:    false,
			Limit:      l.limit,
			Remaining:  0,
			RetryAfter: events[0].Add(l.window).Sub(now),
		}, nil
	}

	events = append(events, now)
	l.keys[key] = events
	return Decision{
		Allowed:   true,
		Limit:     l.limit,
		Remaining: l.limit - len(events),
	}, nil
}

// Len returns the number of tracked keys.
func (l *MemoryLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.keys)
}

// sweep drops keys whose newest event fell out of the window. Caller holds mu.
func (l *MemoryLimiter) sweep(now time.Time) {
	cut := now.Add(-l.window)
	for k, events := range l.keys {
		if len(events) == 0 || !events[len(events)-1].After(cut) {
			delete(l.keys, k)
		}
	}
}
