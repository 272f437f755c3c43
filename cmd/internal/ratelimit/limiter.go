// Package ratelimit enforces per-client request budgets.
//
// Two Limiter implementations are provided: MemoryLimiter keeps a sliding
// window per key inside the process, RedisLimiter keeps a fixed window per key
// in Redis so replicas share one budget.
package ratelimit

import (
	"context"
	"time"
)

// Defaults applied to the public auth and API routes.
const (
	DefaultLimit  = 100
	DefaultWindow = 15 * time.Minute
)

// Decision is the outcome of one Allow call.
type Decision struct {
	Allowed    bool
	Limit      int
	Remaining  int
	RetryAfter time.Duration
}

// Limiter decides whether a request identified by key may proceed at now.
type Limiter interface {
	Allow(ctx context.Context, key string, now time.Time) (Decision, error)
}

func normalize(limit int, window time.Duration) (int, time.Duration) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if window <= 0 {
		window = DefaultWindow
	}
	return limit, window
}
