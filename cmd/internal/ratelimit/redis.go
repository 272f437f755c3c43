package ratelimit

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "ozran:ratelimit:"

// RedisLimiter is a fixed-window limiter backed by Redis INCR/PEXPIRE.
// All replicas pointing at the same Redis share one budget per key.
type RedisLimiter struct {
	rdb    redis.Cmdable
	limit  int
	window time.Duration
}

// NewRedisLimiter constructs a RedisLimiter.
func NewRedisLimiter(rdb redis.Cmdable, limit int, window time.Duration) (*RedisLimiter, error) {
	if rdb == nil {
		return nil, errors.New("ratelimit: nil redis client")
	}
	limit, window = normalize(limit, window)
	return &RedisLimiter{rdb: rdb, limit: limit, window: window}, nil
}

// Allow counts one request for key in the current window.
func (l *RedisLimiter) Allow(ctx context.Context, key string, _ time.Time) (Decision, error) {
	k := redisKeyPrefix + key

	pipe := l.rdb.TxPipeline()
	incr := pipe.Incr(ctx, k)
	pttl := pipe.PTTL(ctx, k)
	if _, err := pipe.Exec(ctx); err != nil {
		return Decision{}, err
	}

	n := incr.Val()
	ttl := pttl.Val()
	// First hit of a window (or a key that lost its TTL): start the window now.
	if ttl < 0 {
		if err := l.rdb.PExpire(ctx, k, l.window).Err(); err != nil {
			return Decision{}, err
		}
		ttl = l.window
	}

	if n > int64(l.limit) {
		return Decision{
			Allowed:    false,
			Limit:      l.limit,
			Remaining:  0,
			RetryAfter: ttl,
		}, nil
	}
	return Decision{
		Allowed:   true,
		Limit:     l.limit,
		Remaining: l.limit - int(n),
	}, nil
}
