package ratelimit

import (
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"time"

	"ozran/cmd/internal/httpjson"
)

// KeyFunc derives the rate-limit key from a request.
type KeyFunc func(r *http.Request) string

// MiddlewareOption configures Middleware.
type MiddlewareOption func(*middleware)

// WithOnReject registers a callback invoked for every rejected request.
func WithOnReject(fn func(r *http.Request)) MiddlewareOption {
	return func(m *middleware) { m.onReject = fn }
}

// WithClock overrides the time source (tests).
func WithClock(now func() time.Time) MiddlewareOption {
	return func(m *middleware) {
		if now != nil {
			m.now = now
		}
	}
}

type middleware struct {
	l        Limiter
	key      KeyFunc
	log      *slog.Logger
	now      func() time.Time
	onReject func(r *http.Request)
}

// Middleware rejects requests over budget with 429 and a Retry-After header.
// Limiter errors fail open: the request proceeds and the error is logged.
func Middleware(l Limiter, key KeyFunc, log *slog.Logger, opts ...MiddlewareOption) func(http.Handler) http.Handler {
	if log == nil {
		log = slog.Default()
	}
	m := &middleware{l: l, key: key, log: log, now: time.Now}
	for _, opt := range opts {
		if opt != nil {
			opt(m)
		}
	}

	return func(next http.Handler) http.Handler {
		if m.l == nil || m.key == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			d, err := m.l.Allow(r.Context(), m.key(r), m.now())
			if err != nil {
				m.log.Warn("ratelimit.allow.fail", "err", err, "path", r.URL.Path)
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(d.Limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(max(0, d.Remaining)))

			if !d.Allowed {
				if m.onReject != nil {
					m.onReject(r)
				}
				writeRateLimited(w, d.RetryAfter)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func writeRateLimited(w http.ResponseWriter, retryAfter time.Duration) {
	if retryAfter > 0 {
		secs := int64(math.Ceil(retryAfter.Seconds()))
		w.Header().Set("Retry-After", strconv.FormatInt(secs, 10))
	}
	httpjson.WriteError(w, http.StatusTooManyRequests, httpjson.CodeRateLimited, httpjson.MsgTooManyRequests)
}
