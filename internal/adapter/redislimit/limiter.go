// Package redislimit implements the admission gate with fixed-window
// counters on Redis: INCR plus a conditional EXPIRE on the first hit in
// the window.
package redislimit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"bookwise/internal/domain"
)

// ErrRedisUnavailable wraps transport failures talking to Redis.
var ErrRedisUnavailable = errors.New("redis unavailable")

// Limiter enforces a per-key request budget over a rolling window.
type Limiter struct {
	redis  redis.UniversalClient
	max    int64
	window time.Duration
}

var _ domain.RateGate = (*Limiter)(nil)

// New creates a Limiter admitting up to maxRequests per window for each key.
func New(client redis.UniversalClient, maxRequests int, window time.Duration) *Limiter {
	return &Limiter{
		redis:  client,
		max:    int64(maxRequests),
		window: window,
	}
}

// Allow increments the counter for key and reports whether the request is
// within budget. Check-and-increment is a single Redis INCR, so concurrent
// callers cannot double-admit past the quota.
func (l *Limiter) Allow(ctx context.Context, key string) (bool, error) {
	k := limitKey(key)

	count, err := l.redis.Incr(ctx, k).Result()
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	// Fixed-window semantics: set TTL only for the first hit in the window.
	if count == 1 {
		if err := l.redis.Expire(ctx, k, l.window).Err(); err != nil {
			return false, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
		}
	}

	return count <= l.max, nil
}

func limitKey(key string) string {
	return "rl:" + key
}
