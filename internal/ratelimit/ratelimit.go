// Package ratelimit implements the per-client token bucket over
// minute-aligned windows (C7), backed by the shared cache store's atomic
// counter increment. When the store is unreachable the limiter fails open
// (permits the request) and logs; availability never depends on the store,
// only cross-worker correctness does.
package ratelimit

import (
	"context"
	"fmt"
	"log"
	"time"

	"arespricing/internal/apperr"
	"arespricing/internal/cache"
)

// Decision is the outcome of a rate-limit check, carrying the header values
// the transport layer attaches to every response.
type Decision struct {
	Allowed   bool
	Limit     int
	Remaining int
	Reset     int // seconds until the current window rolls over
}

// Limiter checks and increments the per-client counter for the current
// minute-aligned window.
type Limiter struct {
	store cache.Store
}

// NewLimiter builds a Limiter over the shared cache store.
func NewLimiter(store cache.Store) *Limiter {
	return &Limiter{store: store}
}

// incrementer is satisfied by cache.RedisStore; kept as a narrow interface
// so tests can substitute a fake without depending on Redis.
type incrementer interface {
	IncrementWindow(ctx context.Context, key string, ttl time.Duration) (int64, error)
}

// Check evaluates whether clientId may make a request now, given its
// configured per-minute limit.
func (l *Limiter) Check(ctx context.Context, clientID string, limit int, now time.Time) (Decision, error) {
	unixSeconds := now.Unix()
	window := unixSeconds / 60
	resetSeconds := int(60 - (unixSeconds % 60))

	key := cache.Key(cache.NamespaceRateLimit, fmt.Sprintf("%s:%d", clientID, window))

	inc, ok := l.store.(incrementer)
	if !ok {
		log.Printf("[RATELIMIT] store does not support atomic increment, failing open for %s", clientID)
		return Decision{Allowed: true, Limit: limit, Remaining: limit, Reset: resetSeconds}, nil
	}

	count, err := inc.IncrementWindow(ctx, key, 60*time.Second)
	if err != nil {
		log.Printf("[RATELIMIT] store unreachable, failing open for %s: %v", clientID, err)
		return Decision{Allowed: true, Limit: limit, Remaining: limit, Reset: resetSeconds}, nil
	}

	if int(count) > limit {
		return Decision{Allowed: false, Limit: limit, Remaining: 0, Reset: resetSeconds},
			apperr.New(apperr.KindRateLimitExceeded, "rate limit exceeded").WithDetails(map[string]interface{}{
				"retry_after": resetSeconds,
			})
	}

	remaining := limit - int(count)
	if remaining < 0 {
		remaining = 0
	}
	return Decision{Allowed: true, Limit: limit, Remaining: remaining, Reset: resetSeconds}, nil
}
