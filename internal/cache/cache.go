// Package cache implements the multi-tier cache fabric (C2): a single
// logical key-value store keyed by "namespace:identifier" with per-entry
// TTL, backed by Redis. Cache operations fail open — an error talking to
// the store is logged and treated as a miss (Get) or a no-op (Set); the
// cache is never the reason a calculation fails.
package cache

import (
	"context"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// Namespace identifies the kind of data a cache key holds; each has its own
// TTL policy per the fabric's namespace table.
type Namespace string

const (
	NamespaceBorrowRate    Namespace = "borrow_rate"
	NamespaceVolatility    Namespace = "volatility"
	NamespaceEventRisk     Namespace = "event_risk"
	NamespaceBrokerConfig  Namespace = "broker_config"
	NamespaceCalculation   Namespace = "calculation"
	NamespaceMinRate       Namespace = "min_rate"
	NamespaceRateLimit     Namespace = "rate_limit"
)

// MarketWideIdentifier is the identifier used for the market-wide
// volatility snapshot, as opposed to a per-ticker one.
const MarketWideIdentifier = "__market__"

// Store is the cache fabric's contract. Values are opaque byte slices —
// callers serialize/deserialize their own payloads.
type Store interface {
	Get(ctx context.Context, key string) (value []byte, hit bool)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration)
	Delete(ctx context.Context, key string)
}

// Key builds the "namespace:identifier" key scheme.
func Key(ns Namespace, identifier string) string {
	return string(ns) + ":" + identifier
}

// RedisStore is the production Store backed by go-redis.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore connects to addr (host:port), authenticating with password
// (empty if none) and selecting db.
func NewRedisStore(addr, password string, db int) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	log.Printf("[CACHE] connected to redis at %s", addr)
	return &RedisStore{client: client}, nil
}

// Get fails open: any Redis error (including redis.Nil) is treated as a
// miss, never returned to the caller.
func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, bool) {
	v, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			log.Printf("[CACHE][WARN] get %s failed, treating as miss: %v", key, err)
		}
		return nil, false
	}
	return v, true
}

// Set fails open: a Redis error is logged and swallowed.
func (s *RedisStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) {
	if err := s.client.Set(ctx, key, value, ttl).Err(); err != nil {
		log.Printf("[CACHE][WARN] set %s failed, no-op: %v", key, err)
	}
}

// Delete fails open.
func (s *RedisStore) Delete(ctx context.Context, key string) {
	if err := s.client.Del(ctx, key).Err(); err != nil {
		log.Printf("[CACHE][WARN] delete %s failed, no-op: %v", key, err)
	}
}

// IncrementWindow increments the counter at key for the rate limiter (C7)
// and, if this increment created the key (post-increment value is 1),
// attaches ttl so the window expires on its own. The INCR is atomic, but
// the TTL is set by a second, separate EXPIRE call: the two are not one
// atomic operation, and if the EXPIRE fails the key is left without an
// expiry. Returns the post-increment count. On store
// failure, err is non-nil and count is 0 — callers fail open per §4.7.
func (s *RedisStore) IncrementWindow(ctx context.Context, key string, ttl time.Duration) (count int64, err error) {
	pipe := s.client.TxPipeline()
	incr := pipe.Incr(ctx, key)
	_, err = pipe.Exec(ctx)
	if err != nil {
		return 0, err
	}

	count = incr.Val()
	if count == 1 {
		// First increment created the key; set its expiry. INCR is atomic,
		// so only one caller per window sees count==1 and issues this call.
		if err := s.client.Expire(ctx, key, ttl).Err(); err != nil {
			log.Printf("[CACHE][WARN] failed to set TTL on new rate-limit window %s: %v", key, err)
		}
	}
	return count, nil
}

// Close releases the underlying Redis connection pool.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

// Ping reports whether the store is reachable, for health reporting.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
