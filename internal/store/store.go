// Package store provides the narrow, read-only lookups the orchestrator
// needs from the external broker-config / client-record store: the core
// owns no persistent state of its own beyond what it writes to the cache
// fabric.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"gorm.io/gorm"

	"arespricing/internal/apperr"
	"arespricing/internal/cache"
	"arespricing/internal/models"
)

// ErrNotFound is never returned across the package boundary — callers get
// an *apperr.Error instead — but is kept for gorm.ErrRecordNotFound
// translation clarity.
var ErrNotFound = errors.New("not found")

// BrokerConfigStore resolves a client's fee arrangement, cache-first.
type BrokerConfigStore struct {
	db         *gorm.DB
	cacheStore cache.Store
	cacheTTL   time.Duration
}

// NewBrokerConfigStore builds a store over db, caching lookups in the
// broker_config cache namespace.
func NewBrokerConfigStore(db *gorm.DB, cacheStore cache.Store, ttl time.Duration) *BrokerConfigStore {
	return &BrokerConfigStore{db: db, cacheStore: cacheStore, cacheTTL: ttl}
}

// LookupBrokerConfig returns the active broker config for clientID, or a
// *apperr.Error tagged ClientNotFound if none exists or it's inactive.
func (s *BrokerConfigStore) LookupBrokerConfig(ctx context.Context, clientID string) (models.BrokerConfig, error) {
	key := cache.Key(cache.NamespaceBrokerConfig, clientID)

	if raw, hit := s.cacheStore.Get(ctx, key); hit {
		var cfg models.BrokerConfig
		if err := json.Unmarshal(raw, &cfg); err == nil {
			return cfg, nil
		}
	}

	var cfg models.BrokerConfig
	err := s.db.WithContext(ctx).Where("client_id = ? AND active = ?", clientID, true).First(&cfg).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.BrokerConfig{}, apperr.New(apperr.KindClientNotFound, "client has no active broker config").
				WithDetails(map[string]interface{}{"clientId": clientID})
		}
		return models.BrokerConfig{}, apperr.Wrap(apperr.KindExternalUnavailable, "broker config lookup failed", err)
	}

	if encoded, err := json.Marshal(cfg); err == nil {
		s.cacheStore.Set(ctx, key, encoded, s.cacheTTL)
	}

	return cfg, nil
}

// ClientLimitStore resolves a client's rate-limit tier.
type ClientLimitStore struct {
	db              *gorm.DB
	standardLimit   int
	premiumLimit    int
}

// NewClientLimitStore builds a store over db with the two configured tiers.
func NewClientLimitStore(db *gorm.DB, standardLimit, premiumLimit int) *ClientLimitStore {
	return &ClientLimitStore{db: db, standardLimit: standardLimit, premiumLimit: premiumLimit}
}

// LookupClientLimit returns the requests-per-minute budget for clientID.
func (s *ClientLimitStore) LookupClientLimit(ctx context.Context, clientID string) (int, error) {
	var rec models.ClientRecord
	err := s.db.WithContext(ctx).Where("client_id = ? AND active = ?", clientID, true).First(&rec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, apperr.New(apperr.KindClientNotFound, "client record not found").
				WithDetails(map[string]interface{}{"clientId": clientID})
		}
		return 0, apperr.Wrap(apperr.KindExternalUnavailable, "client record lookup failed", err)
	}

	if rec.Tier == "PREMIUM" {
		return s.premiumLimit, nil
	}
	return s.standardLimit, nil
}
