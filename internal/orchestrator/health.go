package orchestrator

import (
	"context"

	"gorm.io/gorm"

	"arespricing/internal/resilience"
)

// componentStatus is the three-valued health state per component, matching
// the health endpoint's documented contract: "up"|"down"|"degraded", where
// degraded means the component's circuit breaker is open but a fallback
// path exists.
type componentStatus string

const (
	statusUp       componentStatus = "up"
	statusDown     componentStatus = "down"
	statusDegraded componentStatus = "degraded"
)

// pinger is satisfied by cache.RedisStore; kept narrow so a fake cache
// store can stand in for tests.
type pinger interface {
	Ping(ctx context.Context) error
}

// HealthReport is the health operation's success payload.
type HealthReport struct {
	Status     string                     `json:"status"`
	Components map[string]interface{}     `json:"components"`
	Version    string                     `json:"version"`
}

// HealthChecker reports the engine's own health and the health of the
// upstreams it depends on, without ever depending on them for its own
// liveness — every upstream has a deterministic fallback.
type HealthChecker struct {
	db       *gorm.DB
	cache    pinger
	breakers *resilience.Registry
	version  string
}

// NewHealthChecker builds a HealthChecker. cache may be nil if the
// configured cache.Store doesn't support Ping (tests use a fake store).
func NewHealthChecker(db *gorm.DB, cacheStore pinger, breakers *resilience.Registry, version string) *HealthChecker {
	return &HealthChecker{db: db, cache: cacheStore, breakers: breakers, version: version}
}

// Check reports per-component status: db, cache, and each upstream's
// breaker-derived status.
func (h *HealthChecker) Check(ctx context.Context) HealthReport {
	dbStatus := statusUp
	if h.db == nil {
		dbStatus = statusDown
	} else if sqlDB, err := h.db.DB(); err != nil || sqlDB.PingContext(ctx) != nil {
		dbStatus = statusDown
	}

	cacheStatus := statusUp
	if h.cache == nil {
		cacheStatus = statusDown
	} else if err := h.cache.Ping(ctx); err != nil {
		cacheStatus = statusDown
	}

	upstreams := map[string]interface{}{
		"borrow":     h.breakerStatus("borrow_rate"),
		"volatility": h.breakerStatus("volatility"),
		"event":      h.breakerStatus("event_risk"),
	}

	overall := "ok"
	if dbStatus == statusDown || cacheStatus == statusDown {
		overall = "degraded"
	}

	return HealthReport{
		Status: overall,
		Components: map[string]interface{}{
			"db":        dbStatus,
			"cache":     cacheStatus,
			"upstreams": upstreams,
		},
		Version: h.version,
	}
}

func (h *HealthChecker) breakerStatus(name string) componentStatus {
	if h.breakers == nil {
		return statusUp
	}
	switch h.breakers.Get(name).State() {
	case resilience.StateOpen:
		return statusDegraded
	default:
		return statusUp
	}
}

// Ready reports whether the engine can serve any request at all: the
// decimal kernel has no initialization step, so readiness reduces to "is
// the cache fabric initialized". Upstream outages alone never flip this —
// every upstream client has a deterministic fallback snapshot.
func (h *HealthChecker) Ready() bool {
	return h.cache != nil
}
