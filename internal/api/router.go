package api

import (
	"github.com/gin-gonic/gin"

	"arespricing/internal/auth"
	"arespricing/internal/config"
	"arespricing/internal/middleware"
	"arespricing/internal/orchestrator"
	"arespricing/internal/ratelimit"
	"arespricing/internal/store"
)

// Deps bundles everything RegisterRoutes needs to wire the route tree.
type Deps struct {
	Orchestrator    *orchestrator.Orchestrator
	HealthChecker   *orchestrator.HealthChecker
	Validator       *auth.Validator
	Limiter         *ratelimit.Limiter
	LimitStore      *store.ClientLimitStore
	ConfigManager   *config.Manager
	AdminAPIKeyHash string
}

// RegisterRoutes attaches every operation in spec.md §6 to r. health is
// exempt from authentication per the documented contract ("every
// non-health request carries a client identifier").
func RegisterRoutes(r *gin.Engine, d Deps) {
	r.GET("/health", Health(d.HealthChecker))
	r.GET("/readiness", Readiness(d.HealthChecker))

	authed := r.Group("/api/v1")
	authed.Use(middleware.AuthMiddleware(d.Validator))
	authed.Use(middleware.RateLimit(d.Limiter, d.LimitStore))
	{
		authed.POST("/calculate-fee", CalculateFee(d.Orchestrator))
		authed.GET("/rate/:ticker", GetRate(d.Orchestrator))
	}

	admin := r.Group("/api/v1/admin")
	admin.Use(middleware.AdminAuth(d.AdminAPIKeyHash))
	{
		admin.PUT("/config", UpdatePricingConfig(d.ConfigManager))
	}
}
