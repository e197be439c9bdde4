// Package api implements the Gin handlers for the four operations in
// spec.md §6: calculate-fee, get-rate, health, readiness.
package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"arespricing/internal/config"
	"arespricing/internal/middleware"
	"arespricing/internal/orchestrator"
	"arespricing/internal/validation"
)

// calculateFeeRequest is the calculate-fee request body; clientId is never
// read from the body — it comes from the bearer token AuthMiddleware
// already resolved, so a caller cannot spoof another client's identity.
// PositionValue and LoanDays deliberately carry no binding tag: a
// structurally valid zero (positionValue:0, loanDays:0) must reach
// validation.ValidateCalculateFee so it comes back as a field-level
// validation_errors[] entry rather than Gin's generic bind-failure
// response.
type calculateFeeRequest struct {
	Ticker        string  `json:"ticker" binding:"required"`
	PositionValue float64 `json:"positionValue"`
	LoanDays      int     `json:"loanDays"`
}

// CalculateFee handles POST /api/v1/calculate-fee.
func CalculateFee(orch *orchestrator.Orchestrator) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req calculateFeeRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			middleware.RespondError(c, http.StatusBadRequest, "malformed request body", "InvalidParameter", nil)
			return
		}

		input := validation.CalculateFeeInput{
			Ticker:        req.Ticker,
			PositionValue: decimal.NewFromFloat(req.PositionValue),
			LoanDays:      req.LoanDays,
			ClientID:      middleware.ClientID(c),
		}

		result, err := orch.CalculateFee(c.Request.Context(), input)
		if err != nil {
			middleware.RespondAppError(c, err)
			return
		}

		c.JSON(http.StatusOK, result)
	}
}

// GetRate handles GET /api/v1/rate/:ticker.
func GetRate(orch *orchestrator.Orchestrator) gin.HandlerFunc {
	return func(c *gin.Context) {
		result, err := orch.GetRate(c.Request.Context(), c.Param("ticker"))
		if err != nil {
			middleware.RespondAppError(c, err)
			return
		}
		c.JSON(http.StatusOK, result)
	}
}

// Health handles GET /health.
func Health(checker *orchestrator.HealthChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, checker.Check(c.Request.Context()))
	}
}

// Readiness handles GET /readiness.
func Readiness(checker *orchestrator.HealthChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !checker.Ready() {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not_ready"})
			return
		}
		c.Status(http.StatusOK)
	}
}

// updatePricingConfigRequest is the admin hot-reload request body.
type updatePricingConfigRequest struct {
	Key    string      `json:"key" binding:"required"`
	Value  interface{} `json:"value" binding:"required"`
	Reason string      `json:"reason"`
}

// UpdatePricingConfig handles PUT /api/v1/admin/config, writing a single
// hot-reloadable tunable (circuit-breaker thresholds, rate-limit tiers) that
// config.Manager's background reload picks up within its poll interval.
func UpdatePricingConfig(configMgr *config.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req updatePricingConfigRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			middleware.RespondError(c, http.StatusBadRequest, "malformed request body", "InvalidParameter", nil)
			return
		}

		if err := configMgr.Set(req.Key, req.Value, "admin", req.Reason); err != nil {
			middleware.RespondError(c, http.StatusInternalServerError, err.Error(), "CalculationError", nil)
			return
		}

		c.JSON(http.StatusOK, gin.H{"status": "ok", "key": req.Key})
	}
}
