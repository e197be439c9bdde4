package middleware

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"arespricing/internal/apperr"
	"arespricing/internal/ratelimit"
	"arespricing/internal/store"
)

// RateLimit checks and admits the request against the client's configured
// per-minute budget, attaching X-RateLimit-* headers to every response per
// spec.md §6 regardless of outcome, and Retry-After on rejection.
func RateLimit(limiter *ratelimit.Limiter, limitStore *store.ClientLimitStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		clientID := ClientID(c)

		limit, err := limitStore.LookupClientLimit(c.Request.Context(), clientID)
		if err != nil {
			writeAppErr(c, err)
			c.Abort()
			return
		}

		decision, err := limiter.Check(c.Request.Context(), clientID, limit, time.Now())
		c.Header("X-RateLimit-Limit", fmt.Sprintf("%d", decision.Limit))
		c.Header("X-RateLimit-Remaining", fmt.Sprintf("%d", decision.Remaining))
		c.Header("X-RateLimit-Reset", fmt.Sprintf("%d", decision.Reset))

		if err != nil {
			c.Header("Retry-After", fmt.Sprintf("%d", decision.Reset))
			writeAppErr(c, err)
			c.Abort()
			return
		}

		c.Next()
	}
}

func writeAppErr(c *gin.Context, err error) {
	appErr, ok := apperr.As(err)
	if !ok {
		RespondError(c, http.StatusInternalServerError, err.Error(), string(apperr.KindCalculationError), nil)
		return
	}
	RespondError(c, apperr.HTTPStatus(appErr.Kind), appErr.Message, string(appErr.Kind), appErr.Details)
}
