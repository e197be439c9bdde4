// Package middleware carries the transport-layer concerns the engine
// delegates to Gin: client identity resolution, CORS, rate-limit headers,
// and the error envelope — none of the handlers in internal/api reimplement
// them.
package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"arespricing/internal/auth"
)

// ClientIDKey is the gin.Context key AuthMiddleware sets on success.
const ClientIDKey = "clientId"

// AuthMiddleware resolves the bearer token on every non-health request to a
// clientId via validator, per spec.md §6 "every non-health request carries a
// client identifier that the transport layer resolves to a clientId". Token
// issuance lives outside this module; this only validates.
func AuthMiddleware(validator *auth.Validator) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			RespondError(c, http.StatusUnauthorized, "authorization header required", "Unauthorized", nil)
			c.Abort()
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			RespondError(c, http.StatusUnauthorized, "authorization header must be a bearer token", "Unauthorized", nil)
			c.Abort()
			return
		}

		clientID, err := validator.ValidateAndExtractClientID(parts[1])
		if err != nil {
			RespondError(c, http.StatusUnauthorized, "invalid or expired access token", "Unauthorized", nil)
			c.Abort()
			return
		}

		c.Set(ClientIDKey, clientID)
		c.Next()
	}
}

// ClientID fetches the clientId AuthMiddleware resolved for this request.
func ClientID(c *gin.Context) string {
	v, _ := c.Get(ClientIDKey)
	id, _ := v.(string)
	return id
}

// AdminAuth gates the hot-reload config endpoint behind a bcrypt-verified
// key in the X-Admin-Key header, separate from client bearer-token auth: an
// operator adjusting circuit-breaker thresholds or rate-limit tiers is not a
// pricing client. An empty configured hash disables the endpoint entirely.
func AdminAuth(keyHash string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if keyHash == "" {
			RespondError(c, http.StatusUnauthorized, "admin endpoint is not configured", "Unauthorized", nil)
			c.Abort()
			return
		}

		key := c.GetHeader("X-Admin-Key")
		if key == "" || auth.VerifyAdminKey(keyHash, key) != nil {
			RespondError(c, http.StatusUnauthorized, "invalid admin key", "Unauthorized", nil)
			c.Abort()
			return
		}

		c.Next()
	}
}
