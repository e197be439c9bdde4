package middleware

import (
	"github.com/gin-gonic/gin"

	"arespricing/internal/apperr"
)

// RespondError writes the `{status, error, error_code, details?}` envelope
// spec.md §7 defines for every error response.
func RespondError(c *gin.Context, httpStatus int, message, code string, details map[string]interface{}) {
	body := gin.H{
		"status":     "error",
		"error":      message,
		"error_code": code,
	}
	if details != nil {
		body["details"] = details
	}
	c.JSON(httpStatus, body)
}

// RespondAppError translates a *apperr.Error (or any error) into the
// envelope and writes it, exposed for handlers that don't go through
// RateLimit's writeAppErr path.
func RespondAppError(c *gin.Context, err error) {
	appErr, ok := apperr.As(err)
	if !ok {
		RespondError(c, 500, err.Error(), string(apperr.KindCalculationError), nil)
		return
	}
	RespondError(c, apperr.HTTPStatus(appErr.Kind), appErr.Message, string(appErr.Kind), appErr.Details)
}
