package middleware

import (
	"log/slog"

	"github.com/gin-gonic/gin"

	portssvc "github.com/prtsw/caseflow_backend/internal/core/ports/services"
)

// APITokenAuth authenticates requests carrying an x-api-key header, the
// mechanism the external renderer uses for its content-ref callback. A valid
// token acts as the issuing user under that user's current role. Requests
// without a key (or with a bad one) fall through to JWT auth untouched.
func APITokenAuth(tokenSvc portssvc.APITokenSvc) gin.HandlerFunc {
	return func(c *gin.Context) {
		apiKey := c.GetHeader("x-api-key")
		if apiKey == "" {
			c.Next()
			return
		}

		user, err := tokenSvc.ValidateToken(c.Request.Context(), apiKey)
		if err != nil {
			GetLoggerFromCtx(c.Request.Context()).Warn("API token rejected", "error", err)
			c.Next()
			return
		}

		c.Set(string(userIDKey), user.UserID)
		c.Set(string(userRoleKey), user.Role.String())
		c.Set(authMethodKey, "api_token")

		// Swap in a logger attributed to the token's issuer.
		enriched := GetLoggerFromCtx(c.Request.Context()).With(
			slog.String("user_id", user.UserID),
			slog.String("auth_method", "api_token"),
		)
		c.Request = c.Request.WithContext(withLogger(c.Request.Context(), enriched))

		c.Next()
	}
}
