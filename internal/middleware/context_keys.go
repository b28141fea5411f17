package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/prtsw/caseflow_backend/internal/core/domain"
)

const (
	// userIDKey and userRoleKey carry the authenticated identity. JWT auth
	// stores them on the request context; API-token auth stores them in the
	// Gin context. The getters below check both.
	userIDKey   = contextKey("userID")
	userRoleKey = contextKey("userRole")

	// authMethodKey marks how a request authenticated so JWT auth can skip
	// requests the API-token middleware already resolved.
	authMethodKey = "authMethod"
)

// GetUserIDFromContext retrieves the authenticated user ID from the Gin
// context. It returns the user ID and a boolean indicating if it was found.
func GetUserIDFromContext(c *gin.Context) (string, bool) {
	if v, exists := c.Get(string(userIDKey)); exists {
		userID, ok := v.(string)
		return userID, ok && userID != ""
	}
	if v := c.Request.Context().Value(userIDKey); v != nil {
		userID, ok := v.(string)
		return userID, ok && userID != ""
	}
	return "", false
}

// GetUserRoleFromContext retrieves the authenticated user's workflow role.
func GetUserRoleFromContext(c *gin.Context) (domain.UserRole, bool) {
	var raw string
	if v, exists := c.Get(string(userRoleKey)); exists {
		raw, _ = v.(string)
	} else if v := c.Request.Context().Value(userRoleKey); v != nil {
		raw, _ = v.(string)
	}

	role := domain.UserRole(raw)
	if !role.IsValid() {
		return "", false
	}
	return role, true
}

// GetActorFromContext assembles the (user, role) pair auth resolved for this
// request. Handlers pass it down to the workflow services, which trust it and
// re-validate only the role-to-transition mapping.
func GetActorFromContext(c *gin.Context) (domain.Actor, bool) {
	userID, ok := GetUserIDFromContext(c)
	if !ok {
		return domain.Actor{}, false
	}
	role, ok := GetUserRoleFromContext(c)
	if !ok {
		return domain.Actor{}, false
	}
	return domain.Actor{UserID: userID, Role: role}, true
}
