package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/keepr/keepr/internal/models"
	"github.com/keepr/keepr/internal/service"
)

const userContextKey = "current_user"

// AuthMiddleware validates the bearer token and loads the account it names
// into the request context.
func AuthMiddleware(authService *service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			AbortWithError(c, http.StatusUnauthorized, "NOT_AUTHENTICATED", "Missing authorization header")
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			AbortWithError(c, http.StatusUnauthorized, "NOT_AUTHENTICATED", "Invalid authorization format. Use: Bearer <token>")
			return
		}

		claims, err := authService.ValidateToken(parts[1])
		if err != nil {
			AbortWithError(c, http.StatusUnauthorized, "NOT_AUTHENTICATED", "Invalid or expired token")
			return
		}

		user, err := authService.ResolveUser(claims)
		if err != nil {
			AbortWithError(c, http.StatusUnauthorized, "NOT_AUTHENTICATED", "Account no longer exists")
			return
		}

		c.Set(userContextKey, user)
		c.Next()
	}
}

// RequireStaff rejects requests from accounts without staff privilege
func RequireStaff() gin.HandlerFunc {
	return func(c *gin.Context) {
		user := CurrentUser(c)
		if user == nil {
			AbortWithError(c, http.StatusUnauthorized, "NOT_AUTHENTICATED", "Not authenticated")
			return
		}
		if !user.IsStaff && !user.IsSuperuser {
			AbortWithError(c, http.StatusForbidden, "FORBIDDEN", "Insufficient permissions")
			return
		}
		c.Next()
	}
}

// CurrentUser returns the authenticated account, or nil outside AuthMiddleware
func CurrentUser(c *gin.Context) *models.User {
	v, exists := c.Get(userContextKey)
	if !exists {
		return nil
	}
	user, ok := v.(*models.User)
	if !ok {
		return nil
	}
	return user
}
