package middleware

import (
	"context"  // Context for the user lookup
	"net/http" // HTTP status codes

	"home_eats/internal/domain" // Domain models

	"github.com/gin-gonic/gin" // Gin web framework
)

// UserLoader fetches the current user with role profiles
type UserLoader interface {
	Load(ctx context.Context, id uint) (*domain.User, error)
}

// CurrentUser loads the authenticated user from the database on each request
func CurrentUser(users UserLoader) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, exists := c.Get(UserIDKey) // Set by JWTAuthMiddleware
		if !exists {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": "Authentication credentials were not provided."})
			return
		}
		user, err := users.Load(c.Request.Context(), userID.(uint))
		if err != nil {
			// Deleted users keep valid tokens until expiry
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": "User not found"})
			return
		}
		c.Set(UserKey, user)
		c.Set(RoleKey, user.Role) // The stored role wins over the token claim
		c.Next()
	}
}

// RequireRole lets the request through only for the given roles; it runs after CurrentUser
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := c.GetString(RoleKey)
		for _, r := range roles {
			if role == r {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"detail": "You do not have permission to perform this action."})
	}
}

// AdminOnlyMiddleware restricts a route group to operators
func AdminOnlyMiddleware() gin.HandlerFunc {
	return RequireRole(domain.RoleAdmin)
}

// User returns the user loaded by CurrentUser
func User(c *gin.Context) *domain.User {
	if v, ok := c.Get(UserKey); ok {
		if u, ok := v.(*domain.User); ok {
			return u
		}
	}
	return nil
}
