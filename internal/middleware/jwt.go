package middleware

import (
	"net/http" // HTTP status codes
	"strings"  // String manipulation

	"home_eats/internal/utils" // JWT utility functions

	"github.com/gin-gonic/gin" // Gin web framework
)

// Context keys set by the auth middlewares
const (
	UserIDKey = "userID"
	RoleKey   = "role"
	UserKey   = "user"
)

// JWTAuthMiddleware validates access tokens and extracts user information
func JWTAuthMiddleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization") // Get Authorization header
		// Check if the Authorization header is present and properly formatted
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": "Authentication credentials were not provided."})
			return
		}
		tokenStr := strings.TrimPrefix(authHeader, "Bearer ")              // Extract the token string
		claims, err := utils.ParseJWT(tokenStr, secret, utils.AccessToken) // Refresh tokens are rejected here
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": "Given token not valid for any token type"})
			return
		}
		c.Set(UserIDKey, claims.UserID) // Store userID in context
		c.Set(RoleKey, claims.Role)     // Role at issue time; CurrentUser refreshes it
		c.Next()
	}
}
