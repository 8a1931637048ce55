package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	// TokenContextKey is a gin context key for the caller's bearer token.
	TokenContextKey = "bearerToken"
	authCookieName  = "auth_token"
)

// BearerToken captures an optional bearer token for identity resolution.
// Requests without a token pass through; the backend decides whether it is required.
func BearerToken() gin.HandlerFunc {
	return func(c *gin.Context) {
		if token := extractToken(c); token != "" {
			c.Set(TokenContextKey, token)
		}
		c.Next()
	}
}

// Token returns the bearer token captured by BearerToken.
func Token(c *gin.Context) string {
	return c.GetString(TokenContextKey)
}

func extractToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if strings.HasPrefix(strings.ToLower(authHeader), "bearer ") {
		return strings.TrimSpace(authHeader[7:])
	}

	if cookie, err := c.Cookie(authCookieName); err == nil {
		return cookie
	}
	return ""
}
