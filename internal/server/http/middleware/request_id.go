package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	// RequestIDHeader carries the request trace id.
	RequestIDHeader = "X-Request-ID"
	// RequestIDContextKey is a gin context key for the request trace id.
	RequestIDContextKey = "requestID"
)

// RequestID reuses the caller's trace id or assigns a new one.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(RequestIDContextKey, id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}
