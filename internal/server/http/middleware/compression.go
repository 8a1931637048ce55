package middleware

import (
	"compress/gzip"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// MaxRequestBody bounds checkout payloads after decompression.
const MaxRequestBody int64 = 64 << 10

// DecompressRequest transparently handles gzip encoded requests and caps the
// body at limit bytes whether or not it was compressed.
func DecompressRequest(limit int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		body := c.Request.Body
		if strings.Contains(c.GetHeader("Content-Encoding"), "gzip") {
			reader, err := gzip.NewReader(body)
			if err != nil {
				c.AbortWithStatus(http.StatusBadRequest)
				return
			}
			defer reader.Close()
			defer body.Close()

			body = io.NopCloser(reader)
			c.Request.Header.Del("Content-Encoding")
		}
		if limit > 0 {
			body = http.MaxBytesReader(c.Writer, body, limit)
		}
		c.Request.Body = body
		c.Next()
	}
}
