package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mayavriksh/backend/internal/interfaces/http/dto"
)

// BodyLimit rejects requests whose declared size exceeds maxBytes and caps
// the body reader for the rest
func BodyLimit(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if maxBytes <= 0 {
			c.Next()
			return
		}
		if c.Request.ContentLength > maxBytes {
			abortWithError(c, dto.CodeRequestTooLarge, "Request body exceeds maximum allowed size")
			return
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}
