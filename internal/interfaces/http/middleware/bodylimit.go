package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/salehmohamadkhani/cafe/internal/interfaces/http/dto"
)

// BodyLimit rejects bodies larger than maxBytes. A declared Content-Length over
// the limit is refused up front; other bodies fail with *http.MaxBytesError
// when the handler reads past the limit.
func BodyLimit(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.ContentLength > maxBytes {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge,
				dto.NewErrorResponse(dto.ErrCodeRequestTooLarge, "Request body exceeds maximum allowed size"))
			return
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}
