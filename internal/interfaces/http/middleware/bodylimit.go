package middleware

import (
	"net/http"

	"github.com/ech/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
)

// BodyLimit refuses bodies larger than maxBytes with 413. A declared
// Content-Length is checked up front; chunked bodies fail on read past the
// limit. maxBytes <= 0 disables the check.
func BodyLimit(maxBytes int64) gin.HandlerFunc {
	if maxBytes <= 0 {
		return passthrough
	}
	return func(c *gin.Context) {
		if c.Request.ContentLength > maxBytes {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, dto.NewErrorResponseWithRequestID(
				dto.ErrCodeRequestTooLarge, "Request body exceeds maximum allowed size", GetRequestID(c)))
			return
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}
