// Package middleware provides the gin middleware of the cash register API.
package middleware

import (
	"context"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/ech/backend/internal/infrastructure/logger"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	RequestIDHeader = "X-Request-ID"
	RequestIDKey    = "request_id"
	// MaxRequestIDLength bounds client supplied request ids
	MaxRequestIDLength = 128
)

// CORSConfig lists the origins allowed to call the API from a browser.
// Empty methods or headers take the defaults below.
type CORSConfig struct {
	AllowOrigins  []string
	AllowMethods  []string
	AllowHeaders  []string
	ExposeHeaders []string
}

var (
	defaultCORSMethods = []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions}
	defaultCORSHeaders = []string{"Origin", "Accept", "Content-Type", "Authorization", "Cache-Control", RequestIDHeader, IdempotencyKeyHeader}
	corsExposed        = []string{RequestIDHeader, IdempotentReplayHeader, "Content-Disposition", "X-RateLimit-Limit", "X-RateLimit-Remaining"}
)

// CORS answers preflight requests and refuses unlisted origins with 403.
// "*" allows every origin without credentials, an empty list allows none.
func CORS(cfg CORSConfig) gin.HandlerFunc {
	c := cors.Config{
		AllowMethods:     cfg.AllowMethods,
		AllowHeaders:     cfg.AllowHeaders,
		ExposeHeaders:    append(slices.Clone(corsExposed), cfg.ExposeHeaders...),
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(c.AllowMethods) == 0 {
		c.AllowMethods = defaultCORSMethods
	}
	if len(c.AllowHeaders) == 0 {
		c.AllowHeaders = defaultCORSHeaders
	}
	switch {
	case slices.Contains(cfg.AllowOrigins, "*"):
		c.AllowAllOrigins = true
		c.AllowCredentials = false
	case len(cfg.AllowOrigins) == 0:
		c.AllowOriginFunc = func(string) bool { return false }
	default:
		c.AllowOrigins = cfg.AllowOrigins
	}
	return cors.New(c)
}

// RequestID propagates or assigns the X-Request-ID of a request and puts a
// logger carrying it in the request context. A nil base keeps the context
// logger.
func RequestID(base *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" || len(id) > MaxRequestIDLength {
			id = uuid.NewString()
		}
		c.Set(RequestIDKey, id)
		c.Header(RequestIDHeader, id)

		ctx := c.Request.Context()
		log := base
		if log == nil {
			log = logger.FromContext(ctx)
		}
		ctx, _ = logger.WithRequestID(ctx, log, id)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// GetRequestID returns the id assigned by RequestID
func GetRequestID(c *gin.Context) string {
	return c.GetString(RequestIDKey)
}

var securityHeaders = map[string]string{
	"X-Frame-Options":         "DENY",
	"X-Content-Type-Options":  "nosniff",
	"Referrer-Policy":         "strict-origin-when-cross-origin",
	"Content-Security-Policy": "default-src 'self'; frame-ancestors 'none'; base-uri 'self'; form-action 'self'",
	"Permissions-Policy":      "camera=(), geolocation=(), microphone=(), payment=(), usb=()",
}

// Secure sets the browser hardening headers. The swagger UI needs its
// inline scripts, so /swagger/ gets no Content-Security-Policy.
func Secure() gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.Writer.Header()
		for k, v := range securityHeaders {
			h.Set(k, v)
		}
		if strings.HasPrefix(c.Request.URL.Path, "/swagger/") {
			h.Del("Content-Security-Policy")
		}
		c.Next()
	}
}

// Timeout bounds the request context. A ledger transaction still running
// when it expires is rolled back.
func Timeout(timeout time.Duration) gin.HandlerFunc {
	if timeout <= 0 {
		return passthrough
	}
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), timeout)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
