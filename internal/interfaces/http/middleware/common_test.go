package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ech/backend/internal/infrastructure/logger"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func corsRequest(router http.Handler, method, origin string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, "/caisse/encaissement", nil)
	req.Header.Set("Origin", origin)
	if method == http.MethodOptions {
		req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func corsRouter(cfg CORSConfig) *gin.Engine {
	router := gin.New()
	router.Use(CORS(cfg))
	router.POST("/caisse/encaissement", func(c *gin.Context) { c.Status(http.StatusCreated) })
	return router
}

func TestCORS(t *testing.T) {
	t.Run("listed origin with credentials", func(t *testing.T) {
		router := corsRouter(CORSConfig{AllowOrigins: []string{"http://localhost:5173"}, ExposeHeaders: []string{"X-Document-URL"}})

		w := corsRequest(router, http.MethodPost, "http://localhost:5173")
		assert.Equal(t, http.StatusCreated, w.Code)
		assert.Equal(t, "http://localhost:5173", w.Header().Get("Access-Control-Allow-Origin"))
		assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))
		exposed := strings.ToLower(w.Header().Get("Access-Control-Expose-Headers"))
		assert.Contains(t, exposed, "x-request-id")
		assert.Contains(t, exposed, "x-document-url")

		w = corsRequest(router, http.MethodOptions, "http://localhost:5173")
		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Contains(t, w.Header().Get("Access-Control-Allow-Methods"), http.MethodPost)
		assert.Contains(t, strings.ToLower(w.Header().Get("Access-Control-Allow-Headers")), strings.ToLower(IdempotencyKeyHeader))
		assert.Equal(t, "43200", w.Header().Get("Access-Control-Max-Age"))
	})

	t.Run("unlisted origin is refused", func(t *testing.T) {
		router := corsRouter(CORSConfig{AllowOrigins: []string{"http://localhost:5173"}})
		w := corsRequest(router, http.MethodPost, "http://malicious.example")
		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("empty list refuses every origin", func(t *testing.T) {
		router := corsRouter(CORSConfig{})
		assert.Equal(t, http.StatusForbidden, corsRequest(router, http.MethodPost, "http://localhost:5173").Code)
	})

	t.Run("wildcard never allows credentials", func(t *testing.T) {
		router := corsRouter(CORSConfig{AllowOrigins: []string{"*"}})
		w := corsRequest(router, http.MethodPost, "http://anything.example")
		assert.Equal(t, http.StatusCreated, w.Code)
		assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
		assert.Empty(t, w.Header().Get("Access-Control-Allow-Credentials"))
	})

	t.Run("requests without origin pass", func(t *testing.T) {
		router := corsRouter(CORSConfig{})
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/caisse/encaissement", nil))
		assert.Equal(t, http.StatusCreated, w.Code)
	})
}

func TestRequestID(t *testing.T) {
	router := gin.New()
	router.Use(RequestID(zap.NewNop()))
	router.GET("/test", func(c *gin.Context) {
		assert.Equal(t, GetRequestID(c), logger.RequestID(c.Request.Context()))
		c.String(http.StatusOK, GetRequestID(c))
	})

	serveID := func(id string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		if id != "" {
			req.Header.Set(RequestIDHeader, id)
		}
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	w := serveID("")
	assert.Len(t, w.Header().Get(RequestIDHeader), 36)
	assert.Equal(t, w.Header().Get(RequestIDHeader), w.Body.String())

	w = serveID("caisse-7f3a")
	assert.Equal(t, "caisse-7f3a", w.Header().Get(RequestIDHeader))
	assert.Equal(t, "caisse-7f3a", w.Body.String())

	w = serveID(strings.Repeat("x", MaxRequestIDLength+1))
	assert.Len(t, w.Body.String(), 36, "oversized ids are replaced")
}

func TestSecure(t *testing.T) {
	router := gin.New()
	router.Use(Secure())
	ok := func(c *gin.Context) { c.Status(http.StatusOK) }
	router.GET("/api/v1/caisse", ok)
	router.GET("/swagger/*any", ok)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/caisse", nil))
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "strict-origin-when-cross-origin", w.Header().Get("Referrer-Policy"))
	assert.Contains(t, w.Header().Get("Content-Security-Policy"), "frame-ancestors 'none'")
	assert.Contains(t, w.Header().Get("Permissions-Policy"), "camera=()")

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/swagger/index.html", nil))
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
	assert.Empty(t, w.Header().Get("Content-Security-Policy"))
}

func TestTimeout(t *testing.T) {
	slow := func(c *gin.Context) {
		select {
		case <-c.Request.Context().Done():
			c.Status(http.StatusGatewayTimeout)
		case <-time.After(time.Second):
			c.Status(http.StatusOK)
		}
	}

	router := gin.New()
	router.Use(Timeout(50 * time.Millisecond))
	router.GET("/slow", slow)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/slow", nil))
	assert.Equal(t, http.StatusGatewayTimeout, w.Code)

	_, hasDeadline := func() (time.Time, bool) {
		var deadline time.Time
		var ok bool
		r := gin.New()
		r.Use(Timeout(0))
		r.GET("/x", func(c *gin.Context) { deadline, ok = c.Request.Context().Deadline() })
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/x", nil))
		return deadline, ok
	}()
	assert.False(t, hasDeadline, "zero disables the timeout")
}
