package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serveHealth(h *HealthHandler) *httptest.ResponseRecorder {
	r := gin.New()
	r.GET("/health", h.Health)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	return w
}

func TestHealthHandler(t *testing.T) {
	up := HealthCheck{Name: "database", Check: func(context.Context) error { return nil }}
	down := HealthCheck{Name: "redis", Check: func(context.Context) error { return errors.New("connection refused") }}

	t.Run("all checks up", func(t *testing.T) {
		w := serveHealth(NewHealthHandler("1.2.0", up))

		require.Equal(t, http.StatusOK, w.Code)
		env := decode[HealthResponse](t, w)
		assert.True(t, env.Success)
		assert.Equal(t, "healthy", env.Data.Status)
		assert.Equal(t, "1.2.0", env.Data.Version)
		assert.Equal(t, map[string]string{"database": "up"}, env.Data.Checks)
	})

	t.Run("a failing check", func(t *testing.T) {
		w := serveHealth(NewHealthHandler("1.2.0", up, down))

		require.Equal(t, http.StatusServiceUnavailable, w.Code)
		env := decode[HealthResponse](t, w)
		assert.False(t, env.Success)
		assert.Equal(t, "unhealthy", env.Data.Status)
		assert.Equal(t, "down", env.Data.Checks["redis"])
		assert.Equal(t, "up", env.Data.Checks["database"])
	})

	t.Run("no checks", func(t *testing.T) {
		w := serveHealth(NewHealthHandler("dev"))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, decode[HealthResponse](t, w).Data.Checks)
	})
}
