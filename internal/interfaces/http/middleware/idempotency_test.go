package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ech/backend/internal/domain/shared"
	"github.com/ech/backend/internal/infrastructure/cache"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockIdempotencyStore struct {
	mock.Mock
}

func (m *mockIdempotencyStore) Acquire(ctx context.Context, key string, ttl time.Duration) (func(), error) {
	args := m.Called(ctx, key, ttl)
	release, _ := args.Get(0).(func())
	return release, args.Error(1)
}

func (m *mockIdempotencyStore) Load(ctx context.Context, key string) (*shared.StoredResponse, bool, error) {
	args := m.Called(ctx, key)
	resp, _ := args.Get(0).(*shared.StoredResponse)
	return resp, args.Bool(1), args.Error(2)
}

func (m *mockIdempotencyStore) Save(ctx context.Context, key string, resp shared.StoredResponse, ttl time.Duration) error {
	return m.Called(ctx, key, resp, ttl).Error(0)
}

func (m *mockIdempotencyStore) Close() error {
	return m.Called().Error(0)
}

// newIdempotentRouter counts how many times the credit handler really ran
func newIdempotentRouter(store shared.IdempotencyStore, status int, calls *atomic.Int32) *gin.Engine {
	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set(JWTUserIDKey, c.GetHeader("X-Test-User"))
		c.Next()
	})
	router.Use(Idempotency(IdempotencyMiddlewareConfig{Store: store}))
	router.POST("/api/v1/caisse/encaissement", func(c *gin.Context) {
		n := calls.Add(1)
		c.JSON(status, gin.H{"operation": n})
	})
	router.GET("/api/v1/caisse/encaissement", func(c *gin.Context) {
		calls.Add(1)
		c.Status(http.StatusOK)
	})
	return router
}

func sendCredit(router http.Handler, method, user, key string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, "/api/v1/caisse/encaissement", strings.NewReader(`{"amount":"10"}`))
	req.Header.Set("X-Test-User", user)
	if key != "" {
		req.Header.Set(IdempotencyKeyHeader, key)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestIdempotency_ReplaysSuccessfulResponse(t *testing.T) {
	store := cache.NewInMemoryIdempotencyStore()
	defer store.Close()
	var calls atomic.Int32
	router := newIdempotentRouter(store, http.StatusCreated, &calls)

	first := sendCredit(router, http.MethodPost, "u1", "key-1")
	second := sendCredit(router, http.MethodPost, "u1", "key-1")

	assert.Equal(t, http.StatusCreated, first.Code)
	assert.Equal(t, http.StatusCreated, second.Code)
	assert.JSONEq(t, first.Body.String(), second.Body.String())
	assert.Empty(t, first.Header().Get(IdempotentReplayHeader))
	assert.Equal(t, "true", second.Header().Get(IdempotentReplayHeader))
	assert.Equal(t, int32(1), calls.Load())
}

func TestIdempotency_KeysAreScopedPerUser(t *testing.T) {
	store := cache.NewInMemoryIdempotencyStore()
	defer store.Close()
	var calls atomic.Int32
	router := newIdempotentRouter(store, http.StatusCreated, &calls)

	sendCredit(router, http.MethodPost, "u1", "shared-key")
	w := sendCredit(router, http.MethodPost, "u2", "shared-key")

	assert.Empty(t, w.Header().Get(IdempotentReplayHeader))
	assert.Equal(t, int32(2), calls.Load())
}

func TestIdempotency_FailedRequestsAreNotStored(t *testing.T) {
	store := cache.NewInMemoryIdempotencyStore()
	defer store.Close()
	var calls atomic.Int32
	router := newIdempotentRouter(store, http.StatusBadRequest, &calls)

	sendCredit(router, http.MethodPost, "u1", "key-1")
	w := sendCredit(router, http.MethodPost, "u1", "key-1")

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, w.Header().Get(IdempotentReplayHeader))
	assert.Equal(t, int32(2), calls.Load())
}

func TestIdempotency_PassThrough(t *testing.T) {
	store := cache.NewInMemoryIdempotencyStore()
	defer store.Close()
	var calls atomic.Int32
	router := newIdempotentRouter(store, http.StatusCreated, &calls)

	sendCredit(router, http.MethodPost, "u1", "")
	sendCredit(router, http.MethodPost, "u1", "")
	sendCredit(router, http.MethodGet, "u1", "key-1")
	sendCredit(router, http.MethodGet, "u1", "key-1")

	assert.Equal(t, int32(4), calls.Load())
}

func TestIdempotency_KeyTooLong(t *testing.T) {
	store := cache.NewInMemoryIdempotencyStore()
	defer store.Close()
	var calls atomic.Int32
	router := newIdempotentRouter(store, http.StatusCreated, &calls)

	w := sendCredit(router, http.MethodPost, "u1", strings.Repeat("k", MaxIdempotencyKeyLength+1))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "VALIDATION_ERROR", errorCode(t, w))
	assert.Zero(t, calls.Load())
}

func TestIdempotency_BusyKey(t *testing.T) {
	store := new(mockIdempotencyStore)
	store.On("Acquire", mock.Anything, "u1:/api/v1/caisse/encaissement:key-1", mock.Anything).
		Return(nil, shared.ErrIdempotencyKeyBusy)
	var calls atomic.Int32
	router := newIdempotentRouter(store, http.StatusCreated, &calls)

	w := sendCredit(router, http.MethodPost, "u1", "key-1")

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "IDEMPOTENCY_KEY_BUSY", errorCode(t, w))
	assert.Zero(t, calls.Load())
	store.AssertExpectations(t)
}

func TestIdempotency_StoreUnavailable(t *testing.T) {
	store := new(mockIdempotencyStore)
	store.On("Acquire", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, errors.New("redis: connection refused"))
	var calls atomic.Int32
	router := newIdempotentRouter(store, http.StatusCreated, &calls)

	w := sendCredit(router, http.MethodPost, "u1", "key-1")

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, int32(1), calls.Load())
	store.AssertNotCalled(t, "Save", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestIdempotency_SavesWithConfiguredTTL(t *testing.T) {
	released := false
	store := new(mockIdempotencyStore)
	store.On("Acquire", mock.Anything, mock.Anything, shared.DefaultIdempotencyConfig().LockTTL).
		Return(func() { released = true }, nil)
	store.On("Load", mock.Anything, mock.Anything).Return(nil, false, nil)
	store.On("Save", mock.Anything, mock.Anything, mock.MatchedBy(func(r shared.StoredResponse) bool {
		return r.Status == http.StatusCreated && strings.HasPrefix(r.ContentType, "application/json")
	}), shared.DefaultIdempotencyConfig().TTL).Return(nil)
	var calls atomic.Int32
	router := newIdempotentRouter(store, http.StatusCreated, &calls)

	w := sendCredit(router, http.MethodPost, "u1", "key-1")

	require.Equal(t, http.StatusCreated, w.Code)
	assert.True(t, released)
	store.AssertExpectations(t)
}
