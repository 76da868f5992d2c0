package middleware

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/ech/backend/internal/domain/shared"
	"github.com/ech/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	// IdempotencyKeyHeader is sent by clients that may retry a financial request
	IdempotencyKeyHeader = "Idempotency-Key"
	// IdempotentReplayHeader marks a response served from the store
	IdempotentReplayHeader = "Idempotent-Replayed"
	// MaxIdempotencyKeyLength bounds client supplied keys
	MaxIdempotencyKeyLength = 255
)

// IdempotencyMiddlewareConfig configures Idempotency
type IdempotencyMiddlewareConfig struct {
	Store   shared.IdempotencyStore
	TTL     time.Duration
	LockTTL time.Duration
	Logger  *zap.Logger
}

// Idempotency replays the stored response of a completed request carrying the
// same Idempotency-Key, so a retried credit or debit is applied once.
// Requests sharing a key run one at a time. Only successful responses are
// stored; a rejected request may be retried with the same key. Keys are
// scoped to the user and route. Requests without the header pass through.
func Idempotency(cfg IdempotencyMiddlewareConfig) gin.HandlerFunc {
	defaults := shared.DefaultIdempotencyConfig()
	if cfg.TTL <= 0 {
		cfg.TTL = defaults.TTL
	}
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = defaults.LockTTL
	}
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	return func(c *gin.Context) {
		key := c.GetHeader(IdempotencyKeyHeader)
		if cfg.Store == nil || key == "" || c.Request.Method != http.MethodPost {
			c.Next()
			return
		}
		if len(key) > MaxIdempotencyKeyLength {
			c.AbortWithStatusJSON(http.StatusBadRequest, dto.NewErrorResponseWithRequestID(
				shared.CodeValidation, "Idempotency-Key is too long", GetRequestID(c)))
			return
		}

		ctx := c.Request.Context()
		scoped := GetJWTUserID(c) + ":" + c.FullPath() + ":" + key

		release, err := cfg.Store.Acquire(ctx, scoped, cfg.LockTTL)
		if errors.Is(err, shared.ErrIdempotencyKeyBusy) {
			c.AbortWithStatusJSON(http.StatusConflict, dto.NewErrorResponseWithRequestID(
				dto.ErrCodeIdempotencyBusy, "A request with this Idempotency-Key is still being processed", GetRequestID(c)))
			return
		}
		if err != nil {
			// Store unavailable: serve the request without replay protection
			log.Warn("Idempotency store unavailable", zap.Error(err))
			c.Next()
			return
		}
		defer release()

		stored, ok, err := cfg.Store.Load(ctx, scoped)
		if err != nil {
			log.Warn("Failed to load idempotent response", zap.Error(err))
		}
		if ok {
			c.Header(IdempotentReplayHeader, "true")
			c.Data(stored.Status, stored.ContentType, stored.Body)
			c.Abort()
			return
		}

		rec := &recordingWriter{ResponseWriter: c.Writer}
		c.Writer = rec
		c.Next()

		status := rec.Status()
		if status < http.StatusOK || status >= http.StatusMultipleChoices {
			return
		}
		resp := shared.StoredResponse{
			Status:      status,
			ContentType: rec.Header().Get("Content-Type"),
			Body:        rec.body.Bytes(),
		}
		// The request context may already be done; the result must still be kept
		if err := cfg.Store.Save(context.WithoutCancel(ctx), scoped, resp, cfg.TTL); err != nil {
			log.Warn("Failed to store idempotent response", zap.Error(err))
		}
	}
}

// recordingWriter copies the response body while writing it
type recordingWriter struct {
	gin.ResponseWriter
	body bytes.Buffer
}

func (w *recordingWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *recordingWriter) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}
