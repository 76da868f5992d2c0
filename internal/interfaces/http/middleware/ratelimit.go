package middleware

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/ech/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// RateLimiter hands out a token bucket per key. A bucket holds limit tokens
// and refills at limit per window; buckets idle for two windows are dropped.
type RateLimiter struct {
	limit  int
	window time.Duration
	every  rate.Limit

	mu       sync.Mutex
	buckets  map[string]*bucket
	done     chan struct{}
	stopOnce sync.Once
}

type bucket struct {
	*rate.Limiter
	seen time.Time
}

// NewRateLimiter starts a limiter allowing limit requests per window and
// key. Stop releases its sweeper.
func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	rl := &RateLimiter{
		limit:   limit,
		window:  window,
		every:   rate.Every(window / time.Duration(max(limit, 1))),
		buckets: make(map[string]*bucket),
		done:    make(chan struct{}),
	}
	go rl.sweep(2 * window)
	return rl
}

func (rl *RateLimiter) sweep(idle time.Duration) {
	ticker := time.NewTicker(idle)
	defer ticker.Stop()
	for {
		select {
		case <-rl.done:
			return
		case now := <-ticker.C:
			rl.mu.Lock()
			for key, b := range rl.buckets {
				if now.Sub(b.seen) > idle {
					delete(rl.buckets, key)
				}
			}
			rl.mu.Unlock()
		}
	}
}

func (rl *RateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.done) })
}

func (rl *RateLimiter) bucket(key string, now time.Time) *bucket {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	b, ok := rl.buckets[key]
	if !ok {
		b = &bucket{Limiter: rate.NewLimiter(rl.every, rl.limit)}
		rl.buckets[key] = b
	}
	b.seen = now
	return b
}

// Allow takes a token from key's bucket
func (rl *RateLimiter) Allow(key string) bool {
	ok, _ := rl.take(key)
	return ok
}

// take reports whether a token was taken and, when not, how long until one
// is available
func (rl *RateLimiter) take(key string) (bool, time.Duration) {
	now := time.Now()
	r := rl.bucket(key, now).ReserveN(now, 1)
	if !r.OK() {
		return false, rl.window
	}
	if wait := r.DelayFrom(now); wait > 0 {
		r.CancelAt(now)
		return false, wait
	}
	return true, 0
}

// Remaining returns the whole tokens left in key's bucket
func (rl *RateLimiter) Remaining(key string) int {
	rl.mu.Lock()
	b, ok := rl.buckets[key]
	rl.mu.Unlock()
	if !ok {
		return rl.limit
	}
	return max(int(math.Floor(b.Tokens())), 0)
}

// RateLimit limits requests per client IP
func RateLimit(limiter *RateLimiter) gin.HandlerFunc {
	return RateLimitByKey(limiter, func(c *gin.Context) string { return c.ClientIP() })
}

func RateLimitByKey(limiter *RateLimiter, keyFunc func(*gin.Context) string) gin.HandlerFunc {
	return throttle(limiter, keyFunc, dto.ErrCodeRateLimited, "Too many requests. Please try again later.")
}

// AuthRateLimit limits login and refresh attempts per client IP. Its keys
// are prefixed so a limiter shared with RateLimit keeps separate budgets.
func AuthRateLimit(limiter *RateLimiter) gin.HandlerFunc {
	return throttle(limiter, func(c *gin.Context) string { return "auth:" + c.ClientIP() },
		"AUTH_RATE_LIMIT_EXCEEDED", "Too many authentication attempts. Please try again later.")
}

func throttle(limiter *RateLimiter, keyFunc func(*gin.Context) string, code, message string) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := keyFunc(c)
		ok, wait := limiter.take(key)
		c.Header("X-RateLimit-Limit", strconv.Itoa(limiter.limit))
		if !ok {
			c.Header("X-RateLimit-Remaining", "0")
			c.Header("Retry-After", strconv.Itoa(int(math.Ceil(wait.Seconds()))))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, dto.NewErrorResponseWithRequestID(code, message, GetRequestID(c)))
			return
		}
		c.Header("X-RateLimit-Remaining", strconv.Itoa(limiter.Remaining(key)))
		c.Next()
	}
}
