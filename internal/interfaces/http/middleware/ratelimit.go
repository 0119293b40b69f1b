package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sellout/backend/internal/interfaces/http/dto"
)

// RateLimiter is a fixed-window in-memory limiter keyed by client
type RateLimiter struct {
	mu      sync.Mutex
	clients map[string]*client
	limit   int
	window  time.Duration
	now     func() time.Time

	stop     chan struct{}
	stopOnce sync.Once
}

type client struct {
	tokens    int
	lastReset time.Time
}

// NewRateLimiter allows limit requests per window per key. Close stops the
// background sweep of idle keys.
func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	rl := &RateLimiter{
		clients: make(map[string]*client),
		limit:   limit,
		window:  window,
		now:     time.Now,
		stop:    make(chan struct{}),
	}
	go rl.cleanup(window * 2)
	return rl
}

func (rl *RateLimiter) cleanup(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-rl.stop:
			return
		case <-ticker.C:
			rl.sweep()
		}
	}
}

func (rl *RateLimiter) sweep() {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	now := rl.now()
	for key, c := range rl.clients {
		if now.Sub(c.lastReset) > rl.window*2 {
			delete(rl.clients, key)
		}
	}
}

// Close stops the sweeper. It is safe to call more than once.
func (rl *RateLimiter) Close() {
	rl.stopOnce.Do(func() { close(rl.stop) })
}

// Allow consumes one request for key and reports whether it is within budget
func (rl *RateLimiter) Allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	c, exists := rl.clients[key]
	if !exists || now.Sub(c.lastReset) >= rl.window {
		rl.clients[key] = &client{tokens: rl.limit - 1, lastReset: now}
		return rl.limit > 0
	}
	if c.tokens > 0 {
		c.tokens--
		return true
	}
	return false
}

// Remaining returns the requests left for key in the current window
func (rl *RateLimiter) Remaining(key string) int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	c, exists := rl.clients[key]
	if !exists || rl.now().Sub(c.lastReset) >= rl.window {
		return rl.limit
	}
	return c.tokens
}

// RateLimit limits requests per client IP
func RateLimit(limiter *RateLimiter) gin.HandlerFunc {
	return RateLimitByKey(limiter, func(c *gin.Context) string { return c.ClientIP() })
}

// RateLimitByKey limits requests per key returned by keyFunc
func RateLimitByKey(limiter *RateLimiter, keyFunc func(*gin.Context) string) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := keyFunc(c)
		if !limiter.Allow(key) {
			c.Header("Retry-After", strconv.Itoa(int(limiter.window.Seconds())))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, dto.NewErrorResponseWithRequestID(
				dto.ErrCodeRateLimited,
				"Too many requests. Please try again later.",
				GetRequestID(c),
			))
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(limiter.limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(limiter.Remaining(key)))
		c.Next()
	}
}
