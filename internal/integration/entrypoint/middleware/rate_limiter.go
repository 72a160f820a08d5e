// Package middleware provides HTTP middleware for the API endpoints.
package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	domainerror "github.com/expense-ledger/backend/internal/domain/error"
	"github.com/expense-ledger/backend/internal/integration/entrypoint/dto"
)

const (
	// defaultMaxAttempts is the default number of allowed requests per window.
	defaultMaxAttempts = 30
	// defaultWindowDuration is the default time window for rate limiting.
	defaultWindowDuration = 1 * time.Minute
)

// Counter counts hits for a key within a fixed window that starts at the
// first hit.
type Counter interface {
	Hit(ctx context.Context, key string, window time.Duration) (int, error)
}

// RateLimiter limits requests per client IP within a fixed window.
type RateLimiter struct {
	counter        Counter
	scope          string
	maxAttempts    int
	windowDuration time.Duration
}

// NewRateLimiterWithConfig creates a rate limiter. Non-positive limits fall
// back to the defaults. scope separates the counters of different route groups.
func NewRateLimiterWithConfig(counter Counter, scope string, maxAttempts int, windowDuration time.Duration) *RateLimiter {
	if maxAttempts < 1 {
		maxAttempts = defaultMaxAttempts
	}
	if windowDuration <= 0 {
		windowDuration = defaultWindowDuration
	}
	return &RateLimiter{
		counter:        counter,
		scope:          scope,
		maxAttempts:    maxAttempts,
		windowDuration: windowDuration,
	}
}

// Middleware returns a Gin middleware handler that enforces rate limiting.
func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		// Skip rate limiting in E2E mode or test environment
		if os.Getenv("E2E_MODE") == "true" || os.Getenv("ENV") == "test" {
			c.Next()
			return
		}

		clientIP := c.ClientIP()
		if clientIP == "" {
			clientIP = c.Request.RemoteAddr
		}

		if !rl.allow(c.Request.Context(), clientIP) {
			c.JSON(http.StatusTooManyRequests, dto.ErrorResponse{
				Error: "Too many requests. Please try again later.",
				Code:  string(domainerror.ErrCodeRateLimited),
			})
			c.Abort()
			return
		}

		c.Next()
	}
}

// allow reports whether a request from key fits in the current window.
// Requests are let through when the counter itself fails.
func (rl *RateLimiter) allow(ctx context.Context, key string) bool {
	hits, err := rl.counter.Hit(ctx, rl.scope+":"+key, rl.windowDuration)
	if err != nil {
		slog.Warn("Rate limiter counter unavailable", "scope", rl.scope, "error", err)
		return true
	}
	return hits <= rl.maxAttempts
}

// rateLimitEntry tracks rate limit data for a single key.
type rateLimitEntry struct {
	attempts  int
	resetTime time.Time
}

// MemoryCounter keeps window counters in process memory.
type MemoryCounter struct {
	mu      sync.Mutex
	entries map[string]*rateLimitEntry
	now     func() time.Time
}

// NewMemoryCounter creates an empty in-memory counter.
func NewMemoryCounter() *MemoryCounter {
	return &MemoryCounter{
		entries: make(map[string]*rateLimitEntry),
		now:     time.Now,
	}
}

// Hit records one request for key and returns the count in its window.
func (m *MemoryCounter) Hit(_ context.Context, key string, window time.Duration) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	entry, exists := m.entries[key]
	if !exists || now.After(entry.resetTime) {
		m.entries[key] = &rateLimitEntry{attempts: 1, resetTime: now.Add(window)}
		return 1, nil
	}
	entry.attempts++
	return entry.attempts, nil
}

// Reset clears the counter state.
func (m *MemoryCounter) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = make(map[string]*rateLimitEntry)
}

// Cleanup removes expired entries. It is called periodically to free memory.
func (m *MemoryCounter) Cleanup() {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	for key, entry := range m.entries {
		if now.After(entry.resetTime) {
			delete(m.entries, key)
		}
	}
}

// RunCleanup calls Cleanup every interval until ctx is done.
func (m *MemoryCounter) RunCleanup(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Cleanup()
		}
	}
}

const redisCounterPrefix = "ledger:ratelimit:"

// RedisCounter shares window counters between API replicas.
type RedisCounter struct {
	client *redis.Client
}

// NewRedisCounter creates a Redis-backed counter.
func NewRedisCounter(client *redis.Client) *RedisCounter {
	return &RedisCounter{client: client}
}

// Hit increments the key and starts its expiry on the first hit of a window.
func (r *RedisCounter) Hit(ctx context.Context, key string, window time.Duration) (int, error) {
	key = redisCounterPrefix + key

	hits, err := r.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, err
	}
	if hits == 1 {
		if err := r.client.PExpire(ctx, key, window).Err(); err != nil {
			return 0, err
		}
	}
	return int(hits), nil
}
