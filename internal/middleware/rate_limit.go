package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"

	"github.com/pageza/foodgram/backend/config"
	"github.com/pageza/foodgram/backend/internal/logger"
	"github.com/pageza/foodgram/backend/internal/metrics"
)

// RateLimitConfig defines configuration for rate limiting
type RateLimitConfig struct {
	// Window is the time window for rate limiting
	Window time.Duration
	// Limit is the maximum number of requests allowed in the window
	Limit int
	// Key prefix for counters
	KeyPrefix string
}

// RateStore counts hits of key inside fixed windows.
type RateStore interface {
	// Hit records one request and returns the count of the current window
	// and when the window ends.
	Hit(ctx context.Context, key string, window time.Duration) (int, time.Time, error)
}

// RedisRateStore keeps fixed-window counters in redis
type RedisRateStore struct {
	redis *redis.Client
}

// NewRedisRateStore creates a counter store backed by redis
func NewRedisRateStore(client *redis.Client) *RedisRateStore {
	return &RedisRateStore{redis: client}
}

func (s *RedisRateStore) Hit(ctx context.Context, key string, window time.Duration) (int, time.Time, error) {
	windowStart := time.Now().Truncate(window)
	windowKey := fmt.Sprintf("%s:%d", key, windowStart.Unix())

	pipe := s.redis.Pipeline()
	incrCmd := pipe.Incr(ctx, windowKey)
	pipe.Expire(ctx, windowKey, window)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, time.Time{}, err
	}
	return int(incrCmd.Val()), windowStart.Add(window), nil
}

// RateLimiter enforces a per-user request budget. Without a RateStore it
// falls back to in-process token buckets, which are per instance.
type RateLimiter struct {
	store  RateStore
	local  *localLimiter
	config RateLimitConfig
	log    *logger.Logger
}

// NewRateLimiter creates a new rate limiter instance; store may be nil
func NewRateLimiter(store RateStore, cfg RateLimitConfig, log *logger.Logger) *RateLimiter {
	rl := &RateLimiter{store: store, config: cfg, log: log}
	if store == nil {
		rl.local = newLocalLimiter(cfg)
	}
	return rl
}

// NewRecipeCreationRateLimiter limits recipe creation per author. A nil
// redis client selects the in-process limiter.
func NewRecipeCreationRateLimiter(redisClient *redis.Client, cfg config.RecipeConfig, log *logger.Logger) *RateLimiter {
	var store RateStore
	if redisClient != nil {
		store = NewRedisRateStore(redisClient)
	}
	return NewRateLimiter(store, RateLimitConfig{
		Window:    cfg.CreateWindow,
		Limit:     cfg.CreateLimit,
		KeyPrefix: "rate_limit:recipe_creation",
	}, log)
}

// RateLimitMiddleware returns a Gin middleware that enforces rate limiting.
// It must run after RequireAuth.
func (rl *RateLimiter) RateLimitMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if rl.config.Limit <= 0 {
			c.Next()
			return
		}

		userID, exists := c.Get(ContextUserID)
		if !exists {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": "Authentication credentials were not provided."})
			return
		}

		allowed, remaining, resetTime, err := rl.IsAllowed(c.Request.Context(), fmt.Sprintf("%v", userID))
		if err != nil {
			// fail open
			if rl.log != nil {
				rl.log.Warn("Rate limit check failed", "limiter", rl.config.KeyPrefix, "error", err)
			}
			c.Header("X-RateLimit-Error", "rate limit check failed")
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(rl.config.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(resetTime.Unix(), 10))

		if !allowed {
			metrics.RateLimited.WithLabelValues(rl.config.KeyPrefix).Inc()
			retryAfter := int(time.Until(resetTime).Seconds())
			if retryAfter < 1 {
				retryAfter = 1
			}
			c.Header("Retry-After", strconv.Itoa(retryAfter))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"detail":      fmt.Sprintf("Request was throttled. Limit is %d per %v.", rl.config.Limit, rl.config.Window),
				"retry_after": retryAfter,
			})
			return
		}

		c.Next()
	}
}

// IsAllowed records a request for key.
// Returns: allowed, remaining requests, reset time, error
func (rl *RateLimiter) IsAllowed(ctx context.Context, key string) (bool, int, time.Time, error) {
	key = rl.config.KeyPrefix + ":" + key
	if rl.store == nil {
		allowed, remaining, reset := rl.local.allow(key)
		return allowed, remaining, reset, nil
	}

	count, resetTime, err := rl.store.Hit(ctx, key, rl.config.Window)
	if err != nil {
		return false, 0, time.Time{}, err
	}
	remaining := rl.config.Limit - count
	if remaining < 0 {
		remaining = 0
	}
	return count <= rl.config.Limit, remaining, resetTime, nil
}

type localEntry struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

// localLimiter keeps one token bucket per key, refilled at Limit per Window.
type localLimiter struct {
	mu       sync.Mutex
	limiters map[string]*localEntry
	every    time.Duration
	burst    int
	window   time.Duration
}

const localLimiterMaxKeys = 10000

func newLocalLimiter(cfg RateLimitConfig) *localLimiter {
	limit := cfg.Limit
	if limit <= 0 {
		limit = 1
	}
	return &localLimiter{
		limiters: make(map[string]*localEntry),
		every:    cfg.Window / time.Duration(limit),
		burst:    limit,
		window:   cfg.Window,
	}
}

func (l *localLimiter) allow(key string) (bool, int, time.Time) {
	now := time.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	entry, ok := l.limiters[key]
	if !ok {
		if len(l.limiters) >= localLimiterMaxKeys {
			l.prune(now)
		}
		entry = &localEntry{limiter: rate.NewLimiter(rate.Every(l.every), l.burst)}
		l.limiters[key] = entry
	}
	entry.lastAccess = now

	allowed := entry.limiter.AllowN(now, 1)
	remaining := int(entry.limiter.TokensAt(now))
	if remaining < 0 {
		remaining = 0
	}
	reset := now.Add(l.every * time.Duration(l.burst-remaining))
	return allowed, remaining, reset
}

// prune drops buckets idle for a full window; those are full again anyway.
func (l *localLimiter) prune(now time.Time) {
	for key, entry := range l.limiters {
		if now.Sub(entry.lastAccess) > l.window {
			delete(l.limiters, key)
		}
	}
}
