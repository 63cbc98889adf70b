package cache

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// ImportRateLimitPrefix is the key prefix for per-user import counters
	ImportRateLimitPrefix = "ratelimit:import:"

	// ImportRateLimit is the number of imports allowed per window.
	// Each import costs a scraping-service call, so this is kept tight.
	ImportRateLimit = 10

	// ImportRateWindow is the fixed rate-limit window
	ImportRateWindow = time.Hour
)

// RateLimiter gates how often a user may start imports.
type RateLimiter interface {
	// Allow records one attempt and reports whether it is within the limit.
	Allow(ctx context.Context, userID int64) (bool, error)
}

// RedisRateLimiter implements a fixed-window counter on Redis.
type RedisRateLimiter struct {
	client *redis.Client
}

// NewRateLimiter creates a RateLimiter backed by Redis.
func NewRateLimiter(client *redis.Client) RateLimiter {
	return &RedisRateLimiter{client: client}
}

func rateLimitKey(userID int64) string {
	return fmt.Sprintf("%s%d", ImportRateLimitPrefix, userID)
}

// Allow increments the window counter and starts the window on first use.
func (l *RedisRateLimiter) Allow(ctx context.Context, userID int64) (bool, error) {
	key := rateLimitKey(userID)

	count, err := l.client.Incr(ctx, key).Result()
	if err != nil {
		log.Printf("[RateLimiter] Allow FAILED: user=%d err=%v", userID, err)
		return false, fmt.Errorf("increment rate limit: %w", err)
	}

	if count == 1 {
		if err := l.client.Expire(ctx, key, ImportRateWindow).Err(); err != nil {
			log.Printf("[RateLimiter] Expire FAILED: user=%d err=%v", userID, err)
		}
	}

	allowed := count <= ImportRateLimit
	if !allowed {
		log.Printf("[RateLimiter] Limit exceeded: user=%d count=%d", userID, count)
	}
	return allowed, nil
}
