package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"ravewall/internal/model"
)

const (
	// WidgetCachePrefix is the key prefix for public widget payloads
	WidgetCachePrefix = "widget:user:"

	// WidgetCacheTTL bounds how stale the public widget feed may be
	WidgetCacheTTL = 5 * time.Minute
)

// WidgetCache caches the approved-testimonial payload served to the
// embeddable widget. The widget endpoint is public and unauthenticated, so
// it takes the brunt of the traffic; every testimonial mutation invalidates.
type WidgetCache interface {
	Get(ctx context.Context, userID int64) ([]model.Testimonial, bool, error)
	Set(ctx context.Context, userID int64, testimonials []model.Testimonial) error
	Invalidate(ctx context.Context, userID int64) error
}

// RedisWidgetCache implements WidgetCache on plain Redis strings.
type RedisWidgetCache struct {
	client *redis.Client
}

// NewWidgetCache creates a WidgetCache backed by Redis.
func NewWidgetCache(client *redis.Client) WidgetCache {
	return &RedisWidgetCache{client: client}
}

func widgetKey(userID int64) string {
	return fmt.Sprintf("%s%d", WidgetCachePrefix, userID)
}

// Get returns the cached payload and whether it was present.
func (c *RedisWidgetCache) Get(ctx context.Context, userID int64) ([]model.Testimonial, bool, error) {
	key := widgetKey(userID)

	data, err := c.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		log.Printf("[WidgetCache] Get: user=%d MISS", userID)
		return nil, false, nil
	}
	if err != nil {
		log.Printf("[WidgetCache] Get FAILED: user=%d err=%v", userID, err)
		return nil, false, fmt.Errorf("get widget cache: %w", err)
	}

	var testimonials []model.Testimonial
	if err := json.Unmarshal(data, &testimonials); err != nil {
		log.Printf("[WidgetCache] Get unmarshal error: user=%d err=%v", userID, err)
		return nil, false, fmt.Errorf("unmarshal widget cache: %w", err)
	}

	log.Printf("[WidgetCache] Get: user=%d HIT count=%d", userID, len(testimonials))
	return testimonials, true, nil
}

// Set stores the payload with the cache TTL.
func (c *RedisWidgetCache) Set(ctx context.Context, userID int64, testimonials []model.Testimonial) error {
	key := widgetKey(userID)

	data, err := json.Marshal(testimonials)
	if err != nil {
		return fmt.Errorf("marshal widget cache: %w", err)
	}

	if err := c.client.Set(ctx, key, data, WidgetCacheTTL).Err(); err != nil {
		log.Printf("[WidgetCache] Set FAILED: user=%d err=%v", userID, err)
		return fmt.Errorf("set widget cache: %w", err)
	}

	log.Printf("[WidgetCache] Set OK: user=%d count=%d ttl=%v", userID, len(testimonials), WidgetCacheTTL)
	return nil
}

// Invalidate drops the cached payload after a testimonial mutation.
func (c *RedisWidgetCache) Invalidate(ctx context.Context, userID int64) error {
	key := widgetKey(userID)

	if err := c.client.Del(ctx, key).Err(); err != nil {
		log.Printf("[WidgetCache] Invalidate FAILED: user=%d err=%v", userID, err)
		return fmt.Errorf("invalidate widget cache: %w", err)
	}

	log.Printf("[WidgetCache] Invalidate OK: user=%d", userID)
	return nil
}
