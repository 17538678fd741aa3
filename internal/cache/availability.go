// Package cache provides a small redis-backed cache for availability reads.
// All methods are nil-safe so the cache can be disabled by configuration.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/courtsidehq/courtside/internal/config"
)

// NewClient creates a redis client from configuration.
func NewClient(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
}

// Availability caches serialized day views keyed by court and date.
type Availability struct {
	client *redis.Client
	ttl    time.Duration
}

func NewAvailability(client *redis.Client, ttl time.Duration) *Availability {
	return &Availability{client: client, ttl: ttl}
}

func dayKey(courtID int64, date string) string {
	return fmt.Sprintf("availability:%d:%s", courtID, date)
}

// GetDay returns the cached payload for a court/date, reporting a miss when
// absent. A nil cache always misses.
func (c *Availability) GetDay(ctx context.Context, courtID int64, date string) ([]byte, bool, error) {
	if c == nil || c.client == nil {
		return nil, false, nil
	}
	payload, err := c.client.Get(ctx, dayKey(courtID, date)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to get availability from redis: %w", err)
	}
	return payload, true, nil
}

func (c *Availability) SetDay(ctx context.Context, courtID int64, date string, payload []byte) error {
	if c == nil || c.client == nil {
		return nil
	}
	if err := c.client.Set(ctx, dayKey(courtID, date), payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set availability in redis: %w", err)
	}
	return nil
}

// InvalidateDay drops the cached view after a booking or block mutation.
func (c *Availability) InvalidateDay(ctx context.Context, courtID int64, date string) error {
	if c == nil || c.client == nil {
		return nil
	}
	if err := c.client.Del(ctx, dayKey(courtID, date)).Err(); err != nil {
		return fmt.Errorf("failed to invalidate availability in redis: %w", err)
	}
	return nil
}
