package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// FXRateCache implements the FX service's rate cache with a TTL per pair.
type FXRateCache struct {
	client *goredis.Client
	ttl    time.Duration
	prefix string
}

// NewFXRateCache creates a Redis-backed FX rate cache.
func NewFXRateCache(client *goredis.Client, ttl time.Duration) *FXRateCache {
	return &FXRateCache{
		client: client,
		ttl:    ttl,
		prefix: "fxrate:",
	}
}

func (c *FXRateCache) key(from, to string) string {
	return fmt.Sprintf("%s%s:%s", c.prefix, from, to)
}

// GetRate returns the cached rate for a pair, with ok false on a miss.
func (c *FXRateCache) GetRate(ctx context.Context, from, to string) (float64, bool, error) {
	raw, err := c.client.Get(ctx, c.key(from, to)).Result()
	if errors.Is(err, goredis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("redis fx rate get: %w", err)
	}

	rate, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false, fmt.Errorf("corrupt cached fx rate %q: %w", raw, err)
	}
	return rate, true, nil
}

// SetRate caches the rate for a pair under the configured TTL.
func (c *FXRateCache) SetRate(ctx context.Context, from, to string, rate float64) error {
	value := strconv.FormatFloat(rate, 'g', -1, 64)
	if err := c.client.Set(ctx, c.key(from, to), value, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis fx rate set: %w", err)
	}
	return nil
}
