package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cooldown is a set of expiring locks backed by SET NX.
type Cooldown struct {
	client *redis.Client
}

func NewCooldown(client *redis.Client) *Cooldown {
	return &Cooldown{client: client}
}

// Acquire returns true if key was free and is now held for ttl.
func (c *Cooldown) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return c.client.SetNX(ctx, key, time.Now().UTC().Format(time.RFC3339), ttl).Result()
}

func (c *Cooldown) Release(ctx context.Context, key string) error {
	return c.client.Del(ctx, key).Err()
}
