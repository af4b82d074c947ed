package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const tokenKeyPrefix = "accounts:token:"

// Redis caches token key -> user id bindings in redis so every API replica
// shares them.
type Redis struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedis(rdb *redis.Client, ttl time.Duration) *Redis {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}

	return &Redis{rdb: rdb, ttl: ttl}
}

func (c *Redis) GetUserID(ctx context.Context, key string) (string, bool, error) {
	v, err := c.rdb.Get(ctx, tokenKeyPrefix+key).Result()

	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, err
	}

	return v, true, nil
}

func (c *Redis) SetUserID(ctx context.Context, key, userID string) error {
	return c.rdb.Set(ctx, tokenKeyPrefix+key, userID, c.ttl).Err()
}
