package cache

import (
	"context"
	"encoding/json"
	"time"

	redis "github.com/redis/go-redis/v9"

	"tokokita/backend/internal/domain"
)

type RedisAlertCache struct {
	client *redis.Client
}

func NewRedisAlertCache(addr string, password string, db int) *RedisAlertCache {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	return &RedisAlertCache{client: client}
}

func (c *RedisAlertCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *RedisAlertCache) Close() error {
	return c.client.Close()
}

func (c *RedisAlertCache) Get(ctx context.Context, key string) ([]domain.LowStockAlert, bool, error) {
	val, err := c.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var alerts []domain.LowStockAlert
	if err := json.Unmarshal([]byte(val), &alerts); err != nil {
		return nil, false, err
	}
	return alerts, true, nil
}

func (c *RedisAlertCache) Set(ctx context.Context, key string, alerts []domain.LowStockAlert, ttl time.Duration) error {
	payload, err := json.Marshal(alerts)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key, payload, ttl).Err()
}

func (c *RedisAlertCache) Invalidate(ctx context.Context, key string) error {
	return c.client.Del(ctx, key).Err()
}
