package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ktane-tracker/tracker/internal/models"
)

const (
	keyPrefix   = "catalog:"
	modulesKey  = keyPrefix + "modules"
	missionsKey = keyPrefix + "missions"
)

// RedisCache keeps JSON snapshots of the module and mission catalogs in Redis
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisCache connects to Redis and verifies connectivity
func NewRedisCache(ctx context.Context, address, password string, db int, ttl time.Duration) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RedisCache{client: client, ttl: ttl}, nil
}

// Modules returns the cached module catalog; ok is false on a miss
func (c *RedisCache) Modules(ctx context.Context) ([]models.Module, bool, error) {
	var modules []models.Module
	ok, err := c.get(ctx, modulesKey, &modules)
	return modules, ok, err
}

// StoreModules caches the module catalog
func (c *RedisCache) StoreModules(ctx context.Context, modules []models.Module) error {
	return c.set(ctx, modulesKey, modules)
}

// Missions returns the cached mission catalog; ok is false on a miss
func (c *RedisCache) Missions(ctx context.Context) ([]models.Mission, bool, error) {
	var missions []models.Mission
	ok, err := c.get(ctx, missionsKey, &missions)
	return missions, ok, err
}

// StoreMissions caches the mission catalog
func (c *RedisCache) StoreMissions(ctx context.Context, missions []models.Mission) error {
	return c.set(ctx, missionsKey, missions)
}

// Invalidate removes every catalog key
func (c *RedisCache) Invalidate(ctx context.Context) error {
	var cursor uint64
	var keysDeleted int

	for {
		keys, nextCursor, err := c.client.Scan(ctx, cursor, keyPrefix+"*", 100).Result()
		if err != nil {
			return fmt.Errorf("failed to scan keys: %w", err)
		}

		if len(keys) > 0 {
			if err := c.client.Del(ctx, keys...).Err(); err != nil {
				return fmt.Errorf("failed to delete keys: %w", err)
			}
			keysDeleted += len(keys)
		}

		cursor = nextCursor
		if cursor == 0 {
			break
		}
	}

	slog.Info("catalog cache invalidated", "keys_deleted", keysDeleted)
	return nil
}

// Ping verifies Redis connectivity
func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close closes the Redis connection
func (c *RedisCache) Close() error {
	return c.client.Close()
}

func (c *RedisCache) get(ctx context.Context, key string, dst any) (bool, error) {
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("failed to read %s: %w", key, err)
	}

	if err := json.Unmarshal(data, dst); err != nil {
		return false, fmt.Errorf("failed to unmarshal %s: %w", key, err)
	}
	return true, nil
}

func (c *RedisCache) set(ctx context.Context, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", key, err)
	}

	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return nil
}
