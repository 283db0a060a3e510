package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/johnquangdev/qualcoder/internal/domain/entities"
	"github.com/johnquangdev/qualcoder/pkg/config"
)

// RedisVerdictCache shares domain verdicts across instances so identical
// transcripts are classified once.
type RedisVerdictCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisVerdictCache connects to Redis and verifies the connection.
func NewRedisVerdictCache(cfg *config.Config) (*RedisVerdictCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.GetRedisAddr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RedisVerdictCache{
		client: client,
		ttl:    cfg.Engine.VerdictCacheTTL,
	}, nil
}

// GetVerdict returns the cached verdict, or nil on a miss.
func (c *RedisVerdictCache) GetVerdict(ctx context.Context, key string) (*entities.DomainVerdict, error) {
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read verdict from redis: %w", err)
	}

	var verdict entities.DomainVerdict
	if err := json.Unmarshal(data, &verdict); err != nil {
		return nil, fmt.Errorf("failed to decode cached verdict: %w", err)
	}
	return &verdict, nil
}

// SetVerdict caches a verdict under the transcript hash key.
func (c *RedisVerdictCache) SetVerdict(ctx context.Context, key string, verdict *entities.DomainVerdict) error {
	if verdict == nil {
		return nil
	}

	data, err := json.Marshal(verdict)
	if err != nil {
		return fmt.Errorf("failed to encode verdict: %w", err)
	}
	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache verdict: %w", err)
	}
	return nil
}

// Close releases the Redis connection.
func (c *RedisVerdictCache) Close() error {
	return c.client.Close()
}
