package storage

import (
	"context"
	stderrors "errors"
	"time"

	"resumeforge/internal/config"
	"resumeforge/internal/errors"

	"github.com/redis/go-redis/v9"
)

// URLCache remembers resolved file URLs. Implementations swallow their own
// failures: a cache problem only costs a backend call.
type URLCache interface {
	Get(ctx context.Context, provider, key string) (string, bool)
	Set(ctx context.Context, provider, key, url string)
	Delete(ctx context.Context, provider, key string)
}

// RedisURLCache is a URLCache backed by Redis.
type RedisURLCache struct {
	client *redis.Client
	ttl    time.Duration
	prefix string
	logger *errors.Logger
}

// NewRedisURLCache returns nil when no Redis address is configured.
func NewRedisURLCache(cfg config.RedisConfig, logger *errors.Logger) *RedisURLCache {
	if cfg.Addr == "" {
		return nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	return NewRedisURLCacheWithClient(client, cfg.TTL, cfg.Prefix, logger)
}

func NewRedisURLCacheWithClient(client *redis.Client, ttl time.Duration, prefix string, logger *errors.Logger) *RedisURLCache {
	return &RedisURLCache{
		client: client,
		ttl:    ttl,
		prefix: prefix,
		logger: logger,
	}
}

func (c *RedisURLCache) cacheKey(provider, key string) string {
	return c.prefix + provider + ":" + key
}

func (c *RedisURLCache) Get(ctx context.Context, provider, key string) (string, bool) {
	url, err := c.client.Get(ctx, c.cacheKey(provider, key)).Result()
	if err != nil {
		if !stderrors.Is(err, redis.Nil) {
			c.logger.Warn("URL cache read failed", "provider", provider, "error", err.Error())
		}
		return "", false
	}
	return url, true
}

func (c *RedisURLCache) Set(ctx context.Context, provider, key, url string) {
	if err := c.client.Set(ctx, c.cacheKey(provider, key), url, c.ttl).Err(); err != nil {
		c.logger.Warn("URL cache write failed", "provider", provider, "error", err.Error())
	}
}

func (c *RedisURLCache) Delete(ctx context.Context, provider, key string) {
	if err := c.client.Del(ctx, c.cacheKey(provider, key)).Err(); err != nil {
		c.logger.Warn("URL cache delete failed", "provider", provider, "error", err.Error())
	}
}

func (c *RedisURLCache) Close() error {
	return c.client.Close()
}
