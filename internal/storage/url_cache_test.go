package storage

import (
	"context"
	"testing"
	"time"

	"resumeforge/internal/config"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	mr, err := miniredis.Run()
	require.NoError(t, err)

	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})

	return client, mr
}

func TestRedisURLCache(t *testing.T) {
	client, mr := setupTestRedis(t)
	defer mr.Close()

	cache := NewRedisURLCacheWithClient(client, 50*time.Minute, "resumeforge:url:", testLogger)
	defer cache.Close()
	ctx := context.Background()

	_, ok := cache.Get(ctx, "aws", "resumes/1-a.pdf")
	assert.False(t, ok)

	cache.Set(ctx, "aws", "resumes/1-a.pdf", "https://signed.example/a")
	url, ok := cache.Get(ctx, "aws", "resumes/1-a.pdf")
	assert.True(t, ok)
	assert.Equal(t, "https://signed.example/a", url)
	assert.True(t, mr.Exists("resumeforge:url:aws:resumes/1-a.pdf"))

	mr.FastForward(51 * time.Minute)
	_, ok = cache.Get(ctx, "aws", "resumes/1-a.pdf")
	assert.False(t, ok)

	cache.Set(ctx, "gcp", "k", "https://storage.googleapis.com/b/k")
	cache.Delete(ctx, "gcp", "k")
	_, ok = cache.Get(ctx, "gcp", "k")
	assert.False(t, ok)
}

func TestRedisURLCacheSwallowsFailures(t *testing.T) {
	client, mr := setupTestRedis(t)
	cache := NewRedisURLCacheWithClient(client, time.Minute, "p:", testLogger)
	mr.Close()

	cache.Set(context.Background(), "aws", "k", "u")
	_, ok := cache.Get(context.Background(), "aws", "k")
	assert.False(t, ok)
}

func TestNewRedisURLCacheDisabledWithoutAddr(t *testing.T) {
	assert.Nil(t, NewRedisURLCache(config.RedisConfig{}, testLogger))
}
