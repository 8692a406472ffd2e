package enrichwebsearch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"research-agent/internal/models"

	gocache "github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"
)

const (
	CacheBackendMemory = "memory"
	CacheBackendRedis  = "redis"
	CacheBackendNone   = "none"

	redisCachePrefix = "toolcache:"
)

// Cache stores successful provider results. A miss is (nil, false, nil).
type Cache interface {
	Get(ctx context.Context, key string) ([]models.SearchResult, bool, error)
	Set(ctx context.Context, key string, results []models.SearchResult) error
}

// CacheKey identifies a call by tool, result count and normalized query.
func CacheKey(tool models.ToolType, topK int, query string) string {
	return fmt.Sprintf("%s|%d|%s", tool, topK, strings.ToLower(strings.TrimSpace(query)))
}

type MemoryCache struct {
	store *gocache.Cache
}

func NewMemoryCache(ttl time.Duration) *MemoryCache {
	return &MemoryCache{store: gocache.New(ttl, 2*ttl)}
}

func (c *MemoryCache) Get(_ context.Context, key string) ([]models.SearchResult, bool, error) {
	v, found := c.store.Get(key)
	if !found {
		return nil, false, nil
	}
	results, ok := v.([]models.SearchResult)
	if !ok {
		return nil, false, nil
	}
	out := make([]models.SearchResult, len(results))
	copy(out, results)
	return out, true, nil
}

func (c *MemoryCache) Set(_ context.Context, key string, results []models.SearchResult) error {
	stored := make([]models.SearchResult, len(results))
	copy(stored, results)
	c.store.Set(key, stored, gocache.DefaultExpiration)
	return nil
}

type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, ttl: ttl}
}

func (c *RedisCache) Get(ctx context.Context, key string) ([]models.SearchResult, bool, error) {
	val, err := c.client.Get(ctx, redisCachePrefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get: %w", err)
	}
	var results []models.SearchResult
	if err := json.Unmarshal([]byte(val), &results); err != nil {
		return nil, false, fmt.Errorf("decode cached results: %w", err)
	}
	return results, true, nil
}

func (c *RedisCache) Set(ctx context.Context, key string, results []models.SearchResult) error {
	data, err := json.Marshal(results)
	if err != nil {
		return fmt.Errorf("encode results: %w", err)
	}
	if err := c.client.Set(ctx, redisCachePrefix+key, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// NoopCache never hits.
type NoopCache struct{}

func (NoopCache) Get(context.Context, string) ([]models.SearchResult, bool, error) {
	return nil, false, nil
}

func (NoopCache) Set(context.Context, string, []models.SearchResult) error { return nil }

// NewCache builds the backend named by cfg. The redis backend needs a client.
func NewCache(cfg *Config, client *redis.Client) (Cache, error) {
	switch cfg.CacheBackend {
	case "", CacheBackendMemory:
		return NewMemoryCache(cfg.CacheTTL), nil
	case CacheBackendRedis:
		if client == nil {
			return nil, errors.New("redis tool cache requires a redis client")
		}
		return NewRedisCache(client, cfg.CacheTTL), nil
	case CacheBackendNone:
		return NoopCache{}, nil
	}
	return nil, fmt.Errorf("unknown tool cache backend: %s", cfg.CacheBackend)
}
