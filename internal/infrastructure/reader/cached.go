package reader

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"Newsroom/internal/ports"
)

// Cache stores reader output by key.
type Cache interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
}

// CachedFetcher serves repeated fetches of the same URL from a cache. Cache errors never fail a fetch.
type CachedFetcher struct {
	next   ports.ContentFetcher
	cache  Cache
	ttl    time.Duration
	logger *slog.Logger
}

var _ ports.ContentFetcher = (*CachedFetcher)(nil)

// NewCachedFetcher wraps next with cache.
func NewCachedFetcher(next ports.ContentFetcher, cache Cache, ttl time.Duration, logger *slog.Logger) *CachedFetcher {
	return &CachedFetcher{next: next, cache: cache, ttl: ttl, logger: logger}
}

// Fetch returns the cached rendering or delegates and stores the result.
func (c *CachedFetcher) Fetch(ctx context.Context, target string) (string, error) {
	key := cacheKey(target)

	if text, ok, err := c.cache.Get(ctx, key); err != nil {
		c.warn("reader cache get failed", "url", target, "error", err)
	} else if ok {
		return text, nil
	}

	text, err := c.next.Fetch(ctx, target)
	if err != nil {
		return "", err
	}

	if err := c.cache.Set(ctx, key, text, c.ttl); err != nil {
		c.warn("reader cache set failed", "url", target, "error", err)
	}
	return text, nil
}

func (c *CachedFetcher) warn(msg string, args ...any) {
	if c.logger != nil {
		c.logger.Warn(msg, args...)
	}
}

func cacheKey(target string) string {
	sum := sha256.Sum256([]byte(target))
	return "newsroom:reader:" + hex.EncodeToString(sum[:16])
}

// RedisCache implements Cache on top of go-redis.
type RedisCache struct {
	client *redis.Client
}

var _ Cache = (*RedisCache)(nil)

// NewRedisCache connects to addr.
func NewRedisCache(addr, password string, db int) *RedisCache {
	return &RedisCache{client: redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})}
}

// Get returns the stored value and whether it was present.
func (r *RedisCache) Get(ctx context.Context, key string) (string, bool, error) {
	val, err := r.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return val, true, nil
}

// Set stores value with ttl.
func (r *RedisCache) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return r.client.Set(ctx, key, value, ttl).Err()
}

// Close releases the connection pool.
func (r *RedisCache) Close() error {
	return r.client.Close()
}
