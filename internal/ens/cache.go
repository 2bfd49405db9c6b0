package ens

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/redis/go-redis/v9"
)

const cacheKeyPrefix = "ens:name:"

// NameResolver looks up the primary name for an address.
type NameResolver interface {
	LookupAddress(ctx context.Context, addr common.Address) (string, error)
}

// RedisClient is the subset of go-redis used by the cache.
type RedisClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
}

// CachedResolver memoizes lookups in Redis. Empty names are cached too so
// addresses without a primary name do not hit the RPC on every event.
// Lookup errors are never cached.
type CachedResolver struct {
	next   NameResolver
	client RedisClient
	ttl    time.Duration
	logger *slog.Logger
}

// NewCachedResolver wraps next with a Redis cache.
func NewCachedResolver(next NameResolver, client RedisClient, ttl time.Duration, logger *slog.Logger) *CachedResolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &CachedResolver{next: next, client: client, ttl: ttl, logger: logger}
}

// LookupAddress implements NameResolver.
func (c *CachedResolver) LookupAddress(ctx context.Context, addr common.Address) (string, error) {
	key := cacheKey(addr)

	name, err := c.client.Get(ctx, key).Result()
	switch {
	case err == nil:
		return name, nil
	case !errors.Is(err, redis.Nil):
		c.logger.Warn("ens cache read failed", "address", addr.Hex(), "error", err)
	}

	name, err = c.next.LookupAddress(ctx, addr)
	if err != nil {
		return "", err
	}

	if err := c.client.Set(ctx, key, name, c.ttl).Err(); err != nil {
		c.logger.Warn("ens cache write failed", "address", addr.Hex(), "error", err)
	}
	return name, nil
}

func cacheKey(addr common.Address) string {
	return cacheKeyPrefix + strings.ToLower(addr.Hex())
}

// NewRedisClient parses a redis:// URL into a client.
func NewRedisClient(url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return redis.NewClient(opts), nil
}
