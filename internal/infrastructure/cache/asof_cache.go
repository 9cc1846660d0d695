// Package cache provides the Redis-backed as-of resolution cache.
package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"orgstruct/internal/core/config"
	"orgstruct/internal/core/id"
	"orgstruct/internal/domain/orgstructure/version"
	"orgstruct/pkg/logger"
)

var _ version.AsOfCache = (*AsOfCache)(nil)

const (
	keyPrefix  = "orgstruct:asof:"
	dateLayout = "20060102"
)

// AsOfCache stores resolved versions per (scope, generation, date).
// Entries of an older generation are never read again and expire by TTL.
type AsOfCache struct {
	rdb *goredis.Client
	ttl time.Duration
}

// NewClient connects to Redis and checks reachability.
func NewClient(ctx context.Context, cfg config.RedisConfig) (*goredis.Client, error) {
	rdb := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping %s: %w", cfg.Addr, err)
	}

	logger.Info(ctx, "redis connected", "addr", cfg.Addr)
	return rdb, nil
}

// NewAsOfCache wraps a Redis client.
func NewAsOfCache(rdb *goredis.Client, ttl time.Duration) *AsOfCache {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &AsOfCache{rdb: rdb, ttl: ttl}
}

// Generation returns the scope's current generation; a missing key is 0.
func (c *AsOfCache) Generation(ctx context.Context, scopeID string) (int64, error) {
	gen, err := c.rdb.Get(ctx, generationKey(scopeID)).Int64()
	if errors.Is(err, goredis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("get generation: %w", err)
	}
	return gen, nil
}

// Get returns the cached version id for date under gen.
func (c *AsOfCache) Get(ctx context.Context, scopeID string, gen int64, date time.Time) (id.ID, bool, error) {
	raw, err := c.rdb.Get(ctx, entryKey(scopeID, gen, date)).Result()
	if errors.Is(err, goredis.Nil) {
		return id.ID{}, false, nil
	}
	if err != nil {
		return id.ID{}, false, fmt.Errorf("get entry: %w", err)
	}
	versionID, err := id.Parse(raw)
	if err != nil {
		return id.ID{}, false, fmt.Errorf("decode entry: %w", err)
	}
	return versionID, true, nil
}

// Set stores versionID as the resolution of date under gen.
func (c *AsOfCache) Set(ctx context.Context, scopeID string, gen int64, date time.Time, versionID id.ID) error {
	if err := c.rdb.Set(ctx, entryKey(scopeID, gen, date), versionID.String(), c.ttl).Err(); err != nil {
		return fmt.Errorf("set entry: %w", err)
	}
	return nil
}

// Invalidate bumps the scope's generation, orphaning every cached entry.
func (c *AsOfCache) Invalidate(ctx context.Context, scopeID string) error {
	if err := c.rdb.Incr(ctx, generationKey(scopeID)).Err(); err != nil {
		return fmt.Errorf("bump generation: %w", err)
	}
	return nil
}

// Ping checks Redis reachability (readiness probe).
func (c *AsOfCache) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

func generationKey(scopeID string) string {
	return keyPrefix + scopeID + ":gen"
}

func entryKey(scopeID string, gen int64, date time.Time) string {
	return keyPrefix + scopeID + ":" + strconv.FormatInt(gen, 10) + ":" + date.UTC().Format(dateLayout)
}
