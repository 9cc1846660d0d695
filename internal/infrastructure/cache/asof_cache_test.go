package cache

import (
	"context"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"orgstruct/internal/core/id"
)

func TestKeys(t *testing.T) {
	date := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, "orgstruct:asof:acme:gen", generationKey("acme"))
	assert.Equal(t, "orgstruct:asof:acme:7:20250301", entryKey("acme", 7, date))
	assert.NotEqual(t, entryKey("acme", 7, date), entryKey("acme", 8, date))
}

func TestAsOfCache_ClosedClientReturnsErrors(t *testing.T) {
	rdb := goredis.NewClient(&goredis.Options{Addr: "127.0.0.1:0"})
	require.NoError(t, rdb.Close())

	c := NewAsOfCache(rdb, time.Minute)
	ctx := context.Background()
	date := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

	_, err := c.Generation(ctx, "acme")
	assert.Error(t, err)

	_, hit, err := c.Get(ctx, "acme", 0, date)
	assert.Error(t, err)
	assert.False(t, hit)

	assert.Error(t, c.Set(ctx, "acme", 0, date, id.New()))
	assert.Error(t, c.Invalidate(ctx, "acme"))
}

func TestNewAsOfCache_DefaultTTL(t *testing.T) {
	c := NewAsOfCache(nil, 0)
	assert.Equal(t, 10*time.Minute, c.ttl)
}
