package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/org")
	t.Setenv("REDIS_ADDR", "")
	t.Setenv("APP_PORT", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.App.Addr())
	assert.Equal(t, int32(25), cfg.Postgres.MaxConns)
	assert.Equal(t, 10*time.Minute, cfg.Redis.AsOfTTL)
	assert.Empty(t, cfg.Redis.Addr)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/org")
	t.Setenv("DB_MAX_CONNS", "7")
	t.Setenv("AS_OF_CACHE_TTL", "90s")
	t.Setenv("METRICS_ENABLED", "false")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, int32(7), cfg.Postgres.MaxConns)
	assert.Equal(t, 90*time.Second, cfg.Redis.AsOfTTL)
	assert.False(t, cfg.Metrics.Enabled)
}

func TestLoad_RequiresDSN(t *testing.T) {
	t.Setenv("DATABASE_URL", "")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_InvalidRedisDB(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/org")
	t.Setenv("REDIS_DB", "one")

	_, err := Load()
	assert.Error(t, err)
}
