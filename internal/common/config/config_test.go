package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DISCORD_TOKEN", "test-token")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "test-token", cfg.Discord.BotToken)
	assert.False(t, cfg.Debug)
	assert.Equal(t, "file", cfg.Giveaway.StoreBackend)
	assert.Equal(t, "giveaways.json", cfg.Giveaway.DataFile)
	assert.Equal(t, 15*time.Second, cfg.Giveaway.CountdownInterval)
	assert.Equal(t, 5*time.Minute, cfg.Relay.IdleTimeout)
	assert.Equal(t, 0, cfg.Ops.Port)
	assert.Equal(t, "localhost:6379", cfg.RedisAddr())

	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, "Asia/Ho_Chi_Minh", loc.String())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("DISCORD_TOKEN", "test-token")
	t.Setenv("STORE_BACKEND", "redis")
	t.Setenv("COUNTDOWN_INTERVAL", "30s")
	t.Setenv("REDIS_HOST", "redis.internal")
	t.Setenv("REDIS_PORT", "6380")
	t.Setenv("OPS_PORT", "8080")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "redis", cfg.Giveaway.StoreBackend)
	assert.Equal(t, 30*time.Second, cfg.Giveaway.CountdownInterval)
	assert.Equal(t, "redis.internal:6380", cfg.RedisAddr())
	assert.Equal(t, 8080, cfg.Ops.Port)
}
