package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "binance", cfg.Feed.Exchange)
	assert.Equal(t, 10, cfg.Feed.TopK)
	assert.Equal(t, 2*time.Second, cfg.Feed.PollInterval)
	assert.Equal(t, 3, cfg.Feed.MaxAttempts)
	assert.Equal(t, 100, cfg.Hub.MaxSubscribers)
	assert.Equal(t, "inproc", cfg.PubSub.Backend)
	assert.Equal(t, "orderbook.deltas", cfg.PubSub.Channel)
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "9999")
	t.Setenv("FEED_EXCHANGE", "kraken")
	t.Setenv("FEED_SYMBOL", "XBTUSD")
	t.Setenv("FEED_POLL_INTERVAL", "500ms")
	t.Setenv("FEED_TOP_K", "5")
	t.Setenv("HUB_MAX_SUBSCRIBERS", "25")
	t.Setenv("PUBSUB_BACKEND", "redis")
	t.Setenv("REDIS_ADDRESS", "redis:6379")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 9999, cfg.Server.Port)
	assert.Equal(t, "kraken", cfg.Feed.Exchange)
	assert.Equal(t, "XBTUSD", cfg.Feed.Symbol)
	assert.Equal(t, 500*time.Millisecond, cfg.Feed.PollInterval)
	assert.Equal(t, 5, cfg.Feed.TopK)
	assert.Equal(t, 25, cfg.Hub.MaxSubscribers)
	assert.Equal(t, "redis", cfg.PubSub.Backend)
	assert.Equal(t, "redis:6379", cfg.Redis.Address)
}
