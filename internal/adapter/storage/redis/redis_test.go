package redis

import (
	"context"
	"testing"
	"time"

	"rwa-signing-gateway/config"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisAddr(t *testing.T) {
	cfg := config.RedisConfig{
		Host: "redis.example.com",
		Port: 6380,
	}

	assert.Equal(t, "redis.example.com:6380", cfg.Addr())
}

func TestNewClient_Unreachable(t *testing.T) {
	mr, _ := newTestRedis(t)
	addr := mr.Server().Addr()
	mr.Close()

	_, err := NewClient(context.Background(), config.RedisConfig{Host: addr.IP.String(), Port: addr.Port}, zerolog.Nop())
	assert.Error(t, err)
}

func TestNewClient(t *testing.T) {
	mr, _ := newTestRedis(t)
	addr := mr.Server().Addr()

	client, err := NewClient(context.Background(), config.RedisConfig{
		Host: addr.IP.String(), Port: addr.Port, PoolSize: 4, Timeout: time.Second,
	}, zerolog.Nop())
	require.NoError(t, err)
	defer client.Close()
	assert.Equal(t, 4, client.Options().PoolSize)
}

func TestHealthCheck(t *testing.T) {
	mr, client := newTestRedis(t)
	hc := NewHealthCheck(client)

	assert.Equal(t, "redis", hc.Name())
	assert.True(t, hc.Critical())
	require.NoError(t, hc.Ping(context.Background()))

	mr.Close()
	assert.Error(t, hc.Ping(context.Background()))
}
