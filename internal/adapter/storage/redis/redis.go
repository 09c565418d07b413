package redis

import (
	"context"
	"fmt"

	"rwa-signing-gateway/config"

	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// NewClient connects to the redis instance backing the wallet counters,
// the in-flight locks and the signed result cache.
func NewClient(ctx context.Context, cfg config.RedisConfig, log zerolog.Logger) (*goredis.Client, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:         cfg.Addr(),
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		DialTimeout:  cfg.Timeout,
		ReadTimeout:  cfg.Timeout,
		WriteTimeout: cfg.Timeout,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("pinging redis at %s: %w", cfg.Addr(), err)
	}

	log.Info().Str("addr", cfg.Addr()).Int("db", cfg.DB).Int("pool_size", cfg.PoolSize).Msg("Redis connection established")
	return client, nil
}

// HealthCheck reports redis reachability. The wallet rate counter fails closed,
// so nothing signs while redis is down.
type HealthCheck struct {
	client goredis.UniversalClient
}

func NewHealthCheck(client goredis.UniversalClient) *HealthCheck {
	return &HealthCheck{client: client}
}

func (h *HealthCheck) Ping(ctx context.Context) error { return h.client.Ping(ctx).Err() }
func (h *HealthCheck) Name() string                   { return "redis" }
func (h *HealthCheck) Critical() bool                 { return true }
