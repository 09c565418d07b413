package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"rwa-signing-gateway/internal/core/domain"

	goredis "github.com/redis/go-redis/v9"
)

// SignedResultCache implements ports.SignedResultCache using Redis.
// The audit trail stays authoritative; this only shortcuts the lookup.
type SignedResultCache struct {
	client goredis.UniversalClient
	prefix string
}

// NewSignedResultCache creates a new Redis-backed replay cache.
func NewSignedResultCache(client goredis.UniversalClient) *SignedResultCache {
	return &SignedResultCache{
		client: client,
		prefix: "signed:",
	}
}

// Get returns the cached result for key, or nil, nil if there is none.
func (c *SignedResultCache) Get(ctx context.Context, key string) (*domain.SignedResult, error) {
	val, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("redis signed result get: %w", err)
	}

	var result domain.SignedResult
	if err := json.Unmarshal(val, &result); err != nil {
		return nil, fmt.Errorf("decoding cached signed result: %w", err)
	}
	return &result, nil
}

// Set stores result under key with ttl.
func (c *SignedResultCache) Set(ctx context.Context, key string, result *domain.SignedResult, ttl time.Duration) error {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("encoding signed result: %w", err)
	}
	if err := c.client.Set(ctx, c.prefix+key, data, ttl).Err(); err != nil {
		return fmt.Errorf("redis signed result set: %w", err)
	}
	return nil
}
