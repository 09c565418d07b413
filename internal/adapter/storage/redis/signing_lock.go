package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// SigningLock implements ports.SigningLock using Redis SET NX.
type SigningLock struct {
	client goredis.UniversalClient
	prefix string
}

// NewSigningLock creates a new Redis-backed signing lock.
func NewSigningLock(client goredis.UniversalClient) *SigningLock {
	return &SigningLock{
		client: client,
		prefix: "signlock:",
	}
}

// Acquire takes the lock for key. Returns false if another request holds it.
// The TTL bounds how long a crashed holder can block the transaction.
func (l *SigningLock) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	result, err := l.client.SetArgs(ctx, l.prefix+key, 1, goredis.SetArgs{
		Mode: "NX",
		TTL:  ttl,
	}).Result()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("redis signing lock acquire: %w", err)
	}
	return result == "OK", nil
}

// Release drops the lock. Releasing a lock that already expired is not an error.
func (l *SigningLock) Release(ctx context.Context, key string) error {
	if err := l.client.Del(ctx, l.prefix+key).Err(); err != nil {
		return fmt.Errorf("redis signing lock release: %w", err)
	}
	return nil
}
