package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
)

// slidingWindow trims entries at or before the cutoff, then records one attempt
// unless the window is already full.
//
// KEYS[1] = counter key
// ARGV[1] = cutoff (ms), ARGV[2] = now (ms), ARGV[3] = limit, ARGV[4] = member, ARGV[5] = ttl (ms)
var slidingWindow = goredis.NewScript(`
redis.call('ZREMRANGEBYSCORE', KEYS[1], '-inf', ARGV[1])
if redis.call('ZCARD', KEYS[1]) >= tonumber(ARGV[3]) then
	return 0
end
redis.call('ZADD', KEYS[1], ARGV[2], ARGV[4])
redis.call('PEXPIRE', KEYS[1], ARGV[5])
return 1
`)

// SigningRateCounter implements ports.RateCounter with a sorted set per wallet.
// Counts are shared by every gateway instance pointing at the same Redis.
type SigningRateCounter struct {
	client goredis.UniversalClient
	prefix string
	now    func() time.Time
}

// NewSigningRateCounter creates the Redis-backed per-wallet signing counter.
func NewSigningRateCounter(client goredis.UniversalClient) *SigningRateCounter {
	return &SigningRateCounter{
		client: client,
		prefix: "signrate:",
		now:    time.Now,
	}
}

// CheckAndIncrement records one attempt for walletID if fewer than limit were
// recorded within window.
func (c *SigningRateCounter) CheckAndIncrement(ctx context.Context, walletID string, limit int, window time.Duration) (bool, error) {
	now := c.now().UnixMilli()
	cutoff := now - window.Milliseconds()

	res, err := slidingWindow.Run(ctx, c.client, []string{c.prefix + walletID},
		strconv.FormatInt(cutoff, 10),
		strconv.FormatInt(now, 10),
		limit,
		strconv.FormatInt(now, 10)+"-"+uuid.NewString(),
		window.Milliseconds(),
	).Int()
	if err != nil {
		return false, fmt.Errorf("redis signing rate check: %w", err)
	}
	return res == 1, nil
}
