package redis

import (
	"context"
	"testing"
	"time"

	"rwa-signing-gateway/internal/core/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignedResultCache_SetAndGet(t *testing.T) {
	_, client := newTestRedis(t)
	cache := NewSignedResultCache(client)
	ctx := context.Background()

	policy := "policy-1"
	in := &domain.SignedResult{SignedTxBlob: "ABCD", TxHash: "EF01", AuditLogID: "audit-1", PolicyApplied: &policy}
	require.NoError(t, cache.Set(ctx, "w1:HASH", in, time.Hour))

	out, err := cache.Get(ctx, "w1:HASH")
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestSignedResultCache_Miss(t *testing.T) {
	_, client := newTestRedis(t)
	cache := NewSignedResultCache(client)

	out, err := cache.Get(context.Background(), "missing")
	require.NoError(t, err)
	assert.Nil(t, out)
}

func TestSignedResultCache_Expiry(t *testing.T) {
	mr, client := newTestRedis(t)
	cache := NewSignedResultCache(client)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "k", &domain.SignedResult{TxHash: "X"}, time.Minute))
	mr.FastForward(2 * time.Minute)

	out, err := cache.Get(ctx, "k")
	require.NoError(t, err)
	assert.Nil(t, out)
}

func TestSignedResultCache_CorruptEntry(t *testing.T) {
	mr, client := newTestRedis(t)
	cache := NewSignedResultCache(client)
	require.NoError(t, mr.Set("signed:k", "not json"))

	_, err := cache.Get(context.Background(), "k")
	assert.Error(t, err)
}
