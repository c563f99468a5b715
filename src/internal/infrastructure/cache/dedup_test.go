package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Runs against a real server: LEDGER_TEST_REDIS_ADDR=localhost:6379 go test ./...
func newTestDeduplicator(t *testing.T) *RedisDeduplicator {
	t.Helper()
	addr := os.Getenv("LEDGER_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("LEDGER_TEST_REDIS_ADDR not set")
	}
	client, err := NewRedisClient(context.Background(), addr, "", 0)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisDeduplicator(client, time.Minute)
}

func TestRedisDeduplicator_SeenAfterMark(t *testing.T) {
	d := newTestDeduplicator(t)
	ctx := context.Background()
	key := "ingest:" + uuid.NewString()
	t.Cleanup(func() { _ = d.forget(ctx, key) })

	before, err := d.Seen(ctx, key)
	require.NoError(t, err)
	require.NoError(t, d.MarkProcessed(ctx, key))
	after, err := d.Seen(ctx, key)
	require.NoError(t, err)

	assert.False(t, before)
	assert.True(t, after)
}

func TestRedisDeduplicator_MarkIsIdempotent(t *testing.T) {
	d := newTestDeduplicator(t)
	ctx := context.Background()
	key := "ingest:" + uuid.NewString()
	t.Cleanup(func() { _ = d.forget(ctx, key) })

	require.NoError(t, d.MarkProcessed(ctx, key))
	require.NoError(t, d.MarkProcessed(ctx, key))

	seen, err := d.Seen(ctx, key)
	require.NoError(t, err)
	assert.True(t, seen)
}

func TestNewRedisDeduplicator_DefaultTTL(t *testing.T) {
	d := NewRedisDeduplicator(nil, 0)
	assert.Equal(t, 72*time.Hour, d.ttl)
}
