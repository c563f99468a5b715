package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const dedupPrefix = "ledger:dedup:"

// RedisDeduplicator remembers processed inbound event ids. Marks expire
// after ttl; the ledger's own event reference check covers anything older.
type RedisDeduplicator struct {
	client redis.Cmdable
	ttl    time.Duration
}

func NewRedisDeduplicator(client redis.Cmdable, ttl time.Duration) *RedisDeduplicator {
	if ttl <= 0 {
		ttl = 72 * time.Hour
	}
	return &RedisDeduplicator{client: client, ttl: ttl}
}

func (d *RedisDeduplicator) Seen(ctx context.Context, key string) (bool, error) {
	err := d.client.Get(ctx, dedupPrefix+key).Err()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (d *RedisDeduplicator) MarkProcessed(ctx context.Context, key string) error {
	return d.client.Set(ctx, dedupPrefix+key, time.Now().UTC().Unix(), d.ttl).Err()
}

// forget drops a mark; tests use it to clean up.
func (d *RedisDeduplicator) forget(ctx context.Context, key string) error {
	return d.client.Del(ctx, dedupPrefix+key).Err()
}
