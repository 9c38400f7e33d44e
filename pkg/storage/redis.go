package storage

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// KeyPrefix is the default prefix of backup keys.
const KeyPrefix = "flagsync:backup:"

// RedisBackend stores the backup under a single Redis key, which lets
// instances without a persistent disk share a recovery copy.
type RedisBackend struct {
	client redis.UniversalClient
	key    string
	ttl    time.Duration
}

// RedisOption configures a RedisBackend.
type RedisOption func(*RedisBackend)

// WithTTL expires the backup key after d. Zero keeps it forever.
func WithTTL(d time.Duration) RedisOption {
	return func(b *RedisBackend) {
		if d > 0 {
			b.ttl = d
		}
	}
}

// WithKeyPrefix replaces KeyPrefix.
func WithKeyPrefix(prefix string) RedisOption {
	return func(b *RedisBackend) {
		b.key = prefix
	}
}

// NewRedisBackend creates a Redis backend for app.
func NewRedisBackend(client redis.UniversalClient, app string, opts ...RedisOption) *RedisBackend {
	b := &RedisBackend{client: client, key: KeyPrefix}
	for _, opt := range opts {
		opt(b)
	}
	b.key += SafeName(app)
	return b
}

// Key returns the backup key.
func (b *RedisBackend) Key() string {
	return b.key
}

// Read returns the backup value.
func (b *RedisBackend) Read(ctx context.Context) ([]byte, error) {
	data, err := b.client.Get(ctx, b.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return data, nil
}

// Write replaces the backup value.
func (b *RedisBackend) Write(ctx context.Context, data []byte) error {
	return b.client.Set(ctx, b.key, data, b.ttl).Err()
}
