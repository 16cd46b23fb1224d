package store

import (
	"context"
	"errors"
	"net"
	"time"

	"github.com/go-redis/redis/v8"
)

// RedisConfig configures the Redis backend connection.
type RedisConfig struct {
	Addr          string        `yaml:"addr"`
	DB            int           `yaml:"db"`
	Password      string        `yaml:"password"`
	SocketTimeout time.Duration `yaml:"socket_timeout"`
}

// RedisBackend implements Backend on top of a Redis client.
type RedisBackend struct {
	client *redis.Client
}

var _ Backend = (*RedisBackend)(nil)

// NewRedisBackend creates a Redis-backed store backend. The socket timeout is
// applied to dials, reads and writes.
func NewRedisBackend(cfg RedisConfig) *RedisBackend {
	timeout := cfg.SocketTimeout
	if timeout == 0 {
		timeout = 5 * time.Second
	}
	return &RedisBackend{
		client: redis.NewClient(&redis.Options{
			Addr:         cfg.Addr,
			DB:           cfg.DB,
			Password:     cfg.Password,
			DialTimeout:  timeout,
			ReadTimeout:  timeout,
			WriteTimeout: timeout,
		}),
	}
}

// NewRedisBackendFromClient wraps an existing client, primarily for tests.
func NewRedisBackendFromClient(client *redis.Client) *RedisBackend {
	return &RedisBackend{client: client}
}

// Get returns the value at key, ErrNotFound when the key is absent, or a
// ConnectionError when Redis is unreachable.
func (b *RedisBackend) Get(ctx context.Context, key string) (string, error) {
	value, err := b.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrNotFound
		}
		return "", classify(err)
	}
	return value, nil
}

// Set stores value at key with the given expiry.
func (b *RedisBackend) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if err := b.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return classify(err)
	}
	return nil
}

// Ping verifies connectivity, used by the health endpoint.
func (b *RedisBackend) Ping(ctx context.Context) error {
	if err := b.client.Ping(ctx).Err(); err != nil {
		return classify(err)
	}
	return nil
}

// Close releases the underlying client.
func (b *RedisBackend) Close() error {
	return b.client.Close()
}

// classify wraps connectivity failures as ConnectionError so the adapter can
// distinguish them from command errors.
func classify(err error) error {
	var netErr net.Error
	if errors.As(err, &netErr) {
		return &ConnectionError{Err: err}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &ConnectionError{Err: err}
	}
	return err
}
