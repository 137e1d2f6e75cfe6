package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore is a best-effort Redis-backed Cache for deployments running more
// than one analysis process. Redis faults degrade to an in-memory Store so a
// cache problem never takes down analysis.
type RedisStore[T any] struct {
	rdb    *redis.Client
	mem    *Store[T]
	ttl    time.Duration
	prefix string
}

// NewRedisStore connects and pings Redis before returning the store.
func NewRedisStore[T any](ctx context.Context, addr, password string, db int, prefix string, ttl time.Duration) (*RedisStore[T], error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &RedisStore[T]{
		rdb:    rdb,
		mem:    NewStore[T](ttl),
		ttl:    ttl,
		prefix: prefix,
	}, nil
}

func (r *RedisStore[T]) key(k string) string {
	return fmt.Sprintf("%s:%s", r.prefix, k)
}

// Get reads from Redis, falling back to the in-memory store on any fault.
func (r *RedisStore[T]) Get(ctx context.Context, key string) (T, bool) {
	var zero T

	b, err := r.rdb.Get(ctx, r.key(key)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return zero, false
		}
		return r.mem.Get(ctx, key)
	}

	var v T
	if err := json.Unmarshal(b, &v); err != nil {
		return zero, false
	}
	return v, true
}

// Set writes to Redis with the TTL applied server-side, mirroring into the
// in-memory store so reads survive a Redis outage.
func (r *RedisStore[T]) Set(ctx context.Context, key string, value T) {
	r.mem.Set(ctx, key, value)

	b, err := json.Marshal(value)
	if err != nil {
		return
	}
	_ = r.rdb.Set(ctx, r.key(key), b, r.ttl).Err()
}

// Health checks the Redis connection.
func (r *RedisStore[T]) Health(ctx context.Context) error {
	return r.rdb.Ping(ctx).Err()
}

// Close releases the Redis client.
func (r *RedisStore[T]) Close() error {
	return r.rdb.Close()
}
