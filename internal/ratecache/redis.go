// README: Redis cache backend; TTL is enforced natively by key expiry.
package ratecache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "ratecache:"

type RedisBackend struct {
	redis *redis.Client
}

func NewRedisBackend(client *redis.Client) *RedisBackend {
	return &RedisBackend{redis: client}
}

func (r *RedisBackend) Get(ctx context.Context, key string) ([]byte, bool, error) {
	val, err := r.redis.Get(ctx, keyPrefix+key).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return val, true, nil
}

func (r *RedisBackend) Set(ctx context.Context, key string, val []byte, ttl time.Duration) error {
	return r.redis.Set(ctx, keyPrefix+key, val, ttl).Err()
}
