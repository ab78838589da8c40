// README: Get-or-fetch cache for external rates with TTL and per-key single-flight.
package ratecache

import (
	"context"
	"encoding/json"
	"time"

	"golang.org/x/sync/singleflight"
)

// Backend stores serialized rate entries. Entries older than their TTL are
// treated as absent by the backend itself.
type Backend interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, val []byte, ttl time.Duration) error
}

type Cache struct {
	backend Backend
	group   singleflight.Group
}

func New(backend Backend) *Cache {
	return &Cache{backend: backend}
}

// GetOrFetch returns the cached value for key if present and fresh, otherwise
// invokes fetch, stores the result under key and returns it. Fetch errors
// propagate to the caller and cache nothing. Concurrent misses for the same
// key share a single fetch. Backend failures degrade to a miss: the cache
// never takes a request down on its own.
func GetOrFetch[T any](ctx context.Context, c *Cache, key string, ttl time.Duration, fetch func(context.Context) (T, error)) (T, error) {
	if v, ok := lookup[T](ctx, c, key); ok {
		return v, nil
	}

	res, err, _ := c.group.Do(key, func() (interface{}, error) {
		// A concurrent flight may have stored the value while this caller
		// was waiting on the group.
		if v, ok := lookup[T](ctx, c, key); ok {
			return v, nil
		}
		v, err := fetch(ctx)
		if err != nil {
			return nil, err
		}
		if raw, merr := json.Marshal(v); merr == nil {
			_ = c.backend.Set(ctx, key, raw, ttl)
		}
		return v, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return res.(T), nil
}

func lookup[T any](ctx context.Context, c *Cache, key string) (T, bool) {
	var v T
	raw, ok, err := c.backend.Get(ctx, key)
	if err != nil || !ok {
		return v, false
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		return v, false
	}
	return v, true
}
