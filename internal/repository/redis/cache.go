package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// Cache is a JSON read-through cache. A Cache built over a nil client
// caches nothing: lookups miss and loaders always run.
type Cache struct {
	rdb *redis.Client
	sf  singleflight.Group
}

func New(client *redis.Client) *Cache {
	return &Cache{rdb: client}
}

// Enabled reports whether the cache is backed by a server.
func (c *Cache) Enabled() bool {
	return c != nil && c.rdb != nil
}

func (c *Cache) get(ctx context.Context, key string) ([]byte, bool, error) {
	if !c.Enabled() {
		return nil, false, nil
	}

	b, err := c.rdb.Get(ctx, key).Bytes()
	switch {
	case errors.Is(err, redis.Nil):
		return nil, false, nil
	case err != nil:
		return nil, false, err
	}

	return b, true, nil
}

func (c *Cache) del(ctx context.Context, keys ...string) error {
	if len(keys) == 0 || !c.Enabled() {
		return nil
	}

	return c.rdb.Del(ctx, keys...).Err()
}

// GetJSON decodes the value cached under key. A value that no longer decodes
// into T counts as a miss.
func GetJSON[T any](ctx context.Context, c *Cache, key string) (T, bool, error) {
	var out T

	b, ok, err := c.get(ctx, key)
	if err != nil || !ok {
		return out, false, err
	}

	if err := json.Unmarshal(b, &out); err != nil {
		var zero T
		return zero, false, nil
	}

	return out, true, nil
}

func SetJSON(ctx context.Context, c *Cache, key string, val any, ttl time.Duration) error {
	if !c.Enabled() {
		return nil
	}

	b, err := json.Marshal(val)
	if err != nil {
		return err
	}

	return c.rdb.Set(ctx, key, b, ttl).Err()
}

// GetOrSetJSON returns the cached value for key, or runs loader and caches
// its result for ttl. Concurrent misses on the same key share one loader
// call. Cache failures fall through to the loader; loader errors are never
// cached.
func GetOrSetJSON[T any](
	ctx context.Context,
	c *Cache,
	key string,
	ttl time.Duration,
	loader func(ctx context.Context) (T, error),
) (T, error) {
	if !c.Enabled() {
		return loader(ctx)
	}

	if v, ok, err := GetJSON[T](ctx, c, key); err == nil && ok {
		return v, nil
	}

	vAny, err, _ := c.sf.Do(key, func() (any, error) {
		if v, ok, err := GetJSON[T](ctx, c, key); err == nil && ok {
			return v, nil
		}

		v, err := loader(ctx)
		if err != nil {
			return nil, err
		}

		_ = SetJSON(ctx, c, key, v, ttl)

		return v, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}

	v, ok := vAny.(T)
	if !ok {
		var zero T
		return zero, fmt.Errorf("cache %s: unexpected value type %T", key, vAny)
	}

	return v, nil
}

// InvalidateTrain drops every cached view of the train.
func (c *Cache) InvalidateTrain(ctx context.Context, trainID int64) error {
	return c.del(ctx, KeyTrain(trainID), KeyAvailability(trainID), KeyTrainList())
}

func (c *Cache) InvalidateAvailability(ctx context.Context, trainID int64) error {
	return c.del(ctx, KeyAvailability(trainID))
}

func (c *Cache) InvalidatePromotions(ctx context.Context) error {
	return c.del(ctx, KeyPromotions())
}
