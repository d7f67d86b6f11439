package redis

import (
	"context"
	"encoding/json"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"github.com/wucy1/ProDocuX/internal/infrastructure/monitoring/logging"
	"github.com/wucy1/ProDocuX/pkg/errors"
)

// Cache is a JSON TTL cache over the shared client.  Concurrent loads of a
// missing key are collapsed through singleflight, and TTLs carry a small
// random jitter so a burst of writes does not expire in one wave.
type Cache struct {
	client     *Client
	defaultTTL time.Duration
	group      singleflight.Group
	logger     logging.Logger
}

// NewCache constructs a Cache with the given default TTL.
func NewCache(client *Client, defaultTTL time.Duration) *Cache {
	return &Cache{
		client:     client,
		defaultTTL: defaultTTL,
		logger:     client.logger.Named("cache"),
	}
}

// Get loads a cached value into dest.  The first return is false on miss.
func (c *Cache) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	rdb, err := c.client.Underlying()
	if err != nil {
		return false, err
	}
	payload, err := rdb.Get(ctx, c.client.Key("cache", key)).Bytes()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, errors.Wrap(err, errors.ErrCodeCacheError, "cache read failed")
	}
	if err := json.Unmarshal(payload, dest); err != nil {
		// A corrupt entry behaves like a miss; the loader will replace it.
		c.logger.Warn("dropping undecodable cache entry", logging.String("key", key), logging.Err(err))
		return false, nil
	}
	return true, nil
}

// Set stores a value.  ttl <= 0 selects the default TTL.
func (c *Cache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	rdb, err := c.client.Underlying()
	if err != nil {
		return err
	}
	payload, err := json.Marshal(value)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "cache encode failed")
	}
	if ttl <= 0 {
		ttl = c.defaultTTL
	}
	if err := rdb.Set(ctx, c.client.Key("cache", key), payload, jitter(ttl)).Err(); err != nil {
		return errors.Wrap(err, errors.ErrCodeCacheError, "cache write failed")
	}
	return nil
}

// Delete removes a key.  Deleting an absent key is not an error.
func (c *Cache) Delete(ctx context.Context, key string) error {
	rdb, err := c.client.Underlying()
	if err != nil {
		return err
	}
	if err := rdb.Del(ctx, c.client.Key("cache", key)).Err(); err != nil {
		return errors.Wrap(err, errors.ErrCodeCacheError, "cache delete failed")
	}
	return nil
}

// GetOrSet returns the cached value or runs loader once per key across
// concurrent callers, caching its result.  A failed cache read behaves
// like a miss: the caller still gets the loaded value.
func (c *Cache) GetOrSet(ctx context.Context, key string, dest interface{}, ttl time.Duration,
	loader func(ctx context.Context) (interface{}, error)) error {

	if hit, err := c.Get(ctx, key, dest); err != nil {
		c.logger.Warn("cache read failed", logging.String("key", key), logging.Err(err))
	} else if hit {
		return nil
	}

	payload, err, _ := c.group.Do(key, func() (interface{}, error) {
		value, err := loader(ctx)
		if err != nil {
			return nil, err
		}
		if err := c.Set(ctx, key, value, ttl); err != nil {
			// Serving the loaded value matters more than caching it.
			c.logger.Warn("cache backfill failed", logging.String("key", key), logging.Err(err))
		}
		return json.Marshal(value)
	})
	if err != nil {
		return err
	}
	return json.Unmarshal(payload.([]byte), dest)
}

// jitter spreads a TTL by up to 10%.
func jitter(ttl time.Duration) time.Duration {
	if ttl <= 0 {
		return ttl
	}
	return ttl + time.Duration(rand.Int63n(int64(ttl)/10+1))
}
