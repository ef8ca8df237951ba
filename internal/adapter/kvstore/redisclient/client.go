// Package redisclient implements the domain.KVStore port over a Redis
// connection, wrapped in a circuit breaker.
package redisclient

import (
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/fairyhunter13/docclassify/internal/adapter/observability"
	"github.com/fairyhunter13/docclassify/internal/config"
	"github.com/fairyhunter13/docclassify/internal/domain"
)

// Client implements domain.KVStore using raw Redis list/key/hash primitives:
// LPUSH/RPUSH/BLPOP/BRPOP for the task queue, SET/GET/DEL with EX for status
// records, and HSET/HGETALL for scaling metrics.
type Client struct {
	rdb *redis.Client
	cb  *observability.CircuitBreaker
}

// New constructs a Client from configuration.
func New(cfg config.Config) *Client {
	rdb := redis.NewClient(&redis.Options{
		Addr:        cfg.RedisAddr(),
		Password:    cfg.RedisPassword,
		DB:          cfg.RedisDB,
		DialTimeout: cfg.RedisDialTimeout,
	})
	return &Client{
		rdb: rdb,
		cb:  observability.NewCircuitBreaker("kvstore.redis", cfg.CircuitBreakerMaxFailures, cfg.CircuitBreakerTimeout),
	}
}

var _ domain.KVStore = (*Client)(nil)

// ListPushLeft atomically pushes payload onto the head of a list key.
func (c *Client) ListPushLeft(ctx domain.Context, name string, payload []byte) error {
	err := c.cb.Call(func() error {
		return c.rdb.LPush(ctx, name, payload).Err()
	})
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrBackendUnavailable, err)
	}
	return nil
}

// ListPushRight atomically pushes payload onto the tail of a list key.
func (c *Client) ListPushRight(ctx domain.Context, name string, payload []byte) error {
	err := c.cb.Call(func() error {
		return c.rdb.RPush(ctx, name, payload).Err()
	})
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrBackendUnavailable, err)
	}
	return nil
}

// ListBlockingPopLeft pops from the head of a list key, blocking up to timeout.
func (c *Client) ListBlockingPopLeft(ctx domain.Context, name string, timeout time.Duration) ([]byte, error) {
	return c.blockingPop(ctx, c.rdb.BLPop, name, timeout)
}

// ListBlockingPopRight pops from the tail of a list key, blocking up to timeout.
func (c *Client) ListBlockingPopRight(ctx domain.Context, name string, timeout time.Duration) ([]byte, error) {
	return c.blockingPop(ctx, c.rdb.BRPop, name, timeout)
}

func (c *Client) blockingPop(ctx domain.Context, op func(domain.Context, time.Duration, ...string) *redis.StringSliceCmd, name string, timeout time.Duration) ([]byte, error) {
	var out []byte
	err := c.cb.Call(func() error {
		res, err := op(ctx, timeout, name).Result()
		if err == redis.Nil {
			return nil
		}
		if err != nil {
			return err
		}
		// res is [key, value]
		if len(res) == 2 {
			out = []byte(res[1])
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrBackendUnavailable, err)
	}
	return out, nil
}

// ListLength returns the current length of a list key.
func (c *Client) ListLength(ctx domain.Context, name string) (int64, error) {
	var n int64
	err := c.cb.Call(func() error {
		var err error
		n, err = c.rdb.LLen(ctx, name).Result()
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("%w: %v", domain.ErrBackendUnavailable, err)
	}
	return n, nil
}

// KVSetWithTTL stores a value under key with a TTL.
func (c *Client) KVSetWithTTL(ctx domain.Context, key string, value []byte, ttl time.Duration) error {
	err := c.cb.Call(func() error {
		return c.rdb.Set(ctx, key, value, ttl).Err()
	})
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrBackendUnavailable, err)
	}
	return nil
}

// KVGet retrieves a previously stored value.
func (c *Client) KVGet(ctx domain.Context, key string) ([]byte, error) {
	var out []byte
	notFound := false
	err := c.cb.Call(func() error {
		v, err := c.rdb.Get(ctx, key).Bytes()
		if err == redis.Nil {
			notFound = true
			return nil
		}
		if err != nil {
			return err
		}
		out = v
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrBackendUnavailable, err)
	}
	if notFound {
		return nil, domain.ErrTaskNotFound
	}
	return out, nil
}

// KVDelete removes a key.
func (c *Client) KVDelete(ctx domain.Context, key string) error {
	err := c.cb.Call(func() error {
		return c.rdb.Del(ctx, key).Err()
	})
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrBackendUnavailable, err)
	}
	return nil
}

// HashSetMany stores a field-value hash under key with a TTL.
func (c *Client) HashSetMany(ctx domain.Context, key string, fields map[string]string, ttl time.Duration) error {
	args := make([]interface{}, 0, len(fields)*2)
	for k, v := range fields {
		args = append(args, k, v)
	}
	err := c.cb.Call(func() error {
		pipe := c.rdb.TxPipeline()
		pipe.HSet(ctx, key, args...)
		if ttl > 0 {
			pipe.Expire(ctx, key, ttl)
		}
		_, err := pipe.Exec(ctx)
		return err
	})
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrBackendUnavailable, err)
	}
	return nil
}

// HashGetAll retrieves all fields of a hash.
func (c *Client) HashGetAll(ctx domain.Context, key string) (map[string]string, error) {
	var out map[string]string
	err := c.cb.Call(func() error {
		v, err := c.rdb.HGetAll(ctx, key).Result()
		if err != nil {
			return err
		}
		out = v
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrBackendUnavailable, err)
	}
	return out, nil
}

// Ping verifies connectivity to Redis.
func (c *Client) Ping(ctx domain.Context) error {
	err := c.cb.Call(func() error {
		return c.rdb.Ping(ctx).Err()
	})
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrBackendUnavailable, err)
	}
	return nil
}

// Close releases the underlying Redis connection pool.
func (c *Client) Close() error {
	return c.rdb.Close()
}
