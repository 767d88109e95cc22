package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/vietddude/oracle-updater/internal/core/domain"
)

// Client stores cache parameters and run locks in Redis. It satisfies
// cache.ParameterClient for deployments without AWS Parameter Store.
type Client struct {
	rdb    *redis.Client
	prefix string
}

// Config holds Redis connection configuration.
type Config struct {
	URL       string `yaml:"url"`
	Password  string `yaml:"password"`
	KeyPrefix string `yaml:"key_prefix"`
}

// NewClient creates a new Redis client.
func NewClient(cfg Config) (*Client, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}
	if cfg.Password != "" {
		opts.Password = cfg.Password
	}

	rdb := redis.NewClient(opts)

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &Client{rdb: rdb, prefix: cfg.KeyPrefix}, nil
}

// Close closes the Redis connection.
func (c *Client) Close() error {
	return c.rdb.Close()
}

// Key helpers
func parameterKey(prefix, name string) string {
	return fmt.Sprintf("%sparameter:%s", prefix, name)
}

func lockKey(prefix, name string) string {
	return fmt.Sprintf("%slock:%s", prefix, name)
}

// GetParameter returns the stored value or domain.ErrParameterNotFound.
func (c *Client) GetParameter(ctx context.Context, name string) (string, error) {
	val, err := c.rdb.Get(ctx, parameterKey(c.prefix, name)).Result()
	if errors.Is(err, redis.Nil) {
		return "", domain.ErrParameterNotFound
	}
	if err != nil {
		return "", fmt.Errorf("get failed: %w", err)
	}
	return val, nil
}

// PutParameter overwrites the stored value. Parameters never expire.
func (c *Client) PutParameter(ctx context.Context, name, value string) error {
	if err := c.rdb.Set(ctx, parameterKey(c.prefix, name), value, 0).Err(); err != nil {
		return fmt.Errorf("set failed: %w", err)
	}
	return nil
}

// AcquireLock attempts to take the named lock for ttl.
func (c *Client) AcquireLock(ctx context.Context, name string, ttl time.Duration) (bool, error) {
	ok, err := c.rdb.SetNX(ctx, lockKey(c.prefix, name), "locked", ttl).Result()
	if err != nil {
		return false, fmt.Errorf("setnx failed: %w", err)
	}
	return ok, nil
}

// ReleaseLock releases the named lock.
func (c *Client) ReleaseLock(ctx context.Context, name string) error {
	return c.rdb.Del(ctx, lockKey(c.prefix, name)).Err()
}
