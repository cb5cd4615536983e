// Package cache stores host check results in Redis so repeated API calls
// for the same host do not refetch its security.txt.
package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/khanhnv2901/securitytxt/internal/checker"
	"github.com/khanhnv2901/securitytxt/internal/codec"
	"github.com/khanhnv2901/securitytxt/internal/shared/constants"
	apperrors "github.com/khanhnv2901/securitytxt/internal/shared/errors"
)

const keyPrefix = "securitytxt:check:"

// Options are the check settings that change a result. Results computed
// with different options never share a key.
type Options struct {
	Strict                  bool
	NoIPv6                  bool
	ExpiresWarningThreshold *int
}

// Key builds the cache key for a host and its check options.
func Key(host string, opts Options) string {
	var b strings.Builder
	b.WriteString(keyPrefix)
	b.WriteString(strings.ToLower(host))
	b.WriteString(":strict=")
	b.WriteString(strconv.FormatBool(opts.Strict))
	b.WriteString(":noipv6=")
	b.WriteString(strconv.FormatBool(opts.NoIPv6))
	if opts.ExpiresWarningThreshold != nil {
		b.WriteString(":expires=")
		b.WriteString(strconv.Itoa(*opts.ExpiresWarningThreshold))
	}
	return b.String()
}

// NewClient connects to the Redis server at url. It returns nil when url
// is empty.
func NewClient(ctx context.Context, url string) (*redis.Client, error) {
	if url == "" {
		return nil, nil
	}
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return client, nil
}

// RedisCache is a Redis-backed result cache.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// Option configures a RedisCache.
type Option func(*RedisCache)

// WithTTL sets how long a result is kept. Zero or negative keeps the default.
func WithTTL(ttl time.Duration) Option {
	return func(c *RedisCache) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(c *RedisCache) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewRedis wraps a connected client. The client's lifecycle stays with the
// caller.
func NewRedis(client *redis.Client, opts ...Option) *RedisCache {
	c := &RedisCache{
		client: client,
		ttl:    constants.DefaultCacheTTL,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// Get returns apperrors.ErrCacheMiss when nothing is stored under key.
func (c *RedisCache) Get(ctx context.Context, key string) (checker.CheckResult, error) {
	data, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return checker.CheckResult{}, apperrors.ErrCacheMiss
	}
	if err != nil {
		return checker.CheckResult{}, fmt.Errorf("%w: get %s: %v", apperrors.ErrCacheOperation, key, err)
	}
	result, err := codec.UnmarshalCheckResult(data)
	if err != nil {
		c.logger.Warn("dropping unreadable cache entry", zap.String("key", key), zap.Error(err))
		_ = c.client.Del(ctx, key).Err()
		return checker.CheckResult{}, apperrors.ErrCacheMiss
	}
	return result, nil
}

// Set stores a result for the configured TTL. Results that ended in a fetch
// error are not cached.
func (c *RedisCache) Set(ctx context.Context, key string, result checker.CheckResult) error {
	if result.Status == checker.StatusError {
		return nil
	}
	data, err := codec.MarshalCheckResult(result)
	if err != nil {
		return err
	}
	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("%w: set %s: %v", apperrors.ErrCacheOperation, key, err)
	}
	return nil
}

// Health pings the server.
func (c *RedisCache) Health(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}
