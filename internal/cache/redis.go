package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/oggyb/matchmaker/internal/config"
)

// incrIfPresent bumps a counter only while it is cached, so a cold key is
// never resurrected with a partial count.
var incrIfPresent = redis.NewScript(`
if redis.call("EXISTS", KEYS[1]) == 1 then
	local n = redis.call("INCR", KEYS[1])
	redis.call("PEXPIRE", KEYS[1], ARGV[1])
	return n
end
return -1
`)

type RedisCache struct {
	Client *redis.Client
	TTL    time.Duration
}

// NewRedisCache initializes Redis client from config.
// Only Addr is mandatory, Password/DB are optional.
func NewRedisCache(cfg *config.Config) *RedisCache {
	opts := &redis.Options{
		Addr: cfg.Redis.Addr,
	}
	if cfg.Redis.Password != "" {
		opts.Password = cfg.Redis.Password
	}
	if cfg.Redis.DB != 0 {
		opts.DB = cfg.Redis.DB
	}

	ttl := cfg.Cache.TTL
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &RedisCache{Client: redis.NewClient(opts), TTL: ttl}
}

func (c *RedisCache) Ping(ctx context.Context) error {
	return c.Client.Ping(ctx).Err()
}

func (c *RedisCache) Close() error {
	return c.Client.Close()
}

// KeyForLikesReceived generates Redis key for a profile's received-like count
func (c *RedisCache) KeyForLikesReceived(profileID uint64) string {
	return fmt.Sprintf("likes:received:%d", profileID)
}

// GetLikesReceived returns the cached count. ok is false on a cache miss.
func (c *RedisCache) GetLikesReceived(ctx context.Context, profileID uint64) (n int64, ok bool, err error) {
	key := c.KeyForLikesReceived(profileID)
	val, err := c.Client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	} else if err != nil {
		return 0, false, err
	}

	n, err = strconv.ParseInt(val, 10, 64)
	if err != nil {
		// corrupt entry, drop it and let the caller reload
		_ = c.Client.Del(ctx, key).Err()
		return 0, false, nil
	}

	// refresh TTL on access
	_ = c.Client.Expire(ctx, key, c.TTL).Err()
	return n, true, nil
}

func (c *RedisCache) SetLikesReceived(ctx context.Context, profileID uint64, count int64) error {
	return c.Client.Set(ctx, c.KeyForLikesReceived(profileID), count, c.TTL).Err()
}

// IncrLikesReceived adds one like to a cached counter. Missing keys stay missing.
func (c *RedisCache) IncrLikesReceived(ctx context.Context, profileID uint64) error {
	key := c.KeyForLikesReceived(profileID)
	return incrIfPresent.Run(ctx, c.Client, []string{key}, c.TTL.Milliseconds()).Err()
}

// KeyForRateLimit generates the fixed-window counter key for a client.
func (c *RedisCache) KeyForRateLimit(client string) string {
	return fmt.Sprintf("ratelimit:%s", client)
}

// Hit counts one request in the client's current window and returns the
// running count plus the time left until the window resets.
func (c *RedisCache) Hit(ctx context.Context, client string, window time.Duration) (int64, time.Duration, error) {
	key := c.KeyForRateLimit(client)

	count, err := c.Client.Incr(ctx, key).Result()
	if err != nil {
		return 0, 0, err
	}
	// first request opens the window
	if count == 1 {
		if err := c.Client.Expire(ctx, key, window).Err(); err != nil {
			return count, 0, err
		}
	}

	ttl, err := c.Client.TTL(ctx, key).Result()
	if err != nil || ttl < 0 {
		ttl = window
	}
	return count, ttl, nil
}
