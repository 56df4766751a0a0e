package database

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"shop-documents/internal/common/config"
)

// RedisClient holds the connection used by the order record cache.
type RedisClient struct {
	Client *redis.Client
}

func NewRedis(cfg config.RedisConfig) *RedisClient {
	ioTimeout := millisOr(cfg.IOTimeout, 3*time.Second)
	poolSize := cfg.PoolSize
	if poolSize <= 0 {
		poolSize = 10
	}
	return &RedisClient{Client: redis.NewClient(&redis.Options{
		Addr:                  cfg.Address,
		Password:              cfg.Password,
		DB:                    cfg.DB,
		ClientName:            "shop-documents",
		DialTimeout:           millisOr(cfg.DialTimeout, 5*time.Second),
		ReadTimeout:           ioTimeout,
		WriteTimeout:          ioTimeout,
		ContextTimeoutEnabled: true,
		PoolSize:              poolSize,
		MinIdleConns:          cfg.MinIdleConns,
	})}
}

func (c *RedisClient) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := c.Client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis unreachable at %s: %w", c.Client.Options().Addr, err)
	}
	return nil
}

// Stats summarises the pool for the shutdown log line.
func (c *RedisClient) Stats() map[string]interface{} {
	s := c.Client.PoolStats()
	return map[string]interface{}{
		"hits":       s.Hits,
		"misses":     s.Misses,
		"timeouts":   s.Timeouts,
		"totalConns": s.TotalConns,
		"idleConns":  s.IdleConns,
	}
}

func (c *RedisClient) Close() error {
	if c == nil || c.Client == nil {
		return nil
	}
	return c.Client.Close()
}

func millisOr(ms int, fallback time.Duration) time.Duration {
	if ms <= 0 {
		return fallback
	}
	return config.GetDuration(ms)
}
