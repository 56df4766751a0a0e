package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"shop-documents/internal/common/logger"
	"shop-documents/internal/models"
)

// OrderSource is anything that can look up an order record.
type OrderSource interface {
	FetchOrderRecord(ctx context.Context, clientID int64) (*models.OrderRecord, error)
}

// CachedOrderStore is a read-through Redis cache in front of an OrderSource.
// Cache errors never fail a lookup; misses and errors fall through to next.
type CachedOrderStore struct {
	next   OrderSource
	rdb    *redis.Client
	ttl    time.Duration
	prefix string
	logger logger.Logger
}

func NewCachedOrderStore(next OrderSource, rdb *redis.Client, ttl time.Duration, prefix string, log logger.Logger) *CachedOrderStore {
	return &CachedOrderStore{next: next, rdb: rdb, ttl: ttl, prefix: prefix, logger: log}
}

func (c *CachedOrderStore) key(clientID int64) string {
	return fmt.Sprintf("%s%d", c.prefix, clientID)
}

func (c *CachedOrderStore) FetchOrderRecord(ctx context.Context, clientID int64) (*models.OrderRecord, error) {
	key := c.key(clientID)

	cached, err := c.rdb.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var rec models.OrderRecord
		if err := json.Unmarshal(cached, &rec); err == nil {
			return &rec, nil
		}
		c.logger.Warn("Discarding corrupt cached order record", map[string]interface{}{"key": key})
	case errors.Is(err, redis.Nil):
	default:
		c.logger.Warn("Order cache read failed", map[string]interface{}{"key": key, "error": err.Error()})
	}

	rec, err := c.next.FetchOrderRecord(ctx, clientID)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(rec); err == nil {
		if err := c.rdb.Set(ctx, key, data, c.ttl).Err(); err != nil {
			c.logger.Warn("Order cache write failed", map[string]interface{}{"key": key, "error": err.Error()})
		}
	}
	return rec, nil
}

// Invalidate drops the cached record for clientID.
func (c *CachedOrderStore) Invalidate(ctx context.Context, clientID int64) error {
	return c.rdb.Del(ctx, c.key(clientID)).Err()
}
