package transaction

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Cache stores rendered transaction histories per parent.
type Cache interface {
	Get(ctx context.Context, parentID uuid.UUID) ([]*Transaction, bool)
	Set(ctx context.Context, parentID uuid.UUID, txs []*Transaction)
	Invalidate(ctx context.Context, parentID uuid.UUID)
}

type redisCache struct {
	client redis.UniversalClient
	ttl    time.Duration
	logger *zap.Logger
}

// NewRedisCache creates a Redis-backed history cache. The TTL bounds
// staleness if an invalidation is ever lost.
func NewRedisCache(client redis.UniversalClient, ttl time.Duration, logger *zap.Logger) Cache {
	return &redisCache{client: client, ttl: ttl, logger: logger}
}

func historyKey(parentID uuid.UUID) string {
	return fmt.Sprintf("txhistory:%s", parentID)
}

func (c *redisCache) Get(ctx context.Context, parentID uuid.UUID) ([]*Transaction, bool) {
	data, err := c.client.Get(ctx, historyKey(parentID)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("history cache get failed", zap.Error(err))
		}
		return nil, false
	}
	var txs []*Transaction
	if err := json.Unmarshal(data, &txs); err != nil {
		c.logger.Warn("history cache decode failed", zap.Error(err))
		return nil, false
	}
	return txs, true
}

func (c *redisCache) Set(ctx context.Context, parentID uuid.UUID, txs []*Transaction) {
	data, err := json.Marshal(txs)
	if err != nil {
		c.logger.Warn("history cache encode failed", zap.Error(err))
		return
	}
	if err := c.client.Set(ctx, historyKey(parentID), data, c.ttl).Err(); err != nil {
		c.logger.Warn("history cache set failed", zap.Error(err))
	}
}

func (c *redisCache) Invalidate(ctx context.Context, parentID uuid.UUID) {
	if err := c.client.Del(ctx, historyKey(parentID)).Err(); err != nil {
		c.logger.Warn("history cache invalidate failed", zap.Error(err))
	}
}
