package registry

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisCache caches registry responses in Redis. Company identity data is
// public but rate-limited upstream; a short TTL keeps lookups cheap without
// serving long-stale records.
type RedisCache struct {
	rdb *redis.Client
	ttl time.Duration
	log *zap.Logger
}

func NewRedisCache(rdb *redis.Client, ttl time.Duration, log *zap.Logger) *RedisCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &RedisCache{rdb: rdb, ttl: ttl, log: log}
}

func cacheKey(siret string) string { return "registry:siret:" + siret }

// Get returns the cached company, if any. Cache failures degrade to a miss;
// the registry lookup must never fail because Redis did.
func (c *RedisCache) Get(ctx context.Context, siret string) (*Company, bool) {
	raw, err := c.rdb.Get(ctx, cacheKey(siret)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.log.Debug("registry cache read failed", zap.Error(err))
		}
		return nil, false
	}
	var company Company
	if err := json.Unmarshal(raw, &company); err != nil {
		c.log.Debug("registry cache entry corrupt, dropping", zap.String("siret", siret))
		c.rdb.Del(ctx, cacheKey(siret))
		return nil, false
	}
	return &company, true
}

func (c *RedisCache) Set(ctx context.Context, siret string, company *Company) {
	raw, err := json.Marshal(company)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, cacheKey(siret), raw, c.ttl).Err(); err != nil {
		c.log.Debug("registry cache write failed", zap.Error(err))
	}
}
