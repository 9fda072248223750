package routing

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"helpdesk-platform/pkg/utils"
)

// RedisLimiter caps in-flight completion calls per tenant using the shared
// Lua concurrency-cap scripts. The slot TTL covers the completion timeout
// with headroom so crashed processes cannot leak slots for long.
type RedisLimiter struct {
	RDB   *redis.Client
	Limit int
	TTL   time.Duration
}

func NewRedisLimiter(rdb *redis.Client, limit int, completionTimeout time.Duration) *RedisLimiter {
	ttl := 2 * completionTimeout
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &RedisLimiter{RDB: rdb, Limit: limit, TTL: ttl}
}

func limiterKey(tenantID string) string { return "routing:completion-cap:" + tenantID }

func (l *RedisLimiter) Acquire(ctx context.Context, tenantID string) (bool, error) {
	if l.Limit <= 0 {
		return true, nil
	}
	return utils.AcquireConcurrencyCap(ctx, l.RDB, limiterKey(tenantID), l.Limit, l.TTL)
}

func (l *RedisLimiter) Release(ctx context.Context, tenantID string) {
	if l.Limit <= 0 {
		return
	}
	_ = utils.ReleaseConcurrencyCap(ctx, l.RDB, limiterKey(tenantID))
}
