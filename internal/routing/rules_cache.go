package routing

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// CachedRuleStore wraps a RuleStore with a short-TTL redis cache. Rules
// change rarely but are read on every route call; the TTL bounds how long an
// edited rule takes to reach the prompt. Cache failures fall through to the
// underlying store.
type CachedRuleStore struct {
	Inner RuleStore
	RDB   *redis.Client
	TTL   time.Duration
	Log   *slog.Logger
}

func NewCachedRuleStore(inner RuleStore, rdb *redis.Client, ttl time.Duration, log *slog.Logger) *CachedRuleStore {
	if log == nil {
		log = slog.Default()
	}
	return &CachedRuleStore{Inner: inner, RDB: rdb, TTL: ttl, Log: log}
}

func ruleCacheKey(tenantID string) string { return "routing:rules:" + tenantID }

func (s *CachedRuleStore) ListByTenant(ctx context.Context, tenantID string) ([]RouteRule, error) {
	if s.Inner == nil {
		return nil, errors.New("routing: rule store not configured")
	}
	if s.RDB == nil || s.TTL <= 0 {
		return s.Inner.ListByTenant(ctx, tenantID)
	}

	key := ruleCacheKey(tenantID)
	if raw, err := s.RDB.Get(ctx, key).Bytes(); err == nil {
		var rules []RouteRule
		if jerr := json.Unmarshal(raw, &rules); jerr == nil {
			return rules, nil
		}
	} else if !errors.Is(err, redis.Nil) {
		s.Log.Warn("rule cache read failed", "tenant_id", tenantID, "err", err)
	}

	rules, err := s.Inner.ListByTenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if raw, err := json.Marshal(rules); err == nil {
		if err := s.RDB.Set(ctx, key, raw, s.TTL).Err(); err != nil {
			s.Log.Warn("rule cache write failed", "tenant_id", tenantID, "err", err)
		}
	}
	return rules, nil
}
