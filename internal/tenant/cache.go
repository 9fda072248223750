package tenant

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// CachedDirectory wraps a Directory with a short-TTL redis cache.
//
// The TTL bounds how long a deactivated tenant can keep routing; keep it in
// the low seconds. Cache failures fall through to the underlying directory.
//
// Not-found results are cached too (with the same TTL) so unknown tenant IDs
// cannot hammer the database.
type CachedDirectory struct {
	Inner Directory
	RDB   *redis.Client
	TTL   time.Duration
	Log   *slog.Logger
}

func NewCachedDirectory(inner Directory, rdb *redis.Client, ttl time.Duration, log *slog.Logger) *CachedDirectory {
	if log == nil {
		log = slog.Default()
	}
	return &CachedDirectory{Inner: inner, RDB: rdb, TTL: ttl, Log: log}
}

type cachedTenant struct {
	Tenant   Tenant `json:"tenant"`
	NotFound bool   `json:"not_found,omitempty"`
}

func cacheKey(tenantID string) string { return "tenant:dir:" + tenantID }

func (d *CachedDirectory) Get(ctx context.Context, tenantID string) (Tenant, error) {
	if d.Inner == nil {
		return Tenant{}, errors.New("tenant: directory not configured")
	}
	if d.RDB == nil || d.TTL <= 0 {
		return d.Inner.Get(ctx, tenantID)
	}

	key := cacheKey(tenantID)
	if raw, err := d.RDB.Get(ctx, key).Bytes(); err == nil {
		var c cachedTenant
		if jerr := json.Unmarshal(raw, &c); jerr == nil {
			if c.NotFound {
				return Tenant{}, ErrNotFound
			}
			return c.Tenant, nil
		}
	} else if !errors.Is(err, redis.Nil) {
		d.Log.Warn("tenant cache read failed", "tenant_id", tenantID, "err", err)
	}

	t, err := d.Inner.Get(ctx, tenantID)
	switch {
	case err == nil:
		d.store(ctx, key, cachedTenant{Tenant: t})
		return t, nil
	case errors.Is(err, ErrNotFound):
		d.store(ctx, key, cachedTenant{NotFound: true})
		return Tenant{}, ErrNotFound
	default:
		return Tenant{}, err
	}
}

func (d *CachedDirectory) store(ctx context.Context, key string, c cachedTenant) {
	raw, err := json.Marshal(c)
	if err != nil {
		return
	}
	if err := d.RDB.Set(ctx, key, raw, d.TTL).Err(); err != nil {
		d.Log.Warn("tenant cache write failed", "key", key, "err", err)
	}
}
