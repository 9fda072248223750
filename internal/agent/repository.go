package agent

import (
	"context"
	"database/sql"
	"errors"

	"helpdesk-platform/internal/routing"
)

var ErrNotFound = errors.New("agent: no active profile")

// Registry resolves the active agent profile for a tenant/sector pair.
// Read-only from the pipeline's perspective; profile CRUD lives elsewhere.
type Registry interface {
	FindActive(ctx context.Context, tenantID string, sector routing.Sector) (Profile, error)
}

// PostgresRepo reads agent_profiles.
type PostgresRepo struct {
	DB *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo { return &PostgresRepo{DB: db} }

func (r *PostgresRepo) FindActive(ctx context.Context, tenantID string, sector routing.Sector) (Profile, error) {
	if r.DB == nil {
		return Profile{}, errors.New("agent: db not configured")
	}
	if tenantID == "" {
		return Profile{}, errors.New("agent: tenant_id required")
	}

	// Duplicates are possible; ORDER BY id keeps selection deterministic.
	const q = `
SELECT id, tenant_id, sector, kind, active, config, created_at
FROM agent_profiles
WHERE tenant_id = $1 AND sector = $2 AND active = TRUE
ORDER BY id
LIMIT 1
`
	var p Profile
	if err := r.DB.QueryRowContext(ctx, q, tenantID, sector).Scan(
		&p.ID,
		&p.TenantID,
		&p.Sector,
		&p.Kind,
		&p.Active,
		&p.Config,
		&p.CreatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Profile{}, ErrNotFound
		}
		return Profile{}, err
	}
	return p, nil
}
