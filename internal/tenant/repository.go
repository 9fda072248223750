package tenant

import (
	"context"
	"database/sql"
	"errors"
)

var ErrNotFound = errors.New("tenant: not found")

// Directory resolves a tenant identifier to its identity and active state.
// Read-only from the pipeline's perspective.
type Directory interface {
	Get(ctx context.Context, tenantID string) (Tenant, error)
}

// WidgetKeyResolver maps a chat widget's provisioning key to its tenant.
type WidgetKeyResolver interface {
	ResolveWidgetKey(ctx context.Context, key string) (string, error)
}

// PostgresRepo reads tenants from the tenants table.
type PostgresRepo struct {
	DB *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo { return &PostgresRepo{DB: db} }

func (r *PostgresRepo) Get(ctx context.Context, tenantID string) (Tenant, error) {
	if r.DB == nil {
		return Tenant{}, errors.New("tenant: db not configured")
	}
	if tenantID == "" {
		return Tenant{}, ErrNotFound
	}

	const q = `
SELECT id, name, active, created_at
FROM tenants
WHERE id = $1
`
	var t Tenant
	if err := r.DB.QueryRowContext(ctx, q, tenantID).Scan(
		&t.ID,
		&t.Name,
		&t.Active,
		&t.CreatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Tenant{}, ErrNotFound
		}
		return Tenant{}, err
	}
	return t, nil
}

func (r *PostgresRepo) ResolveWidgetKey(ctx context.Context, key string) (string, error) {
	if r.DB == nil {
		return "", errors.New("tenant: db not configured")
	}
	if key == "" {
		return "", ErrNotFound
	}

	const q = `
SELECT tenant_id
FROM widget_keys
WHERE key = $1 AND revoked_at IS NULL
`
	var tenantID string
	if err := r.DB.QueryRowContext(ctx, q, key).Scan(&tenantID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", err
	}
	return tenantID, nil
}
