package audit

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// PostgresRepo persists entries into the audit_entries table.
//
// The table should carry an INSERT-only policy; this repo intentionally has
// no update or delete paths.
type PostgresRepo struct {
	DB *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo { return &PostgresRepo{DB: db} }

func (r *PostgresRepo) Append(ctx context.Context, e Entry) error {
	if r.DB == nil {
		return errors.New("audit: db not configured")
	}
	const q = `
INSERT INTO audit_entries (id, tenant_id, action, payload, created_at)
VALUES ($1,$2,$3,$4,$5)
`
	_, err := r.DB.ExecContext(ctx, q,
		e.ID,
		e.TenantID,
		e.Action,
		e.Payload,
		e.CreatedAt,
	)
	return err
}

func (r *PostgresRepo) List(ctx context.Context, tenantID string, from, to time.Time) ([]Entry, error) {
	if r.DB == nil {
		return nil, errors.New("audit: db not configured")
	}
	const q = `
SELECT id, tenant_id, action, payload, created_at
FROM audit_entries
WHERE tenant_id = $1 AND created_at >= $2 AND created_at <= $3
ORDER BY created_at
`
	rows, err := r.DB.QueryContext(ctx, q, tenantID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.TenantID, &e.Action, &e.Payload, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
