package audit

import "time"

// Entry is an immutable, append-only audit log record for the routing
// pipeline. Every route call produces exactly one entry, whichever path it
// took (success, parse fallback, upstream failure). Execute entries follow
// the same contract.
//
// Invariants:
// - Entries are never updated or deleted.
// - tenant_id is required for tenancy isolation.
// - Writes are best-effort; never block or fail the primary response on audit.
//
// Storage recommendation (Postgres):
// - Table audit_entries with an INSERT-only policy.
// - Optional: trigger to prevent UPDATE/DELETE.
// - Optional: partition by time for retention.
type Entry struct {
	ID       string `json:"id" db:"id"`
	TenantID string `json:"tenant_id" db:"tenant_id"`

	// Action indicates which pipeline phase produced the record.
	Action Action `json:"action" db:"action"`

	// Payload is the JSON projection of the decision or execution outcome.
	Payload string `json:"payload" db:"payload"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

type Action string

const (
	ActionRoute   Action = "route"
	ActionExecute Action = "execute"
)
