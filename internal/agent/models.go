package agent

import (
	"time"

	"helpdesk-platform/internal/routing"
)

// Kind distinguishes agents executed in-process from agents reached over an
// outbound webhook call.
type Kind string

const (
	KindInternal Kind = "internal"
	KindExternal Kind = "external"
)

// ParseKind maps the wire values (tipo_agente) onto Kind.
func ParseKind(v string) (Kind, bool) {
	switch v {
	case "interno", string(KindInternal):
		return KindInternal, true
	case "externo", string(KindExternal):
		return KindExternal, true
	default:
		return "", false
	}
}

// Profile is a tenant- and sector-scoped agent definition. The store does
// not enforce uniqueness per (tenant, sector); the registry resolves
// duplicates deterministically by lowest id.
type Profile struct {
	ID       string         `json:"id" db:"id"`
	TenantID string         `json:"tenant_id" db:"tenant_id"`
	Sector   routing.Sector `json:"sector" db:"sector"`
	Kind     Kind           `json:"kind" db:"kind"`
	Active   bool           `json:"active" db:"active"`

	// Config is agent-specific JSON: greeting templates for internal agents,
	// webhook URL and headers for external ones.
	Config string `json:"config" db:"config"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
