package dispatch

import (
	"context"

	"helpdesk-platform/internal/audit"
)

// AuditAdapter bridges the executor's audit hook to the shared audit.Service.
type AuditAdapter struct {
	Audit *audit.Service
}

func (a AuditAdapter) LogExecute(ctx context.Context, tenantID string, payload string) error {
	if a.Audit == nil {
		return nil
	}
	return a.Audit.Append(ctx, audit.Entry{
		TenantID: tenantID,
		Action:   audit.ActionExecute,
		Payload:  payload,
	})
}
