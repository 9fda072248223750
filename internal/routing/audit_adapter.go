package routing

import (
	"context"

	"helpdesk-platform/internal/audit"
)

// AuditAdapter bridges the classifier's audit hook to the shared
// audit.Service. Keeps routing internals free of persistence concerns.
type AuditAdapter struct {
	Audit *audit.Service
}

func (a AuditAdapter) LogRoute(ctx context.Context, tenantID string, payload string) error {
	if a.Audit == nil {
		return nil
	}
	return a.Audit.Append(ctx, audit.Entry{
		TenantID: tenantID,
		Action:   audit.ActionRoute,
		Payload:  payload,
	})
}
