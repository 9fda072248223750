package reporting

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"helpdesk-platform/internal/audit"
	"helpdesk-platform/internal/routing"
)

var ErrInvalidRequest = errors.New("reporting: invalid request")

// Service aggregates routing and dispatch metrics from the append-only audit
// log. It never queries mutable state: everything here can be recomputed from
// audit_entries alone.
type Service struct {
	repo audit.Repository
	log  *slog.Logger
}

func NewService(repo audit.Repository, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{repo: repo, log: log}
}

// routePayload mirrors the route audit projection. Unknown fields are
// ignored; malformed payloads are skipped and logged, never fatal.
type routePayload struct {
	Sector     routing.Sector `json:"setor_destino"`
	Confidence float64        `json:"confianca"`
	Outcome    string         `json:"outcome"`
}

type executePayload struct {
	Sector  routing.Sector `json:"setor"`
	Outcome string         `json:"outcome"`
}

func (s *Service) RoutingSummary(ctx context.Context, req RoutingSummaryRequest) (RoutingSummary, error) {
	if err := s.validate(req.TenantID, req.Range); err != nil {
		return RoutingSummary{}, err
	}

	rows, err := s.repo.List(ctx, req.TenantID, req.Range.From, req.Range.To)
	if err != nil {
		return RoutingSummary{}, err
	}

	out := RoutingSummary{TenantID: req.TenantID, BySector: map[string]int{}}
	var confidenceSum float64
	for _, e := range rows {
		if e.Action != audit.ActionRoute {
			continue
		}
		var p routePayload
		if err := json.Unmarshal([]byte(e.Payload), &p); err != nil {
			s.log.Warn("skipping malformed route audit payload", "tenant_id", req.TenantID, "entry_id", e.ID, "err", err)
			continue
		}

		out.TotalRoutes++
		out.BySector[string(p.Sector)]++
		confidenceSum += p.Confidence

		switch p.Outcome {
		case routing.FallbackReasonParse:
			out.ParseFallbacks++
		case routing.FallbackReasonUpstream:
			out.UpstreamFallbacks++
		}

		switch {
		case p.Confidence < 0.5:
			out.Confidence.Low++
		case p.Confidence < 0.7:
			out.Confidence.Medium++
		case p.Confidence < 0.9:
			out.Confidence.High++
		default:
			out.Confidence.VeryHigh++
		}
	}

	if out.TotalRoutes > 0 {
		out.AverageConfidence = confidenceSum / float64(out.TotalRoutes)
		out.FallbackRate = float64(out.ParseFallbacks+out.UpstreamFallbacks) / float64(out.TotalRoutes)
	}
	return out, nil
}

func (s *Service) ExecutionSummary(ctx context.Context, req ExecutionSummaryRequest) (ExecutionSummary, error) {
	if err := s.validate(req.TenantID, req.Range); err != nil {
		return ExecutionSummary{}, err
	}

	rows, err := s.repo.List(ctx, req.TenantID, req.Range.From, req.Range.To)
	if err != nil {
		return ExecutionSummary{}, err
	}

	out := ExecutionSummary{TenantID: req.TenantID, BySector: map[string]int{}}
	for _, e := range rows {
		if e.Action != audit.ActionExecute {
			continue
		}
		var p executePayload
		if err := json.Unmarshal([]byte(e.Payload), &p); err != nil {
			s.log.Warn("skipping malformed execute audit payload", "tenant_id", req.TenantID, "entry_id", e.ID, "err", err)
			continue
		}

		out.TotalExecutions++
		out.BySector[string(p.Sector)]++
		switch p.Outcome {
		case "success":
			out.Delivered++
		case "no_profile":
			out.Unconfigured++
		default:
			out.Errored++
		}
	}
	return out, nil
}

func (s *Service) validate(tenantID string, r TimeRange) error {
	if tenantID == "" {
		return ErrInvalidRequest
	}
	if r.From.IsZero() || r.To.IsZero() || !r.To.After(r.From) {
		return ErrInvalidRequest
	}
	if s.repo == nil {
		return errors.New("reporting: repository not configured")
	}
	return nil
}
