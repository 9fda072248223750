package reporting

import (
	"context"
	"testing"
	"time"

	"helpdesk-platform/internal/audit"
)

func seedRoute(t *testing.T, repo *audit.MemoryRepo, tenantID, payload string, at time.Time) {
	t.Helper()
	err := repo.Append(context.Background(), audit.Entry{
		ID:        "e-" + at.Format("150405.000000000"),
		TenantID:  tenantID,
		Action:    audit.ActionRoute,
		Payload:   payload,
		CreatedAt: at,
	})
	if err != nil {
		t.Fatalf("seed append: %v", err)
	}
}

func TestRoutingSummary_TenantIsolation(t *testing.T) {
	repo := audit.NewMemoryRepo()
	now := time.Unix(1700000000, 0).UTC()
	seedRoute(t, repo, "t-1", `{"setor_destino":"TECHNICAL","confianca":0.9,"outcome":"success"}`, now)
	seedRoute(t, repo, "t-2", `{"setor_destino":"SALES","confianca":0.8,"outcome":"success"}`, now)

	svc := NewService(repo, nil)
	out, err := svc.RoutingSummary(context.Background(), RoutingSummaryRequest{
		TenantID: "t-1",
		Range:    TimeRange{From: now.Add(-time.Hour), To: now.Add(time.Hour)},
	})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if out.TotalRoutes != 1 {
		t.Fatalf("expected 1 route, got %d", out.TotalRoutes)
	}
	if out.BySector["TECHNICAL"] != 1 || out.BySector["SALES"] != 0 {
		t.Fatalf("unexpected sector counts: %v", out.BySector)
	}
}

func TestRoutingSummary_FallbacksAndBuckets(t *testing.T) {
	repo := audit.NewMemoryRepo()
	now := time.Unix(1700000000, 0).UTC()
	seedRoute(t, repo, "t", `{"setor_destino":"TECHNICAL","confianca":0.95,"outcome":"success"}`, now)
	seedRoute(t, repo, "t", `{"setor_destino":"BILLING","confianca":0.75,"outcome":"success"}`, now.Add(time.Second))
	seedRoute(t, repo, "t", `{"setor_destino":"INTAKE","confianca":0.3,"outcome":"parse_failure"}`, now.Add(2*time.Second))
	seedRoute(t, repo, "t", `{"setor_destino":"INTAKE","confianca":0,"outcome":"upstream_failure"}`, now.Add(3*time.Second))

	svc := NewService(repo, nil)
	out, err := svc.RoutingSummary(context.Background(), RoutingSummaryRequest{
		TenantID: "t",
		Range:    TimeRange{From: now.Add(-time.Hour), To: now.Add(time.Hour)},
	})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if out.TotalRoutes != 4 {
		t.Fatalf("expected 4 routes, got %d", out.TotalRoutes)
	}
	if out.ParseFallbacks != 1 || out.UpstreamFallbacks != 1 {
		t.Fatalf("unexpected fallback counts: parse=%d upstream=%d", out.ParseFallbacks, out.UpstreamFallbacks)
	}
	if out.FallbackRate != 0.5 {
		t.Fatalf("expected fallback rate 0.5, got %v", out.FallbackRate)
	}
	if out.Confidence.Low != 2 || out.Confidence.High != 1 || out.Confidence.VeryHigh != 1 {
		t.Fatalf("unexpected buckets: %+v", out.Confidence)
	}
	want := (0.95 + 0.75 + 0.3 + 0) / 4
	if out.AverageConfidence != want {
		t.Fatalf("expected average confidence %v, got %v", want, out.AverageConfidence)
	}
}

func TestRoutingSummary_SkipsMalformedPayloads(t *testing.T) {
	repo := audit.NewMemoryRepo()
	now := time.Unix(1700000000, 0).UTC()
	seedRoute(t, repo, "t", `{"setor_destino":"SALES","confianca":0.6,"outcome":"success"}`, now)
	seedRoute(t, repo, "t", `not json at all`, now.Add(time.Second))

	svc := NewService(repo, nil)
	out, err := svc.RoutingSummary(context.Background(), RoutingSummaryRequest{
		TenantID: "t",
		Range:    TimeRange{From: now.Add(-time.Hour), To: now.Add(time.Hour)},
	})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if out.TotalRoutes != 1 {
		t.Fatalf("expected malformed entry skipped, got %d routes", out.TotalRoutes)
	}
	if out.Confidence.Medium != 1 {
		t.Fatalf("expected one medium-confidence route, got %+v", out.Confidence)
	}
}

func TestRoutingSummary_InvalidRequest(t *testing.T) {
	svc := NewService(audit.NewMemoryRepo(), nil)
	now := time.Unix(1700000000, 0).UTC()

	if _, err := svc.RoutingSummary(context.Background(), RoutingSummaryRequest{
		Range: TimeRange{From: now, To: now.Add(time.Hour)},
	}); err != ErrInvalidRequest {
		t.Fatalf("expected ErrInvalidRequest for missing tenant, got %v", err)
	}
	if _, err := svc.RoutingSummary(context.Background(), RoutingSummaryRequest{
		TenantID: "t",
		Range:    TimeRange{From: now.Add(time.Hour), To: now},
	}); err != ErrInvalidRequest {
		t.Fatalf("expected ErrInvalidRequest for inverted range, got %v", err)
	}
}

func TestExecutionSummary_Outcomes(t *testing.T) {
	repo := audit.NewMemoryRepo()
	now := time.Unix(1700000000, 0).UTC()
	seed := func(payload string, at time.Time) {
		t.Helper()
		err := repo.Append(context.Background(), audit.Entry{
			ID: "x-" + at.Format("150405"), TenantID: "t", Action: audit.ActionExecute, Payload: payload, CreatedAt: at,
		})
		if err != nil {
			t.Fatalf("seed append: %v", err)
		}
	}
	seed(`{"setor":"TECHNICAL","acao":"abrir_chamado","outcome":"success"}`, now)
	seed(`{"setor":"SALES","acao":"","outcome":"no_profile"}`, now.Add(time.Second))
	seed(`{"setor":"BILLING","acao":"","outcome":"handler_failure"}`, now.Add(2*time.Second))
	// Route entries in the same window must not count as executions.
	seedRoute(t, repo, "t", `{"setor_destino":"TECHNICAL","confianca":0.9,"outcome":"success"}`, now)

	svc := NewService(repo, nil)
	out, err := svc.ExecutionSummary(context.Background(), ExecutionSummaryRequest{
		TenantID: "t",
		Range:    TimeRange{From: now.Add(-time.Hour), To: now.Add(time.Hour)},
	})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if out.TotalExecutions != 3 {
		t.Fatalf("expected 3 executions, got %d", out.TotalExecutions)
	}
	if out.Delivered != 1 || out.Unconfigured != 1 || out.Errored != 1 {
		t.Fatalf("unexpected outcome split: %+v", out)
	}
	if out.BySector["TECHNICAL"] != 1 {
		t.Fatalf("unexpected sector counts: %v", out.BySector)
	}
}
