package routing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"

	"helpdesk-platform/internal/audit"
	"helpdesk-platform/internal/completion"
	"helpdesk-platform/internal/tenant"
)

type stubCompletion struct {
	mu    sync.Mutex
	text  string
	err   error
	calls int
}

func (s *stubCompletion) Complete(ctx context.Context, req completion.Request) (completion.Response, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	if s.err != nil {
		return completion.Response{}, s.err
	}
	return completion.Response{Text: s.text}, nil
}

func (s *stubCompletion) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

type captureAudit struct {
	mu       sync.Mutex
	tenants  []string
	payloads []string
	err      error
}

func (a *captureAudit) LogRoute(ctx context.Context, tenantID string, payload string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.err != nil {
		return a.err
	}
	a.tenants = append(a.tenants, tenantID)
	a.payloads = append(a.payloads, payload)
	return nil
}

func (a *captureAudit) count() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.payloads)
}

func activeTenantDir() *tenant.MemoryRepo {
	dir := tenant.NewMemoryRepo()
	dir.Put(tenant.Tenant{ID: "t-1", Name: "Provedor Alfa", Active: true})
	dir.Put(tenant.Tenant{ID: "t-off", Name: "Provedor Beta", Active: false})
	return dir
}

func TestClassifier_RoutesTechnical(t *testing.T) {
	comp := &stubCompletion{text: `{"sector":"TECHNICAL","intention":"slow_connection","confidence":0.9,"parameters":{"symptom":"internet lenta"}}`}
	aud := &captureAudit{}
	c := NewClassifier(activeTenantDir(), NewMemoryRuleStore(), comp, aud, nil)

	d, err := c.Route(context.Background(), RouteInput{TenantID: "t-1", Channel: "widget", Message: "minha internet está lenta"})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if d.Sector != SectorTechnical {
		t.Fatalf("expected TECHNICAL, got %q", d.Sector)
	}
	if d.Confidence < 0.8 {
		t.Fatalf("expected high confidence, got %v", d.Confidence)
	}
	if aud.count() != 1 {
		t.Fatalf("expected exactly one audit entry, got %d", aud.count())
	}
}

func TestClassifier_InactiveTenantNeverCallsCompletion(t *testing.T) {
	comp := &stubCompletion{text: "{}"}
	c := NewClassifier(activeTenantDir(), NewMemoryRuleStore(), comp, &captureAudit{}, nil)

	_, err := c.Route(context.Background(), RouteInput{TenantID: "t-off", Channel: "widget", Message: "oi"})
	if !errors.Is(err, ErrTenantUnavailable) {
		t.Fatalf("expected ErrTenantUnavailable, got %v", err)
	}
	if comp.callCount() != 0 {
		t.Fatalf("completion must not be invoked for inactive tenants; got %d calls", comp.callCount())
	}
}

func TestClassifier_UnknownTenant(t *testing.T) {
	comp := &stubCompletion{text: "{}"}
	c := NewClassifier(activeTenantDir(), NewMemoryRuleStore(), comp, &captureAudit{}, nil)

	_, err := c.Route(context.Background(), RouteInput{TenantID: "t-missing", Channel: "widget", Message: "oi"})
	if !errors.Is(err, ErrTenantUnavailable) {
		t.Fatalf("expected ErrTenantUnavailable, got %v", err)
	}
	if comp.callCount() != 0 {
		t.Fatalf("completion must not be invoked for unknown tenants")
	}
}

func TestClassifier_EmptyMessageRejected(t *testing.T) {
	c := NewClassifier(activeTenantDir(), NewMemoryRuleStore(), &stubCompletion{}, &captureAudit{}, nil)
	if _, err := c.Route(context.Background(), RouteInput{TenantID: "t-1", Message: "   "}); !errors.Is(err, ErrEmptyMessage) {
		t.Fatalf("expected ErrEmptyMessage, got %v", err)
	}
}

func TestClassifier_ProseOnlyFallsBackToIntake(t *testing.T) {
	comp := &stubCompletion{text: "I am not sure which sector applies here, apologies."}
	aud := &captureAudit{}
	c := NewClassifier(activeTenantDir(), NewMemoryRuleStore(), comp, aud, nil)

	d, err := c.Route(context.Background(), RouteInput{TenantID: "t-1", Channel: "widget", Message: "???"})
	if err != nil {
		t.Fatalf("fallback must not be an error, got %v", err)
	}
	if d.Sector != SectorIntake {
		t.Fatalf("expected INTAKE fallback, got %q", d.Sector)
	}
	if d.Confidence >= 0.5 {
		t.Fatalf("expected low confidence, got %v", d.Confidence)
	}
	if d.Intention != IntentionClassificationFailed {
		t.Fatalf("expected failure marker intention, got %q", d.Intention)
	}
	if aud.count() != 1 {
		t.Fatalf("expected exactly one audit entry, got %d", aud.count())
	}

	var payload map[string]any
	if err := json.Unmarshal([]byte(aud.payloads[0]), &payload); err != nil {
		t.Fatalf("audit payload not JSON: %v", err)
	}
	if payload["outcome"] != FallbackReasonParse {
		t.Fatalf("expected parse failure marker in audit payload, got %v", payload["outcome"])
	}
}

func TestClassifier_UpstreamFailureDistinguishable(t *testing.T) {
	comp := &stubCompletion{err: fmt.Errorf("%w: status 503", completion.ErrUpstream)}
	aud := &captureAudit{}
	c := NewClassifier(activeTenantDir(), NewMemoryRuleStore(), comp, aud, nil)

	d, err := c.Route(context.Background(), RouteInput{TenantID: "t-1", Channel: "widget", Message: "oi"})
	if err != nil {
		t.Fatalf("upstream failure must not surface, got %v", err)
	}
	if d.Sector != SectorIntake || d.Confidence != 0 {
		t.Fatalf("expected INTAKE with zero confidence, got %+v", d)
	}

	var payload map[string]any
	if err := json.Unmarshal([]byte(aud.payloads[0]), &payload); err != nil {
		t.Fatalf("audit payload not JSON: %v", err)
	}
	if payload["outcome"] != FallbackReasonUpstream {
		t.Fatalf("expected upstream marker, got %v", payload["outcome"])
	}
}

func TestClassifier_AuditFailureDoesNotBreakRoute(t *testing.T) {
	comp := &stubCompletion{text: `{"sector":"SALES","intention":"plan_upgrade","confidence":0.8}`}
	aud := &captureAudit{err: errors.New("sink down")}
	c := NewClassifier(activeTenantDir(), NewMemoryRuleStore(), comp, aud, nil)

	d, err := c.Route(context.Background(), RouteInput{TenantID: "t-1", Channel: "widget", Message: "quero saber sobre planos mais caros"})
	if err != nil {
		t.Fatalf("audit failure must not propagate, got %v", err)
	}
	if d.Sector != SectorSales {
		t.Fatalf("expected SALES, got %q", d.Sector)
	}
}

func TestClassifier_StableAcrossRepeatedCalls(t *testing.T) {
	comp := &stubCompletion{text: `{"sector":"BILLING","intention":"second_invoice_copy","confidence":0.87}`}
	c := NewClassifier(activeTenantDir(), NewMemoryRuleStore(), comp, &captureAudit{}, nil)

	var first Decision
	for i := 0; i < 5; i++ {
		d, err := c.Route(context.Background(), RouteInput{TenantID: "t-1", Channel: "widget", Message: "preciso da segunda via do boleto"})
		if err != nil {
			t.Fatalf("unexpected err: %v", err)
		}
		if i == 0 {
			first = d
			continue
		}
		if d.Sector != first.Sector || d.Confidence != first.Confidence {
			t.Fatalf("classification drifted: %+v vs %+v", d, first)
		}
	}
}

func TestClassifier_RuleStoreFailureToleratedAsAdvisory(t *testing.T) {
	comp := &stubCompletion{text: `{"sector":"INTAKE","intention":"greeting","confidence":0.6}`}
	c := NewClassifier(activeTenantDir(), failingRuleStore{}, comp, &captureAudit{}, nil)

	d, err := c.Route(context.Background(), RouteInput{TenantID: "t-1", Channel: "widget", Message: "bom dia"})
	if err != nil {
		t.Fatalf("rule store failure must not break routing, got %v", err)
	}
	if d.Sector != SectorIntake {
		t.Fatalf("unexpected decision: %+v", d)
	}
}

type failingRuleStore struct{}

func (failingRuleStore) ListByTenant(ctx context.Context, tenantID string) ([]RouteRule, error) {
	return nil, errors.New("rules table unavailable")
}

type denyLimiter struct{}

func (denyLimiter) Acquire(ctx context.Context, tenantID string) (bool, error) { return false, nil }
func (denyLimiter) Release(ctx context.Context, tenantID string)               {}

func TestClassifier_CapReachedTakesUpstreamFallback(t *testing.T) {
	comp := &stubCompletion{text: `{"sector":"SALES","intention":"x","confidence":0.9}`}
	c := NewClassifier(activeTenantDir(), NewMemoryRuleStore(), comp, &captureAudit{}, nil)
	c.Limiter = denyLimiter{}

	d, err := c.Route(context.Background(), RouteInput{TenantID: "t-1", Channel: "widget", Message: "oi"})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if d.Sector != SectorIntake || d.Confidence != 0 {
		t.Fatalf("expected upstream-style fallback when capped, got %+v", d)
	}
	if comp.callCount() != 0 {
		t.Fatalf("completion must not run when capped")
	}
}

func TestAuditAdapter_WritesRouteEntry(t *testing.T) {
	repo := audit.NewMemoryRepo()
	svc := audit.NewService(repo, nil)

	a := AuditAdapter{Audit: svc}
	if err := a.LogRoute(context.Background(), "t-1", `{"outcome":"success"}`); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	svc.Start()
	svc.Stop()

	got := repo.Entries()
	if len(got) != 1 || got[0].Action != audit.ActionRoute {
		t.Fatalf("expected one route entry, got %+v", got)
	}
}
