package routing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"helpdesk-platform/internal/completion"
	"helpdesk-platform/internal/tenant"
)

// ErrTenantUnavailable is the only caller-visible error from Route: the
// tenant is missing or inactive. Raised before any external call so a
// disabled tenant is never billed for a completion.
var ErrTenantUnavailable = errors.New("routing: tenant unavailable")

// ErrEmptyMessage is returned for blank inbound messages.
var ErrEmptyMessage = errors.New("routing: message must be non-empty")

// AuditLogger records routing decisions. Implementations must be
// best-effort: the classifier ignores their errors.
type AuditLogger interface {
	LogRoute(ctx context.Context, tenantID string, payload string) error
}

// Limiter caps concurrent completion calls per tenant. Acquire returning
// false means the cap is reached; the classifier takes the upstream-failure
// fallback instead of queueing.
type Limiter interface {
	Acquire(ctx context.Context, tenantID string) (bool, error)
	Release(ctx context.Context, tenantID string)
}

// RouteInput is one inbound conversational turn.
type RouteInput struct {
	TenantID string
	Channel  string
	Message  string
	Context  map[string]any
}

// Classifier orchestrates one route call: validate tenant, build the prompt,
// invoke the completion service once, parse, apply the INTAKE fallback
// policy, write exactly one audit entry, return the decision.
//
// Stateless per request; safe for concurrent use.
type Classifier struct {
	Tenants    tenant.Directory
	Rules      RuleStore
	Completion completion.Client
	Audit      AuditLogger

	// Limiter is optional; nil disables the per-tenant cap.
	Limiter Limiter

	Log *slog.Logger
	Now func() time.Time
}

func NewClassifier(tenants tenant.Directory, rules RuleStore, client completion.Client, audit AuditLogger, log *slog.Logger) *Classifier {
	if log == nil {
		log = slog.Default()
	}
	return &Classifier{
		Tenants:    tenants,
		Rules:      rules,
		Completion: client,
		Audit:      audit,
		Log:        log,
		Now:        time.Now,
	}
}

// Fallback confidence levels. Parse failures keep a sliver of confidence
// (the message did reach the model); upstream failures keep none.
const (
	parseFallbackConfidence    = 0.3
	upstreamFallbackConfidence = 0
)

// Route classifies one message. Only ErrTenantUnavailable (and empty-message
// validation) surface as errors; every other failure mode returns a normal
// INTAKE-fallback decision.
func (c *Classifier) Route(ctx context.Context, in RouteInput) (Decision, error) {
	if strings.TrimSpace(in.Message) == "" {
		return Decision{}, ErrEmptyMessage
	}

	t, err := c.Tenants.Get(ctx, in.TenantID)
	if err != nil {
		if errors.Is(err, tenant.ErrNotFound) {
			return Decision{}, fmt.Errorf("%w: %s", ErrTenantUnavailable, in.TenantID)
		}
		return Decision{}, err
	}
	if !t.Active {
		return Decision{}, fmt.Errorf("%w: %s is inactive", ErrTenantUnavailable, in.TenantID)
	}

	var rules []RouteRule
	if c.Rules != nil {
		rules, err = c.Rules.ListByTenant(ctx, in.TenantID)
		if err != nil {
			// Rules are advisory; classify without them rather than failing.
			c.Log.Warn("route rules load failed", "tenant_id", in.TenantID, "err", err)
			rules = nil
		}
	}

	d, outcome, detail := c.classify(ctx, t, in, rules)

	c.writeAudit(ctx, in, d, outcome, detail)
	return d, nil
}

func (c *Classifier) classify(ctx context.Context, t tenant.Tenant, in RouteInput, rules []RouteRule) (d Decision, outcome, detail string) {
	if c.Limiter != nil {
		ok, err := c.Limiter.Acquire(ctx, in.TenantID)
		if err != nil {
			// Fail open: a broken limiter must not take classification down.
			c.Log.Warn("completion limiter unavailable", "tenant_id", in.TenantID, "err", err)
		} else if !ok {
			detail = "completion concurrency cap reached"
			return fallbackDecision(FallbackReasonUpstream, detail, upstreamFallbackConfidence), FallbackReasonUpstream, detail
		} else {
			defer c.Limiter.Release(ctx, in.TenantID)
		}
	}

	prompt := BuildClassificationPrompt(PromptInput{
		TenantName: t.Name,
		Channel:    in.Channel,
		Message:    in.Message,
		Context:    in.Context,
		Rules:      rules,
	})

	resp, err := c.Completion.Complete(ctx, completion.Request{Prompt: prompt})
	if err != nil {
		c.Log.Warn("completion call failed", "tenant_id", in.TenantID, "err", err)
		detail = err.Error()
		return fallbackDecision(FallbackReasonUpstream, detail, upstreamFallbackConfidence), FallbackReasonUpstream, detail
	}

	d, err = ExtractDecision(resp.Text)
	if err != nil {
		c.Log.Warn("completion output unparseable", "tenant_id", in.TenantID, "err", err)
		detail = err.Error()
		return fallbackDecision(FallbackReasonParse, detail, parseFallbackConfidence), FallbackReasonParse, detail
	}

	if params, dropped := SanitizeParameters(d.Sector, d.Parameters); len(dropped) > 0 {
		c.Log.Debug("dropped untyped decision parameters", "tenant_id", in.TenantID, "sector", d.Sector, "dropped", dropped)
		d.Parameters = params
	}

	return d, "success", ""
}

type routeAuditPayload struct {
	Channel    string         `json:"canal"`
	Message    string         `json:"mensagem"`
	Sector     Sector         `json:"setor_destino"`
	Intention  string         `json:"intencao"`
	Confidence float64        `json:"confianca"`
	Parameters map[string]any `json:"parametros,omitempty"`
	Outcome    string         `json:"outcome"`
	Detail     string         `json:"detail,omitempty"`
}

// writeAudit emits the single route entry for this invocation. Best-effort:
// failures are logged locally and never alter the response.
func (c *Classifier) writeAudit(ctx context.Context, in RouteInput, d Decision, outcome, detail string) {
	if c.Audit == nil {
		return
	}
	raw, err := json.Marshal(routeAuditPayload{
		Channel:    in.Channel,
		Message:    in.Message,
		Sector:     d.Sector,
		Intention:  d.Intention,
		Confidence: d.Confidence,
		Parameters: d.Parameters,
		Outcome:    outcome,
		Detail:     detail,
	})
	if err != nil {
		c.Log.Error("route audit payload marshal failed", "tenant_id", in.TenantID, "err", err)
		return
	}
	if err := c.Audit.LogRoute(ctx, in.TenantID, string(raw)); err != nil {
		c.Log.Error("route audit write failed", "tenant_id", in.TenantID, "err", err)
	}
}
