package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"helpdesk-platform/internal/agent"
	"helpdesk-platform/internal/routing"
)

// Fallback texts shown to end users. Execution never surfaces raw errors to
// a live chat; it degrades to one of these.
const (
	FallbackUnconfigured = "Este atendimento ainda não está disponível por aqui. Um de nossos atendentes vai te ajudar em instantes."
	FallbackApology      = "Desculpe, não consegui concluir sua solicitação agora. Pode tentar novamente em alguns instantes?"
)

// Request is one dispatch call, normally fed from a route decision.
type Request struct {
	TenantID        string
	Sector          routing.Sector
	Action          string
	Parameters      map[string]any
	OriginalMessage string
}

// Response is what the chat surface renders. Always populated.
type Response struct {
	Text string
}

// Handler executes an action for a resolved agent profile.
type Handler interface {
	Handle(ctx context.Context, p agent.Profile, req Request) (string, error)
}

// AuditLogger mirrors the route audit contract for execute entries:
// best-effort, never blocking.
type AuditLogger interface {
	LogExecute(ctx context.Context, tenantID string, payload string) error
}

// Executor looks up the tenant's agent profile for the target sector and
// runs the matching handler. It never returns an error to the caller: a
// missing profile and a failing handler are both normal operational states
// answered with fallback text.
type Executor struct {
	Registry agent.Registry

	// Handlers resolve by profile kind (internal vs external).
	Handlers map[agent.Kind]Handler

	Audit AuditLogger
	Log   *slog.Logger
}

func NewExecutor(registry agent.Registry, handlers map[agent.Kind]Handler, aud AuditLogger, log *slog.Logger) *Executor {
	if log == nil {
		log = slog.Default()
	}
	return &Executor{Registry: registry, Handlers: handlers, Audit: aud, Log: log}
}

func (e *Executor) Execute(ctx context.Context, req Request) Response {
	text, outcome := e.run(ctx, req)
	e.writeAudit(ctx, req, text, outcome)
	return Response{Text: text}
}

func (e *Executor) run(ctx context.Context, req Request) (text, outcome string) {
	if e.Registry == nil {
		e.Log.Error("agent registry not configured")
		return FallbackApology, "handler_failure"
	}

	p, err := e.Registry.FindActive(ctx, req.TenantID, req.Sector)
	if err != nil {
		if errors.Is(err, agent.ErrNotFound) {
			// Sectors may be intentionally unconfigured.
			e.Log.Info("no active agent profile", "tenant_id", req.TenantID, "sector", req.Sector)
			return FallbackUnconfigured, "no_profile"
		}
		e.Log.Error("agent profile lookup failed", "tenant_id", req.TenantID, "sector", req.Sector, "err", err)
		return FallbackApology, "handler_failure"
	}

	h, ok := e.Handlers[p.Kind]
	if !ok {
		e.Log.Error("no handler for agent kind", "tenant_id", req.TenantID, "kind", p.Kind)
		return FallbackApology, "handler_failure"
	}

	out, err := h.Handle(ctx, p, req)
	if err != nil {
		e.Log.Error("agent handler failed", "tenant_id", req.TenantID, "sector", req.Sector, "kind", p.Kind, "err", err)
		return FallbackApology, "handler_failure"
	}
	if out == "" {
		out = FallbackApology
	}
	return out, "success"
}

type executeAuditPayload struct {
	Sector  routing.Sector `json:"setor"`
	Action  string         `json:"acao"`
	Outcome string         `json:"outcome"`
	Text    string         `json:"resposta"`
}

func (e *Executor) writeAudit(ctx context.Context, req Request, text, outcome string) {
	if e.Audit == nil {
		return
	}
	raw, err := json.Marshal(executeAuditPayload{
		Sector:  req.Sector,
		Action:  req.Action,
		Outcome: outcome,
		Text:    text,
	})
	if err != nil {
		return
	}
	if err := e.Audit.LogExecute(ctx, req.TenantID, string(raw)); err != nil {
		e.Log.Error("execute audit write failed", "tenant_id", req.TenantID, "err", err)
	}
}
