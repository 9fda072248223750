package dispatch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"helpdesk-platform/internal/agent"
	"helpdesk-platform/internal/routing"
)

// internalConfig is the config JSON shape for internal agents.
type internalConfig struct {
	// Greeting prefixes every reply, when set.
	Greeting string `json:"greeting"`
	// Replies maps action names to response templates.
	Replies map[string]string `json:"replies"`
}

// InternalHandler answers with tenant-configured templates. It is the
// in-process agent used by tenants that have not connected an external bot.
type InternalHandler struct{}

func (InternalHandler) Handle(ctx context.Context, p agent.Profile, req Request) (string, error) {
	var cfg internalConfig
	if p.Config != "" {
		if err := json.Unmarshal([]byte(p.Config), &cfg); err != nil {
			return "", fmt.Errorf("dispatch: invalid internal agent config: %w", err)
		}
	}

	reply := cfg.Replies[req.Action]
	if reply == "" {
		reply = defaultReply(req.Sector)
	}

	if cfg.Greeting != "" {
		reply = cfg.Greeting + " " + reply
	}
	return strings.TrimSpace(reply), nil
}

func defaultReply(s routing.Sector) string {
	switch s {
	case routing.SectorTechnical:
		return "Recebemos seu chamado técnico e nossa equipe já está verificando sua conexão."
	case routing.SectorSales:
		return "Nossa equipe comercial recebeu seu interesse e vai te apresentar as melhores opções de plano."
	case routing.SectorBilling:
		return "Sua solicitação financeira foi registrada; em instantes enviaremos os detalhes da sua fatura."
	default:
		return "Recebemos sua mensagem e vamos te direcionar para o atendimento adequado."
	}
}

// externalConfig is the config JSON shape for external agents.
type externalConfig struct {
	WebhookURL string            `json:"webhook_url"`
	Headers    map[string]string `json:"headers"`
	TimeoutMS  int               `json:"timeout_ms"`
}

// ExternalHandler forwards execution to the tenant's own bot over HTTP.
// The call is bounded; any failure is converted upstream into the apology
// fallback by the executor.
type ExternalHandler struct {
	Client *http.Client
}

func NewExternalHandler() *ExternalHandler {
	return &ExternalHandler{Client: &http.Client{Timeout: 10 * time.Second}}
}

type externalWireRequest struct {
	TenantID string         `json:"tenant_id"`
	Sector   routing.Sector `json:"setor"`
	Action   string         `json:"acao"`
	Params   map[string]any `json:"parametros,omitempty"`
	Message  string         `json:"mensagem_original"`
}

type externalWireResponse struct {
	Resposta string `json:"resposta"`
}

func (h *ExternalHandler) Handle(ctx context.Context, p agent.Profile, req Request) (string, error) {
	var cfg externalConfig
	if p.Config == "" {
		return "", errors.New("dispatch: external agent has no config")
	}
	if err := json.Unmarshal([]byte(p.Config), &cfg); err != nil {
		return "", fmt.Errorf("dispatch: invalid external agent config: %w", err)
	}
	if cfg.WebhookURL == "" {
		return "", errors.New("dispatch: external agent config missing webhook_url")
	}

	body, err := json.Marshal(externalWireRequest{
		TenantID: req.TenantID,
		Sector:   req.Sector,
		Action:   req.Action,
		Params:   req.Parameters,
		Message:  req.OriginalMessage,
	})
	if err != nil {
		return "", err
	}

	if cfg.TimeoutMS > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(cfg.TimeoutMS)*time.Millisecond)
		defer cancel()
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, cfg.WebhookURL, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	for k, v := range cfg.Headers {
		httpReq.Header.Set(k, v)
	}

	client := h.Client
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	resp, err := client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("dispatch: external agent call failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return "", fmt.Errorf("dispatch: external agent status %d: %s", resp.StatusCode, snippet)
	}

	var wire externalWireResponse
	if err := json.NewDecoder(resp.Body).Decode(&wire); err != nil {
		return "", fmt.Errorf("dispatch: external agent reply decode: %w", err)
	}
	if wire.Resposta == "" {
		return "", errors.New("dispatch: external agent returned empty resposta")
	}
	return wire.Resposta, nil
}

// DefaultHandlers wires the standard kind-to-handler mapping.
func DefaultHandlers() map[agent.Kind]Handler {
	return map[agent.Kind]Handler{
		agent.KindInternal: InternalHandler{},
		agent.KindExternal: NewExternalHandler(),
	}
}
