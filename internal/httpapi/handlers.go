package httpapi

import (
	"errors"
	"net/http"
	"time"

	"helpdesk-platform/internal/agent"
	"helpdesk-platform/internal/audit"
	"helpdesk-platform/internal/auth"
	"helpdesk-platform/internal/config"
	"helpdesk-platform/internal/dispatch"
	"helpdesk-platform/internal/rbac"
	"helpdesk-platform/internal/reporting"
	"helpdesk-platform/internal/routing"
	"helpdesk-platform/internal/tenant"

	"github.com/gin-gonic/gin"
)

// Handlers groups HTTP handlers for dependency injection.
// Keep these thin: parse/validate input, call internal services, return JSON.

type Handlers struct {
	Auth       *auth.Manager
	Tenants    tenant.Directory
	Classifier *routing.Classifier
	Executor   *dispatch.Executor
	Audit      *audit.Service
	Reports    *reporting.Service

	// Routing thresholds shape the faixa_confianca presentation field only;
	// they never gate a decision.
	Routing config.RoutingConfig
}

// --- Auth ---

type loginRequest struct {
	UserID   string `json:"user_id"`
	TenantID string `json:"tenant_id"`
	Role     string `json:"role"`
}

// Login issues a JWT token pair for the internal operator surface.
//
// NOTE: This is a skeleton-only endpoint. Real systems must validate credentials.
func (h Handlers) Login(c *gin.Context) {
	if h.Auth == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "auth not configured"})
		return
	}
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if req.UserID == "" || req.TenantID == "" || req.Role == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "user_id, tenant_id, role required"})
		return
	}
	pair, err := h.Auth.IssuePair(time.Now(), req.UserID, req.TenantID, req.Role)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "token issuance failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"access_token": pair.AccessToken, "refresh_token": pair.RefreshToken})
}

// --- Routing ---

type routeRequest struct {
	TenantID string         `json:"tenant_id"`
	Channel  string         `json:"canal"`
	Message  string         `json:"mensagem"`
	Context  map[string]any `json:"contexto,omitempty"`
}

type routeResponse struct {
	Sector         routing.Sector `json:"setor_destino"`
	Intention      string         `json:"intencao"`
	Confidence     float64        `json:"confianca"`
	ConfidenceBand string         `json:"faixa_confianca"`
	Payload        map[string]any `json:"payload"`
}

// Route classifies one inbound message into a destination sector.
//
// Status mapping:
// - 404 when the tenant is unknown or inactive (the only refusal).
// - 400 for malformed input.
// - 500 only for wiring faults; the body still carries the intake shape so
//   a confused client has something renderable.
func (h Handlers) Route(c *gin.Context) {
	if h.Classifier == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, degradedRouteBody())
		return
	}
	var req routeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if req.TenantID == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "tenant_id required"})
		return
	}

	d, err := h.Classifier.Route(c.Request.Context(), routing.RouteInput{
		TenantID: req.TenantID,
		Channel:  req.Channel,
		Message:  req.Message,
		Context:  req.Context,
	})
	if err != nil {
		switch {
		case errors.Is(err, routing.ErrTenantUnavailable):
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "tenant unavailable"})
		case errors.Is(err, routing.ErrEmptyMessage):
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "mensagem required"})
		default:
			c.AbortWithStatusJSON(http.StatusInternalServerError, degradedRouteBody())
		}
		return
	}

	payload := d.Parameters
	if payload == nil {
		payload = map[string]any{}
	}
	c.JSON(http.StatusOK, routeResponse{
		Sector:         d.Sector,
		Intention:      d.Intention,
		Confidence:     d.Confidence,
		ConfidenceBand: h.confidenceBand(d.Confidence),
		Payload:        payload,
	})
}

func (h Handlers) confidenceBand(confidence float64) string {
	low, high := h.Routing.LowConfidence, h.Routing.HighConfidence
	if low == 0 && high == 0 {
		low, high = 0.5, 0.8
	}
	switch {
	case confidence >= high:
		return "alta"
	case confidence >= low:
		return "media"
	default:
		return "baixa"
	}
}

func degradedRouteBody() routeResponse {
	return routeResponse{
		Sector:         routing.SectorIntake,
		Intention:      routing.IntentionClassificationFailed,
		Confidence:     0,
		ConfidenceBand: "baixa",
		Payload:        map[string]any{"fallback_reason": routing.FallbackReasonUpstream},
	}
}

// --- Dispatch ---

type executeRequest struct {
	TenantID   string         `json:"tenant_id"`
	Sector     string         `json:"setor"`
	Action     string         `json:"acao"`
	Parameters map[string]any `json:"parametros,omitempty"`
	AgentKind  string         `json:"tipo_agente,omitempty"`
	Message    string         `json:"mensagem_original,omitempty"`
}

// Execute hands a routed decision to the sector's agent.
//
// The response is always 200 with resposta text once the tenant and sector
// check out: unconfigured sectors and failed agents answer with fallback
// copy, never an error status. tipo_agente is validated when present but
// the stored agent profile stays authoritative for handler selection.
func (h Handlers) Execute(c *gin.Context) {
	if h.Executor == nil || h.Tenants == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "dispatch not configured"})
		return
	}
	var req executeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if req.TenantID == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "tenant_id required"})
		return
	}
	sector, ok := routing.ParseSector(req.Sector)
	if !ok {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "setor invalido"})
		return
	}
	if req.AgentKind != "" {
		if _, ok := agent.ParseKind(req.AgentKind); !ok {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "tipo_agente invalido"})
			return
		}
	}

	t, err := h.Tenants.Get(c.Request.Context(), req.TenantID)
	if err != nil || !t.Active {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "tenant unavailable"})
		return
	}

	out := h.Executor.Execute(c.Request.Context(), dispatch.Request{
		TenantID:        req.TenantID,
		Sector:          sector,
		Action:          req.Action,
		Parameters:      req.Parameters,
		OriginalMessage: req.Message,
	})
	c.JSON(http.StatusOK, gin.H{"resposta": out.Text})
}

// --- Internal operator surface ---

// ListAudit returns the audit trail for the caller's tenant in a window.
// RBAC: operator roles only; tenancy comes from the token, never the query.
func (h Handlers) ListAudit(c *gin.Context) {
	if h.Audit == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "audit not configured"})
		return
	}
	tenantID, err := auth.TenantID(c.Request.Context())
	if err != nil || tenantID == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "tenant_id required"})
		return
	}
	from, to, err := parseWindow(c)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	entries, err := h.Audit.List(c.Request.Context(), tenantID, from, to)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "audit lookup failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"entries": entries})
}

// RoutingSummary serves aggregated routing quality for the caller's tenant.
func (h Handlers) RoutingSummary(c *gin.Context) {
	if h.Reports == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "reporting not configured"})
		return
	}
	tenantID, err := auth.TenantID(c.Request.Context())
	if err != nil || tenantID == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "tenant_id required"})
		return
	}
	from, to, err := parseWindow(c)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	out, err := h.Reports.RoutingSummary(c.Request.Context(), reporting.RoutingSummaryRequest{
		TenantID: tenantID,
		Range:    reporting.TimeRange{From: from, To: to},
	})
	if err != nil {
		if errors.Is(err, reporting.ErrInvalidRequest) {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid range"})
			return
		}
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "summary failed"})
		return
	}
	c.JSON(http.StatusOK, out)
}

// ExecutionSummary serves aggregated dispatch outcomes for the caller's tenant.
func (h Handlers) ExecutionSummary(c *gin.Context) {
	if h.Reports == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "reporting not configured"})
		return
	}
	tenantID, err := auth.TenantID(c.Request.Context())
	if err != nil || tenantID == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "tenant_id required"})
		return
	}
	from, to, err := parseWindow(c)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	out, err := h.Reports.ExecutionSummary(c.Request.Context(), reporting.ExecutionSummaryRequest{
		TenantID: tenantID,
		Range:    reporting.TimeRange{From: from, To: to},
	})
	if err != nil {
		if errors.Is(err, reporting.ErrInvalidRequest) {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid range"})
			return
		}
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "summary failed"})
		return
	}
	c.JSON(http.StatusOK, out)
}

// parseWindow reads from/to query params (RFC 3339). Default: last 24h.
func parseWindow(c *gin.Context) (time.Time, time.Time, error) {
	now := time.Now().UTC()
	from, to := now.Add(-24*time.Hour), now

	if raw := c.Query("from"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return time.Time{}, time.Time{}, errors.New("from must be RFC 3339")
		}
		from = t
	}
	if raw := c.Query("to"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return time.Time{}, time.Time{}, errors.New("to must be RFC 3339")
		}
		to = t
	}
	if !to.After(from) {
		return time.Time{}, time.Time{}, errors.New("to must be after from")
	}
	return from, to, nil
}

// Convenience middleware bundles.

func RequireTenantAndAnyRole(roles ...string) []gin.HandlerFunc {
	return []gin.HandlerFunc{rbac.RequireTenant(), rbac.RequireAnyRole(roles...)}
}
