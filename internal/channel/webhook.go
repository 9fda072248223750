package channel

import (
	"errors"
	"net/http"
	"strings"

	"helpdesk-platform/internal/dispatch"
	"helpdesk-platform/internal/routing"
	"helpdesk-platform/pkg/logger"

	"github.com/gin-gonic/gin"
)

// InboundMessage captures the subset of chat-widget webhook fields we care
// about. Widgets post JSON, one conversational turn per request; turn
// ordering within a session is the widget's responsibility.
//
// Keep it minimal and channel-adapter-only.
// Business logic (routing decisions) is not made here.

type InboundMessage struct {
	WidgetKey string         `json:"widget_key"`
	SessionID string         `json:"session_id"`
	Channel   string         `json:"canal"`
	Message   string         `json:"mensagem"`
	Context   map[string]any `json:"contexto,omitempty"`
}

// WidgetReply is what the widget renders for the visitor.
type WidgetReply struct {
	Reply  string         `json:"resposta"`
	Sector routing.Sector `json:"setor"`
}

// WebhookHandler converts the widget webhook to internal types and drives
// the full pipeline for one turn: classify the message, then hand the
// decision to the destination sector's agent.
//
// Tenant scoping:
// - tenant_id is resolved from the widget key by an injected resolver to
//   avoid persistence assumptions in this adapter.

type WebhookHandler struct {
	Classifier *routing.Classifier
	Executor   *dispatch.Executor

	// TenantResolver maps the widget's provisioning key to its tenant.
	TenantResolver func(c *gin.Context, widgetKey string) (string, error)
}

func (h WebhookHandler) HandleInboundMessage(c *gin.Context) {
	log := logger.FromGin(c)

	if h.Classifier == nil || h.Executor == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "pipeline not configured"})
		return
	}
	if h.TenantResolver == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "tenant resolver not configured"})
		return
	}

	var msg InboundMessage
	if err := c.ShouldBindJSON(&msg); err != nil {
		log.Warn("widget webhook parse failed", "err", err)
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if strings.TrimSpace(msg.Message) == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "mensagem required"})
		return
	}

	tenantID, err := h.TenantResolver(c, msg.WidgetKey)
	if err != nil || tenantID == "" {
		log.Warn("tenant resolution failed", "widget_key", msg.WidgetKey, "err", err)
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "unknown widget"})
		return
	}
	log = logger.WithTenant(log, tenantID)

	ctxPayload := msg.Context
	if msg.SessionID != "" {
		if ctxPayload == nil {
			ctxPayload = map[string]any{}
		}
		ctxPayload["session_id"] = msg.SessionID
	}

	d, err := h.Classifier.Route(c.Request.Context(), routing.RouteInput{
		TenantID: tenantID,
		Channel:  channelOrDefault(msg.Channel),
		Message:  msg.Message,
		Context:  ctxPayload,
	})
	if err != nil {
		if errors.Is(err, routing.ErrTenantUnavailable) {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "tenant unavailable"})
			return
		}
		log.Error("widget route failed", "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "routing failed"})
		return
	}

	// The fallback decision flows through dispatch like any other: an
	// unconfigured INTAKE sector still yields renderable fallback copy.
	out := h.Executor.Execute(c.Request.Context(), dispatch.Request{
		TenantID:        tenantID,
		Sector:          d.Sector,
		Action:          d.Intention,
		Parameters:      d.Parameters,
		OriginalMessage: msg.Message,
	})

	c.JSON(http.StatusOK, WidgetReply{Reply: out.Text, Sector: d.Sector})
}

func channelOrDefault(v string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return "chat_web"
	}
	return v
}
