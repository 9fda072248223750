package main

import (
	"helpdesk-platform/internal/auth"
	"helpdesk-platform/internal/channel"
	"helpdesk-platform/internal/httpapi"
	"helpdesk-platform/internal/rbac"

	"github.com/gin-gonic/gin"
)

// registerRoutes wires HTTP routes to handlers.
// Keep this file free of business logic. Handlers should delegate to internal modules.
func registerRoutes(r *gin.Engine, h httpapi.Handlers, widget channel.WebhookHandler, authMW gin.HandlerFunc) {
	// public
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// Chat-widget webhook (public).
	// NOTE: This endpoint should be protected by widget-key signature validation in production.
	r.POST("/webhooks/widget", widget.HandleInboundMessage)

	// Pipeline endpoints. Authenticated at the edge gateway, not here.
	v1 := r.Group("/v1")
	{
		v1.POST("/rotear", h.Route)
		v1.POST("/executar", h.Execute)

		// Token issuance for the internal operator surface.
		// NOTE: This is a placeholder login route; real credential validation is not implemented.
		v1.POST("/auth/login", h.Login)
	}

	// Internal operator surface: audit trail and routing quality.
	// Only operator roles can read these; platform_operator is hidden and must
	// be allowed explicitly where needed.
	admin := v1.Group("/admin")
	admin.Use(authMW)
	admin.Use(rbac.RequireTenant())
	admin.Use(rbac.RequireAnyRole(rbac.RoleOwner, rbac.RoleAnalyst, rbac.RoleSuperAdmin))
	{
		admin.GET("/ping", func(c *gin.Context) {
			c.JSON(200, gin.H{"status": "ok"})
		})

		admin.GET("/me", func(c *gin.Context) {
			uid, _ := auth.UserID(c.Request.Context())
			tid, _ := auth.TenantID(c.Request.Context())
			role, _ := auth.Role(c.Request.Context())
			c.JSON(200, gin.H{"user_id": uid, "tenant_id": tid, "role": role})
		})

		admin.GET("/audit", h.ListAudit)
		admin.GET("/reports/routing", h.RoutingSummary)
		admin.GET("/reports/executions", h.ExecutionSummary)
	}
}
