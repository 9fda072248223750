package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"helpdesk-platform/internal/agent"
	"helpdesk-platform/internal/audit"
	"helpdesk-platform/internal/auth"
	"helpdesk-platform/internal/channel"
	"helpdesk-platform/internal/completion"
	"helpdesk-platform/internal/config"
	"helpdesk-platform/internal/dispatch"
	"helpdesk-platform/internal/httpapi"
	"helpdesk-platform/internal/reporting"
	"helpdesk-platform/internal/routing"
	"helpdesk-platform/internal/tenant"
	"helpdesk-platform/pkg/logger"
	"helpdesk-platform/pkg/utils"

	"github.com/gin-gonic/gin"
	_ "github.com/jackc/pgx/v5/stdlib"
)

func main() {
	// Root context that cancels on shutdown
	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", "err", err)
		os.Exit(1)
	}

	log := logger.New(cfg.App.Env)
	slog.SetDefault(log)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	authManager, err := auth.NewManager(cfg.Auth)
	if err != nil {
		log.Error("auth init failed", "err", err)
		os.Exit(1)
	}

	db, err := utils.OpenPostgres(rootCtx, "pgx", cfg.PostgresDSN(), utils.PostgresPoolConfig{})
	if err != nil {
		log.Error("postgres init failed", "err", err)
		os.Exit(1)
	}
	defer db.Close()

	rdb, err := utils.OpenRedis(rootCtx, utils.RedisConfig{Addr: cfg.RedisAddr()})
	if err != nil {
		log.Error("redis init failed", "err", err)
		os.Exit(1)
	}
	defer rdb.Close()

	completionClient, err := completion.NewHTTPClient(cfg.Completion, nil)
	if err != nil {
		log.Error("completion client init failed", "err", err)
		os.Exit(1)
	}

	// Persistence. The tenant directory is wrapped in a short-TTL redis cache
	// so a disabled tenant stops routing within the cache window.
	tenantRepo := tenant.NewPostgresRepo(db)
	tenantDir := tenant.NewCachedDirectory(tenantRepo, rdb, cfg.Routing.TenantCacheTTL, log)
	ruleStore := routing.NewCachedRuleStore(routing.NewPostgresRuleStore(db), rdb, cfg.Routing.ConfigCacheTTL, log)
	agentRepo := agent.NewPostgresRepo(db)
	auditRepo := audit.NewPostgresRepo(db)

	auditSvc := audit.NewService(auditRepo, log)
	auditSvc.Start()

	classifier := routing.NewClassifier(tenantDir, ruleStore, completionClient, routing.AuditAdapter{Audit: auditSvc}, log)
	if cfg.Routing.MaxConcurrentCompletions > 0 {
		classifier.Limiter = routing.NewRedisLimiter(rdb, cfg.Routing.MaxConcurrentCompletions, cfg.Completion.Timeout)
	}

	executor := dispatch.NewExecutor(agentRepo, dispatch.DefaultHandlers(), dispatch.AuditAdapter{Audit: auditSvc}, log)
	reports := reporting.NewService(auditRepo, log)

	handlers := httpapi.Handlers{
		Auth:       authManager,
		Tenants:    tenantDir,
		Classifier: classifier,
		Executor:   executor,
		Audit:      auditSvc,
		Reports:    reports,
		Routing:    cfg.Routing,
	}

	widget := channel.WebhookHandler{
		Classifier: classifier,
		Executor:   executor,
		TenantResolver: func(c *gin.Context, widgetKey string) (string, error) {
			return tenantRepo.ResolveWidgetKey(c.Request.Context(), widgetKey)
		},
	}

	// Gin router
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.Middleware(log))

	registerRoutes(r, handlers, widget, auth.RequireAccessToken(authManager))

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("api listening", "addr", srv.Addr, "env", cfg.App.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server failed", "err", err)
			stop()
		}
	}()

	<-rootCtx.Done()
	log.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown failed", "err", err)
	}

	// Flush queued audit entries once no more requests can enqueue.
	auditSvc.Stop()

	_ = logger.ShutdownFlush(shutdownCtx, 2*time.Second)
}
