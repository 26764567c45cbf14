package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/erp/posbridge/internal/bootstrap"
	"github.com/erp/posbridge/internal/infrastructure/config"
	"github.com/erp/posbridge/internal/infrastructure/logger"
	"github.com/erp/posbridge/internal/infrastructure/scheduler"
	"github.com/erp/posbridge/internal/infrastructure/telemetry"
	"github.com/erp/posbridge/internal/interfaces/http/handler"
	"github.com/erp/posbridge/internal/interfaces/http/middleware"
	"github.com/erp/posbridge/internal/interfaces/http/router"
)

//	@title			POS Bridge API
//	@version		1.0
//	@description	Keeps the POS catalog in step with the CRM and turns POS sales into CRM orders.

//	@contact.name	API Support
//	@contact.url	https://github.com/erp/posbridge

//	@license.name	Apache 2.0
//	@license.url	http://www.apache.org/licenses/LICENSE-2.0.html

//	@host		localhost:8080
//	@BasePath	/api/v1

const (
	signInTimeout   = 30 * time.Second
	shutdownTimeout = 30 * time.Second
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := bootstrap.NewLogger(cfg)
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting POS bridge",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("version", telemetry.ServiceVersion),
		zap.String("executor", cfg.Webhook.Executor),
	)

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	// Telemetry
	telemetryCfg := telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		Insecure:          cfg.Telemetry.Insecure,
		ServiceName:       cfg.Telemetry.ServiceName,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ExportInterval:    cfg.Telemetry.ExportInterval,
	}
	tracerProvider, err := telemetry.NewTracerProvider(ctx, telemetryCfg, log)
	if err != nil {
		log.Fatal("Failed to initialize tracer provider", zap.Error(err))
	}
	meterProvider, err := telemetry.NewMeterProvider(ctx, telemetryCfg, log)
	if err != nil {
		log.Fatal("Failed to initialize meter provider", zap.Error(err))
	}
	bridgeMetrics, err := telemetry.NewBridgeMetrics(meterProvider.Meter("posbridge"))
	if err != nil {
		log.Fatal("Failed to create bridge metrics", zap.Error(err))
	}

	// External systems
	crmClient, err := bootstrap.NewCRMClient(cfg, log)
	if err != nil {
		log.Fatal("Failed to create CRM client", zap.Error(err))
	}
	posClient, err := bootstrap.NewPOSClient(cfg, log)
	if err != nil {
		log.Fatal("Failed to create POS client", zap.Error(err))
	}
	if err := bootstrap.SignIn(ctx, posClient, signInTimeout); err != nil {
		log.Fatal("Failed to sign in to POS", zap.Error(err))
	}
	log.Info("Signed in to POS", zap.String("cashier_id", posClient.CashierID()))

	// Catalog reconciliation
	reconciler := bootstrap.NewReconciler(cfg, crmClient, posClient, bridgeMetrics, log)
	syncScheduler := scheduler.NewCatalogSyncScheduler(scheduler.CatalogSyncConfig{
		Interval:   cfg.Catalog.SyncInterval,
		RunTimeout: cfg.Catalog.SyncRunTimeout,
	}, reconciler, log.Named("scheduler"))

	// Sale ingestion
	ingestion, err := bootstrap.NewIngestion(cfg, crmClient, posClient, bridgeMetrics, log)
	if err != nil {
		log.Fatal("Failed to wire sale ingestion", zap.Error(err))
	}
	if err := ingestion.Executor.Start(ctx); err != nil {
		log.Fatal("Failed to start task executor", zap.Error(err))
	}
	if err := syncScheduler.Start(ctx); err != nil {
		log.Fatal("Failed to start catalog sync scheduler", zap.Error(err))
	}

	// Set Gin mode based on environment
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
		log.Fatal("Failed to set trusted proxies", zap.Error(err))
	}

	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.Secure())
	engine.Use(middleware.Tracing(cfg.Telemetry.ServiceName, tracerProvider.IsEnabled()))
	engine.Use(middleware.SpanStatus())
	engine.Use(middleware.HTTPMetrics(meterProvider))

	// The receiver is the only unauthenticated write endpoint
	webhookGuards := []gin.HandlerFunc{middleware.BodyLimit(cfg.HTTP.MaxBodySize)}
	var limiter *middleware.RateLimiter
	if cfg.HTTP.RateLimitEnabled {
		limiter = middleware.NewRateLimiter(cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow)
		webhookGuards = append([]gin.HandlerFunc{middleware.RateLimit(limiter)}, webhookGuards...)
	}

	r := router.Mount(engine, router.Handlers{
		System: handler.NewSystemHandler(cfg.App.Name, telemetry.ServiceVersion, handler.HealthProbes{
			POSSignedIn:     func() bool { return posClient.CashierID() != "" },
			ExecutorRunning: ingestion.Executor.Running,
			SchedulerActive: syncScheduler.IsRunning,
		}),
		CatalogSync: handler.NewCatalogSyncHandler(
			reconciler, cfg.Catalog.SyncSecret, cfg.Catalog.SyncRunTimeout, log.Named("catalogsync"),
		),
		POSWebhook: handler.NewPOSWebhookHandler(
			ingestion.Pipeline, ingestion.Recent, cfg.Catalog.SyncSecret, log.Named("webhook"),
		),
	}, webhookGuards...)
	log.Info("Routes registered", zap.Strings("routes", r.Routes()))

	// Create HTTP server with config
	srv := &http.Server{
		Addr:         ":" + cfg.App.Port,
		Handler:      engine,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	// Start server in goroutine
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	if limiter != nil {
		limiter.Close()
	}
	syncScheduler.Stop()
	if err := ingestion.Executor.Stop(shutdownCtx); err != nil {
		log.Error("Task executor did not drain", zap.Error(err))
	}
	if err := ingestion.Close(); err != nil {
		log.Warn("Failed to close idempotency store", zap.Error(err))
	}
	stop()
	if err := meterProvider.Shutdown(shutdownCtx); err != nil {
		log.Warn("Failed to shut down meter provider", zap.Error(err))
	}
	if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
		log.Warn("Failed to shut down tracer provider", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}
