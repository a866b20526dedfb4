package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/santabrisa/backend/internal/application/intake"
	"github.com/santabrisa/backend/internal/application/pipeline"
	billingadapter "github.com/santabrisa/backend/internal/infrastructure/billing"
	"github.com/santabrisa/backend/internal/infrastructure/cache"
	"github.com/santabrisa/backend/internal/infrastructure/carrier"
	"github.com/santabrisa/backend/internal/infrastructure/config"
	"github.com/santabrisa/backend/internal/infrastructure/ecommerce"
	"github.com/santabrisa/backend/internal/infrastructure/logger"
	"github.com/santabrisa/backend/internal/infrastructure/persistence"
	"github.com/santabrisa/backend/internal/infrastructure/printing"
	"github.com/santabrisa/backend/internal/infrastructure/scheduler"
	"github.com/santabrisa/backend/internal/infrastructure/storage"
	"github.com/santabrisa/backend/internal/infrastructure/telemetry"
	"github.com/santabrisa/backend/internal/interfaces/http/handler"
	"github.com/santabrisa/backend/internal/interfaces/http/middleware"
	"github.com/santabrisa/backend/internal/interfaces/http/router"
)

// version is stamped at build time via -ldflags
var version = "dev"

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting Santa Brisa backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("version", version),
	)

	// Database connection with a zap-backed gorm logger
	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level))
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected")

	// Repositories
	jobRepo := persistence.NewGormJobRepository(db.DB)
	deadLetterRepo := persistence.NewGormDeadLetterRepository(db.DB)
	eventRepo := persistence.NewGormEventRepository(db.DB)
	accountRepo := persistence.NewGormAccountRepository(db.DB)
	orderRepo := persistence.NewGormOrderRepository(db.DB)
	shipmentRepo := persistence.NewGormShipmentRepository(db.DB)
	deliveryNoteRepo := persistence.NewGormDeliveryNoteRepository(db.DB)
	invoiceRepo := persistence.NewGormInvoiceRepository(db.DB)
	productRepo := persistence.NewGormProductRepository(db.DB)
	purchaseRepo := persistence.NewGormPurchaseDocumentRepository(db.DB)

	// Webhook replay guard: Redis when available, in-memory otherwise.
	// The durable ledger in Postgres stays authoritative either way.
	guard, err := cache.NewEventGuardFactory(cfg.Redis, cache.WithLogger(log)).CreateGuard()
	if err != nil {
		log.Fatal("Failed to create event guard", zap.Error(err))
	}
	defer func() {
		if err := guard.Close(); err != nil {
			log.Error("Error closing event guard", zap.Error(err))
		}
	}()

	// Platform adapters
	holdedClient, err := billingadapter.NewHoldedAdapter(&billingadapter.HoldedConfig{
		APIKey:         cfg.Holded.APIKey,
		BaseURL:        cfg.Holded.BaseURL,
		TimeoutSeconds: cfg.Holded.TimeoutSeconds,
	})
	if err != nil {
		log.Fatal("Failed to create Holded adapter", zap.Error(err))
	}
	sendcloudClient, err := carrier.NewSendcloudAdapter(&carrier.SendcloudConfig{
		PublicKey:      cfg.Sendcloud.PublicKey,
		SecretKey:      cfg.Sendcloud.SecretKey,
		BaseURL:        cfg.Sendcloud.BaseURL,
		TimeoutSeconds: cfg.Sendcloud.TimeoutSeconds,
	})
	if err != nil {
		log.Fatal("Failed to create Sendcloud adapter", zap.Error(err))
	}
	shopifyClient, err := ecommerce.NewShopifyAdapter(&ecommerce.ShopifyConfig{
		ShopDomain:     cfg.Shopify.ShopDomain,
		AccessToken:    cfg.Shopify.AccessToken,
		TimeoutSeconds: cfg.Shopify.TimeoutSeconds,
	})
	if err != nil {
		log.Fatal("Failed to create Shopify adapter", zap.Error(err))
	}

	// Document rendering and archival
	renderer, err := printing.NewHTMLRenderer()
	if err != nil {
		log.Fatal("Failed to create document renderer", zap.Error(err))
	}
	var docStore pipeline.DocumentStore
	if cfg.Storage.Bucket != "" {
		docStore, err = storage.NewS3DocumentStore(&cfg.Storage)
		if err != nil {
			log.Fatal("Failed to create document store", zap.Error(err))
		}
	} else {
		log.Warn("No storage bucket configured, rendered documents are discarded")
		docStore = storage.NewStubDocumentStore()
	}

	// Metrics
	ctx := context.Background()
	meterProvider, err := telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ExportInterval:    cfg.Telemetry.ExportInterval,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to create meter provider", zap.Error(err))
	}

	var pipelineMetrics *telemetry.PipelineMetrics
	if meterProvider.IsEnabled() {
		pipelineMetrics, err = telemetry.NewPipelineMetrics(telemetry.PipelineMetricsConfig{
			Meter:  meterProvider.Meter(cfg.Telemetry.ServiceName),
			Logger: log,
		})
		if err != nil {
			log.Fatal("Failed to create pipeline metrics", zap.Error(err))
		}
	}

	// Job pipeline
	enqueuer := pipeline.NewEnqueuer(jobRepo, log,
		pipeline.WithDefaultMaxAttempts(cfg.Queue.MaxAttempts))

	registry := pipeline.NewRegistry()
	workers := []pipeline.Worker{
		pipeline.NewInboundOrderWorker(accountRepo, orderRepo, enqueuer, log),
		pipeline.NewCreateShipmentWorker(orderRepo, shipmentRepo, log),
		pipeline.NewValidateShipmentWorker(shipmentRepo, log),
		pipeline.NewDeliveryNoteWorker(shipmentRepo, accountRepo, deliveryNoteRepo, renderer, docStore, log),
		pipeline.NewCarrierLabelWorker(shipmentRepo, accountRepo, sendcloudClient, log),
		pipeline.NewMarkShippedWorker(shipmentRepo, orderRepo, log),
		pipeline.NewInvoiceWorker(orderRepo, accountRepo, invoiceRepo, shipmentRepo, holdedClient, renderer, docStore, log),
		pipeline.NewContactSyncWorker(holdedClient, accountRepo, enqueuer, log),
		pipeline.NewPurchaseSyncWorker(holdedClient, purchaseRepo, enqueuer, log),
		pipeline.NewProductSyncWorker(holdedClient, productRepo, enqueuer, log),
		pipeline.NewLabelReconcileWorker(sendcloudClient, shipmentRepo, log),
		pipeline.NewBackfillOrdersWorker(shopifyClient, enqueuer, cfg.Shopify.ShopDomain, log),
	}
	for _, w := range workers {
		if err := registry.Register(w); err != nil {
			log.Fatal("Failed to register worker", zap.Error(err))
		}
	}

	dispatcherOpts := []pipeline.DispatcherOption{}
	if pipelineMetrics != nil {
		dispatcherOpts = append(dispatcherOpts, pipeline.WithPipelineMetrics(pipelineMetrics))
	}
	dispatcher := pipeline.NewDispatcher(jobRepo, deadLetterRepo, registry, pipeline.DispatcherConfig{
		BatchSize:     cfg.Queue.BatchSize,
		PollInterval:  cfg.Queue.PollInterval,
		StaleAfter:    cfg.Queue.StaleAfter,
		SweepInterval: cfg.Queue.SweepInterval,
	}, log, dispatcherOpts...)

	if cfg.Queue.DispatcherEnabled {
		if err := dispatcher.Start(ctx); err != nil {
			log.Fatal("Failed to start dispatcher", zap.Error(err))
		}
	} else {
		log.Warn("Dispatcher disabled, jobs will queue without executing")
	}

	// Webhook intake
	intakeOpts := []intake.Option{}
	if pipelineMetrics != nil {
		intakeOpts = append(intakeOpts, intake.WithMetrics(pipelineMetrics))
	}
	intakeService := intake.NewService(intake.Config{
		ShopifySecret:   cfg.Webhooks.ShopifySecret,
		SendcloudSecret: cfg.Webhooks.SendcloudSecret,
	}, eventRepo, guard, enqueuer, log, intakeOpts...)

	// Nightly sweep
	syncTrigger := scheduler.NewSyncTrigger(scheduler.SyncTriggerConfig{
		DailyHour:       cfg.Sync.DailyHour,
		DailyMinute:     cfg.Sync.DailyMinute,
		CheckInterval:   cfg.Sync.CheckInterval,
		ReconcileWindow: 24 * time.Hour,
	}, enqueuer, log)
	if cfg.Sync.Enabled {
		if err := syncTrigger.Start(ctx); err != nil {
			log.Fatal("Failed to start sync trigger", zap.Error(err))
		}
	}

	// HTTP server
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetupValidator()
	engine := gin.New()
	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.Secure())
	engine.Use(middleware.CORS(middleware.DefaultCORSConfig()))
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))
	engine.Use(middleware.HTTPMetrics(middleware.HTTPMetricsConfig{
		MeterProvider: meterProvider,
		ServiceName:   cfg.Telemetry.ServiceName,
	}))
	if cfg.HTTP.RateLimitRequests > 0 {
		limiter := middleware.NewRateLimiter(cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow)
		engine.Use(middleware.RateLimit(limiter))
	}

	r := router.NewRouter(engine)
	r.Register(handler.NewWebhookHandler(intakeService, log)).
		Register(handler.NewShipmentHandler(enqueuer, shipmentRepo)).
		Register(handler.NewJobHandler(jobRepo, deadLetterRepo, enqueuer)).
		Register(handler.NewSyncHandler(enqueuer)).
		Register(handler.NewSystemHandler(db.DB, version))
	r.Setup()

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown: stop taking requests first, then drain the
	// dispatcher so in-flight jobs finish or requeue cleanly.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	if cfg.Sync.Enabled {
		if err := syncTrigger.Stop(shutdownCtx); err != nil {
			log.Error("Sync trigger shutdown failed", zap.Error(err))
		}
	}
	if cfg.Queue.DispatcherEnabled {
		if err := dispatcher.Stop(shutdownCtx); err != nil {
			log.Error("Dispatcher shutdown failed", zap.Error(err))
		}
	}
	if err := meterProvider.Shutdown(shutdownCtx); err != nil {
		log.Error("Meter provider shutdown failed", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}
