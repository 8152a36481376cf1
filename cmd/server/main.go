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
	inventoryapp "github.com/salehmohamadkhani/cafe/internal/application/inventory"
	"github.com/salehmohamadkhani/cafe/internal/infrastructure/cache"
	"github.com/salehmohamadkhani/cafe/internal/infrastructure/config"
	"github.com/salehmohamadkhani/cafe/internal/infrastructure/event"
	"github.com/salehmohamadkhani/cafe/internal/infrastructure/logger"
	"github.com/salehmohamadkhani/cafe/internal/infrastructure/scheduler"
	"github.com/salehmohamadkhani/cafe/internal/infrastructure/storage"
	"github.com/salehmohamadkhani/cafe/internal/infrastructure/telemetry"
	"github.com/salehmohamadkhani/cafe/internal/infrastructure/tenant"
	"github.com/salehmohamadkhani/cafe/internal/interfaces/http/handler"
	"github.com/salehmohamadkhani/cafe/internal/interfaces/http/middleware"
	"github.com/salehmohamadkhani/cafe/internal/interfaces/http/router"
	"go.uber.org/zap"
)

var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	logCfg := &logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	}
	bootLog, err := logger.New(logCfg)
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}

	ctx := context.Background()

	// OpenTelemetry export; signals that are off fall back to no-ops
	tel := cfg.Telemetry
	providers, err := telemetry.Setup(ctx, telemetry.Options{
		ServiceName:    tel.ServiceName,
		ServiceVersion: version,
		Endpoint:       tel.CollectorEndpoint,
		Insecure:       tel.Insecure,
		Traces:         tel.Enabled,
		SamplingRatio:  tel.SamplingRatio,
		Metrics:        tel.Enabled && tel.MetricsEnabled,
		Logs:           tel.Enabled && tel.LogsEnabled,
	}, bootLog)
	if err != nil {
		bootLog.Fatal("Failed to initialize telemetry", zap.Error(err))
	}

	log, err := logger.New(logCfg, providers.LogCore())
	if err != nil {
		bootLog.Fatal("Failed to initialize logger", zap.Error(err))
	}
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting cafe inventory",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("driver", cfg.Database.Driver),
		zap.String("lock_backend", cfg.Lock.Backend),
	)

	meter := providers.Meter(cfg.Telemetry.ServiceName)

	backend, err := cache.NewBackend(ctx, cfg.Lock, cfg.Redis, log)
	if err != nil {
		log.Fatal("Failed to initialize lock backend", zap.Error(err))
	}

	// Low-stock alerts are delivered after the ledger write commits
	busOpts := []event.BusOption{event.WithHandlerTimeout(cfg.Event.HandlerTimeout)}
	if cfg.Event.Async {
		busOpts = append(busOpts, event.WithAsync(256))
	}
	bus := event.NewInMemoryEventBus(log, busOpts...)
	alerts := inventoryapp.NewStockBelowThresholdHandler(log).
		WithNotifier(inventoryapp.NewLoggingStockAlertNotifier(log)).
		WithMinInterval(cfg.Event.AlertMinInterval)
	bus.Subscribe(alerts, alerts.EventTypes()...)
	if err := bus.Start(ctx); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}

	registryOpts := []tenant.Option{
		tenant.WithLockers(backend),
		tenant.WithPublisher(bus),
		tenant.WithMeter(meter),
	}
	if cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled {
		registryOpts = append(registryOpts, tenant.WithDBTracing(telemetry.DBTracingConfig{
			Enabled:         true,
			LogFullSQL:      cfg.Telemetry.DBLogFullSQL,
			SlowQueryThresh: cfg.Telemetry.DBSlowQueryThresh,
		}))
	}
	registry, err := tenant.NewRegistry(cfg, log, registryOpts...)
	if err != nil {
		log.Fatal("Failed to initialize tenant registry", zap.Error(err))
	}

	if cfg.Tenancy.DefaultTenant != "" {
		if _, err := registry.Get(ctx, cfg.Tenancy.DefaultTenant); err != nil {
			log.Fatal("Failed to open default tenant", zap.String("tenant", cfg.Tenancy.DefaultTenant), zap.Error(err))
		}
	}

	// Daily low-stock sweep over every known tenant
	var sweeps *scheduler.Scheduler
	var sweepTrigger *scheduler.CronTrigger
	if cfg.Scheduler.Enabled {
		executor := scheduler.NewLowStockSweepExecutor(func(ctx context.Context, code string) (scheduler.LowStockSweeper, error) {
			store, err := registry.Get(ctx, code)
			if err != nil {
				return nil, err
			}
			return store.Ledger, nil
		}, log)
		sweeps = scheduler.NewScheduler(scheduler.Config{
			MaxConcurrentJobs: cfg.Scheduler.Workers,
			JobTimeout:        cfg.Scheduler.JobTimeout,
			RetryAttempts:     cfg.Scheduler.RetryAttempts,
			RetryDelay:        cfg.Scheduler.RetryDelay,
		}, executor, log)
		if err := sweeps.Start(ctx); err != nil {
			log.Fatal("Failed to start scheduler", zap.Error(err))
		}
		sweepTrigger = scheduler.NewCronTrigger(scheduler.CronTriggerConfig{
			Hour:          cfg.Scheduler.SweepHour,
			Minute:        cfg.Scheduler.SweepMinute,
			Location:      registry.Location(),
			CheckInterval: cfg.Scheduler.CheckInterval,
		}, sweeps, registry, log)
		if err := sweepTrigger.Start(ctx); err != nil {
			log.Fatal("Failed to start sweep trigger", zap.Error(err))
		}
	}

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetupValidator()

	engine := gin.New()
	if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
		log.Fatal("Invalid trusted proxies", zap.Error(err))
	}

	corsCfg := middleware.DefaultCORSConfig()
	if len(cfg.HTTP.CORSAllowOrigins) > 0 {
		corsCfg.AllowOrigins = cfg.HTTP.CORSAllowOrigins
	}
	if len(cfg.HTTP.CORSAllowMethods) > 0 {
		corsCfg.AllowMethods = cfg.HTTP.CORSAllowMethods
	}
	if len(cfg.HTTP.CORSAllowHeaders) > 0 {
		corsCfg.AllowHeaders = cfg.HTTP.CORSAllowHeaders
	}

	engine.Use(
		logger.Recovery(log),
		middleware.TracingWithConfig(middleware.TracingConfig{
			ServiceName: cfg.Telemetry.ServiceName,
			Enabled:     cfg.Telemetry.Enabled,
		}),
		middleware.RequestID(),
		logger.GinMiddleware(log),
		middleware.SpanErrorMarker(),
		middleware.HTTPMetrics(meter),
		middleware.CORSWithConfig(corsCfg),
		middleware.BodyLimit(cfg.HTTP.MaxBodySize),
	)

	var ledgerOpts []handler.LedgerOption
	if cfg.Storage.Enabled {
		archive, err := storage.NewS3ObjectStorage(&cfg.Storage, storage.WithLogger(log))
		if err != nil {
			log.Fatal("Failed to create object storage", zap.Error(err))
		}
		bucketCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := archive.EnsureBucket(bucketCtx); err != nil {
			log.Warn("Import archive bucket is not ready", zap.String("bucket", archive.Bucket()), zap.Error(err))
		}
		cancel()
		ledgerOpts = append(ledgerOpts, handler.WithImportArchive(archive))
		log.Info("Import files are archived", zap.String("bucket", archive.Bucket()))
	}

	loc := registry.Location()
	router.SystemRoutes(engine, handler.NewSystemHandler(cfg.App.Name, version, registry))
	router.NewRouter(engine, router.WithAPIMiddleware(
		middleware.Tenant(middleware.TenantMiddlewareConfig{
			Header:        cfg.Tenancy.Header,
			DefaultTenant: cfg.Tenancy.DefaultTenant,
			Resolver:      registry,
			Logger:        log,
		}),
		middleware.SpanAttributes(),
		middleware.Idempotency(backend.IdempotencyStore(), cfg.HTTP.IdempotencyTTL),
	)).Register(router.InventoryRoutes(router.Handlers{
		Ledger:     handler.NewLedgerHandler(loc, ledgerOpts...),
		Usage:      handler.NewUsageHandler(loc),
		Production: handler.NewProductionHandler(loc),
	})...).Setup()

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
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	if sweepTrigger != nil {
		_ = sweepTrigger.Stop(shutdownCtx)
	}
	if sweeps != nil {
		if err := sweeps.Stop(shutdownCtx); err != nil {
			log.Error("Scheduler did not stop", zap.Error(err))
		}
	}
	// Pending alerts drain before the stores they read from close
	if err := bus.Stop(shutdownCtx); err != nil {
		log.Error("Event bus did not drain", zap.Error(err))
	}
	if err := registry.Close(); err != nil {
		log.Error("Error closing tenant stores", zap.Error(err))
	}
	if err := backend.Close(); err != nil {
		log.Error("Error closing lock backend", zap.Error(err))
	}
	if err := providers.Shutdown(shutdownCtx); err != nil {
		log.Error("Error shutting down telemetry", zap.Error(err))
	}

	log.Info("Server exited")
}
