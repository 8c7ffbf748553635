package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	orderapp "github.com/erp/orderhook/internal/application/order"
	webhookapp "github.com/erp/orderhook/internal/application/webhook"
	"github.com/erp/orderhook/internal/domain/webhook"
	"github.com/erp/orderhook/internal/infrastructure/auth"
	"github.com/erp/orderhook/internal/infrastructure/cache"
	"github.com/erp/orderhook/internal/infrastructure/config"
	"github.com/erp/orderhook/internal/infrastructure/event"
	"github.com/erp/orderhook/internal/infrastructure/logger"
	"github.com/erp/orderhook/internal/infrastructure/migration"
	"github.com/erp/orderhook/internal/infrastructure/persistence"
	"github.com/erp/orderhook/internal/infrastructure/scheduler"
	"github.com/erp/orderhook/internal/infrastructure/telemetry"
	"github.com/erp/orderhook/internal/interfaces/http/handler"
	"github.com/erp/orderhook/internal/interfaces/http/middleware"
	"github.com/erp/orderhook/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Version is set at build time with -ldflags "-X main.Version=..."
var Version = "dev"

//	@title			Order Webhook API
//	@version		1.0
//	@description	Signed order webhook ingestion, retry queue and order lifecycle operations

//	@BasePath	/api/v1

//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Bearer token authentication. Format: "Bearer {token}"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: logger.DefaultTimeFormat,
		Service:    cfg.App.Name,
		Version:    Version,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting orderhook",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("version", Version),
	)

	rootCtx := context.Background()

	tracerProvider, err := telemetry.NewTracerProvider(rootCtx, telemetry.ConfigFrom(cfg.Telemetry), log)
	if err != nil {
		log.Fatal("Failed to initialize tracing", zap.Error(err))
	}
	defer func() {
		_ = tracerProvider.Shutdown(context.Background())
	}()

	var metrics *telemetry.Metrics
	if cfg.Telemetry.MetricsEnabled {
		metrics = telemetry.NewMetrics()
	}

	// Database
	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level), logger.DefaultSlowQueryThreshold)
	db, err := persistence.Open(&cfg.Database, persistence.WithLogger(gormLog))
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	sqlDB, err := db.SQL()
	if err != nil {
		log.Fatal("Failed to access connection pool", zap.Error(err))
	}
	if err := metrics.ObserveDB(sqlDB); err != nil {
		log.Warn("Failed to export connection pool metrics", zap.Error(err))
	}

	dbTracing := telemetry.DefaultDBTracingConfig()
	dbTracing.Enabled = cfg.Telemetry.TracingEnabled
	if err := telemetry.NewDBTracingPlugin(dbTracing, log).Register(db.DB); err != nil {
		log.Fatal("Failed to register database tracing", zap.Error(err))
	}

	if cfg.Database.MigrateOnStart {
		if err := migrate(sqlDB, log); err != nil {
			log.Fatal("Failed to apply migrations", zap.Error(err))
		}
	}

	// Delivery cache and token revocations share one Redis connection when
	// Redis is available
	deliveryCache, err := cache.NewDeliveryCacheFactory(cfg.Redis, cache.WithLogger(log)).CreateCache()
	if err != nil {
		log.Fatal("Failed to create delivery cache", zap.Error(err))
	}
	healthChecks := map[string]handler.HealthCheck{
		"database": db.PingContext,
	}
	var revocations auth.RevocationList = auth.NewInMemoryRevocationList()
	if redisCache, ok := deliveryCache.(*cache.RedisDeliveryCache); ok {
		client := redisCache.Client()
		revocations = auth.NewRedisRevocationList(client)
		healthChecks["redis"] = func(ctx context.Context) error { return client.Ping(ctx).Err() }
		defer func() {
			_ = client.Close()
		}()
	}

	// Repositories
	eventRepo := persistence.NewGormWebhookEventRepository(db.DB)
	shopRepo := persistence.NewGormShopRepository(db.DB)
	outboxRepo := persistence.NewGormOutboxRepository(db.DB)
	txScope := persistence.NewGormTransactionScope(db.DB)

	// Webhook pipeline
	decoder, err := webhookapp.NewPayloadDecoder()
	if err != nil {
		log.Fatal("Failed to compile payload schemas", zap.Error(err))
	}
	applier := webhookapp.NewApplier(webhookapp.ApplierConfig{
		Scope:   txScope,
		Decoder: decoder,
		Logger:  log,
	})
	policy := webhook.RetryPolicy{
		MaxAttempts: cfg.Retry.MaxAttempts,
		BaseBackoff: cfg.Retry.BaseBackoff,
		MaxBackoff:  cfg.Retry.MaxBackoff,
	}
	processor := webhookapp.NewProcessor(webhookapp.ProcessorConfig{
		Events:       eventRepo,
		Applier:      applier,
		Policy:       policy,
		ApplyTimeout: cfg.Webhook.ApplyTimeout,
		BatchSize:    cfg.Retry.BatchSize,
		MaxBatchSize: cfg.Retry.MaxBatchSize,
		Metrics:      metrics,
		Logger:       log,
	})
	ingestion := webhookapp.NewIngestionService(webhookapp.IngestionServiceConfig{
		Verifier:       webhookapp.NewSignatureVerifier(cfg.Webhook.AppSecrets, shopRepo, log),
		Events:         eventRepo,
		Cache:          deliveryCache,
		Processor:      processor,
		MaxPayloadSize: cfg.Webhook.MaxPayloadSize,
		DedupTTL:       cfg.Webhook.DedupTTL,
		SyncApply:      cfg.Webhook.SyncApply,
		Metrics:        metrics,
		Logger:         log,
	})
	queueService := webhookapp.NewQueueService(eventRepo, processor.Policy(), log)

	lifecycle := orderapp.NewLifecycleService(orderapp.LifecycleServiceConfig{
		Scope:        txScope,
		Orders:       persistence.NewGormOrderRepository(db.DB),
		History:      persistence.NewGormOrderHistoryRepository(db.DB),
		Fulfillments: persistence.NewGormFulfillmentRepository(db.DB),
		Movements:    persistence.NewGormMovementRepository(db.DB),
		Metrics:      metrics,
		Logger:       log,
	})

	// Background workers
	if cfg.Retry.Enabled {
		retryScheduler := scheduler.NewScheduler(
			scheduler.DefaultSchedulerConfig(),
			scheduler.NewRetryExecutor(processor, cfg.Retry.StaleClaimAfter, log),
			log,
		)
		if err := retryScheduler.Start(rootCtx); err != nil {
			log.Fatal("Failed to start retry scheduler", zap.Error(err))
		}
		defer func() {
			if err := retryScheduler.Stop(context.Background()); err != nil {
				log.Error("Error stopping retry scheduler", zap.Error(err))
			}
		}()

		trigger := scheduler.NewRetryTrigger(scheduler.RetryTriggerConfig{
			Interval:           cfg.Retry.Interval,
			BatchSize:          cfg.Retry.BatchSize,
			StaleClaimInterval: cfg.Retry.StaleClaimAfter,
		}, retryScheduler, log)
		if err := trigger.Start(rootCtx); err != nil {
			log.Fatal("Failed to start retry trigger", zap.Error(err))
		}
		defer func() {
			if err := trigger.Stop(context.Background()); err != nil {
				log.Error("Error stopping retry trigger", zap.Error(err))
			}
		}()
		log.Info("Retry queue started",
			zap.Duration("interval", cfg.Retry.Interval),
			zap.Int("batch_size", cfg.Retry.BatchSize),
			zap.Int("max_attempts", processor.Policy().MaxAttempts),
		)
	}

	publisher := event.NewPublisher(cfg.Kafka, log)
	defer func() {
		if err := publisher.Close(); err != nil {
			log.Error("Error closing notification publisher", zap.Error(err))
		}
	}()
	if cfg.Outbox.ProcessorEnabled {
		outboxConfig := event.OutboxProcessorConfigFrom(cfg.Outbox)
		outboxProcessor := event.NewOutboxProcessor(outboxRepo, publisher, metrics, outboxConfig, log)
		if err := outboxProcessor.Start(rootCtx); err != nil {
			log.Fatal("Failed to start outbox processor", zap.Error(err))
		}
		defer func() {
			if err := outboxProcessor.Stop(context.Background()); err != nil {
				log.Error("Error stopping outbox processor", zap.Error(err))
			}
		}()
		log.Info("Outbox processor started",
			zap.Int("batch_size", outboxConfig.BatchSize),
			zap.Duration("poll_interval", outboxConfig.PollInterval),
		)
	}

	// HTTP
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetupValidator()

	engine := gin.New()
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	tracingConfig := middleware.DefaultTracingConfig()
	tracingConfig.ServiceName = cfg.Telemetry.ServiceName
	tracingConfig.Enabled = tracerProvider.IsEnabled()
	tracingConfig.TracerProvider = tracerProvider.Provider()

	// Order matters: the request ID feeds the logger, recovery wraps
	// everything below it, and tracing must start before the span markers
	engine.Use(middleware.RequestID())
	engine.Use(logger.GinMiddleware(log,
		logger.SkipPaths("/health", "/metrics"),
		logger.HeaderField(handler.HeaderTopic, "topic"),
		logger.HeaderField(handler.HeaderWebhookID, "webhook_id"),
	))
	engine.Use(logger.Recovery(log))
	engine.Use(middleware.Secure())
	engine.Use(middleware.TracingWithConfig(tracingConfig))
	engine.Use(middleware.SpanErrorMarker())
	if metrics != nil {
		engine.Use(middleware.Metrics(metrics))
		engine.GET("/metrics", gin.WrapH(metrics.Handler()))
	}

	systemHandler := handler.NewSystemHandler(cfg.App.Name, Version, healthChecks)
	engine.GET("/health", systemHandler.Health)

	jwtService := auth.NewJWTService(cfg.JWT)
	jwtConfig := middleware.DefaultJWTConfig(jwtService)
	jwtConfig.Revocations = revocations
	jwtConfig.Logger = log

	router.NewAPI(engine, router.Handlers{
		Webhook: handler.NewWebhookHandler(ingestion, cfg.Webhook.MaxPayloadSize),
		Queue:   handler.NewWebhookQueueHandler(processor, queueService),
		Orders:  handler.NewOrderHandler(lifecycle),
		Auth:    handler.NewAuthHandler(revocations, cfg.JWT.TokenTTL),
	}, router.APIConfig{
		JWT:            jwtConfig,
		Role:           middleware.RoleConfig{Logger: log},
		MaxWebhookBody: cfg.HTTP.MaxBodySize,
		OnOversizedWebhook: func(c *gin.Context, declared int64) {
			topic := c.GetHeader(handler.HeaderTopic)
			metrics.RecordWebhookReceived(topic, telemetry.ReceiveRejected)
			logger.L(c.Request.Context()).Warn("Webhook delivery rejected: body too large",
				zap.String("shop_domain", c.GetHeader(handler.HeaderShop)),
				zap.Int64("declared_bytes", declared),
				zap.Int64("limit_bytes", cfg.HTTP.MaxBodySize),
			)
		},
	})

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

	// In-flight deliveries finish before the workers and the database close
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited")
}

func migrate(db *sql.DB, log *zap.Logger) error {
	m, err := migration.New(db, "", log)
	if err != nil {
		return err
	}
	// Closing the migrator would close the shared connection pool
	return m.Up()
}
