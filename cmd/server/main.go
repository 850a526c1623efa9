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
	appnotify "github.com/mayavriksh/backend/internal/application/notification"
	appproc "github.com/mayavriksh/backend/internal/application/procurement"
	"github.com/mayavriksh/backend/internal/infrastructure/auth"
	"github.com/mayavriksh/backend/internal/infrastructure/cache"
	"github.com/mayavriksh/backend/internal/infrastructure/config"
	"github.com/mayavriksh/backend/internal/infrastructure/event"
	"github.com/mayavriksh/backend/internal/infrastructure/logger"
	"github.com/mayavriksh/backend/internal/infrastructure/migration"
	"github.com/mayavriksh/backend/internal/infrastructure/notification"
	"github.com/mayavriksh/backend/internal/infrastructure/persistence"
	"github.com/mayavriksh/backend/internal/infrastructure/storage"
	"github.com/mayavriksh/backend/internal/infrastructure/telemetry"
	"github.com/mayavriksh/backend/internal/interfaces/http/handler"
	"github.com/mayavriksh/backend/internal/interfaces/http/middleware"
	"github.com/mayavriksh/backend/internal/interfaces/http/router"
	"github.com/mayavriksh/backend/migrations"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/text/language"

	_ "github.com/mayavriksh/backend/docs"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

//	@title			Mayavriksh Procurement API
//	@version		1.0
//	@description	Purchase order lifecycle and inventory reconciliation for the Mayavriksh nursery network.

//	@contact.name	Mayavriksh Engineering
//	@contact.email	engineering@mayavriksh.com

//	@host		localhost:8080
//	@BasePath	/api/v1

//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Bearer token authentication. Format: "Bearer {token}"

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	logCfg := &logger.Config{
		Level:       cfg.Log.Level,
		Format:      cfg.Log.Format,
		Output:      cfg.Log.Output,
		Service:     cfg.App.Name,
		Environment: cfg.App.Env,
	}
	bootLog, err := logger.New(logCfg)
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}

	ctx := context.Background()
	otelCfg := telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		ServiceVersion:    version,
		Insecure:          cfg.Telemetry.Insecure,
	}

	// Logs are teed to OTLP once the log provider exists
	logProvider, err := telemetry.NewLoggerProvider(ctx, otelCfg, bootLog)
	if err != nil {
		bootLog.Fatal("Failed to initialize log exporter", zap.Error(err))
	}
	log, err := logger.New(logCfg, logProvider.ZapCore(logger.ParseLevel(cfg.Log.Level)))
	if err != nil {
		bootLog.Fatal("Failed to initialize logger", zap.Error(err))
	}
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting Mayavriksh procurement backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("version", version),
	)

	tracerProvider, err := telemetry.NewTracerProvider(ctx, otelCfg, log)
	if err != nil {
		log.Fatal("Failed to initialize tracer provider", zap.Error(err))
	}
	meterProvider, err := telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{
		Enabled:           cfg.Telemetry.Enabled && cfg.Telemetry.MetricsEnabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ExportInterval:    cfg.Telemetry.MetricsInterval,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize meter provider", zap.Error(err))
	}

	// Database
	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level),
		logger.WithSlowThreshold(cfg.Telemetry.DBSlowQueryThresh))
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	if err := prepareSchema(db, log); err != nil {
		log.Fatal("Failed to prepare database schema", zap.Error(err))
	}
	dbSystem := "postgresql"
	if cfg.Database.Driver == "sqlite" {
		dbSystem = "sqlite"
	}
	if err := telemetry.NewDBTracingPlugin(telemetry.DBTracingConfig{
		Enabled:         cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled,
		LogFullSQL:      cfg.Telemetry.DBLogFullSQL,
		SlowQueryThresh: cfg.Telemetry.DBSlowQueryThresh,
		DBSystem:        dbSystem,
	}, log).Register(db.DB); err != nil {
		log.Fatal("Failed to register database tracing", zap.Error(err))
	}
	log.Info("Database connected successfully", zap.String("driver", cfg.Database.Driver))

	// Redis is optional; without it queues and blacklists stay in process
	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient, err = cache.NewRedisClient(ctx, cfg.Redis, cache.WithLogger(log))
		if err != nil {
			log.Fatal("Failed to connect to redis", zap.Error(err))
		}
		defer func() {
			_ = redisClient.Close()
		}()
	}

	blobs, err := newBlobStore(ctx, cfg, log)
	if err != nil {
		log.Fatal("Failed to initialize blob storage", zap.Error(err))
	}

	metrics, err := telemetry.NewProcurementMetrics(meterProvider.Meter("mayavriksh/procurement"))
	if err != nil {
		log.Fatal("Failed to register procurement metrics", zap.Error(err))
	}

	var (
		deletionQueue cache.DeletionQueue = cache.NewInMemoryDeletionQueue()
		blacklist     auth.TokenBlacklist = auth.NewInMemoryTokenBlacklist()
	)
	if redisClient != nil {
		deletionQueue = cache.NewRedisDeletionQueue(redisClient)
		blacklist = auth.NewRedisTokenBlacklist(redisClient)
	}
	compensator := storage.NewCompensator(blobs, deletionQueue,
		storage.WithMaxRetries(cfg.Procurement.CompensationMaxRetries),
		storage.WithInitialBackoff(cfg.Procurement.CompensationInitialBackoff),
		storage.WithCompensationMetrics(metrics),
		storage.WithCompensatorLogger(log),
	)

	// Repositories
	userRepo := persistence.NewGormUserRepository(db.DB)
	warehouseRepo := persistence.NewGormWarehouseRepository(db.DB)
	orderRepo := persistence.NewGormPurchaseOrderRepository(db.DB)
	inventoryRepo := persistence.NewGormInventoryRecordRepository(db.DB)
	damageLogRepo := persistence.NewGormDamageLogRepository(db.DB)
	restockLogRepo := persistence.NewGormRestockLogRepository(db.DB)
	txScope := persistence.NewGormTransactionScope(db.DB)

	// Event bus and notifications
	eventBus := event.NewInMemoryEventBus(log, event.WithAsyncDispatch())
	notifier, err := newNotifier(cfg, log)
	if err != nil {
		log.Fatal("Failed to initialize notifier", zap.Error(err))
	}
	eventBus.Subscribe(appnotify.NewOrderNotificationHandler(
		userRepo, warehouseRepo, notifier,
		appnotify.NewMoneyFormatter("INR", language.MustParse("en-IN")),
		log,
	))
	if err := eventBus.Start(ctx); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}

	// Application services
	orderService := appproc.NewOrderService(orderRepo, userRepo, warehouseRepo, txScope)
	orderService.SetEventPublisher(eventBus)
	orderService.SetMetrics(metrics)
	orderService.SetMaxPageSize(cfg.Procurement.MaxPageSize)

	paymentService := appproc.NewPaymentService(orderRepo, warehouseRepo, txScope, blobs)
	paymentService.SetEventPublisher(eventBus)
	paymentService.SetCompensator(compensator)
	paymentService.SetMetrics(metrics)

	mediaService := appproc.NewMediaService(orderRepo, warehouseRepo, txScope, blobs)
	mediaService.SetEventPublisher(eventBus)
	mediaService.SetCompensator(compensator)
	mediaService.SetMetrics(metrics)

	restockService := appproc.NewRestockService(orderRepo, damageLogRepo, restockLogRepo, warehouseRepo, txScope)
	restockService.SetEventPublisher(eventBus)
	restockService.SetMetrics(metrics)
	restockService.SetTimeout(cfg.Procurement.RestockTimeout)

	if cfg.Procurement.OrderLockEnabled && redisClient != nil {
		locker := cache.NewRedisOrderLocker(redisClient, cfg.Procurement.OrderLockTTL, 5*time.Second)
		paymentService.SetOrderLocker(locker)
		restockService.SetOrderLocker(locker)
		log.Info("Distributed order locks enabled", zap.Duration("ttl", cfg.Procurement.OrderLockTTL))
	}

	inventoryService := appproc.NewInventoryService(inventoryRepo, warehouseRepo)
	inventoryService.SetMaxPageSize(cfg.Procurement.MaxPageSize)

	jwtService := auth.NewJWTService(cfg.JWT, blacklist)

	// Handlers
	uploads := handler.NewUploadReader(cfg.HTTP.MaxUploadSize)
	healthChecks := []handler.HealthCheck{{Name: "database", Ping: db.Ping}}
	if redisClient != nil {
		healthChecks = append(healthChecks, handler.HealthCheck{
			Name: "redis",
			Ping: func(ctx context.Context) error { return redisClient.Ping(ctx).Err() },
		})
	}
	systemHandler := handler.NewSystemHandler(cfg.App.Name, version, healthChecks...)

	// Set Gin mode based on environment
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()

	// Configure trusted proxies
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	httpMetrics, err := middleware.HTTPMetrics(meterProvider.Meter("mayavriksh/http"))
	if err != nil {
		log.Fatal("Failed to register HTTP metrics", zap.Error(err))
	}

	// Middleware order: tracing, request id, recovery, access log, metrics,
	// security headers, CORS, body limit
	engine.Use(middleware.Tracing(cfg.Telemetry.ServiceName, tracerProvider.IsEnabled()))
	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(httpMetrics)
	engine.Use(middleware.Secure())

	corsConfig := middleware.DefaultCORSConfig()
	corsConfig.AllowOrigins = cfg.HTTP.CORSAllowOrigins
	corsConfig.AllowMethods = cfg.HTTP.CORSAllowMethods
	corsConfig.AllowHeaders = cfg.HTTP.CORSAllowHeaders
	engine.Use(middleware.CORSWithConfig(corsConfig))
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	// Health check endpoint (outside API versioning)
	engine.GET("/health", systemHandler.Health)

	// Swagger documentation endpoint
	engine.GET("/swagger/*any",
		middleware.SwaggerProtection(middleware.SwaggerConfig{
			Enabled:    cfg.Swagger.Enabled,
			AllowedIPs: cfg.Swagger.AllowedIPs,
		}),
		ginSwagger.WrapHandler(swaggerFiles.Handler),
	)

	router.NewRouter(engine,
		router.WithAPIVersion("v1"),
		router.WithLogger(log),
		router.WithMiddleware(middleware.Authenticate(jwtService), middleware.SpanEnricher()),
	).Register(router.ProcurementGroups(router.Handlers{
		PurchaseOrders: handler.NewPurchaseOrderHandler(orderService, paymentService, mediaService, restockService, uploads),
		Media:          handler.NewMediaHandler(mediaService, uploads),
		Inventory:      handler.NewInventoryHandler(inventoryService),
		System:         systemHandler,
	})...).Setup()

	// Background drain of blob deletes that failed inline
	workerCtx, stopWorkers := context.WithCancel(ctx)
	go compensator.Run(workerCtx, cfg.Procurement.CompensationDrainInterval)

	// Create HTTP server with config
	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
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

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	stopWorkers()
	if err := eventBus.Stop(shutdownCtx); err != nil {
		log.Warn("Event bus did not drain", zap.Error(err))
	}
	if async, ok := notifier.(*notification.AsyncNotifier); ok {
		if err := async.Stop(shutdownCtx); err != nil {
			log.Warn("Notification queue did not drain", zap.Error(err))
		}
	}
	_ = meterProvider.Shutdown(shutdownCtx)
	_ = tracerProvider.Shutdown(shutdownCtx)
	_ = logProvider.Shutdown(shutdownCtx)

	log.Info("Server exited gracefully")
}

// prepareSchema applies the embedded migrations on postgres and
// auto-migrates the models on sqlite
func prepareSchema(db *persistence.Database, log *zap.Logger) error {
	if db.Driver() == "sqlite" {
		return db.AutoMigrate()
	}
	sqlDB, err := db.SQLDB()
	if err != nil {
		return err
	}
	migrator, err := migration.New(sqlDB, migrations.FS, log)
	if err != nil {
		return err
	}
	return migrator.Up()
}

// newBlobStore returns the S3 store, or an in-memory one for local runs
func newBlobStore(ctx context.Context, cfg *config.Config, log *zap.Logger) (appproc.BlobUploader, error) {
	if cfg.Storage.Driver == "memory" {
		log.Warn("Using in-memory blob storage; uploads are lost on restart")
		base := cfg.Storage.PublicBaseURL
		if base == "" {
			base = "http://localhost:" + cfg.App.Port + "/media"
		}
		return storage.NewMemoryBlobStore(base), nil
	}
	store, err := storage.NewS3BlobStore(ctx, &cfg.Storage, storage.WithLogger(log))
	if err != nil {
		return nil, err
	}
	if cfg.Storage.Endpoint != "" {
		// self-hosted endpoints (minio) may start without the bucket
		if err := store.EnsureBucket(ctx); err != nil {
			return nil, err
		}
	}
	return store, nil
}

// newNotifier sends mail through SMTP when enabled and logs it otherwise.
// Either way delivery runs on a bounded worker pool.
func newNotifier(cfg *config.Config, log *zap.Logger) (appnotify.Notifier, error) {
	var next appnotify.Notifier = notification.NewLogNotifier()
	if cfg.SMTP.Enabled {
		smtp, err := notification.NewSMTPNotifier(cfg.SMTP)
		if err != nil {
			return nil, err
		}
		next = smtp
	}
	return notification.NewAsyncNotifier(next, cfg.SMTP.AsyncWorkers, cfg.SMTP.QueueSize, log), nil
}
