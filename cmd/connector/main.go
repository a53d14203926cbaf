package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/guadaltech/connector-prestashop/internal/application/importer"
	"github.com/guadaltech/connector-prestashop/internal/domain/connector"
	"github.com/guadaltech/connector-prestashop/internal/infrastructure/cache"
	"github.com/guadaltech/connector-prestashop/internal/infrastructure/config"
	"github.com/guadaltech/connector-prestashop/internal/infrastructure/jobqueue"
	"github.com/guadaltech/connector-prestashop/internal/infrastructure/logger"
	"github.com/guadaltech/connector-prestashop/internal/infrastructure/persistence"
	"github.com/guadaltech/connector-prestashop/internal/infrastructure/prestashop"
	"github.com/guadaltech/connector-prestashop/internal/infrastructure/scheduler"
	"github.com/guadaltech/connector-prestashop/internal/interfaces/http/handler"
	"github.com/guadaltech/connector-prestashop/internal/interfaces/http/middleware"
	"github.com/guadaltech/connector-prestashop/internal/interfaces/http/router"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting PrestaShop connector",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Create GORM logger backed by zap
	gormLogLevel := logger.MapGormLogLevel(cfg.Log.Level)
	gormLog := logger.NewGormLogger(log, gormLogLevel)

	// Initialize database connection with custom logger
	db, err := persistence.NewDatabaseWithCustomLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	if err := db.Migrate(); err != nil {
		log.Fatal("Failed to migrate schema", zap.Error(err))
	}
	log.Info("Database connected successfully")

	// Initialize repositories
	backendRepo := persistence.NewGormBackendRepository(db.DB)
	checkpointRepo := persistence.NewGormCheckpointRepository(db.DB)
	paymentModeRepo := persistence.NewGormPaymentModeRepository(db.DB)
	partnerRepo := persistence.NewGormPartnerRepository(db.DB)
	addressRepo := persistence.NewGormAddressRepository(db.DB)
	carrierRepo := persistence.NewGormCarrierRepository(db.DB)
	productRepo := persistence.NewGormProductRepository(db.DB)
	orderRepo := persistence.NewGormSaleOrderRepository(db.DB)
	threadRepo := persistence.NewGormThreadRepository(db.DB)
	messageRepo := persistence.NewGormMessageRepository(db.DB)

	// Binding lookups happen on every imported record; Redis caches the
	// external ID resolution when enabled.
	var bindingRepo connector.BindingRepository = persistence.NewGormBindingRepository(db.DB)
	if cfg.Redis.Enabled {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := redisClient.Ping(context.Background()).Err(); err != nil {
			log.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				log.Error("Error closing Redis client", zap.Error(err))
			}
		}()
		bindingRepo = cache.NewRedisBindingCache(bindingRepo, redisClient,
			cache.WithBindingLogger(log),
		)
		log.Info("Binding cache enabled",
			zap.String("redis", fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port)),
		)
	}

	// Per-backend adapter dialer: every backend gets a webservice client for
	// its own location and key.
	dial := func(backend *connector.Backend) connector.AdapterRegistry {
		return prestashop.NewRegistry(prestashop.NewClient(backend.Location, backend.WebserviceKey))
	}

	stores := importer.Stores{
		Tx:           persistence.NewGormTx(db.DB),
		Bindings:     bindingRepo,
		Backends:     backendRepo,
		Checkpoints:  checkpointRepo,
		PaymentModes: paymentModeRepo,
		Partners:     partnerRepo,
		Addresses:    addressRepo,
		Carriers:     carrierRepo,
		Products:     productRepo,
		Orders:       orderRepo,
		Threads:      threadRepo,
		Messages:     messageRepo,
	}
	factory := importer.NewEnvironmentFactory(stores, dial, log)
	registry := importer.NewDefaultRegistry()

	// Initialize the task queue
	queueClient, err := jobqueue.NewClient(jobqueue.Config{
		DatabasePath:    cfg.Queue.DatabasePath,
		Workers:         cfg.Queue.Workers,
		ReleaseAfter:    cfg.Queue.ReleaseAfter,
		CleanupInterval: cfg.Queue.CleanupInterval,
	}, log)
	if err != nil {
		log.Fatal("Failed to open task queue", zap.Error(err))
	}
	defer func() {
		if err := queueClient.Close(); err != nil {
			log.Error("Error closing task queue", zap.Error(err))
		}
	}()

	jobs := jobqueue.NewScheduler(queueClient)
	queueClient.Register(
		jobqueue.NewImportRecordQueue(queueClient, factory, registry, log),
		jobqueue.NewImportBatchQueue(factory, jobs),
	)
	queueClient.Start(context.Background())
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if !queueClient.Stop(shutdownCtx) {
			log.Warn("Task queue stopped before draining in-flight tasks")
		}
	}()
	log.Info("Task queue started", zap.Int("workers", cfg.Queue.Workers))

	// Initialize the periodic import scheduler (if enabled)
	if cfg.Scheduler.Enabled {
		importScheduler := scheduler.NewImportScheduler(scheduler.ImportSchedules{
			Orders:   cfg.Scheduler.OrdersSchedule,
			Partners: cfg.Scheduler.PartnersSchedule,
			Products: cfg.Scheduler.ProductsSchedule,
			Carriers: cfg.Scheduler.CarriersSchedule,
		}, factory, jobs, backendRepo, log)
		if err := importScheduler.Start(); err != nil {
			log.Fatal("Failed to start import scheduler", zap.Error(err))
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			if err := importScheduler.Stop(shutdownCtx); err != nil {
				log.Error("Error stopping import scheduler", zap.Error(err))
			}
		}()
		log.Info("Import scheduler started",
			zap.String("orders", cfg.Scheduler.OrdersSchedule),
			zap.String("partners", cfg.Scheduler.PartnersSchedule),
			zap.String("products", cfg.Scheduler.ProductsSchedule),
			zap.String("carriers", cfg.Scheduler.CarriersSchedule),
		)
	}

	// Initialize HTTP handlers
	backendHandler := handler.NewBackendHandler(backendRepo, jobs, dial)
	checkpointHandler := handler.NewCheckpointHandler(checkpointRepo)
	paymentModeHandler := handler.NewPaymentModeHandler(paymentModeRepo)
	systemHandler := handler.NewSystemHandler()

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

	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))

	// Configure CORS from config
	engine.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     cfg.HTTP.CORSAllowOrigins,
		AllowMethods:     cfg.HTTP.CORSAllowMethods,
		AllowHeaders:     cfg.HTTP.CORSAllowHeaders,
		ExposeHeaders:    []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Health check endpoint (outside API versioning)
	engine.GET("/health", healthHandler(db))

	// Register API routes
	router.NewRouter(engine, router.WithAPIVersion("v1")).
		Register(backendHandler).
		Register(checkpointHandler).
		Register(paymentModeHandler).
		Register(systemHandler).
		Setup()

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
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

// healthHandler returns a handler for health check endpoints
func healthHandler(db *persistence.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		reqLog := logger.GetGinLogger(c)
		if err := db.Ping(); err != nil {
			reqLog.Warn("Health check failed", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":   "unhealthy",
				"time":     time.Now().Format(time.RFC3339),
				"database": "error",
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":   "healthy",
			"time":     time.Now().Format(time.RFC3339),
			"database": "ok",
		})
	}
}
