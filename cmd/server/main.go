package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	auditapp "github.com/usv008/pizza-inventory-system-sub003/internal/application/audit"
	catalogapp "github.com/usv008/pizza-inventory-system-sub003/internal/application/catalog"
	inventoryapp "github.com/usv008/pizza-inventory-system-sub003/internal/application/inventory"
	orderapp "github.com/usv008/pizza-inventory-system-sub003/internal/application/order"
	"github.com/usv008/pizza-inventory-system-sub003/internal/domain/shared"
	"github.com/usv008/pizza-inventory-system-sub003/internal/infrastructure/auth"
	"github.com/usv008/pizza-inventory-system-sub003/internal/infrastructure/cache"
	"github.com/usv008/pizza-inventory-system-sub003/internal/infrastructure/config"
	"github.com/usv008/pizza-inventory-system-sub003/internal/infrastructure/logger"
	"github.com/usv008/pizza-inventory-system-sub003/internal/infrastructure/persistence"
	"github.com/usv008/pizza-inventory-system-sub003/internal/interfaces/http/handler"
	"github.com/usv008/pizza-inventory-system-sub003/internal/interfaces/http/middleware"
	"github.com/usv008/pizza-inventory-system-sub003/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	gormlogger "gorm.io/gorm/logger"
)

const version = "1.0.0"

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
		_ = log.Sync()
	}()

	log.Info("Starting pizza inventory backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Initialize database connection
	gormLogLevel := gormlogger.Silent
	if cfg.Log.Level == "debug" {
		gormLogLevel = gormlogger.Info
	}
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLogLevel)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected", zap.String("driver", db.Driver()))

	// Initialize idempotency store (memory or redis per config)
	idempotencyStore, err := cache.NewIdempotencyStore(cfg)
	if err != nil {
		log.Fatal("Failed to initialize idempotency store", zap.Error(err))
	}
	defer func() {
		if err := idempotencyStore.Close(); err != nil {
			log.Error("Error closing idempotency store", zap.Error(err))
		}
	}()

	// Initialize repositories
	productRepo := persistence.NewGormProductRepository(db.DB)
	batchRepo := persistence.NewGormBatchRepository(db.DB)
	arrivalRepo := persistence.NewGormArrivalRepository(db.DB)
	movementRepo := persistence.NewGormMovementRepository(db.DB)
	writeoffRepo := persistence.NewGormWriteoffRepository(db.DB)
	orderRepo := persistence.NewGormOrderRepository(db.DB)
	operationLogRepo := persistence.NewGormOperationLogRepository(db.DB)

	// Initialize application services
	auditService := auditapp.NewService(operationLogRepo, log)
	productService := catalogapp.NewProductService(productRepo, auditService, log)
	batchService := inventoryapp.NewBatchService(batchRepo, log)
	reservationService := inventoryapp.NewReservationService(batchRepo, productRepo, movementRepo, log)
	arrivalService := inventoryapp.NewArrivalService(arrivalRepo, batchRepo, productRepo, movementRepo, db, auditService, log)
	writeoffService := inventoryapp.NewWriteoffService(writeoffRepo, batchRepo, productRepo, movementRepo, db, auditService, log)
	idemCfg := shared.DefaultIdempotencyConfig()
	if cfg.Idempotency.TTL > 0 {
		idemCfg.TTL = cfg.Idempotency.TTL
	}
	orderService := orderapp.NewService(
		orderRepo,
		productRepo,
		reservationService,
		idempotencyStore,
		idemCfg,
		auditService,
		log,
	)

	// Initialize HTTP handlers
	productHandler := handler.NewProductHandler(productService, batchService)
	batchHandler := handler.NewBatchHandler(batchService, reservationService)
	arrivalHandler := handler.NewArrivalHandler(arrivalService)
	writeoffHandler := handler.NewWriteoffHandler(writeoffService)
	orderHandler := handler.NewOrderHandler(orderService)
	operationsLogHandler := handler.NewOperationsLogHandler(auditService)
	systemHandler := handler.NewSystemHandler(db, version)

	// Set Gin mode based on environment
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()

	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	// Middleware stack: request ID, recovery, request logging, security
	// headers, CORS, body limit.
	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.Secure())

	corsConfig := middleware.DefaultCORSConfig()
	corsConfig.AllowOrigins = cfg.HTTP.CORSAllowOrigins
	engine.Use(middleware.CORSWithConfig(corsConfig))

	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	// JWT authentication is enabled when a secret is configured. Health
	// probes stay public.
	if cfg.JWT.Secret != "" {
		jwtService := auth.NewJWTService(cfg.JWT)
		engine.Use(middleware.JWTAuthMiddlewareWithConfig(middleware.JWTMiddlewareConfig{
			JWTService: jwtService,
			SkipPaths: []string{
				"/api/v1/health",
				"/api/v1/ready",
			},
		}))
		log.Info("JWT authentication enabled")
	} else if cfg.App.Env == "production" {
		log.Fatal("JWT secret is required in production")
	}

	r := router.NewRouter(engine, router.WithAPIVersion("v1"))
	r.Register(systemHandler).
		Register(productHandler).
		Register(batchHandler).
		Register(arrivalHandler).
		Register(writeoffHandler).
		Register(orderHandler).
		Register(operationsLogHandler)
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
