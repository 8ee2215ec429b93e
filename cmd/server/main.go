package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/segyhp/emi-ledger/internal/cache"
	"github.com/segyhp/emi-ledger/internal/certificate"
	"github.com/segyhp/emi-ledger/internal/config"
	"github.com/segyhp/emi-ledger/internal/handler"
	"github.com/segyhp/emi-ledger/internal/logger"
	"github.com/segyhp/emi-ledger/internal/notify"
	"github.com/segyhp/emi-ledger/internal/repository"
	"github.com/segyhp/emi-ledger/internal/service"
	"github.com/segyhp/emi-ledger/pkg/response"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}

	log := logger.New(cfg.Logging)

	// Initialize database
	db, err := initDB(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	// Initialize Redis, or fall back to in-process locking without a cache
	var (
		scheduleCache cache.ScheduleCache = cache.NoopCache{}
		locker        cache.Locker        = cache.NewMemoryLocker()
		redisPinger   handler.Pinger
	)
	if cfg.Redis.Enabled {
		redisClient := initRedis(cfg)
		defer redisClient.Close()

		redisCache := cache.NewRedisCache(redisClient, cfg.Business.ScheduleCacheTTL, cfg.Business.PaymentLockTTL)
		scheduleCache, locker, redisPinger = redisCache, redisCache, redisCache
	} else {
		log.Warn("Redis disabled: schedule cache off, payment lock is per process")
	}

	// Initialize repositories
	purchaseRepo := repository.NewPurchaseRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	customerRepo := repository.NewCustomerRepository(db)
	certificateRepo := repository.NewCertificateRepository(db)

	// Initialize services
	notifier := notify.New(cfg.Notification, log)
	issuer := certificate.NewRecordIssuer(certificateRepo)

	purchaseService := service.NewPurchaseService(purchaseRepo, scheduleCache, cfg, log)
	paymentService := service.NewPaymentService(
		purchaseRepo, paymentRepo, customerRepo, issuer, notifier,
		scheduleCache, locker, cfg, log,
	)

	purchaseHandler := handler.NewPurchaseHandler(purchaseService, paymentService, cfg.GetLocation(), log)
	healthHandler := handler.NewHealthHandler(db, redisPinger, cfg.Health.Timeout)

	// Setup routes
	router := setupRoutes(purchaseHandler, healthHandler, log)

	// Start server
	server := &http.Server{
		Addr:         cfg.Server.Host + ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server in a goroutine
	go func() {
		log.Infof("Server starting on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Info("Server exited")
}

func initDB(cfg *config.Config) (*sqlx.DB, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return repository.Open(ctx, cfg.Database.Driver, cfg.Database.URL, repository.Options{
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	})
}

func initRedis(cfg *config.Config) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
}

func setupRoutes(purchaseHandler *handler.PurchaseHandler, healthHandler *handler.HealthHandler, log *logrus.Logger) *mux.Router {
	router := mux.NewRouter()
	router.Use(response.LoggingMiddleware(log), response.CORSMiddleware)

	// Health check
	router.HandleFunc("/health", healthHandler.Health).Methods("GET")
	router.HandleFunc("/health/ready", healthHandler.Ready).Methods("GET")

	// API routes
	api := router.PathPrefix("/api/v1").Subrouter()
	purchaseHandler.RegisterRoutes(api)

	return router
}
