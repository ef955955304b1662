package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/segyhp/credit-engine/internal/config"
	"github.com/segyhp/credit-engine/internal/database"
	"github.com/segyhp/credit-engine/internal/handler"
	"github.com/segyhp/credit-engine/internal/logger"
	"github.com/segyhp/credit-engine/internal/metrics"
	"github.com/segyhp/credit-engine/internal/repository"
	"github.com/segyhp/credit-engine/internal/service"
)

type stores struct {
	credits  repository.CreditRepository
	payments repository.PaymentRepository
	users    repository.UserRepository
}

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}

	log := logger.New(cfg.Logging)

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	ledgerMetrics := metrics.NewLedger(registry)

	var (
		db    *sqlx.DB
		store stores
	)
	if cfg.UsesMemoryStore() {
		log.Warn("using in-memory storage, data is lost on restart")
		creditStore := repository.NewMemoryCreditStore()
		store = stores{credits: creditStore, payments: creditStore, users: repository.NewMemoryUserStore()}
	} else {
		db, err = initDB(cfg, log)
		if err != nil {
			log.WithError(err).Fatal("Failed to initialize database")
		}
		defer db.Close()
		store = stores{
			credits:  repository.NewCreditRepository(db),
			payments: repository.NewPaymentRepository(db),
			users:    repository.NewUserRepository(db),
		}
	}

	var (
		redisClient *redis.Client
		cache       = repository.NewNoopCreditCache()
	)
	if cfg.Redis.Enabled {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()
		cache = repository.NewRedisCreditCache(redisClient, cfg.Cache.TTL)
	} else if cfg.UsesMemoryStore() {
		cache = repository.NewMemoryCreditCache()
	}

	creditService := service.NewCreditService(store.credits, cache, ledgerMetrics, log, cfg.Business.MaxDurationMonths)
	ledgerService := service.NewLedgerService(store.credits, store.payments, cache, ledgerMetrics, log, cfg.Business.RejectOverpayment)
	authService := service.NewAuthService(store.users, cfg.Auth.JWTSecret, cfg.Auth.TokenTTL, log)

	if cfg.Auth.AdminEmail != "" {
		if _, err := authService.Provision(context.Background(), cfg.Auth.AdminEmail, cfg.Auth.AdminPassword, "Administrator"); err != nil {
			log.WithError(err).Fatal("Failed to provision admin account")
		}
	}

	// Setup routes
	router := handler.NewRouter(handler.Routes{
		Credits:  handler.NewCreditHandler(creditService, ledgerService, log),
		Auth:     handler.NewAuthHandler(authService, log),
		Health:   newHealthHandler(cfg, db, redisClient),
		Tokens:   authService,
		Metrics:  ledgerMetrics,
		Gatherer: registry,
		Log:      log,
	})

	server := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server in a goroutine
	go func() {
		log.WithField("addr", server.Addr).Info("Server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("Server failed to start")
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.WithError(err).Error("Server forced to shutdown")
		return
	}

	log.Info("Server exited")
}

func initDB(cfg *config.Config, log logrus.FieldLogger) (*sqlx.DB, error) {
	db, err := database.Open(cfg.Database)
	if err != nil {
		return nil, err
	}

	migrator, err := database.NewMigrator(db.DB, log)
	if err != nil {
		db.Close()
		return nil, err
	}
	defer migrator.Close()

	if err := migrator.Up(); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

// newHealthHandler avoids handing typed nil pointers to the readiness checks.
func newHealthHandler(cfg *config.Config, db *sqlx.DB, redisClient *redis.Client) *handler.HealthHandler {
	var pinger handler.Pinger
	if db != nil {
		pinger = db
	}
	var cmd redis.Cmdable
	if redisClient != nil {
		cmd = redisClient
	}
	return handler.NewHealthHandler(pinger, cmd, cfg.Health.Timeout)
}
