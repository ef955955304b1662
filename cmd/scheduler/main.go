package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/segyhp/credit-engine/internal/config"
	"github.com/segyhp/credit-engine/internal/database"
	"github.com/segyhp/credit-engine/internal/logger"
	"github.com/segyhp/credit-engine/internal/metrics"
	"github.com/segyhp/credit-engine/internal/repository"
	"github.com/segyhp/credit-engine/internal/scheduler"
	"github.com/segyhp/credit-engine/internal/service"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}

	log := logger.New(cfg.Logging)
	log.Info("Starting settlement scheduler...")

	if cfg.UsesMemoryStore() {
		log.Fatal("The scheduler needs a shared database, DATABASE_DRIVER=memory is not supported")
	}

	db, err := database.Open(cfg.Database)
	if err != nil {
		log.WithError(err).Fatal("Failed to initialize database")
	}
	defer db.Close()

	cache := repository.NewNoopCreditCache()
	if cfg.Redis.Enabled {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()
		cache = repository.NewRedisCreditCache(redisClient, cfg.Cache.TTL)
	}

	credits := repository.NewCreditRepository(db)
	ledger := service.NewLedgerService(
		credits,
		repository.NewPaymentRepository(db),
		cache,
		metrics.NewLedger(prometheus.NewRegistry()),
		log,
		cfg.Business.RejectOverpayment,
	)

	s, err := scheduler.New(ledger, cfg.Scheduler.Spec, cfg.Location(), cfg.Scheduler.JobTimeout, log)
	if err != nil {
		log.WithError(err).Fatal("Error scheduling settlement job")
	}

	s.Start()
	log.WithFields(logrus.Fields{
		"spec":     cfg.Scheduler.Spec,
		"timezone": cfg.Scheduler.Timezone,
		"next_run": s.Next(),
	}).Info("Scheduler started successfully")

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down scheduler...")
	s.Stop()
	log.Info("Scheduler stopped")
}
