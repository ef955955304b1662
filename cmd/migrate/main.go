package main

import (
	"context"
	"flag"

	"github.com/sirupsen/logrus"

	"github.com/segyhp/credit-engine/internal/config"
	"github.com/segyhp/credit-engine/internal/database"
	"github.com/segyhp/credit-engine/internal/logger"
	"github.com/segyhp/credit-engine/internal/repository"
	"github.com/segyhp/credit-engine/internal/service"
)

func main() {
	down := flag.Bool("down", false, "roll back every migration instead of applying them")
	adminEmail := flag.String("admin-email", "", "provision an operator account with this email")
	adminPassword := flag.String("admin-password", "", "password for -admin-email")
	adminName := flag.String("admin-name", "Administrator", "display name for -admin-email")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}
	log := logger.New(cfg.Logging)

	if cfg.UsesMemoryStore() {
		log.Fatal("Migrations need DATABASE_DRIVER=postgres")
	}

	db, err := database.Open(cfg.Database)
	if err != nil {
		log.WithError(err).Fatal("Failed to initialize database")
	}
	defer db.Close()

	migrator, err := database.NewMigrator(db.DB, log)
	if err != nil {
		log.WithError(err).Fatal("Failed to prepare migrations")
	}
	defer migrator.Close()

	if *down {
		if err := migrator.Down(); err != nil {
			log.WithError(err).Fatal("Rollback failed")
		}
		return
	}

	if err := migrator.Up(); err != nil {
		log.WithError(err).Fatal("Migration failed")
	}

	email, password := *adminEmail, *adminPassword
	if email == "" {
		email, password = cfg.Auth.AdminEmail, cfg.Auth.AdminPassword
	}
	if email == "" {
		return
	}

	auth := service.NewAuthService(repository.NewUserRepository(db), cfg.Auth.JWTSecret, cfg.Auth.TokenTTL, log)
	created, err := auth.Provision(context.Background(), email, password, *adminName)
	if err != nil {
		log.WithError(err).Fatal("Failed to provision admin account")
	}
	log.WithFields(logrus.Fields{"email": email, "created": created}).Info("Admin provisioning done")
}
