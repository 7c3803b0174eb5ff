package main

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/prudhivi99/Distributed-Systems/tableorder/internal/config"
	"github.com/prudhivi99/Distributed-Systems/tableorder/internal/db"
	"github.com/prudhivi99/Distributed-Systems/tableorder/internal/logger"
)

func main() {
	cfg := config.Load()
	logger.Setup(logger.Options{Service: "migrate", Env: cfg.AppEnv, Level: cfg.LogLevel})

	database, err := db.NewPostgresDB(cfg.PostgresHost, cfg.PostgresPort, cfg.PostgresUser, cfg.PostgresPassword, cfg.PostgresDB)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if err := database.Migrate(ctx); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}

	log.Info("database is up to date")
}
