package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/prudhivi99/Distributed-Systems/tableorder/internal/bootstrap"
	"github.com/prudhivi99/Distributed-Systems/tableorder/internal/cache"
	"github.com/prudhivi99/Distributed-Systems/tableorder/internal/config"
	"github.com/prudhivi99/Distributed-Systems/tableorder/internal/consumer"
	"github.com/prudhivi99/Distributed-Systems/tableorder/internal/db"
	"github.com/prudhivi99/Distributed-Systems/tableorder/internal/logger"
	"github.com/prudhivi99/Distributed-Systems/tableorder/internal/messaging"
	"github.com/prudhivi99/Distributed-Systems/tableorder/internal/publisher"
)

func main() {
	cfg := config.Load()
	cfg.ServiceName = "fulfillment-worker"
	if host, err := os.Hostname(); err == nil {
		cfg.ServiceID = cfg.ServiceName + "-" + host
	}
	logger.Setup(logger.Options{Service: cfg.ServiceName, Env: cfg.AppEnv, Level: cfg.LogLevel})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	database, err := db.NewPostgresDB(cfg.PostgresHost, cfg.PostgresPort, cfg.PostgresUser, cfg.PostgresPassword, cfg.PostgresDB)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close()

	redisCache, err := cache.NewRedisCache(cfg.RedisHost, cfg.RedisPort, cfg.CatalogCacheTTL)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redisCache.Close()

	rabbitMQ, err := messaging.NewRabbitMQ(cfg.RabbitMQHost, cfg.RabbitMQPort, cfg.RabbitMQUser, cfg.RabbitMQPassword)
	if err != nil {
		log.Fatalf("Failed to connect to RabbitMQ: %v", err)
	}
	defer rabbitMQ.Close()

	if err := rabbitMQ.DeclareQueue(publisher.OrderPlacedQueue); err != nil {
		log.Fatalf("Failed to declare queue: %v", err)
	}

	messages, err := rabbitMQ.Consume(publisher.OrderPlacedQueue, cfg.WorkerConcurrency)
	if err != nil {
		log.Fatalf("Failed to start consuming: %v", err)
	}

	consul := bootstrap.Consul(cfg, cfg.WorkerHTTPPort)
	if consul != nil {
		defer consul.Deregister(cfg.ServiceID)
	}

	fulfiller := bootstrap.Fulfiller(cfg, database, redisCache, consul)
	orderConsumer := consumer.NewFulfillmentConsumer(fulfiller, cfg.WorkerConcurrency)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.WorkerHTTPPort),
		Handler:           bootstrap.Router(cfg.ServiceName),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := bootstrap.Serve(ctx, srv); err != nil {
			log.WithField("error", err).Error("HTTP server stopped")
		}
	}()

	log.WithFields(log.Fields{
		"queue":   publisher.OrderPlacedQueue,
		"workers": cfg.WorkerConcurrency,
	}).Info("fulfillment worker started")

	orderConsumer.Run(ctx, messages)

	log.Info("fulfillment worker stopped")
}
