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
	"github.com/prudhivi99/Distributed-Systems/tableorder/internal/catalog"
	"github.com/prudhivi99/Distributed-Systems/tableorder/internal/config"
	"github.com/prudhivi99/Distributed-Systems/tableorder/internal/coupon"
	"github.com/prudhivi99/Distributed-Systems/tableorder/internal/db"
	"github.com/prudhivi99/Distributed-Systems/tableorder/internal/fulfillment"
	"github.com/prudhivi99/Distributed-Systems/tableorder/internal/handlers"
	"github.com/prudhivi99/Distributed-Systems/tableorder/internal/logger"
	"github.com/prudhivi99/Distributed-Systems/tableorder/internal/messaging"
	"github.com/prudhivi99/Distributed-Systems/tableorder/internal/middleware"
	"github.com/prudhivi99/Distributed-Systems/tableorder/internal/ordering"
	"github.com/prudhivi99/Distributed-Systems/tableorder/internal/publisher"
)

func main() {
	cfg := config.Load()
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

	consul := bootstrap.Consul(cfg, cfg.HTTPPort)
	if consul != nil {
		defer consul.Deregister(cfg.ServiceID)
	}

	// Catalog reads go through Redis only while menu changes can be watched
	var catalogStore catalog.Store = db.NewCatalogRepository(database)
	if cfg.CatalogCacheTTL > 0 {
		cached := db.NewCachedCatalogRepository(catalogStore, redisCache)
		if err := database.WatchMenuChanges(ctx, cached); err != nil {
			log.WithField("error", err).Warn("menu change feed unavailable, catalog cache disabled")
		} else {
			catalogStore = cached
		}
	}

	runner := fulfillment.NewRunner(
		bootstrap.Fulfiller(cfg, database, redisCache, consul),
		cfg.WorkerConcurrency,
		cfg.ServiceName,
	)

	var sideEffects ordering.SideEffects = runner
	if cfg.SideEffectMode == config.SideEffectsBroker {
		rabbitMQ, err := messaging.NewRabbitMQ(cfg.RabbitMQHost, cfg.RabbitMQPort, cfg.RabbitMQUser, cfg.RabbitMQPassword)
		if err != nil {
			log.WithField("error", err).Warn("RabbitMQ unavailable, running fulfillment in-process")
		} else {
			defer rabbitMQ.Close()

			orderPublisher, err := publisher.NewOrderPublisher(rabbitMQ, runner)
			if err != nil {
				log.Fatalf("Failed to create publisher: %v", err)
			}
			sideEffects = orderPublisher
		}
	}

	orders := db.NewOrderRepository(database)
	service := ordering.NewService(
		catalog.NewRevalidator(catalogStore, 8),
		coupon.NewService(db.NewCouponRepository(database)),
		orders,
		orders,
		sideEffects,
	)
	orderHandler := handlers.NewOrderHandler(service)

	router := bootstrap.Router(cfg.ServiceName)
	limiter := cache.NewSlidingWindowLimiter(redisCache.Client(), cfg.RateLimitMax, cfg.RateLimitWindow)
	tenantRoutes := router.Group("/t/:tenant", middleware.Ingress(limiter, db.NewTenantRepository(database)))
	{
		tenantRoutes.POST("/orders", orderHandler.SubmitOrder)
		tenantRoutes.GET("/orders/:id", orderHandler.GetOrder)
		tenantRoutes.POST("/coupons/validate", orderHandler.PreviewCoupon)
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
	}

	log.WithFields(log.Fields{
		"port":         cfg.HTTPPort,
		"side_effects": cfg.SideEffectMode,
	}).Info("order service starting")

	if err := bootstrap.Serve(ctx, srv); err != nil {
		log.WithField("error", err).Error("HTTP server stopped")
	}

	drainCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := runner.Close(drainCtx); err != nil {
		log.WithField("error", err).Warn("fulfillment tasks still running at shutdown")
	}

	log.Info("order service stopped")
}
