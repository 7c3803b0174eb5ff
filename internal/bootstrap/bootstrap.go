// Package bootstrap wires components shared by the order service and the
// fulfillment worker.
package bootstrap

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"

	"github.com/prudhivi99/Distributed-Systems/tableorder/internal/alerts"
	"github.com/prudhivi99/Distributed-Systems/tableorder/internal/cache"
	"github.com/prudhivi99/Distributed-Systems/tableorder/internal/client"
	"github.com/prudhivi99/Distributed-Systems/tableorder/internal/config"
	"github.com/prudhivi99/Distributed-Systems/tableorder/internal/db"
	"github.com/prudhivi99/Distributed-Systems/tableorder/internal/discovery"
	"github.com/prudhivi99/Distributed-Systems/tableorder/internal/fulfillment"
	"github.com/prudhivi99/Distributed-Systems/tableorder/internal/inventory"
	"github.com/prudhivi99/Distributed-Systems/tableorder/internal/metrics"
	"github.com/prudhivi99/Distributed-Systems/tableorder/internal/middleware"
)

// Fulfiller builds gate, depletion and low-stock alerts over Postgres and
// Redis. consul may be nil, then the configured notification URL is used.
func Fulfiller(cfg config.Config, database *db.PostgresDB, redisCache *cache.RedisCache, consul *discovery.ConsulClient) *fulfillment.Fulfiller {
	tenants := db.NewTenantRepository(database)
	ingredients := db.NewIngredientRepository(database)
	store := db.InventoryStore{
		OrderRepository:      db.NewOrderRepository(database),
		IngredientRepository: ingredients,
	}

	resolve := client.StaticURL(cfg.NotificationURL)
	if consul != nil {
		resolve = consul.Resolver(cfg.NotificationService, cfg.NotificationURL, time.Minute)
	}

	notifier := alerts.NewNotifier(
		ingredients,
		cache.NewCooldown(redisCache.Client()),
		client.NewNotificationClient(resolve, cfg.ServiceName),
		cfg.LowStockCooldown,
	)

	return fulfillment.NewFulfiller(tenants, inventory.NewDepleter(store), notifier)
}

// Consul connects and registers the service when enabled. It returns nil
// when Consul is disabled or unreachable.
func Consul(cfg config.Config, port int) *discovery.ConsulClient {
	if !cfg.ConsulEnabled {
		return nil
	}

	consul, err := discovery.NewConsulClient(cfg.ConsulHost, cfg.ConsulPort)
	if err != nil {
		log.WithField("error", err).Warn("Consul unavailable, continuing without service discovery")
		return nil
	}

	err = consul.Register(discovery.ServiceConfig{
		Name: cfg.ServiceName,
		ID:   cfg.ServiceID,
		Port: port,
		Tags: []string{"tableorder", cfg.AppEnv},
	})
	if err != nil {
		log.WithField("error", err).Warn("service registration failed")
	}
	return consul
}

// Router returns a gin engine with recovery, request logging, metrics,
// /health and /metrics.
func Router(serviceName string) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger())
	router.Use(metrics.PrometheusMiddleware(serviceName))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy", "service": serviceName})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return router
}

// Serve runs srv until ctx is done, then shuts it down gracefully.
func Serve(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		log.WithField("addr", srv.Addr).Info("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
