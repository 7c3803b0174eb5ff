package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestsTotal tracks total HTTP requests
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"service", "method", "endpoint", "status"},
	)

	// RequestDuration tracks HTTP request duration
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"service", "method", "endpoint"},
	)

	// OrdersTotal counts submissions by outcome (created or an error kind)
	OrdersTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "orders_total",
			Help: "Total number of order submissions by result",
		},
		[]string{"result"},
	)

	// OrderTotalMinor tracks persisted order totals in minor currency units
	OrderTotalMinor = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "order_total_minor_units",
			Help:    "Persisted order totals in minor currency units",
			Buckets: []float64{500, 1000, 2500, 5000, 10000, 25000, 50000, 100000},
		},
	)

	CouponRejections = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "coupon_rejections_total",
			Help: "Coupon rejections by reason",
		},
		[]string{"reason"},
	)

	IngressRejections = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ingress_rejections_total",
			Help: "Requests rejected before the pipeline by reason",
		},
		[]string{"reason"},
	)

	DestockRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "destock_runs_total",
			Help: "Inventory depletion runs by result",
		},
		[]string{"result"},
	)

	StockMovements = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "stock_movements_total",
			Help: "Stock movement records written",
		},
	)

	LowStockDigests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "low_stock_digests_total",
			Help: "Low stock digests by result",
		},
		[]string{"result"},
	)

	// CircuitBreakerState tracks circuit breaker state (0=closed, 1=open, 2=half-open)
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=open, 2=half-open)",
		},
		[]string{"service", "circuit_name"},
	)

	CircuitBreakerFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_failures_total",
			Help: "Total number of circuit breaker failures",
		},
		[]string{"service", "circuit_name"},
	)

	BulkheadActiveRequests = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "bulkhead_active_requests",
			Help: "Number of active tasks in bulkhead",
		},
		[]string{"service", "bulkhead_name"},
	)

	BulkheadRejectedRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bulkhead_rejected_requests_total",
			Help: "Total number of tasks rejected by bulkhead",
		},
		[]string{"service", "bulkhead_name"},
	)
)

// PrometheusMiddleware creates a Gin middleware for automatic metrics collection
func PrometheusMiddleware(serviceName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())

		RequestsTotal.WithLabelValues(
			serviceName,
			c.Request.Method,
			c.FullPath(),
			status,
		).Inc()

		RequestDuration.WithLabelValues(
			serviceName,
			c.Request.Method,
			c.FullPath(),
		).Observe(duration)
	}
}
