package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
)

// Side effect modes for post-commit work
const (
	SideEffectsBroker = "broker"
	SideEffectsInline = "inline"
)

type Config struct {
	AppEnv   string
	LogLevel string

	HTTPPort       int
	WorkerHTTPPort int
	ServiceName    string
	ServiceID      string

	PostgresHost     string
	PostgresPort     int
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string

	RedisHost string
	RedisPort int

	RabbitMQHost     string
	RabbitMQPort     int
	RabbitMQUser     string
	RabbitMQPassword string

	ConsulEnabled bool
	ConsulHost    string
	ConsulPort    int

	NotificationService string
	NotificationURL     string

	RateLimitMax    int
	RateLimitWindow time.Duration

	CatalogCacheTTL  time.Duration
	LowStockCooldown time.Duration

	SideEffectMode    string
	WorkerConcurrency int
}

// Load reads .env (when present) and the process environment.
func Load() Config {
	if err := godotenv.Load(); err != nil {
		log.Debug(".env not found, using process environment")
	}

	return Config{
		AppEnv:   getEnv("APP_ENV", "dev"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		HTTPPort:       getEnvInt("HTTP_PORT", 8082),
		WorkerHTTPPort: getEnvInt("WORKER_HTTP_PORT", 8083),
		ServiceName:    getEnv("SERVICE_NAME", "order-service"),
		ServiceID:      getEnv("SERVICE_ID", "order-service-1"),

		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnvInt("POSTGRES_PORT", 5432),
		PostgresUser:     getEnv("POSTGRES_USER", "tableorder"),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", "tableorder123"),
		PostgresDB:       getEnv("POSTGRES_DB", "tableorder"),

		RedisHost: getEnv("REDIS_HOST", "localhost"),
		RedisPort: getEnvInt("REDIS_PORT", 6379),

		RabbitMQHost:     getEnv("RABBITMQ_HOST", "localhost"),
		RabbitMQPort:     getEnvInt("RABBITMQ_PORT", 5672),
		RabbitMQUser:     getEnv("RABBITMQ_USER", "guest"),
		RabbitMQPassword: getEnv("RABBITMQ_PASSWORD", "guest"),

		ConsulEnabled: getEnvBool("CONSUL_ENABLED", false),
		ConsulHost:    getEnv("CONSUL_HOST", "localhost"),
		ConsulPort:    getEnvInt("CONSUL_PORT", 8500),

		NotificationService: getEnv("NOTIFICATION_SERVICE", "notification-service"),
		NotificationURL:     getEnv("NOTIFICATION_URL", "http://localhost:8090"),

		RateLimitMax:    getEnvInt("RATE_LIMIT_MAX", 10),
		RateLimitWindow: getEnvDuration("RATE_LIMIT_WINDOW", time.Minute),

		CatalogCacheTTL:  getEnvDuration("CATALOG_CACHE_TTL", 0),
		LowStockCooldown: getEnvDuration("LOW_STOCK_COOLDOWN", time.Hour),

		SideEffectMode:    getEnv("SIDE_EFFECT_MODE", SideEffectsBroker),
		WorkerConcurrency: getEnvInt("WORKER_CONCURRENCY", 8),
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}

	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func getEnvBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}

	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}

	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}
