package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config gathers the settings of every binary. Values that fail to parse keep
// their default and leave a note in Warnings, so they can be logged once the
// logger exists.
type Config struct {
	HTTPPort           string
	RequestTimeout     time.Duration
	ShutdownTimeout    time.Duration
	MaxRequestBodySize int64

	MongoURI      string
	MongoDatabase string
	RedisAddr     string
	RedisPassword string
	SessionTTL    time.Duration

	HistoryDriver     string
	HistoryDSN        string
	HistoryMigrations string

	BackendURL     string
	BackendTimeout time.Duration

	OSRMURL         string
	NominatimURL    string
	ResolverTimeout time.Duration

	KafkaBrokers []string
	KafkaTopic   string
	KafkaGroupID string

	WhatsAppNumber string
	DataDir        string

	LogLevel  string
	LogFormat string

	OrderBackendPort       string
	OrderBackendDSN        string
	OrderBackendMigrations string
	RateLimit              float64
	RateBurst              int

	Warnings []string
}

func Load() *Config {
	c := &Config{}

	c.HTTPPort = getEnv("HTTP_PORT", "8080")
	c.RequestTimeout = c.duration("REQUEST_TIMEOUT", 30*time.Second)
	c.ShutdownTimeout = c.duration("SHUTDOWN_TIMEOUT", 10*time.Second)
	c.MaxRequestBodySize = int64(c.integer("MAX_REQUEST_BODY_SIZE", 1<<20))

	c.MongoURI = getEnv("MONGO_URI", "")
	c.MongoDatabase = getEnv("MONGO_DATABASE", "storefront")
	c.RedisAddr = getEnv("REDIS_ADDR", "")
	c.RedisPassword = getEnv("REDIS_PASSWORD", "")
	c.SessionTTL = c.duration("SESSION_TTL", 24*time.Hour)

	c.HistoryDriver = getEnv("HISTORY_DRIVER", "sqlite")
	c.HistoryDSN = getEnv("HISTORY_DSN", "file:history.db")
	c.HistoryMigrations = getEnv("HISTORY_MIGRATIONS", "internal/history/migrations/"+c.HistoryDriver)

	c.BackendURL = getEnv("BACKEND_URL", "")
	c.BackendTimeout = c.duration("BACKEND_TIMEOUT", 10*time.Second)

	c.OSRMURL = getEnv("OSRM_URL", "https://router.project-osrm.org")
	c.NominatimURL = getEnv("NOMINATIM_URL", "https://nominatim.openstreetmap.org")
	c.ResolverTimeout = c.duration("RESOLVER_TIMEOUT", 8*time.Second)

	c.KafkaBrokers = splitList(getEnv("KAFKA_BROKERS", ""))
	c.KafkaTopic = getEnv("KAFKA_TOPIC", "orders-placed")
	c.KafkaGroupID = getEnv("KAFKA_GROUP_ID", "orderbackend")

	c.WhatsAppNumber = getEnv("WHATSAPP_NUMBER", "")
	c.DataDir = getEnv("DATA_DIR", "data")

	c.LogLevel = getEnv("LOG_LEVEL", "info")
	c.LogFormat = getEnv("LOG_FORMAT", "json")

	c.OrderBackendPort = getEnv("ORDER_BACKEND_PORT", "8081")
	c.OrderBackendDSN = getEnv("ORDER_BACKEND_DSN", "")
	c.OrderBackendMigrations = getEnv("ORDER_BACKEND_MIGRATIONS", "internal/orderbackend/migrations")
	c.RateLimit = c.float("RATE_LIMIT", 10)
	c.RateBurst = c.integer("RATE_BURST", 20)

	return c
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func (c *Config) duration(key string, def time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return def
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		c.warn(key, raw, def)
		return def
	}
	return d
}

func (c *Config) integer(key string, def int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		c.warn(key, raw, def)
		return def
	}
	return n
}

func (c *Config) float(key string, def float64) float64 {
	raw := os.Getenv(key)
	if raw == "" {
		return def
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || f <= 0 {
		c.warn(key, raw, def)
		return def
	}
	return f
}

func (c *Config) warn(key, raw string, def any) {
	c.Warnings = append(c.Warnings, fmt.Sprintf("%s=%q is invalid, using %v", key, raw, def))
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
