package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port        string
	Environment string
	CORSOrigins string

	// Database
	DBDriver       string
	DatabaseURL    string
	DBHost         string
	DBPort         string
	DBUser         string
	DBPassword     string
	DBName         string
	DBMaxOpenConns int

	JWTSecret string

	// Ledger behaviour
	AllowNegativeInventory     bool
	AutoCreateInventoryRecords bool
	DefaultReorderPoint        int
	DefaultReorderQuantity     int
	DefaultPageSize            int
	MaxPageSize                int

	// Redis (read cache + rate limiting). Empty address disables both.
	RedisAddr         string
	RedisPassword     string
	RedisDB           int
	CacheTTL          time.Duration
	RateLimitRequests int
	RateLimitWindow   time.Duration

	// Kafka
	KafkaEnabled           bool
	KafkaBrokers           []string
	KafkaClientID          string
	KafkaAcks              string
	KafkaRetries           int
	KafkaTopicMovements    string
	KafkaTopicReservations string
	KafkaTopicCatalog      string

	ShutdownTimeout time.Duration
}

// Load reads .env (when present) and the process environment.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Port:        getEnv("PORT", "3000"),
		Environment: getEnv("ENVIRONMENT", "development"),
		CORSOrigins: getEnv("CORS_ORIGINS", "*"),

		DBDriver:       strings.ToLower(getEnv("DB_DRIVER", "postgres")),
		DatabaseURL:    getEnv("DATABASE_URL", ""),
		DBHost:         getEnv("DB_HOST", "localhost"),
		DBPort:         getEnv("DB_PORT", "5432"),
		DBUser:         getEnv("DB_USER", "postgres"),
		DBPassword:     getEnv("DB_PASSWORD", "postgres"),
		DBName:         getEnv("DB_NAME", "inventory"),
		DBMaxOpenConns: getEnvAsInt("DB_MAX_OPEN_CONNS", 100),

		JWTSecret: getEnv("JWT_SECRET", ""),

		AllowNegativeInventory:     getEnvAsBool("ALLOW_NEGATIVE_INVENTORY", false),
		AutoCreateInventoryRecords: getEnvAsBool("AUTO_CREATE_INVENTORY_RECORDS", true),
		DefaultReorderPoint:        getEnvAsInt("DEFAULT_REORDER_POINT", 10),
		DefaultReorderQuantity:     getEnvAsInt("DEFAULT_REORDER_QUANTITY", 50),
		DefaultPageSize:            getEnvAsInt("DEFAULT_PAGE_SIZE", 50),
		MaxPageSize:                getEnvAsInt("MAX_PAGE_SIZE", 1000),

		RedisAddr:         getEnv("REDIS_ADDR", ""),
		RedisPassword:     getEnv("REDIS_PASSWORD", ""),
		RedisDB:           getEnvAsInt("REDIS_DB", 0),
		CacheTTL:          getEnvAsDuration("CACHE_TTL", 30*time.Second),
		RateLimitRequests: getEnvAsInt("RATE_LIMIT_REQUESTS", 120),
		RateLimitWindow:   getEnvAsDuration("RATE_LIMIT_WINDOW", time.Minute),

		KafkaEnabled:           getEnvAsBool("KAFKA_ENABLED", false),
		KafkaBrokers:           getEnvAsList("KAFKA_BROKERS", "localhost:9092"),
		KafkaClientID:          getEnv("KAFKA_CLIENT_ID", "inventory-ledger"),
		KafkaAcks:              getEnv("KAFKA_ACKS", "all"),
		KafkaRetries:           getEnvAsInt("KAFKA_RETRIES", 3),
		KafkaTopicMovements:    getEnv("KAFKA_TOPIC_MOVEMENTS", "inventory.movements"),
		KafkaTopicReservations: getEnv("KAFKA_TOPIC_RESERVATIONS", "inventory.reservations"),
		KafkaTopicCatalog:      getEnv("KAFKA_TOPIC_CATALOG", "inventory.catalog"),

		ShutdownTimeout: getEnvAsDuration("SHUTDOWN_TIMEOUT", 15*time.Second),
	}
}

// IsProduction reports whether the service runs with production defaults.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvAsList(key, defaultValue string) []string {
	parts := strings.Split(getEnv(key, defaultValue), ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
