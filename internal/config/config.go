// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"tochcoin-wallet/pkg/db" // Import db package for its Config struct
)

const (
	StorageDriverPostgres = "postgres"
	StorageDriverMemory   = "memory"
)

// AppConfig holds all application-wide configurations.
type AppConfig struct {
	ServerPort     string
	LogLevel       string
	StorageDriver  string
	DB             db.Config
	MigrationsPath string

	JWTSecret string
	JWTIssuer string

	RedisAddr      string
	IdempotencyTTL time.Duration

	RabbitMQURL    string
	LedgerExchange string

	MongoURI string
	MongoDB  string

	RateLimitRPS   float64
	RateLimitBurst int

	ReconcileInterval time.Duration

	SignupBonus         int64
	EventCreationReward int64
}

// LoadConfig loads configuration from environment variables, after reading a .env file
// if one is present. Malformed numbers and durations are reported as errors.
func LoadConfig() (*AppConfig, error) {
	_ = godotenv.Load()

	cfg := &AppConfig{
		ServerPort:     getEnv("SERVER_PORT", "8080"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		StorageDriver:  getEnv("STORAGE_DRIVER", StorageDriverPostgres),
		MigrationsPath: getEnv("MIGRATIONS_PATH", "migrations"),
		JWTSecret:      os.Getenv("JWT_SECRET"),
		JWTIssuer:      getEnv("JWT_ISSUER", "tochcoin"),
		RedisAddr:      os.Getenv("REDIS_ADDR"),
		RabbitMQURL:    os.Getenv("RABBITMQ_URL"),
		LedgerExchange: getEnv("LEDGER_EXCHANGE", "ledger_events"),
		MongoURI:       getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDB:        getEnv("MONGO_DB", "tochcoin_audit"),
		DB: db.Config{
			Host:     getEnv("DB_HOST", "localhost"),
			User:     getEnv("DB_USER", "user"),
			Password: getEnv("DB_PASSWORD", "password"),
			DBName:   getEnv("DB_NAME", "tochcoin"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
	}

	var err error
	if cfg.DB.Port, err = getInt("DB_PORT", 5432); err != nil {
		return nil, err
	}
	if cfg.DB.MaxRetries, err = getInt("DB_MAX_TX_RETRIES", db.DefaultMaxRetries); err != nil {
		return nil, err
	}
	if cfg.IdempotencyTTL, err = getDuration("IDEMPOTENCY_TTL", 24*time.Hour); err != nil {
		return nil, err
	}
	if cfg.ReconcileInterval, err = getDuration("RECONCILE_INTERVAL", 15*time.Minute); err != nil {
		return nil, err
	}
	if cfg.RateLimitRPS, err = getFloat("RATE_LIMIT_RPS", 10); err != nil {
		return nil, err
	}
	if cfg.RateLimitBurst, err = getInt("RATE_LIMIT_BURST", 20); err != nil {
		return nil, err
	}
	if cfg.SignupBonus, err = getInt64("SIGNUP_BONUS", 5); err != nil {
		return nil, err
	}
	if cfg.EventCreationReward, err = getInt64("EVENT_CREATION_REWARD", 2); err != nil {
		return nil, err
	}

	switch cfg.StorageDriver {
	case StorageDriverPostgres, StorageDriverMemory:
	default:
		return nil, fmt.Errorf("invalid STORAGE_DRIVER %q: want %s or %s", cfg.StorageDriver, StorageDriverPostgres, StorageDriverMemory)
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getInt(key string, defaultValue int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return v, nil
}

func getInt64(key string, defaultValue int64) (int64, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return v, nil
}

func getFloat(key string, defaultValue float64) (float64, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return v, nil
}

func getDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return v, nil
}
