package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds all configuration for the application.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	NewRelic NewRelicConfig
	Gateway  GatewayConfig
	Retry    RetryConfig
	Order    OrderConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// DatabaseConfig holds PostgreSQL configuration.
type DatabaseConfig struct {
	Host         string
	Port         string
	User         string
	Password     string
	DBName       string
	SSLMode      string
	MaxOpenConns int
}

// RedisConfig holds Redis configuration.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// NewRelicConfig holds New Relic configuration.
type NewRelicConfig struct {
	AppName    string
	LicenseKey string
	Enabled    bool
}

// GatewayConfig holds the payment gateway connection settings.
type GatewayConfig struct {
	BaseURL             string // API root, no trailing slash
	Merchant            string // appended to BaseURL
	Username            string
	Password            string
	RedirectURL         string // where the payer lands after the challenge
	Timeout             time.Duration
	AuthenticationLimit int
	ChallengeWindowSize string
}

// RetryConfig bounds the busy-retry of payer authentication.
type RetryConfig struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

// OrderConfig holds order numbering and admission settings.
type OrderConfig struct {
	DisplayPrefix   string
	TxnPrefix       string
	DefaultCurrency string
	SequenceBackend string // "postgres" or "redis"
	QueueSize       int
	LockTTL         time.Duration
}

// Load loads configuration from environment variables.
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         getEnv("SERVER_PORT", "8080"),
			ReadTimeout:  getDurationEnv("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout: getDurationEnv("SERVER_WRITE_TIMEOUT", 60*time.Second),
		},
		Database: DatabaseConfig{
			Host:         getEnv("DB_HOST", "localhost"),
			Port:         getEnv("DB_PORT", "5432"),
			User:         getEnv("DB_USER", "postgres"),
			Password:     getEnv("DB_PASSWORD", "postgres"),
			DBName:       getEnv("DB_NAME", "checkout"),
			SSLMode:      getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns: getIntEnv("DB_MAX_OPEN_CONNS", 50),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getIntEnv("REDIS_DB", 0),
		},
		NewRelic: NewRelicConfig{
			AppName:    getEnv("NEW_RELIC_APP_NAME", "checkout-service"),
			LicenseKey: getEnv("NEW_RELIC_LICENSE_KEY", ""),
			Enabled:    getBoolEnv("NEW_RELIC_ENABLED", false),
		},
		Gateway: GatewayConfig{
			BaseURL:             getEnv("NBE_API", "https://test-nbe.gateway.mastercard.com/api/rest/version/61/merchant/"),
			Merchant:            getEnv("MERCHANT", ""),
			Username:            getEnv("MERCHANT_AUTH_USERNAME", ""),
			Password:            getEnv("MERCHANT_AUTH_PASSWORD", ""),
			RedirectURL:         getEnv("NBE_REDIRECT_URL", ""),
			Timeout:             getDurationEnv("GATEWAY_TIMEOUT", 10*time.Second),
			AuthenticationLimit: getIntEnv("GATEWAY_AUTHENTICATION_LIMIT", 25),
			ChallengeWindowSize: getEnv("GATEWAY_CHALLENGE_WINDOW_SIZE", "FULL_SCREEN"),
		},
		Retry: RetryConfig{
			MaxAttempts: getIntEnv("BUSY_RETRY_MAX_ATTEMPTS", 5),
			BaseDelay:   getDurationEnv("BUSY_RETRY_BASE_DELAY", 200*time.Millisecond),
			MaxDelay:    getDurationEnv("BUSY_RETRY_MAX_DELAY", 5*time.Second),
		},
		Order: OrderConfig{
			DisplayPrefix:   getEnv("ORDER_PREFIX", "ORDER-PREFIX-"),
			TxnPrefix:       getEnv("TXN_PREFIX", "N3SB-TXN"),
			DefaultCurrency: getEnv("ORDER_DEFAULT_CURRENCY", "EGP"),
			SequenceBackend: getEnv("ORDER_SEQUENCE_BACKEND", "postgres"),
			QueueSize:       getIntEnv("ADMISSION_QUEUE_SIZE", 1024),
			LockTTL:         getDurationEnv("ORDER_LOCK_TTL", 60*time.Second),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
