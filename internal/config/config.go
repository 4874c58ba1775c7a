package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

type Config struct {
	// Service configuration
	ServiceHost         string
	ServicePort         string
	InternalServicePort string

	// Database configuration
	DatabaseURL      string
	DatabaseMaxConns int

	// Redis configuration (only for JWT auth)
	RedisAuthURL  string
	RedisMaxConns int

	// Business logic configuration
	BaseTapIncome      int64
	BaseHourlyIncome   int64
	BaseEnergyCapacity int64
	RegenIntervalSec   int
	RegenAmount        int64
	OfflineBaseCapMin  int
	OfflineCapUpgradeID string
	TapExemptUpgradeID  string

	// JWT configuration
	AuthPublicKeyURL string

	// Logging configuration
	LogLevel string
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{}

	// Service configuration
	cfg.ServicePort = getEnvOrDefault("PORT_PUBLIC", "8080")
	cfg.InternalServicePort = getEnvOrDefault("PORT_INTERNAL", "8090")
	cfg.ServiceHost = "0.0.0.0"

	// Database configuration
	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	maxConnStr := getEnvOrDefault("DATABASE_MAX_CONNECTIONS", "10")
	maxConns, err := strconv.Atoi(maxConnStr)
	if err != nil {
		return nil, fmt.Errorf("invalid DATABASE_MAX_CONNECTIONS: %v", err)
	}
	cfg.DatabaseMaxConns = maxConns

	// Redis configuration (only for JWT auth)
	cfg.RedisAuthURL = getEnvOrDefault("REDIS_AUTH_URL", "redis://redis:6379/0")

	redisMaxConnStr := getEnvOrDefault("REDIS_MAX_CONNECTIONS", "10")
	redisMaxConns, err := strconv.Atoi(redisMaxConnStr)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_MAX_CONNECTIONS: %v", err)
	}
	cfg.RedisMaxConns = redisMaxConns

	// Business logic configuration
	cfg.BaseTapIncome, err = getEnvInt64("BASE_TAP_INCOME", 1)
	if err != nil {
		return nil, err
	}
	cfg.BaseHourlyIncome, err = getEnvInt64("BASE_HOURLY_INCOME", 10)
	if err != nil {
		return nil, err
	}
	cfg.BaseEnergyCapacity, err = getEnvInt64("BASE_ENERGY_CAPACITY", 100)
	if err != nil {
		return nil, err
	}

	regenIntervalStr := getEnvOrDefault("REGEN_INTERVAL_SEC", "5")
	regenInterval, err := strconv.Atoi(regenIntervalStr)
	if err != nil {
		return nil, fmt.Errorf("invalid REGEN_INTERVAL_SEC: %v", err)
	}
	cfg.RegenIntervalSec = regenInterval

	cfg.RegenAmount, err = getEnvInt64("REGEN_AMOUNT", 3)
	if err != nil {
		return nil, err
	}

	offlineCapStr := getEnvOrDefault("OFFLINE_BASE_CAP_MINUTES", "180")
	offlineCap, err := strconv.Atoi(offlineCapStr)
	if err != nil {
		return nil, fmt.Errorf("invalid OFFLINE_BASE_CAP_MINUTES: %v", err)
	}
	cfg.OfflineBaseCapMin = offlineCap

	cfg.OfflineCapUpgradeID = getEnvOrDefault("OFFLINE_CAP_UPGRADE_ID", "offline_cap")
	cfg.TapExemptUpgradeID = getEnvOrDefault("TAP_EXEMPT_UPGRADE_ID", "tap_power")

	// JWT configuration
	cfg.AuthPublicKeyURL = getEnvOrDefault("AUTH_PUBLIC_KEY_URL", "http://auth-service:8090/public-key.pem")

	// Logging configuration
	cfg.LogLevel = getEnvOrDefault("LOG_LEVEL", "info")

	return cfg, nil
}

// Validate performs validation on the configuration
func (c *Config) Validate() error {
	// Validate database URL format
	if !strings.HasPrefix(c.DatabaseURL, "postgresql://") && !strings.HasPrefix(c.DatabaseURL, "postgres://") {
		return fmt.Errorf("DATABASE_URL must start with postgresql:// or postgres://")
	}

	// Validate Redis Auth URL format
	if !strings.HasPrefix(c.RedisAuthURL, "redis://") {
		return fmt.Errorf("REDIS_AUTH_URL must start with redis://")
	}

	// Validate numeric ranges
	if c.DatabaseMaxConns < 1 || c.DatabaseMaxConns > 100 {
		return fmt.Errorf("DATABASE_MAX_CONNECTIONS must be between 1 and 100")
	}

	if c.RedisMaxConns < 1 || c.RedisMaxConns > 100 {
		return fmt.Errorf("REDIS_MAX_CONNECTIONS must be between 1 and 100")
	}

	if c.RegenIntervalSec < 1 || c.RegenIntervalSec > 3600 {
		return fmt.Errorf("REGEN_INTERVAL_SEC must be between 1 and 3600")
	}

	if c.RegenAmount < 1 {
		return fmt.Errorf("REGEN_AMOUNT must be at least 1")
	}

	if c.OfflineBaseCapMin < 0 {
		return fmt.Errorf("OFFLINE_BASE_CAP_MINUTES must not be negative")
	}

	if c.BaseTapIncome < 1 || c.BaseHourlyIncome < 1 || c.BaseEnergyCapacity < 1 {
		return fmt.Errorf("base stat floors must be at least 1")
	}

	// Validate log level
	validLevels := []string{"debug", "info", "warn", "error"}
	validLevel := false
	for _, level := range validLevels {
		if c.LogLevel == level {
			validLevel = true
			break
		}
	}
	if !validLevel {
		return fmt.Errorf("LOG_LEVEL must be one of: %s", strings.Join(validLevels, ", "))
	}

	return nil
}

// String returns a string representation of the config (for logging, without sensitive data)
func (c *Config) String() string {
	return fmt.Sprintf(
		"Config{Host: %s, Port: %s, InternalPort: %s, LogLevel: %s, RegenIntervalSec: %d, RegenAmount: %d, OfflineBaseCapMin: %d, DB: %s, RedisAuth: %s}",
		c.ServiceHost, c.ServicePort, c.InternalServicePort, c.LogLevel, c.RegenIntervalSec, c.RegenAmount, c.OfflineBaseCapMin,
		maskURL(c.DatabaseURL), maskURL(c.RedisAuthURL),
	)
}

// Helper functions

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) (int64, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	parsed, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %v", key, err)
	}
	return parsed, nil
}

// maskURL masks sensitive information in URLs
func maskURL(url string) string {
	if strings.Contains(url, "@") {
		parts := strings.Split(url, "@")
		if len(parts) >= 2 {
			return parts[0][:strings.Index(parts[0], "://")+3] + "***@" + parts[1]
		}
	}
	return url
}
