package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds all application configuration.
type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	Redis      RedisConfig
	Logger     LoggerConfig
	Auth       AuthConfig
	Newebpay   NewebpayConfig
	SMTP       SMTPConfig
	CouponSeed CouponSeedConfig
}

// ServerConfig holds server-related configuration.
type ServerConfig struct {
	Host string
	Port int
}

// DatabaseConfig holds database-related configuration.
type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	Database        string
	MaxConnections  int
	MinConnections  int
	MaxConnLifetime int // seconds
}

// RedisConfig holds cache-related configuration.
type RedisConfig struct {
	URL string
}

// LoggerConfig holds logger-related configuration.
type LoggerConfig struct {
	Level  string
	Format string // "json" or "console"
}

// AuthConfig holds authentication configuration.
type AuthConfig struct {
	JWTSecret string
}

// NewebpayConfig holds the payment gateway's integrity contract material.
// HashKey must be 32 bytes and HashIV 16 bytes, as mandated by the
// gateway's AES-256-CBC channel.
type NewebpayConfig struct {
	MerchantID        string
	HashKey           string
	HashIV            string
	Version           string
	GatewayURL        string
	NotifyURL         string
	CheckoutStatusURL string
}

// SMTPConfig holds confirmation email delivery configuration. When
// disabled, order confirmations are logged but not sent.
type SMTPConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// CouponSeedConfig holds coupon seed import configuration. Seed files
// are JSON coupon definitions loaded at startup from S3 or the local
// file system.
type CouponSeedConfig struct {
	Enabled   bool
	Path      string
	S3Enabled bool
	Bucket    string
	Region    string
	Prefix    string
}

// Load loads configuration from environment variables. A .env file in
// the working directory is honoured when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Host: getEnv("SERVER_HOST", "0.0.0.0"),
			Port: getEnvAsInt("SERVER_PORT", 8080),
		},
		Database: DatabaseConfig{
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnvAsInt("DB_PORT", 5432),
			User:            getEnv("DB_USER", "postgres"),
			Password:        getEnv("DB_PASSWORD", ""),
			Database:        getEnv("DB_NAME", "lightkart"),
			MaxConnections:  getEnvAsInt("DB_MAX_CONNECTIONS", 25),
			MinConnections:  getEnvAsInt("DB_MIN_CONNECTIONS", 5),
			MaxConnLifetime: getEnvAsInt("DB_MAX_CONN_LIFETIME", 300),
		},
		Redis: RedisConfig{
			URL: getEnv("REDIS_URL", "redis://localhost:6379/0"),
		},
		Logger: LoggerConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		Auth: AuthConfig{
			JWTSecret: getEnv("JWT_SECRET", ""),
		},
		Newebpay: NewebpayConfig{
			MerchantID:        getEnv("NEWEBPAY_MERCHANT_ID", ""),
			HashKey:           getEnv("NEWEBPAY_HASH_KEY", ""),
			HashIV:            getEnv("NEWEBPAY_HASH_IV", ""),
			Version:           getEnv("NEWEBPAY_VERSION", "2.0"),
			GatewayURL:        getEnv("NEWEBPAY_GATEWAY_URL", "https://ccore.newebpay.com/MPG/mpg_gateway"),
			NotifyURL:         getEnv("NEWEBPAY_NOTIFY_URL", ""),
			CheckoutStatusURL: getEnv("CHECKOUT_STATUS_URL", "https://lightpickers.github.io/Frontend-Dev-React/#/checkout/status"),
		},
		SMTP: SMTPConfig{
			Enabled:  getEnvAsBool("SMTP_ENABLED", false),
			Host:     getEnv("SMTP_HOST", ""),
			Port:     getEnvAsInt("SMTP_PORT", 587),
			Username: getEnv("SMTP_USERNAME", ""),
			Password: getEnv("SMTP_PASSWORD", ""),
			From:     getEnv("SMTP_FROM", ""),
		},
		CouponSeed: CouponSeedConfig{
			Enabled:   getEnvAsBool("COUPON_SEED_ENABLED", false),
			Path:      getEnv("COUPON_SEED_PATH", "seeds/coupons"),
			S3Enabled: getEnvAsBool("COUPON_SEED_S3_ENABLED", false),
			Bucket:    getEnv("COUPON_SEED_S3_BUCKET", ""),
			Region:    getEnv("COUPON_SEED_S3_REGION", "ap-northeast-1"),
			Prefix:    getEnv("COUPON_SEED_S3_PREFIX", "coupons/"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Database.Host == "" {
		return fmt.Errorf("database host is required")
	}

	if c.Database.Port < 1 || c.Database.Port > 65535 {
		return fmt.Errorf("invalid database port: %d", c.Database.Port)
	}

	if c.Database.User == "" {
		return fmt.Errorf("database user is required")
	}

	if c.Database.Database == "" {
		return fmt.Errorf("database name is required")
	}

	if c.Database.MaxConnections < 1 {
		return fmt.Errorf("database max connections must be at least 1")
	}

	if c.Database.MinConnections < 1 {
		return fmt.Errorf("database min connections must be at least 1")
	}

	if c.Database.MinConnections > c.Database.MaxConnections {
		return fmt.Errorf("database min connections cannot exceed max connections")
	}

	if c.Redis.URL == "" {
		return fmt.Errorf("redis URL is required")
	}

	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("JWT secret is required")
	}

	if c.Newebpay.MerchantID == "" {
		return fmt.Errorf("newebpay merchant ID is required")
	}

	if len(c.Newebpay.HashKey) != 32 {
		return fmt.Errorf("newebpay hash key must be 32 bytes, got %d", len(c.Newebpay.HashKey))
	}

	if len(c.Newebpay.HashIV) != 16 {
		return fmt.Errorf("newebpay hash IV must be 16 bytes, got %d", len(c.Newebpay.HashIV))
	}

	if c.Newebpay.NotifyURL == "" {
		return fmt.Errorf("newebpay notify URL is required")
	}

	if c.SMTP.Enabled {
		if c.SMTP.Host == "" {
			return fmt.Errorf("SMTP host is required when SMTP is enabled")
		}
		if c.SMTP.From == "" {
			return fmt.Errorf("SMTP from address is required when SMTP is enabled")
		}
	}

	if c.CouponSeed.Enabled && c.CouponSeed.S3Enabled {
		if c.CouponSeed.Bucket == "" {
			return fmt.Errorf("coupon seed S3 bucket is required when S3 is enabled")
		}
		if c.CouponSeed.Region == "" {
			return fmt.Errorf("coupon seed S3 region is required when S3 is enabled")
		}
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}

	if !validLogLevels[c.Logger.Level] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logger.Level)
	}

	if c.Logger.Format != "json" && c.Logger.Format != "console" {
		return fmt.Errorf("invalid log format: %s (must be json or console)", c.Logger.Format)
	}

	return nil
}

// ConnectionString returns the PostgreSQL connection string.
func (c *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.User,
		c.Password,
		c.Host,
		c.Port,
		c.Database,
	)
}

// Address returns the server address.
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// getEnv retrieves an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value.
func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value.
func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
