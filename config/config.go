// Package config handles loading and validation of service configuration
// from environment variables. The resulting Config is constructed once at
// startup and passed into the components that need it; request-handling
// code never reads the environment directly.
package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/lumicare/review-backend/logger"
	"github.com/spf13/viper"
)

// Environment represents the service's running environment.
type Environment string

const (
	EnvDevelopment Environment = "development"
	EnvProduction  Environment = "production"
)

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Environment    Environment `mapstructure:"ENVIRONMENT"`
	Port           string      `mapstructure:"PORT"`
	AllowedOrigins []string    `mapstructure:"ALLOWED_ORIGINS"`
}

// DatabaseConfig holds the connection string for the feedback store.
type DatabaseConfig struct {
	// URL is a postgres:// connection string. The store is treated as an
	// opaque durable service reachable through it.
	URL          string `mapstructure:"URL"`
	MaxOpenConns int    `mapstructure:"MAX_OPEN_CONNS"`
}

// EmailConfig holds configuration for the confirmation email sender.
// An empty ResendAPIKey disables sending entirely; that is a supported
// deployment mode, not an error.
type EmailConfig struct {
	FromAddress  string `mapstructure:"FROM_ADDRESS"`
	FromName     string `mapstructure:"FROM_NAME"`
	ResendAPIKey string `mapstructure:"RESEND_API_KEY"`
}

// Enabled reports whether a sender is configured for this deployment.
func (c *EmailConfig) Enabled() bool {
	return c.ResendAPIKey != ""
}

// NotificationConfig bounds the best-effort confirmation send.
type NotificationConfig struct {
	// TimeoutSeconds caps how long a single send attempt may run before
	// it is abandoned and treated as a failed-but-ignored send.
	TimeoutSeconds int `mapstructure:"TIMEOUT_SECONDS"`
}

// RedisConfig holds Redis connection details for rate limiting. An empty
// address disables rate limiting.
type RedisConfig struct {
	Address  string `mapstructure:"ADDRESS"`
	Password string `mapstructure:"PASSWORD"`
	DB       int    `mapstructure:"DB"`
}

// Enabled reports whether rate limiting is configured.
func (c *RedisConfig) Enabled() bool {
	return c.Address != ""
}

// RateLimitConfig holds limits for the submit endpoint.
type RateLimitConfig struct {
	SubmitRequestsPerMinute int `mapstructure:"SUBMIT_REQUESTS_PER_MINUTE"`
}

// WorkerPoolConfig holds configuration for the notification worker pool.
type WorkerPoolConfig struct {
	MaxWorkers             int `mapstructure:"MAX_WORKERS"`
	QueueSize              int `mapstructure:"QUEUE_SIZE"`
	ShutdownTimeoutSeconds int `mapstructure:"SHUTDOWN_TIMEOUT_SECONDS"`
}

// Config aggregates all configuration sections.
type Config struct {
	Server       ServerConfig       `mapstructure:"SERVER"`
	Database     DatabaseConfig     `mapstructure:"DATABASE"`
	Email        EmailConfig        `mapstructure:"EMAIL"`
	Notification NotificationConfig `mapstructure:"NOTIFICATION"`
	Redis        RedisConfig        `mapstructure:"REDIS"`
	RateLimit    RateLimitConfig    `mapstructure:"RATE_LIMIT"`
	WorkerPool   WorkerPoolConfig   `mapstructure:"WORKER_POOL"`
}

// IsProduction returns true when running in production.
func (c *Config) IsProduction() bool {
	return c.Server.Environment == EnvProduction
}

func bindEnvVars(v *viper.Viper, bindings [][2]string) error {
	for _, b := range bindings {
		if err := v.BindEnv(b[0], b[1]); err != nil {
			return fmt.Errorf("failed to bind %s: %w", b[0], err)
		}
	}
	return nil
}

// LoadConfig loads configuration from environment variables using Viper,
// applies defaults, unmarshals into Config, and validates it.
func LoadConfig() (*Config, error) {
	v := viper.New()
	log := logger.GetLogger()

	v.SetDefault("SERVER.ENVIRONMENT", EnvDevelopment)
	v.SetDefault("SERVER.PORT", "8080")
	v.SetDefault("SERVER.ALLOWED_ORIGINS", []string{"*"})
	v.SetDefault("DATABASE.URL", "")
	v.SetDefault("DATABASE.MAX_OPEN_CONNS", 5)
	v.SetDefault("EMAIL.FROM_ADDRESS", "reviews@lumicare.example")
	v.SetDefault("EMAIL.FROM_NAME", "Lumicare Reviews")
	v.SetDefault("EMAIL.RESEND_API_KEY", "")
	v.SetDefault("NOTIFICATION.TIMEOUT_SECONDS", 10)
	v.SetDefault("REDIS.ADDRESS", "")
	v.SetDefault("REDIS.PASSWORD", "")
	v.SetDefault("REDIS.DB", 0)
	v.SetDefault("RATE_LIMIT.SUBMIT_REQUESTS_PER_MINUTE", 10)
	v.SetDefault("WORKER_POOL.MAX_WORKERS", 4)
	v.SetDefault("WORKER_POOL.QUEUE_SIZE", 100)
	v.SetDefault("WORKER_POOL.SHUTDOWN_TIMEOUT_SECONDS", 30)

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	envBindings := [][2]string{
		{"SERVER.ENVIRONMENT", "ENVIRONMENT"},
		{"SERVER.PORT", "PORT"},
		{"SERVER.ALLOWED_ORIGINS", "ALLOWED_ORIGINS"},
		{"DATABASE.URL", "DATABASE_URL"},
		{"DATABASE.MAX_OPEN_CONNS", "DB_MAX_OPEN_CONNS"},
		{"EMAIL.FROM_ADDRESS", "EMAIL_FROM_ADDRESS"},
		{"EMAIL.FROM_NAME", "EMAIL_FROM_NAME"},
		{"EMAIL.RESEND_API_KEY", "RESEND_API_KEY"},
		{"NOTIFICATION.TIMEOUT_SECONDS", "NOTIFICATION_TIMEOUT_SECONDS"},
		{"REDIS.ADDRESS", "REDIS_ADDRESS"},
		{"REDIS.PASSWORD", "REDIS_PASSWORD"},
		{"REDIS.DB", "REDIS_DB"},
		{"RATE_LIMIT.SUBMIT_REQUESTS_PER_MINUTE", "RATE_LIMIT_SUBMIT_REQUESTS_PER_MINUTE"},
		{"WORKER_POOL.MAX_WORKERS", "WORKER_POOL_MAX_WORKERS"},
		{"WORKER_POOL.QUEUE_SIZE", "WORKER_POOL_QUEUE_SIZE"},
		{"WORKER_POOL.SHUTDOWN_TIMEOUT_SECONDS", "WORKER_POOL_SHUTDOWN_TIMEOUT_SECONDS"},
	}

	if err := bindEnvVars(v, envBindings); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config unmarshal failed: %w", err)
	}

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	log.Infow("Configuration loaded",
		"environment", cfg.Server.Environment,
		"port", cfg.Server.Port,
		"database", logger.MaskConnectionString(cfg.Database.URL),
		"email_enabled", cfg.Email.Enabled(),
		"rate_limit_enabled", cfg.Redis.Enabled(),
	)
	return &cfg, nil
}

func validateConfig(cfg *Config) error {
	if cfg.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}
	if cfg.Database.URL == "" {
		return fmt.Errorf("database connection string is required (DATABASE_URL)")
	}
	if _, err := url.Parse(cfg.Database.URL); err != nil {
		return fmt.Errorf("invalid database connection string: %w", err)
	}
	if cfg.Email.Enabled() && cfg.Email.FromAddress == "" {
		return fmt.Errorf("email from address is required when a Resend API key is set")
	}
	if cfg.Notification.TimeoutSeconds <= 0 {
		return fmt.Errorf("notification timeout must be positive")
	}
	if cfg.WorkerPool.MaxWorkers <= 0 || cfg.WorkerPool.QueueSize <= 0 {
		return fmt.Errorf("worker pool size and queue must be positive")
	}
	return nil
}
