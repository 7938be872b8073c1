// Package config loads process configuration from the environment, optionally
// seeded from .env files.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// DefaultEnvFiles are read in order when present; later files override earlier ones.
var DefaultEnvFiles = []string{".env", ".env.local"}

// Server captures HTTP server level configuration.
type Server struct {
	Addr            string        `env:"METROLOGI_ADDR" envDefault:":8080"`
	ReadTimeout     time.Duration `env:"SERVER_READ_TIMEOUT" envDefault:"10s"`
	WriteTimeout    time.Duration `env:"SERVER_WRITE_TIMEOUT" envDefault:"15s"`
	IdleTimeout     time.Duration `env:"SERVER_IDLE_TIMEOUT" envDefault:"60s"`
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

// DatabaseConfig points at the relational backend. An empty DSN selects the
// in-memory stores.
type DatabaseConfig struct {
	DSN             string        `env:"DATABASE_URL"`
	MaxOpenConns    int           `env:"DATABASE_MAX_OPEN_CONNS" envDefault:"10"`
	MaxIdleConns    int           `env:"DATABASE_MAX_IDLE_CONNS" envDefault:"5"`
	ConnMaxLifetime time.Duration `env:"DATABASE_CONN_MAX_LIFETIME" envDefault:"30m"`
}

// RedisConfig holds Redis connection settings. An empty URL keeps sessions in memory.
type RedisConfig struct {
	URL          string        `env:"REDIS_URL"`
	PoolSize     int           `env:"REDIS_POOL_SIZE" envDefault:"10"`
	MinIdleConns int           `env:"REDIS_MIN_IDLE_CONNS" envDefault:"2"`
	DialTimeout  time.Duration `env:"REDIS_DIAL_TIMEOUT" envDefault:"5s"`
	ReadTimeout  time.Duration `env:"REDIS_READ_TIMEOUT" envDefault:"3s"`
	WriteTimeout time.Duration `env:"REDIS_WRITE_TIMEOUT" envDefault:"3s"`
}

// KafkaConfig configures the audit event sink. No brokers keeps audit in memory.
type KafkaConfig struct {
	Brokers           []string `env:"KAFKA_BROKERS" envSeparator:","`
	AuditTopic        string   `env:"KAFKA_AUDIT_TOPIC" envDefault:"metrologi.audit"`
	Partitions        int32    `env:"KAFKA_TOPIC_PARTITIONS" envDefault:"1"`
	ReplicationFactor int16    `env:"KAFKA_TOPIC_REPLICATION" envDefault:"1"`
}

// AuthConfig configures the single-admin identity provider and sessions.
type AuthConfig struct {
	JWTSigningKey     string        `env:"JWT_SIGNING_KEY" envDefault:"dev-secret-key-change-in-production"`
	JWTIssuer         string        `env:"JWT_ISSUER" envDefault:"metrologi"`
	SessionTTL        time.Duration `env:"SESSION_TTL" envDefault:"8h"`
	AdminEmail        string        `env:"ADMIN_EMAIL" envDefault:"admin@metrologi.local"`
	AdminPasswordHash string        `env:"ADMIN_PASSWORD_HASH"`
}

// ScannerConfig drives the calibration expiry scanner.
type ScannerConfig struct {
	Enabled       bool          `env:"EXPIRY_SCANNER_ENABLED" envDefault:"true"`
	Interval      time.Duration `env:"EXPIRY_SCANNER_INTERVAL" envDefault:"1h"`
	WarningWindow time.Duration `env:"EXPIRY_WARNING_WINDOW" envDefault:"720h"`
}

// LogConfig selects the slog handler.
type LogConfig struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info"`
	Format string `env:"LOG_FORMAT" envDefault:"json"`
}

// Config is the full process configuration.
type Config struct {
	Environment     string `env:"ENVIRONMENT" envDefault:"development"`
	Server          Server
	Database        DatabaseConfig
	Redis           RedisConfig
	Kafka           KafkaConfig
	Auth            AuthConfig
	Scanner         ScannerConfig
	Log             LogConfig
	MetricsEnabled  bool `env:"METRICS_ENABLED" envDefault:"true"`
	TracingEnabled  bool `env:"TRACING_ENABLED" envDefault:"false"`
	DefaultPageSize int  `env:"DEFAULT_PAGE_SIZE" envDefault:"10"`
}

const Production = "production"

// LoadEnv loads whichever of envFiles exist into the process environment.
// It returns how many files were read.
func LoadEnv(envFiles []string) (int, error) {
	existing := make([]string, 0, len(envFiles))
	for _, file := range envFiles {
		if _, err := os.Stat(file); err == nil {
			existing = append(existing, file)
		}
	}
	if len(existing) == 0 {
		return 0, nil
	}
	return len(existing), godotenv.Overload(existing...)
}

// Load reads .env files and parses the environment into a Config.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = DefaultEnvFiles
	}
	if _, err := LoadEnv(envFiles); err != nil {
		return nil, fmt.Errorf("load env files: %w", err)
	}
	return FromEnv()
}

// FromEnv parses the current environment without touching .env files.
func FromEnv() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects combinations that cannot run.
func (c *Config) Validate() error {
	if c.DefaultPageSize <= 0 {
		return errors.New("DEFAULT_PAGE_SIZE must be positive")
	}
	if c.Scanner.Enabled && c.Scanner.Interval <= 0 {
		return errors.New("EXPIRY_SCANNER_INTERVAL must be positive when the scanner is enabled")
	}
	if c.Auth.SessionTTL <= 0 {
		return errors.New("SESSION_TTL must be positive")
	}
	if c.IsProduction() {
		if c.Auth.AdminPasswordHash == "" {
			return errors.New("ADMIN_PASSWORD_HASH is required in production")
		}
		if c.Auth.JWTSigningKey == "dev-secret-key-change-in-production" {
			return errors.New("JWT_SIGNING_KEY must be overridden in production")
		}
	}
	return nil
}

// IsProduction reports whether the process runs with production safeguards.
func (c *Config) IsProduction() bool {
	return c.Environment == Production
}
