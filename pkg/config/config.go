package config

import (
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config holds all configuration for leadvault-engine.
// Configuration can come from YAML file (config.yaml) or environment variables.
// Environment variables always override YAML values for fields that support both.
// Secrets (database password, session secret) must only come from environment variables.
type Config struct {
	// Server configuration
	BindAddr string `yaml:"bind_addr" env:"BIND_ADDR" env-default:"127.0.0.1"`
	Port     string `yaml:"port" env:"PORT" env-default:"8080"`
	Env      string `yaml:"env" env:"ENVIRONMENT" env-default:"local"`
	Version  string `yaml:"-"` // Set at load time, not from config

	// MigrationsPath is the directory containing SQL migration files.
	MigrationsPath string `yaml:"migrations_path" env:"MIGRATIONS_PATH" env-default:"migrations"`

	// Database configuration (PostgreSQL)
	Database DatabaseConfig `yaml:"database"`

	// Session cookie configuration
	Session SessionConfig `yaml:"session"`

	// Ingestion pipeline tuning
	Ingest IngestConfig `yaml:"ingest"`
}

// DatabaseConfig holds PostgreSQL database configuration.
type DatabaseConfig struct {
	Host           string `yaml:"host" env:"PGHOST" env-default:"localhost"`
	Port           int    `yaml:"port" env:"PGPORT" env-default:"5432"`
	User           string `yaml:"user" env:"PGUSER" env-default:"leadvault"`
	Password       string `yaml:"-" env:"PGPASSWORD"` // Secret - not in YAML
	Database       string `yaml:"database" env:"PGDATABASE" env-default:"leadvault"`
	MaxConnections int32  `yaml:"max_connections" env:"PGMAX_CONNECTIONS" env-default:"25"`
	SSLMode        string `yaml:"ssl_mode" env:"PGSSLMODE" env-default:"disable"`
}

// SessionConfig holds cookie session settings.
type SessionConfig struct {
	// Secret signs session cookies. Any passphrase works; it is hashed to a
	// 32-byte key. Must be stable across restarts and replicas.
	Secret string `yaml:"-" env:"SESSION_SECRET"`

	// MaxAgeSeconds is the session cookie lifetime. Default is 7 days.
	MaxAgeSeconds int `yaml:"max_age_seconds" env:"SESSION_MAX_AGE_SECONDS" env-default:"604800"`

	// SecureCookies marks cookies Secure (HTTPS only). Disable for local development.
	SecureCookies bool `yaml:"secure_cookies" env:"SESSION_SECURE_COOKIES" env-default:"true"`
}

// IngestConfig holds ingestion pipeline tuning.
//
// The batch sizes exist because PostgreSQL bounds both statement parameter
// counts and practical IN-clause sizes; 1000 rows per statement keeps multi-row
// inserts and existence checks comfortably under those limits.
type IngestConfig struct {
	// InsertBatchSize is the maximum number of records per INSERT statement.
	InsertBatchSize int `yaml:"insert_batch_size" env:"INGEST_INSERT_BATCH_SIZE" env-default:"1000"`

	// DedupeBatchSize is the maximum number of keys per existence-check query.
	DedupeBatchSize int `yaml:"dedupe_batch_size" env:"INGEST_DEDUPE_BATCH_SIZE" env-default:"1000"`

	// TxTimeoutSeconds bounds the persist transaction. Large files need more
	// than the default request budget.
	TxTimeoutSeconds int `yaml:"tx_timeout_seconds" env:"INGEST_TX_TIMEOUT_SECONDS" env-default:"30"`

	// MaxErrorMessageLen caps the error message stored on a failed upload so
	// verbose driver errors cannot grow the audit table unboundedly.
	MaxErrorMessageLen int `yaml:"max_error_message_len" env:"INGEST_MAX_ERROR_MESSAGE_LEN" env-default:"500"`
}

// TxTimeout returns the persist transaction timeout as a duration.
func (c *IngestConfig) TxTimeout() time.Duration {
	return time.Duration(c.TxTimeoutSeconds) * time.Second
}

// Load reads configuration from config.yaml with environment variable overrides.
// The version parameter is injected at build time and set on the returned Config.
// If config.yaml does not exist, configuration comes from environment variables
// and defaults alone.
func Load(version string) (*Config, error) {
	cfg := &Config{
		Version: version,
	}

	if _, err := os.Stat("config.yaml"); err == nil {
		if err := cleanenv.ReadConfig("config.yaml", cfg); err != nil {
			return nil, fmt.Errorf("failed to read config.yaml: %w", err)
		}
	} else {
		if err := cleanenv.ReadEnv(cfg); err != nil {
			return nil, fmt.Errorf("failed to read environment: %w", err)
		}
	}

	if cfg.Session.Secret == "" {
		return nil, fmt.Errorf("SESSION_SECRET must be set")
	}

	return cfg, nil
}

// ConnectionString returns a PostgreSQL connection string.
func (c *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}
