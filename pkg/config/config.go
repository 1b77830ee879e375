package config

import (
	"fmt"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config holds all configuration for dosetrack-engine.
// Configuration can come from YAML file (config.yaml) or environment variables.
// Environment variables always override YAML values for fields that support both.
// Secrets (passwords, keys, webhook URLs) must only come from environment variables.
type Config struct {
	// Server configuration
	BindAddr string `yaml:"bind_addr" env:"BIND_ADDR" env-default:"127.0.0.1"`
	Port     string `yaml:"port" env:"PORT" env-default:"8080"`
	Env      string `yaml:"env" env:"ENVIRONMENT" env-default:"local"`
	Version  string `yaml:"-"` // Set at load time, not from config

	// Database configuration (PostgreSQL)
	Database DatabaseConfig `yaml:"database"`

	// Interaction classifier endpoint
	AI AIConfig `yaml:"ai"`

	// Monitoring webhook for job outcome notifications
	Monitoring MonitoringConfig `yaml:"monitoring"`

	// Background worker settings
	Worker WorkerConfig `yaml:"worker"`
}

// DatabaseConfig holds PostgreSQL database configuration.
type DatabaseConfig struct {
	Host           string `yaml:"host" env:"PGHOST" env-default:"localhost"`
	Port           int    `yaml:"port" env:"PGPORT" env-default:"5432"`
	User           string `yaml:"user" env:"PGUSER" env-default:"dosetrack"`
	Password       string `yaml:"-" env:"PGPASSWORD"` // Secret - not in YAML
	Database       string `yaml:"database" env:"PGDATABASE" env-default:"dosetrack_engine"`
	MaxConnections int32  `yaml:"max_connections" env:"PGMAX_CONNECTIONS" env-default:"25"`
	SSLMode        string `yaml:"ssl_mode" env:"PGSSLMODE" env-default:"disable"`
	MigrationsPath string `yaml:"migrations_path" env:"PGMIGRATIONS_PATH" env-default:"migrations"`
}

// AIConfig holds the interaction classifier endpoint configuration.
// Model and temperature are fixed per environment, never per call.
type AIConfig struct {
	Endpoint    string  `yaml:"endpoint" env:"AI_ENDPOINT" env-default:"https://api.openai.com/v1"`
	Model       string  `yaml:"model" env:"AI_MODEL" env-default:"gpt-4o-mini"`
	APIKey      string  `yaml:"-" env:"AI_API_KEY"` // Secret - not in YAML
	Temperature float64 `yaml:"temperature" env:"AI_TEMPERATURE" env-default:"0.2"`
}

// MonitoringConfig holds the outcome notification webhook settings.
// When disabled or the URL is empty, all notifications are no-ops.
type MonitoringConfig struct {
	Enabled    bool   `yaml:"enabled" env:"MONITORING_ENABLED" env-default:"false"`
	WebhookURL string `yaml:"-" env:"MONITORING_WEBHOOK_URL"` // Secret - not in YAML
}

// IsAvailable returns true if monitoring notifications are configured.
func (c *MonitoringConfig) IsAvailable() bool {
	return c.Enabled && c.WebhookURL != ""
}

// WorkerConfig holds background worker pool settings.
type WorkerConfig struct {
	// MaxConcurrentChecks limits interaction check jobs running in parallel.
	MaxConcurrentChecks int `yaml:"max_concurrent_checks" env:"WORKER_MAX_CONCURRENT_CHECKS" env-default:"4"`
}

// Load reads configuration from config.yaml with environment variable overrides.
// The version parameter is injected at build time and set on the returned Config.
func Load(version string) (*Config, error) {
	return LoadFrom("config.yaml", version)
}

// LoadFrom reads configuration from the given YAML file path.
func LoadFrom(path string, version string) (*Config, error) {
	cfg := &Config{
		Version: version,
	}

	if err := cleanenv.ReadConfig(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	if cfg.Worker.MaxConcurrentChecks < 1 {
		return nil, fmt.Errorf("worker.max_concurrent_checks must be at least 1")
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
