package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// Backend selects the persistence layer
type Backend string

const (
	BackendSQLite Backend = "sqlite"
	BackendCSV    Backend = "csv"
)

// Config holds all configuration options for the schedule keeper
type Config struct {
	Database    DatabaseConfig    `yaml:"database"`
	Reconcile   ReconcileConfig   `yaml:"reconcile"`
	Application ApplicationConfig `yaml:"application"`
}

// DatabaseConfig holds persistence configuration
type DatabaseConfig struct {
	Backend      Backend       `yaml:"backend" env:"SK_DB_BACKEND"`
	Dir          string        `yaml:"dir" env:"SK_DB_DIR"`
	Filename     string        `yaml:"filename" env:"SK_DB_FILENAME"`
	CSVDir       string        `yaml:"csv_dir" env:"SK_CSV_DIR"`
	QueryTimeout time.Duration `yaml:"query_timeout" env:"SK_DB_QUERY_TIMEOUT"`
	WriteTimeout time.Duration `yaml:"write_timeout" env:"SK_DB_WRITE_TIMEOUT"`
}

// ReconcileConfig holds reconciliation defaults
type ReconcileConfig struct {
	// DefaultPolicy applies when the reconcile command is run without an
	// explicit policy flag. One of reject, skip, force.
	DefaultPolicy string `yaml:"default_policy" env:"SK_DEFAULT_POLICY"`
	// RecurrenceHorizonDays bounds how far an open-ended recurring series is
	// expanded when checking conflicts.
	RecurrenceHorizonDays int `yaml:"recurrence_horizon_days" env:"SK_RECURRENCE_HORIZON_DAYS"`
}

// ApplicationConfig holds application-level configuration
type ApplicationConfig struct {
	Timeout time.Duration `yaml:"timeout" env:"SK_APP_TIMEOUT"`
	Verbose bool          `yaml:"verbose" env:"SK_APP_VERBOSE"`
}

// NewConfig creates a new configuration with sensible defaults
func NewConfig() *Config {
	homeDir, _ := os.UserHomeDir()
	defaultDir := filepath.Join(homeDir, ".sk")

	return &Config{
		Database: DatabaseConfig{
			Backend:      BackendSQLite,
			Dir:          defaultDir,
			Filename:     "schedule.db",
			CSVDir:       filepath.Join(defaultDir, "csv"),
			QueryTimeout: 10 * time.Second,
			WriteTimeout: 5 * time.Second,
		},
		Reconcile: ReconcileConfig{
			DefaultPolicy:         "reject",
			RecurrenceHorizonDays: 365,
		},
		Application: ApplicationConfig{
			Timeout: 60 * time.Second,
			Verbose: false,
		},
	}
}

// GetDatabasePath returns the full path to the SQLite database file
func (c *Config) GetDatabasePath() string {
	return filepath.Join(c.Database.Dir, c.Database.Filename)
}

// LoadFromEnvironment overrides configuration from environment variables
func (c *Config) LoadFromEnvironment() error {
	if backend := os.Getenv("SK_DB_BACKEND"); backend != "" {
		c.Database.Backend = Backend(backend)
	}
	if dir := os.Getenv("SK_DB_DIR"); dir != "" {
		c.Database.Dir = dir
	}
	if filename := os.Getenv("SK_DB_FILENAME"); filename != "" {
		c.Database.Filename = filename
	}
	if dir := os.Getenv("SK_CSV_DIR"); dir != "" {
		c.Database.CSVDir = dir
	}
	if timeout := os.Getenv("SK_DB_QUERY_TIMEOUT"); timeout != "" {
		if d, err := time.ParseDuration(timeout); err == nil {
			c.Database.QueryTimeout = d
		}
	}
	if timeout := os.Getenv("SK_DB_WRITE_TIMEOUT"); timeout != "" {
		if d, err := time.ParseDuration(timeout); err == nil {
			c.Database.WriteTimeout = d
		}
	}
	if policy := os.Getenv("SK_DEFAULT_POLICY"); policy != "" {
		c.Reconcile.DefaultPolicy = policy
	}
	if horizon := os.Getenv("SK_RECURRENCE_HORIZON_DAYS"); horizon != "" {
		if n, err := strconv.Atoi(horizon); err == nil {
			c.Reconcile.RecurrenceHorizonDays = n
		}
	}
	if timeout := os.Getenv("SK_APP_TIMEOUT"); timeout != "" {
		if d, err := time.ParseDuration(timeout); err == nil {
			c.Application.Timeout = d
		}
	}
	if verbose := os.Getenv("SK_APP_VERBOSE"); verbose != "" {
		if b, err := strconv.ParseBool(verbose); err == nil {
			c.Application.Verbose = b
		}
	}
	return nil
}

// Validate checks the configuration for invalid values
func (c *Config) Validate() error {
	switch c.Database.Backend {
	case BackendSQLite, BackendCSV:
	default:
		return &ConfigError{Field: "database.backend", Message: fmt.Sprintf("unknown backend %q", c.Database.Backend)}
	}
	if c.Database.Backend == BackendSQLite {
		if c.Database.Dir == "" {
			return &ConfigError{Field: "database.dir", Message: "directory cannot be empty"}
		}
		if c.Database.Filename == "" {
			return &ConfigError{Field: "database.filename", Message: "filename cannot be empty"}
		}
	}
	if c.Database.Backend == BackendCSV && c.Database.CSVDir == "" {
		return &ConfigError{Field: "database.csv_dir", Message: "directory cannot be empty"}
	}
	switch c.Reconcile.DefaultPolicy {
	case "reject", "error", "skip", "force":
	default:
		return &ConfigError{Field: "reconcile.default_policy", Message: fmt.Sprintf("unknown policy %q", c.Reconcile.DefaultPolicy)}
	}
	if c.Reconcile.RecurrenceHorizonDays <= 0 {
		return &ConfigError{Field: "reconcile.recurrence_horizon_days", Message: "must be positive"}
	}
	if c.Application.Timeout <= 0 {
		return &ConfigError{Field: "application.timeout", Message: "must be positive"}
	}
	return nil
}

// ConfigError represents a configuration validation error
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config %s: %s", e.Field, e.Message)
}
