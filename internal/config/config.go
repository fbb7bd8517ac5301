// Package config loads service settings from a YAML or JSON file with
// RENTAL_-prefixed environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix marks environment variables that override file settings.
// Nested keys use a double underscore: RENTAL_SERVER__PORT=9090.
const EnvPrefix = "RENTAL_"

// Config is the full service configuration.
type Config struct {
	Server   ServerConfig   `json:"server"`
	Database DatabaseConfig `json:"database"`
	Logging  LoggingConfig  `json:"logging"`
	Metrics  MetricsConfig  `json:"metrics"`
}

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Port                int `json:"port"`
	ReadTimeoutSeconds  int `json:"read_timeout_seconds"`
	WriteTimeoutSeconds int `json:"write_timeout_seconds"`
	IdleTimeoutSeconds  int `json:"idle_timeout_seconds"`
}

// SetDefaults fills unset listener settings.
func (c *ServerConfig) SetDefaults() {
	if c.Port == 0 {
		c.Port = 8080
	}
	if c.ReadTimeoutSeconds == 0 {
		c.ReadTimeoutSeconds = 15
	}
	if c.WriteTimeoutSeconds == 0 {
		c.WriteTimeoutSeconds = 15
	}
	if c.IdleTimeoutSeconds == 0 {
		c.IdleTimeoutSeconds = 60
	}
}

// Validate checks the port range and timeouts.
func (c ServerConfig) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Port)
	}
	if c.ReadTimeoutSeconds < 0 || c.WriteTimeoutSeconds < 0 || c.IdleTimeoutSeconds < 0 {
		return errors.New("server timeouts must not be negative")
	}
	return nil
}

// Addr is the listen address, e.g. ":8080".
func (c ServerConfig) Addr() string { return fmt.Sprintf(":%d", c.Port) }

// ReadTimeout returns ReadTimeoutSeconds as a duration.
func (c ServerConfig) ReadTimeout() time.Duration {
	return time.Duration(c.ReadTimeoutSeconds) * time.Second
}

// WriteTimeout returns WriteTimeoutSeconds as a duration.
func (c ServerConfig) WriteTimeout() time.Duration {
	return time.Duration(c.WriteTimeoutSeconds) * time.Second
}

// IdleTimeout returns IdleTimeoutSeconds as a duration.
func (c ServerConfig) IdleTimeout() time.Duration {
	return time.Duration(c.IdleTimeoutSeconds) * time.Second
}

// DatabaseConfig holds PostgreSQL settings for the snapshot store. The store
// is only used when Enabled is true; otherwise state lives for the process
// lifetime only.
type DatabaseConfig struct {
	Enabled         bool   `json:"enabled"`
	Host            string `json:"host"`
	Port            int    `json:"port"`
	User            string `json:"user"`
	Password        string `json:"password"`
	Name            string `json:"name"`
	SSLMode         string `json:"sslmode"`
	MaxConns        int32  `json:"max_conns"`
	ConnectAttempts int    `json:"connect_attempts"`
}

// SetDefaults fills unset connection settings.
func (c *DatabaseConfig) SetDefaults() {
	if c.Host == "" {
		c.Host = "localhost"
	}
	if c.Port == 0 {
		c.Port = 5432
	}
	if c.User == "" {
		c.User = "postgres"
	}
	if c.Name == "" {
		c.Name = "vehiclerental"
	}
	if c.SSLMode == "" {
		c.SSLMode = "disable"
	}
	if c.MaxConns == 0 {
		c.MaxConns = 10
	}
	if c.ConnectAttempts == 0 {
		c.ConnectAttempts = 5
	}
}

// Validate checks the connection settings when the store is enabled.
func (c DatabaseConfig) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid database port: %d", c.Port)
	}
	if c.Name == "" {
		return errors.New("database name is required")
	}
	if c.MaxConns < 1 {
		return fmt.Errorf("database max_conns must be positive, got %d", c.MaxConns)
	}
	return nil
}

// DSN builds a libpq-compatible connection string.
func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}

// LoggingConfig selects the minimum log level.
type LoggingConfig struct {
	Level string `json:"level"`
}

// SetDefaults selects the info level when none is set.
func (c *LoggingConfig) SetDefaults() {
	if c.Level == "" {
		c.Level = "info"
	}
}

// Validate accepts debug, info, warn and error.
func (c LoggingConfig) Validate() error {
	switch strings.ToLower(c.Level) {
	case "debug", "info", "warn", "error":
		return nil
	}
	return fmt.Errorf("unknown log level %s", c.Level)
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path"`
}

// SetDefaults serves metrics at /metrics unless a path is set.
func (c *MetricsConfig) SetDefaults() {
	if c.Path == "" {
		c.Path = "/metrics"
	}
}

// Validate requires an absolute path.
func (c MetricsConfig) Validate() error {
	if !strings.HasPrefix(c.Path, "/") {
		return fmt.Errorf("metrics path must start with /: %q", c.Path)
	}
	return nil
}

// Load reads path (".yaml", ".yml" or ".json") and then applies environment
// overrides. An empty path skips the file and uses defaults plus environment.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	if path != "" {
		var parser koanf.Parser
		switch strings.ToLower(filepath.Ext(path)) {
		case ".yaml", ".yml":
			parser = yaml.Parser()
		case ".json":
			parser = json.Parser()
		default:
			return nil, fmt.Errorf("unsupported config format: %s", filepath.Ext(path))
		}
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("config file: %w", err)
		}
		if err := k.Load(file.Provider(path), parser); err != nil {
			return nil, fmt.Errorf("load %s: %w", path, err)
		}
	}
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), strings.ToLower(EnvPrefix))
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// SetDefaults fills every section.
func (c *Config) SetDefaults() {
	c.Server.SetDefaults()
	c.Database.SetDefaults()
	c.Logging.SetDefaults()
	c.Metrics.SetDefaults()
}

// Validate checks every section.
func (c *Config) Validate() error {
	if err := c.Server.Validate(); err != nil {
		return fmt.Errorf("server: %w", err)
	}
	if err := c.Database.Validate(); err != nil {
		return fmt.Errorf("database: %w", err)
	}
	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging: %w", err)
	}
	if err := c.Metrics.Validate(); err != nil {
		return fmt.Errorf("metrics: %w", err)
	}
	return nil
}
