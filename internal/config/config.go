// Package config handles resolving configuration.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
	"gopkg.in/yaml.v3"
)

// Supported database drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Config is the resolved configuration of the service.
type Config struct {
	// LogLevel is the minimum level emitted by the logger.
	LogLevel slog.Level `yaml:"log_level"`
	// Address is the host:port the HTTP API listens on.
	Address string `yaml:"address"`
	// PublicURL, if set, is used as the base of all rendered resource links.
	// Otherwise links are derived from the incoming request.
	PublicURL string `yaml:"public_url,omitempty"`
	// Database selects and locates the storage backend.
	Database Database `yaml:"database"`
	// DevMode enables request logging, source locations in logs, and seeds a
	// demo user on startup.
	DevMode bool `yaml:"dev_mode"`
}

// Database configures the storage backend.
type Database struct {
	// Driver is one of sqlite, postgres or memory.
	Driver string `yaml:"driver"`
	// DSN is the file path (sqlite) or connection string (postgres). Ignored
	// for the memory driver.
	DSN string `yaml:"dsn,omitempty"`
}

// Default returns a version of the config with all default values populated.
func Default() *Config {
	return &Config{
		LogLevel: slog.LevelInfo,
		Address:  "localhost:8080",
		Database: Database{
			Driver: DriverSQLite,
			DSN:    filepath.Join(xdg.DataHome, "taskapi", "db.sqlite"),
		},
	}
}

// Load loads a YAML configuration file from a path, merges it with defaults, and
// validates it for completeness.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec // allow the config file to be loaded from anywhere
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err = dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to unmarshal config file at %s: %w", path, err)
	}
	if err = cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// Marshal renders the config as YAML, suitable for writing a config file.
func (c *Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}

// Validate checks the config for completeness and consistency.
func (c *Config) Validate() error {
	var errs []error
	if c.Address == "" {
		errs = append(errs, errors.New("address is required"))
	}
	if c.PublicURL != "" {
		if u, err := url.Parse(c.PublicURL); err != nil || !u.IsAbs() || u.Host == "" {
			errs = append(errs, fmt.Errorf("public_url must be an absolute URL: %q", c.PublicURL))
		}
	}
	switch c.Database.Driver {
	case DriverSQLite, DriverPostgres:
		if c.Database.DSN == "" {
			errs = append(errs, fmt.Errorf("database.dsn is required for the %s driver", c.Database.Driver))
		}
	case DriverMemory:
	default:
		errs = append(errs, fmt.Errorf("unknown database.driver %q", c.Database.Driver))
	}
	return errors.Join(errs...)
}
