// Package config loads the settings of the zdb command from defaults, a
// YAML file, ZDB_ environment variables and command line flags.
package config

import (
	"fmt"
	"log/slog"
	"regexp"
	"strings"
)

// Defaults.
const (
	DefaultDriver    = "sqlite3"
	DefaultDSN       = ":memory:"
	DefaultLogLevel  = "warn"
	DefaultCacheSize = 512
	DefaultOutput    = "auto"
)

// EnvPrefix starts the environment variables read by Load.
const EnvPrefix = "ZDB_"

var prefixPattern = regexp.MustCompile(`^[A-Za-z0-9_]*$`)

// Config holds the settings of the zdb command.
type Config struct {
	// Driver is the database/sql driver, mysql or sqlite3.
	Driver string `koanf:"driver"`
	// DSN is the data source name passed to the driver.
	DSN         string `koanf:"dsn"`
	TablePrefix string `koanf:"table_prefix"`
	SmartJoins  bool   `koanf:"smart_joins"`
	LogLevel    string `koanf:"log_level"`
	CacheSize   int    `koanf:"cache_size"`
	// Output is the format of query results: auto, table or json. Auto
	// picks a table on terminals and JSON otherwise.
	Output string `koanf:"output"`

	// File is the configuration file that was read, if any.
	File string `koanf:"-"`
}

// Validate checks the settings.
func (c *Config) Validate() error {
	switch c.Driver {
	case "mysql", "sqlite3":
	default:
		return fmt.Errorf("unsupported driver %q, expected mysql or sqlite3", c.Driver)
	}
	if !prefixPattern.MatchString(c.TablePrefix) {
		return fmt.Errorf("invalid table_prefix %q: only letters, digits and underscores are allowed", c.TablePrefix)
	}
	if c.CacheSize < 1 {
		return fmt.Errorf("invalid cache_size %d: must be positive", c.CacheSize)
	}
	switch c.Output {
	case "auto", "table", "json":
	default:
		return fmt.Errorf("invalid output %q, expected auto, table or json", c.Output)
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	return nil
}

// Level returns the log level named by LogLevel.
func (c *Config) Level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(c.LogLevel))); err != nil {
		return 0, fmt.Errorf("invalid log_level %q, expected debug, info, warn or error", c.LogLevel)
	}
	return level, nil
}
