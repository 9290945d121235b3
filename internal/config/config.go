// Package config handles userctl configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// Config represents configuration stored in ~/.config/userctl/config.yml.
// Environment variables prefixed with USERCTL_ override file values.
type Config struct {
	Database Database `yaml:"database" envPrefix:"DB_"`
	Log      Log      `yaml:"log" envPrefix:"LOG_"`
}

// Database selects the relational store.
type Database struct {
	Driver string `yaml:"driver" env:"DRIVER"` // sqlite or postgres
	DSN    string `yaml:"dsn" env:"DSN"`       // File path for sqlite, connection URL for postgres
}

// Log controls diagnostic output on stderr.
type Log struct {
	Level  string `yaml:"level" env:"LEVEL"`   // logrus level name
	Format string `yaml:"format" env:"FORMAT"` // text or json
}

const (
	// ConfigDir is the directory name under XDG_CONFIG_HOME.
	ConfigDir = "userctl"
	// ConfigFile is the config file name.
	ConfigFile = "config.yml"
	// EnvPrefix prefixes every environment override.
	EnvPrefix = "USERCTL_"
)

// Defaults.
const (
	DefaultDriver    = "sqlite"
	DefaultDSN       = "users.db"
	DefaultLogLevel  = "warn"
	DefaultLogFormat = "text"
)

// ValidDrivers lists the supported database drivers.
var ValidDrivers = []string{"sqlite", "postgres"}

// ValidLogFormats lists the supported log formats.
var ValidLogFormats = []string{"text", "json"}

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid configuration")

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		Database: Database{Driver: DefaultDriver, DSN: DefaultDSN},
		Log:      Log{Level: DefaultLogLevel, Format: DefaultLogFormat},
	}
}

// Path returns the path to the default config file.
// Respects XDG_CONFIG_HOME, defaults to ~/.config/userctl/config.yml.
func Path() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, ConfigDir, ConfigFile)
}

// Load reads the default config file, applies environment overrides and
// validates the result. A missing default file is not an error.
func Load() (*Config, error) {
	cfg := Default()

	if path := Path(); path != "" {
		if err := cfg.readFile(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
	}

	return cfg.finish()
}

// LoadFile is like Load but reads an explicit path, which must exist.
func LoadFile(path string) (*Config, error) {
	cfg := Default()
	if err := cfg.readFile(ExpandPath(path)); err != nil {
		return nil, err
	}
	return cfg.finish()
}

func (c *Config) readFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parsing config %s: %w", path, err)
	}
	return nil
}

func (c *Config) finish() (*Config, error) {
	if err := env.ParseWithOptions(c, env.Options{Prefix: EnvPrefix}); err != nil {
		return nil, fmt.Errorf("reading environment: %w", err)
	}
	c.Normalize()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Normalize lower-cases enumerated values and expands ~ in SQLite paths.
func (c *Config) Normalize() {
	c.Database.Driver = strings.ToLower(strings.TrimSpace(c.Database.Driver))
	c.Log.Level = strings.ToLower(strings.TrimSpace(c.Log.Level))
	c.Log.Format = strings.ToLower(strings.TrimSpace(c.Log.Format))
	if c.Database.Driver == "sqlite" {
		c.Database.DSN = ExpandPath(c.Database.DSN)
	}
}

// Validate checks that the configuration can be used to open a store.
func (c *Config) Validate() error {
	if !slices.Contains(ValidDrivers, c.Database.Driver) {
		return fmt.Errorf("%w: database driver %q (must be one of: %s)",
			ErrInvalid, c.Database.Driver, strings.Join(ValidDrivers, ", "))
	}
	if strings.TrimSpace(c.Database.DSN) == "" {
		return fmt.Errorf("%w: database dsn is required", ErrInvalid)
	}
	if !slices.Contains(ValidLogFormats, c.Log.Format) {
		return fmt.Errorf("%w: log format %q (must be one of: %s)",
			ErrInvalid, c.Log.Format, strings.Join(ValidLogFormats, ", "))
	}
	return nil
}

// ExpandPath expands ~ to the user's home directory.
func ExpandPath(path string) string {
	if len(path) == 0 || path[0] != '~' {
		return path
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return path // Return original if we can't get home directory
	}

	return filepath.Join(home, path[1:])
}
