// Package config resolves cadence settings from flags, the environment, an
// optional .env file and the YAML config file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/mitchellh/go-homedir"
	"gopkg.in/yaml.v3"

	"github.com/julianstephens/cadence/internal/constants"
)

// Config is the resolved configuration
type Config struct {
	// Database is a SQLite file path or a PostgreSQL connection string
	Database         string       `yaml:"database,omitempty"`
	Debug            bool         `yaml:"debug,omitempty"`
	LogDir           string       `yaml:"log_dir,omitempty"`
	LogLevel         string       `yaml:"log_level,omitempty"`
	BackupBeforeSync bool         `yaml:"backup_before_sync,omitempty"`
	Server           ServerConfig `yaml:"server,omitempty"`

	// File is the config file that was read, if any
	File string `yaml:"-"`
}

type ServerConfig struct {
	Addr string `yaml:"addr,omitempty"`
}

// Overrides carries values given on the command line. Empty fields defer to
// lower-precedence sources.
type Overrides struct {
	Database   string
	ConfigFile string
	Debug      bool
	EnvFile    string
}

// Default returns the built-in configuration
func Default() Config {
	return Config{
		Server: ServerConfig{Addr: constants.DefaultServerAddr},
	}
}

// Load resolves the configuration. Precedence, highest first: overrides,
// environment, .env, config file, defaults.
func Load(o Overrides) (Config, error) {
	envFile := o.EnvFile
	if envFile == "" {
		envFile = ".env"
	}
	// godotenv never overrides variables that are already set
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("failed to load %s: %w", envFile, err)
	}

	cfg := Default()

	path := firstNonEmpty(o.ConfigFile, os.Getenv(constants.EnvConfigFile), constants.DefaultConfigFile)
	path, err := homedir.Expand(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to expand config path: %w", err)
	}
	if err := cfg.readFile(path); err != nil {
		// A missing default file is fine; an explicitly requested one is not
		explicit := o.ConfigFile != "" || os.Getenv(constants.EnvConfigFile) != ""
		if !errors.Is(err, os.ErrNotExist) || explicit {
			return Config{}, err
		}
	}

	if v := os.Getenv(constants.EnvDatabase); v != "" {
		cfg.Database = v
	}
	if v := os.Getenv(constants.EnvDebug); v != "" {
		debug, err := strconv.ParseBool(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid %s value %q: %w", constants.EnvDebug, v, err)
		}
		cfg.Debug = debug
	}

	if o.Database != "" {
		cfg.Database = o.Database
	}
	if o.Debug {
		cfg.Debug = true
	}

	if cfg.Server.Addr == "" {
		cfg.Server.Addr = constants.DefaultServerAddr
	}
	if cfg.Database, err = expandPath(cfg.Database); err != nil {
		return Config{}, err
	}
	if cfg.LogDir, err = expandPath(cfg.LogDir); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) readFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	c.File = path
	return nil
}

// Save writes c as YAML to path, creating parent directories
func Save(c Config, path string) error {
	path, err := homedir.Expand(path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// DefaultDatabasePath is the SQLite file used when nothing else is configured
func DefaultDatabasePath() (string, error) {
	return homedir.Expand(constants.DefaultConfigPath)
}

// ConfigDir is where logs, backups and the sync lock live for a database
// path. Connection strings fall back to the default config directory.
func ConfigDir(database string) (string, error) {
	if database == "" || strings.Contains(database, "://") || strings.Contains(database, "=") {
		return homedir.Expand(constants.DefaultConfigDir)
	}
	return filepath.Dir(database), nil
}

// expandPath expands a leading ~ but leaves connection strings alone
func expandPath(p string) (string, error) {
	if !strings.HasPrefix(p, "~") {
		return p, nil
	}
	expanded, err := homedir.Expand(p)
	if err != nil {
		return "", fmt.Errorf("failed to expand %q: %w", p, err)
	}
	return expanded, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
