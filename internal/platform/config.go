package platform

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is read from the working directory when no file is named.
const DefaultConfigFile = "sticky.yaml"

// Environment variables recognised by LoadConfig. They override the file.
const (
	EnvAdapter      = "STICKY_ADAPTER"
	EnvPath         = "STICKY_PATH"
	EnvRedisURL     = "STICKY_REDIS_URL"
	EnvDatabaseURL  = "STICKY_DATABASE_URL"
	EnvAddr         = "STICKY_ADDR"
	EnvPersistDelay = "STICKY_PERSIST_DELAY"
	EnvHistoryDelay = "STICKY_HISTORY_DELAY"
	EnvVersioned    = "STICKY_VERSIONED"
)

// Config is the process-level configuration of a sticky deployment.
type Config struct {
	Adapter      string        `yaml:"adapter"`
	Path         string        `yaml:"path"`
	SystemDir    string        `yaml:"system_dir"`
	Versioned    *bool         `yaml:"versioned"`
	ReadOnly     bool          `yaml:"read_only"`
	RedisURL     string        `yaml:"redis_url"`
	DatabaseURL  string        `yaml:"database_url"`
	Addr         string        `yaml:"addr"`
	PersistDelay time.Duration `yaml:"persist_delay"`
	HistoryDelay time.Duration `yaml:"history_delay"`
}

// DefaultConfig returns the configuration used when nothing is set.
func DefaultConfig() Config {
	return Config{
		Adapter:      "fs",
		Path:         ".",
		SystemDir:    DefaultSystemDir,
		Addr:         ":8080",
		PersistDelay: time.Second,
		HistoryDelay: time.Second,
	}
}

// LoadConfig layers the defaults, the YAML file at path, a .env file in the
// working directory and the STICKY_* environment. An empty path reads
// DefaultConfigFile if it exists; a named file must exist.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	file := path
	if file == "" {
		file = DefaultConfigFile
	}
	data, err := os.ReadFile(file)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", file, err)
		}
	case errors.Is(err, os.ErrNotExist) && path == "":
	default:
		return cfg, fmt.Errorf("read config %s: %w", file, err)
	}

	// A missing .env is the normal case.
	_ = godotenv.Load()

	if err := cfg.applyEnv(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	setString := func(key string, dst *string) {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			*dst = v
		}
	}
	setString(EnvAdapter, &c.Adapter)
	setString(EnvPath, &c.Path)
	setString(EnvRedisURL, &c.RedisURL)
	setString(EnvDatabaseURL, &c.DatabaseURL)
	setString(EnvAddr, &c.Addr)

	for key, dst := range map[string]*time.Duration{
		EnvPersistDelay: &c.PersistDelay,
		EnvHistoryDelay: &c.HistoryDelay,
	} {
		v := os.Getenv(key)
		if v == "" {
			continue
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		*dst = d
	}

	if v := os.Getenv(EnvVersioned); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvVersioned, err)
		}
		c.Versioned = &b
	}
	return nil
}

// URI returns the adapter-specific location: a directory for fs, a URL for
// redis and postgres.
func (c Config) URI() string {
	switch c.Adapter {
	case "redis":
		return c.RedisURL
	case "postgres":
		return c.DatabaseURL
	default:
		return c.Path
	}
}

// Options translates the store-related settings into factory options.
func (c Config) Options() []Option {
	opts := []Option{
		WithAdapter(c.Adapter),
		WithSystemDir(c.SystemDir),
		WithReadOnly(c.ReadOnly),
	}
	if c.Versioned != nil {
		opts = append(opts, WithVersioning(*c.Versioned))
	}
	return opts
}
