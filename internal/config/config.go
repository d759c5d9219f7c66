// Package config loads formbuilder settings from an optional formbuilder.yaml,
// FORMBUILDER_* environment variables and bound command-line flags.
package config

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/goliatone/go-formbuilder/internal/logging"
	"github.com/goliatone/go-formbuilder/pkg/persistence"
)

// EnvPrefix namespaces environment overrides, e.g. FORMBUILDER_STORAGE_DRIVER.
const EnvPrefix = "FORMBUILDER"

// Storage drivers.
const (
	DriverMemory = "memory"
	DriverFile   = "file"
	DriverSQLite = "sqlite"
)

// Config models formbuilder.yaml.
type Config struct {
	Storage struct {
		Driver string `mapstructure:"driver"`
		Path   string `mapstructure:"path"`
	} `mapstructure:"storage"`
	Log struct {
		Level  string `mapstructure:"level"`
		Format string `mapstructure:"format"`
	} `mapstructure:"log"`
	Server struct {
		Addr string `mapstructure:"addr"`
	} `mapstructure:"server"`
	History struct {
		Limit int `mapstructure:"limit"`
	} `mapstructure:"history"`
}

// NewViper returns a viper instance carrying the defaults and the environment
// binding.
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetDefault("storage.driver", DriverFile)
	v.SetDefault("storage.path", ".formbuilder")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("server.addr", "127.0.0.1:8080")
	v.SetDefault("history.limit", 100)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads configuration into a Config. An explicit path must exist;
// otherwise formbuilder.yaml is looked up in the working directory and its
// absence is not an error.
func Load(v *viper.Viper, path string) (Config, error) {
	if v == nil {
		v = NewViper()
	}
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("config: read %s: %w", path, err)
		}
	} else {
		v.SetConfigName("formbuilder")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return Config{}, fmt.Errorf("config: read formbuilder.yaml: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: decode: %w", err)
	}
	cfg.Storage.Driver = strings.ToLower(strings.TrimSpace(cfg.Storage.Driver))
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate ensures the config meets required structure.
func (c Config) Validate() error {
	switch c.Storage.Driver {
	case DriverMemory:
	case DriverFile, DriverSQLite:
		if strings.TrimSpace(c.Storage.Path) == "" {
			return fmt.Errorf("config: storage.path is required for the %s driver", c.Storage.Driver)
		}
	default:
		return fmt.Errorf("config: storage.driver must be one of memory, file, sqlite (got %q)", c.Storage.Driver)
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("config: log.level: %w", err)
	}
	switch strings.ToLower(c.Log.Format) {
	case "", "text", "json":
	default:
		return fmt.Errorf("config: log.format must be text or json (got %q)", c.Log.Format)
	}
	if c.History.Limit < 0 {
		return fmt.Errorf("config: history.limit must not be negative")
	}
	return nil
}

// OpenKV opens the configured persistence backend. The returned close
// function is never nil.
func (c Config) OpenKV(ctx context.Context) (persistence.KV, func() error, error) {
	noop := func() error { return nil }
	switch c.Storage.Driver {
	case DriverMemory:
		return persistence.NewMemoryKV(), noop, nil
	case DriverFile:
		kv, err := persistence.NewFileKV(c.Storage.Path)
		if err != nil {
			return nil, noop, err
		}
		return kv, noop, nil
	case DriverSQLite:
		path := c.Storage.Path
		if path != ":memory:" && filepath.Ext(path) == "" {
			path = filepath.Join(path, "formbuilder.db")
		}
		kv, err := persistence.OpenSQLiteKV(ctx, path)
		if err != nil {
			return nil, noop, err
		}
		return kv, kv.Close, nil
	}
	return nil, noop, fmt.Errorf("config: unsupported storage driver %q", c.Storage.Driver)
}
