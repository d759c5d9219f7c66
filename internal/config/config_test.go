package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-formbuilder/pkg/persistence"
)

func TestLoad_DefaultsWithoutFile(t *testing.T) {
	t.Parallel()

	cfg, err := Load(NewViper(), "")
	require.NoError(t, err)
	require.Equal(t, DriverFile, cfg.Storage.Driver)
	require.Equal(t, ".formbuilder", cfg.Storage.Path)
	require.Equal(t, "info", cfg.Log.Level)
	require.Equal(t, "text", cfg.Log.Format)
	require.Equal(t, "127.0.0.1:8080", cfg.Server.Addr)
	require.Equal(t, 100, cfg.History.Limit)
}

func TestLoad_FileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "formbuilder.yaml")
	yaml := "storage:\n  driver: SQLite\n  path: " + filepath.Join(dir, "kv.db") + "\nlog:\n  level: debug\nhistory:\n  limit: 7\n"
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))

	t.Setenv("FORMBUILDER_SERVER_ADDR", ":9999")
	t.Setenv("FORMBUILDER_LOG_FORMAT", "json")

	cfg, err := Load(NewViper(), path)
	require.NoError(t, err)
	require.Equal(t, DriverSQLite, cfg.Storage.Driver)
	require.Equal(t, "debug", cfg.Log.Level)
	require.Equal(t, "json", cfg.Log.Format)
	require.Equal(t, ":9999", cfg.Server.Addr)
	require.Equal(t, 7, cfg.History.Limit)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	t.Parallel()

	_, err := Load(NewViper(), filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	t.Parallel()

	base := func() Config {
		var cfg Config
		cfg.Storage.Driver = DriverMemory
		cfg.Log.Level = "info"
		cfg.Log.Format = "text"
		return cfg
	}
	require.NoError(t, base().Validate())

	cases := map[string]func(*Config){
		"unknown driver": func(c *Config) { c.Storage.Driver = "redis" },
		"file no path":   func(c *Config) { c.Storage.Driver = DriverFile },
		"bad level":      func(c *Config) { c.Log.Level = "loud" },
		"bad format":     func(c *Config) { c.Log.Format = "xml" },
		"negative limit": func(c *Config) { c.History.Limit = -1 },
	}
	for name, mutate := range cases {
		cfg := base()
		mutate(&cfg)
		require.Error(t, cfg.Validate(), name)
	}
}

func TestOpenKV_Drivers(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	for _, driver := range []string{DriverMemory, DriverFile, DriverSQLite} {
		var cfg Config
		cfg.Storage.Driver = driver
		cfg.Storage.Path = t.TempDir()

		kv, closeFn, err := cfg.OpenKV(ctx)
		require.NoError(t, err, driver)
		require.NoError(t, kv.Put(ctx, "k", []byte("v")), driver)
		got, err := kv.Get(ctx, "k")
		require.NoError(t, err, driver)
		require.Equal(t, "v", string(got), driver)
		require.NoError(t, closeFn(), driver)
	}

	var cfg Config
	cfg.Storage.Driver = DriverSQLite
	cfg.Storage.Path = t.TempDir()
	kv, closeFn, err := cfg.OpenKV(ctx)
	require.NoError(t, err)
	defer closeFn()
	_, err = kv.Get(ctx, "missing")
	require.ErrorIs(t, err, persistence.ErrNotFound)
	require.FileExists(t, filepath.Join(cfg.Storage.Path, "formbuilder.db"))
}
