package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"HTTP_ADDR", "STORE_DRIVER", "STORE_DSN", "JWT_SECRET", "TOKEN_TTL_MIN",
		"METRICS_ENABLED", "METRICS_TOKEN", "TZ_LOCATION", "LOG_MODE", "LOG_FILE",
	} {
		t.Setenv(k, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)

	loc, err := cfg.LoadLocation()
	require.NoError(t, err)
	assert.Equal(t, time.Local, loc)
}

func TestLoad_FileThenEnv(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "inventario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
http_addr: ":9090"
store:
  driver: sqlite
  dsn: /tmp/inv.sqlite
token_ttl: 30m
location: UTC
metrics:
  enabled: true
logger:
  mode: production
`), 0o600))

	t.Setenv("STORE_DSN", "/var/lib/inv.sqlite")
	t.Setenv("TOKEN_TTL_MIN", "5")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "/var/lib/inv.sqlite", cfg.Store.DSN)
	assert.Equal(t, 5*time.Minute, cfg.TokenTTL)
	assert.True(t, cfg.Metrics.Enabled)
	assert.Equal(t, "production", cfg.Logger.Mode)
	assert.Equal(t, "UTC", cfg.Location)
}

func TestLoad_LogFileEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("LOG_FILE", "/tmp/inventario.log")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.True(t, cfg.Logger.FileEnable)
	assert.Equal(t, "/tmp/inventario.log", cfg.Logger.Filename)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.Store.Driver = "redis"
	cfg.TokenTTL = 0
	cfg.Location = "Nowhere/Land"

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "store.driver")
	assert.Contains(t, err.Error(), "token_ttl")
	assert.Contains(t, err.Error(), "Nowhere/Land")

	mem := Default()
	mem.Store = StoreConfig{Driver: "memory"}
	assert.NoError(t, mem.Validate())
}

func TestLoad_BadEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("METRICS_ENABLED", "maybe")

	_, err := Load("")
	assert.Error(t, err)
}
