package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0", cfg.Server.Address)
	assert.Equal(t, "8080", cfg.Server.HTTPPort)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, 10*time.Second, cfg.Mikrotik.ConnectTimeout)
	assert.Equal(t, "changeme", cfg.Mikrotik.FallbackSecret)
	assert.Equal(t, 2*time.Minute, cfg.WanMonitor.SweepInterval)
	assert.Equal(t, 5*time.Second, cfg.WanMonitor.PingTimeout)
	assert.Equal(t, 1000, cfg.WanMonitor.HistoryLimit)
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  http_port: "9090"
mikrotik:
  fallback_secret: ""
wan_monitor:
  sweep_interval: 30s
  history_limit: 50
`), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.HTTPPort)
	assert.Empty(t, cfg.Mikrotik.FallbackSecret)
	assert.Equal(t, 30*time.Second, cfg.WanMonitor.SweepInterval)
	assert.Equal(t, 50, cfg.WanMonitor.HistoryLimit)
	// untouched keys keep their defaults
	assert.Equal(t, "sqlite", cfg.Database.Driver)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("MIKRONET_SERVER_HTTP_PORT", "7070")
	t.Setenv("MIKRONET_MIKROTIK_CONNECT_TIMEOUT", "3s")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "7070", cfg.Server.HTTPPort)
	assert.Equal(t, 3*time.Second, cfg.Mikrotik.ConnectTimeout)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}
