package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arterning/gofts/internal/config"
)

func TestLoadDefaultsWhenNoEnvOrFile(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "./data", cfg.Storage.DataDir)
}

func TestLoadReadsEnvOverrides(t *testing.T) {
	t.Setenv("GOFTS_HOST", "127.0.0.1")
	t.Setenv("GOFTS_PORT", "9090")
	t.Setenv("GOFTS_DATA_DIR", "/tmp/gofts")

	cfg, err := config.Load("")
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1", cfg.Server.Host)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "/tmp/gofts", cfg.Storage.DataDir)
}

func TestLoadInvalidPortEnvFallsBackToDefault(t *testing.T) {
	t.Setenv("GOFTS_PORT", "not-a-number")
	cfg, err := config.Load("")
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Server.Port)
}

func TestLoadYAMLOverlaysEnv(t *testing.T) {
	t.Setenv("GOFTS_PORT", "9090")

	path := filepath.Join(t.TempDir(), "gofts.yaml")
	contents := "server:\n  host: 10.0.0.1\n  port: 9999\nstorage:\n  data_dir: /var/lib/gofts\n"
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "10.0.0.1", cfg.Server.Host)
	assert.Equal(t, 9999, cfg.Server.Port)
	assert.Equal(t, "/var/lib/gofts", cfg.Storage.DataDir)
}

func TestLoadMissingFileReturnsError(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
