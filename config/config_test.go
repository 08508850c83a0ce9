package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"
)

func TestGetDefaultConfig(t *testing.T) {
	viper.Reset()

	cfg := GetDefaultConfig()

	require.Equal(t, "badger", cfg.Storage.Backend)
	require.Equal(t, "data", cfg.Storage.DataDir)
	require.Equal(t, 300, cfg.Storage.GCInterval)
	require.Equal(t, 64, cfg.Storage.CacheMB)
	require.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadConfigFromFile(t *testing.T) {
	viper.Reset()

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	yaml := []byte(`
storage:
  backend: bolt
  data_dir: /var/lib/localstore
logging:
  level: debug
  format: json
`)
	require.NoError(t, os.WriteFile(path, yaml, 0o600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	require.Equal(t, "bolt", cfg.Storage.Backend)
	require.Equal(t, "/var/lib/localstore", cfg.Storage.DataDir)
	require.Equal(t, "debug", cfg.Logging.Level)
	require.Equal(t, "json", cfg.Logging.Format)

	// Unset fields keep their defaults.
	require.Equal(t, 300, cfg.Storage.GCInterval)
}

func TestLoadConfigRejectsUnknownBackend(t *testing.T) {
	viper.Reset()

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	yaml := []byte(`
storage:
  backend: etcd
`)
	require.NoError(t, os.WriteFile(path, yaml, 0o600))

	_, err := LoadConfig(path)
	require.Error(t, err)
}
