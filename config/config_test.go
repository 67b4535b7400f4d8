package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/starnotary/notary/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadNodeConfig(t *testing.T) {
	path := writeFile(t, "node.yml", `
node:
  listen_addr: "127.0.0.1:9000"
  metrics_enabled: true
  store:
    type: bbolt
    directory: /tmp/notary
`)

	cfg, err := LoadNodeConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:9000", cfg.ListenAddr)
	assert.True(t, cfg.MetricsEnabled)
	assert.Equal(t, db.BoltType, cfg.Store.Type)
	assert.Equal(t, "/tmp/notary", cfg.Store.Directory)
}

func TestLoadNodeConfigDefaults(t *testing.T) {
	path := writeFile(t, "node.yml", "node:\n  metrics_enabled: false\n")

	cfg, err := LoadNodeConfig(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultListenAddr, cfg.ListenAddr)
	assert.Equal(t, db.LevelDBType, cfg.Store.Type)
	assert.Equal(t, DefaultDataDir, cfg.Store.Directory)
}

func TestLoadNodeConfigErrors(t *testing.T) {
	_, err := LoadNodeConfig(filepath.Join(t.TempDir(), "missing.yml"))
	assert.Error(t, err)

	path := writeFile(t, "node.yml", "node:\n  store:\n    type: cassandra\n")
	_, err = LoadNodeConfig(path)
	assert.Error(t, err)

	path = writeFile(t, "node.yml", "node:\n  store:\n    type: redis\n")
	_, err = LoadNodeConfig(path)
	assert.Error(t, err)
}

func TestSampleConfigFilesLoad(t *testing.T) {
	node, err := LoadNodeConfig("node.yml")
	require.NoError(t, err)
	assert.Equal(t, ":8000", node.ListenAddr)

	auth, err := LoadAuthConfig("config.ini")
	require.NoError(t, err)
	assert.Equal(t, 300*time.Second, auth.Window())

	apiCfg, err := LoadAPIConfig("config.ini")
	require.NoError(t, err)
	assert.Equal(t, 250, apiCfg.MaxStoryWords)
}

func TestLoadAuthConfig(t *testing.T) {
	path := writeFile(t, "config.ini", `
[authorization]
window_seconds = 120
`)

	cfg, err := LoadAuthConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 120*time.Second, cfg.Window())
	assert.Equal(t, DefaultCleanupIntervalSeconds*time.Second, cfg.CleanupInterval())
}

func TestLoadAuthConfigRejectsNonPositiveWindow(t *testing.T) {
	path := writeFile(t, "config.ini", "[authorization]\nwindow_seconds = 0\n")

	_, err := LoadAuthConfig(path)
	assert.Error(t, err)
}

func TestLoadAPIConfig(t *testing.T) {
	path := writeFile(t, "config.ini", `
[api]
max_body_bytes = 1024
requests_per_second = 2.5
`)

	cfg, err := LoadAPIConfig(path)
	require.NoError(t, err)
	assert.Equal(t, int64(1024), cfg.MaxBodyBytes)
	assert.Equal(t, 2.5, cfg.RequestsPerSecond)
	assert.Equal(t, DefaultBurst, cfg.Burst)
	assert.Equal(t, 250, cfg.MaxStoryWords)
}

func TestLoadAPIConfigMissingSectionUsesDefaults(t *testing.T) {
	path := writeFile(t, "config.ini", "[authorization]\nwindow_seconds = 60\n")

	cfg, err := LoadAPIConfig(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultAPIConfig(), *cfg)
}
