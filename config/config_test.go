package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "database:\n  dsn: test\n"))
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "X-Caller-Address", cfg.Server.CallerHeader)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, "warn", cfg.Database.LogLevel)
	assert.Equal(t, "CNY", cfg.Ledger.Currency)
	assert.Equal(t, 3600, cfg.Push.TTL)
	assert.Equal(t, 1, cfg.WorkerPool.Size)
	assert.Equal(t, 100, cfg.WorkerPool.QueueSize)
	assert.Equal(t, 5*time.Minute, cfg.Audit.Interval)
	assert.Equal(t, "production", cfg.Log.Environment)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoad_ExampleFile(t *testing.T) {
	cfg, err := Load("config.example.yaml")
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, 4, cfg.WorkerPool.Size)
	assert.True(t, cfg.Audit.Enabled)
	assert.Equal(t, 300*time.Second, cfg.Audit.Interval)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "database:\n  driver: oracle\n"))
	assert.ErrorContains(t, err, "unsupported database driver")

	_, err = Load(writeConfig(t, "server: [unclosed"))
	assert.Error(t, err)
}
