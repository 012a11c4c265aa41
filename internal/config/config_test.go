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

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, DriverMemory, cfg.Store.Driver)
	assert.Equal(t, uint64(100_000_000), cfg.Ledger.RewardThreshold)
	assert.Equal(t, 10, cfg.Ledger.MaxBatchSize)
	assert.Equal(t, uint8(4), cfg.Ledger.MaintenanceHours)
	assert.Equal(t, 5*time.Minute, cfg.Auth.TokenMaxAge)
	assert.False(t, cfg.IsProduction())
}

func TestLoadYAML(t *testing.T) {
	path := writeConfig(t, `
server:
  port: "9090"
  env: production
store:
  driver: redis
redis:
  addr: redis:6379
  db: 2
ledger:
  max_batch_size: 5
auth:
  token_max_age: 30s
log:
  format: json
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, DriverRedis, cfg.Store.Driver)
	assert.Equal(t, "redis:6379", cfg.Redis.Addr)
	assert.Equal(t, 2, cfg.Redis.DB)
	assert.Equal(t, 5, cfg.Ledger.MaxBatchSize)
	assert.Equal(t, 30*time.Second, cfg.Auth.TokenMaxAge)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestEnvironmentOverridesYAML(t *testing.T) {
	path := writeConfig(t, "server:\n  port: \"9090\"\nlog:\n  level: warn\n")
	t.Setenv("PORT", "7070")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LEDGER_MAX_BATCH", "3")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "7070", cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, 3, cfg.Ledger.MaxBatchSize)
}

func TestLoadRejectsUnknownDriver(t *testing.T) {
	path := writeConfig(t, "store:\n  driver: leveldb\n")
	_, err := Load(path)
	assert.ErrorContains(t, err, "unknown store driver")
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	path := writeConfig(t, "server: [unclosed\n")
	_, err := Load(path)
	assert.ErrorContains(t, err, "parse config")
}

func TestLoadRejectsOversizedBatch(t *testing.T) {
	path := writeConfig(t, "ledger:\n  max_batch_size: 11\n")
	_, err := Load(path)
	assert.ErrorContains(t, err, "exceeds 10")
}

func TestLoadRateLimitCanBeDisabled(t *testing.T) {
	path := writeConfig(t, "rate_limit:\n  disabled: true\n  per_second: 5\n")
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Zero(t, cfg.RateLimit.PerSecond)
	assert.Zero(t, cfg.RateLimit.Burst)

	cfg, err = Load(writeConfig(t, "rate_limit:\n  per_second: 0\n"))
	require.NoError(t, err)
	assert.Equal(t, float64(20), cfg.RateLimit.PerSecond)
}
