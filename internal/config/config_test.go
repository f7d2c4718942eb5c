package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))
	return path
}

const minimalConfig = `
directory:
  base_url: https://directory.example.com
  token: test-token
`

func TestLoad_AppliesDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimalConfig))
	require.NoError(t, err)

	assert.Equal(t, "enrichment", cfg.Service.Name)
	assert.Equal(t, defaultServicePort, cfg.Service.Port)
	assert.Equal(t, defaultShutdownTimeout, cfg.Service.ShutdownTimeout)
	assert.Equal(t, defaultDirectoryTimeout, cfg.Directory.Timeout)
	assert.Equal(t, 10, cfg.Scheduler.Concurrency)
	assert.Equal(t, "info", cfg.Logging.Level)

	assert.InDelta(t, 0.4, cfg.Matching.EmailWeight, 1e-9)
	assert.InDelta(t, 0.6, cfg.Matching.MinConfidence, 1e-9)
}

func TestLoad_YamlValuesWin(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
service:
  name: enrichment-staging
  port: 9090
  shutdown_timeout: 5s
directory:
  base_url: https://directory.example.com
  token: test-token
  timeout: 15s
  requests_per_second: 25
matching:
  email_weight: 0.5
  name_weight: 0.3
  company_weight: 0.1
  title_weight: 0.1
  min_confidence: 0.7
scheduler:
  concurrency: 4
logging:
  level: debug
  development: true
`))
	require.NoError(t, err)

	assert.Equal(t, "enrichment-staging", cfg.Service.Name)
	assert.Equal(t, 9090, cfg.Service.Port)
	assert.Equal(t, 5*time.Second, cfg.Service.ShutdownTimeout)
	assert.Equal(t, 15*time.Second, cfg.Directory.Timeout)
	assert.InDelta(t, 25, cfg.Directory.RequestsPerSecond, 1e-9)
	assert.InDelta(t, 0.7, cfg.Matching.MinConfidence, 1e-9)
	assert.Equal(t, 4, cfg.Scheduler.Concurrency)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.True(t, cfg.Logging.Development)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("ENRICHMENT_PORT", "7070")
	t.Setenv("DIRECTORY_TOKEN", "env-token")
	t.Setenv("LOG_LEVEL", "warn")

	cfg, err := Load(writeConfig(t, minimalConfig))
	require.NoError(t, err)

	assert.Equal(t, 7070, cfg.Service.Port)
	assert.Equal(t, "env-token", cfg.Directory.Token)
	assert.Equal(t, "warn", cfg.Logging.Level)
}

func TestLoad_MissingDirectorySettings(t *testing.T) {
	_, err := Load(writeConfig(t, `
service:
  port: 8084
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "directory")
}

func TestLoad_InvalidConcurrency(t *testing.T) {
	_, err := Load(writeConfig(t, minimalConfig+`
scheduler:
  concurrency: 500
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "scheduler")
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yml"))
	assert.Error(t, err)
}

func TestGetConfigPath(t *testing.T) {
	assert.Equal(t, "config.yml", GetConfigPath("config.yml"))

	t.Setenv("CONFIG_PATH", "/etc/enrichment/config.yml")
	assert.Equal(t, "/etc/enrichment/config.yml", GetConfigPath("config.yml"))
}
