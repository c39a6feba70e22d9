package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vizee/gfeign/engine"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "gfeign.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
base_url: https://api.github.com
client:
  read_timeout: 5s
  dismiss404: true
log:
  level: debug
  requests: headers
metrics:
  enabled: true
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "https://api.github.com", cfg.BaseURL)
	assert.Equal(t, 5*time.Second, cfg.Client.ReadTimeout)
	assert.Equal(t, 10*time.Second, cfg.Client.ConnectTimeout)
	assert.True(t, cfg.Client.FollowRedirects)
	assert.True(t, cfg.Client.Dismiss404)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.True(t, cfg.Metrics.Enabled)
	assert.Equal(t, "gfeign", cfg.Metrics.Namespace)

	opts := cfg.Client.Options()
	assert.Equal(t, 5*time.Second, opts.ReadTimeout)

	level, err := ParseLogLevel(cfg.Log.Requests)
	require.NoError(t, err)
	assert.Equal(t, engine.LogHeaders, level)
}

func TestLoad_Env(t *testing.T) {
	path := writeConfig(t, "base_url: https://a.example\n")
	t.Setenv("GFEIGN_BASE_URL", "https://b.example")
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "https://b.example", cfg.BaseURL)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "base_url: ftp://x\n"))
	assert.ErrorContains(t, err, "base_url")

	_, err = Load(writeConfig(t, "log:\n  requests: loud\n"))
	assert.ErrorContains(t, err, "unknown request log level")
}
