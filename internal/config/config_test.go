package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("", filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:5000/api", cfg.API.BaseURL)
	assert.Equal(t, 30*time.Second, cfg.Notification.PollInterval)
	assert.Equal(t, []string{"conversationUpdated", "exchangeUpdated"}, cfg.Notification.TriggerEvents)
	assert.Equal(t, SessionStoreFile, cfg.Session.Store)
	assert.Equal(t, "09:00", cfg.Exchange.OpenTime)
	assert.Equal(t, "20:00", cfg.Exchange.CloseTime)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr())
	assert.Less(t, cfg.Realtime.PingPeriod, cfg.Realtime.PongWait)
}

func TestLoad_FileAndEnv(t *testing.T) {
	path := writeFile(t, "config.yaml", `
api:
  base_url: "https://xchange.example.com/api/"
notification:
  poll_interval: 5s
session:
  store: REDIS
realtime:
  pong_wait: 20s
  ping_period: 40s
`)
	t.Setenv("XCHANGE_REDIS_HOST", "cache.internal")

	cfg, err := Load(path, filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, "https://xchange.example.com/api", cfg.API.BaseURL)
	assert.Equal(t, 5*time.Second, cfg.Notification.PollInterval)
	assert.Equal(t, SessionStoreRedis, cfg.Session.Store)
	assert.Equal(t, "cache.internal", cfg.Redis.Host)
	assert.Equal(t, 18*time.Second, cfg.Realtime.PingPeriod)
}

func TestLoad_EnvFile(t *testing.T) {
	envPath := writeFile(t, ".env", "XCHANGE_SESSION_PROFILE=seller\n")
	t.Cleanup(func() { _ = os.Unsetenv("XCHANGE_SESSION_PROFILE") })

	cfg, err := Load("", envPath)
	require.NoError(t, err)
	assert.Equal(t, "seller", cfg.Session.Profile)
}

func TestLoad_Invalid(t *testing.T) {
	t.Run("unknown session store", func(t *testing.T) {
		path := writeFile(t, "config.yaml", "session:\n  store: cookie\n")
		_, err := Load(path, filepath.Join(t.TempDir(), "missing.env"))
		assert.Error(t, err)
	})

	t.Run("window closes before it opens", func(t *testing.T) {
		path := writeFile(t, "config.yaml", "exchange:\n  open_time: \"18:00\"\n  close_time: \"09:00\"\n")
		_, err := Load(path, filepath.Join(t.TempDir(), "missing.env"))
		assert.Error(t, err)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"), filepath.Join(t.TempDir(), "missing.env"))
		assert.Error(t, err)
	})
}
