package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	th := cfg.Detection.Thresholds
	assert.Equal(t, 5*time.Second, th.RateLimit.Window())
	assert.Equal(t, 3*time.Second, th.Spam.Window())
	assert.Equal(t, 3*time.Second, th.Flood.Window())
	assert.Equal(t, 3*time.Second, th.Burst.Window())
	assert.Equal(t, time.Hour, th.AntiNuke.Window())
	assert.Equal(t, 30*time.Second, th.RaidUnlockDelay())
	assert.Equal(t, 120*time.Second, th.MuteDuration())
	assert.Equal(t, 4000, cfg.Health.Port)
}

func TestLimitExceeded(t *testing.T) {
	l := Limit{Max: 2, WindowSec: 5}
	assert.False(t, l.Exceeded(1))
	assert.False(t, l.Exceeded(2))
	assert.True(t, l.Exceeded(3))
}

func TestLoadMergesFileOverDefaults(t *testing.T) {
	t.Setenv("DISCORD_TOKEN", "")
	t.Setenv("DISCORD_TOKEN_1", "")
	t.Setenv("REDIS_URL", "")
	t.Setenv("PORT", "")
	t.Setenv("MOD_LOG_CHANNEL", "")

	path := writeFile(t, "config.json", `{
		"bot": {"token": "file-token", "log_channel_id": "123"},
		"detection": {"thresholds": {"mute_sec": 300}},
		"health": {"port": 8080}
	}`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "file-token", cfg.Bot.Token)
	assert.Equal(t, "123", cfg.Bot.LogChannelID)
	assert.Equal(t, 300*time.Second, cfg.Detection.Thresholds.MuteDuration())
	assert.Equal(t, int64(2), cfg.Detection.Thresholds.RateLimit.Max)
	assert.Equal(t, 8080, cfg.Health.Port)
	assert.Equal(t, StoreMemory, cfg.Store.Backend)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("DISCORD_TOKEN", "")
	t.Setenv("DISCORD_TOKEN_1", "env-token")
	t.Setenv("MOD_LOG_CHANNEL", "999")
	t.Setenv("BOT_WHITELIST", " 1, 2 ,,3 ")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("PORT", "5000")

	path := writeFile(t, "config.json", `{"bot": {"token": "file-token"}}`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "env-token", cfg.Bot.Token)
	assert.Equal(t, "999", cfg.Bot.LogChannelID)
	assert.Equal(t, []string{"1", "2", "3"}, cfg.Bot.BotWhitelist)
	assert.Equal(t, StoreRedis, cfg.Store.Backend)
	assert.Equal(t, "redis://localhost:6379/0", cfg.Store.RedisURL)
	assert.Equal(t, 5000, cfg.Health.Port)
}

func TestLoadRejectsBadThresholds(t *testing.T) {
	t.Setenv("REDIS_URL", "")
	path := writeFile(t, "config.json", `{"detection": {"thresholds": {"spam": {"max": 0, "window_sec": 3}}}}`)

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadRejectsUnknownBackend(t *testing.T) {
	t.Setenv("REDIS_URL", "")
	path := writeFile(t, "config.json", `{"store": {"backend": "etcd"}}`)

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadOrDefaultFallsBack(t *testing.T) {
	t.Setenv("REDIS_URL", "")
	t.Setenv("DISCORD_TOKEN", "fallback")

	cfg := LoadOrDefault(filepath.Join(t.TempDir(), "missing.json"))
	assert.Equal(t, "fallback", cfg.Bot.Token)
	assert.Equal(t, StoreMemory, cfg.Store.Backend)
}

func TestLoadEnvFiles(t *testing.T) {
	t.Setenv("RAIDGUARD_TEST_VAR", "")
	os.Unsetenv("RAIDGUARD_TEST_VAR")

	path := writeFile(t, ".env", "RAIDGUARD_TEST_VAR=from-file\n")
	require.NoError(t, LoadEnvFiles(path, filepath.Join(t.TempDir(), "absent.env")))

	assert.Equal(t, "from-file", os.Getenv("RAIDGUARD_TEST_VAR"))
}
