package bootstrap

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-raidguard/internal/config"
	"go-raidguard/internal/countstore"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Bot.Token = "test-token"
	cfg.Bot.BotWhitelist = []string{"friendly-bot"}
	cfg.Database.Path = filepath.Join(t.TempDir(), "raidguard.db")
	cfg.Health.Host = "127.0.0.1"
	cfg.Health.Port = 0
	return cfg
}

func TestWire(t *testing.T) {
	c, err := Wire(testConfig(t))
	require.NoError(t, err)

	assert.IsType(t, &countstore.MemStore{}, c.Store)
	assert.NotNil(t, c.DB)
	assert.NotNil(t, c.Correlator)
	assert.NotNil(t, c.AntiNuke)
	assert.True(t, c.Whitelist.Contains("friendly-bot"))
	assert.False(t, c.Lockdown.IsLocked("g1"))
	assert.Equal(t, 0, c.Executor.PendingMutes())

	c.Watchdog.CheckAll(context.Background())
	assert.True(t, c.Watchdog.Healthy())
	assert.Equal(t, map[string]bool{"countstore": true, "database": true}, c.Watchdog.GetStatus())

	assert.NoError(t, Shutdown(c))
}

func TestWireWithoutDatabase(t *testing.T) {
	cfg := testConfig(t)
	cfg.Database.Enabled = false

	c, err := Wire(cfg)
	require.NoError(t, err)
	assert.Nil(t, c.DB)
	assert.NotNil(t, c.Recorder, "recorder discards")
	assert.Equal(t, map[string]bool{"countstore": true}, c.Watchdog.GetStatus())
	assert.NoError(t, Shutdown(c))
}

func TestWireRedisStore(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := testConfig(t)
	cfg.Store.Backend = config.StoreRedis
	cfg.Store.RedisURL = "redis://" + mr.Addr()

	c, err := Wire(cfg)
	require.NoError(t, err)
	assert.IsType(t, &countstore.RedisStore{}, c.Store)

	mr.Close()
	c.Watchdog.CheckAll(context.Background())
	assert.Equal(t, []string{"countstore"}, c.Watchdog.Unhealthy())
	Shutdown(c)
}

func TestWireRequiresToken(t *testing.T) {
	cfg := testConfig(t)
	cfg.Bot.Token = ""
	_, err := Wire(cfg)
	assert.Error(t, err)
}

func TestBootstrapLifecycle(t *testing.T) {
	b := New(testConfig(t))
	assert.Error(t, b.Start(), "not initialized")
	assert.NoError(t, b.Shutdown())

	require.NoError(t, b.Initialize())
	assert.NotNil(t, b.Components)
	assert.NoError(t, b.Shutdown())
}

func TestInitializeRejectsInvalidConfig(t *testing.T) {
	cfg := testConfig(t)
	cfg.Detection.Thresholds.Spam.Max = 0
	assert.Error(t, New(cfg).Initialize())
}
