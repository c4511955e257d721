package bootstrap

import (
	"fmt"

	"go-raidguard/internal/bot"
	"go-raidguard/internal/commands"
	"go-raidguard/internal/config"
	"go-raidguard/internal/correlator"
	"go-raidguard/internal/countstore"
	"go-raidguard/internal/database"
	"go-raidguard/internal/decision"
	"go-raidguard/internal/dispatcher"
	"go-raidguard/internal/logging"
	"go-raidguard/internal/metrics"
	"go-raidguard/internal/notifier"
	"go-raidguard/internal/state"
	"go-raidguard/internal/watchdog"
)

type Bootstrap struct {
	Config      *config.Config
	Components  *Components
	initialized bool
}

type Components struct {
	// Shared state
	Store      countstore.Store
	Duplicates *state.DuplicateTracker
	Whitelist  *state.Whitelist
	Guilds     *state.GuildStates

	// Persistence, nil when disabled
	DB       *database.Database
	Recorder *database.Recorder

	// Discord
	Session  *bot.Session
	Platform *bot.Platform
	Commands *commands.Handler

	// Pipeline
	Executor   *dispatcher.Executor
	Notifier   *notifier.Notifier
	Lockdown   *decision.LockdownManager
	AntiNuke   *decision.AntiNuke
	Correlator *correlator.Correlator

	// Monitoring
	Watchdog *watchdog.Watchdog
	Exporter *metrics.Exporter
}

func New(cfg *config.Config) *Bootstrap {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	return &Bootstrap{Config: cfg}
}

// Initialize builds every component without touching the network.
func (b *Bootstrap) Initialize() error {
	if err := b.Config.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	components, err := Wire(b.Config)
	if err != nil {
		return fmt.Errorf("component wiring failed: %w", err)
	}
	b.Components = components

	b.initialized = true
	logging.Info("[BOOT] Bootstrap complete")
	return nil
}

// Start connects to Discord, registers commands and starts monitoring.
func (b *Bootstrap) Start() error {
	if !b.initialized {
		return fmt.Errorf("bootstrap not initialized")
	}
	return StartAll(b.Components)
}

func (b *Bootstrap) Shutdown() error {
	if b.Components == nil {
		return nil
	}
	return Shutdown(b.Components)
}
