package bootstrap

import (
	"context"
	"fmt"
	"time"

	"go-raidguard/internal/bot"
	"go-raidguard/internal/commands"
	"go-raidguard/internal/config"
	"go-raidguard/internal/correlator"
	"go-raidguard/internal/countstore"
	"go-raidguard/internal/database"
	"go-raidguard/internal/decision"
	"go-raidguard/internal/detectors"
	"go-raidguard/internal/dispatcher"
	"go-raidguard/internal/logging"
	"go-raidguard/internal/metrics"
	"go-raidguard/internal/notifier"
	"go-raidguard/internal/state"
	"go-raidguard/internal/watchdog"
)

const (
	watchdogInterval  = 5 * time.Second
	duplicateSweepRun = time.Minute
)

// Wire builds the pipeline from cfg. Nothing is connected or started.
func Wire(cfg *config.Config) (*Components, error) {
	logging.Info("[BOOT] Wiring components...")
	th := cfg.Detection.Thresholds

	store, err := countstore.New(cfg.Store)
	if err != nil {
		return nil, fmt.Errorf("count store: %w", err)
	}
	logging.Info("[BOOT] Count store: %s", cfg.Store.Backend)

	c := &Components{
		Store:      store,
		Duplicates: state.NewDuplicateTracker(),
		Whitelist:  state.NewWhitelist(cfg.Bot.BotWhitelist...),
		Guilds:     state.NewGuildStates(),
	}
	if cfg.Detection.DuplicateIdleSweepSec > 0 {
		c.Duplicates.StartSweeper(duplicateSweepRun, time.Duration(cfg.Detection.DuplicateIdleSweepSec)*time.Second)
	}

	if cfg.Database.Enabled {
		db, err := database.Open(cfg.Database.Path)
		if err != nil {
			store.Close()
			return nil, fmt.Errorf("database: %w", err)
		}
		c.DB = db
		logging.Info("[BOOT] Incident database: %s", cfg.Database.Path)
	}
	c.Recorder = database.NewRecorder(c.DB)

	session, err := bot.New(cfg.Bot.Token)
	if err != nil {
		closeStorage(c)
		return nil, err
	}
	c.Session = session
	c.Platform = bot.NewPlatform(session.Discord())

	c.Executor = dispatcher.NewExecutor(c.Platform, dispatcher.TimerScheduler{}, th.ActionTimeout())
	c.Notifier = notifier.New(c.Platform, cfg.Bot.LogChannelID, th.ActionTimeout())
	if cfg.Bot.LogChannelID == "" {
		logging.Warn("[BOOT] No moderation log channel configured; notices are dropped")
	}

	c.Lockdown = decision.NewLockdownManager(c.Guilds, c.Executor, c.Notifier, c.Recorder, c.Executor.Scheduler(), th.RaidUnlockDelay())
	c.AntiNuke = decision.NewAntiNuke(store, th.AntiNuke, c.Executor, c.Notifier, c.Recorder)
	c.Correlator = correlator.New(correlator.Deps{
		Env: &detectors.Env{
			Counters:   store,
			Duplicates: c.Duplicates,
			Whitelist:  c.Whitelist,
			Thresholds: th,
			BadWords:   cfg.Detection.BadWords,
		},
		Actions:   c.Executor,
		Raid:      c.Lockdown,
		Notices:   c.Notifier,
		Incidents: c.Recorder,
	})

	deps := commands.Deps{
		Lockdown: c.Lockdown,
		Mutes:    c.Executor,
		Timeout:  th.ActionTimeout(),
	}
	if c.DB != nil {
		deps.Incidents = c.DB
	}
	c.Commands = commands.NewHandler(deps)

	c.Watchdog = watchdog.NewWatchdog(watchdogInterval)
	c.Watchdog.RegisterComponent("countstore", store.Ping)
	if c.DB != nil {
		c.Watchdog.RegisterComponent("database", c.DB.Ping)
	}

	c.Exporter = metrics.NewExporter(cfg.Health.Host, cfg.Health.Port, c.Watchdog.Healthy)

	logging.Info("[BOOT] Components wired")
	return c, nil
}

// StartAll connects the bot and starts the background services.
func StartAll(c *Components) error {
	if err := c.Exporter.Start(); err != nil {
		return err
	}
	c.Watchdog.CheckAll(context.Background())
	c.Watchdog.Start()

	c.Session.SetupEventHandlers(&bot.Handlers{
		Messages:  c.Correlator,
		Audit:     c.AntiNuke,
		Whitelist: c.Whitelist,
	})
	if err := c.Session.Connect(); err != nil {
		return err
	}
	c.Whitelist.Add(c.Session.BotID)

	if err := c.Commands.Register(c.Session); err != nil {
		// moderation keeps running without slash commands
		logging.Error("[BOOT] %v", err)
	}

	logging.Info("[BOOT] All components started")
	return nil
}

func closeStorage(c *Components) {
	if c.DB != nil {
		if err := c.DB.Close(); err != nil {
			logging.Warn("[BOOT] Database close failed: %v", err)
		}
	}
	if c.Store != nil {
		if err := c.Store.Close(); err != nil {
			logging.Warn("[BOOT] Count store close failed: %v", err)
		}
	}
}
