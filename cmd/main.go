package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"
	_ "go.uber.org/automaxprocs"

	"go-raidguard/internal/bootstrap"
	"go-raidguard/internal/config"
	"go-raidguard/internal/logging"
)

func main() {
	if err := run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "raidguard: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	app := cli.App{
		Name:  "raidguard",
		Usage: "Discord spam, raid and anti-nuke guard",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Usage:   "path to the JSON config file",
				Value:   "config.json",
				EnvVars: []string{"RAIDGUARD_CONFIG"},
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "debug, info, warn, error or critical; overrides the config file",
				EnvVars: []string{"RAIDGUARD_LOG_LEVEL"},
			},
			&cli.StringSliceFlag{
				Name:    "env-file",
				Usage:   "dotenv files loaded before the config; missing files are skipped",
				Value:   cli.NewStringSlice(".env"),
				EnvVars: []string{"RAIDGUARD_ENV_FILE"},
			},
		},
		Action: runGuard,
	}
	return app.Run(args)
}

func runGuard(cctx *cli.Context) error {
	if err := config.LoadEnvFiles(cctx.StringSlice("env-file")...); err != nil {
		return err
	}

	cfg, err := loadConfig(cctx.String("config"))
	if err != nil {
		return err
	}
	if lvl := cctx.String("log-level"); lvl != "" {
		cfg.Logging.Level = lvl
	}

	if err := logging.InitGlobalLogger(logging.ParseLevel(cfg.Logging.Level), cfg.Logging.File, cfg.Logging.Rotation); err != nil {
		return fmt.Errorf("logging init failed: %w", err)
	}
	defer logging.Close()

	b := bootstrap.New(cfg)
	if err := b.Initialize(); err != nil {
		return err
	}
	if err := b.Start(); err != nil {
		b.Shutdown()
		return err
	}

	logging.Info("Raidguard running; press Ctrl+C to stop")
	waitForShutdown()

	return b.Shutdown()
}

// loadConfig reads path, falling back to defaults plus environment when the
// file does not exist.
func loadConfig(path string) (*config.Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		fmt.Printf("Config %s not found, using defaults and environment\n", path)
		cfg := config.LoadOrDefault(path)
		return cfg, cfg.Validate()
	}
	return config.Load(path)
}

func waitForShutdown() {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan
	logging.Info("Shutdown signal received")
}
