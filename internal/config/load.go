package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"go-raidguard/internal/logging"
)

type Config struct {
	Bot       BotConfig       `json:"bot"`
	Detection DetectionConfig `json:"detection"`
	Store     StoreConfig     `json:"store"`
	Health    HealthConfig    `json:"health"`
	Database  DatabaseConfig  `json:"database"`
	Logging   LoggingConfig   `json:"logging"`
}

type BotConfig struct {
	Token        string   `json:"token"`
	LogChannelID string   `json:"log_channel_id"`
	BotWhitelist []string `json:"bot_whitelist"`
}

type DetectionConfig struct {
	Thresholds Thresholds `json:"thresholds"`
	BadWords   []string   `json:"bad_words"`

	// DuplicateIdleSweepSec drops duplicate streaks idle for this long.
	// Zero keeps them forever.
	DuplicateIdleSweepSec int `json:"duplicate_idle_sweep_sec"`
}

type StoreConfig struct {
	Backend          string `json:"backend"`
	RedisURL         string `json:"redis_url"`
	SweepIntervalSec int    `json:"sweep_interval_sec"`
}

type HealthConfig struct {
	Host string `json:"host"`
	Port int    `json:"port"`
}

type DatabaseConfig struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path"`
}

type LoggingConfig struct {
	Level    string                 `json:"level"`
	File     string                 `json:"file"`
	Rotation logging.RotationConfig `json:"rotation"`
}

const (
	StoreMemory = "memory"
	StoreRedis  = "redis"
)

// LoadEnvFiles loads .env style files into the process environment. Missing
// files are ignored; existing variables are never overwritten.
func LoadEnvFiles(paths ...string) error {
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("failed to load env file %s: %w", p, err)
		}
	}
	return nil
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := DefaultConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func LoadOrDefault(path string) *Config {
	cfg, err := Load(path)
	if err != nil {
		cfg = DefaultConfig()
		applyEnv(cfg)
	}
	return cfg
}

// applyEnv overrides file values with environment variables if present.
func applyEnv(cfg *Config) {
	if token := os.Getenv("DISCORD_TOKEN"); token != "" {
		cfg.Bot.Token = token
	} else if token := os.Getenv("DISCORD_TOKEN_1"); token != "" {
		cfg.Bot.Token = token
	}
	if ch := os.Getenv("MOD_LOG_CHANNEL"); ch != "" {
		cfg.Bot.LogChannelID = ch
	}
	if wl := os.Getenv("BOT_WHITELIST"); wl != "" {
		cfg.Bot.BotWhitelist = SplitList(wl)
	}
	if url := os.Getenv("REDIS_URL"); url != "" {
		cfg.Store.RedisURL = url
		cfg.Store.Backend = StoreRedis
	}
	if port := os.Getenv("PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			cfg.Health.Port = p
		}
	}
	if dbPath := os.Getenv("DATABASE_PATH"); dbPath != "" {
		cfg.Database.Path = dbPath
	}
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		cfg.Logging.Level = level
	}
}

// SplitList splits a comma separated list, trimming blanks.
func SplitList(s string) []string {
	var out []string
	for _, v := range strings.Split(s, ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func (c *Config) Validate() error {
	if err := c.Detection.Thresholds.Validate(); err != nil {
		return fmt.Errorf("invalid thresholds: %w", err)
	}
	switch c.Store.Backend {
	case StoreMemory:
	case StoreRedis:
		if c.Store.RedisURL == "" {
			return fmt.Errorf("redis store selected but redis_url is empty")
		}
	default:
		return fmt.Errorf("unknown store backend %q", c.Store.Backend)
	}
	if c.Health.Port < 0 || c.Health.Port > 65535 {
		return fmt.Errorf("invalid health port %d", c.Health.Port)
	}
	return nil
}

func DefaultConfig() *Config {
	return &Config{
		Bot: BotConfig{},
		Detection: DetectionConfig{
			Thresholds: DefaultThresholds(),
			BadWords:   []string{"badword1", "badword2"},
		},
		Store: StoreConfig{
			Backend:          StoreMemory,
			SweepIntervalSec: 30,
		},
		Health: HealthConfig{
			Port: 4000,
		},
		Database: DatabaseConfig{
			Enabled: true,
			Path:    "raidguard.db",
		},
		Logging: LoggingConfig{
			Level:    "info",
			File:     "logs/raidguard.log",
			Rotation: logging.DefaultRotation(),
		},
	}
}
