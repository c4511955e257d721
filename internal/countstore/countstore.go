// Package countstore implements windowed counters shared by every rate,
// spam, flood, burst and anti-nuke check.
//
// A counter is created by the first Increment on a key, which also fixes its
// expiry at now+window. Later increments inside the window never move the
// expiry. Once the window elapses the key is gone and the next Increment
// starts again at 1. This is a fixed window, not a sliding log: a burst
// straddling a boundary can admit up to twice the nominal rate.
package countstore

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go-raidguard/internal/config"
)

// Counter categories used as key prefixes.
const (
	CategoryRateLimit = "rl"
	CategorySpam      = "spam"
	CategoryHardLimit = "hard"
	CategoryFlood     = "flood"
	CategoryBurst     = "burst"
	CategoryAntiNuke  = "anti_nuke"
)

type Store interface {
	// Increment atomically bumps key and returns the post-increment count.
	// The window is applied only when the count transitions from 0 to 1.
	Increment(ctx context.Context, key string, window time.Duration) (int64, error)
	// Get returns the current count, or 0 if the key is absent or expired.
	Get(ctx context.Context, key string) (int64, error)
	Ping(ctx context.Context) error
	Close() error
}

// Key joins a category with its scope identifiers, e.g. anti_nuke:<guild>:<actor>.
func Key(category string, scope ...string) string {
	return category + ":" + strings.Join(scope, ":")
}

// New builds the store selected by cfg.
func New(cfg config.StoreConfig) (Store, error) {
	switch cfg.Backend {
	case config.StoreRedis:
		return NewRedisStore(cfg.RedisURL)
	case config.StoreMemory, "":
		ms := NewMemStore()
		if cfg.SweepIntervalSec > 0 {
			ms.StartSweeper(time.Duration(cfg.SweepIntervalSec) * time.Second)
		}
		return ms, nil
	default:
		return nil, fmt.Errorf("unknown count store backend %q", cfg.Backend)
	}
}
