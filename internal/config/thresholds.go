package config

import (
	"fmt"
	"time"
)

// Limit is a windowed counter threshold. A rule fires once the counter
// exceeds Max within the window.
type Limit struct {
	Max       int64 `json:"max"`
	WindowSec int   `json:"window_sec"`
}

func (l Limit) Window() time.Duration {
	return time.Duration(l.WindowSec) * time.Second
}

func (l Limit) Exceeded(count int64) bool {
	return count > l.Max
}

// Thresholds holds every tunable number used by the detection pipeline.
type Thresholds struct {
	RateLimit Limit `json:"rate_limit"`
	Spam      Limit `json:"spam"`
	Flood     Limit `json:"flood"`
	Burst     Limit `json:"burst"`
	AntiNuke  Limit `json:"anti_nuke"`

	// HardLimit fires on every message longer than HardLimitWords tokens;
	// the window only scopes the counter key.
	HardLimitWords     int `json:"hard_limit_words"`
	HardLimitWindowSec int `json:"hard_limit_window_sec"`

	DuplicateLimit int `json:"duplicate_limit"`
	MentionLimit   int `json:"mention_limit"`
	LinkSegments   int `json:"link_segments"`

	MuteSec          int `json:"mute_sec"`
	RaidUnlockSec    int `json:"raid_unlock_sec"`
	ActionTimeoutSec int `json:"action_timeout_sec"`
}

func DefaultThresholds() Thresholds {
	return Thresholds{
		RateLimit: Limit{Max: 2, WindowSec: 5},
		Spam:      Limit{Max: 2, WindowSec: 3},
		Flood:     Limit{Max: 3, WindowSec: 3},
		Burst:     Limit{Max: 20, WindowSec: 3},
		AntiNuke:  Limit{Max: 2, WindowSec: 3600},

		HardLimitWords:     2,
		HardLimitWindowSec: 3,

		DuplicateLimit: 3,
		MentionLimit:   5,
		LinkSegments:   3,

		MuteSec:          120,
		RaidUnlockSec:    30,
		ActionTimeoutSec: 10,
	}
}

func (t Thresholds) HardLimitWindow() time.Duration {
	return time.Duration(t.HardLimitWindowSec) * time.Second
}

func (t Thresholds) MuteDuration() time.Duration {
	return time.Duration(t.MuteSec) * time.Second
}

func (t Thresholds) RaidUnlockDelay() time.Duration {
	return time.Duration(t.RaidUnlockSec) * time.Second
}

func (t Thresholds) ActionTimeout() time.Duration {
	return time.Duration(t.ActionTimeoutSec) * time.Second
}

// Validate rejects windows and limits that would disable or break a rule.
func (t Thresholds) Validate() error {
	limits := map[string]Limit{
		"rate_limit": t.RateLimit,
		"spam":       t.Spam,
		"flood":      t.Flood,
		"burst":      t.Burst,
		"anti_nuke":  t.AntiNuke,
	}
	for name, l := range limits {
		if l.Max <= 0 {
			return fmt.Errorf("%s: max must be positive, got %d", name, l.Max)
		}
		if l.WindowSec <= 0 {
			return fmt.Errorf("%s: window must be positive, got %d", name, l.WindowSec)
		}
	}

	positive := map[string]int{
		"hard_limit_words":      t.HardLimitWords,
		"hard_limit_window_sec": t.HardLimitWindowSec,
		"duplicate_limit":       t.DuplicateLimit,
		"mention_limit":         t.MentionLimit,
		"link_segments":         t.LinkSegments,
		"mute_sec":              t.MuteSec,
		"raid_unlock_sec":       t.RaidUnlockSec,
		"action_timeout_sec":    t.ActionTimeoutSec,
	}
	for name, v := range positive {
		if v <= 0 {
			return fmt.Errorf("%s must be positive, got %d", name, v)
		}
	}
	return nil
}
