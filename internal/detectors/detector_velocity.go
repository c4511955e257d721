package detectors

import (
	"context"
	"fmt"
	"strings"

	"go-raidguard/internal/config"
	"go-raidguard/internal/countstore"
	"go-raidguard/internal/models"
)

// HardLimitRule throttles message length. Every message with more than
// HardLimitWords tokens is removed once its counter increment succeeds; the
// counter value itself is not compared against anything.
func HardLimitRule() Rule {
	return Rule{
		Name:    RuleHardLimit,
		Title:   "⌛ Hard Limit Triggered",
		Actions: deleteOnly,
		Check: func(ctx context.Context, env *Env, msg *models.Message, text string) (bool, error) {
			if len(strings.Fields(text)) <= env.Thresholds.HardLimitWords {
				return false, nil
			}
			if _, err := env.Count(ctx, countstore.CategoryHardLimit, env.Thresholds.HardLimitWindow(), msg.AuthorID); err != nil {
				return false, err
			}
			return true, nil
		},
		Describe: func(msg *models.Message, t config.Thresholds) string {
			return fmt.Sprintf("%s sent more than %d words", authorTag(msg), t.HardLimitWords)
		},
	}
}

// SpamRule removes and mutes an actor posting faster than the spam limit.
func SpamRule() Rule {
	return Rule{
		Name:    RuleSpam,
		Title:   "⛔ Spam Blocked",
		Actions: []models.ActionKind{models.ActionDelete, models.ActionMute},
		Check: func(ctx context.Context, env *Env, msg *models.Message, text string) (bool, error) {
			return env.exceeded(ctx, countstore.CategorySpam, env.Thresholds.Spam, msg.AuthorID)
		},
	}
}

func RateLimitRule() Rule {
	return Rule{
		Name:    RuleRateLimit,
		Title:   "📥 Rate Limit",
		Actions: deleteOnly,
		Check: func(ctx context.Context, env *Env, msg *models.Message, text string) (bool, error) {
			return env.exceeded(ctx, countstore.CategoryRateLimit, env.Thresholds.RateLimit, msg.AuthorID)
		},
	}
}

func FloodRule() Rule {
	return Rule{
		Name:    RuleFlood,
		Title:   "🌊 Flood",
		Actions: deleteOnly,
		Check: func(ctx context.Context, env *Env, msg *models.Message, text string) (bool, error) {
			return env.exceeded(ctx, countstore.CategoryFlood, env.Thresholds.Flood, msg.AuthorID)
		},
	}
}

// BurstExceeded counts one message toward the guild-wide burst counter and
// reports whether the guild is over the raid threshold.
func BurstExceeded(ctx context.Context, env *Env, guildID string) (bool, int64, error) {
	n, err := env.Count(ctx, countstore.CategoryBurst, env.Thresholds.Burst.Window(), guildID)
	if err != nil {
		return false, 0, err
	}
	return env.Thresholds.Burst.Exceeded(n), n, nil
}

func (env *Env) exceeded(ctx context.Context, category string, limit config.Limit, scope ...string) (bool, error) {
	n, err := env.Count(ctx, category, limit.Window(), scope...)
	if err != nil {
		return false, err
	}
	return limit.Exceeded(n), nil
}
