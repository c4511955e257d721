// Package detectors defines the message rules and the order they run in.
//
// A rule is a predicate plus the actions to take when it matches. The chain
// is evaluated front to back and stops at the first match, so the position of
// a rule in Chain is part of its behaviour: a message that would trip two
// rules is only ever reported under the earlier one.
package detectors

import (
	"context"
	"fmt"
	"time"

	"go-raidguard/internal/config"
	"go-raidguard/internal/countstore"
	"go-raidguard/internal/models"
	"go-raidguard/internal/state"
)

// Rule names, also used as metric labels and incident rules.
const (
	RuleBot       = "bot"
	RuleHardLimit = "hard_limit"
	RuleSpam      = "spam"
	RuleRateLimit = "rate_limit"
	RuleBadWord   = "bad_word"
	RuleInvite    = "invite"
	RuleDuplicate = "duplicate"
	RuleFlood     = "flood"
	RuleMention   = "mention"
	RuleLink      = "link"
	RuleBurst     = "burst"
	RuleAntiNuke  = "anti_nuke"
)

// Env is the shared state rules read and update.
type Env struct {
	Counters   countstore.Store
	Duplicates *state.DuplicateTracker
	Whitelist  *state.Whitelist
	Thresholds config.Thresholds
	BadWords   []string
}

// CheckFunc reports whether msg matches. text is the trimmed content. An
// error means the rule could not be evaluated and must be treated as a pass.
type CheckFunc func(ctx context.Context, env *Env, msg *models.Message, text string) (bool, error)

type Rule struct {
	Name    string
	Title   string
	Actions []models.ActionKind
	Check   CheckFunc
	// Describe renders the notice body. Nil means the author tag alone.
	Describe func(msg *models.Message, t config.Thresholds) string
}

func (r Rule) Description(msg *models.Message, t config.Thresholds) string {
	if r.Describe != nil {
		return r.Describe(msg, t)
	}
	return authorTag(msg)
}

// Has reports whether the rule takes the given action.
func (r Rule) Has(kind models.ActionKind) bool {
	for _, a := range r.Actions {
		if a == kind {
			return true
		}
	}
	return false
}

// Chain returns the message rules in evaluation order.
func Chain() []Rule {
	return []Rule{
		BotRule(),
		HardLimitRule(),
		SpamRule(),
		RateLimitRule(),
		BadWordRule(),
		InviteRule(),
		DuplicateRule(),
		FloodRule(),
		MentionRule(),
		LinkRule(),
	}
}

// CounterError wraps a count store failure with the counter category.
type CounterError struct {
	Category string
	Err      error
}

func (e *CounterError) Error() string {
	return fmt.Sprintf("%s counter: %v", e.Category, e.Err)
}

func (e *CounterError) Unwrap() error {
	return e.Err
}

// Count bumps the category counter of scope and returns the new value.
func (env *Env) Count(ctx context.Context, category string, window time.Duration, scope ...string) (int64, error) {
	n, err := env.Counters.Increment(ctx, countstore.Key(category, scope...), window)
	if err != nil {
		return 0, &CounterError{Category: category, Err: err}
	}
	return n, nil
}

func authorTag(msg *models.Message) string {
	if msg.AuthorTag != "" {
		return msg.AuthorTag
	}
	return "<@" + msg.AuthorID + ">"
}

var deleteOnly = []models.ActionKind{models.ActionDelete}
