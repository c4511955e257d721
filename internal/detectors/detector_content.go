package detectors

import (
	"context"
	"regexp"
	"strings"

	"go-raidguard/internal/models"
)

var (
	inviteRe = regexp.MustCompile(`(?i)(discord\.gg|discord\.com/invite)`)
	linkRe   = regexp.MustCompile(`https?://`)
)

// BadWordRule matches any deny-listed word as a case-insensitive substring.
func BadWordRule() Rule {
	return Rule{
		Name:    RuleBadWord,
		Title:   "🤬 Bad Word",
		Actions: deleteOnly,
		Check: func(ctx context.Context, env *Env, msg *models.Message, text string) (bool, error) {
			return ContainsBadWord(text, env.BadWords), nil
		},
	}
}

func ContainsBadWord(text string, words []string) bool {
	lower := strings.ToLower(text)
	for _, w := range words {
		if w != "" && strings.Contains(lower, strings.ToLower(w)) {
			return true
		}
	}
	return false
}

func InviteRule() Rule {
	return Rule{
		Name:    RuleInvite,
		Title:   "🚫 Invite Blocked",
		Actions: deleteOnly,
		Check: func(ctx context.Context, env *Env, msg *models.Message, text string) (bool, error) {
			return inviteRe.MatchString(text), nil
		},
	}
}

// MentionRule fires when a message mentions more than MentionLimit distinct
// users or more than MentionLimit distinct roles.
func MentionRule() Rule {
	return Rule{
		Name:    RuleMention,
		Title:   "🔔 Mention Spam",
		Actions: deleteOnly,
		Check: func(ctx context.Context, env *Env, msg *models.Message, text string) (bool, error) {
			limit := env.Thresholds.MentionLimit
			return distinct(msg.MentionUsers) > limit || distinct(msg.MentionRoles) > limit, nil
		},
	}
}

// LinkRule fires on a message carrying a URL whose text splits on "http"
// into more than LinkSegments pieces.
func LinkRule() Rule {
	return Rule{
		Name:    RuleLink,
		Title:   "🔗 Link Spam",
		Actions: deleteOnly,
		Check: func(ctx context.Context, env *Env, msg *models.Message, text string) (bool, error) {
			if !linkRe.MatchString(text) {
				return false, nil
			}
			return len(strings.Split(text, "http")) > env.Thresholds.LinkSegments, nil
		},
	}
}

func distinct(ids []string) int {
	if len(ids) < 2 {
		return len(ids)
	}
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		seen[id] = struct{}{}
	}
	return len(seen)
}
