package detectors

import (
	"context"

	"go-raidguard/internal/models"
)

// BotRule removes messages from bot accounts that are not whitelisted.
func BotRule() Rule {
	return Rule{
		Name:    RuleBot,
		Title:   "🤖 External Bot Blocked",
		Actions: deleteOnly,
		Check: func(ctx context.Context, env *Env, msg *models.Message, text string) (bool, error) {
			if !msg.AuthorBot {
				return false, nil
			}
			return env.Whitelist == nil || !env.Whitelist.Contains(msg.AuthorID), nil
		},
	}
}
