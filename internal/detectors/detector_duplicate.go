package detectors

import (
	"context"

	"go-raidguard/internal/models"
)

// DuplicateRule fires once the same actor sends identical text
// DuplicateLimit times in a row.
func DuplicateRule() Rule {
	return Rule{
		Name:    RuleDuplicate,
		Title:   "📛 Duplicate",
		Actions: deleteOnly,
		Check: func(ctx context.Context, env *Env, msg *models.Message, text string) (bool, error) {
			n := env.Duplicates.Observe(msg.AuthorID, text)
			return n >= env.Thresholds.DuplicateLimit, nil
		},
	}
}
