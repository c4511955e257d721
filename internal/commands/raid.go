package commands

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"

	"go-raidguard/internal/logging"
)

func (h *Handler) handleRaid(ctx context.Context, guildID, sub string) (*discordgo.InteractionResponseData, error) {
	if h.deps.Lockdown == nil {
		return nil, fmt.Errorf("lockdown is not available")
	}

	var changed bool
	var title, already string
	switch sub {
	case "lock":
		changed = h.deps.Lockdown.Lock(ctx, guildID)
		title, already = "🔒 Server locked", "Server is already locked."
	case "unlock":
		changed = h.deps.Lockdown.Unlock(ctx, guildID)
		title, already = "🔓 Server unlocked", "Server is not locked."
	default:
		return nil, fmt.Errorf("unknown subcommand %q", sub)
	}

	if !changed {
		return ephemeral(&discordgo.MessageEmbed{Title: "No change", Description: already, Color: colorNeutral}), nil
	}

	logging.Info("[COMMANDS] Manual raid %s in %s", sub, guildID)
	return ephemeral(&discordgo.MessageEmbed{Title: title, Color: colorGreen}), nil
}
