package commands

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
)

const recentIncidentLimit = 5

func (h *Handler) handleStatus(ctx context.Context, guildID string) (*discordgo.InteractionResponseData, error) {
	raid := "🔓 Normal"
	color := colorGreen
	if lm := h.deps.Lockdown; lm != nil {
		if lm.IsLocked(guildID) {
			raid = "🔒 **RAID MODE**"
			color = colorRed
			if since, ok := lm.LockedSince(guildID); ok {
				raid += fmt.Sprintf("\nsince <t:%d:R>", since.Unix())
			}
		}
		if n := lm.Lockdowns(guildID); n > 0 {
			raid += fmt.Sprintf("\n`%d` lockdowns since start", n)
		}
	}

	mutes := "`0`"
	if h.deps.Mutes != nil {
		mutes = fmt.Sprintf("`%d`", h.deps.Mutes.PendingMutes())
		if next, ok := h.deps.Mutes.NextMuteExpiry(); ok {
			mutes += fmt.Sprintf("\nnext lifts <t:%d:R>", next.Unix())
		}
	}

	fields := []*discordgo.MessageEmbedField{
		{Name: "Raid State", Value: raid, Inline: true},
		{Name: "Pending Mutes", Value: mutes, Inline: true},
	}

	if h.deps.Incidents != nil {
		recent, err := h.deps.Incidents.RecentIncidents(ctx, guildID, recentIncidentLimit)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch incidents: %w", err)
		}
		counts, err := h.deps.Incidents.CountIncidentsSince(ctx, guildID, h.now().Add(-24*time.Hour))
		if err != nil {
			return nil, fmt.Errorf("failed to count incidents: %w", err)
		}

		var lines []string
		for _, inc := range recent {
			lines = append(lines, fmt.Sprintf("<t:%d:R> `%s` %s → %s", inc.Timestamp.Unix(), inc.Rule, actorMention(inc.ActorID), inc.Outcome))
		}
		fields = append(fields, &discordgo.MessageEmbedField{Name: "Recent Incidents", Value: orNone(lines)})

		var tally []string
		for _, c := range counts {
			tally = append(tally, fmt.Sprintf("• `%s` × %d", c.Rule, c.Count))
		}
		fields = append(fields, &discordgo.MessageEmbedField{Name: "Last 24h", Value: orNone(tally)})
	}

	fields = append(fields, &discordgo.MessageEmbedField{Name: "Host", Value: h.deps.HostStats(ctx).String()})

	return &discordgo.InteractionResponseData{
		Embeds: []*discordgo.MessageEmbed{{
			Title:     "🛡 Raidguard Status",
			Color:     color,
			Fields:    fields,
			Timestamp: h.now().Format(time.RFC3339),
		}},
	}, nil
}

func actorMention(id string) string {
	if id == "" {
		return "-"
	}
	return "<@" + id + ">"
}

func orNone(lines []string) string {
	if len(lines) == 0 {
		return "None"
	}
	return strings.Join(lines, "\n")
}
