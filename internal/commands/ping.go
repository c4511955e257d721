package commands

import (
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"
)

// handlePing reports the gateway heartbeat latency
func (h *Handler) handlePing() *discordgo.InteractionResponseData {
	var ws time.Duration
	if h.deps.Latency != nil {
		ws = h.deps.Latency()
	}

	var statusColor int
	switch ms := ws.Milliseconds(); {
	case ms < 30:
		statusColor = colorGreen
	case ms < 60:
		statusColor = colorYellow
	case ms < 120:
		statusColor = colorOrange
	default:
		statusColor = colorRed
	}

	return &discordgo.InteractionResponseData{
		Embeds: []*discordgo.MessageEmbed{{
			Title: "🚀 Pong!",
			Color: statusColor,
			Fields: []*discordgo.MessageEmbedField{
				{
					Name:   "⚡ WebSocket",
					Value:  fmt.Sprintf("`%dms`", ws.Milliseconds()),
					Inline: true,
				},
				{
					Name:   "⏱ Uptime",
					Value:  fmt.Sprintf("`%s`", h.now().Sub(h.started).Truncate(time.Second)),
					Inline: true,
				},
			},
			Timestamp: h.now().Format(time.RFC3339),
		}},
	}
}
