package models

import "time"

const (
	ColorRed    = 0xff0000
	ColorOrange = 0xffa500
	ColorGreen  = 0x00ff00
)

// Notice is a timestamped message for the moderation log channel.
type Notice struct {
	GuildID     string
	ActorID     string
	Rule        string
	Title       string
	Description string
	Color       int
	Timestamp   time.Time
}

func NewNotice(guildID, title, description string) *Notice {
	return &Notice{
		GuildID:     guildID,
		Title:       title,
		Description: description,
		Color:       ColorRed,
		Timestamp:   time.Now(),
	}
}

func (n *Notice) WithColor(color int) *Notice {
	n.Color = color
	return n
}

func (n *Notice) WithActor(actorID string) *Notice {
	n.ActorID = actorID
	return n
}

func (n *Notice) WithRule(rule string) *Notice {
	n.Rule = rule
	return n
}
