package dispatcher

import (
	"context"

	"github.com/bwmarrin/discordgo"
)

// Platform is the subset of the chat platform the executor acts through.
// bot.Platform implements it over a discordgo session.
type Platform interface {
	DeleteMessage(ctx context.Context, channelID, messageID string) error
	GuildRoles(ctx context.Context, guildID string) ([]*discordgo.Role, error)
	// CreateRole creates a role with no permissions.
	CreateRole(ctx context.Context, guildID, name string) (*discordgo.Role, error)
	AddMemberRole(ctx context.Context, guildID, userID, roleID, reason string) error
	RemoveMemberRole(ctx context.Context, guildID, userID, roleID, reason string) error
	GuildChannels(ctx context.Context, guildID string) ([]*discordgo.Channel, error)
	// SetSendPermission denies SendMessages for roleID on the channel when deny
	// is true. When false the SendMessages bit is cleared from the overwrite so
	// the channel inherits it again; other bits are kept.
	SetSendPermission(ctx context.Context, channel *discordgo.Channel, roleID string, deny bool) error
	BanMember(ctx context.Context, guildID, userID, reason string) error
	SendEmbed(ctx context.Context, channelID string, embed *discordgo.MessageEmbed) error
}
