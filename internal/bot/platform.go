package bot

import (
	"context"

	"github.com/bwmarrin/discordgo"

	"go-raidguard/internal/dispatcher"
)

var _ dispatcher.Platform = (*Platform)(nil)

// Platform performs moderation calls against the Discord REST API. It
// satisfies dispatcher.Platform and notifier.EmbedSender.
type Platform struct {
	s *discordgo.Session
}

func NewPlatform(s *discordgo.Session) *Platform {
	return &Platform{s: s}
}

func (p *Platform) DeleteMessage(ctx context.Context, channelID, messageID string) error {
	return p.s.ChannelMessageDelete(channelID, messageID, discordgo.WithContext(ctx))
}

func (p *Platform) GuildRoles(ctx context.Context, guildID string) ([]*discordgo.Role, error) {
	if p.s.StateEnabled && p.s.State != nil {
		if g, err := p.s.State.Guild(guildID); err == nil && len(g.Roles) > 0 {
			return g.Roles, nil
		}
	}
	return p.s.GuildRoles(guildID, discordgo.WithContext(ctx))
}

// CreateRole creates a role that grants nothing.
func (p *Platform) CreateRole(ctx context.Context, guildID, name string) (*discordgo.Role, error) {
	var none int64
	return p.s.GuildRoleCreate(guildID, &discordgo.RoleParams{
		Name:        name,
		Permissions: &none,
	}, discordgo.WithContext(ctx))
}

func (p *Platform) AddMemberRole(ctx context.Context, guildID, userID, roleID, reason string) error {
	return p.s.GuildMemberRoleAdd(guildID, userID, roleID,
		discordgo.WithContext(ctx), discordgo.WithAuditLogReason(reason))
}

func (p *Platform) RemoveMemberRole(ctx context.Context, guildID, userID, roleID, reason string) error {
	return p.s.GuildMemberRoleRemove(guildID, userID, roleID,
		discordgo.WithContext(ctx), discordgo.WithAuditLogReason(reason))
}

func (p *Platform) GuildChannels(ctx context.Context, guildID string) ([]*discordgo.Channel, error) {
	if p.s.StateEnabled && p.s.State != nil {
		if g, err := p.s.State.Guild(guildID); err == nil && len(g.Channels) > 0 {
			return g.Channels, nil
		}
	}
	return p.s.GuildChannels(guildID, discordgo.WithContext(ctx))
}

// SetSendPermission denies or restores SendMessages for roleID in channel,
// leaving every other bit of the role's overwrite alone.
func (p *Platform) SetSendPermission(ctx context.Context, channel *discordgo.Channel, roleID string, deny bool) error {
	allow, denied, found := sendOverwrite(channel, roleID, deny)
	if !deny && !found {
		return nil
	}
	if allow == 0 && denied == 0 {
		return p.s.ChannelPermissionDelete(channel.ID, roleID, discordgo.WithContext(ctx))
	}
	return p.s.ChannelPermissionSet(channel.ID, roleID, discordgo.PermissionOverwriteTypeRole,
		allow, denied, discordgo.WithContext(ctx))
}

// sendOverwrite computes the overwrite bits for roleID after setting or
// clearing the SendMessages deny. found reports whether the channel already
// had an overwrite for the role.
func sendOverwrite(channel *discordgo.Channel, roleID string, deny bool) (allow, denied int64, found bool) {
	for _, o := range channel.PermissionOverwrites {
		if o.ID == roleID {
			allow, denied, found = o.Allow, o.Deny, true
			break
		}
	}
	allow &^= discordgo.PermissionSendMessages
	if deny {
		denied |= discordgo.PermissionSendMessages
	} else {
		denied &^= discordgo.PermissionSendMessages
	}
	return allow, denied, found
}

func (p *Platform) BanMember(ctx context.Context, guildID, userID, reason string) error {
	return p.s.GuildBanCreateWithReason(guildID, userID, reason, 0, discordgo.WithContext(ctx))
}

// ChannelGuild returns the guild a channel belongs to, from state when the
// channel is cached.
func (p *Platform) ChannelGuild(ctx context.Context, channelID string) (string, error) {
	if p.s.StateEnabled && p.s.State != nil {
		if ch, err := p.s.State.Channel(channelID); err == nil {
			return ch.GuildID, nil
		}
	}
	ch, err := p.s.Channel(channelID, discordgo.WithContext(ctx))
	if err != nil {
		return "", err
	}
	return ch.GuildID, nil
}

func (p *Platform) SendEmbed(ctx context.Context, channelID string, embed *discordgo.MessageEmbed) error {
	_, err := p.s.ChannelMessageSendEmbed(channelID, embed, discordgo.WithContext(ctx))
	return err
}
