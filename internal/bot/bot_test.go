package bot

import (
	"context"
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-raidguard/internal/correlator"
	"go-raidguard/internal/decision"
	"go-raidguard/internal/models"
	"go-raidguard/internal/state"
)

type messageSink struct {
	got   []*models.Message
	panic bool
}

func (s *messageSink) Process(ctx context.Context, msg *models.Message) *correlator.Verdict {
	if s.panic {
		panic("boom")
	}
	s.got = append(s.got, msg)
	return &correlator.Verdict{}
}

type auditSink struct {
	got []*models.AuditEntry
}

func (s *auditSink) Handle(ctx context.Context, e *models.AuditEntry) *decision.Offense {
	s.got = append(s.got, e)
	return nil
}

func messageEvent() *discordgo.MessageCreate {
	return &discordgo.MessageCreate{Message: &discordgo.Message{
		ID:        "m1",
		ChannelID: "c1",
		GuildID:   "g1",
		Content:   "  hi <@2> <@2> <@3>  ",
		Author:    &discordgo.User{ID: "u1", Username: "alice", Discriminator: "0001"},
		Mentions: []*discordgo.User{
			{ID: "2"}, {ID: "2"}, nil, {ID: "3"},
		},
		MentionRoles: []string{"r1"},
	}}
}

func TestMessageFromEvent(t *testing.T) {
	msg := MessageFromEvent(messageEvent())
	require.NotNil(t, msg)
	assert.Equal(t, "m1", msg.ID)
	assert.Equal(t, "g1", msg.GuildID)
	assert.Equal(t, "u1", msg.AuthorID)
	assert.Equal(t, "alice#0001", msg.AuthorTag)
	assert.False(t, msg.AuthorBot)
	assert.Equal(t, "hi <@2> <@2> <@3>", msg.Text())
	assert.Equal(t, []string{"2", "3"}, msg.MentionUsers)
	assert.Equal(t, []string{"r1"}, msg.MentionRoles)

	assert.Nil(t, MessageFromEvent(nil))
	assert.Nil(t, MessageFromEvent(&discordgo.MessageCreate{Message: &discordgo.Message{ID: "m"}}))
}

func TestAuditEntryFromEvent(t *testing.T) {
	action := discordgo.AuditLogActionRoleDelete
	e := &discordgo.GuildAuditLogEntryCreate{
		AuditLogEntry: &discordgo.AuditLogEntry{UserID: "admin", TargetID: "r9", ActionType: &action},
		GuildID:       "g1",
	}
	entry := AuditEntryFromEvent(e)
	require.NotNil(t, entry)
	assert.Equal(t, models.AuditEntry{GuildID: "g1", ActorID: "admin", TargetID: "r9", Action: models.AuditActionRoleDelete}, *entry)

	assert.Nil(t, AuditEntryFromEvent(&discordgo.GuildAuditLogEntryCreate{AuditLogEntry: &discordgo.AuditLogEntry{}}))
	assert.Nil(t, AuditEntryFromEvent(nil))
}

func TestAuditActionCodesMatch(t *testing.T) {
	assert.Equal(t, int(discordgo.AuditLogActionChannelDelete), int(models.AuditActionChannelDelete))
	assert.Equal(t, int(discordgo.AuditLogActionMemberKick), int(models.AuditActionMemberKick))
	assert.Equal(t, int(discordgo.AuditLogActionMemberBanAdd), int(models.AuditActionMemberBanAdd))
	assert.Equal(t, int(discordgo.AuditLogActionRoleDelete), int(models.AuditActionRoleDelete))
}

func TestHandlersForwardEvents(t *testing.T) {
	msgs := &messageSink{}
	audits := &auditSink{}
	h := &Handlers{Messages: msgs, Audit: audits, Whitelist: state.NewWhitelist()}

	h.onReady(nil, &discordgo.Ready{User: &discordgo.User{ID: "self", Username: "raidguard"}})
	assert.True(t, h.Whitelist.Contains("self"))

	h.onMessageCreate(nil, messageEvent())
	require.Len(t, msgs.got, 1)
	assert.Equal(t, "m1", msgs.got[0].ID)

	action := discordgo.AuditLogActionChannelDelete
	h.onAuditLogEntry(nil, &discordgo.GuildAuditLogEntryCreate{
		AuditLogEntry: &discordgo.AuditLogEntry{UserID: "admin", ActionType: &action},
		GuildID:       "g1",
	})
	require.Len(t, audits.got, 1)
	assert.Equal(t, models.AuditActionChannelDelete, audits.got[0].Action)
}

func TestHandlerRecoversPanic(t *testing.T) {
	h := &Handlers{Messages: &messageSink{panic: true}}
	assert.NotPanics(t, func() { h.onMessageCreate(nil, messageEvent()) })
}

func TestSendOverwrite(t *testing.T) {
	const send = discordgo.PermissionSendMessages
	ch := &discordgo.Channel{ID: "c1", PermissionOverwrites: []*discordgo.PermissionOverwrite{
		{ID: "other", Deny: send},
		{ID: "g1", Allow: send | discordgo.PermissionViewChannel, Deny: discordgo.PermissionAttachFiles},
	}}

	allow, deny, found := sendOverwrite(ch, "g1", true)
	assert.True(t, found)
	assert.Equal(t, int64(discordgo.PermissionViewChannel), allow)
	assert.Equal(t, int64(send|discordgo.PermissionAttachFiles), deny)

	ch.PermissionOverwrites[1].Allow = allow
	ch.PermissionOverwrites[1].Deny = deny
	allow, deny, _ = sendOverwrite(ch, "g1", false)
	assert.Equal(t, int64(discordgo.PermissionViewChannel), allow)
	assert.Equal(t, int64(discordgo.PermissionAttachFiles), deny)

	allow, deny, found = sendOverwrite(&discordgo.Channel{ID: "c2"}, "g1", true)
	assert.False(t, found)
	assert.Zero(t, allow)
	assert.Equal(t, int64(send), deny)
}

func TestNewRejectsEmptyToken(t *testing.T) {
	_, err := New("")
	assert.Error(t, err)

	s, err := New("abc")
	require.NoError(t, err)
	assert.Equal(t, Intents, s.Discord().Identify.Intents)
	assert.Error(t, s.RegisterCommands(nil), "not connected")
}

func TestChannelGuildFromState(t *testing.T) {
	s, err := discordgo.New("Bot token")
	require.NoError(t, err)
	require.NoError(t, s.State.GuildAdd(&discordgo.Guild{ID: "g1"}))
	require.NoError(t, s.State.ChannelAdd(&discordgo.Channel{ID: "log", GuildID: "g1"}))

	g, err := NewPlatform(s).ChannelGuild(context.Background(), "log")
	require.NoError(t, err)
	assert.Equal(t, "g1", g)
}
