package bot

import (
	"context"
	"runtime/debug"
	"time"

	"github.com/bwmarrin/discordgo"

	"go-raidguard/internal/correlator"
	"go-raidguard/internal/decision"
	"go-raidguard/internal/logging"
	"go-raidguard/internal/models"
	"go-raidguard/internal/state"
)

// MessageProcessor classifies and acts on inbound messages.
type MessageProcessor interface {
	Process(ctx context.Context, msg *models.Message) *correlator.Verdict
}

// AuditProcessor polices privileged administrative actions.
type AuditProcessor interface {
	Handle(ctx context.Context, entry *models.AuditEntry) *decision.Offense
}

// EventTimeout bounds the work done for a single gateway event.
const EventTimeout = 30 * time.Second

// Handlers turns gateway events into pipeline calls. discordgo runs each
// handler on its own goroutine.
type Handlers struct {
	Messages  MessageProcessor
	Audit     AuditProcessor
	Whitelist *state.Whitelist
}

// SetupEventHandlers registers h on the session.
func (s *Session) SetupEventHandlers(h *Handlers) {
	s.discord.AddHandler(h.onReady)
	s.discord.AddHandler(h.onGuildCreate)
	s.discord.AddHandler(h.onMessageCreate)
	s.discord.AddHandler(h.onAuditLogEntry)
	logging.Info("[BOT] Event handlers registered")
}

func (h *Handlers) onReady(_ *discordgo.Session, r *discordgo.Ready) {
	defer recoverHandler("ready")
	if r.User == nil {
		return
	}
	if h.Whitelist != nil {
		h.Whitelist.Add(r.User.ID)
	}
	logging.Info("[BOT] Ready as %s in %d guilds", r.User.Username, len(r.Guilds))
}

func (h *Handlers) onGuildCreate(_ *discordgo.Session, g *discordgo.GuildCreate) {
	defer recoverHandler("guild_create")
	logging.Debug("[BOT] Guild available: %s (%s)", g.Name, g.ID)
}

func (h *Handlers) onMessageCreate(_ *discordgo.Session, m *discordgo.MessageCreate) {
	defer recoverHandler("message_create")
	msg := MessageFromEvent(m)
	if msg == nil || h.Messages == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), EventTimeout)
	defer cancel()
	h.Messages.Process(ctx, msg)
}

func (h *Handlers) onAuditLogEntry(_ *discordgo.Session, e *discordgo.GuildAuditLogEntryCreate) {
	defer recoverHandler("audit_log_entry")
	entry := AuditEntryFromEvent(e)
	if entry == nil || h.Audit == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), EventTimeout)
	defer cancel()
	h.Audit.Handle(ctx, entry)
}

// MessageFromEvent converts a gateway message. Messages without an author
// return nil.
func MessageFromEvent(m *discordgo.MessageCreate) *models.Message {
	if m == nil || m.Message == nil || m.Author == nil {
		return nil
	}

	msg := &models.Message{
		ID:        m.ID,
		ChannelID: m.ChannelID,
		GuildID:   m.GuildID,
		AuthorID:  m.Author.ID,
		AuthorTag: m.Author.String(),
		AuthorBot: m.Author.Bot,
		Content:   m.Content,
	}

	seen := make(map[string]struct{}, len(m.Mentions))
	for _, u := range m.Mentions {
		if u == nil {
			continue
		}
		if _, dup := seen[u.ID]; dup {
			continue
		}
		seen[u.ID] = struct{}{}
		msg.MentionUsers = append(msg.MentionUsers, u.ID)
	}
	msg.MentionRoles = append(msg.MentionRoles, m.MentionRoles...)
	return msg
}

// AuditEntryFromEvent converts a gateway audit log entry. Entries without an
// action type return nil.
func AuditEntryFromEvent(e *discordgo.GuildAuditLogEntryCreate) *models.AuditEntry {
	if e == nil || e.AuditLogEntry == nil || e.ActionType == nil {
		return nil
	}
	return &models.AuditEntry{
		GuildID:  e.GuildID,
		ActorID:  e.UserID,
		TargetID: e.TargetID,
		Action:   models.AuditAction(*e.ActionType),
	}
}

func recoverHandler(event string) {
	if r := recover(); r != nil {
		logging.Critical("[BOT] Panic in %s handler: %v\n%s", event, r, debug.Stack())
	}
}
