package models

import "strings"

// Message is an inbound chat message as seen by the classifier.
type Message struct {
	ID        string
	ChannelID string
	GuildID   string
	AuthorID  string
	AuthorTag string
	AuthorBot bool
	Content   string

	// Distinct user and role ids mentioned by the message.
	MentionUsers []string
	MentionRoles []string
}

// Text returns the trimmed message content.
func (m *Message) Text() string {
	return strings.TrimSpace(m.Content)
}

// InGuild reports whether the message was sent inside a community.
func (m *Message) InGuild() bool {
	return m.GuildID != ""
}

// AuditAction mirrors the platform's audit log action codes.
type AuditAction int

const (
	AuditActionUnknown       AuditAction = 0
	AuditActionChannelDelete AuditAction = 12
	AuditActionMemberKick    AuditAction = 20
	AuditActionMemberBanAdd  AuditAction = 22
	AuditActionRoleDelete    AuditAction = 32
)

func (a AuditAction) String() string {
	switch a {
	case AuditActionChannelDelete:
		return "channel_delete"
	case AuditActionMemberKick:
		return "member_kick"
	case AuditActionMemberBanAdd:
		return "member_ban_add"
	case AuditActionRoleDelete:
		return "role_delete"
	default:
		return "other"
	}
}

// IsDestructive reports whether the action is policed by the anti-nuke monitor.
func (a AuditAction) IsDestructive() bool {
	return a == AuditActionChannelDelete ||
		a == AuditActionRoleDelete ||
		a == AuditActionMemberKick ||
		a == AuditActionMemberBanAdd
}

// AuditEntry is a privileged administrative action reported by the platform.
type AuditEntry struct {
	GuildID  string
	ActorID  string
	TargetID string
	Action   AuditAction
}

// Valid reports whether the entry names both a community and an executor.
func (e *AuditEntry) Valid() bool {
	return e.GuildID != "" && e.ActorID != ""
}
