// Package decision holds the guild-level responses: the raid lockdown state
// machine and the destructive action monitor.
package decision

import (
	"context"

	"go-raidguard/internal/models"
)

// Notifier delivers notices to the moderation log channel.
type Notifier interface {
	Send(ctx context.Context, notice *models.Notice)
}

// Recorder persists incidents and bans. Implementations must not fail the
// caller.
type Recorder interface {
	RecordIncident(ctx context.Context, inc *models.Incident)
	RecordBan(ctx context.Context, guildID, userID, reason string)
}

// ChannelLocker edits send permissions across a guild. keep is consulted
// before every channel edit; once it returns false the pass stops.
type ChannelLocker interface {
	LockChannels(ctx context.Context, guildID string, keep func() bool) models.Outcome
	UnlockChannels(ctx context.Context, guildID string, keep func() bool) models.Outcome
}

type Banner interface {
	Ban(ctx context.Context, guildID, userID, reason string) models.Outcome
}

type nopRecorder struct{}

func (nopRecorder) RecordIncident(context.Context, *models.Incident) {}

func (nopRecorder) RecordBan(context.Context, string, string, string) {}
