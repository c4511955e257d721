package database

import (
	"context"

	"go-raidguard/internal/logging"
	"go-raidguard/internal/models"
)

// Recorder writes incidents without ever failing the caller. A Recorder
// over a nil Database discards everything.
type Recorder struct {
	db *Database
}

func NewRecorder(db *Database) *Recorder {
	return &Recorder{db: db}
}

func (r *Recorder) RecordIncident(ctx context.Context, inc *models.Incident) {
	if r == nil || r.db == nil {
		return
	}
	if err := r.db.LogIncident(ctx, inc); err != nil {
		logging.Warn("[DB] Failed to record %s incident for %s: %v", inc.Rule, inc.GuildID, err)
	}
}

func (r *Recorder) RecordBan(ctx context.Context, guildID, userID, reason string) {
	if r == nil || r.db == nil {
		return
	}
	if err := r.db.AddBannedUser(ctx, guildID, userID, reason, "anti-nuke"); err != nil {
		logging.Warn("[DB] Failed to add banned user %s in %s: %v", userID, guildID, err)
	}
}
