package decision

import (
	"context"
	"fmt"

	"go-raidguard/internal/config"
	"go-raidguard/internal/countstore"
	"go-raidguard/internal/detectors"
	"go-raidguard/internal/logging"
	"go-raidguard/internal/metrics"
	"go-raidguard/internal/models"
)

const (
	TitleAntiNukeBan     = "🚨 ANTI-NUKE BAN"
	TitleAntiNukeWarning = "⚠ ANTI-NUKE Warning"
	AntiNukeBanReason    = "Anti-Nuke limit exceeded"
)

// Offense is the monitor's reaction to one destructive audit entry.
type Offense struct {
	GuildID string
	ActorID string
	Action  models.AuditAction
	Count   int64
	Banned  bool
	Outcome models.Outcome
}

// AntiNuke counts destructive actions per guild and actor and bans actors
// that go over the limit. Every actor is counted, guild owners included.
type AntiNuke struct {
	counters countstore.Store
	limit    config.Limit
	banner   Banner
	notices  Notifier
	recorder Recorder
}

func NewAntiNuke(counters countstore.Store, limit config.Limit, banner Banner, notices Notifier, recorder Recorder) *AntiNuke {
	if recorder == nil {
		recorder = nopRecorder{}
	}
	return &AntiNuke{
		counters: counters,
		limit:    limit,
		banner:   banner,
		notices:  notices,
		recorder: recorder,
	}
}

// Handle returns nil when the entry is ignored: not destructive, missing its
// guild or executor, or the counter could not be read.
func (an *AntiNuke) Handle(ctx context.Context, entry *models.AuditEntry) *Offense {
	if entry == nil || !entry.Valid() || !entry.Action.IsDestructive() {
		return nil
	}
	metrics.AntiNukeEvents.WithLabelValues(entry.Action.String()).Inc()

	key := countstore.Key(countstore.CategoryAntiNuke, entry.GuildID, entry.ActorID)
	n, err := an.counters.Increment(ctx, key, an.limit.Window())
	if err != nil {
		metrics.CountStoreErrors.WithLabelValues(countstore.CategoryAntiNuke).Inc()
		logging.Error("[ANTINUKE] Counter unavailable, skipping %s by %s in %s: %v", entry.Action, entry.ActorID, entry.GuildID, err)
		return nil
	}

	off := &Offense{
		GuildID: entry.GuildID,
		ActorID: entry.ActorID,
		Action:  entry.Action,
		Count:   n,
	}
	mention := "<@" + entry.ActorID + ">"

	if !an.limit.Exceeded(n) {
		logging.Warn("[ANTINUKE] %s by %s in %s: offense %d of limit %d", entry.Action, entry.ActorID, entry.GuildID, n, an.limit.Max)
		an.notices.Send(ctx, models.NewNotice(entry.GuildID, TitleAntiNukeWarning,
			fmt.Sprintf("%s offense %d of limit %d (%s)", mention, n, an.limit.Max, entry.Action)).
			WithActor(entry.ActorID).WithRule(detectors.RuleAntiNuke).WithColor(models.ColorOrange))
		an.recorder.RecordIncident(ctx, &models.Incident{
			GuildID: entry.GuildID,
			ActorID: entry.ActorID,
			Rule:    detectors.RuleAntiNuke,
			Action:  models.ActionNone,
			Detail:  fmt.Sprintf("%s offense %d", entry.Action, n),
		})
		return off
	}

	off.Banned = true
	off.Outcome = an.banner.Ban(ctx, entry.GuildID, entry.ActorID, AntiNukeBanReason)
	metrics.AntiNukeBans.Inc()
	logging.Critical("[ANTINUKE] Banned %s in %s after %d destructive actions (%s)", entry.ActorID, entry.GuildID, n, off.Outcome)

	an.notices.Send(ctx, models.NewNotice(entry.GuildID, TitleAntiNukeBan,
		fmt.Sprintf("%s exceeded the anti-nuke limit (%d actions, last: %s)", mention, n, entry.Action)).
		WithActor(entry.ActorID).WithRule(detectors.RuleAntiNuke))
	an.recorder.RecordIncident(ctx, &models.Incident{
		GuildID: entry.GuildID,
		ActorID: entry.ActorID,
		Rule:    detectors.RuleAntiNuke,
		Action:  models.ActionBan,
		Outcome: off.Outcome,
		Detail:  fmt.Sprintf("%s offense %d", entry.Action, n),
	})
	if off.Outcome == models.OutcomeSuccess {
		an.recorder.RecordBan(ctx, entry.GuildID, entry.ActorID, AntiNukeBanReason)
	}
	return off
}
