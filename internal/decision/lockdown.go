package decision

import (
	"context"
	"time"

	"go-raidguard/internal/detectors"
	"go-raidguard/internal/dispatcher"
	"go-raidguard/internal/logging"
	"go-raidguard/internal/metrics"
	"go-raidguard/internal/models"
	"go-raidguard/internal/state"
)

const (
	TitleRaidDetected = "⚠ RAID DETECTED"
	TitleRaidEnabled  = "🔒 RAID MODE ENABLED"
	TitleRaidDisabled = "🔓 RAID MODE DISABLED"
)

// LockdownManager drives the per-guild Unlocked/Locked state machine. Only
// the caller that wins the state transition touches channels or posts the
// ENABLED/DISABLED notice, so repeated calls in the target state are no-ops.
type LockdownManager struct {
	guilds      *state.GuildStates
	channels    ChannelLocker
	notices     Notifier
	recorder    Recorder
	scheduler   dispatcher.Scheduler
	unlockAfter time.Duration
}

func NewLockdownManager(guilds *state.GuildStates, channels ChannelLocker, notices Notifier, recorder Recorder, scheduler dispatcher.Scheduler, unlockAfter time.Duration) *LockdownManager {
	if recorder == nil {
		recorder = nopRecorder{}
	}
	if scheduler == nil {
		scheduler = dispatcher.TimerScheduler{}
	}
	return &LockdownManager{
		guilds:      guilds,
		channels:    channels,
		notices:     notices,
		recorder:    recorder,
		scheduler:   scheduler,
		unlockAfter: unlockAfter,
	}
}

func (lm *LockdownManager) IsLocked(guildID string) bool {
	return lm.guilds.IsLocked(guildID)
}

// LockedSince reports when the current lockdown of guildID began.
func (lm *LockdownManager) LockedSince(guildID string) (time.Time, bool) {
	at := lm.guilds.Get(guildID).LockedAt()
	return at, !at.IsZero()
}

// Lockdowns counts the lockdowns of guildID since start.
func (lm *LockdownManager) Lockdowns(guildID string) uint32 {
	return lm.guilds.Get(guildID).Lockdowns()
}

// Lock denies sending on every channel of the guild. It returns false if
// the guild was already locked.
func (lm *LockdownManager) Lock(ctx context.Context, guildID string) bool {
	if !lm.guilds.TryLock(guildID) {
		return false
	}
	metrics.LockdownTransitions.WithLabelValues("lock").Inc()
	lm.notices.Send(ctx, models.NewNotice(guildID, TitleRaidEnabled, "Server locked due to RAID attack").WithRule(detectors.RuleBurst))

	out := lm.channels.LockChannels(ctx, guildID, func() bool { return lm.guilds.IsLocked(guildID) })
	lm.recorder.RecordIncident(ctx, &models.Incident{
		GuildID: guildID,
		Rule:    detectors.RuleBurst,
		Action:  models.ActionLock,
		Outcome: out,
	})
	logging.Warn("[RAID] Guild %s locked (%s)", guildID, out)
	return true
}

// Unlock restores inherited send permissions. It returns false, and makes
// no platform calls, if the guild was not locked.
func (lm *LockdownManager) Unlock(ctx context.Context, guildID string) bool {
	if !lm.guilds.TryUnlock(guildID) {
		return false
	}
	metrics.LockdownTransitions.WithLabelValues("unlock").Inc()
	lm.notices.Send(ctx, models.NewNotice(guildID, TitleRaidDisabled, "Server unlocked").WithColor(models.ColorGreen))

	out := lm.channels.UnlockChannels(ctx, guildID, func() bool { return !lm.guilds.IsLocked(guildID) })
	lm.recorder.RecordIncident(ctx, &models.Incident{
		GuildID: guildID,
		Rule:    detectors.RuleBurst,
		Action:  models.ActionUnlock,
		Outcome: out,
	})
	logging.Info("[RAID] Guild %s unlocked (%s)", guildID, out)
	return true
}

// Trigger reacts to one over-threshold burst message: it reports the raid,
// locks the guild if needed and schedules an unlock. The unlock is never
// cancelled; it fires even if the guild was unlocked by hand in between, in
// which case it does nothing.
//
// During a sustained raid an unlock scheduled by an earlier message can fire
// while a later Lock is still editing channels. Each channel pass stops as
// soon as the guild leaves the state it is applying, so the pass that matches
// the final state is the one that finishes. A channel edited by the stopped
// pass before the switch is not revisited.
func (lm *LockdownManager) Trigger(ctx context.Context, guildID string) {
	lm.notices.Send(ctx, models.NewNotice(guildID, TitleRaidDetected, "Mass message burst detected").WithColor(models.ColorOrange).WithRule(detectors.RuleBurst))
	lm.Lock(ctx, guildID)

	lm.scheduler.Schedule(lm.unlockAfter, func() {
		lm.Unlock(context.Background(), guildID)
	})
}
