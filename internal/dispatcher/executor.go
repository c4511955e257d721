package dispatcher

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/puzpuzpuz/xsync/v3"

	"go-raidguard/internal/logging"
	"go-raidguard/internal/metrics"
	"go-raidguard/internal/models"
)

const (
	MuteRoleName      = "Muted"
	MuteExpiredReason = "Mute expired"
)

type muteEntry struct {
	roleID string
	until  time.Time
	task   Task
}

// Executor performs remedial actions. Every operation is best effort: errors
// are classified into an Outcome, logged and counted, never returned.
type Executor struct {
	platform  Platform
	scheduler Scheduler
	timeout   time.Duration
	now       func() time.Time

	mutes     *xsync.MapOf[string, *muteEntry]
	muteRoles *xsync.MapOf[string, string]
	roleLocks *xsync.MapOf[string, *sync.Mutex]
}

func NewExecutor(platform Platform, scheduler Scheduler, timeout time.Duration) *Executor {
	if scheduler == nil {
		scheduler = TimerScheduler{}
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Executor{
		platform:  platform,
		scheduler: scheduler,
		timeout:   timeout,
		now:       time.Now,
		mutes:     xsync.NewMapOf[string, *muteEntry](),
		muteRoles: xsync.NewMapOf[string, string](),
		roleLocks: xsync.NewMapOf[string, *sync.Mutex](),
	}
}

func (e *Executor) Scheduler() Scheduler {
	return e.scheduler
}

func (e *Executor) callCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithTimeout(ctx, e.timeout)
}

func (e *Executor) record(kind models.ActionKind, target string, err error) models.Outcome {
	out := Outcome(err)
	metrics.ActionOutcomes.WithLabelValues(string(kind), out.String()).Inc()
	switch out {
	case models.OutcomeMissing:
		logging.Debug("[DISPATCHER] %s %s: target gone", kind, target)
	case models.OutcomeUnknown:
		if Timeout(err) {
			logging.Warn("[DISPATCHER] %s %s timed out after %s", kind, target, e.timeout)
			break
		}
		logging.Warn("[DISPATCHER] %s %s failed: %v", kind, target, err)
	}
	return out
}

// Delete removes a message.
func (e *Executor) Delete(ctx context.Context, channelID, messageID string) models.Outcome {
	ctx, cancel := e.callCtx(ctx)
	defer cancel()
	err := e.platform.DeleteMessage(ctx, channelID, messageID)
	return e.record(models.ActionDelete, channelID+"/"+messageID, err)
}

// Ban bans userID from the guild.
func (e *Executor) Ban(ctx context.Context, guildID, userID, reason string) models.Outcome {
	ctx, cancel := e.callCtx(ctx)
	defer cancel()
	err := e.platform.BanMember(ctx, guildID, userID, reason)
	return e.record(models.ActionBan, guildID+"/"+userID, err)
}

// Mute assigns the guild's mute role and schedules its removal after d. A
// repeat mute of the same member replaces the pending removal, so the member
// stays muted for d from the latest mute.
func (e *Executor) Mute(ctx context.Context, guildID, userID string, d time.Duration, reason string) models.Outcome {
	ctx, cancel := e.callCtx(ctx)
	defer cancel()

	target := guildID + "/" + userID
	roleID, err := e.muteRole(ctx, guildID)
	if err != nil {
		return e.record(models.ActionMute, target, err)
	}

	err = e.platform.AddMemberRole(ctx, guildID, userID, roleID, reason)
	out := e.record(models.ActionMute, target, err)
	if out == models.OutcomeMissing {
		// the member or the role is gone; rediscover the role next time
		e.muteRoles.Delete(guildID)
	}
	if out != models.OutcomeSuccess {
		return out
	}

	key := muteKey(guildID, userID)
	until := e.now().Add(d)
	e.mutes.Compute(key, func(old *muteEntry, loaded bool) (*muteEntry, bool) {
		if loaded {
			old.task.Cancel()
		}
		entry := &muteEntry{roleID: roleID, until: until}
		entry.task = e.scheduler.Schedule(d, func() {
			e.expireMute(guildID, userID, entry)
		})
		return entry, false
	})

	logging.Info("[DISPATCHER] Muted %s in %s until %s", userID, guildID, until.Format(time.RFC3339))
	return out
}

func (e *Executor) expireMute(guildID, userID string, entry *muteEntry) {
	current := false
	e.mutes.Compute(muteKey(guildID, userID), func(cur *muteEntry, loaded bool) (*muteEntry, bool) {
		if loaded && cur == entry {
			current = true
			return cur, true
		}
		return cur, !loaded
	})
	if !current {
		return
	}

	ctx, cancel := e.callCtx(context.Background())
	defer cancel()
	err := e.platform.RemoveMemberRole(ctx, guildID, userID, entry.roleID, MuteExpiredReason)
	e.record(models.ActionUnmute, guildID+"/"+userID, err)
}

// Unmute removes the mute role now and drops any pending expiry.
func (e *Executor) Unmute(ctx context.Context, guildID, userID, reason string) models.Outcome {
	ctx, cancel := e.callCtx(ctx)
	defer cancel()

	var roleID string
	if entry, ok := e.mutes.LoadAndDelete(muteKey(guildID, userID)); ok {
		entry.task.Cancel()
		roleID = entry.roleID
	} else {
		id, err := e.muteRole(ctx, guildID)
		if err != nil {
			return e.record(models.ActionUnmute, guildID+"/"+userID, err)
		}
		roleID = id
	}

	err := e.platform.RemoveMemberRole(ctx, guildID, userID, roleID, reason)
	return e.record(models.ActionUnmute, guildID+"/"+userID, err)
}

// PendingMutes is the number of scheduled mute removals.
func (e *Executor) PendingMutes() int {
	return e.mutes.Size()
}

// NextMuteExpiry reports the earliest pending mute removal.
func (e *Executor) NextMuteExpiry() (time.Time, bool) {
	var next time.Time
	e.mutes.Range(func(_ string, entry *muteEntry) bool {
		if next.IsZero() || entry.until.Before(next) {
			next = entry.until
		}
		return true
	})
	return next, !next.IsZero()
}

// muteRole finds the guild role named Muted, creating it without
// permissions if absent. Lookup and creation run under a per-guild lock so
// concurrent mutes agree on a single role.
func (e *Executor) muteRole(ctx context.Context, guildID string) (string, error) {
	if id, ok := e.muteRoles.Load(guildID); ok {
		return id, nil
	}

	mu, _ := e.roleLocks.LoadOrCompute(guildID, func() *sync.Mutex {
		return &sync.Mutex{}
	})
	mu.Lock()
	defer mu.Unlock()

	if id, ok := e.muteRoles.Load(guildID); ok {
		return id, nil
	}

	roles, err := e.platform.GuildRoles(ctx, guildID)
	if err != nil {
		return "", err
	}
	for _, r := range roles {
		if r != nil && r.Name == MuteRoleName {
			e.muteRoles.Store(guildID, r.ID)
			return r.ID, nil
		}
	}

	role, err := e.platform.CreateRole(ctx, guildID, MuteRoleName)
	if err != nil {
		return "", err
	}
	logging.Info("[DISPATCHER] Created %s role %s in %s", MuteRoleName, role.ID, guildID)
	e.muteRoles.Store(guildID, role.ID)
	return role.ID, nil
}

// LockChannels denies SendMessages to @everyone on every channel of the
// guild. Channels are handled independently; the worst outcome is returned.
// keep is checked before each channel edit and a false result stops the pass,
// leaving the rest of the channels to whoever changed the guild's state. A
// nil keep edits every channel.
func (e *Executor) LockChannels(ctx context.Context, guildID string, keep func() bool) models.Outcome {
	return e.setChannels(ctx, guildID, true, keep)
}

// UnlockChannels clears the SendMessages override set by LockChannels. keep
// works as for LockChannels.
func (e *Executor) UnlockChannels(ctx context.Context, guildID string, keep func() bool) models.Outcome {
	return e.setChannels(ctx, guildID, false, keep)
}

func (e *Executor) setChannels(ctx context.Context, guildID string, deny bool, keep func() bool) models.Outcome {
	kind := models.ActionUnlock
	if deny {
		kind = models.ActionLock
	}

	listCtx, cancel := e.callCtx(ctx)
	channels, err := e.platform.GuildChannels(listCtx, guildID)
	cancel()
	if err != nil {
		return e.record(kind, guildID, err)
	}

	// the @everyone role shares the guild id
	everyone := guildID
	outcomes := make([]models.Outcome, 0, len(channels))
	for _, ch := range channels {
		if ch == nil {
			continue
		}
		if keep != nil && !keep() {
			logging.Info("[DISPATCHER] %s of %s superseded after %d channels", strings.ToUpper(string(kind)), guildID, len(outcomes))
			break
		}
		chCtx, cancel := e.callCtx(ctx)
		err := e.platform.SetSendPermission(chCtx, ch, everyone, deny)
		cancel()
		outcomes = append(outcomes, e.record(kind, guildID+"/"+ch.ID, err))
	}

	worst := models.Worst(outcomes...)
	logging.Info("[DISPATCHER] %s %d channels in %s: %s", strings.ToUpper(string(kind)), len(outcomes), guildID, worst)
	return worst
}

func muteKey(guildID, userID string) string {
	return guildID + ":" + userID
}
