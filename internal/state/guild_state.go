package state

import (
	"sync/atomic"
	"time"

	"github.com/puzpuzpuz/xsync/v3"
)

// GuildState is the raid status of a single guild.
type GuildState struct {
	locked   atomic.Bool
	lockedAt atomic.Int64
	locks    atomic.Uint32
}

func (g *GuildState) IsLocked() bool {
	return g.locked.Load()
}

// LockedAt returns when the current lockdown began, or the zero time.
func (g *GuildState) LockedAt() time.Time {
	ns := g.lockedAt.Load()
	if ns == 0 || !g.IsLocked() {
		return time.Time{}
	}
	return time.Unix(0, ns)
}

// Lockdowns is the number of lock transitions since start.
func (g *GuildState) Lockdowns() uint32 {
	return g.locks.Load()
}

// GuildStates holds one GuildState per guild, created on first use.
type GuildStates struct {
	guilds *xsync.MapOf[string, *GuildState]
	now    func() time.Time
}

func NewGuildStates() *GuildStates {
	return &GuildStates{
		guilds: xsync.NewMapOf[string, *GuildState](),
		now:    time.Now,
	}
}

func (gs *GuildStates) Get(guildID string) *GuildState {
	g, _ := gs.guilds.LoadOrCompute(guildID, func() *GuildState {
		return &GuildState{}
	})
	return g
}

// TryLock moves guildID from unlocked to locked. It returns false if the guild
// was already locked, so exactly one caller wins a concurrent race.
func (gs *GuildStates) TryLock(guildID string) bool {
	g := gs.Get(guildID)
	if !g.locked.CompareAndSwap(false, true) {
		return false
	}
	g.lockedAt.Store(gs.now().UnixNano())
	g.locks.Add(1)
	return true
}

// TryUnlock moves guildID from locked to unlocked. It returns false if the
// guild was not locked.
func (gs *GuildStates) TryUnlock(guildID string) bool {
	g, ok := gs.guilds.Load(guildID)
	if !ok {
		return false
	}
	return g.locked.CompareAndSwap(true, false)
}

func (gs *GuildStates) IsLocked(guildID string) bool {
	g, ok := gs.guilds.Load(guildID)
	return ok && g.IsLocked()
}

// Locked lists the guilds currently in lockdown.
func (gs *GuildStates) Locked() []string {
	var ids []string
	gs.guilds.Range(func(id string, g *GuildState) bool {
		if g.IsLocked() {
			ids = append(ids, id)
		}
		return true
	})
	return ids
}
