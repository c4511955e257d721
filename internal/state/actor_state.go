package state

import (
	"sync"
	"time"

	"github.com/puzpuzpuz/xsync/v3"
)

// DuplicateRecord is the last message text seen from one actor and how many
// times in a row it was repeated.
type DuplicateRecord struct {
	Text     string
	Count    int
	LastSeen time.Time
}

// DuplicateTracker remembers the last message per actor. Streaks have no time
// dimension: identical text sent minutes apart still continues a streak.
type DuplicateTracker struct {
	records *xsync.MapOf[string, DuplicateRecord]
	now     func() time.Time

	stop chan struct{}
	wg   sync.WaitGroup
	once sync.Once
}

func NewDuplicateTracker() *DuplicateTracker {
	return &DuplicateTracker{
		records: xsync.NewMapOf[string, DuplicateRecord](),
		now:     time.Now,
		stop:    make(chan struct{}),
	}
}

// Observe records text for actorID and returns the updated repeat count.
func (d *DuplicateTracker) Observe(actorID, text string) int {
	now := d.now()
	rec, _ := d.records.Compute(actorID, func(old DuplicateRecord, loaded bool) (DuplicateRecord, bool) {
		if loaded && old.Text == text {
			old.Count++
			old.LastSeen = now
			return old, false
		}
		return DuplicateRecord{Text: text, Count: 1, LastSeen: now}, false
	})
	return rec.Count
}

// Get returns the current record for actorID.
func (d *DuplicateTracker) Get(actorID string) (DuplicateRecord, bool) {
	return d.records.Load(actorID)
}

func (d *DuplicateTracker) Forget(actorID string) {
	d.records.Delete(actorID)
}

func (d *DuplicateTracker) Len() int {
	return d.records.Size()
}

// SweepIdle drops records not touched for longer than idle.
func (d *DuplicateTracker) SweepIdle(idle time.Duration) int {
	cutoff := d.now().Add(-idle)
	removed := 0

	d.records.Range(func(actorID string, _ DuplicateRecord) bool {
		d.records.Compute(actorID, func(old DuplicateRecord, loaded bool) (DuplicateRecord, bool) {
			if loaded && old.LastSeen.Before(cutoff) {
				removed++
				return old, true
			}
			return old, !loaded
		})
		return true
	})
	return removed
}

// StartSweeper periodically drops streaks idle for longer than idle.
func (d *DuplicateTracker) StartSweeper(interval, idle time.Duration) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-d.stop:
				return
			case <-ticker.C:
				d.SweepIdle(idle)
			}
		}
	}()
}

func (d *DuplicateTracker) Close() {
	d.once.Do(func() { close(d.stop) })
	d.wg.Wait()
}
