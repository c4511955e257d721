package dispatchertest

import (
	"sort"
	"sync"
	"time"

	"go-raidguard/internal/dispatcher"
)

// Scheduler is a manual clock. Tasks run synchronously inside Advance.
type Scheduler struct {
	mu    sync.Mutex
	now   time.Duration
	tasks []*Task
}

var _ dispatcher.Scheduler = (*Scheduler)(nil)

type Task struct {
	s         *Scheduler
	at        time.Duration
	fn        func()
	fired     bool
	cancelled bool
}

func NewScheduler() *Scheduler {
	return &Scheduler{}
}

func (s *Scheduler) Schedule(d time.Duration, fn func()) dispatcher.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := &Task{s: s, at: s.now + d, fn: fn}
	s.tasks = append(s.tasks, t)
	return t
}

func (t *Task) Cancel() bool {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	if t.fired || t.cancelled {
		return false
	}
	t.cancelled = true
	return true
}

// Advance moves the clock forward and runs every task that came due, in
// deadline order.
func (s *Scheduler) Advance(d time.Duration) {
	s.mu.Lock()
	s.now += d
	var due []*Task
	for _, t := range s.tasks {
		if !t.fired && !t.cancelled && t.at <= s.now {
			t.fired = true
			due = append(due, t)
		}
	}
	s.mu.Unlock()

	sort.SliceStable(due, func(i, j int) bool { return due[i].at < due[j].at })
	for _, t := range due {
		t.fn()
	}
}

// Pending counts tasks that have neither fired nor been cancelled.
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, t := range s.tasks {
		if !t.fired && !t.cancelled {
			n++
		}
	}
	return n
}
