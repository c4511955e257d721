package dispatcher

import "time"

// Task is a deferred action returned by a Scheduler.
type Task interface {
	// Cancel stops the task. It returns false if the task already ran or was
	// already cancelled.
	Cancel() bool
}

// Scheduler runs fn once after d on its own goroutine.
type Scheduler interface {
	Schedule(d time.Duration, fn func()) Task
}

// TimerScheduler schedules on the runtime timer heap.
type TimerScheduler struct{}

func (TimerScheduler) Schedule(d time.Duration, fn func()) Task {
	return timerTask{time.AfterFunc(d, fn)}
}

type timerTask struct {
	t *time.Timer
}

func (tt timerTask) Cancel() bool {
	return tt.t.Stop()
}
