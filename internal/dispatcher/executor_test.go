package dispatcher_test

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-raidguard/internal/dispatcher"
	"go-raidguard/internal/dispatcher/dispatchertest"
	"go-raidguard/internal/models"
)

func newExecutor() (*dispatcher.Executor, *dispatchertest.Platform, *dispatchertest.Scheduler) {
	p := dispatchertest.NewPlatform()
	s := dispatchertest.NewScheduler()
	return dispatcher.NewExecutor(p, s, time.Second), p, s
}

func restErr(status, code int) error {
	return &discordgo.RESTError{
		Response: &http.Response{StatusCode: status},
		Message:  &discordgo.APIErrorMessage{Code: code, Message: "x"},
	}
}

func TestOutcome(t *testing.T) {
	assert := assert.New(t)

	assert.Equal(models.OutcomeSuccess, dispatcher.Outcome(nil))
	assert.Equal(models.OutcomeMissing, dispatcher.Outcome(dispatcher.ErrNotFound))
	assert.Equal(models.OutcomeMissing, dispatcher.Outcome(restErr(http.StatusNotFound, discordgo.ErrCodeUnknownMessage)))
	assert.Equal(models.OutcomeMissing, dispatcher.Outcome(restErr(http.StatusBadRequest, discordgo.ErrCodeUnknownMember)))
	assert.Equal(models.OutcomeMissing, dispatcher.Outcome(restErr(http.StatusNotFound, 0)))
	assert.Equal(models.OutcomeUnknown, dispatcher.Outcome(restErr(http.StatusForbidden, discordgo.ErrCodeMissingPermissions)))
	assert.Equal(models.OutcomeUnknown, dispatcher.Outcome(errors.New("connection reset")))
	assert.True(dispatcher.Timeout(context.DeadlineExceeded))
}

func TestDelete(t *testing.T) {
	e, p, _ := newExecutor()
	ctx := context.Background()

	assert.Equal(t, models.OutcomeSuccess, e.Delete(ctx, "c1", "m1"))
	assert.Equal(t, []dispatchertest.Call{{Op: "delete", Args: []string{"c1", "m1"}}}, p.Calls())

	p.FailOp("delete", dispatcher.ErrNotFound)
	assert.Equal(t, models.OutcomeMissing, e.Delete(ctx, "c1", "m1"))

	p.FailOp("delete", errors.New("boom"))
	assert.Equal(t, models.OutcomeUnknown, e.Delete(ctx, "c1", "m1"))
}

func TestBan(t *testing.T) {
	e, p, _ := newExecutor()
	assert.Equal(t, models.OutcomeSuccess, e.Ban(context.Background(), "g1", "u1", "Anti-Nuke limit exceeded"))
	assert.Equal(t, []string{"g1", "u1", "Anti-Nuke limit exceeded"}, p.CallsTo("ban")[0].Args)
}

func TestMuteCreatesRoleAndExpires(t *testing.T) {
	e, p, s := newExecutor()
	ctx := context.Background()

	out := e.Mute(ctx, "g1", "u1", 2*time.Minute, "Spam")
	assert.Equal(t, models.OutcomeSuccess, out)
	require.Len(t, p.CallsTo("create_role"), 1)
	add := p.CallsTo("add_role")
	require.Len(t, add, 1)
	assert.Equal(t, []string{"g1", "u1", "role-1", "Spam"}, add[0].Args)
	assert.Equal(t, 1, e.PendingMutes())

	// the created role is reused
	e.Mute(ctx, "g1", "u2", 2*time.Minute, "Spam")
	assert.Len(t, p.CallsTo("create_role"), 1)

	s.Advance(time.Minute)
	assert.Empty(t, p.CallsTo("remove_role"))

	s.Advance(time.Minute)
	rm := p.CallsTo("remove_role")
	require.Len(t, rm, 2)
	assert.Equal(t, []string{"g1", "u1", "role-1", dispatcher.MuteExpiredReason}, rm[0].Args)
	assert.Equal(t, 0, e.PendingMutes())
}

func TestConcurrentMutesShareOneRole(t *testing.T) {
	e, p, _ := newExecutor()
	p.Delay("roles", 20*time.Millisecond)

	var wg sync.WaitGroup
	for _, u := range []string{"u1", "u2", "u3", "u4"} {
		wg.Add(1)
		go func(u string) {
			defer wg.Done()
			e.Mute(context.Background(), "g1", u, time.Minute, "Spam")
		}(u)
	}
	wg.Wait()

	assert.Len(t, p.CallsTo("create_role"), 1)
	add := p.CallsTo("add_role")
	require.Len(t, add, 4)
	for _, c := range add {
		assert.Equal(t, "role-1", c.Args[2])
	}
	assert.Equal(t, 4, e.PendingMutes())
}

func TestNextMuteExpiry(t *testing.T) {
	e, _, s := newExecutor()
	ctx := context.Background()

	e.Mute(ctx, "g1", "u1", 2*time.Minute, "Spam")
	first, ok := e.NextMuteExpiry()
	require.True(t, ok)

	e.Mute(ctx, "g1", "u2", time.Minute, "Spam")
	next, ok := e.NextMuteExpiry()
	require.True(t, ok)
	assert.True(t, next.Before(first))

	s.Advance(time.Minute)
	next, ok = e.NextMuteExpiry()
	require.True(t, ok)
	assert.Equal(t, first, next)
}

func TestMuteFindsExistingRole(t *testing.T) {
	e, p, _ := newExecutor()
	p.AddRole("g1", "r9", "Muted")

	e.Mute(context.Background(), "g1", "u1", time.Minute, "Spam")
	assert.Empty(t, p.CallsTo("create_role"))
	assert.Equal(t, "r9", p.CallsTo("add_role")[0].Args[2])
}

func TestRemuteReplacesTimer(t *testing.T) {
	e, p, s := newExecutor()
	ctx := context.Background()

	e.Mute(ctx, "g1", "u1", 2*time.Minute, "Spam")
	s.Advance(90 * time.Second)
	e.Mute(ctx, "g1", "u1", 2*time.Minute, "Spam")
	assert.Equal(t, 1, e.PendingMutes())
	assert.Equal(t, 1, s.Pending())

	// the first timer would have fired here
	s.Advance(time.Minute)
	assert.Empty(t, p.CallsTo("remove_role"))

	s.Advance(time.Minute)
	assert.Len(t, p.CallsTo("remove_role"), 1)
}

func TestUnmuteCancelsTimer(t *testing.T) {
	e, p, s := newExecutor()
	ctx := context.Background()

	_, ok := e.NextMuteExpiry()
	assert.False(t, ok)
	e.Mute(ctx, "g1", "u1", time.Minute, "Spam")
	_, ok = e.NextMuteExpiry()
	assert.True(t, ok)

	assert.Equal(t, models.OutcomeSuccess, e.Unmute(ctx, "g1", "u1", "manual"))
	assert.Equal(t, 0, e.PendingMutes())

	s.Advance(time.Hour)
	assert.Len(t, p.CallsTo("remove_role"), 1)
}

func TestMuteFailureSchedulesNothing(t *testing.T) {
	e, p, s := newExecutor()
	p.FailOp("add_role", restErr(http.StatusForbidden, discordgo.ErrCodeMissingPermissions))

	assert.Equal(t, models.OutcomeUnknown, e.Mute(context.Background(), "g1", "u1", time.Minute, "Spam"))
	assert.Equal(t, 0, e.PendingMutes())
	assert.Equal(t, 0, s.Pending())
}

func TestMuteMissingMemberForgetsRole(t *testing.T) {
	e, p, _ := newExecutor()
	p.AddRole("g1", "r1", "Muted")
	p.FailOp("add_role", dispatcher.ErrNotFound)

	assert.Equal(t, models.OutcomeMissing, e.Mute(context.Background(), "g1", "gone", time.Minute, "Spam"))

	p.FailOp("add_role", nil)
	e.Mute(context.Background(), "g1", "u1", time.Minute, "Spam")
	assert.Len(t, p.CallsTo("roles"), 2)
}

func TestLockAndUnlockChannels(t *testing.T) {
	e, p, _ := newExecutor()
	ctx := context.Background()
	p.AddChannels("g1", "c1", "c2", "c3")

	assert.Equal(t, models.OutcomeSuccess, e.LockChannels(ctx, "g1", nil))
	perms := p.CallsTo("send_permission")
	require.Len(t, perms, 3)
	for _, c := range perms {
		assert.Equal(t, "g1", c.Args[1], "overwrite targets @everyone")
		assert.Equal(t, "true", c.Args[2])
	}

	p.Reset()
	assert.Equal(t, models.OutcomeSuccess, e.UnlockChannels(ctx, "g1", nil))
	for _, c := range p.CallsTo("send_permission") {
		assert.Equal(t, "false", c.Args[2])
	}
}

func TestLockChannelsPartialFailure(t *testing.T) {
	e, p, _ := newExecutor()
	p.AddChannels("g1", "c1", "c2")
	p.FailOp("send_permission", errors.New("forbidden"))

	assert.Equal(t, models.OutcomeUnknown, e.LockChannels(context.Background(), "g1", nil))
	assert.Len(t, p.CallsTo("send_permission"), 2, "every channel is attempted")

	p.FailOp("channels", dispatcher.ErrNotFound)
	assert.Equal(t, models.OutcomeMissing, e.LockChannels(context.Background(), "g1", nil))
}

func TestLockChannelsStopsWhenSuperseded(t *testing.T) {
	e, p, _ := newExecutor()
	p.AddChannels("g1", "c1", "c2", "c3")

	edits := 0
	keep := func() bool {
		edits++
		return edits <= 1
	}
	assert.Equal(t, models.OutcomeSuccess, e.LockChannels(context.Background(), "g1", keep))
	perms := p.CallsTo("send_permission")
	require.Len(t, perms, 1)
	assert.Equal(t, "c1", perms[0].Args[0])

	p.Reset()
	e.UnlockChannels(context.Background(), "g1", func() bool { return false })
	assert.Empty(t, p.CallsTo("send_permission"))
}

func TestTimerScheduler(t *testing.T) {
	done := make(chan struct{})
	task := dispatcher.TimerScheduler{}.Schedule(time.Millisecond, func() { close(done) })

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("task did not run")
	}
	assert.False(t, task.Cancel())

	task = dispatcher.TimerScheduler{}.Schedule(time.Hour, func() {})
	assert.True(t, task.Cancel())
}
