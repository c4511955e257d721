package database

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-raidguard/internal/models"
)

func openTestDB(t *testing.T) *Database {
	t.Helper()
	d, err := Open(filepath.Join(t.TempDir(), "raidguard.db"))
	require.NoError(t, err)
	t.Cleanup(func() { d.Close() })
	return d
}

func TestIncidents(t *testing.T) {
	ctx := context.Background()
	d := openTestDB(t)
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	for i, rule := range []string{"flood", "spam", "flood", "invite"} {
		inc := &models.Incident{
			GuildID:   "g1",
			ActorID:   "u1",
			Rule:      rule,
			Action:    models.ActionDelete,
			Outcome:   models.OutcomeSuccess,
			Timestamp: base.Add(time.Duration(i) * time.Minute),
		}
		require.NoError(t, d.LogIncident(ctx, inc))
		assert.NotZero(t, inc.ID)
	}
	require.NoError(t, d.LogIncident(ctx, &models.Incident{GuildID: "g2", Rule: "anti_nuke", Action: models.ActionBan, Outcome: models.OutcomeMissing}))

	recent, err := d.RecentIncidents(ctx, "g1", 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "invite", recent[0].Rule)
	assert.Equal(t, "flood", recent[1].Rule)
	assert.Equal(t, models.ActionDelete, recent[0].Action)
	assert.Equal(t, models.OutcomeSuccess, recent[0].Outcome)
	assert.True(t, recent[0].Timestamp.Equal(base.Add(3*time.Minute)))

	counts, err := d.CountIncidentsSince(ctx, "g1", base.Add(30*time.Second))
	require.NoError(t, err)
	assert.Equal(t, []IncidentCount{{Rule: "flood", Count: 1}, {Rule: "invite", Count: 1}, {Rule: "spam", Count: 1}}, counts)

	other, err := d.RecentIncidents(ctx, "g2", 10)
	require.NoError(t, err)
	require.Len(t, other, 1)
	assert.Equal(t, models.OutcomeMissing, other[0].Outcome)
}

func TestBannedUsers(t *testing.T) {
	ctx := context.Background()
	d := openTestDB(t)

	assert.False(t, d.IsBannedUser(ctx, "g1", "u1"))
	require.NoError(t, d.AddBannedUser(ctx, "g1", "u1", "Anti-Nuke limit exceeded", "anti-nuke"))
	require.NoError(t, d.AddBannedUser(ctx, "g1", "u1", "again", "anti-nuke"))
	assert.True(t, d.IsBannedUser(ctx, "g1", "u1"))

	users, err := d.GetBannedUsers(ctx, "g1")
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "again", users[0].Reason)
}

func TestRecorder(t *testing.T) {
	ctx := context.Background()
	d := openTestDB(t)
	r := NewRecorder(d)

	r.RecordIncident(ctx, &models.Incident{GuildID: "g1", Rule: "bot", Action: models.ActionDelete})
	r.RecordBan(ctx, "g1", "u9", "Anti-Nuke limit exceeded")

	recent, err := d.RecentIncidents(ctx, "g1", 10)
	require.NoError(t, err)
	assert.Len(t, recent, 1)
	assert.True(t, d.IsBannedUser(ctx, "g1", "u9"))

	var nilRecorder *Recorder
	assert.NotPanics(t, func() {
		nilRecorder.RecordIncident(ctx, &models.Incident{})
		NewRecorder(nil).RecordBan(ctx, "g1", "u1", "x")
	})
}
