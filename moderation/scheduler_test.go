package moderation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"moderation-bot/model"
	moddb "moderation-bot/utils/database/moderation"
)

// waitFor polls cond until it holds or the deadline passes.
func waitFor(t *testing.T, timeout time.Duration, cond func() bool) bool {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(10 * time.Millisecond)
	}
	return cond()
}

func TestSchedulerLiftsOnExpiry(t *testing.T) {
	svc, gw, _ := newTestService(t)

	_, err := svc.IssueMute("g1", "u1", "staff1", "short", durationPtr(50*time.Millisecond))
	require.NoError(t, err)

	ok := waitFor(t, 2*time.Second, func() bool {
		return gw.count(&gw.removed) == 1
	})
	require.True(t, ok, "expiry timer must lift the mute")

	row, err := svc.GetActiveSanction(model.SanctionMute, "g1", "u1")
	require.NoError(t, err)
	assert.Nil(t, row)

	key := sanctionKey{Kind: model.SanctionMute, GuildID: "g1", UserID: "u1"}
	assert.False(t, svc.Scheduler().armed(key))
}

func TestSchedulerRenewalReplacesTimer(t *testing.T) {
	svc, gw, _ := newTestService(t)

	_, err := svc.IssueMute("g1", "u1", "staff1", "short", durationPtr(50*time.Millisecond))
	require.NoError(t, err)
	_, err = svc.IssueMute("g1", "u1", "staff1", "extended", durationPtr(300*time.Millisecond))
	require.NoError(t, err)

	// The original timer must not fire; the mute is still up past the first
	// expiry.
	time.Sleep(150 * time.Millisecond)
	row, err := svc.GetActiveSanction(model.SanctionMute, "g1", "u1")
	require.NoError(t, err)
	assert.NotNil(t, row, "renewal must override the earlier expiry")
	assert.Zero(t, gw.count(&gw.removed))

	ok := waitFor(t, 2*time.Second, func() bool {
		return gw.count(&gw.removed) == 1
	})
	require.True(t, ok)

	// The stale first timer never produces a second removal.
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, 1, gw.count(&gw.removed))
}

func TestSchedulerManualLiftBeatsTimer(t *testing.T) {
	svc, gw, _ := newTestService(t)

	_, err := svc.IssueMute("g1", "u1", "staff1", "short", durationPtr(100*time.Millisecond))
	require.NoError(t, err)

	lifted, err := svc.LiftMute("g1", "u1")
	require.NoError(t, err)
	require.True(t, lifted)

	key := sanctionKey{Kind: model.SanctionMute, GuildID: "g1", UserID: "u1"}
	assert.False(t, svc.Scheduler().armed(key), "manual lift must cancel the timer")

	// Even if a fire were in flight, the store re-check keeps the removal at one.
	time.Sleep(300 * time.Millisecond)
	assert.Equal(t, 1, gw.count(&gw.removed))
}

func TestSchedulerStartArmsPersistedRows(t *testing.T) {
	svc, gw, db := newTestService(t)

	// Rows written in an earlier process lifetime: one already overdue, one
	// still in the future, one indefinite.
	past := time.Now().Add(-time.Minute)
	future := time.Now().Add(time.Hour)
	require.NoError(t, moddb.UpsertActiveSanction(db, model.SanctionMute,
		model.ActiveSanction{GuildID: "g1", UserID: "overdue", ExpiresAt: &past}))
	require.NoError(t, moddb.UpsertActiveSanction(db, model.SanctionBan,
		model.ActiveSanction{GuildID: "g1", UserID: "pending", ExpiresAt: &future}))
	require.NoError(t, moddb.UpsertActiveSanction(db, model.SanctionMute,
		model.ActiveSanction{GuildID: "g1", UserID: "forever"}))

	require.NoError(t, svc.Scheduler().Start())

	// The overdue row fires near-immediately.
	ok := waitFor(t, 2*time.Second, func() bool {
		return gw.count(&gw.removed) == 1
	})
	require.True(t, ok, "overdue row from the store must be lifted at startup")

	row, err := svc.GetActiveSanction(model.SanctionMute, "g1", "overdue")
	require.NoError(t, err)
	assert.Nil(t, row)

	// The future row keeps its timer, the indefinite one never gets one.
	assert.True(t, svc.Scheduler().armed(sanctionKey{Kind: model.SanctionBan, GuildID: "g1", UserID: "pending"}))
	assert.False(t, svc.Scheduler().armed(sanctionKey{Kind: model.SanctionMute, GuildID: "g1", UserID: "forever"}))
	assert.Zero(t, gw.count(&gw.unbanned))
}

func TestSchedulerFireOnIndefiniteRowIsNoop(t *testing.T) {
	svc, gw, db := newTestService(t)

	_, err := svc.IssueMute("g1", "u1", "staff1", "temp", durationPtr(time.Hour))
	require.NoError(t, err)

	// Simulate a renewal to indefinite racing ahead of the timer.
	require.NoError(t, moddb.UpsertActiveSanction(db, model.SanctionMute,
		model.ActiveSanction{GuildID: "g1", UserID: "u1"}))

	key := sanctionKey{Kind: model.SanctionMute, GuildID: "g1", UserID: "u1"}
	svc.Scheduler().fire(key)

	row, err := svc.GetActiveSanction(model.SanctionMute, "g1", "u1")
	require.NoError(t, err)
	assert.NotNil(t, row, "an indefinite row must survive a stale fire")
	assert.Zero(t, gw.count(&gw.removed))
}

func TestSchedulerEnforcementFailureLeavesRow(t *testing.T) {
	svc, gw, _ := newTestService(t)
	gw.failRemoveMute = true

	_, err := svc.IssueMute("g1", "u1", "staff1", "short", durationPtr(50*time.Millisecond))
	require.NoError(t, err)

	key := sanctionKey{Kind: model.SanctionMute, GuildID: "g1", UserID: "u1"}
	ok := waitFor(t, 2*time.Second, func() bool {
		return !svc.Scheduler().armed(key)
	})
	require.True(t, ok, "the timer must fire and give up")

	// The row stays behind for the sweep to retry.
	row, err := svc.GetActiveSanction(model.SanctionMute, "g1", "u1")
	require.NoError(t, err)
	assert.NotNil(t, row)
}

func TestSchedulerStopIgnoresLateArms(t *testing.T) {
	svc, _, _ := newTestService(t)

	svc.Scheduler().Stop()
	key := sanctionKey{Kind: model.SanctionMute, GuildID: "g1", UserID: "u1"}
	svc.Scheduler().Arm(key, time.Now().Add(time.Hour))
	assert.False(t, svc.Scheduler().armed(key))
}
