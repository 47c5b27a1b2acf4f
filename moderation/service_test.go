package moderation

import (
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"moderation-bot/model"
	moddb "moderation-bot/utils/database/moderation"
)

// fakeGateway records enforcement calls and can be told to fail per action.
type fakeGateway struct {
	mu sync.Mutex

	failApplyMute  bool
	failRemoveMute bool
	failBan        bool
	failUnban      bool
	failKick       bool
	failRemoveFor  map[string]bool // per-user RemoveMute failures

	applied  []string
	removed  []string
	banned   []string
	unbanned []string
	kicked   []string
}

func (g *fakeGateway) ApplyMute(guildID, userID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.failApplyMute {
		return fmt.Errorf("gateway down")
	}
	g.applied = append(g.applied, guildID+":"+userID)
	return nil
}

func (g *fakeGateway) RemoveMute(guildID, userID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.failRemoveMute || g.failRemoveFor[userID] {
		return fmt.Errorf("gateway down")
	}
	g.removed = append(g.removed, guildID+":"+userID)
	return nil
}

func (g *fakeGateway) Ban(guildID, userID, reason string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.failBan {
		return fmt.Errorf("gateway down")
	}
	g.banned = append(g.banned, guildID+":"+userID)
	return nil
}

func (g *fakeGateway) Unban(guildID, userID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.failUnban {
		return fmt.Errorf("gateway down")
	}
	g.unbanned = append(g.unbanned, guildID+":"+userID)
	return nil
}

func (g *fakeGateway) Kick(guildID, userID, reason string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.failKick {
		return fmt.Errorf("gateway down")
	}
	g.kicked = append(g.kicked, guildID+":"+userID)
	return nil
}

func (g *fakeGateway) count(calls *[]string) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(*calls)
}

func newTestService(t *testing.T) (*Service, *fakeGateway, *sqlx.DB) {
	t.Helper()
	db, err := moddb.Init(filepath.Join(t.TempDir(), "mod.db"))
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	gw := &fakeGateway{failRemoveFor: make(map[string]bool)}
	svc := NewService(db, gw)
	t.Cleanup(svc.Scheduler().Stop)
	return svc, gw, db
}

func durationPtr(d time.Duration) *time.Duration { return &d }

func TestIssueWarningRequiresReason(t *testing.T) {
	svc, _, db := newTestService(t)

	for _, reason := range []string{"", "   ", "\t\n"} {
		_, err := svc.IssueWarning("g1", "u1", "staff1", reason)
		assert.ErrorIs(t, err, ErrInvalidArgument)
	}

	count, err := moddb.CountInfractionsByGuild(db, "g1")
	require.NoError(t, err)
	assert.Zero(t, count, "failed warnings must not be persisted")

	infraction, err := svc.IssueWarning("g1", "u1", "staff1", "spamming")
	require.NoError(t, err)
	assert.Equal(t, model.InfractionWarning, infraction.Type)
	assert.NotZero(t, infraction.ID)

	// Warnings never create active-sanction rows.
	row, err := svc.GetActiveSanction(model.SanctionMute, "g1", "u1")
	require.NoError(t, err)
	assert.Nil(t, row)
}

func TestIssueWarningValidatesIDs(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.IssueWarning("", "u1", "staff1", "reason")
	assert.ErrorIs(t, err, ErrInvalidArgument)
	_, err = svc.IssueWarning("g1", "", "staff1", "reason")
	assert.ErrorIs(t, err, ErrInvalidArgument)
	_, err = svc.IssueWarning("g1", "u1", "", "reason")
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestIssueMuteIndefinite(t *testing.T) {
	svc, gw, _ := newTestService(t)

	infraction, err := svc.IssueMute("g1", "u1", "staff1", "flooding", nil)
	require.NoError(t, err)
	assert.Equal(t, model.InfractionMute, infraction.Type)
	assert.Nil(t, infraction.ExpiresAt)
	assert.Equal(t, 1, gw.count(&gw.applied))

	row, err := svc.GetActiveSanction(model.SanctionMute, "g1", "u1")
	require.NoError(t, err)
	require.NotNil(t, row)
	assert.Nil(t, row.ExpiresAt)

	// No timer for an indefinite mute.
	key := sanctionKey{Kind: model.SanctionMute, GuildID: "g1", UserID: "u1"}
	assert.False(t, svc.Scheduler().armed(key))
}

func TestIssueMuteTemporary(t *testing.T) {
	svc, _, _ := newTestService(t)

	infraction, err := svc.IssueMute("g1", "u1", "staff1", "flooding", durationPtr(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, model.InfractionTemporaryMute, infraction.Type)
	require.NotNil(t, infraction.ExpiresAt)

	row, err := svc.GetActiveSanction(model.SanctionMute, "g1", "u1")
	require.NoError(t, err)
	require.NotNil(t, row)
	require.NotNil(t, row.ExpiresAt)
	assert.WithinDuration(t, time.Now().Add(time.Hour), *row.ExpiresAt, 5*time.Second)

	key := sanctionKey{Kind: model.SanctionMute, GuildID: "g1", UserID: "u1"}
	assert.True(t, svc.Scheduler().armed(key))
}

func TestIssueMuteRejectsNonPositiveDuration(t *testing.T) {
	svc, gw, _ := newTestService(t)

	_, err := svc.IssueMute("g1", "u1", "staff1", "x", durationPtr(0))
	assert.ErrorIs(t, err, ErrInvalidArgument)
	_, err = svc.IssueMute("g1", "u1", "staff1", "x", durationPtr(-time.Minute))
	assert.ErrorIs(t, err, ErrInvalidArgument)
	assert.Zero(t, gw.count(&gw.applied), "invalid input must not reach the gateway")
}

func TestIssueMuteRenewalReplacesRow(t *testing.T) {
	svc, gw, db := newTestService(t)

	_, err := svc.IssueMute("g1", "u1", "staff1", "first", durationPtr(time.Hour))
	require.NoError(t, err)
	_, err = svc.IssueMute("g1", "u1", "staff2", "second", durationPtr(10*time.Minute))
	require.NoError(t, err)

	// Exactly one row, with the renewal's expiry even though it is shorter.
	rows, err := moddb.GetActiveSanctionsByGuild(db, model.SanctionMute, "g1")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.NotNil(t, rows[0].ExpiresAt)
	assert.WithinDuration(t, time.Now().Add(10*time.Minute), *rows[0].ExpiresAt, 5*time.Second)

	// Both issues hit the gateway and both are in the history.
	assert.Equal(t, 2, gw.count(&gw.applied))
	count, err := moddb.CountInfractionsByUser(db, "g1", "u1")
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	key := sanctionKey{Kind: model.SanctionMute, GuildID: "g1", UserID: "u1"}
	assert.True(t, svc.Scheduler().armed(key))
}

func TestIssueMuteRenewalToIndefiniteDropsTimer(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.IssueMute("g1", "u1", "staff1", "temp", durationPtr(time.Hour))
	require.NoError(t, err)
	_, err = svc.IssueMute("g1", "u1", "staff1", "forever", nil)
	require.NoError(t, err)

	key := sanctionKey{Kind: model.SanctionMute, GuildID: "g1", UserID: "u1"}
	assert.False(t, svc.Scheduler().armed(key))

	row, err := svc.GetActiveSanction(model.SanctionMute, "g1", "u1")
	require.NoError(t, err)
	require.NotNil(t, row)
	assert.Nil(t, row.ExpiresAt)
}

func TestIssueMuteRollsBackOnGatewayFailure(t *testing.T) {
	svc, gw, db := newTestService(t)
	gw.failApplyMute = true

	_, err := svc.IssueMute("g1", "u1", "staff1", "x", durationPtr(time.Hour))
	var enfErr *EnforcementError
	require.ErrorAs(t, err, &enfErr)

	row, err := svc.GetActiveSanction(model.SanctionMute, "g1", "u1")
	require.NoError(t, err)
	assert.Nil(t, row, "active row must be rolled back")

	count, err := moddb.CountInfractionsByGuild(db, "g1")
	require.NoError(t, err)
	assert.Zero(t, count, "no infraction may persist after rollback")
}

func TestIssueMuteFailedRenewalRestoresPreviousRow(t *testing.T) {
	svc, gw, _ := newTestService(t)

	_, err := svc.IssueMute("g1", "u1", "staff1", "first", durationPtr(time.Hour))
	require.NoError(t, err)
	before, err := svc.GetActiveSanction(model.SanctionMute, "g1", "u1")
	require.NoError(t, err)
	require.NotNil(t, before)

	gw.failApplyMute = true
	_, err = svc.IssueMute("g1", "u1", "staff1", "renewal", durationPtr(2*time.Hour))
	var enfErr *EnforcementError
	require.ErrorAs(t, err, &enfErr)

	after, err := svc.GetActiveSanction(model.SanctionMute, "g1", "u1")
	require.NoError(t, err)
	require.NotNil(t, after, "previous row must survive a failed renewal")
	require.NotNil(t, after.ExpiresAt)
	assert.WithinDuration(t, *before.ExpiresAt, *after.ExpiresAt, time.Second)
}

func TestLiftMuteIsIdempotent(t *testing.T) {
	svc, gw, _ := newTestService(t)

	lifted, err := svc.LiftMute("g1", "nobody")
	require.NoError(t, err)
	assert.False(t, lifted, "lifting an absent mute is a no-op, not an error")
	assert.Zero(t, gw.count(&gw.removed))

	_, err = svc.IssueMute("g1", "u1", "staff1", "x", nil)
	require.NoError(t, err)

	lifted, err = svc.LiftMute("g1", "u1")
	require.NoError(t, err)
	assert.True(t, lifted)
	assert.Equal(t, 1, gw.count(&gw.removed))

	lifted, err = svc.LiftMute("g1", "u1")
	require.NoError(t, err)
	assert.False(t, lifted)
	assert.Equal(t, 1, gw.count(&gw.removed))
}

func TestLiftMuteKeepsRowOnGatewayFailure(t *testing.T) {
	svc, gw, _ := newTestService(t)

	_, err := svc.IssueMute("g1", "u1", "staff1", "x", nil)
	require.NoError(t, err)

	gw.failRemoveMute = true
	_, err = svc.LiftMute("g1", "u1")
	var enfErr *EnforcementError
	require.ErrorAs(t, err, &enfErr)

	row, err := svc.GetActiveSanction(model.SanctionMute, "g1", "u1")
	require.NoError(t, err)
	assert.NotNil(t, row, "row must stay for the sweep to retry")
}

func TestIssueKickEnforcesBeforePersisting(t *testing.T) {
	svc, gw, db := newTestService(t)
	gw.failKick = true

	_, err := svc.IssueKick("g1", "u1", "staff1", "bye")
	var enfErr *EnforcementError
	require.ErrorAs(t, err, &enfErr)

	count, err := moddb.CountInfractionsByGuild(db, "g1")
	require.NoError(t, err)
	assert.Zero(t, count, "a failed kick must not be recorded")

	gw.failKick = false
	infraction, err := svc.IssueKick("g1", "u1", "staff1", "bye")
	require.NoError(t, err)
	assert.Equal(t, model.InfractionKick, infraction.Type)
	assert.Equal(t, 1, gw.count(&gw.kicked))
}

func TestBanRoundTrip(t *testing.T) {
	svc, gw, _ := newTestService(t)

	infraction, err := svc.IssueBan("g1", "u1", "staff1", "spam", durationPtr(24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, model.InfractionTemporaryBan, infraction.Type)
	assert.Equal(t, 1, gw.count(&gw.banned))

	// Simulate the clock passing the expiry.
	key := sanctionKey{Kind: model.SanctionBan, GuildID: "g1", UserID: "u1"}
	lifted, _, err := svc.liftExpired(key, time.Now().Add(25*time.Hour))
	require.NoError(t, err)
	assert.True(t, lifted)
	assert.Equal(t, 1, gw.count(&gw.unbanned))

	// A second expiry attempt finds nothing to do.
	lifted, _, err = svc.liftExpired(key, time.Now().Add(26*time.Hour))
	require.NoError(t, err)
	assert.False(t, lifted)
	assert.Equal(t, 1, gw.count(&gw.unbanned), "unban must fire exactly once")

	// The history entry survives the lift unchanged.
	records, err := svc.EnumerateUserInfractions("g1", "u1")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, model.InfractionTemporaryBan, records[0].Type)
	assert.Equal(t, "spam", records[0].Reason)
}

func TestLiftExpiredRespectsRenewal(t *testing.T) {
	svc, gw, _ := newTestService(t)

	_, err := svc.IssueMute("g1", "u1", "staff1", "x", durationPtr(time.Hour))
	require.NoError(t, err)

	// A fire observed before the row's expiry reports the current expiry
	// instead of lifting.
	key := sanctionKey{Kind: model.SanctionMute, GuildID: "g1", UserID: "u1"}
	lifted, current, err := svc.liftExpired(key, time.Now())
	require.NoError(t, err)
	assert.False(t, lifted)
	require.NotNil(t, current)
	assert.Zero(t, gw.count(&gw.removed))
}

func TestTrackUserExpiryHasNoEnforcement(t *testing.T) {
	svc, gw, _ := newTestService(t)

	require.NoError(t, svc.TrackUser("g1", "u1", durationPtr(time.Hour)))

	key := sanctionKey{Kind: model.SanctionTracking, GuildID: "g1", UserID: "u1"}
	lifted, _, err := svc.liftExpired(key, time.Now().Add(2*time.Hour))
	require.NoError(t, err)
	assert.True(t, lifted)
	assert.Zero(t, gw.count(&gw.removed))
	assert.Zero(t, gw.count(&gw.unbanned))

	row, err := svc.GetActiveSanction(model.SanctionTracking, "g1", "u1")
	require.NoError(t, err)
	assert.Nil(t, row)
}

func TestModifyInfractionOnlyTouchesReasonAndRule(t *testing.T) {
	svc, _, _ := newTestService(t)

	original, err := svc.IssueMute("g1", "u1", "staff1", "old reason", durationPtr(time.Hour))
	require.NoError(t, err)

	updated, err := svc.ModifyInfraction(original.ID, func(inf *model.Infraction) {
		inf.Reason = "corrected"
		// Attempts to rewrite immutable fields are discarded.
		inf.Type = model.InfractionBan
		inf.UserID = "someone-else"
	})
	require.NoError(t, err)
	assert.Equal(t, "corrected", updated.Reason)
	assert.Equal(t, model.InfractionTemporaryMute, updated.Type)
	assert.Equal(t, "u1", updated.UserID)

	// The active row and its timer are untouched.
	row, err := svc.GetActiveSanction(model.SanctionMute, "g1", "u1")
	require.NoError(t, err)
	require.NotNil(t, row)
	require.NotNil(t, row.ExpiresAt)
	key := sanctionKey{Kind: model.SanctionMute, GuildID: "g1", UserID: "u1"}
	assert.True(t, svc.Scheduler().armed(key))
}

func TestModifyInfractionUnknownRule(t *testing.T) {
	svc, _, _ := newTestService(t)

	original, err := svc.IssueWarning("g1", "u1", "staff1", "reason")
	require.NoError(t, err)

	ruleID := int64(999)
	_, err = svc.ModifyInfraction(original.ID, func(inf *model.Infraction) {
		inf.RuleID = &ruleID
	})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRemoveInfractionLeavesActiveSanction(t *testing.T) {
	svc, _, _ := newTestService(t)

	infraction, err := svc.IssueMute("g1", "u1", "staff1", "x", nil)
	require.NoError(t, err)

	require.NoError(t, svc.RemoveInfraction(infraction.ID))
	assert.ErrorIs(t, svc.RemoveInfraction(infraction.ID), ErrNotFound)

	row, err := svc.GetActiveSanction(model.SanctionMute, "g1", "u1")
	require.NoError(t, err)
	assert.NotNil(t, row, "redacting history must not unmute the user")
}

func TestEnumerateInfractionsOrdering(t *testing.T) {
	svc, _, _ := newTestService(t)

	var ids []int64
	for i := 0; i < 3; i++ {
		infraction, err := svc.IssueWarning("g1", "u1", "staff1", fmt.Sprintf("warning %d", i))
		require.NoError(t, err)
		ids = append(ids, infraction.ID)
	}

	records, err := svc.EnumerateUserInfractions("g1", "u1")
	require.NoError(t, err)
	require.Len(t, records, 3)
	for i, record := range records {
		assert.Equal(t, ids[i], record.ID, "history must be ordered oldest first")
	}

	empty, err := svc.EnumerateUserInfractions("g1", "stranger")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestConcurrentIssuesKeepSingleRow(t *testing.T) {
	svc, _, db := newTestService(t)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_, err := svc.IssueMute("g1", "u1", "staff1", "race", durationPtr(time.Duration(n+1)*time.Minute))
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	rows, err := moddb.GetActiveSanctionsByGuild(db, model.SanctionMute, "g1")
	require.NoError(t, err)
	assert.Len(t, rows, 1, "concurrent issues must never duplicate the active row")
}
