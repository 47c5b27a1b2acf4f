package moderation

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"moderation-bot/model"
	moddb "moderation-bot/utils/database/moderation"
)

// Service is the single entry point for issuing and lifting sanctions. It
// owns all writes to the infraction and active-sanction tables, talks to the
// Enforcement Gateway for the real platform effect, and keeps the Expiry
// Scheduler's timer set in step with the store.
type Service struct {
	db        *sqlx.DB
	gateway   EnforcementGateway
	scheduler *Scheduler
	locks     *keyLocks
}

// NewService creates a Service with its scheduler attached but not started.
// Call Scheduler().Start() once the rest of the process is wired up.
func NewService(db *sqlx.DB, gateway EnforcementGateway) *Service {
	svc := &Service{
		db:      db,
		gateway: gateway,
		locks:   newKeyLocks(),
	}
	svc.scheduler = newScheduler(svc)
	return svc
}

// Scheduler returns the expiry scheduler owned by this service.
func (s *Service) Scheduler() *Scheduler {
	return s.scheduler
}

// DB exposes the underlying store for read-only consumers (web API, stats).
func (s *Service) DB() *sqlx.DB {
	return s.db
}

func validateIDs(guildID, userID, staffID string) error {
	if guildID == "" || userID == "" {
		return fmt.Errorf("%w: guild and user are required", ErrInvalidArgument)
	}
	if staffID == "" {
		return fmt.Errorf("%w: staff member is required", ErrInvalidArgument)
	}
	return nil
}

// validateDuration checks an optional sanction duration. nil means indefinite.
func validateDuration(duration *time.Duration) error {
	if duration != nil && *duration <= 0 {
		return fmt.Errorf("%w: duration must be positive", ErrInvalidArgument)
	}
	return nil
}

// IssueWarning records a warning. Warnings carry no enforcement effect and no
// active-sanction row; the reason is mandatory.
func (s *Service) IssueWarning(guildID, userID, staffID, reason string) (*model.Infraction, error) {
	if err := validateIDs(guildID, userID, staffID); err != nil {
		return nil, err
	}
	if strings.TrimSpace(reason) == "" {
		return nil, fmt.Errorf("%w: a warning requires a reason", ErrInvalidArgument)
	}
	return s.recordInfraction(guildID, userID, staffID, model.InfractionWarning, reason, nil)
}

// IssueKick removes the member from the guild and records the kick. A kick
// has no undo, so the gateway call happens before anything is persisted; if
// it fails no infraction is written.
func (s *Service) IssueKick(guildID, userID, staffID, reason string) (*model.Infraction, error) {
	if err := validateIDs(guildID, userID, staffID); err != nil {
		return nil, err
	}
	if err := s.gateway.Kick(guildID, userID, reason); err != nil {
		return nil, enforcementFailed("kick", err)
	}
	return s.recordInfraction(guildID, userID, staffID, model.InfractionKick, reason, nil)
}

// IssueMute mutes a user, indefinitely when duration is nil or until
// now+duration otherwise. Re-issuing while a mute is active renews the
// existing row instead of creating a second one, and the renewal always
// overwrites the previous expiry, even with a shorter duration.
func (s *Service) IssueMute(guildID, userID, staffID, reason string, duration *time.Duration) (*model.Infraction, error) {
	return s.issueSanction(guildID, userID, staffID, reason, duration, model.SanctionMute)
}

// IssueBan bans a user with the same temporary-or-indefinite semantics as
// IssueMute, backed by the active_bans table.
func (s *Service) IssueBan(guildID, userID, staffID, reason string, duration *time.Duration) (*model.Infraction, error) {
	return s.issueSanction(guildID, userID, staffID, reason, duration, model.SanctionBan)
}

func (s *Service) issueSanction(guildID, userID, staffID, reason string, duration *time.Duration, kind model.SanctionKind) (*model.Infraction, error) {
	if err := validateIDs(guildID, userID, staffID); err != nil {
		return nil, err
	}
	if err := validateDuration(duration); err != nil {
		return nil, err
	}

	key := sanctionKey{Kind: kind, GuildID: guildID, UserID: userID}
	unlock := s.locks.lock(key)
	defer unlock()

	var expiresAt *time.Time
	if duration != nil {
		t := time.Now().Add(*duration).UTC()
		expiresAt = &t
	}

	// Remember the previous row so a failed gateway call can restore it.
	previous, err := moddb.GetActiveSanction(s.db, kind, guildID, userID)
	if err != nil && !errors.Is(err, moddb.ErrNoRecord) {
		return nil, err
	}

	row := model.ActiveSanction{GuildID: guildID, UserID: userID, ExpiresAt: expiresAt}
	if err := moddb.UpsertActiveSanction(s.db, kind, row); err != nil {
		return nil, err
	}

	if err := s.enforceApply(kind, guildID, userID, reason); err != nil {
		s.rollbackActiveRow(kind, guildID, userID, previous)
		return nil, err
	}

	infractionType := indefiniteType(kind)
	if expiresAt != nil {
		infractionType = temporaryType(kind)
	}
	infraction, err := s.recordInfraction(guildID, userID, staffID, infractionType, reason, expiresAt)
	if err != nil {
		// The platform effect is applied and the row is consistent with it;
		// only the history entry is missing. Surface the storage error.
		return nil, err
	}

	if expiresAt != nil {
		s.scheduler.Arm(key, *expiresAt)
	} else {
		// A temporary sanction renewed as indefinite must drop its old timer.
		s.scheduler.Cancel(key)
	}
	return infraction, nil
}

func (s *Service) enforceApply(kind model.SanctionKind, guildID, userID, reason string) error {
	switch kind {
	case model.SanctionMute:
		if err := s.gateway.ApplyMute(guildID, userID); err != nil {
			return enforcementFailed("apply mute", err)
		}
	case model.SanctionBan:
		if err := s.gateway.Ban(guildID, userID, reason); err != nil {
			return enforcementFailed("ban", err)
		}
	}
	return nil
}

// rollbackActiveRow restores the pre-call state of an active row after a
// failed gateway call: delete the fresh row, or put back the one it replaced.
func (s *Service) rollbackActiveRow(kind model.SanctionKind, guildID, userID string, previous *model.ActiveSanction) {
	var err error
	if previous != nil {
		err = moddb.UpsertActiveSanction(s.db, kind, *previous)
	} else {
		err = moddb.DeleteActiveSanction(s.db, kind, guildID, userID)
		if errors.Is(err, moddb.ErrNoRecord) {
			err = nil
		}
	}
	if err != nil {
		log.Printf("Failed to roll back %s row for user %s in guild %s: %v", kind, userID, guildID, err)
	}
}

// TrackUser opens (or renews) a behavioral tracking window for a user.
// Tracking has no enforcement effect; expiry simply removes the row.
func (s *Service) TrackUser(guildID, userID string, duration *time.Duration) error {
	if guildID == "" || userID == "" {
		return fmt.Errorf("%w: guild and user are required", ErrInvalidArgument)
	}
	if err := validateDuration(duration); err != nil {
		return err
	}

	key := sanctionKey{Kind: model.SanctionTracking, GuildID: guildID, UserID: userID}
	unlock := s.locks.lock(key)
	defer unlock()

	var expiresAt *time.Time
	if duration != nil {
		t := time.Now().Add(*duration).UTC()
		expiresAt = &t
	}
	row := model.ActiveSanction{GuildID: guildID, UserID: userID, ExpiresAt: expiresAt}
	if err := moddb.UpsertActiveSanction(s.db, model.SanctionTracking, row); err != nil {
		return err
	}

	if expiresAt != nil {
		s.scheduler.Arm(key, *expiresAt)
	} else {
		s.scheduler.Cancel(key)
	}
	return nil
}

// LiftMute removes an active mute. Returns false without error when the user
// is not muted. On gateway failure the row is kept so the sweep retries.
func (s *Service) LiftMute(guildID, userID string) (bool, error) {
	return s.lift(model.SanctionMute, guildID, userID)
}

// LiftBan removes an active ban with the same no-op and retry semantics as
// LiftMute.
func (s *Service) LiftBan(guildID, userID string) (bool, error) {
	return s.lift(model.SanctionBan, guildID, userID)
}

// LiftTracking closes a tracking window early.
func (s *Service) LiftTracking(guildID, userID string) (bool, error) {
	return s.lift(model.SanctionTracking, guildID, userID)
}

func (s *Service) lift(kind model.SanctionKind, guildID, userID string) (bool, error) {
	if guildID == "" || userID == "" {
		return false, fmt.Errorf("%w: guild and user are required", ErrInvalidArgument)
	}

	key := sanctionKey{Kind: kind, GuildID: guildID, UserID: userID}
	unlock := s.locks.lock(key)
	defer unlock()

	_, err := moddb.GetActiveSanction(s.db, kind, guildID, userID)
	if errors.Is(err, moddb.ErrNoRecord) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := s.liftLocked(key); err != nil {
		return false, err
	}
	return true, nil
}

// liftLocked performs the enforcement removal, row deletion and timer cancel
// for a key. Callers must hold the key lock and have verified the row exists.
// On gateway failure the row is left in place for the sweep to retry.
func (s *Service) liftLocked(key sanctionKey) error {
	switch key.Kind {
	case model.SanctionMute:
		if err := s.gateway.RemoveMute(key.GuildID, key.UserID); err != nil {
			return enforcementFailed("remove mute", err)
		}
	case model.SanctionBan:
		if err := s.gateway.Unban(key.GuildID, key.UserID); err != nil {
			return enforcementFailed("unban", err)
		}
	}

	err := moddb.DeleteActiveSanction(s.db, key.Kind, key.GuildID, key.UserID)
	if err != nil && !errors.Is(err, moddb.ErrNoRecord) {
		return err
	}
	s.scheduler.Cancel(key)
	return nil
}

// liftExpired lifts the sanction for key only if its row is still overdue as
// of asOf. It re-reads the store under the key lock, so a manual lift or a
// renewal that happened after the caller observed the row turns the call into
// a no-op. When the row exists but is not yet due, its current expiry is
// returned so timer-based callers can re-arm.
func (s *Service) liftExpired(key sanctionKey, asOf time.Time) (bool, *time.Time, error) {
	unlock := s.locks.lock(key)
	defer unlock()

	row, err := moddb.GetActiveSanction(s.db, key.Kind, key.GuildID, key.UserID)
	if errors.Is(err, moddb.ErrNoRecord) {
		return false, nil, nil
	}
	if err != nil {
		return false, nil, err
	}
	if row.ExpiresAt == nil {
		// Row became indefinite since the schedule was armed.
		return false, nil, nil
	}
	if row.ExpiresAt.After(asOf) {
		return false, row.ExpiresAt, nil
	}
	if err := s.liftLocked(key); err != nil {
		return false, nil, err
	}
	return true, nil, nil
}

func (s *Service) recordInfraction(guildID, userID, staffID string, infractionType model.InfractionType, reason string, expiresAt *time.Time) (*model.Infraction, error) {
	record := model.Infraction{
		GuildID:   guildID,
		UserID:    userID,
		StaffID:   staffID,
		Type:      infractionType,
		Reason:    reason,
		IssuedAt:  time.Now().UTC(),
		ExpiresAt: expiresAt,
	}
	id, err := moddb.AddInfraction(s.db, record)
	if err != nil {
		return nil, err
	}
	record.ID = id
	return &record, nil
}

func indefiniteType(kind model.SanctionKind) model.InfractionType {
	if kind == model.SanctionBan {
		return model.InfractionBan
	}
	return model.InfractionMute
}

func temporaryType(kind model.SanctionKind) model.InfractionType {
	if kind == model.SanctionBan {
		return model.InfractionTemporaryBan
	}
	return model.InfractionTemporaryMute
}
