package moderation

import (
	"errors"
	"fmt"

	"moderation-bot/model"
	moddb "moderation-bot/utils/database/moderation"
)

// EnumerateInfractions returns every infraction recorded for a guild, ordered
// by issue time ascending. An empty history is an empty slice, not an error.
func (s *Service) EnumerateInfractions(guildID string) ([]model.Infraction, error) {
	if guildID == "" {
		return nil, fmt.Errorf("%w: guild is required", ErrInvalidArgument)
	}
	return moddb.GetInfractionsByGuild(s.db, guildID)
}

// EnumerateUserInfractions returns a user's infractions in a guild, ordered
// by issue time ascending.
func (s *Service) EnumerateUserInfractions(guildID, userID string) ([]model.Infraction, error) {
	if guildID == "" || userID == "" {
		return nil, fmt.Errorf("%w: guild and user are required", ErrInvalidArgument)
	}
	return moddb.GetInfractionsByUser(s.db, guildID, userID)
}

// GetInfractionCount returns the number of infractions recorded for a guild.
func (s *Service) GetInfractionCount(guildID string) (int, error) {
	if guildID == "" {
		return 0, fmt.Errorf("%w: guild is required", ErrInvalidArgument)
	}
	return moddb.CountInfractionsByGuild(s.db, guildID)
}

// GetUserInfractionCount returns the number of infractions a user has in a guild.
func (s *Service) GetUserInfractionCount(guildID, userID string) (int, error) {
	if guildID == "" || userID == "" {
		return 0, fmt.Errorf("%w: guild and user are required", ErrInvalidArgument)
	}
	return moddb.CountInfractionsByUser(s.db, guildID, userID)
}

// GetInfraction retrieves a single infraction by ID.
func (s *Service) GetInfraction(id int64) (*model.Infraction, error) {
	record, err := moddb.GetInfractionByID(s.db, id)
	if errors.Is(err, moddb.ErrNoRecord) {
		return nil, fmt.Errorf("%w: infraction %d", ErrNotFound, id)
	}
	return record, err
}

// GetActiveSanction returns the active row of a kind for (guild, user), or
// nil when the user has no such sanction.
func (s *Service) GetActiveSanction(kind model.SanctionKind, guildID, userID string) (*model.ActiveSanction, error) {
	if guildID == "" || userID == "" {
		return nil, fmt.Errorf("%w: guild and user are required", ErrInvalidArgument)
	}
	row, err := moddb.GetActiveSanction(s.db, kind, guildID, userID)
	if errors.Is(err, moddb.ErrNoRecord) {
		return nil, nil
	}
	return row, err
}

// ListActiveSanctions returns every active row of a kind for a guild.
func (s *Service) ListActiveSanctions(kind model.SanctionKind, guildID string) ([]model.ActiveSanction, error) {
	if guildID == "" {
		return nil, fmt.Errorf("%w: guild is required", ErrInvalidArgument)
	}
	return moddb.GetActiveSanctionsByGuild(s.db, kind, guildID)
}

// GetRule retrieves a guild rule by ID.
func (s *Service) GetRule(id int64) (*model.Rule, error) {
	rule, err := moddb.GetRuleByID(s.db, id)
	if errors.Is(err, moddb.ErrNoRecord) {
		return nil, fmt.Errorf("%w: rule %d", ErrNotFound, id)
	}
	return rule, err
}

// ModifyInfraction applies a caller-supplied change to an infraction. Only
// the reason and rule reference are persisted; any other change the mutator
// makes is discarded, and active-sanction rows and timers are never touched.
func (s *Service) ModifyInfraction(id int64, mutate func(*model.Infraction)) (*model.Infraction, error) {
	if mutate == nil {
		return nil, fmt.Errorf("%w: mutator is required", ErrInvalidArgument)
	}
	record, err := s.GetInfraction(id)
	if err != nil {
		return nil, err
	}

	updated := *record
	mutate(&updated)

	if updated.RuleID != nil {
		if _, err := s.GetRule(*updated.RuleID); err != nil {
			return nil, err
		}
	}

	err = moddb.UpdateInfractionDetails(s.db, id, updated.Reason, updated.RuleID)
	if errors.Is(err, moddb.ErrNoRecord) {
		return nil, fmt.Errorf("%w: infraction %d", ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}

	record.Reason = updated.Reason
	record.RuleID = updated.RuleID
	return record, nil
}

// RemoveInfraction deletes a historical record. Active sanctions are separate
// rows and are deliberately left untouched; use LiftMute/LiftBan for those.
func (s *Service) RemoveInfraction(id int64) error {
	err := moddb.DeleteInfraction(s.db, id)
	if errors.Is(err, moddb.ErrNoRecord) {
		return fmt.Errorf("%w: infraction %d", ErrNotFound, id)
	}
	return err
}
