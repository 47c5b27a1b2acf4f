package moddb

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"moderation-bot/model"
)

// GetRuleByID retrieves a single rule by its primary key.
func GetRuleByID(db *sqlx.DB, id int64) (*model.Rule, error) {
	var rule model.Rule
	err := db.Get(&rule, "SELECT * FROM rules WHERE rule_id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoRecord
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get rule by id %d: %w", id, err)
	}
	return &rule, nil
}

// GetRulesByGuild retrieves all rules for a guild in rule-number order.
func GetRulesByGuild(db *sqlx.DB, guildID string) ([]model.Rule, error) {
	var rules []model.Rule
	query := "SELECT * FROM rules WHERE guild_id = ? ORDER BY rule_no ASC"
	if err := db.Select(&rules, query, guildID); err != nil {
		return nil, fmt.Errorf("failed to get rules for guild %s: %w", guildID, err)
	}
	return rules, nil
}
