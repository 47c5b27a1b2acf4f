package moddb

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"moderation-bot/model"
)

// UpsertActiveSanction creates or renews the active row for (guild, user) in
// the table backing the given kind. The UNIQUE(guild_id, user_id) constraint
// turns a duplicate insert into a renewal that overwrites expires_at, so a
// user can never hold two concurrent rows of the same kind in one guild.
// Expiries are stored in UTC; sqlite compares timestamps as text, so a single
// offset has to be used everywhere.
func UpsertActiveSanction(db *sqlx.DB, kind model.SanctionKind, row model.ActiveSanction) error {
	table, err := TableForKind(kind)
	if err != nil {
		return err
	}
	if row.ExpiresAt != nil {
		utc := row.ExpiresAt.UTC()
		row.ExpiresAt = &utc
	}
	query := fmt.Sprintf(`INSERT INTO %s (guild_id, user_id, expires_at) VALUES (?, ?, ?)
              ON CONFLICT(guild_id, user_id) DO UPDATE SET expires_at = excluded.expires_at`, table)
	if _, err := db.Exec(query, row.GuildID, row.UserID, row.ExpiresAt); err != nil {
		return fmt.Errorf("failed to upsert %s row for user %s in guild %s: %w", kind, row.UserID, row.GuildID, err)
	}
	return nil
}

// GetActiveSanction retrieves the active row for (guild, user), or ErrNoRecord.
func GetActiveSanction(db *sqlx.DB, kind model.SanctionKind, guildID, userID string) (*model.ActiveSanction, error) {
	table, err := TableForKind(kind)
	if err != nil {
		return nil, err
	}
	var row model.ActiveSanction
	query := fmt.Sprintf("SELECT * FROM %s WHERE guild_id = ? AND user_id = ?", table)
	err = db.Get(&row, query, guildID, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoRecord
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get %s row for user %s in guild %s: %w", kind, userID, guildID, err)
	}
	return &row, nil
}

// DeleteActiveSanction removes the active row for (guild, user). Returns
// ErrNoRecord when no row existed, so callers can treat the lift as a no-op.
func DeleteActiveSanction(db *sqlx.DB, kind model.SanctionKind, guildID, userID string) error {
	table, err := TableForKind(kind)
	if err != nil {
		return err
	}
	query := fmt.Sprintf("DELETE FROM %s WHERE guild_id = ? AND user_id = ?", table)
	result, err := db.Exec(query, guildID, userID)
	if err != nil {
		return fmt.Errorf("failed to delete %s row for user %s in guild %s: %w", kind, userID, guildID, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected for %s row: %w", kind, err)
	}
	if rowsAffected == 0 {
		return ErrNoRecord
	}
	return nil
}

// GetExpiredSanctions retrieves all rows of a kind whose expiry has passed.
// Indefinite rows (NULL expires_at) are never returned.
func GetExpiredSanctions(db *sqlx.DB, kind model.SanctionKind, asOf time.Time) ([]model.ActiveSanction, error) {
	table, err := TableForKind(kind)
	if err != nil {
		return nil, err
	}
	var rows []model.ActiveSanction
	query := fmt.Sprintf("SELECT * FROM %s WHERE expires_at IS NOT NULL AND expires_at <= ?", table)
	if err := db.Select(&rows, query, asOf.UTC()); err != nil {
		return nil, fmt.Errorf("failed to get expired %s rows: %w", kind, err)
	}
	return rows, nil
}

// GetScheduledSanctions retrieves every row of a kind carrying an expiry,
// regardless of whether it has passed. Used to rebuild timers at startup.
func GetScheduledSanctions(db *sqlx.DB, kind model.SanctionKind) ([]model.ActiveSanction, error) {
	table, err := TableForKind(kind)
	if err != nil {
		return nil, err
	}
	var rows []model.ActiveSanction
	query := fmt.Sprintf("SELECT * FROM %s WHERE expires_at IS NOT NULL", table)
	if err := db.Select(&rows, query); err != nil {
		return nil, fmt.Errorf("failed to get scheduled %s rows: %w", kind, err)
	}
	return rows, nil
}

// GetActiveSanctionsByGuild retrieves every active row of a kind for a guild.
func GetActiveSanctionsByGuild(db *sqlx.DB, kind model.SanctionKind, guildID string) ([]model.ActiveSanction, error) {
	table, err := TableForKind(kind)
	if err != nil {
		return nil, err
	}
	var rows []model.ActiveSanction
	query := fmt.Sprintf("SELECT * FROM %s WHERE guild_id = ?", table)
	if err := db.Select(&rows, query, guildID); err != nil {
		return nil, fmt.Errorf("failed to get active %s rows for guild %s: %w", kind, guildID, err)
	}
	return rows, nil
}
