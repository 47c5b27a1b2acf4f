package moddb

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"moderation-bot/model"
)

// ErrNoRecord is returned when a lookup matches no row.
var ErrNoRecord = errors.New("no matching record")

// AddInfraction inserts a new infraction and returns the new record's ID.
// Timestamps are normalized to UTC before storage.
func AddInfraction(db *sqlx.DB, record model.Infraction) (int64, error) {
	record.IssuedAt = record.IssuedAt.UTC()
	if record.ExpiresAt != nil {
		utc := record.ExpiresAt.UTC()
		record.ExpiresAt = &utc
	}
	query := `INSERT INTO infractions (guild_id, user_id, staff_id, type, reason, rule_id, issued_at, expires_at)
              VALUES (:guild_id, :user_id, :staff_id, :type, :reason, :rule_id, :issued_at, :expires_at)`

	result, err := db.NamedExec(query, record)
	if err != nil {
		return 0, fmt.Errorf("failed to insert infraction: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert ID: %w", err)
	}
	return id, nil
}

// GetInfractionByID retrieves a single infraction by its primary key.
func GetInfractionByID(db *sqlx.DB, id int64) (*model.Infraction, error) {
	var record model.Infraction
	err := db.Get(&record, "SELECT * FROM infractions WHERE infraction_id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoRecord
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get infraction by id %d: %w", id, err)
	}
	return &record, nil
}

// GetInfractionsByGuild retrieves all infractions for a guild, oldest first.
func GetInfractionsByGuild(db *sqlx.DB, guildID string) ([]model.Infraction, error) {
	var records []model.Infraction
	query := "SELECT * FROM infractions WHERE guild_id = ? ORDER BY issued_at ASC, infraction_id ASC"
	if err := db.Select(&records, query, guildID); err != nil {
		return nil, fmt.Errorf("failed to get infractions for guild %s: %w", guildID, err)
	}
	return records, nil
}

// GetInfractionsByUser retrieves all infractions for a user in a guild, oldest first.
func GetInfractionsByUser(db *sqlx.DB, guildID, userID string) ([]model.Infraction, error) {
	var records []model.Infraction
	query := "SELECT * FROM infractions WHERE guild_id = ? AND user_id = ? ORDER BY issued_at ASC, infraction_id ASC"
	if err := db.Select(&records, query, guildID, userID); err != nil {
		return nil, fmt.Errorf("failed to get infractions for user %s in guild %s: %w", userID, guildID, err)
	}
	return records, nil
}

// CountInfractionsByGuild returns the total number of infractions for a guild.
func CountInfractionsByGuild(db *sqlx.DB, guildID string) (int, error) {
	var count int
	if err := db.Get(&count, "SELECT COUNT(*) FROM infractions WHERE guild_id = ?", guildID); err != nil {
		return 0, fmt.Errorf("failed to count infractions for guild %s: %w", guildID, err)
	}
	return count, nil
}

// CountInfractionsByUser returns the number of infractions for a user in a guild.
func CountInfractionsByUser(db *sqlx.DB, guildID, userID string) (int, error) {
	var count int
	query := "SELECT COUNT(*) FROM infractions WHERE guild_id = ? AND user_id = ?"
	if err := db.Get(&count, query, guildID, userID); err != nil {
		return 0, fmt.Errorf("failed to count infractions for user %s in guild %s: %w", userID, guildID, err)
	}
	return count, nil
}

// UpdateInfractionDetails updates the moderator-editable fields of an
// infraction. Type, user, guild and timestamps are never touched.
func UpdateInfractionDetails(db *sqlx.DB, id int64, reason string, ruleID *int64) error {
	result, err := db.Exec("UPDATE infractions SET reason = ?, rule_id = ? WHERE infraction_id = ?", reason, ruleID, id)
	if err != nil {
		return fmt.Errorf("failed to update infraction %d: %w", id, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected for infraction %d: %w", id, err)
	}
	if rowsAffected == 0 {
		return ErrNoRecord
	}
	return nil
}

// DeleteInfraction deletes an infraction record by its primary key.
func DeleteInfraction(db *sqlx.DB, id int64) error {
	result, err := db.Exec("DELETE FROM infractions WHERE infraction_id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete infraction %d: %w", id, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected for infraction %d: %w", id, err)
	}
	if rowsAffected == 0 {
		return ErrNoRecord
	}
	return nil
}

// CountInfractionsSince returns the total number of infractions issued in a
// guild since the given time.
func CountInfractionsSince(db *sqlx.DB, guildID string, since time.Time) (int, error) {
	var count int
	query := "SELECT COUNT(*) FROM infractions WHERE guild_id = ? AND issued_at >= ?"
	if err := db.Get(&count, query, guildID, since.UTC()); err != nil {
		return 0, fmt.Errorf("failed to count infractions for guild %s: %w", guildID, err)
	}
	return count, nil
}

// GetStaffInfractionStats retrieves the infraction count per staff member for
// a guild since the given time.
func GetStaffInfractionStats(db *sqlx.DB, guildID string, since time.Time) (map[string]int, error) {
	query := `SELECT staff_id, COUNT(*) as count FROM infractions
              WHERE guild_id = ? AND issued_at >= ?
              GROUP BY staff_id ORDER BY count DESC`
	rows, err := db.Query(query, guildID, since.UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to get staff infraction stats for guild %s: %w", guildID, err)
	}
	defer rows.Close()

	stats := make(map[string]int)
	for rows.Next() {
		var staffID string
		var count int
		if err := rows.Scan(&staffID, &count); err != nil {
			return nil, fmt.Errorf("failed to scan staff infraction stats row: %w", err)
		}
		stats[staffID] = count
	}
	return stats, rows.Err()
}
