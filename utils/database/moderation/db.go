package moddb

import (
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"

	"moderation-bot/model"
)

// Table names for the active-sanction style rows, keyed by sanction kind.
// All three tables share the same shape and the same composite-key invariant.
var kindTables = map[model.SanctionKind]string{
	model.SanctionMute:     "active_mutes",
	model.SanctionBan:      "active_bans",
	model.SanctionTracking: "tracked_users",
}

// TableForKind resolves the table backing a sanction kind.
func TableForKind(kind model.SanctionKind) (string, error) {
	table, ok := kindTables[kind]
	if !ok {
		return "", fmt.Errorf("unknown sanction kind: %s", kind)
	}
	return table, nil
}

// Init opens the moderation database and ensures all tables exist.
func Init(dbPath string) (*sqlx.DB, error) {
	db, err := sqlx.Connect("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to moderation database: %w", err)
	}

	schema := `
    CREATE TABLE IF NOT EXISTS infractions (
        infraction_id INTEGER PRIMARY KEY AUTOINCREMENT,
        guild_id TEXT NOT NULL,
        user_id TEXT NOT NULL,
        staff_id TEXT NOT NULL,
        type TEXT NOT NULL,
        reason TEXT NOT NULL DEFAULT '',
        rule_id INTEGER,
        issued_at DATETIME NOT NULL,
        expires_at DATETIME
    );
    CREATE INDEX IF NOT EXISTS idx_infractions_guild ON infractions(guild_id);
    CREATE INDEX IF NOT EXISTS idx_infractions_guild_user ON infractions(guild_id, user_id);

    CREATE TABLE IF NOT EXISTS active_mutes (
        guild_id TEXT NOT NULL,
        user_id TEXT NOT NULL,
        expires_at DATETIME,
        UNIQUE(guild_id, user_id)
    );

    CREATE TABLE IF NOT EXISTS active_bans (
        guild_id TEXT NOT NULL,
        user_id TEXT NOT NULL,
        expires_at DATETIME,
        UNIQUE(guild_id, user_id)
    );

    CREATE TABLE IF NOT EXISTS tracked_users (
        guild_id TEXT NOT NULL,
        user_id TEXT NOT NULL,
        expires_at DATETIME,
        UNIQUE(guild_id, user_id)
    );

    CREATE TABLE IF NOT EXISTS rules (
        rule_id INTEGER PRIMARY KEY AUTOINCREMENT,
        guild_id TEXT NOT NULL,
        rule_no INTEGER NOT NULL,
        content TEXT NOT NULL,
        UNIQUE(guild_id, rule_no)
    );`

	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("failed to create moderation tables: %w", err)
	}

	return db, nil
}
