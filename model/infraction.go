package model

import "time"

// InfractionType identifies the kind of moderation action recorded.
type InfractionType string

const (
	InfractionWarning         InfractionType = "warning"
	InfractionMessageDeletion InfractionType = "message_deletion"
	InfractionGag             InfractionType = "gag"
	InfractionTemporaryMute   InfractionType = "temp_mute"
	InfractionMute            InfractionType = "mute"
	InfractionKick            InfractionType = "kick"
	InfractionTemporaryBan    InfractionType = "temp_ban"
	InfractionBan             InfractionType = "ban"
)

// Infraction represents a single historical moderation record in the database.
// The database table is named 'infractions'. Rows are immutable once written
// except for Reason and RuleID, which moderators may correct after the fact.
type Infraction struct {
	ID        int64          `db:"infraction_id" json:"id"` // Primary Key, Auto-increment
	GuildID   string         `db:"guild_id" json:"guild_id"`
	UserID    string         `db:"user_id" json:"user_id"`
	StaffID   string         `db:"staff_id" json:"staff_id"`
	Type      InfractionType `db:"type" json:"type"`
	Reason    string         `db:"reason" json:"reason,omitempty"`
	RuleID    *int64         `db:"rule_id" json:"rule_id,omitempty"`
	IssuedAt  time.Time      `db:"issued_at" json:"issued_at"`
	ExpiresAt *time.Time     `db:"expires_at" json:"expires_at,omitempty"` // set only for temp_mute / temp_ban
}
