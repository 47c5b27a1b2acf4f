package model

import "time"

// SanctionKind identifies which active-sanction table a row lives in.
type SanctionKind string

const (
	SanctionMute     SanctionKind = "mute"
	SanctionBan      SanctionKind = "ban"
	SanctionTracking SanctionKind = "tracking"
)

// ActiveSanction represents a currently enforced mute or ban for one user in
// one guild. At most one row per (guild_id, user_id) exists per table; a nil
// ExpiresAt means the sanction is indefinite and never scheduled for expiry.
// History is not kept here; it lives in the infractions table.
type ActiveSanction struct {
	GuildID   string     `db:"guild_id" json:"guild_id"`
	UserID    string     `db:"user_id" json:"user_id"`
	ExpiresAt *time.Time `db:"expires_at" json:"expires_at,omitempty"`
}
