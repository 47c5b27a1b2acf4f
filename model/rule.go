package model

// Rule is guild-scoped numbered rule text, referenced by infractions for
// display. Read-only from the engine's perspective.
type Rule struct {
	ID      int64  `db:"rule_id" json:"id"`
	GuildID string `db:"guild_id" json:"guild_id"`
	Number  int    `db:"rule_no" json:"number"`
	Content string `db:"content" json:"content"`
}
