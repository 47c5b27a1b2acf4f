package moderation

// EnforcementGateway abstracts the platform-side moderation actions. Calls are
// idempotent intents: removing a mute from an already-unmuted user or deleting
// a ban that no longer exists must not be reported as an error, so every call
// is safe to retry after a failure.
type EnforcementGateway interface {
	ApplyMute(guildID, userID string) error
	RemoveMute(guildID, userID string) error
	Ban(guildID, userID, reason string) error
	Unban(guildID, userID string) error
	Kick(guildID, userID, reason string) error
}
