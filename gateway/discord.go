// Package gateway implements the enforcement gateway over a Discord session.
package gateway

import (
	"errors"
	"fmt"

	"github.com/bwmarrin/discordgo"

	"moderation-bot/model"
)

// Discord REST error codes that mean the effect is already absent. Removal
// calls treat these as success so lifts stay idempotent.
const (
	codeUnknownMember = 10007
	codeUnknownBan    = 10026
)

// Discord applies and removes moderation effects through a discordgo session.
// Mutes are realized as a per-guild mute role from the server config.
type Discord struct {
	session *discordgo.Session
	configs model.BotConfigProvider
}

func New(session *discordgo.Session, configs model.BotConfigProvider) *Discord {
	return &Discord{session: session, configs: configs}
}

func (d *Discord) muteRole(guildID string) (string, error) {
	serverCfg, ok := d.configs.GetConfig().ServerConfigs[guildID]
	if !ok || serverCfg.MuteRoleID == "" {
		return "", fmt.Errorf("no mute role configured for guild %s", guildID)
	}
	return serverCfg.MuteRoleID, nil
}

// ApplyMute assigns the guild's mute role to the user.
func (d *Discord) ApplyMute(guildID, userID string) error {
	roleID, err := d.muteRole(guildID)
	if err != nil {
		return err
	}
	if err := d.session.GuildMemberRoleAdd(guildID, userID, roleID); err != nil {
		return fmt.Errorf("failed to add mute role to user %s in guild %s: %w", userID, guildID, err)
	}
	return nil
}

// RemoveMute takes the guild's mute role off the user. A user who already
// left the guild counts as unmuted.
func (d *Discord) RemoveMute(guildID, userID string) error {
	roleID, err := d.muteRole(guildID)
	if err != nil {
		return err
	}
	err = d.session.GuildMemberRoleRemove(guildID, userID, roleID)
	if err != nil && !isAbsent(err) {
		return fmt.Errorf("failed to remove mute role from user %s in guild %s: %w", userID, guildID, err)
	}
	return nil
}

// Ban bans the user from the guild without pruning messages.
func (d *Discord) Ban(guildID, userID, reason string) error {
	if err := d.session.GuildBanCreateWithReason(guildID, userID, reason, 0); err != nil {
		return fmt.Errorf("failed to ban user %s in guild %s: %w", userID, guildID, err)
	}
	return nil
}

// Unban lifts the user's ban. An already-absent ban is not an error.
func (d *Discord) Unban(guildID, userID string) error {
	err := d.session.GuildBanDelete(guildID, userID)
	if err != nil && !isAbsent(err) {
		return fmt.Errorf("failed to unban user %s in guild %s: %w", userID, guildID, err)
	}
	return nil
}

// Kick removes the member from the guild.
func (d *Discord) Kick(guildID, userID, reason string) error {
	if err := d.session.GuildMemberDeleteWithReason(guildID, userID, reason); err != nil {
		return fmt.Errorf("failed to kick user %s from guild %s: %w", userID, guildID, err)
	}
	return nil
}

func isAbsent(err error) bool {
	var restErr *discordgo.RESTError
	if !errors.As(err, &restErr) || restErr.Message == nil {
		return false
	}
	switch restErr.Message.Code {
	case codeUnknownMember, codeUnknownBan:
		return true
	}
	return false
}
