package mod

import (
	"fmt"
	"log"

	"github.com/bwmarrin/discordgo"

	"moderation-bot/bot"
	"moderation-bot/utils"
)

// HandleWarnCommand handles /warn.
func HandleWarnCommand(s *discordgo.Session, i *discordgo.InteractionCreate, b *bot.Bot) {
	if err := utils.DeferResponse(s, i, true); err != nil {
		log.Printf("Failed to defer interaction: %v", err)
		return
	}

	opts := optionMap(i)
	target := opts["user"].UserValue(s)
	reason := reasonOption(opts)

	infraction, err := b.GetService().IssueWarning(i.GuildID, target.ID, i.Member.User.ID, reason)
	if err != nil {
		utils.SendFollowUpError(s, i.Interaction, describeError(err))
		return
	}

	utils.SendPrivateMessage(s, target.ID, fmt.Sprintf("You have been warned in **%s**: %s", guildName(s, i.GuildID), reason))
	auditLog(b, i, "Warn", fmt.Sprintf("user <@%s>, infraction #%d: %s", target.ID, infraction.ID, reason))
	utils.SendFollowUp(s, i.Interaction, fmt.Sprintf("⚠️ Warned <@%s> (infraction #%d).", target.ID, infraction.ID))
}

// HandleMuteCommand handles /mute. Without a duration the mute is indefinite;
// with one, the mute lifts itself when the duration elapses. Re-running the
// command on an already muted user renews the mute.
func HandleMuteCommand(s *discordgo.Session, i *discordgo.InteractionCreate, b *bot.Bot) {
	if err := utils.DeferResponse(s, i, true); err != nil {
		log.Printf("Failed to defer interaction: %v", err)
		return
	}

	opts := optionMap(i)
	target := opts["user"].UserValue(s)
	reason := reasonOption(opts)

	duration, err := parseDurationOption(opts)
	if err != nil {
		utils.SendFollowUpError(s, i.Interaction, "Invalid duration. Use forms like 30m, 12h or 7d.")
		return
	}

	if !utils.CheckAndSetSanctionLock(target.ID) {
		utils.SendFollowUpError(s, i.Interaction, "This user is already being processed, try again shortly.")
		return
	}

	infraction, err := b.GetService().IssueMute(i.GuildID, target.ID, i.Member.User.ID, reason, duration)
	if err != nil {
		utils.SendFollowUpError(s, i.Interaction, describeError(err))
		return
	}

	scope := "indefinitely"
	if duration != nil {
		scope = "for " + duration.String()
	}
	utils.SendPrivateMessage(s, target.ID, fmt.Sprintf("You have been muted %s in **%s**. Reason: %s", scope, guildName(s, i.GuildID), displayReason(reason)))
	auditLog(b, i, "Mute", fmt.Sprintf("user <@%s> %s, infraction #%d", target.ID, scope, infraction.ID))
	utils.SendFollowUp(s, i.Interaction, fmt.Sprintf("🔇 Muted <@%s> %s (infraction #%d).", target.ID, scope, infraction.ID))
}

// HandleBanCommand handles /ban with the same duration semantics as /mute.
func HandleBanCommand(s *discordgo.Session, i *discordgo.InteractionCreate, b *bot.Bot) {
	if err := utils.DeferResponse(s, i, true); err != nil {
		log.Printf("Failed to defer interaction: %v", err)
		return
	}

	opts := optionMap(i)
	target := opts["user"].UserValue(s)
	reason := reasonOption(opts)

	duration, err := parseDurationOption(opts)
	if err != nil {
		utils.SendFollowUpError(s, i.Interaction, "Invalid duration. Use forms like 24h or 30d.")
		return
	}

	if !utils.CheckAndSetSanctionLock(target.ID) {
		utils.SendFollowUpError(s, i.Interaction, "This user is already being processed, try again shortly.")
		return
	}

	// DM before the ban lands; a banned user can no longer be messaged.
	scope := "indefinitely"
	if duration != nil {
		scope = "for " + duration.String()
	}
	utils.SendPrivateMessage(s, target.ID, fmt.Sprintf("You have been banned %s from **%s**. Reason: %s", scope, guildName(s, i.GuildID), displayReason(reason)))

	infraction, err := b.GetService().IssueBan(i.GuildID, target.ID, i.Member.User.ID, reason, duration)
	if err != nil {
		utils.SendFollowUpError(s, i.Interaction, describeError(err))
		return
	}

	auditLog(b, i, "Ban", fmt.Sprintf("user <@%s> %s, infraction #%d", target.ID, scope, infraction.ID))
	utils.SendFollowUp(s, i.Interaction, fmt.Sprintf("🔨 Banned <@%s> %s (infraction #%d).", target.ID, scope, infraction.ID))
}

// HandleKickCommand handles /kick.
func HandleKickCommand(s *discordgo.Session, i *discordgo.InteractionCreate, b *bot.Bot) {
	if err := utils.DeferResponse(s, i, true); err != nil {
		log.Printf("Failed to defer interaction: %v", err)
		return
	}

	opts := optionMap(i)
	target := opts["user"].UserValue(s)
	reason := reasonOption(opts)

	if !utils.CheckAndSetSanctionLock(target.ID) {
		utils.SendFollowUpError(s, i.Interaction, "This user is already being processed, try again shortly.")
		return
	}

	utils.SendPrivateMessage(s, target.ID, fmt.Sprintf("You have been kicked from **%s**. Reason: %s", guildName(s, i.GuildID), displayReason(reason)))

	infraction, err := b.GetService().IssueKick(i.GuildID, target.ID, i.Member.User.ID, reason)
	if err != nil {
		utils.SendFollowUpError(s, i.Interaction, describeError(err))
		return
	}

	auditLog(b, i, "Kick", fmt.Sprintf("user <@%s>, infraction #%d", target.ID, infraction.ID))
	utils.SendFollowUp(s, i.Interaction, fmt.Sprintf("👢 Kicked <@%s> (infraction #%d).", target.ID, infraction.ID))
}

func guildName(s *discordgo.Session, guildID string) string {
	guild, err := s.Guild(guildID)
	if err != nil {
		return "this server"
	}
	return guild.Name
}

func displayReason(reason string) string {
	if reason == "" {
		return "none given"
	}
	return reason
}

func auditLog(b *bot.Bot, i *discordgo.InteractionCreate, operation, details string) {
	url := b.GetConfig().LogWebhookURL
	if url == "" {
		return
	}
	entry := fmt.Sprintf("by <@%s> in guild %s: %s", i.Member.User.ID, i.GuildID, details)
	if err := utils.LogInfo(url, "Moderation", operation, entry); err != nil {
		log.Printf("Failed to send audit log: %v", err)
	}
}
