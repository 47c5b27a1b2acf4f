package mod

import (
	"fmt"
	"log"

	"github.com/bwmarrin/discordgo"

	"moderation-bot/bot"
	"moderation-bot/utils"
)

// HandleUnmuteCommand handles /unmute. Unmuting a user who is not muted is a
// no-op, not an error.
func HandleUnmuteCommand(s *discordgo.Session, i *discordgo.InteractionCreate, b *bot.Bot) {
	if err := utils.DeferResponse(s, i, true); err != nil {
		log.Printf("Failed to defer interaction: %v", err)
		return
	}

	target := optionMap(i)["user"].UserValue(s)

	lifted, err := b.GetService().LiftMute(i.GuildID, target.ID)
	if err != nil {
		utils.SendFollowUpError(s, i.Interaction, describeError(err))
		return
	}
	if !lifted {
		utils.SendFollowUp(s, i.Interaction, fmt.Sprintf("<@%s> is not muted.", target.ID))
		return
	}

	auditLog(b, i, "Unmute", fmt.Sprintf("user <@%s>", target.ID))
	utils.SendFollowUp(s, i.Interaction, fmt.Sprintf("🔊 Unmuted <@%s>.", target.ID))
}

// HandleUnbanCommand handles /unban. The target is given by raw ID since a
// banned user is no longer a guild member.
func HandleUnbanCommand(s *discordgo.Session, i *discordgo.InteractionCreate, b *bot.Bot) {
	if err := utils.DeferResponse(s, i, true); err != nil {
		log.Printf("Failed to defer interaction: %v", err)
		return
	}

	userID := optionMap(i)["user_id"].StringValue()

	lifted, err := b.GetService().LiftBan(i.GuildID, userID)
	if err != nil {
		utils.SendFollowUpError(s, i.Interaction, describeError(err))
		return
	}
	if !lifted {
		utils.SendFollowUp(s, i.Interaction, fmt.Sprintf("<@%s> is not banned.", userID))
		return
	}

	auditLog(b, i, "Unban", fmt.Sprintf("user <@%s>", userID))
	utils.SendFollowUp(s, i.Interaction, fmt.Sprintf("✅ Unbanned <@%s>.", userID))
}

// HandleUntrackCommand handles /untrack.
func HandleUntrackCommand(s *discordgo.Session, i *discordgo.InteractionCreate, b *bot.Bot) {
	if err := utils.DeferResponse(s, i, true); err != nil {
		log.Printf("Failed to defer interaction: %v", err)
		return
	}

	target := optionMap(i)["user"].UserValue(s)

	lifted, err := b.GetService().LiftTracking(i.GuildID, target.ID)
	if err != nil {
		utils.SendFollowUpError(s, i.Interaction, describeError(err))
		return
	}
	if !lifted {
		utils.SendFollowUp(s, i.Interaction, fmt.Sprintf("<@%s> is not being tracked.", target.ID))
		return
	}

	utils.SendFollowUp(s, i.Interaction, fmt.Sprintf("Stopped tracking <@%s>.", target.ID))
}

// HandleTrackCommand handles /track.
func HandleTrackCommand(s *discordgo.Session, i *discordgo.InteractionCreate, b *bot.Bot) {
	if err := utils.DeferResponse(s, i, true); err != nil {
		log.Printf("Failed to defer interaction: %v", err)
		return
	}

	opts := optionMap(i)
	target := opts["user"].UserValue(s)

	duration, err := parseDurationOption(opts)
	if err != nil {
		utils.SendFollowUpError(s, i.Interaction, "Invalid duration. Use forms like 48h or 14d.")
		return
	}

	if err := b.GetService().TrackUser(i.GuildID, target.ID, duration); err != nil {
		utils.SendFollowUpError(s, i.Interaction, describeError(err))
		return
	}

	scope := "indefinitely"
	if duration != nil {
		scope = "for " + duration.String()
	}
	utils.SendFollowUp(s, i.Interaction, fmt.Sprintf("👁️ Tracking <@%s> %s.", target.ID, scope))
}
