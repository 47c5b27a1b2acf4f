package mod

import (
	"fmt"
	"log"
	"strconv"

	"github.com/bwmarrin/discordgo"

	"moderation-bot/bot"
	"moderation-bot/model"
	"moderation-bot/utils"
)

// HandleInfractionAdminCommand handles /infraction_admin: moderator
// corrections to the historical record. Editing or deleting a record never
// touches active sanctions or their timers.
func HandleInfractionAdminCommand(s *discordgo.Session, i *discordgo.InteractionCreate, b *bot.Bot) {
	if err := utils.DeferResponse(s, i, true); err != nil {
		log.Printf("Failed to defer interaction: %v", err)
		return
	}

	opts := optionMap(i)
	action := opts["action"].StringValue()

	id, err := strconv.ParseInt(opts["infraction_id"].StringValue(), 10, 64)
	if err != nil {
		utils.SendFollowUpError(s, i.Interaction, "Invalid infraction ID.")
		return
	}

	value := ""
	if opt, ok := opts["value"]; ok {
		value = opt.StringValue()
	}

	svc := b.GetService()
	switch action {
	case "edit_reason":
		if value == "" {
			utils.SendFollowUpError(s, i.Interaction, "A new reason is required.")
			return
		}
		_, err = svc.ModifyInfraction(id, func(inf *model.Infraction) {
			inf.Reason = value
		})
	case "set_rule":
		var ruleID int64
		ruleID, err = strconv.ParseInt(value, 10, 64)
		if err != nil {
			utils.SendFollowUpError(s, i.Interaction, "Invalid rule ID.")
			return
		}
		_, err = svc.ModifyInfraction(id, func(inf *model.Infraction) {
			inf.RuleID = &ruleID
		})
	case "delete":
		err = svc.RemoveInfraction(id)
	default:
		utils.SendFollowUpError(s, i.Interaction, "Unknown action.")
		return
	}

	if err != nil {
		utils.SendFollowUpError(s, i.Interaction, describeError(err))
		return
	}

	auditLog(b, i, "InfractionAdmin", fmt.Sprintf("%s on infraction #%d", action, id))
	utils.SendFollowUp(s, i.Interaction, fmt.Sprintf("✅ Done: %s on infraction #%d.", action, id))
}
