package mod

import (
	"fmt"
	"log"
	"strings"

	"github.com/bwmarrin/discordgo"

	"moderation-bot/bot"
	"moderation-bot/model"
	"moderation-bot/utils"
)

const maxHistoryEntries = 20

// HandleInfractionsCommand handles /infractions: a user's history, oldest
// first, plus their currently active sanctions.
func HandleInfractionsCommand(s *discordgo.Session, i *discordgo.InteractionCreate, b *bot.Bot) {
	if err := utils.DeferResponse(s, i, true); err != nil {
		log.Printf("Failed to defer interaction: %v", err)
		return
	}

	target := optionMap(i)["user"].UserValue(s)
	svc := b.GetService()

	records, err := svc.EnumerateUserInfractions(i.GuildID, target.ID)
	if err != nil {
		utils.SendFollowUpError(s, i.Interaction, describeError(err))
		return
	}

	var builder strings.Builder
	if len(records) == 0 {
		builder.WriteString("No infractions on record.\n")
	}
	shown := records
	if len(shown) > maxHistoryEntries {
		shown = shown[len(shown)-maxHistoryEntries:]
		builder.WriteString(fmt.Sprintf("(showing the most recent %d of %d)\n", maxHistoryEntries, len(records)))
	}
	for _, record := range shown {
		line := fmt.Sprintf("`#%d` **%s** by <@%s> on <t:%d:d>", record.ID, record.Type, record.StaffID, record.IssuedAt.Unix())
		if record.Reason != "" {
			line += ": " + record.Reason
		}
		if record.RuleID != nil {
			if rule, err := svc.GetRule(*record.RuleID); err == nil {
				line += fmt.Sprintf(" (rule %d)", rule.Number)
			}
		}
		builder.WriteString(line + "\n")
	}

	if status := activeSanctionStatus(b, i.GuildID, target.ID); status != "" {
		builder.WriteString("\n**Active:** " + status + "\n")
	}

	embed := &discordgo.MessageEmbed{
		Title:       fmt.Sprintf("Infractions for %s (%d total)", target.Username, len(records)),
		Description: builder.String(),
		Color:       0xe67e22,
	}
	utils.SendFollowUpEmbed(s, i.Interaction, embed)
}

func activeSanctionStatus(b *bot.Bot, guildID, userID string) string {
	var parts []string
	for _, kind := range []model.SanctionKind{model.SanctionMute, model.SanctionBan, model.SanctionTracking} {
		row, err := b.GetService().GetActiveSanction(kind, guildID, userID)
		if err != nil || row == nil {
			continue
		}
		if row.ExpiresAt != nil {
			parts = append(parts, fmt.Sprintf("%s until <t:%d:f>", kind, row.ExpiresAt.Unix()))
		} else {
			parts = append(parts, fmt.Sprintf("%s (indefinite)", kind))
		}
	}
	return strings.Join(parts, ", ")
}
