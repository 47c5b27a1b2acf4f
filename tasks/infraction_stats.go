package tasks

import (
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/jmoiron/sqlx"

	"moderation-bot/model"
	moddb "moderation-bot/utils/database/moderation"
)

// GenerateInfractionStatsEmbed builds a per-staff infraction leaderboard for
// the given window.
func GenerateInfractionStatsEmbed(db *sqlx.DB, guildID string, window time.Duration) (*discordgo.MessageEmbed, error) {
	since := time.Now().Add(-window)
	stats, err := moddb.GetStaffInfractionStats(db, guildID, since)
	if err != nil {
		return nil, fmt.Errorf("failed to get staff infraction stats for guild %s: %w", guildID, err)
	}

	total, err := moddb.CountInfractionsSince(db, guildID, since)
	if err != nil {
		return nil, fmt.Errorf("failed to count infractions for guild %s: %w", guildID, err)
	}

	var sortedStaff []string
	for staffID := range stats {
		sortedStaff = append(sortedStaff, staffID)
	}
	sort.Slice(sortedStaff, func(i, j int) bool {
		return stats[sortedStaff[i]] > stats[sortedStaff[j]]
	})

	var builder strings.Builder
	builder.WriteString(fmt.Sprintf("### Infractions issued in the last %s\n", window.String()))
	builder.WriteString(fmt.Sprintf("**Total: %d**\n\n", total))
	builder.WriteString("**By staff member:**\n")

	for i, staffID := range sortedStaff {
		builder.WriteString(fmt.Sprintf("%d. <@%s>: %d\n", i+1, staffID, stats[staffID]))
	}

	embed := &discordgo.MessageEmbed{
		Title:       "Moderation Activity",
		Description: builder.String(),
		Timestamp:   time.Now().Format(time.RFC3339),
		Color:       0x00ff00,
	}
	return embed, nil
}

// UpdateInfractionStats posts the stats embed to the guild's mod-log channel.
func UpdateInfractionStats(s *discordgo.Session, db *sqlx.DB, serverCfg model.ServerConfig, window time.Duration) {
	embed, err := GenerateInfractionStatsEmbed(db, serverCfg.GuildID, window)
	if err != nil {
		log.Printf("Failed to generate infraction stats embed: %v", err)
		return
	}

	if _, err := s.ChannelMessageSendEmbed(serverCfg.ModLogChannelID, embed); err != nil {
		log.Printf("Failed to send infraction stats message to channel %s: %v", serverCfg.ModLogChannelID, err)
	}
}
