package commands

import (
	"github.com/bwmarrin/discordgo"

	"moderation-bot/commands/defs"
	"moderation-bot/model"
)

// GenerateCommands returns the slash commands to register for a guild.
func GenerateCommands(serverCfg *model.ServerConfig) []*discordgo.ApplicationCommand {
	return []*discordgo.ApplicationCommand{
		defs.Warn,
		defs.Mute,
		defs.Unmute,
		defs.Ban,
		defs.Unban,
		defs.Kick,
		defs.Track,
		defs.Untrack,
		defs.Infractions,
		defs.InfractionAdmin,
		defs.BotInfo,
	}
}
