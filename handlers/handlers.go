package handlers

import (
	"log"

	"github.com/bwmarrin/discordgo"

	"moderation-bot/bot"
	"moderation-bot/handlers/mod"
	"moderation-bot/utils"
)

// Commands that only guild admins may run; everything else here is staff-level.
var adminOnly = map[string]bool{
	"infraction_admin": true,
	"botinfo":          true,
}

func Register(b *bot.Bot) {
	b.CommandHandlers = commandHandlers(b)
	addHandlers(b)
}

func commandHandlers(b *bot.Bot) map[string]func(s *discordgo.Session, i *discordgo.InteractionCreate) {
	return map[string]func(s *discordgo.Session, i *discordgo.InteractionCreate){
		"warn": func(s *discordgo.Session, i *discordgo.InteractionCreate) {
			mod.HandleWarnCommand(s, i, b)
		},
		"mute": func(s *discordgo.Session, i *discordgo.InteractionCreate) {
			mod.HandleMuteCommand(s, i, b)
		},
		"unmute": func(s *discordgo.Session, i *discordgo.InteractionCreate) {
			mod.HandleUnmuteCommand(s, i, b)
		},
		"ban": func(s *discordgo.Session, i *discordgo.InteractionCreate) {
			mod.HandleBanCommand(s, i, b)
		},
		"unban": func(s *discordgo.Session, i *discordgo.InteractionCreate) {
			mod.HandleUnbanCommand(s, i, b)
		},
		"kick": func(s *discordgo.Session, i *discordgo.InteractionCreate) {
			mod.HandleKickCommand(s, i, b)
		},
		"track": func(s *discordgo.Session, i *discordgo.InteractionCreate) {
			mod.HandleTrackCommand(s, i, b)
		},
		"untrack": func(s *discordgo.Session, i *discordgo.InteractionCreate) {
			mod.HandleUntrackCommand(s, i, b)
		},
		"infractions": func(s *discordgo.Session, i *discordgo.InteractionCreate) {
			mod.HandleInfractionsCommand(s, i, b)
		},
		"infraction_admin": func(s *discordgo.Session, i *discordgo.InteractionCreate) {
			mod.HandleInfractionAdminCommand(s, i, b)
		},
		"botinfo": func(s *discordgo.Session, i *discordgo.InteractionCreate) {
			SystemInfoHandler(s, i)
		},
	}
}

func addHandlers(b *bot.Bot) {
	b.Session.AddHandler(func(s *discordgo.Session, i *discordgo.InteractionCreate) {
		if i.Type != discordgo.InteractionApplicationCommand {
			return
		}
		name := i.ApplicationCommandData().Name
		handler, ok := b.CommandHandlers[name]
		if !ok {
			return
		}
		if !authorized(b, i, name) {
			utils.SendErrorResponse(s, i, "You do not have permission to use this command.")
			return
		}
		handler(s, i)
	})

	b.Session.AddHandler(func(s *discordgo.Session, r *discordgo.Ready) {
		log.Printf("Logged in as: %v#%v", s.State.User.Username, s.State.User.Discriminator)
	})
}

func authorized(b *bot.Bot, i *discordgo.InteractionCreate, command string) bool {
	if i.Member == nil {
		return false
	}
	cfg := b.GetConfig()
	serverCfg, ok := cfg.ServerConfigs[i.GuildID]
	if !ok {
		return false
	}

	level := utils.CheckPermission(i.Member.Roles, i.Member.User.ID,
		serverCfg.AdminRoleIDs, serverCfg.StaffRoleIDs, cfg.DeveloperUserIDs)
	if adminOnly[command] {
		return level == utils.AdminPermission || level == utils.DeveloperPermission
	}
	return level != utils.GuestPermission
}
