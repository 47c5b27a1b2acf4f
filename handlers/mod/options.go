package mod

import (
	"errors"
	"time"

	"github.com/bwmarrin/discordgo"

	"moderation-bot/moderation"
	"moderation-bot/utils"
)

func optionMap(i *discordgo.InteractionCreate) map[string]*discordgo.ApplicationCommandInteractionDataOption {
	options := i.ApplicationCommandData().Options
	m := make(map[string]*discordgo.ApplicationCommandInteractionDataOption, len(options))
	for _, opt := range options {
		m[opt.Name] = opt
	}
	return m
}

// parseDurationOption parses an optional duration option. nil means the
// option was omitted (indefinite sanction).
func parseDurationOption(opts map[string]*discordgo.ApplicationCommandInteractionDataOption) (*time.Duration, error) {
	opt, ok := opts["duration"]
	if !ok {
		return nil, nil
	}
	d, err := utils.ParseDuration(opt.StringValue())
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func reasonOption(opts map[string]*discordgo.ApplicationCommandInteractionDataOption) string {
	if opt, ok := opts["reason"]; ok {
		return opt.StringValue()
	}
	return ""
}

// describeError turns a service error into a message safe to show the staff
// member who ran the command.
func describeError(err error) string {
	var enfErr *moderation.EnforcementError
	switch {
	case errors.Is(err, moderation.ErrInvalidArgument):
		return err.Error()
	case errors.Is(err, moderation.ErrNotFound):
		return err.Error()
	case errors.As(err, &enfErr):
		return "Discord refused the " + enfErr.Action + " action. Nothing was recorded; check the bot's role permissions."
	default:
		return "An internal error occurred, see the bot log."
	}
}
