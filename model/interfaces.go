package model

// BotConfigProvider provides an interface to get the bot's configuration
// without depending on the bot package directly.
type BotConfigProvider interface {
	GetConfig() *Config
}
