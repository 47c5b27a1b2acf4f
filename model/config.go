package model

import (
	"encoding/json"
	"os"
	"time"
)

// ServerConfig holds the per-guild moderation settings.
type ServerConfig struct {
	Name            string   `json:"name"`
	GuildID         string   `json:"guild_id"`
	Enable          bool     `json:"enable"`
	MuteRoleID      string   `json:"mute_role_id"`
	StaffRoleIDs    []string `json:"staff_role_ids"`
	AdminRoleIDs    []string `json:"admin_role_ids"`
	ModLogChannelID string   `json:"mod_log_channel_id"`
}

// Config stores the application configuration.
type Config struct {
	BotToken         string
	AppID            string
	ModDBPath        string
	WebAddr          string
	LogWebhookURL    string
	SweepInterval    time.Duration
	SweepWorkers     int
	DeveloperUserIDs []string
	ServerConfigs    map[string]ServerConfig
}

// LoadServerConfigs reads the per-guild configuration file.
func LoadServerConfigs(path string) (map[string]ServerConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var configs map[string]ServerConfig
	if err := json.Unmarshal(data, &configs); err != nil {
		return nil, err
	}
	return configs, nil
}
