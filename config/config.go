package config

import (
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"moderation-bot/model"
)

// Load loads the configuration from environment variables and the per-guild
// JSON config file.
func Load() (*model.Config, error) {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Println("Info: .env file not found, relying on environment variables")
	}

	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("MOD_DB_PATH", "data/moderation.db")
	v.SetDefault("SERVER_CONFIG_PATH", "data/server_config.json")
	v.SetDefault("WEB_ADDR", ":8321")
	v.SetDefault("SWEEP_INTERVAL", "1m")
	v.SetDefault("SWEEP_WORKERS", 4)

	token := v.GetString("BOT_TOKEN")
	if token == "" {
		log.Fatal("Error: BOT_TOKEN environment variable not set")
	}

	appID := v.GetString("APP_ID")
	if appID == "" {
		log.Fatal("Error: APP_ID environment variable not set")
	}

	webhookURL := v.GetString("LOG_WEBHOOK_URL")
	if webhookURL == "" {
		log.Println("Warning: LOG_WEBHOOK_URL not set, webhook audit logging will be disabled")
	}

	sweepInterval := v.GetDuration("SWEEP_INTERVAL")
	if sweepInterval <= 0 {
		log.Printf("Warning: invalid SWEEP_INTERVAL, using default of 1m")
		sweepInterval = time.Minute
	}

	serverConfigs, err := model.LoadServerConfigs(v.GetString("SERVER_CONFIG_PATH"))
	if err != nil {
		return nil, err
	}

	var developerIDs []string
	if raw := v.GetString("DEVELOPER_USER_IDS"); raw != "" {
		developerIDs = strings.Split(raw, ",")
	}

	cfg := &model.Config{
		BotToken:         token,
		AppID:            appID,
		ModDBPath:        v.GetString("MOD_DB_PATH"),
		WebAddr:          v.GetString("WEB_ADDR"),
		LogWebhookURL:    webhookURL,
		SweepInterval:    sweepInterval,
		SweepWorkers:     v.GetInt("SWEEP_WORKERS"),
		DeveloperUserIDs: developerIDs,
		ServerConfigs:    serverConfigs,
	}

	return cfg, nil
}
