package utils

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Webhook audit logging. Each entry is posted to a Discord webhook as a small
// embed so moderation actions leave a trail outside the process log.

type logLevel string

const (
	levelInfo  logLevel = "INFO"
	levelWarn  logLevel = "WARN"
	levelError logLevel = "ERROR"
)

var webhookClient = &http.Client{Timeout: 10 * time.Second}

type webhookField struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type webhookEmbed struct {
	Title  string         `json:"title"`
	Color  int            `json:"color"`
	Fields []webhookField `json:"fields"`
}

type webhookPayload struct {
	Embeds []webhookEmbed `json:"embeds"`
}

func levelColor(level logLevel) int {
	switch level {
	case levelWarn:
		return 0xe67e22
	case levelError:
		return 0xe74c3c
	default:
		return 0x2ecc71
	}
}

func sendLog(webhookURL string, level logLevel, module, operation, details string) error {
	payload := webhookPayload{
		Embeds: []webhookEmbed{{
			Title: string(level) + " Log",
			Color: levelColor(level),
			Fields: []webhookField{
				{Name: "Module", Value: module},
				{Name: "Operation", Value: operation},
				{Name: "Details", Value: details},
			},
		}},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	resp, err := webhookClient.Post(webhookURL, "application/json", bytes.NewReader(body))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		msg, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("webhook rejected log entry, status %s: %s", resp.Status, msg)
	}
	return nil
}

// LogInfo posts an informational audit entry to the webhook.
func LogInfo(webhookURL, module, operation, details string) error {
	return sendLog(webhookURL, levelInfo, module, operation, details)
}

// LogWarn posts a warning entry to the webhook.
func LogWarn(webhookURL, module, operation, details string) error {
	return sendLog(webhookURL, levelWarn, module, operation, details)
}

// LogError posts an error entry to the webhook.
func LogError(webhookURL, module, operation, details string) error {
	return sendLog(webhookURL, levelError, module, operation, details)
}
