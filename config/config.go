// Package config loads process configuration: environment variables for
// infrastructure endpoints and a JSON settings file for trading profiles.
// Everything is constructed once at process start and passed by reference;
// there is no ambient global state.
package config

import (
	"log/slog"
	"os"
)

// Config holds infrastructure configuration loaded from environment
// variables.
type Config struct {
	RedisAddr     string
	RedisPassword string
	SQLitePath    string
	MetricsAddr   string

	SettingsPath string
	AccountsPath string

	TelegramBotToken string
	TelegramChatID   string
	WebhookURL       string

	LogLevel slog.Level
}

// Load reads configuration from environment variables with sensible
// defaults.
func Load() *Config {
	return &Config{
		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		SQLitePath:    getEnv("SQLITE_PATH", "data/trades.db"),
		MetricsAddr:   getEnv("METRICS_ADDR", ":9090"),

		SettingsPath: getEnv("SETTINGS_PATH", "settings.json"),
		AccountsPath: getEnv("ACCOUNTS_PATH", "account.json"),

		TelegramBotToken: getEnv("TELEGRAM_BOT_TOKEN", ""),
		TelegramChatID:   getEnv("TELEGRAM_CHAT_ID", ""),
		WebhookURL:       getEnv("WEBHOOK_URL", ""),

		LogLevel: parseLevel(getEnv("LOG_LEVEL", "info")),
	}
}

func parseLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func getEnv(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}
