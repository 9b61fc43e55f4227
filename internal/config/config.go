package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// Config keeps runtime settings for one DuoStudy client.
type Config struct {
	TelegramToken  string
	TelegramChatID int64
	DatabaseURL    string
	SyncInterval   time.Duration
	HTTPAddr       string
	Timezone       string
	Location       *time.Location
	LogLevel       log.Level
	ReportTime     string
}

// Load reads configuration from environment variables, after an optional
// .env file, with sane defaults. The Telegram token is checked by
// RequireTelegram so offline subcommands work without it.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Debug("no .env file found, using environment variables")
	}
	return load(newViper())
}

func newViper() *viper.Viper {
	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("DATABASE_URL", "duostudy.db")
	v.SetDefault("SYNC_INTERVAL", "10s")
	v.SetDefault("TIMEZONE", "UTC")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("REPORT_TIME", "")
	v.SetDefault("TELEGRAM_CHAT_ID", 0)
	return v
}

func load(v *viper.Viper) (Config, error) {
	cfg := Config{
		TelegramToken: strings.TrimSpace(v.GetString("TELEGRAM_TOKEN")),
		DatabaseURL:   strings.TrimSpace(v.GetString("DATABASE_URL")),
		HTTPAddr:      strings.TrimSpace(v.GetString("HTTP_ADDR")),
		Timezone:      strings.TrimSpace(v.GetString("TIMEZONE")),
		ReportTime:    strings.TrimSpace(v.GetString("REPORT_TIME")),
	}
	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = "duostudy.db"
	}

	chatID, err := parseChatID(v.GetString("TELEGRAM_CHAT_ID"))
	if err != nil {
		return cfg, err
	}
	cfg.TelegramChatID = chatID

	cfg.SyncInterval, err = parseInterval(v.GetString("SYNC_INTERVAL"))
	if err != nil {
		return cfg, err
	}

	if cfg.Timezone == "" {
		cfg.Timezone = "UTC"
	}
	cfg.Location, err = time.LoadLocation(cfg.Timezone)
	if err != nil {
		return cfg, fmt.Errorf("TIMEZONE: %w", err)
	}

	cfg.LogLevel, err = log.ParseLevel(strings.TrimSpace(v.GetString("LOG_LEVEL")))
	if err != nil {
		return cfg, fmt.Errorf("LOG_LEVEL: %w", err)
	}

	return cfg, nil
}

// RequireTelegram reports an error when the bot cannot be started.
func (c Config) RequireTelegram() error {
	if c.TelegramToken == "" {
		return fmt.Errorf("TELEGRAM_TOKEN is required")
	}
	return nil
}

// parseInterval accepts a Go duration ("15s", "1m") or a bare number of
// seconds. Empty input falls back to ten seconds.
func parseInterval(raw string) (time.Duration, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 10 * time.Second, nil
	}
	interval, err := time.ParseDuration(raw)
	if err != nil {
		interval, err = time.ParseDuration(raw + "s")
	}
	if err != nil || interval < time.Second {
		return 0, fmt.Errorf("SYNC_INTERVAL: invalid value %q", raw)
	}
	return interval, nil
}

func parseChatID(raw string) (int64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "0" {
		return 0, nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("TELEGRAM_CHAT_ID: invalid value %q", raw)
	}
	return id, nil
}
