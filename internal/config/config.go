package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	MongoURI        string
	MongoDB         string
	UsersCollection string

	CronSchedule   string
	Location       *time.Location
	TrashRetention time.Duration
	Workers        int
	// PassTimeout bounds one cron-triggered pass.
	PassTimeout time.Duration

	AdminAddr   string
	AdminAPIKey string

	TelegramToken  string
	TelegramChatID int64

	LogLevel string
}

// Load loads configuration from environment variables, reading .env first if present.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found or error loading it.")
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from a lookup function.
func FromEnv(getenv func(string) string) (*Config, error) {
	get := func(key, fallback string) string {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			return v
		}
		return fallback
	}

	cfg := &Config{
		MongoURI:        get("MONGODB_URI", ""),
		MongoDB:         get("MONGODB_DB", ""),
		UsersCollection: get("MONGODB_USERS_COLLECTION", "users"),
		CronSchedule:    get("CRON_SCHEDULE", "1 0 * * *"),
		AdminAddr:       get("ADMIN_ADDR", ":2002"),
		AdminAPIKey:     get("ADMIN_API_KEY", ""),
		TelegramToken:   get("TELEGRAM_BOT_TOKEN", ""),
		LogLevel:        get("LOG_LEVEL", "info"),
	}

	loc, err := time.LoadLocation(get("TIMEZONE", "UTC"))
	if err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE: %w", err)
	}
	cfg.Location = loc

	days, err := strconv.Atoi(get("TRASH_RETENTION_DAYS", "7"))
	if err != nil || days < 1 {
		return nil, fmt.Errorf("invalid TRASH_RETENTION_DAYS %q", getenv("TRASH_RETENTION_DAYS"))
	}
	cfg.TrashRetention = time.Duration(days) * 24 * time.Hour

	workers, err := strconv.Atoi(get("SCHEDULER_WORKERS", "4"))
	if err != nil || workers < 1 {
		return nil, fmt.Errorf("invalid SCHEDULER_WORKERS %q", getenv("SCHEDULER_WORKERS"))
	}
	cfg.Workers = workers

	timeout, err := time.ParseDuration(get("PASS_TIMEOUT", "1h"))
	if err != nil || timeout <= 0 {
		return nil, fmt.Errorf("invalid PASS_TIMEOUT %q", getenv("PASS_TIMEOUT"))
	}
	cfg.PassTimeout = timeout

	if chatID := get("TELEGRAM_CHAT_ID", ""); chatID != "" {
		id, err := strconv.ParseInt(chatID, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid TELEGRAM_CHAT_ID: %w", err)
		}
		cfg.TelegramChatID = id
	}

	// Validate required fields
	if cfg.MongoURI == "" {
		return nil, fmt.Errorf("MONGODB_URI not set")
	}
	if cfg.MongoDB == "" {
		return nil, fmt.Errorf("MONGODB_DB not set")
	}

	return cfg, nil
}

// ReportsEnabled reports whether run summaries should be sent to Telegram.
func (c *Config) ReportsEnabled() bool {
	return c.TelegramToken != "" && c.TelegramChatID != 0
}
