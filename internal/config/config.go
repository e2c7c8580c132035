package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/robfig/cron/v3"
)

// ReminderSchedule parses six-field cron specs (seconds first).
var ReminderSchedule = cron.NewParser(
	cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

type Config struct {
	// Ledger
	Participants []string

	// Storage
	StoreBackend string
	LedgerFile   string
	LedgerFormat string
	SQLiteDBPath string

	// AMQP
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Google Sheets
	GoogleSpreadsheetID string
	GoogleSheetName     string

	// Worker
	ReminderCron string

	LogLevel string
}

func Load() *Config {
	return &Config{
		Participants: getEnvList("PARTICIPANTS", []string{"A", "B"}),

		StoreBackend: getEnv("STORE_BACKEND", "file"),
		LedgerFile:   getEnv("LEDGER_FILE", "expenses.json"),
		LedgerFormat: getEnv("LEDGER_FORMAT", "records"),
		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/budget.db"),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "budget"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "ledger_events"),

		GoogleSpreadsheetID: getEnv("GOOGLE_SPREADSHEET_ID", ""),
		GoogleSheetName:     getEnv("GOOGLE_SHEET_NAME", "Budget"),

		ReminderCron: getEnv("REMINDER_CRON", "0 0 9 1 * *"),

		LogLevel: getEnv("LOG_LEVEL", "warn"),
	}
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	if len(c.Participants) == 0 {
		errors = append(errors, "at least one participant is required")
	}
	seen := map[string]bool{}
	for _, p := range c.Participants {
		if seen[p] {
			errors = append(errors, fmt.Sprintf("participant '%s' listed twice", p))
		}
		seen[p] = true
	}

	validBackends := []string{"file", "sqlite", "sheets", "memory"}
	if !contains(validBackends, c.StoreBackend) {
		errors = append(errors, fmt.Sprintf("invalid store backend '%s': must be one of %v", c.StoreBackend, validBackends))
	}

	switch c.StoreBackend {
	case "file":
		if strings.TrimSpace(c.LedgerFile) == "" {
			errors = append(errors, "ledger file cannot be empty when using file backend")
		}
		validFormats := []string{"records", "snapshot"}
		if !contains(validFormats, c.LedgerFormat) {
			errors = append(errors, fmt.Sprintf("invalid ledger format '%s': must be one of %v", c.LedgerFormat, validFormats))
		}
	case "sqlite":
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
		} else {
			dir := filepath.Dir(c.SQLiteDBPath)
			if dir != "." && dir != "" {
				if _, err := os.Stat(dir); os.IsNotExist(err) {
					if err := os.MkdirAll(dir, 0755); err != nil {
						errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
					}
				}
			}
		}
	case "sheets":
		if c.GoogleSpreadsheetID == "" {
			errors = append(errors, "Google Spreadsheet ID is required when using sheets backend")
		}
		if c.GoogleSheetName == "" {
			errors = append(errors, "Google Sheet name is required when using sheets backend")
		}
	}

	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if _, err := ReminderSchedule.Parse(c.ReminderCron); err != nil {
		errors = append(errors, fmt.Sprintf("invalid reminder cron '%s': %v", c.ReminderCron, err))
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		errors = append(errors, fmt.Sprintf("invalid log level '%s': must be debug, info, warn or error", c.LogLevel))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

// Level returns the configured slog level, falling back to warn.
func (c *Config) Level() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelWarn
	}
	return level
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvList splits a comma-separated variable, dropping empty items.
func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
