package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/robfig/cron/v3"
)

// Storage backends
const (
	StorageAzure = "azure"
	StorageFile  = "file"
)

// Config holds all configuration for the application
type Config struct {
	// Server configuration
	Port  string
	Debug bool

	// Schedule configuration, a cron expression with seconds
	ProcessSchedule string
	TimeZone        string

	// Storage configuration
	StorageBackend   string
	StorageAccount   string
	StorageContainer string
	LocalStorageDir  string
	PendingPrefix    string
	ReportPrefix     string

	// Notification configuration
	TeamsWebhookURL   string
	NotificationEmail string
	SMTPHost          string
	SMTPPort          int
	SMTPUsername      string
	SMTPPassword      string

	// Engine configuration
	ExcludedBrands    []string
	ProviderNames     []string
	RenameMentionRate bool
	AlertMinScore     float64
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Port:            getEnv("PORT", "8080"),
		Debug:           getBoolEnv("DEBUG", false),
		ProcessSchedule: getEnv("PROCESS_SCHEDULE", "0 */15 * * * *"),
		TimeZone:        getEnv("TIMEZONE", "UTC"),

		StorageBackend:   getEnv("STORAGE_BACKEND", StorageAzure),
		StorageAccount:   getEnv("AZURE_STORAGE_ACCOUNT", ""),
		StorageContainer: getEnv("AZURE_STORAGE_CONTAINER", "visibility"),
		LocalStorageDir:  getEnv("LOCAL_STORAGE_DIR", "./data"),
		PendingPrefix:    getEnv("PENDING_PREFIX", "runs/"),
		ReportPrefix:     getEnv("REPORT_PREFIX", "reports/"),

		TeamsWebhookURL:   getEnv("TEAMS_WEBHOOK_URL", ""),
		NotificationEmail: getEnv("NOTIFICATION_EMAIL", ""),
		SMTPHost:          getEnv("SMTP_HOST", ""),
		SMTPPort:          getIntEnv("SMTP_PORT", 587),
		SMTPUsername:      getEnv("SMTP_USERNAME", ""),
		SMTPPassword:      getEnv("SMTP_PASSWORD", ""),

		ExcludedBrands:    getSliceEnv("EXCLUDED_BRANDS", nil),
		ProviderNames:     getSliceEnv("PROVIDER_NAMES", nil),
		RenameMentionRate: getBoolEnv("RENAME_MENTION_RATE", false),
		AlertMinScore:     getFloatEnv("ALERT_MIN_SCORE", 0),
	}

	// Validate required configuration
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

func (c *Config) validate() error {
	switch c.StorageBackend {
	case StorageAzure:
		if c.StorageAccount == "" {
			return fmt.Errorf("AZURE_STORAGE_ACCOUNT is required when STORAGE_BACKEND is 'azure'")
		}
	case StorageFile:
		if c.LocalStorageDir == "" {
			return fmt.Errorf("LOCAL_STORAGE_DIR is required when STORAGE_BACKEND is 'file'")
		}
	default:
		return fmt.Errorf("STORAGE_BACKEND must be 'azure' or 'file'")
	}

	if _, err := cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow).Parse(c.ProcessSchedule); err != nil {
		return fmt.Errorf("PROCESS_SCHEDULE is not a valid cron expression: %w", err)
	}

	if c.PendingPrefix == c.ReportPrefix {
		return fmt.Errorf("PENDING_PREFIX and REPORT_PREFIX must differ")
	}

	if c.NotificationEmail != "" {
		if c.SMTPHost == "" || c.SMTPUsername == "" || c.SMTPPassword == "" {
			return fmt.Errorf("SMTP configuration is required when NOTIFICATION_EMAIL is set")
		}
	}

	return nil
}

// NotificationsEnabled reports whether any notification channel is configured
func (c *Config) NotificationsEnabled() bool {
	return c.TeamsWebhookURL != "" || c.NotificationEmail != ""
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getSliceEnv(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		var out []string
		for _, item := range strings.Split(value, ",") {
			if item = strings.TrimSpace(item); item != "" {
				out = append(out, item)
			}
		}
		return out
	}
	return defaultValue
}
