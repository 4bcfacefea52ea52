package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"golang.org/x/text/currency"
)

// Config represents the full application configuration surface.
type Config struct {
	Server   ServerConfig
	Log      LogConfig
	Planner  PlannerConfig
	WhatsApp WhatsAppConfig
	Sheets   SheetsConfig
	MongoDB  MongoDBConfig
	Storage  StorageConfig
	Reminder ReminderConfig
}

// ServerConfig holds HTTP server related options.
type ServerConfig struct {
	Port string
}

type LogConfig struct {
	Level string
}

// PlannerConfig points at the feed catalog and sets report defaults.
type PlannerConfig struct {
	CatalogPath     string
	DefaultCurrency string
	FarmName        string
}

// WhatsAppConfig contains credentials and options for the Meta WhatsApp Cloud API.
type WhatsAppConfig struct {
	AccessToken   string
	PhoneNumberID string
	VerifyToken   string
	BaseURL       string
	APIVersion    string
}

// SheetsConfig contains configuration required to interact with Google Sheets.
type SheetsConfig struct {
	CredentialsPath string
	SpreadsheetID   string
	PriceRange      string
	ScheduleRange   string
}

// MongoDBConfig holds settings for the plan archive.
type MongoDBConfig struct {
	URI    string
	DBName string
}

// StorageConfig holds the S3 compatible bucket used to publish exports.
type StorageConfig struct {
	Endpoint      string
	Region        string
	AccessKey     string
	SecretKey     string
	Bucket        string
	PublicBaseURL string
}

// ReminderConfig describes the standing flock whose daily ration is pushed on a schedule.
type ReminderConfig struct {
	CronSchedule string
	Timezone     string
	Recipient    string
	Category     string
	Bracket      string
	FlockSize    int
}

// Load reads environment variables (optionally from the provided file) and
// materializes a Config instance.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("failed loading env file %s: %w", envFile, err)
			}
		}
	} else {
		// Missing .env files are fine when configuration comes from the environment.
		_ = godotenv.Load()
	}

	flockSize, err := getenvInt("REMINDER_FLOCK_SIZE", 0)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Server: ServerConfig{
			Port: getenvWithDefault("APP_PORT", "8080"),
		},
		Log: LogConfig{
			Level: getenvWithDefault("LOG_LEVEL", "info"),
		},
		Planner: PlannerConfig{
			CatalogPath:     os.Getenv("FEED_CATALOG_PATH"),
			DefaultCurrency: strings.ToUpper(getenvWithDefault("DEFAULT_CURRENCY", "USD")),
			FarmName:        getenvWithDefault("FARM_NAME", "Rosashi Farms"),
		},
		WhatsApp: WhatsAppConfig{
			AccessToken:   os.Getenv("WHATSAPP_TOKEN"),
			PhoneNumberID: os.Getenv("WHATSAPP_PHONE_NUMBER_ID"),
			VerifyToken:   os.Getenv("META_VERIFY_TOKEN"),
			BaseURL:       getenvWithDefault("WHATSAPP_BASE_URL", "https://graph.facebook.com"),
			APIVersion:    getenvWithDefault("WHATSAPP_API_VERSION", "v20.0"),
		},
		Sheets: SheetsConfig{
			CredentialsPath: os.Getenv("GOOGLE_SHEETS_CREDENTIALS_PATH"),
			SpreadsheetID:   os.Getenv("GOOGLE_SHEET_ID"),
			PriceRange:      getenvWithDefault("GOOGLE_SHEET_PRICE_RANGE", "Prices!A:B"),
			ScheduleRange:   getenvWithDefault("GOOGLE_SHEET_SCHEDULE_RANGE", "Schedule!A1"),
		},
		MongoDB: MongoDBConfig{
			URI:    os.Getenv("MONGODB_URI"),
			DBName: getenvWithDefault("MONGODB_DB_NAME", "feedplanner"),
		},
		Storage: StorageConfig{
			Endpoint:      os.Getenv("STORAGE_ENDPOINT"),
			Region:        getenvWithDefault("STORAGE_REGION", "auto"),
			AccessKey:     os.Getenv("STORAGE_ACCESS_KEY"),
			SecretKey:     os.Getenv("STORAGE_SECRET_KEY"),
			Bucket:        os.Getenv("STORAGE_BUCKET"),
			PublicBaseURL: os.Getenv("STORAGE_PUBLIC_BASE_URL"),
		},
		Reminder: ReminderConfig{
			CronSchedule: os.Getenv("REMINDER_CRON"),
			Timezone:     getenvWithDefault("TIMEZONE", "Africa/Conakry"),
			Recipient:    os.Getenv("REMINDER_RECIPIENT"),
			Category:     os.Getenv("REMINDER_CATEGORY"),
			Bracket:      os.Getenv("REMINDER_BRACKET"),
			FlockSize:    flockSize,
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Enabled reports whether WhatsApp credentials were provided.
func (c WhatsAppConfig) Enabled() bool { return c.AccessToken != "" }

// Enabled reports whether a spreadsheet was configured.
func (c SheetsConfig) Enabled() bool { return c.SpreadsheetID != "" }

// Enabled reports whether the plan archive was configured.
func (c MongoDBConfig) Enabled() bool { return c.URI != "" }

// Enabled reports whether an object storage bucket was configured.
func (c StorageConfig) Enabled() bool { return c.Bucket != "" }

// Enabled reports whether the daily reminder should be scheduled.
func (c ReminderConfig) Enabled() bool { return c.CronSchedule != "" }

// Validate ensures that required configuration fields are populated and that every
// enabled integration is complete.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}

	if c.Server.Port == "" {
		return errors.New("APP_PORT must be provided")
	}

	if _, err := currency.ParseISO(c.Planner.DefaultCurrency); err != nil {
		return fmt.Errorf("DEFAULT_CURRENCY %q is not an ISO 4217 code", c.Planner.DefaultCurrency)
	}

	if c.WhatsApp.Enabled() {
		switch {
		case c.WhatsApp.PhoneNumberID == "":
			return errors.New("WHATSAPP_PHONE_NUMBER_ID must be provided")
		case c.WhatsApp.VerifyToken == "":
			return errors.New("META_VERIFY_TOKEN must be provided")
		case c.WhatsApp.BaseURL == "":
			return errors.New("WHATSAPP_BASE_URL must not be empty")
		case c.WhatsApp.APIVersion == "":
			return errors.New("WHATSAPP_API_VERSION must not be empty")
		}
	}

	if c.Sheets.Enabled() && c.Sheets.CredentialsPath == "" {
		return errors.New("GOOGLE_SHEETS_CREDENTIALS_PATH must be provided")
	}

	if c.MongoDB.Enabled() && c.MongoDB.DBName == "" {
		return errors.New("MONGODB_DB_NAME must not be empty")
	}

	if c.Storage.Enabled() {
		switch {
		case c.Storage.AccessKey == "" || c.Storage.SecretKey == "":
			return errors.New("STORAGE_ACCESS_KEY and STORAGE_SECRET_KEY must be provided")
		case !strings.HasPrefix(c.Storage.PublicBaseURL, "https://") && !strings.HasPrefix(c.Storage.PublicBaseURL, "http://"):
			return errors.New("STORAGE_PUBLIC_BASE_URL must be an http(s) URL when STORAGE_BUCKET is set")
		}
	}

	if c.Reminder.Enabled() {
		switch {
		case !c.WhatsApp.Enabled():
			return errors.New("REMINDER_CRON requires WhatsApp credentials")
		case c.Reminder.Recipient == "":
			return errors.New("REMINDER_RECIPIENT must be provided")
		case c.Reminder.Category == "" || c.Reminder.Bracket == "":
			return errors.New("REMINDER_CATEGORY and REMINDER_BRACKET must be provided")
		case c.Reminder.FlockSize <= 0:
			return errors.New("REMINDER_FLOCK_SIZE must be a positive number")
		case c.Reminder.Timezone == "":
			return errors.New("TIMEZONE must be provided")
		}
	}

	return nil
}

func getenvWithDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getenvInt(key string, fallback int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	return n, nil
}
