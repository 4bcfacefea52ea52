package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var configKeys = []string{
	"APP_PORT", "LOG_LEVEL", "FEED_CATALOG_PATH", "DEFAULT_CURRENCY", "FARM_NAME",
	"WHATSAPP_TOKEN", "WHATSAPP_PHONE_NUMBER_ID", "META_VERIFY_TOKEN", "WHATSAPP_BASE_URL", "WHATSAPP_API_VERSION",
	"GOOGLE_SHEETS_CREDENTIALS_PATH", "GOOGLE_SHEET_ID", "GOOGLE_SHEET_PRICE_RANGE", "GOOGLE_SHEET_SCHEDULE_RANGE",
	"MONGODB_URI", "MONGODB_DB_NAME",
	"STORAGE_ENDPOINT", "STORAGE_REGION", "STORAGE_ACCESS_KEY", "STORAGE_SECRET_KEY", "STORAGE_BUCKET", "STORAGE_PUBLIC_BASE_URL",
	"REMINDER_CRON", "TIMEZONE", "REMINDER_RECIPIENT", "REMINDER_CATEGORY", "REMINDER_BRACKET", "REMINDER_FLOCK_SIZE",
}

// clearEnv blanks every variable Load reads so the host environment cannot leak in.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range configKeys {
		t.Setenv(key, "")
	}
}

func missingEnvFile(t *testing.T) string {
	return filepath.Join(t.TempDir(), "missing.env")
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(missingEnvFile(t))
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "USD", cfg.Planner.DefaultCurrency)
	assert.Equal(t, "Rosashi Farms", cfg.Planner.FarmName)
	assert.Equal(t, "Prices!A:B", cfg.Sheets.PriceRange)
	assert.Equal(t, "auto", cfg.Storage.Region)

	assert.False(t, cfg.WhatsApp.Enabled())
	assert.False(t, cfg.Sheets.Enabled())
	assert.False(t, cfg.MongoDB.Enabled())
	assert.False(t, cfg.Storage.Enabled())
	assert.False(t, cfg.Reminder.Enabled())
}

func TestLoad_FromEnvFile(t *testing.T) {
	clearEnv(t)
	for _, key := range configKeys {
		// godotenv never overrides variables that are already set, even to "".
		require.NoError(t, os.Unsetenv(key))
	}

	path := filepath.Join(t.TempDir(), ".env")
	content := "APP_PORT=9090\n" +
		"DEFAULT_CURRENCY=gnf\n" +
		"WHATSAPP_TOKEN=tok\nWHATSAPP_PHONE_NUMBER_ID=123\nMETA_VERIFY_TOKEN=verify\n" +
		"REMINDER_CRON=0 6 * * *\nREMINDER_RECIPIENT=2246\nREMINDER_CATEGORY=Broilers\nREMINDER_BRACKET=1\nREMINDER_FLOCK_SIZE=250\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	t.Cleanup(func() {
		for _, key := range configKeys {
			_ = os.Unsetenv(key)
		}
	})

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, "GNF", cfg.Planner.DefaultCurrency)
	assert.True(t, cfg.WhatsApp.Enabled())
	assert.True(t, cfg.Reminder.Enabled())
	assert.Equal(t, 250, cfg.Reminder.FlockSize)
	assert.Equal(t, "Africa/Conakry", cfg.Reminder.Timezone)
}

func TestLoad_InvalidFlockSize(t *testing.T) {
	clearEnv(t)
	t.Setenv("REMINDER_FLOCK_SIZE", "many")

	_, err := Load(missingEnvFile(t))
	assert.ErrorContains(t, err, "REMINDER_FLOCK_SIZE")
}

func validConfig() *Config {
	return &Config{
		Server:  ServerConfig{Port: "8080"},
		Planner: PlannerConfig{DefaultCurrency: "USD"},
		WhatsApp: WhatsAppConfig{
			AccessToken: "tok", PhoneNumberID: "1", VerifyToken: "v",
			BaseURL: "https://graph.facebook.com", APIVersion: "v20.0",
		},
		Sheets:  SheetsConfig{SpreadsheetID: "sheet", CredentialsPath: "creds.json"},
		MongoDB: MongoDBConfig{URI: "mongodb://localhost:27017", DBName: "feedplanner"},
		Storage: StorageConfig{Bucket: "plans", AccessKey: "a", SecretKey: "s", PublicBaseURL: "https://files.example.com"},
		Reminder: ReminderConfig{
			CronSchedule: "0 6 * * *", Timezone: "UTC", Recipient: "2246",
			Category: "Broilers", Bracket: "1", FlockSize: 10,
		},
	}
}

func TestValidate(t *testing.T) {
	require.NoError(t, validConfig().Validate())

	var nilCfg *Config
	assert.Error(t, nilCfg.Validate())

	tests := map[string]func(c *Config){
		"port":           func(c *Config) { c.Server.Port = "" },
		"currency":       func(c *Config) { c.Planner.DefaultCurrency = "DOLLARS" },
		"phone id":       func(c *Config) { c.WhatsApp.PhoneNumberID = "" },
		"verify token":   func(c *Config) { c.WhatsApp.VerifyToken = "" },
		"sheets creds":   func(c *Config) { c.Sheets.CredentialsPath = "" },
		"mongo db":       func(c *Config) { c.MongoDB.DBName = "" },
		"storage keys":   func(c *Config) { c.Storage.SecretKey = "" },
		"storage url":    func(c *Config) { c.Storage.PublicBaseURL = "" },
		"storage host":   func(c *Config) { c.Storage.PublicBaseURL = "files.example.com" },
		"reminder no wa": func(c *Config) { c.WhatsApp = WhatsAppConfig{} },
		"recipient":      func(c *Config) { c.Reminder.Recipient = "" },
		"bracket":        func(c *Config) { c.Reminder.Bracket = "" },
		"flock":          func(c *Config) { c.Reminder.FlockSize = 0 },
		"timezone":       func(c *Config) { c.Reminder.Timezone = "" },
	}
	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			cfg := validConfig()
			mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
