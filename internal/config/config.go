package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// The two supported refresh cadences. Anything else in UPDATE_INTERVAL falls
// back to the default with a warning.
const (
	IntervalTwiceDaily = 12 * time.Hour
	IntervalDaily      = 24 * time.Hour
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	LunchMoneyURL  string
	APIKey         string
	RetryMax       int
	RetryBaseDelay time.Duration

	UpdateInterval     time.Duration
	PrimaryCurrency    string
	InvertedAssetTypes []string

	HTTPPort    string
	AdminAPIKey string
	DatabaseURL string

	SheetsSpreadsheetID   string
	GoogleCredentialsJSON string
	XLSXExportPath        string
}

// Load reads configuration from environment variables with sensible defaults.
func Load() Config {
	return Config{
		LunchMoneyURL:  envOrDefault("LUNCHMONEY_URL", "https://dev.lunchmoney.app"),
		APIKey:         envOrDefaultWarn("LUNCHMONEY_API_KEY", ""),
		RetryMax:       envOrDefaultInt("LUNCHMONEY_RETRY_MAX", 3),
		RetryBaseDelay: envOrDefaultDuration("LUNCHMONEY_RETRY_BASE_DELAY", 2*time.Second),

		UpdateInterval:     envInterval("UPDATE_INTERVAL", IntervalTwiceDaily),
		PrimaryCurrency:    envOrDefault("PRIMARY_CURRENCY", "USD"),
		InvertedAssetTypes: envList("INVERTED_ASSET_TYPES", []string{"credit", "loan"}),

		HTTPPort:    envOrDefault("HTTP_PORT", "8080"),
		AdminAPIKey: envOrDefault("ADMIN_API_KEY", ""),
		DatabaseURL: envOrDefault("DATABASE_URL", ""),

		SheetsSpreadsheetID:   envOrDefault("SHEETS_SPREADSHEET_ID", ""),
		GoogleCredentialsJSON: envOrDefault("GOOGLE_CREDENTIALS_JSON", ""),
		XLSXExportPath:        envOrDefault("XLSX_EXPORT_PATH", ""),
	}
}

func envOrDefault(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func envOrDefaultWarn(key, defaultVal string) string {
	v := envOrDefault(key, defaultVal)
	if v == "" {
		slog.Warn("required env var not set", "key", key)
	}
	return v
}

func envOrDefaultInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			slog.Warn("invalid integer env var, using default", "key", key, "value", v, "default", defaultVal)
			return defaultVal
		}
		return n
	}
	return defaultVal
}

func envOrDefaultDuration(key string, defaultVal time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			slog.Warn("invalid duration env var, using default", "key", key, "value", v, "default", defaultVal)
			return defaultVal
		}
		return d
	}
	return defaultVal
}

// envInterval accepts only the two supported cadences.
func envInterval(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil || (d != IntervalTwiceDaily && d != IntervalDaily) {
		slog.Warn("unsupported update interval, using default",
			"key", key, "value", v, "supported", "12h or 24h", "default", defaultVal)
		return defaultVal
	}
	return d
}

func envList(key string, defaultVal []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return defaultVal
	}
	return out
}
