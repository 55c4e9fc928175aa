package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

func init() {
	// Load .env file if it exists (silently ignore if not found)
	_ = godotenv.Load()
}

type Config struct {
	// Required
	DiscordToken    string
	AnthropicAPIKey string

	// Optional integrations
	HypixelAPIKey string
	ResendAPIKey  string
	AlertEmail    string
	EmailFrom     string

	// Optional with defaults
	DBPath        string
	Model         string
	Temperature   float64
	HistorySize   int
	Timezone      string
	TonightHour   int
	MaxLeadHours  int
	RateLimitMsgs int
	RateLimitSecs int
	AdminUserIDs  []string
}

func LoadFromEnv() *Config {
	cfg := &Config{
		// Required
		DiscordToken:    strings.TrimSpace(os.Getenv("DISCORD_TOKEN")),
		AnthropicAPIKey: strings.TrimSpace(os.Getenv("ANTHROPIC_API_KEY")),

		// Optional integrations
		HypixelAPIKey: strings.TrimSpace(os.Getenv("HYPIXEL_API_KEY")),
		ResendAPIKey:  os.Getenv("RESEND_API_KEY"),
		AlertEmail:    os.Getenv("DISCLAUDE_ALERT_EMAIL"),
		EmailFrom:     getEnvOrDefault("DISCLAUDE_EMAIL_FROM", "disclaude@localhost"),

		// Optional with defaults
		DBPath:        getEnvOrDefault("DISCLAUDE_DB_PATH", "./disclaude.db"),
		Model:         getEnvOrDefault("DISCLAUDE_MODEL", "claude-sonnet-4-20250514"),
		Temperature:   getEnvAsFloatOrDefault("DISCLAUDE_TEMPERATURE", 0.7),
		HistorySize:   getEnvAsIntOrDefault("DISCLAUDE_HISTORY_SIZE", 10),
		Timezone:      getEnvOrDefault("DISCLAUDE_TIMEZONE", "UTC"),
		TonightHour:   getEnvAsIntOrDefault("DISCLAUDE_TONIGHT_HOUR", 20),
		MaxLeadHours:  getEnvAsIntOrDefault("DISCLAUDE_MAX_LEAD_HOURS", 0),
		RateLimitMsgs: getEnvAsIntOrDefault("RATE_LIMIT_MESSAGES", 5),
		RateLimitSecs: getEnvAsIntOrDefault("RATE_LIMIT_SECONDS", 60),
		AdminUserIDs:  splitIDs(os.Getenv("ADMIN_USER_IDS")),
	}

	return cfg
}

// splitIDs parses a comma-separated ID list, dropping empty entries.
func splitIDs(value string) []string {
	var ids []string
	for _, part := range strings.Split(value, ",") {
		if id := strings.TrimSpace(part); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}
