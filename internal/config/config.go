package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration. It is built once at startup and passed to
// components; nothing else reads the environment.
type Config struct {
	Port          string
	Env           string
	PublicBaseURL string
	LogLevel      string
	WorkerCount   int

	// Completion endpoint (OpenRouter, OpenAI-compatible)
	OpenRouterAPIKey  string
	CompletionBaseURL string
	CompletionTimeout time.Duration

	// Whisper transcription
	OpenAIAPIKey string

	// Telegram pipeline
	TelegramToken string
	AdminIDs      []int64

	// WhatsApp (Twilio) pipeline
	TwilioAccountSID    string
	TwilioAuthToken     string
	TwilioWebhookSecret string
	TwilioPhoneNumber   string

	// Storage
	DatabaseURL   string
	RedisAddr     string
	RedisPassword string
	RedisTLS      bool

	// Handoff and admin surfaces
	AdminWebhookURL   string
	HumanAgentWebhook string
	AdminPassword     string
	AdminJWTSecret    string
	SendGridAPIKey    string
	SendGridFromEmail string
	SendGridFromName  string
	AdminEmail        string
	GoogleMapsAPIKey  string
}

// Load reads configuration from environment variables. A .env file in the working
// directory is loaded first when present; real environment variables win.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Port:          getEnv("PORT", "3000"),
		Env:           getEnv("ENV", "development"),
		PublicBaseURL: getEnv("PUBLIC_BASE_URL", ""),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		WorkerCount:   getEnvAsInt("WORKER_COUNT", 4),

		OpenRouterAPIKey:  getEnv("OPENROUTER_API_KEY", ""),
		CompletionBaseURL: getEnv("COMPLETION_BASE_URL", "https://openrouter.ai/api/v1"),
		CompletionTimeout: getEnvAsDuration("COMPLETION_TIMEOUT", 30*time.Second),

		OpenAIAPIKey: getEnv("OPENAI_API_KEY", ""),

		TelegramToken: getEnv("TELEGRAM_TOKEN", ""),
		AdminIDs:      getEnvAsInt64List("ADMIN_IDS"),

		TwilioAccountSID:    getEnv("TWILIO_ACCOUNT_SID", ""),
		TwilioAuthToken:     getEnv("TWILIO_AUTH_TOKEN", ""),
		TwilioWebhookSecret: getEnv("TWILIO_WEBHOOK_SECRET", ""),
		TwilioPhoneNumber:   getEnv("TWILIO_PHONE_NUMBER", ""),

		DatabaseURL:   getEnv("DATABASE_URL", ""),
		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisTLS:      getEnvAsBool("REDIS_TLS", false),

		AdminWebhookURL:   getEnv("ADMIN_WEBHOOK_URL", ""),
		HumanAgentWebhook: getEnv("HUMAN_AGENT_WEBHOOK", ""),
		AdminPassword:     getEnv("ADMIN_PASSWORD", "admin"),
		AdminJWTSecret:    getEnv("ADMIN_JWT_SECRET", ""),
		SendGridAPIKey:    getEnv("SENDGRID_API_KEY", ""),
		SendGridFromEmail: getEnv("SENDGRID_FROM_EMAIL", ""),
		SendGridFromName:  getEnv("SENDGRID_FROM_NAME", "Aria"),
		AdminEmail:        getEnv("ADMIN_EMAIL", ""),
		GoogleMapsAPIKey:  getEnv("GOOGLE_MAPS_API_KEY", ""),
	}
}

// IsAdmin reports whether the Telegram user id is in ADMIN_IDS.
func (c *Config) IsAdmin(userID int64) bool {
	if c == nil {
		return false
	}
	for _, id := range c.AdminIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsInt64List parses a comma separated id list, skipping entries that are not numbers.
func getEnvAsInt64List(key string) []int64 {
	raw := getEnv(key, "")
	if raw == "" {
		return nil
	}
	var ids []int64
	for _, part := range strings.Split(raw, ",") {
		id, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids
}
