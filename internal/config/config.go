package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	Port            int
	DatabaseURL     string
	LogLevel        string
	AnthropicAPIKey string
	AnthropicModel  string
	StorageURL      string
	StorageKey      string
	StorageBucket   string
	NatsURL         string
	NatsToken       string
	APIToken        string
	CronSecret      string
	CallsPerHour    int
	CallsPerMinute  int
}

func Load() Config {
	// Best effort: a missing .env is the normal production case.
	_ = godotenv.Load()

	return Config{
		Port:            envInt("PORT", 8700),
		DatabaseURL:     envStr("DATABASE_URL", ""),
		LogLevel:        envStr("LOG_LEVEL", "info"),
		AnthropicAPIKey: envStr("ANTHROPIC_API_KEY", ""),
		AnthropicModel:  envStr("CALLCOACH_MODEL", "claude-3-haiku-20240307"),
		StorageURL:      envStr("STORAGE_URL", ""),
		StorageKey:      envStr("STORAGE_KEY", ""),
		StorageBucket:   envStr("STORAGE_BUCKET", "transcripts"),
		NatsURL:         envStr("NATS_URL", ""),
		NatsToken:       envStr("NATS_TOKEN", ""),
		APIToken:        envStr("CALLCOACH_API_TOKEN", ""),
		CronSecret:      envStr("CRON_SECRET", ""),
		CallsPerHour:    envInt("CALLCOACH_CALLS_PER_HOUR", 50),
		CallsPerMinute:  envInt("CALLCOACH_CALLS_PER_MINUTE", 5),
	}
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
