package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port            int
	NatsURL         string
	NatsToken       string
	DatabaseURL     string
	LogLevel        string
	OpenAIAPIKey    string
	Model           string
	GatewayURL      string
	GatewayToken    string
	Channel         string
	BotHandle       string
	Timezone        string
	ReplayAfter     string
	ClassifyTimeout time.Duration
}

func Load() Config {
	return Config{
		Port:            envInt("TALLY_PORT", 8760),
		NatsURL:         envStr("NATS_URL", "nats://gateway:4222"),
		NatsToken:       envStr("NATS_TOKEN", ""),
		DatabaseURL:     envStr("DATABASE_URL", ""),
		LogLevel:        envStr("LOG_LEVEL", "info"),
		OpenAIAPIKey:    envStr("OPENAI_API_KEY", ""),
		Model:           envStr("TALLY_MODEL", "gpt-4o-mini"),
		GatewayURL:      envStr("GATEWAY_URL", "http://gateway:8720"),
		GatewayToken:    envStr("GATEWAY_TOKEN", ""),
		Channel:         envStr("TALLY_CHANNEL", "challenges"),
		BotHandle:       envStr("TALLY_BOT_HANDLE", "tally"),
		Timezone:        envStr("TALLY_TIMEZONE", "America/Chicago"),
		ReplayAfter:     envStr("TALLY_REPLAY_AFTER", "2025-07-01"),
		ClassifyTimeout: envDuration("TALLY_CLASSIFY_TIMEOUT", 60*time.Second),
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

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
