package config

import (
	"os"
	"time"
)

type Config struct {
	ServerAddress      string
	ImgurClientID      string
	CacheTTL           time.Duration
	SessionIdleTimeout time.Duration
}

func Load() *Config {
	return &Config{
		ServerAddress:      getEnv("SERVER_ADDRESS", ":9091"),
		ImgurClientID:      getEnv("IMGUR_CLIENT_ID", ""),
		CacheTTL:           5 * time.Minute,
		SessionIdleTimeout: 30 * time.Minute,
	}
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}
