package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Port string

	LogLevel string
	Env      string

	SlackBotToken        string
	SlackAppToken        string
	SlackSigningSecret   string
	SlackFallbackChannel string
	SlackDefaultUsers    []string
	SlackTimeout         time.Duration

	BufferCapacity int

	RetryMaxAttempts int
	RetryBaseDelay   time.Duration
	RetryCapDelay    time.Duration
}

func LoadConfig() (*Config, error) {
	return &Config{
		Port:     GetEnv("PORT", "8081"),
		Env:      GetEnv("ENV", "development"),
		LogLevel: GetEnv("LOG_LEVEL", "info"),

		SlackBotToken:        GetEnv("SLACK_BOT_TOKEN", ""),
		SlackAppToken:        GetEnv("SLACK_APP_TOKEN", ""),
		SlackSigningSecret:   GetEnv("SLACK_SIGNING_SECRET", ""),
		SlackFallbackChannel: GetEnv("SLACK_FALLBACK_CHANNEL", ""),
		SlackDefaultUsers:    GetListEnv("SLACK_DEFAULT_USERS"),
		SlackTimeout:         GetDurationEnv("SLACK_TIMEOUT", 20*time.Second),

		BufferCapacity: GetIntEnv("BUFFER_CAPACITY", 50),

		RetryMaxAttempts: GetIntEnv("BROADCAST_RETRY_ATTEMPTS", 5),
		RetryBaseDelay:   GetDurationEnv("BROADCAST_RETRY_BASE", 100*time.Millisecond),
		RetryCapDelay:    GetDurationEnv("BROADCAST_RETRY_CAP", 3*time.Second),
	}, nil
}

func GetEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func GetIntEnv(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func GetDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

// GetListEnv splits a comma-separated variable, dropping empty entries.
func GetListEnv(key string) []string {
	raw := GetEnv(key, "")
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
