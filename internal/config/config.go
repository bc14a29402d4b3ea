package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Redis (game records, per-game locks, schedule source)
	RedisURL string

	// NATS (command ingress + event egress)
	NATSURL string

	// Centrifugo (realtime relay)
	CentrifugoURL    string
	CentrifugoAPIKey string

	// Game Settings
	GameExpiresIn time.Duration
	LockExpiresIn time.Duration

	// Scheduler
	SchedulerPollInterval time.Duration

	// Observability
	LoggingLevel string
	Port         string
}

func Load() *Config {
	// Load .env file if it exists
	godotenv.Load()

	return &Config{
		// Redis
		RedisURL: getEnv("REDIS_URL", "redis://localhost:6379/0"),

		// NATS
		NATSURL: getEnv("NATS_URL", "nats://localhost:4222"),

		// Centrifugo
		CentrifugoURL:    getEnv("CENTRIFUGO_URL", "http://localhost:8000/api/"),
		CentrifugoAPIKey: getEnv("CENTRIFUGO_API_KEY", ""),

		// Game Settings
		GameExpiresIn: getEnvDuration("GAME_MAPPER_GAME_EXPIRES_IN", time.Hour),
		// The lock TTL must outlive the slowest command, which is bounded by
		// the relay's retry envelope (20 attempts, 15s timeout each, capped
		// backoff: under 8 minutes).
		LockExpiresIn: getEnvDuration("LOCK_EXPIRES_IN", 10*time.Minute),

		// Scheduler
		SchedulerPollInterval: getEnvDuration("SCHEDULER_POLL_INTERVAL", time.Second),

		// Observability
		LoggingLevel: getEnv("LOGGING_LEVEL", "info"),
		Port:         getEnv("APP_PORT", "8080"),
	}
}

// Debug reports whether debug-level log lines should be emitted.
func (c *Config) Debug() bool {
	return c.LoggingLevel == "debug"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvDuration accepts Go duration strings ("1h30m") or bare seconds ("90").
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second
	}
	return defaultValue
}
