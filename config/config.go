package config

import (
	"os"
	"time"

	"github.com/joho/godotenv"
)

// Config holds everything the gate needs to wire itself up.
type Config struct {
	BackendURL    string
	RedisAddr     string
	RedisPassword string
	MongoURI      string
	MongoDatabase string
	SessionSecret string
	SessionTTL    time.Duration
	TokenTTL      time.Duration
}

// Load reads the configuration from an optional .env file and the
// environment.
func Load() Config {
	_ = godotenv.Load()
	return Config{
		BackendURL:    getEnv("BACKEND_URL", "http://localhost:8585"),
		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		MongoURI:      os.Getenv("MONGO_URI"),
		MongoDatabase: getEnv("MONGO_DATABASE", "reportgate"),
		SessionSecret: getEnv("SESSION_SECRET", "change-me"),
		SessionTTL:    getDuration("SESSION_TTL", 7*24*time.Hour),
		TokenTTL:      getDuration("TOKEN_TTL", 0),
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return fallback
}
