package config

import (
	"errors"
	"os"
	"strconv"
	"time"
)

// DevFallbackSecret is the signing secret the original deployment shipped
// with. It is only usable when JWT_ALLOW_INSECURE_SECRET=true; production
// deployments must set JWT_SECRET or the server refuses to start.
const DevFallbackSecret = "barberia_secret_key_2024"

type Config struct {
	ServerPort  string
	DatabaseURL string
	RedisURL    string
	JWTSecret   string
	JWTExpiry   time.Duration
	BcryptCost  int
}

func LoadConfig() (*Config, error) {
	expiryStr := getEnv("JWT_EXPIRY", "168h")
	expiry, err := time.ParseDuration(expiryStr)
	if err != nil {
		return nil, errors.New("invalid JWT_EXPIRY format")
	}

	costStr := getEnv("BCRYPT_COST", "10")
	cost, err := strconv.Atoi(costStr)
	if err != nil {
		return nil, errors.New("invalid BCRYPT_COST format")
	}

	cfg := &Config{
		ServerPort:  getEnv("SERVER_PORT", "8080"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		RedisURL:    os.Getenv("REDIS_URL"),
		JWTSecret:   os.Getenv("JWT_SECRET"),
		JWTExpiry:   expiry,
		BcryptCost:  cost,
	}

	// Validate required fields
	if cfg.DatabaseURL == "" {
		return nil, errors.New("DATABASE_URL is required")
	}
	if cfg.JWTSecret == "" {
		if os.Getenv("JWT_ALLOW_INSECURE_SECRET") != "true" {
			return nil, errors.New("JWT_SECRET is required (set JWT_ALLOW_INSECURE_SECRET=true to use the development fallback)")
		}
		cfg.JWTSecret = DevFallbackSecret
	}

	return cfg, nil
}

// Helper: get env with default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
