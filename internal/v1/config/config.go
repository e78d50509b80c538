// Package config validates process environment variables into a typed
// Config, following the teacher's fail-fast ValidateEnv pattern: collect
// every validation error before returning, rather than bailing on the
// first one, so a misconfigured deployment sees the whole problem at once.
package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/vrsocial/roomcore/internal/v1/logging"
)

// Config holds validated environment configuration for the room substrate
// process (spec §7).
type Config struct {
	// Required variables
	SigningSecret string
	Port          string

	// Optional variables with defaults
	GoEnv    string
	LogLevel string

	RedisEnabled  bool
	RedisAddr     string
	RedisPassword string

	TokenLifetime       time.Duration
	DefaultRoomCapacity int

	AllowedOrigins string

	// Rate limits, expressed in the ulule/limiter "N-unit" format (e.g. "100-M").
	RateLimitAPIGlobal string
	RateLimitAPIAuth   string
	RateLimitAPIRooms  string
	RateLimitWSConnect string
}

// LoadDotenv loads a local .env file if present. If the file is absent it
// logs an info message and loads nothing, matching the teacher's local-development convenience
// (production deployments set real environment variables instead).
func LoadDotenv() {
	if err := godotenv.Load(); err != nil {
		logging.Info(context.Background(), "no .env file found, reading process environment only")
	}
}

// ValidateEnv validates all required environment variables and returns a
// Config, or an error describing every validation failure at once.
func ValidateEnv() (*Config, error) {
	cfg := &Config{}
	var errs []string

	cfg.SigningSecret = os.Getenv("TOKEN_SIGNING_SECRET")
	if cfg.SigningSecret == "" {
		errs = append(errs, "TOKEN_SIGNING_SECRET is required")
	} else if len(cfg.SigningSecret) < 32 {
		errs = append(errs, fmt.Sprintf("TOKEN_SIGNING_SECRET must be at least 32 characters (got %d)", len(cfg.SigningSecret)))
	}

	cfg.Port = getEnvOrDefault("PORT", "8080")
	if port, err := strconv.Atoi(cfg.Port); err != nil || port < 1 || port > 65535 {
		errs = append(errs, fmt.Sprintf("PORT must be a valid port number between 1 and 65535 (got '%s')", cfg.Port))
	}

	cfg.RedisEnabled = os.Getenv("REDIS_ENABLED") == "true"
	if cfg.RedisEnabled {
		cfg.RedisAddr = getEnvOrDefault("REDIS_ADDR", "localhost:6379")
		if !isValidHostPort(cfg.RedisAddr) {
			errs = append(errs, fmt.Sprintf("REDIS_ADDR must be in format 'host:port' (got '%s')", cfg.RedisAddr))
		}
		cfg.RedisPassword = os.Getenv("REDIS_PASSWORD")
	}

	cfg.GoEnv = getEnvOrDefault("GO_ENV", "production")
	cfg.LogLevel = getEnvOrDefault("LOG_LEVEL", "info")
	cfg.AllowedOrigins = os.Getenv("ALLOWED_ORIGINS")

	lifetimeStr := getEnvOrDefault("TOKEN_LIFETIME", "720h") // 30 days
	lifetime, err := time.ParseDuration(lifetimeStr)
	if err != nil {
		errs = append(errs, fmt.Sprintf("TOKEN_LIFETIME must be a valid duration (got '%s')", lifetimeStr))
	}
	cfg.TokenLifetime = lifetime

	capacityStr := getEnvOrDefault("DEFAULT_ROOM_CAPACITY", "16")
	capacity, err := strconv.Atoi(capacityStr)
	if err != nil || capacity < 1 {
		errs = append(errs, fmt.Sprintf("DEFAULT_ROOM_CAPACITY must be a positive integer (got '%s')", capacityStr))
	}
	cfg.DefaultRoomCapacity = capacity

	cfg.RateLimitAPIGlobal = getEnvOrDefault("RATE_LIMIT_API_GLOBAL", "1000-M")
	cfg.RateLimitAPIAuth = getEnvOrDefault("RATE_LIMIT_API_AUTH", "20-M")
	cfg.RateLimitAPIRooms = getEnvOrDefault("RATE_LIMIT_API_ROOMS", "100-M")
	cfg.RateLimitWSConnect = getEnvOrDefault("RATE_LIMIT_WS_CONNECT", "30-M")

	if len(errs) > 0 {
		return nil, fmt.Errorf("environment validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}

	logValidatedConfig(cfg)
	return cfg, nil
}

func isValidHostPort(addr string) bool {
	parts := strings.Split(addr, ":")
	if len(parts) != 2 || parts[0] == "" {
		return false
	}
	port, err := strconv.Atoi(parts[1])
	return err == nil && port >= 1 && port <= 65535
}

func logValidatedConfig(cfg *Config) {
	logging.Info(context.Background(), "environment configuration validated",
		zap.String("signing_secret", redactSecret(cfg.SigningSecret)),
		zap.String("port", cfg.Port),
		zap.Bool("redis_enabled", cfg.RedisEnabled),
		zap.String("redis_addr", cfg.RedisAddr),
		zap.String("go_env", cfg.GoEnv),
		zap.String("log_level", cfg.LogLevel),
		zap.String("token_lifetime", cfg.TokenLifetime.String()),
		zap.Int("default_room_capacity", cfg.DefaultRoomCapacity),
	)
}

func getEnvOrDefault(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func redactSecret(secret string) string {
	if len(secret) <= 8 {
		return "***"
	}
	return secret[:8] + "***"
}
