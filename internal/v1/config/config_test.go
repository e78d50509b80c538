package config

import (
	"os"
	"strings"
	"testing"
)

// setupTestEnv clears and restores the environment variables these tests
// set, so tests don't leak state into each other or the host environment.
func setupTestEnv(t *testing.T) func() {
	keys := []string{
		"TOKEN_SIGNING_SECRET", "PORT", "REDIS_ENABLED", "REDIS_ADDR",
		"GO_ENV", "LOG_LEVEL", "TOKEN_LIFETIME", "DEFAULT_ROOM_CAPACITY",
	}
	orig := make(map[string]string, len(keys))
	for _, k := range keys {
		orig[k] = os.Getenv(k)
		os.Unsetenv(k)
	}

	return func() {
		for k, v := range orig {
			if v != "" {
				os.Setenv(k, v)
			} else {
				os.Unsetenv(k)
			}
		}
	}
}

const validSecret = "this-is-a-very-long-secret-key-for-testing-purposes"

func TestValidateEnvValidConfiguration(t *testing.T) {
	defer setupTestEnv(t)()

	os.Setenv("TOKEN_SIGNING_SECRET", validSecret)
	os.Setenv("PORT", "8080")
	os.Setenv("REDIS_ENABLED", "false")

	cfg, err := ValidateEnv()
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if cfg.SigningSecret != validSecret {
		t.Errorf("expected TOKEN_SIGNING_SECRET to be set correctly")
	}
	if cfg.Port != "8080" {
		t.Errorf("expected PORT to be '8080', got '%s'", cfg.Port)
	}
	if cfg.GoEnv != "production" {
		t.Errorf("expected GO_ENV to default to 'production', got '%s'", cfg.GoEnv)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("expected LOG_LEVEL to default to 'info', got '%s'", cfg.LogLevel)
	}
	if cfg.DefaultRoomCapacity != 16 {
		t.Errorf("expected DEFAULT_ROOM_CAPACITY to default to 16, got %d", cfg.DefaultRoomCapacity)
	}
}

func TestValidateEnvMissingSigningSecret(t *testing.T) {
	defer setupTestEnv(t)()
	os.Setenv("PORT", "8080")

	_, err := ValidateEnv()
	if err == nil {
		t.Fatal("expected error for missing TOKEN_SIGNING_SECRET, got nil")
	}
	if !strings.Contains(err.Error(), "TOKEN_SIGNING_SECRET is required") {
		t.Errorf("expected error about TOKEN_SIGNING_SECRET, got: %v", err)
	}
}

func TestValidateEnvShortSigningSecret(t *testing.T) {
	defer setupTestEnv(t)()
	os.Setenv("TOKEN_SIGNING_SECRET", "short")
	os.Setenv("PORT", "8080")

	_, err := ValidateEnv()
	if err == nil {
		t.Fatal("expected error for short secret, got nil")
	}
	if !strings.Contains(err.Error(), "must be at least 32 characters") {
		t.Errorf("expected error about secret length, got: %v", err)
	}
}

func TestValidateEnvInvalidPort(t *testing.T) {
	defer setupTestEnv(t)()
	os.Setenv("TOKEN_SIGNING_SECRET", validSecret)
	os.Setenv("PORT", "99999")

	_, err := ValidateEnv()
	if err == nil {
		t.Fatal("expected error for invalid PORT, got nil")
	}
	if !strings.Contains(err.Error(), "PORT must be a valid port number") {
		t.Errorf("expected error about invalid PORT, got: %v", err)
	}
}

func TestValidateEnvInvalidRedisAddr(t *testing.T) {
	defer setupTestEnv(t)()
	os.Setenv("TOKEN_SIGNING_SECRET", validSecret)
	os.Setenv("PORT", "8080")
	os.Setenv("REDIS_ENABLED", "true")
	os.Setenv("REDIS_ADDR", "invalid-format")

	_, err := ValidateEnv()
	if err == nil {
		t.Fatal("expected error for invalid REDIS_ADDR, got nil")
	}
	if !strings.Contains(err.Error(), "REDIS_ADDR must be in format 'host:port'") {
		t.Errorf("expected error about REDIS_ADDR format, got: %v", err)
	}
}

func TestValidateEnvRedisDefaultAddr(t *testing.T) {
	defer setupTestEnv(t)()
	os.Setenv("TOKEN_SIGNING_SECRET", validSecret)
	os.Setenv("PORT", "8080")
	os.Setenv("REDIS_ENABLED", "true")

	cfg, err := ValidateEnv()
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if cfg.RedisAddr != "localhost:6379" {
		t.Errorf("expected REDIS_ADDR to default to 'localhost:6379', got '%s'", cfg.RedisAddr)
	}
}

func TestValidateEnvInvalidTokenLifetime(t *testing.T) {
	defer setupTestEnv(t)()
	os.Setenv("TOKEN_SIGNING_SECRET", validSecret)
	os.Setenv("PORT", "8080")
	os.Setenv("TOKEN_LIFETIME", "not-a-duration")

	_, err := ValidateEnv()
	if err == nil {
		t.Fatal("expected error for invalid TOKEN_LIFETIME, got nil")
	}
	if !strings.Contains(err.Error(), "TOKEN_LIFETIME must be a valid duration") {
		t.Errorf("expected error about TOKEN_LIFETIME, got: %v", err)
	}
}

func TestValidateEnvInvalidRoomCapacity(t *testing.T) {
	defer setupTestEnv(t)()
	os.Setenv("TOKEN_SIGNING_SECRET", validSecret)
	os.Setenv("PORT", "8080")
	os.Setenv("DEFAULT_ROOM_CAPACITY", "0")

	_, err := ValidateEnv()
	if err == nil {
		t.Fatal("expected error for non-positive DEFAULT_ROOM_CAPACITY, got nil")
	}
	if !strings.Contains(err.Error(), "DEFAULT_ROOM_CAPACITY must be a positive integer") {
		t.Errorf("expected error about DEFAULT_ROOM_CAPACITY, got: %v", err)
	}
}

func TestRedactSecret(t *testing.T) {
	tests := []struct {
		name     string
		secret   string
		expected string
	}{
		{"Long secret", "this-is-a-very-long-secret-key", "this-is-***"},
		{"Short secret", "short", "***"},
		{"Exactly 8 chars", "12345678", "***"},
		{"9 chars", "123456789", "12345678***"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := redactSecret(tt.secret); got != tt.expected {
				t.Errorf("redactSecret(%q) = %q, want %q", tt.secret, got, tt.expected)
			}
		})
	}
}

func TestIsValidHostPort(t *testing.T) {
	tests := []struct {
		name     string
		addr     string
		expected bool
	}{
		{"Valid localhost", "localhost:8080", true},
		{"Valid IP", "127.0.0.1:3000", true},
		{"Valid hostname", "example.com:443", true},
		{"Missing port", "localhost", false},
		{"Missing host", ":8080", false},
		{"Invalid port", "localhost:99999", false},
		{"Non-numeric port", "localhost:abc", false},
		{"Multiple colons", "localhost:8080:9090", false},
		{"Empty string", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isValidHostPort(tt.addr); got != tt.expected {
				t.Errorf("isValidHostPort(%q) = %v, want %v", tt.addr, got, tt.expected)
			}
		})
	}
}
