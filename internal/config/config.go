// Package config provides application configuration.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Progress backends.
const (
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
)

// Config holds all application configuration.
type Config struct {
	Port         string
	DBPath       string
	LogLevel     string
	LogPretty    bool
	Production   bool // APP_ENV=production: secure cookies, SameSite=None
	ClientOrigin string
	DailySalt    string
	SessionTick  time.Duration
	SessionTTL   time.Duration // finished sessions are swept after this
	Auth         AuthConfig
	Progress     ProgressConfig
}

// AuthConfig controls JWT issuing and cookies.
type AuthConfig struct {
	JWTSecret   string
	ExpiresDays int
	CookieName  string
}

// ProgressConfig selects and configures the progress store.
type ProgressConfig struct {
	Backend       string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisPrefix   string
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		Port:         getEnv("PORT", "5175"),
		DBPath:       getEnv("DB_PATH", "./data/arcade.db"),
		LogLevel:     getEnv("LOG_LEVEL", "info"),
		LogPretty:    getEnvBool("LOG_PRETTY", false),
		Production:   strings.EqualFold(getEnv("APP_ENV", ""), "production"),
		ClientOrigin: getEnv("CLIENT_ORIGIN", "http://localhost:5173"),
		DailySalt:    getEnv("DAILY_SALT", "local_dev_salt"),
		SessionTick:  getEnvDuration("SESSION_TICK", time.Second),
		SessionTTL:   getEnvDuration("SESSION_TTL", 30*time.Minute),
		Auth: AuthConfig{
			JWTSecret:   getEnv("JWT_SECRET", "dev_secret_change_me"),
			ExpiresDays: getEnvInt("JWT_EXPIRES_DAYS", 14),
			CookieName:  getEnv("COOKIE_NAME", "arcade_token"),
		},
		Progress: ProgressConfig{
			Backend:       strings.ToLower(getEnv("PROGRESS_BACKEND", BackendSQLite)),
			RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
			RedisPassword: getEnv("REDIS_PASSWORD", ""),
			RedisDB:       getEnvInt("REDIS_DB", 0),
			RedisPrefix:   getEnv("REDIS_PREFIX", ""),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required configuration fields are set.
func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("PORT cannot be empty")
	}
	if c.DBPath == "" {
		return fmt.Errorf("DB_PATH cannot be empty")
	}
	if c.SessionTick <= 0 {
		return fmt.Errorf("SESSION_TICK must be > 0")
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be > 0")
	}
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET cannot be empty")
	}
	if c.Production && c.Auth.JWTSecret == "dev_secret_change_me" {
		return fmt.Errorf("JWT_SECRET must be set in production")
	}
	if c.Auth.ExpiresDays <= 0 {
		return fmt.Errorf("JWT_EXPIRES_DAYS must be > 0")
	}
	if c.Auth.CookieName == "" {
		return fmt.Errorf("COOKIE_NAME cannot be empty")
	}
	switch c.Progress.Backend {
	case BackendMemory, BackendSQLite:
	case BackendRedis:
		if c.Progress.RedisAddr == "" {
			return fmt.Errorf("REDIS_ADDR cannot be empty with PROGRESS_BACKEND=redis")
		}
		if c.Progress.RedisDB < 0 {
			return fmt.Errorf("REDIS_DB must be >= 0")
		}
	default:
		return fmt.Errorf("PROGRESS_BACKEND must be one of memory, sqlite, redis; got %q", c.Progress.Backend)
	}
	return nil
}

// IsDevelopment returns true if the client origin is local.
func (c *Config) IsDevelopment() bool {
	return !c.Production &&
		(strings.Contains(c.ClientOrigin, "localhost") || strings.Contains(c.ClientOrigin, "127.0.0.1"))
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}

func getEnvInt(key string, fallback int) int {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return n
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	d, err := time.ParseDuration(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return d
}
