package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server      ServerConfig
	Database    DatabaseConfig
	Redis       RedisConfig
	Auth        AuthConfig
	Email       EmailConfig
	Preferences PreferencesConfig
	RateLimit   RateLimitConfig
}

type ServerConfig struct {
	Port         string
	Environment  string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

type AuthConfig struct {
	SessionTTL           time.Duration
	OTPTTL               time.Duration
	VerificationTokenTTL time.Duration
	ResetTokenTTL        time.Duration
	MinPasswordLength    int
}

type EmailConfig struct {
	Enabled         bool
	APIKey          string
	FromName        string
	FromEmail       string
	VerificationURL string
	Timeout         time.Duration
}

type PreferencesConfig struct {
	Enabled bool
	BaseURL string
	Timeout time.Duration
}

type RateLimitConfig struct {
	Enabled bool
	Limit   int
	Window  time.Duration
}

func Load() (*Config, error) {
	// .env is optional in production
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Port:         getEnv("SERVER_PORT", "8080"),
			Environment:  getEnv("ENVIRONMENT", "development"),
			ReadTimeout:  getDurationEnv("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout: getDurationEnv("SERVER_WRITE_TIMEOUT", 10*time.Second),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "empathy"),
			Password: getEnv("DB_PASSWORD", "empathy"),
			DBName:   getEnv("DB_NAME", "empathy_auth"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getIntEnv("REDIS_DB", 0),
		},
		Auth: AuthConfig{
			SessionTTL:           getDurationEnv("AUTH_SESSION_TTL", 24*time.Hour),
			OTPTTL:               getDurationEnv("AUTH_OTP_TTL", 10*time.Minute),
			VerificationTokenTTL: getDurationEnv("AUTH_VERIFICATION_TOKEN_TTL", 24*time.Hour),
			ResetTokenTTL:        getDurationEnv("AUTH_RESET_TOKEN_TTL", 1*time.Hour),
			MinPasswordLength:    getIntEnv("AUTH_MIN_PASSWORD_LENGTH", 8),
		},
		Email: EmailConfig{
			Enabled:         getBoolEnv("EMAIL_ENABLED", false),
			APIKey:          getEnv("EMAIL_API_KEY", ""),
			FromName:        getEnv("EMAIL_FROM_NAME", "Empathy"),
			FromEmail:       getEnv("EMAIL_FROM_EMAIL", "no-reply@empathy.social"),
			VerificationURL: getEnv("EMAIL_VERIFICATION_URL", "http://localhost:3000/verify-email"),
			Timeout:         getDurationEnv("EMAIL_TIMEOUT", 10*time.Second),
		},
		Preferences: PreferencesConfig{
			Enabled: getBoolEnv("PREFERENCES_ENABLED", false),
			BaseURL: getEnv("PREFERENCES_SERVICE_URL", "http://localhost:8081/api/v1/settings/default"),
			Timeout: getDurationEnv("PREFERENCES_TIMEOUT", 10*time.Second),
		},
		RateLimit: RateLimitConfig{
			Enabled: getBoolEnv("RATE_LIMIT_ENABLED", true),
			Limit:   getIntEnv("RATE_LIMIT_REQUESTS", 20),
			Window:  getDurationEnv("RATE_LIMIT_WINDOW", 1*time.Minute),
		},
	}

	return cfg, nil
}

func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

// URL returns the database connection string in URL form (used by the
// migration runner).
func (c *DatabaseConfig) URL() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode,
	)
}

func (c *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
