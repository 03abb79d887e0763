package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"commandx/internal/logger"
)

type Config struct {
	// Database
	DatabaseURL       string
	DBMaxConns        int32
	DBMaxConnLifetime time.Duration
	MigrateOnStartup  bool

	// Tenancy
	DefaultCompanyCode string
	PhoneRegion        string

	// Redis (optional; empty address disables cache and numbering locks)
	RedisAddr            string
	RedisPassword        string
	RedisDB              int
	RedisConnectAttempts int

	// HTTP server
	ServerPort     string
	AllowedOrigins []string
	JWTSecret      string
	TokenTTL       time.Duration
	AppScheme      string

	// OpenAI (optional; translate endpoint is disabled without a key)
	OpenAIAPIKey string
	OpenAIModel  string

	// Logging
	LogLevel      string
	LogFormat     string
	LogTimeFormat string
	LogOutput     string
}

// Load reads configuration from the environment, after loading .env when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	config := &Config{
		DatabaseURL:          getEnv("DATABASE_URL", ""),
		DBMaxConns:           int32(getEnvInt("DB_MAX_CONNS", 10)),
		DBMaxConnLifetime:    getEnvDuration("DB_MAX_CONN_LIFETIME", time.Hour),
		MigrateOnStartup:     getEnvBool("MIGRATE_ON_STARTUP", true),
		DefaultCompanyCode:   getEnv("COMPANY_CODE", ""),
		PhoneRegion:          strings.ToUpper(getEnv("PHONE_REGION", "US")),
		RedisAddr:            getEnv("REDIS_ADDRESS", ""),
		RedisPassword:        getEnv("REDIS_PASSWORD", ""),
		RedisDB:              getEnvInt("REDIS_DB", 0),
		RedisConnectAttempts: getEnvInt("REDIS_CONNECT_ATTEMPTS", 3),
		ServerPort:           getEnv("SERVER_PORT", "8080"),
		AllowedOrigins:       splitList(getEnv("ALLOWED_ORIGINS", "")),
		JWTSecret:            getEnv("JWT_SECRET", ""),
		TokenTTL:             getEnvDuration("TOKEN_TTL", 24*time.Hour),
		AppScheme:            getEnv("APP_SCHEME", "commandx"),
		OpenAIAPIKey:         getEnv("OPENAI_API_KEY", ""),
		OpenAIModel:          getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		LogLevel:             getEnv("LOG_LEVEL", "info"),
		LogFormat:            getEnv("LOG_FORMAT", "console"),
		LogTimeFormat:        getEnv("LOG_TIME_FORMAT", time.RFC3339),
		LogOutput:            getEnv("LOG_OUTPUT", "stdout"),
	}

	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return config, nil
}

func (c *Config) validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.DBMaxConns < 1 {
		return fmt.Errorf("DB_MAX_CONNS must be positive")
	}
	if c.TokenTTL <= 0 {
		return fmt.Errorf("TOKEN_TTL must be positive")
	}
	return nil
}

// RequireServer checks the settings only the HTTP server needs.
func (c *Config) RequireServer() error {
	if len(c.JWTSecret) < 32 {
		return fmt.Errorf("JWT_SECRET must be at least 32 characters")
	}
	return nil
}

// GetLoggerConfig returns a logger configuration from the main config
func (c *Config) GetLoggerConfig() logger.LogConfig {
	return logger.LogConfig{
		Level:      c.LogLevel,
		Format:     c.LogFormat,
		TimeFormat: c.LogTimeFormat,
		Output:     c.LogOutput,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if n, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return n
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if b, err := strconv.ParseBool(os.Getenv(key)); err == nil {
		return b
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if d, err := time.ParseDuration(os.Getenv(key)); err == nil {
		return d
	}
	return defaultValue
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
