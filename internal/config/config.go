package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	Port string

	// Database configuration
	DBType               string // mysql, postgres, sqlite, sqlserver, memory
	DBHost               string
	DBPort               string
	DBAppDatabase        string
	DBAppUser            string
	DBAppPassword        string
	DBAppConnectionLimit int
	DBUser               string
	DBPassword           string
	DBConnectionLimit    int
	DBLogLevel           string // silent, error, warn, info

	// Authorizer configuration
	AuthzURL      string
	AuthzClientID string

	// Logging
	LogLevel  string // debug, info, warn, error
	LogFormat string // text, json

	// Relations
	ChannelAddPolicy string // member, owner
	NameMinLength    int
	NameMaxLength    int
	MessageMaxLength int
}

// LoadEnvFile loads a .env file into the environment. Variables already set win.
func LoadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Port:                 getEnv("PORT", "3000"),
		DBType:               strings.ToLower(getEnv("DB_TYPE", "mysql")),
		DBHost:               getEnv("DB_HOST", "localhost"),
		DBPort:               getEnv("DB_PORT", "3306"),
		DBAppDatabase:        getEnv("DB_APP_DATABASE", ""),
		DBAppUser:            getEnv("DB_APP_USER", ""),
		DBAppPassword:        getEnv("DB_APP_PASSWORD", ""),
		DBAppConnectionLimit: getEnvAsInt("DB_APP_CONNECTION_LIMIT", 5),
		DBUser:               getEnv("DB_USER", ""),
		DBPassword:           getEnv("DB_PASSWORD", ""),
		DBConnectionLimit:    getEnvAsInt("DB_CONNECTION_LIMIT", 5),
		DBLogLevel:           strings.ToLower(getEnv("DB_LOG_LEVEL", "warn")),
		AuthzURL:             getEnv("AUTHZ_URL", ""),
		AuthzClientID:        getEnv("AUTHZ_CLIENT_ID", ""),
		LogLevel:             strings.ToLower(getEnv("LOG_LEVEL", "info")),
		LogFormat:            strings.ToLower(getEnv("LOG_FORMAT", "text")),
		ChannelAddPolicy:     strings.ToLower(getEnv("CHANNEL_ADD_POLICY", "member")),
		NameMinLength:        getEnvAsInt("NAME_MIN_LENGTH", 1),
		NameMaxLength:        getEnvAsInt("NAME_MAX_LENGTH", 32),
		MessageMaxLength:     getEnvAsInt("MESSAGE_MAX_LENGTH", 2000),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks required fields and enumerated values
func (cfg *Config) Validate() error {
	if cfg.DBAppDatabase == "" && cfg.DBType != "memory" {
		return fmt.Errorf("DB_APP_DATABASE is required")
	}
	if cfg.DBAppUser == "" && !cfg.IsEmbedded() {
		return fmt.Errorf("DB_APP_USER is required")
	}
	if cfg.AuthzURL == "" {
		return fmt.Errorf("AUTHZ_URL is required")
	}
	if cfg.AuthzClientID == "" {
		return fmt.Errorf("AUTHZ_CLIENT_ID is required")
	}
	switch cfg.ChannelAddPolicy {
	case "member", "owner":
	default:
		return fmt.Errorf("CHANNEL_ADD_POLICY must be member or owner, got %q", cfg.ChannelAddPolicy)
	}
	if cfg.NameMinLength > cfg.NameMaxLength {
		return fmt.Errorf("NAME_MIN_LENGTH %d exceeds NAME_MAX_LENGTH %d", cfg.NameMinLength, cfg.NameMaxLength)
	}
	return nil
}

// IsEmbedded reports whether the database runs in process (no credentials).
func (cfg *Config) IsEmbedded() bool {
	return cfg.DBType == "sqlite" || cfg.DBType == "memory"
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt gets an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
