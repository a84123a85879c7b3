package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// This function will Load the ENVIRONMENT VARIABLES from .env if GO_ENV variable is not set
func LoadENV() error {
	goEnv := os.Getenv("GO_ENV")

	if goEnv == "" || goEnv == "development" {
		err := godotenv.Load()
		if err != nil && !os.IsNotExist(err) {
			return err
		}
	}

	return nil
}

type EnvironmentVariable struct {
	GO_ENV   string
	LOG_MODE string `validate:"omitempty,oneof=development production"`
	PORT     int    `validate:"min=1,max=65535"`

	// Document store (postgres JSONB)
	DB_USER_NAME string
	DB_PASSWORD  string
	DB_NAME      string
	DB_HOST      string
	DB_PORT      string
	DB_SSL_MODE  string

	// Identity
	JWT_SECRET string
	JWT_ISSUER string

	// Redis read-through cache
	REDIS_URL string
	CACHE_TTL time.Duration `validate:"min=0"`

	// Object storage for material files
	DO_SPACES_KEY      string
	DO_SPACES_SECRET   string
	DO_SPACES_BUCKET   string
	DO_SPACES_REGION   string
	DO_SPACES_ENDPOINT string
	DO_SPACES_CDN_URL  string
	DOWNLOAD_URL_TTL   time.Duration `validate:"min=0"`

	// Engine
	DEMO_MODE    bool
	FANOUT_LIMIT int    `validate:"min=1,max=64"`
	TIMEZONE     string `validate:"required,timezone"`

	CRON_ENABLED    bool
	ALLOWED_ORIGINS string
}

// Location returns the configured time zone used for "today" when the caller
// supplies no explicit date.
func (e *EnvironmentVariable) Location() *time.Location {
	loc, err := time.LoadLocation(e.TIMEZONE)
	if err != nil {
		return time.UTC
	}
	return loc
}

// SpacesEnabled reports whether object storage credentials are present.
func (e *EnvironmentVariable) SpacesEnabled() bool {
	return e.DO_SPACES_KEY != "" && e.DO_SPACES_SECRET != "" && e.DO_SPACES_BUCKET != ""
}

func Get() (*EnvironmentVariable, error) {
	envVariables := &EnvironmentVariable{
		GO_ENV:   os.Getenv("GO_ENV"),
		LOG_MODE: getString("LOG_MODE", "development"),
		PORT:     getInt("PORT", 8080),
		// Database
		DB_USER_NAME: os.Getenv("DB_USER_NAME"),
		DB_PASSWORD:  os.Getenv("DB_PASSWORD"),
		DB_NAME:      os.Getenv("DB_NAME"),
		DB_HOST:      getString("DB_HOST", "localhost"),
		DB_PORT:      getString("DB_PORT", "5432"),
		DB_SSL_MODE:  getString("DB_SSL_MODE", "disable"),
		// JWT
		JWT_SECRET: os.Getenv("JWT_SECRET"),
		JWT_ISSUER: getString("JWT_ISSUER", "campus-timeline-api"),
		// Redis
		REDIS_URL: os.Getenv("REDIS_URL"),
		CACHE_TTL: getDuration("CACHE_TTL", 5*time.Minute),
		// Spaces
		DO_SPACES_KEY:      os.Getenv("DO_SPACES_KEY"),
		DO_SPACES_SECRET:   os.Getenv("DO_SPACES_SECRET"),
		DO_SPACES_BUCKET:   os.Getenv("DO_SPACES_BUCKET"),
		DO_SPACES_REGION:   getString("DO_SPACES_REGION", "nyc3"),
		DO_SPACES_ENDPOINT: getString("DO_SPACES_ENDPOINT", "nyc3.digitaloceanspaces.com"),
		DO_SPACES_CDN_URL:  os.Getenv("DO_SPACES_CDN_URL"),
		DOWNLOAD_URL_TTL:   getDuration("DOWNLOAD_URL_TTL", 15*time.Minute),
		// Engine
		DEMO_MODE:    getBool("DEMO_MODE", false),
		FANOUT_LIMIT: getInt("FANOUT_LIMIT", 8),
		TIMEZONE:     getString("TIMEZONE", "UTC"),

		CRON_ENABLED:    getBool("CRON_ENABLED", true),
		ALLOWED_ORIGINS: getString("ALLOWED_ORIGINS", "http://localhost:3000,http://localhost:3001"),
	}

	if err := validator.New().Struct(envVariables); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return envVariables, nil
}

func getString(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	v, err := strconv.Atoi(strings.TrimSpace(os.Getenv(key)))
	if err != nil {
		return fallback
	}
	return v
}

func getBool(key string, fallback bool) bool {
	v, err := strconv.ParseBool(strings.TrimSpace(os.Getenv(key)))
	if err != nil {
		return fallback
	}
	return v
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v, err := time.ParseDuration(strings.TrimSpace(os.Getenv(key)))
	if err != nil {
		return fallback
	}
	return v
}
