package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Env  string
	Port string

	RedisURL      string
	RedisPassword string
	RedisRetries  int
	SessionTTL    time.Duration

	// DatabaseURL enables shared snapshots; empty disables sharing.
	DatabaseURL string

	TemplatesDir      string
	ChromePath        string
	PDFRenderAttempts int

	CORSOrigins string
}

func LoadConfig() (*Config, error) {
	// .env is optional; real environment variables win
	_ = godotenv.Load()

	cfg := &Config{
		Env:               strings.ToLower(getEnv("APP_ENV", "development")),
		Port:              getEnv("PORT", "3000"),
		RedisURL:          getEnv("REDIS_URL", "redis://localhost:6379"),
		RedisPassword:     getEnv("REDIS_PASSWORD", ""),
		RedisRetries:      getEnvInt("REDIS_CONNECT_RETRIES", 10),
		SessionTTL:        time.Duration(getEnvInt("SESSION_TTL_HOURS", 24)) * time.Hour,
		DatabaseURL:       getEnv("DATABASE_URL", ""),
		TemplatesDir:      getEnv("TEMPLATES_DIR", "templates"),
		ChromePath:        getEnv("CHROME_PATH", ""),
		PDFRenderAttempts: getEnvInt("PDF_RENDER_ATTEMPTS", 3),
		CORSOrigins:       getEnv("CORS_ORIGINS", "http://localhost:3000"),
	}

	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = 24 * time.Hour
	}
	if cfg.RedisRetries <= 0 {
		cfg.RedisRetries = 1
	}
	if cfg.PDFRenderAttempts <= 0 {
		cfg.PDFRenderAttempts = 1
	}
	return cfg, nil
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

// getEnvInt returns an integer environment variable or fallback if not set/invalid
func getEnvInt(key string, fallback int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return fallback
}
