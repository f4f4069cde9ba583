// Package config loads server configuration from the environment, with an
// optional .env file for local development.
package config

import (
	"log/slog"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds everything the server needs to start.
type Config struct {
	// Port is the HTTP listen port.
	Port int

	// DBPath is the SQLite database file path.
	DBPath string

	// BaseURL is the public origin used to build payment success and
	// cancel URLs (e.g. "https://split.example.com").
	BaseURL string

	// GeminiAPIKey enables model-assisted receipt parsing and
	// suggestions. Empty means demo receipt + heuristic suggestions.
	GeminiAPIKey string

	// GeminiModel and GeminiFallbackModel name the primary and fallback
	// parsing models.
	GeminiModel         string
	GeminiFallbackModel string

	// Payment provider settings. Missing values put checkout in demo mode.
	PaymentAPIKey  string
	PaymentBaseURL string
	PaymentPriceID string

	// StateSecret signs payment callback state tokens.
	StateSecret string
}

// Load reads configuration from the environment. A .env file in the working
// directory is loaded first if present; a missing file is not an error.
func Load() Config {
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file loaded", "error", err)
	}

	return Config{
		Port:                getEnvInt("PORT", 8080),
		DBPath:              getEnv("DB_PATH", "./data/splitsmart.db"),
		BaseURL:             getEnv("BASE_URL", "http://localhost:8080"),
		GeminiAPIKey:        getEnv("GEMINI_API_KEY", ""),
		GeminiModel:         getEnv("GEMINI_MODEL", "gemini-2.5-pro"),
		GeminiFallbackModel: getEnv("GEMINI_FALLBACK_MODEL", "gemini-2.5-flash"),
		PaymentAPIKey:       getEnv("PAYMENT_API_KEY", ""),
		PaymentBaseURL:      getEnv("PAYMENT_BASE_URL", ""),
		PaymentPriceID:      getEnv("PAYMENT_PRICE_ID", ""),
		StateSecret:         getEnv("STATE_SECRET", "dev-only-insecure-secret"),
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		slog.Warn("invalid integer in environment, using fallback", "key", key, "value", value)
		return fallback
	}
	return n
}
