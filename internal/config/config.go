package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

const (
	defaultPort        = "8080"
	defaultUpstreamURL = "wss://api.openai.com/v1/realtime"
	defaultModel       = "gpt-4o-mini-realtime-preview-2024-12-17"
)

// Config holds every process-level setting. Loaded once at startup and
// passed down explicitly.
type Config struct {
	Port           string
	BackendBaseURL string
	UpstreamURL    string
	UpstreamModel  string
	UpstreamAPIKey string
	JWTSecret      string
}

// Load reads configuration from the environment, after loading a local
// .env file if one exists.
func Load() (*Config, error) {
	// Missing .env is fine, real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := &Config{
		Port:           getEnv("PORT", defaultPort),
		BackendBaseURL: os.Getenv("BACKEND_API_BASE_URL"),
		UpstreamURL:    getEnv("OPENAI_REALTIME_URL", defaultUpstreamURL),
		UpstreamModel:  getEnv("OPENAI_REALTIME_MODEL", defaultModel),
		UpstreamAPIKey: os.Getenv("OPENAI_API_KEY"),
		JWTSecret:      os.Getenv("JWT_SECRET"),
	}

	if cfg.BackendBaseURL == "" {
		return nil, fmt.Errorf("BACKEND_API_BASE_URL is required")
	}
	if cfg.UpstreamAPIKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY is required")
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
