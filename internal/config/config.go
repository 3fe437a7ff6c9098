package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Server
	Port string
	Env  string

	// Note generation backend
	BackendURL     string
	BackendTimeout time.Duration

	// Redis
	RedisURL string

	// Session cookie
	CookieSecret string

	// Watchers
	WatchWorkers int
	ViewCacheTTL time.Duration

	// Frontend
	FrontendURL string
}

func Load() *Config {
	// Load .env file if it exists
	godotenv.Load()

	cfg := &Config{
		Port:           getEnvOrDefault("PORT", "8080"),
		Env:            getEnvOrDefault("ENV", "development"),
		BackendURL:     mustGetEnv("BACKEND_URL"),
		BackendTimeout: time.Duration(getEnvAsIntOrDefault("BACKEND_TIMEOUT_SECONDS", 30)) * time.Second,
		RedisURL:       mustGetEnv("REDIS_URL"),
		CookieSecret:   mustGetEnv("COOKIE_SECRET"),
		WatchWorkers:   getEnvAsIntOrDefault("WATCH_WORKERS", 4),
		ViewCacheTTL:   time.Duration(getEnvAsIntOrDefault("VIEW_CACHE_TTL_SECONDS", 30)) * time.Second,
		FrontendURL:    getEnvOrDefault("FRONTEND_URL", "http://localhost:5173"),
	}

	return cfg
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// ClientConfig is what the command-line client needs; nothing is required.
type ClientConfig struct {
	BackendURL      string
	Timeout         time.Duration
	CredentialsPath string
}

func LoadClient() *ClientConfig {
	godotenv.Load()

	return &ClientConfig{
		BackendURL:      getEnvOrDefault("BACKEND_URL", "http://localhost:8000/api/v1"),
		Timeout:         time.Duration(getEnvAsIntOrDefault("BACKEND_TIMEOUT_SECONDS", 30)) * time.Second,
		CredentialsPath: getEnvOrDefault("STUDYNOTES_CREDENTIALS", ""),
	}
}

func mustGetEnv(key string) string {
	val := os.Getenv(key)
	if val == "" {
		panic(fmt.Sprintf("required environment variable %s is not set", key))
	}
	return val
}

func getEnvOrDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func getEnvAsIntOrDefault(key string, defaultVal int) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(val)
	if err != nil || n <= 0 {
		return defaultVal
	}
	return n
}
