package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DefaultEndpoint = "http://localhost:1000/api"
	DefaultTimeout  = 30 * time.Second

	// DefaultCORSOrigin is the web client's dev server
	DefaultCORSOrigin = "http://localhost:5173"
)

// Config holds all configuration for the CLI and the development backend
type Config struct {
	// API Configuration
	API APIConfig

	// Session Configuration
	Session SessionConfig

	// Dev backend Configuration
	Server ServerConfig

	// Logging Configuration
	Logging LoggingConfig
}

// APIConfig holds remote API configuration
type APIConfig struct {
	Endpoint string        // Base URL including the /api prefix
	Timeout  time.Duration // Per-request transport timeout
}

// SessionConfig holds local session persistence configuration
type SessionConfig struct {
	Dir        string // Directory for identity files
	TokenStore string // keyring, file
}

// ServerConfig holds development backend configuration
type ServerConfig struct {
	Port        string
	DatabaseURL string
	JWTSecret   string
	CORSOrigins []string
}

// LoggingConfig holds logging-related configuration
type LoggingConfig struct {
	Level  string
	Format string // json, console
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env files (fails silently if files don't exist)
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	endpoint := strings.TrimRight(getEnv("TASKBOARD_ENDPOINT", DefaultEndpoint), "/")

	timeout := DefaultTimeout
	if raw := os.Getenv("TASKBOARD_TIMEOUT"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid TASKBOARD_TIMEOUT %q: %w", raw, err)
		}
		timeout = d
	}

	tokenStore := strings.ToLower(getEnv("TASKBOARD_TOKEN_STORE", "keyring"))
	if tokenStore != "keyring" && tokenStore != "file" {
		return nil, fmt.Errorf("invalid TASKBOARD_TOKEN_STORE %q, must be one of: keyring, file", tokenStore)
	}

	sessionDir := os.Getenv("TASKBOARD_CONFIG_DIR")
	if sessionDir == "" {
		dir, err := defaultConfigDir()
		if err != nil {
			return nil, err
		}
		sessionDir = dir
	}

	var origins []string
	for _, origin := range strings.Split(getEnv("CORS_ORIGINS", DefaultCORSOrigin), ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			origins = append(origins, origin)
		}
	}
	if len(origins) == 0 {
		origins = []string{DefaultCORSOrigin}
	}

	return &Config{
		API: APIConfig{
			Endpoint: endpoint,
			Timeout:  timeout,
		},
		Session: SessionConfig{
			Dir:        sessionDir,
			TokenStore: tokenStore,
		},
		Server: ServerConfig{
			Port:        getEnv("PORT", "1000"),
			DatabaseURL: getEnv("DATABASE_URL", "taskboard.sqlite"),
			JWTSecret:   os.Getenv("JWT_SECRET"),
			CORSOrigins: origins,
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "warn"),
			Format: getEnv("LOG_FORMAT", "console"),
		},
	}, nil
}

// defaultConfigDir returns $XDG_CONFIG_HOME/taskboard or ~/.config/taskboard
func defaultConfigDir() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "taskboard"), nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}

	return filepath.Join(homeDir, ".config", "taskboard"), nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
