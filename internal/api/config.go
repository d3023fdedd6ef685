package api

import (
	"os"
	"strconv"
	"time"
)

// Config holds the server configuration, loaded from environment variables.
type Config struct {
	ListenAddr      string
	ServerDBPath    string
	ShutdownTimeout time.Duration
	AllowSignup     bool
	LogFormat       string // "json" (default) or "text"
	LogLevel        string // "debug", "info" (default), "warn", "error"

	RateLimitAuth   int // /v1/auth/* per IP per minute (default: 10)
	RateLimitMutate int // POST/PATCH/DELETE per user per minute (default: 60)
	RateLimitRead   int // GET per user per minute (default: 300)
}

// LoadConfig reads configuration from environment variables with sensible defaults.
func LoadConfig() Config {
	cfg := Config{
		ListenAddr:      ":8080",
		ServerDBPath:    "./data/feedr.db",
		ShutdownTimeout: 30 * time.Second,
		AllowSignup:     true,
		LogFormat:       "json",
		LogLevel:        "info",

		RateLimitAuth:   10,
		RateLimitMutate: 60,
		RateLimitRead:   300,
	}

	if v := os.Getenv("FEEDR_LISTEN_ADDR"); v != "" {
		cfg.ListenAddr = v
	}
	if v := os.Getenv("FEEDR_SERVER_DB_PATH"); v != "" {
		cfg.ServerDBPath = v
	}
	if v := os.Getenv("FEEDR_SHUTDOWN_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.ShutdownTimeout = d
		}
	}
	if v := os.Getenv("FEEDR_ALLOW_SIGNUP"); v == "false" || v == "0" {
		cfg.AllowSignup = false
	}
	if v := os.Getenv("FEEDR_LOG_FORMAT"); v != "" {
		cfg.LogFormat = v
	}
	if v := os.Getenv("FEEDR_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}

	if v := os.Getenv("FEEDR_RATE_LIMIT_AUTH"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.RateLimitAuth = n
		}
	}
	if v := os.Getenv("FEEDR_RATE_LIMIT_MUTATE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.RateLimitMutate = n
		}
	}
	if v := os.Getenv("FEEDR_RATE_LIMIT_READ"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.RateLimitRead = n
		}
	}

	return cfg
}
