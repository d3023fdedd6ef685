package clientconfig

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Config is the global feedr config stored at ~/.config/feedr/config.json.
type Config struct {
	ServerURL string `json:"server_url,omitempty"`
	FeedCap   int    `json:"feed_cap,omitempty"` // recent-history cap, default 10
}

// AuthCredentials stores the persisted session at ~/.config/feedr/auth.json.
// The token format is owned by the server; the client treats it as opaque.
type AuthCredentials struct {
	Token     string `json:"token"`
	UserID    string `json:"user_id"`
	Email     string `json:"email"`
	ServerURL string `json:"server_url"`
}

const (
	defaultServerURL = "http://localhost:8080"
	defaultFeedCap   = 10
)

// ConfigDir returns ~/.config/feedr, creating it if necessary.
func ConfigDir() (string, error) {
	if v := os.Getenv("FEEDR_CONFIG_DIR"); v != "" {
		if err := os.MkdirAll(v, 0755); err != nil {
			return "", fmt.Errorf("create config dir: %w", err)
		}
		return v, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home dir: %w", err)
	}
	dir := filepath.Join(home, ".config", "feedr")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create config dir: %w", err)
	}
	return dir, nil
}

// LoadConfig reads the global config from ~/.config/feedr/config.json.
func LoadConfig() (*Config, error) {
	dir, err := ConfigDir()
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filepath.Join(dir, "config.json"))
	if err != nil {
		if os.IsNotExist(err) {
			return &Config{}, nil
		}
		return nil, err
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// SaveConfig writes the global config to ~/.config/feedr/config.json.
func SaveConfig(cfg *Config) error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, "config.json"), data, 0644)
}

// LoadAuth reads persisted credentials from ~/.config/feedr/auth.json.
// Returns nil with no error when no session is persisted.
func LoadAuth() (*AuthCredentials, error) {
	dir, err := ConfigDir()
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filepath.Join(dir, "auth.json"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var creds AuthCredentials
	if err := json.Unmarshal(data, &creds); err != nil {
		return nil, err
	}
	return &creds, nil
}

// SaveAuth writes credentials to ~/.config/feedr/auth.json (0600 perms).
func SaveAuth(creds *AuthCredentials) error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(creds, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, "auth.json"), data, 0600)
}

// ClearAuth removes the auth.json file.
func ClearAuth() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	err = os.Remove(filepath.Join(dir, "auth.json"))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// GetServerURL returns the backend URL.
// Priority: FEEDR_SERVER_URL env > config.json > default.
func GetServerURL() string {
	if v := os.Getenv("FEEDR_SERVER_URL"); v != "" {
		return v
	}
	cfg, err := LoadConfig()
	if err == nil && cfg.ServerURL != "" {
		return cfg.ServerURL
	}
	return defaultServerURL
}

// GetFeedCap returns the recent-history cap.
// Priority: config.json > default (10).
func GetFeedCap() int {
	cfg, err := LoadConfig()
	if err == nil && cfg.FeedCap > 0 {
		return cfg.FeedCap
	}
	return defaultFeedCap
}

// GetToken returns the persisted session token, or "" when logged out.
// Priority: FEEDR_TOKEN env > auth.json.
func GetToken() string {
	if v := os.Getenv("FEEDR_TOKEN"); v != "" {
		return v
	}
	creds, err := LoadAuth()
	if err == nil && creds != nil {
		return creds.Token
	}
	return ""
}

// IsAuthenticated returns true if a session token is available.
func IsAuthenticated() bool {
	return GetToken() != ""
}

// FileStore adapts the auth.json persistence to the gateway's TokenStore.
type FileStore struct{}

// Load returns the persisted credentials, or nil when none exist.
func (FileStore) Load() (*AuthCredentials, error) { return LoadAuth() }

// Save persists credentials.
func (FileStore) Save(creds *AuthCredentials) error { return SaveAuth(creds) }

// Clear removes persisted credentials.
func (FileStore) Clear() error { return ClearAuth() }
