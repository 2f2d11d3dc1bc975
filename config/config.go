// config/config.go
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all runtime configuration for the server.
type Config struct {
	Server   ServerConfig
	Xero     XeroConfig
	Redis    RedisConfig
	Database DatabaseConfig
	Session  SessionConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port    string
	Timeout time.Duration
}

// XeroConfig holds Xero OAuth2 and API endpoint settings.
type XeroConfig struct {
	ClientID       string
	ClientSecret   string
	RedirectURI    string
	Scopes         []string
	AuthorizeURL   string
	TokenURL       string
	ConnectionsURL string
	RevocationURL  string
	APIBaseURL     string
}

// RedisConfig holds Redis connection settings.
type RedisConfig struct {
	Addresses []string
	Password  string
	DB        int
	KeyPrefix string
}

// DatabaseConfig holds Postgres connection settings.
type DatabaseConfig struct {
	URL string
}

// SessionConfig holds cookie session settings.
type SessionConfig struct {
	Secret string
}

// Load reads configuration from environment variables with sane defaults.
func Load() (Config, error) {
	cfg := Config{
		Server: ServerConfig{
			Port:    getEnv("HTTP_PORT", "8080"),
			Timeout: getDuration("HTTP_TIMEOUT", 15*time.Second),
		},
		Xero: XeroConfig{
			ClientID:       os.Getenv("XERO_CLIENT_ID"),
			ClientSecret:   os.Getenv("XERO_CLIENT_SECRET"),
			RedirectURI:    os.Getenv("XERO_REDIRECT_URI"),
			Scopes:         getList("XERO_SCOPES", []string{"openid", "profile", "email", "accounting.reports.read", "accounting.settings", "offline_access"}),
			AuthorizeURL:   getEnv("XERO_AUTHORIZE_URL", "https://login.xero.com/identity/connect/authorize"),
			TokenURL:       getEnv("XERO_TOKEN_URL", "https://identity.xero.com/connect/token"),
			ConnectionsURL: getEnv("XERO_CONNECTIONS_URL", "https://api.xero.com/connections"),
			RevocationURL:  getEnv("XERO_REVOCATION_URL", "https://identity.xero.com/connect/revocation"),
			APIBaseURL:     getEnv("XERO_API_BASE_URL", "https://api.xero.com/api.xro/2.0"),
		},
		Redis: RedisConfig{
			Addresses: getList("REDIS_ADDRESSES", []string{"localhost:6379"}),
			Password:  os.Getenv("REDIS_PASSWORD"),
			DB:        getInt("REDIS_DB", 0),
			KeyPrefix: getEnv("REDIS_KEY_PREFIX", "xeroreports"),
		},
		Database: DatabaseConfig{
			URL: os.Getenv("DATABASE_URL"),
		},
		Session: SessionConfig{
			Secret: os.Getenv("SESSION_SECRET"),
		},
	}

	if cfg.Xero.ClientID == "" || cfg.Xero.ClientSecret == "" {
		return Config{}, fmt.Errorf("XERO_CLIENT_ID and XERO_CLIENT_SECRET are required")
	}
	if cfg.Xero.RedirectURI == "" {
		return Config{}, fmt.Errorf("XERO_REDIRECT_URI is required")
	}
	if cfg.Database.URL == "" {
		return Config{}, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.Session.Secret == "" {
		return Config{}, fmt.Errorf("SESSION_SECRET is required")
	}

	return cfg, nil
}

func getEnv(key, def string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return def
}

func getInt(key string, def int) int {
	if v, ok := os.LookupEnv(key); ok {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getDuration(key string, def time.Duration) time.Duration {
	if v, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func getList(key string, def []string) []string {
	if v, ok := os.LookupEnv(key); ok {
		var cleaned []string
		for _, p := range strings.Split(v, ",") {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				cleaned = append(cleaned, trimmed)
			}
		}
		if len(cleaned) > 0 {
			return cleaned
		}
	}
	return def
}
