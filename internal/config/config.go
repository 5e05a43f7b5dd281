// Package config loads the binfleet configuration file.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level binfleet configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Auth     AuthConfig     `yaml:"auth"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// ServerConfig controls the HTTP server.
type ServerConfig struct {
	Host            string   `yaml:"host"`
	Port            int      `yaml:"port"`
	CORSOrigins     []string `yaml:"cors_origins"`
	ShutdownTimeout string   `yaml:"shutdown_timeout"`
}

// DatabaseConfig selects the backing database.
type DatabaseConfig struct {
	Driver string     `yaml:"driver"` // sqlite | mysql | postgres
	DSN    string     `yaml:"dsn"`
	Pool   PoolConfig `yaml:"pool"`
}

// PoolConfig controls the connection pool for server-backed databases.
type PoolConfig struct {
	MaxOpenConns    int    `yaml:"max_open_conns"`
	MaxIdleConns    int    `yaml:"max_idle_conns"`
	ConnMaxLifetime string `yaml:"conn_max_lifetime"`
	ConnMaxIdleTime string `yaml:"conn_max_idle_time"`
}

// AuthConfig controls sessions and password hashing.
type AuthConfig struct {
	// TokenValidityDays is the sliding lifetime of persistent sessions.
	TokenValidityDays int `yaml:"token_validity_days"`
	// EphemeralValidity is the fixed lifetime of browser-session logins.
	EphemeralValidity string `yaml:"ephemeral_validity"`
	// PersistentLogin enables the remember-me cookie per role.
	PersistentLogin PersistentLoginConfig `yaml:"persistent_login"`
	// BcryptCost tunes hashing; 0 means the bcrypt default.
	BcryptCost int `yaml:"bcrypt_cost"`
	// LoginRateLimit is login attempts allowed per IP per minute.
	LoginRateLimit int `yaml:"login_rate_limit"`
	// InsecureCookies disables the cookie Secure attribute for local
	// development over plain HTTP.
	InsecureCookies bool `yaml:"insecure_cookies"`
}

// PersistentLoginConfig is the per-role remember-me switch. The original
// deployment only remembered janitors; admins re-authenticate each browser
// session unless enabled here.
type PersistentLoginConfig struct {
	Admin   bool `yaml:"admin"`
	Janitor bool `yaml:"janitor"`
}

// LoggingConfig controls log output.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // text | json
}

// Default returns the configuration defaults.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			CORSOrigins:     []string{"*"},
			ShutdownTimeout: "30s",
		},
		Database: DatabaseConfig{
			Driver: "sqlite",
			Pool: PoolConfig{
				MaxOpenConns:    25,
				MaxIdleConns:    5,
				ConnMaxLifetime: "5m",
				ConnMaxIdleTime: "1m",
			},
		},
		Auth: AuthConfig{
			TokenValidityDays: 30,
			EphemeralValidity: "12h",
			PersistentLogin:   PersistentLoginConfig{Admin: false, Janitor: true},
			LoginRateLimit:    10,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads and parses a YAML configuration file over the defaults.
// Environment variables referenced as ${VAR_NAME} are expanded first.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	content := os.ExpandEnv(string(data))

	cfg := Default()
	if err := yaml.Unmarshal([]byte(content), cfg); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}
	return cfg, nil
}

// TokenValidity returns the persistent session lifetime as a duration.
func (c *AuthConfig) TokenValidity() time.Duration {
	days := c.TokenValidityDays
	if days <= 0 {
		days = 30
	}
	return time.Duration(days) * 24 * time.Hour
}

// ParseDuration parses a duration string, falling back on a default when
// the string is empty or malformed.
func ParseDuration(s string, fallback time.Duration) time.Duration {
	if s == "" {
		return fallback
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return fallback
	}
	return d
}
