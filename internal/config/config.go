package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"adboard/internal/utils"

	"gopkg.in/yaml.v3"
)

// Config is the application configuration. Values come from defaults, then an
// optional YAML file, then environment variables.
type Config struct {
	Server struct {
		Port       string `yaml:"port"`
		Mode       string `yaml:"mode"` // gin mode: debug, release or test
		UploadsDir string `yaml:"uploads_dir"`
	} `yaml:"server"`

	Database struct {
		Host     string `yaml:"host"`
		Port     string `yaml:"port"`
		User     string `yaml:"user"`
		Password string `yaml:"password"`
		Name     string `yaml:"name"`
		SSLMode  string `yaml:"sslmode"`
		MaxConns int    `yaml:"max_conns"`
	} `yaml:"database"`

	Session struct {
		Secret       string `yaml:"secret"`
		Expiration   string `yaml:"expiration"`
		CookieName   string `yaml:"cookie_name"`
		SecureCookie bool   `yaml:"secure_cookie"`
	} `yaml:"session"`

	Geocoding struct {
		BaseURL   string `yaml:"base_url"`
		UserAgent string `yaml:"user_agent"`
		Timeout   string `yaml:"timeout"`
	} `yaml:"geocoding"`

	// Admin is seeded at startup when both fields are set
	Admin struct {
		Identity string `yaml:"identity"`
		Password string `yaml:"password"`
	} `yaml:"admin"`

	Logging struct {
		Level  string `yaml:"level"`
		Pretty bool   `yaml:"pretty"`
	} `yaml:"logging"`
}

// LoadConfig loads configuration from configPath (if it exists) and the environment
func LoadConfig(configPath string) (*Config, error) {
	cfg := &Config{}
	setDefaults(cfg)

	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			raw, err := os.ReadFile(configPath)
			if err != nil {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
			if err := yaml.Unmarshal(raw, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config: %w", err)
			}
		}
	}

	loadFromEnv(cfg)

	if err := validateConfig(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func setDefaults(cfg *Config) {
	cfg.Server.Port = "8080"
	cfg.Server.Mode = "debug"
	cfg.Server.UploadsDir = "uploads"

	cfg.Database.Host = "localhost"
	cfg.Database.Port = "5432"
	cfg.Database.User = "postgres"
	cfg.Database.Name = "adboard"
	cfg.Database.SSLMode = "disable"
	cfg.Database.MaxConns = 10

	cfg.Session.Expiration = "24h"
	cfg.Session.CookieName = "session"

	cfg.Geocoding.BaseURL = "https://nominatim.openstreetmap.org"
	cfg.Geocoding.UserAgent = "adboard"
	cfg.Geocoding.Timeout = "5s"

	cfg.Logging.Level = "info"
	cfg.Logging.Pretty = true
}

func loadFromEnv(cfg *Config) {
	cfg.Server.Port = GetEnv("SERVER_PORT", cfg.Server.Port)
	cfg.Server.Mode = GetEnv("SERVER_MODE", cfg.Server.Mode)
	cfg.Server.UploadsDir = GetEnv("UPLOADS_DIR", cfg.Server.UploadsDir)

	cfg.Database.Host = GetEnv("DB_HOST", cfg.Database.Host)
	cfg.Database.Port = GetEnv("DB_PORT", cfg.Database.Port)
	cfg.Database.User = GetEnv("DB_USER", cfg.Database.User)
	cfg.Database.Password = GetEnv("DB_PASSWORD", cfg.Database.Password)
	cfg.Database.Name = GetEnv("DB_NAME", cfg.Database.Name)
	cfg.Database.SSLMode = GetEnv("DB_SSLMODE", cfg.Database.SSLMode)
	cfg.Database.MaxConns = GetEnvAsInt("DB_MAX_CONNS", cfg.Database.MaxConns)

	cfg.Session.Secret = GetEnv("SESSION_SECRET", cfg.Session.Secret)
	cfg.Session.Expiration = GetEnv("SESSION_EXPIRATION", cfg.Session.Expiration)
	cfg.Session.CookieName = GetEnv("SESSION_COOKIE_NAME", cfg.Session.CookieName)
	cfg.Session.SecureCookie = GetEnvAsBool("SESSION_SECURE_COOKIE", cfg.Session.SecureCookie)

	cfg.Geocoding.BaseURL = GetEnv("GEOCODING_BASE_URL", cfg.Geocoding.BaseURL)
	cfg.Geocoding.UserAgent = GetEnv("GEOCODING_USER_AGENT", cfg.Geocoding.UserAgent)
	cfg.Geocoding.Timeout = GetEnv("GEOCODING_TIMEOUT", cfg.Geocoding.Timeout)

	cfg.Admin.Identity = GetEnv("ADMIN_IDENTITY", cfg.Admin.Identity)
	cfg.Admin.Password = GetEnv("ADMIN_PASSWORD", cfg.Admin.Password)

	cfg.Logging.Level = GetEnv("LOG_LEVEL", cfg.Logging.Level)
	cfg.Logging.Pretty = GetEnvAsBool("LOG_PRETTY", cfg.Logging.Pretty)
}

func validateConfig(cfg *Config) error {
	if cfg.Session.Secret == "" {
		return fmt.Errorf("session secret is required (SESSION_SECRET)")
	}
	switch cfg.Server.Mode {
	case "debug", "release", "test":
	default:
		return fmt.Errorf("invalid server mode %q", cfg.Server.Mode)
	}
	if cfg.Database.Host == "" || cfg.Database.Name == "" {
		return fmt.Errorf("database host and name are required")
	}
	if _, err := time.ParseDuration(cfg.Session.Expiration); err != nil {
		return fmt.Errorf("invalid session expiration: %w", err)
	}
	if _, err := time.ParseDuration(cfg.Geocoding.Timeout); err != nil {
		return fmt.Errorf("invalid geocoding timeout: %w", err)
	}
	if (cfg.Admin.Identity == "") != (cfg.Admin.Password == "") {
		return fmt.Errorf("admin identity and password must be set together")
	}
	if len(cfg.Admin.Password) > utils.MaxPasswordBytes {
		return fmt.Errorf("admin password must be at most %d bytes", utils.MaxPasswordBytes)
	}
	return nil
}

// SessionExpiration returns the parsed session lifetime
func (c *Config) SessionExpiration() time.Duration {
	d, _ := time.ParseDuration(c.Session.Expiration)
	return d
}

// GeocodingTimeout returns the parsed geocoding timeout
func (c *Config) GeocodingTimeout() time.Duration {
	d, _ := time.ParseDuration(c.Geocoding.Timeout)
	return d
}

// DSN returns the postgres connection string
func (c *Config) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host, c.Database.Port, c.Database.User, c.Database.Password, c.Database.Name, c.Database.SSLMode)
}

// GetEnv gets an environment variable or returns a default value
func GetEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// GetEnvAsInt gets an environment variable as an integer or returns a default value
func GetEnvAsInt(key string, defaultValue int) int {
	if value, err := strconv.Atoi(GetEnv(key, "")); err == nil {
		return value
	}
	return defaultValue
}

// GetEnvAsBool gets an environment variable as a boolean or returns a default value
func GetEnvAsBool(key string, defaultValue bool) bool {
	switch strings.ToLower(GetEnv(key, "")) {
	case "true", "1", "yes":
		return true
	case "false", "0", "no":
		return false
	default:
		return defaultValue
	}
}
