package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server      ServerConfig    `yaml:"server"`
	Database    DatabaseConfig  `yaml:"database"`
	Session     SessionConfig   `yaml:"session"`
	OAuth       OAuthConfig     `yaml:"oauth"`
	RateLimit   RateLimitConfig `yaml:"rate_limit"`
	Logging     LoggingConfig   `yaml:"logging"`
	Environment string          `yaml:"environment" validate:"oneof=development test production"`
}

type ServerConfig struct {
	Host    string `yaml:"host"`
	Port    int    `yaml:"port" validate:"min=1,max=65535"`
	BaseURL string `yaml:"base_url" validate:"required,url"`
}

type DatabaseConfig struct {
	URL            string `yaml:"url" validate:"required"`
	MaxConnections int    `yaml:"max_connections" validate:"min=1"`
}

type SessionConfig struct {
	Secret string        `yaml:"secret"`
	Expiry time.Duration `yaml:"expiry"`
}

// OAuthConfig configures the optional GitHub login. Login routes are only
// mounted when ClientID is set.
type OAuthConfig struct {
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
	CallbackURL  string `yaml:"callback_url"`
}

func (c OAuthConfig) Enabled() bool {
	return c.ClientID != ""
}

type RateLimitConfig struct {
	PublicPerMinute int `yaml:"public_per_minute"`
	LoginPerMinute  int `yaml:"login_per_minute"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format" validate:"omitempty,oneof=json console"`
}

var validate = validator.New()

// Load builds the configuration from environment variables, overlays the
// optional YAML file at configPath, and validates the result.
func Load(configPath string) (Config, error) {
	cfg := Config{
		Server: ServerConfig{
			Host:    getEnv("SERVER_HOST", "0.0.0.0"),
			Port:    getEnvInt("SERVER_PORT", 8080),
			BaseURL: getEnv("SERVER_BASE_URL", "http://localhost:8080"),
		},
		Database: DatabaseConfig{
			URL:            getEnv("DATABASE_URL", ""),
			MaxConnections: getEnvInt("DATABASE_MAX_CONNECTIONS", 25),
		},
		Session: SessionConfig{
			Secret: getEnv("SESSION_SECRET", ""),
			Expiry: time.Duration(getEnvInt("SESSION_EXPIRY_HOURS", 24)) * time.Hour,
		},
		OAuth: OAuthConfig{
			ClientID:     getEnv("OAUTH_GITHUB_CLIENT_ID", ""),
			ClientSecret: getEnv("OAUTH_GITHUB_CLIENT_SECRET", ""),
			CallbackURL:  getEnv("OAUTH_GITHUB_CALLBACK_URL", ""),
		},
		RateLimit: RateLimitConfig{
			PublicPerMinute: getEnvInt("RATE_LIMIT_PUBLIC", 120),
			LoginPerMinute:  getEnvInt("RATE_LIMIT_LOGIN", 10),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		Environment: getEnv("ENVIRONMENT", "development"),
	}

	if configPath != "" {
		if err := overlayFile(&cfg, configPath); err != nil {
			return Config{}, err
		}
	}

	if err := validate.Struct(cfg); err != nil {
		return Config{}, fmt.Errorf("invalid configuration: %w", err)
	}
	if cfg.OAuth.Enabled() {
		if cfg.OAuth.ClientSecret == "" || cfg.OAuth.CallbackURL == "" {
			return Config{}, fmt.Errorf("OAUTH_GITHUB_CLIENT_SECRET and OAUTH_GITHUB_CALLBACK_URL are required when OAuth is enabled")
		}
		if cfg.Session.Secret == "" {
			return Config{}, fmt.Errorf("SESSION_SECRET is required when OAuth is enabled")
		}
	}
	return cfg, nil
}

func overlayFile(cfg *Config, path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
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
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}
