// Package config provides configuration for the portfolio assistant service.
// Configuration is read from an optional YAML file, overridden by environment
// variables, with .env files loaded first.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/marcveslino/portfolio-assistant/internal/logging"
)

// Default configuration values.
const (
	defaultServiceName     = "portfolio-assistant"
	defaultServiceVersion  = "1.0.0"
	defaultServicePort     = 8080
	defaultHistoryLimit    = 10
	defaultDBHost          = "localhost"
	defaultDBPort          = 5432
	defaultDBUser          = "postgres"
	defaultDBName          = "portfolio"
	defaultDBSSLMode       = "disable"
	defaultDBMaxConns      = 25
	defaultDBMaxIdleConns  = 5
	defaultAIBaseURL       = "https://api.openai.com/v1"
	defaultAIModel         = "gpt-4o-mini"
	defaultAITimeoutSec    = 15
	defaultTelegramBaseURL = "https://api.telegram.org"
	defaultContactEmail    = "marcveslino000@gmail.com"
	defaultLogLevel        = "info"
)

// Config holds all configuration for the service.
type Config struct {
	Service  ServiceConfig  `yaml:"service"`
	Database DatabaseConfig `yaml:"database"`
	AI       AIConfig       `yaml:"ai"`
	Telegram TelegramConfig `yaml:"telegram"`
	Logging  logging.Config `yaml:"logging"`
}

// ServiceConfig holds service-level configuration.
type ServiceConfig struct {
	Name         string `yaml:"name"`
	Version      string `yaml:"version"`
	Port         int    `env:"PORT"          yaml:"port"`
	Debug        bool   `env:"APP_DEBUG"     yaml:"debug"`
	ContactEmail string `env:"CONTACT_EMAIL" yaml:"contact_email"`
	// HistoryLimit bounds how many recent messages feed the AI context
	// and the escalation analyzer.
	HistoryLimit int `yaml:"history_limit"`
}

// DatabaseConfig holds PostgreSQL configuration.
type DatabaseConfig struct {
	Host         string `env:"POSTGRES_HOST"     yaml:"host"`
	Port         int    `env:"POSTGRES_PORT"     yaml:"port"`
	User         string `env:"POSTGRES_USER"     yaml:"user"`
	Password     string `env:"POSTGRES_PASSWORD" yaml:"password"`
	Database     string `env:"POSTGRES_DB"       yaml:"database"`
	SSLMode      string `env:"POSTGRES_SSLMODE"  yaml:"sslmode"`
	MaxConns     int    `yaml:"max_connections"`
	MaxIdleConns int    `yaml:"max_idle_connections"`
}

// AIConfig holds the generative AI service configuration.
type AIConfig struct {
	BaseURL string        `env:"AI_BASE_URL" yaml:"base_url"`
	APIKey  string        `env:"AI_API_KEY"  yaml:"api_key"`
	Model   string        `env:"AI_MODEL"    yaml:"model"`
	Timeout time.Duration `yaml:"timeout"`
}

// TelegramConfig holds the operator notification channel configuration.
type TelegramConfig struct {
	BaseURL  string `yaml:"base_url"`
	BotToken string `env:"TELEGRAM_BOT_TOKEN" yaml:"bot_token"`
	ChatID   string `env:"TELEGRAM_CHAT_ID"   yaml:"chat_id"`
}

// Load reads configuration from the given YAML path (a missing file is not an
// error) and applies .env files plus environment variable overrides.
func Load(path string) (*Config, error) {
	if err := loadEnvFiles(); err != nil {
		return nil, fmt.Errorf("load environment files: %w", err)
	}

	var cfg Config
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if unmarshalErr := yaml.Unmarshal(data, &cfg); unmarshalErr != nil {
				return nil, fmt.Errorf("parse config %s: %w", path, unmarshalErr)
			}
		case os.IsNotExist(err):
			// Env-only configuration is fine.
		default:
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	applyEnvOverrides(&cfg)
	setDefaults(&cfg)

	return &cfg, nil
}

// loadEnvFiles loads ENV_FILE if set, otherwise .env.local then .env.
// Missing files are ignored.
func loadEnvFiles() error {
	if envFile := os.Getenv("ENV_FILE"); envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("load env file %s: %w", envFile, err)
		}
		return nil
	}
	if err := godotenv.Load(".env.local"); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("load .env.local: %w", err)
	}
	if err := godotenv.Load(".env"); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("load .env: %w", err)
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	overrideInt(&cfg.Service.Port, "PORT")
	overrideBool(&cfg.Service.Debug, "APP_DEBUG")
	overrideString(&cfg.Service.ContactEmail, "CONTACT_EMAIL")

	overrideString(&cfg.Database.Host, "POSTGRES_HOST")
	overrideInt(&cfg.Database.Port, "POSTGRES_PORT")
	overrideString(&cfg.Database.User, "POSTGRES_USER")
	overrideString(&cfg.Database.Password, "POSTGRES_PASSWORD")
	overrideString(&cfg.Database.Database, "POSTGRES_DB")
	overrideString(&cfg.Database.SSLMode, "POSTGRES_SSLMODE")

	overrideString(&cfg.AI.BaseURL, "AI_BASE_URL")
	overrideString(&cfg.AI.APIKey, "AI_API_KEY")
	overrideString(&cfg.AI.Model, "AI_MODEL")

	overrideString(&cfg.Telegram.BotToken, "TELEGRAM_BOT_TOKEN")
	overrideString(&cfg.Telegram.ChatID, "TELEGRAM_CHAT_ID")

	overrideString(&cfg.Logging.Level, "LOG_LEVEL")
}

func overrideString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func overrideInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func overrideBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

// setDefaults applies default values to the config.
func setDefaults(cfg *Config) {
	s := &cfg.Service
	if s.Name == "" {
		s.Name = defaultServiceName
	}
	if s.Version == "" {
		s.Version = defaultServiceVersion
	}
	if s.Port == 0 {
		s.Port = defaultServicePort
	}
	if s.ContactEmail == "" {
		s.ContactEmail = defaultContactEmail
	}
	if s.HistoryLimit == 0 {
		s.HistoryLimit = defaultHistoryLimit
	}

	d := &cfg.Database
	if d.Host == "" {
		d.Host = defaultDBHost
	}
	if d.Port == 0 {
		d.Port = defaultDBPort
	}
	if d.User == "" {
		d.User = defaultDBUser
	}
	if d.Database == "" {
		d.Database = defaultDBName
	}
	if d.SSLMode == "" {
		d.SSLMode = defaultDBSSLMode
	}
	if d.MaxConns == 0 {
		d.MaxConns = defaultDBMaxConns
	}
	if d.MaxIdleConns == 0 {
		d.MaxIdleConns = defaultDBMaxIdleConns
	}

	a := &cfg.AI
	if a.BaseURL == "" {
		a.BaseURL = defaultAIBaseURL
	}
	if a.Model == "" {
		a.Model = defaultAIModel
	}
	if a.Timeout == 0 {
		a.Timeout = defaultAITimeoutSec * time.Second
	}

	t := &cfg.Telegram
	if t.BaseURL == "" {
		t.BaseURL = defaultTelegramBaseURL
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = defaultLogLevel
	}
}
