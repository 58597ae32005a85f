package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Prefix for every environment variable, e.g. YOJEUM_PORT
const Prefix = "YOJEUM"

type Config struct {
	Port         string `envconfig:"PORT" default:"8080"`
	VaultPath    string `envconfig:"VAULT_PATH"`
	DBPath       string `envconfig:"DB_PATH"`
	Token        string `envconfig:"TOKEN"`
	Timezone     string `envconfig:"TIMEZONE" default:"Asia/Seoul"`
	AppEnv       string `envconfig:"APP_ENV" default:"dev"`
	FontPath     string `envconfig:"FONT_PATH"`
	LetterHour   int    `envconfig:"LETTER_HOUR" default:"22"`
	LookbackDays int    `envconfig:"LOOKBACK_DAYS" default:"7"`
	RateLimit    int    `envconfig:"RATE_LIMIT" default:"60"`

	TelegramToken    string `envconfig:"TELEGRAM_TOKEN"`
	TelegramChatID   int64  `envconfig:"TELEGRAM_CHAT_ID"`
	TelegramTextOnly bool   `envconfig:"TELEGRAM_TEXT_ONLY" default:"false"`
}

// Load reads and validates the server configuration
func Load() (*Config, error) {
	cfg, err := process()
	if err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadLocal is Load for tools that only touch the database and vault,
// so no API token is required
func LoadLocal() (*Config, error) {
	cfg, err := process()
	if err != nil {
		return nil, err
	}
	if err := cfg.validateLocal(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func process() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(Prefix, &cfg); err != nil {
		return nil, fmt.Errorf("reading environment: %w", err)
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if err := c.validateLocal(); err != nil {
		return err
	}
	if c.Token == "" {
		return fmt.Errorf("YOJEUM_TOKEN is required")
	}
	return nil
}

func (c *Config) validateLocal() error {
	if c.VaultPath == "" {
		return fmt.Errorf("YOJEUM_VAULT_PATH is required")
	}
	if c.DBPath == "" {
		return fmt.Errorf("YOJEUM_DB_PATH is required")
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("YOJEUM_TIMEZONE %q: %w", c.Timezone, err)
	}
	if c.LetterHour < 0 || c.LetterHour > 23 {
		return fmt.Errorf("YOJEUM_LETTER_HOUR must be 0-23, got %d", c.LetterHour)
	}
	if c.LookbackDays < 1 {
		return fmt.Errorf("YOJEUM_LOOKBACK_DAYS must be positive, got %d", c.LookbackDays)
	}
	if c.TelegramToken != "" && c.TelegramChatID == 0 {
		return fmt.Errorf("YOJEUM_TELEGRAM_CHAT_ID is required when YOJEUM_TELEGRAM_TOKEN is set")
	}
	return nil
}

// Location returns the configured timezone; validate has already checked it
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// SharingEnabled reports whether a native share target is configured
func (c *Config) SharingEnabled() bool {
	return c.TelegramToken != ""
}

// ActorFromToken maps a bearer token to the journal owner
func (c *Config) ActorFromToken(token string) (string, bool) {
	if c.Token != "" && token == c.Token {
		return "owner", true
	}
	return "", false
}
