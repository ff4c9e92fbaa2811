package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config keeps runtime settings for the service. TelegramAPIEndpoint, when
// set, points report delivery at a self-hosted Bot API server.
type Config struct {
	DatabaseURL         string        `yaml:"database_url"`
	HTTPAddr            string        `yaml:"http_addr"`
	RedisURL            string        `yaml:"redis_url"`
	NameGuardTTL        time.Duration `yaml:"name_guard_ttl"`
	ReportTime          string        `yaml:"report_time"`
	ReportDir           string        `yaml:"report_dir"`
	TelegramToken       string        `yaml:"telegram_token"`
	TelegramChatID      int64         `yaml:"telegram_chat_id"`
	TelegramAPIEndpoint string        `yaml:"telegram_api_endpoint"`
	Timezone            string        `yaml:"timezone"`
	Debug               bool          `yaml:"debug"`
}

// Default returns the settings used when nothing is configured.
func Default() Config {
	return Config{
		DatabaseURL:  "todolist.db",
		HTTPAddr:     ":8080",
		NameGuardTTL: 24 * time.Hour,
		ReportDir:    "reports",
	}
}

// Load starts from defaults, overlays the YAML file named by TODOLIST_CONFIG
// when set, then applies environment variables.
func Load() (Config, error) {
	cfg := Default()

	if path := strings.TrimSpace(os.Getenv("TODOLIST_CONFIG")); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return cfg, err
		}
	}

	if err := cfg.loadEnv(); err != nil {
		return cfg, err
	}

	return cfg, cfg.Validate()
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %q: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config %q: %w", path, err)
	}
	return nil
}

func (c *Config) loadEnv() error {
	setString(&c.DatabaseURL, "DATABASE_URL")
	setString(&c.HTTPAddr, "HTTP_ADDR")
	setString(&c.RedisURL, "REDIS_URL")
	setString(&c.ReportTime, "REPORT_TIME")
	setString(&c.ReportDir, "REPORT_DIR")
	setString(&c.TelegramToken, "TELEGRAM_TOKEN")
	setString(&c.TelegramAPIEndpoint, "TELEGRAM_API_ENDPOINT")
	setString(&c.Timezone, "TIMEZONE")

	if raw := env("NAME_GUARD_TTL"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil || d <= 0 {
			return fmt.Errorf("invalid NAME_GUARD_TTL %q", raw)
		}
		c.NameGuardTTL = d
	}
	if raw := env("TELEGRAM_CHAT_ID"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid TELEGRAM_CHAT_ID %q", raw)
		}
		c.TelegramChatID = id
	}
	if raw := env("DEBUG"); raw != "" {
		dbg, err := strconv.ParseBool(raw)
		if err != nil {
			return fmt.Errorf("invalid DEBUG %q", raw)
		}
		c.Debug = dbg
	}
	return nil
}

// Validate checks values that would otherwise fail late at startup.
func (c Config) Validate() error {
	if c.ReportTime != "" {
		if _, err := time.Parse("15:04", c.ReportTime); err != nil {
			return fmt.Errorf("invalid report time %q, expected HH:MM", c.ReportTime)
		}
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	if c.TelegramToken != "" && c.TelegramChatID == 0 {
		return fmt.Errorf("TELEGRAM_CHAT_ID is required when TELEGRAM_TOKEN is set")
	}
	return nil
}

// Location resolves Timezone; empty means the process local zone.
func (c Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

func env(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func setString(dst *string, key string) {
	if v := env(key); v != "" {
		*dst = v
	}
}
