// File: internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type RuntimeConfig struct {
	Dev bool
}

type BotConfig struct {
	Token       string `yaml:"token" env:"TELEGRAM_TOKEN"`
	Mode        string `yaml:"mode" env:"BOT_MODE"` // polling | webhook
	WebhookURL  string `yaml:"webhook_url" env:"BOT_WEBHOOK_URL"`
	WebhookPath string `yaml:"webhook_path" env:"BOT_WEBHOOK_PATH"`
	Workers     int    `yaml:"workers" env:"BOT_WORKERS"`       // update workers
	QueueSize   int    `yaml:"queue_size"`                      // per worker
	RateLimit   int    `yaml:"rate_limit" env:"BOT_RATE_LIMIT"` // events per user per minute, 0 disables
	Language    string `yaml:"language" env:"BOT_LANGUAGE"`

	// Echoed by Telegram in X-Telegram-Bot-Api-Secret-Token. Required in webhook mode.
	WebhookSecret string `yaml:"webhook_secret" env:"BOT_WEBHOOK_SECRET"`
}

type LogConfig struct {
	Level    string `yaml:"level" env:"LOG_LEVEL"`   // trace|debug|info|warn|error
	Format   string `yaml:"format" env:"LOG_FORMAT"` // json|console
	Sampling bool   `yaml:"sampling"`                // enable sampling in prod
}

type AdminConfig struct {
	Port int `yaml:"port" env:"ADMIN_PORT"`
}

type RedisConfig struct {
	Addr     string        `yaml:"addr" env:"REDIS_ADDR"`
	Username string        `yaml:"username" env:"REDIS_USERNAME"`
	Password string        `yaml:"password" env:"REDIS_PASSWORD"`
	DB       int           `yaml:"db" env:"REDIS_DB"`
	StateTTL time.Duration `yaml:"state_ttl"` // 0 keeps states forever
	LockTTL  time.Duration `yaml:"lock_ttl"`
}

type CatalogConfig struct {
	BaseURL          string        `yaml:"base_url" env:"MOLTIN_BASE_URL"`
	ClientID         string        `yaml:"client_id" env:"MOLTIN_CLIENT_ID"`
	ClientSecret     string        `yaml:"client_secret" env:"MOLTIN_CLIENT_SECRET"`
	Timeout          time.Duration `yaml:"timeout"`
	PlaceholderImage string        `yaml:"placeholder_image" env:"PLACEHOLDER_IMAGE"`
	AddressFlow      string        `yaml:"address_flow"` // flow slug holding pickup addresses
}

type GeocoderConfig struct {
	BaseURL string        `yaml:"base_url"`
	APIKey  string        `yaml:"api_key" env:"YANDEX_GEOCODER_KEY"`
	Timeout time.Duration `yaml:"timeout"`
}

type EngineConfig struct {
	SessionLock     bool  `yaml:"session_lock"`
	QuantityChoices []int `yaml:"quantity_choices"`
}

type Config struct {
	Bot      BotConfig      `yaml:"bot"`
	Log      LogConfig      `yaml:"log"`
	Admin    AdminConfig    `yaml:"admin"`
	Redis    RedisConfig    `yaml:"redis"`
	Catalog  CatalogConfig  `yaml:"catalog"`
	Geocoder GeocoderConfig `yaml:"geocoder"`
	Engine   EngineConfig   `yaml:"engine"`

	Runtime RuntimeConfig `yaml:"-"`
}

const (
	ModePolling = "polling"
	ModeWebhook = "webhook"
)

// LoadConfig reads the YAML file (optional), then .env and the process
// environment on top of it, then applies defaults and validates the catalog
// section. Commands that run the bot call ValidateBot on top.
func LoadConfig(configPath string, dev bool) (*Config, error) {
	cfg := Config{Engine: EngineConfig{SessionLock: true}}

	if configPath != "" {
		b, err := os.ReadFile(configPath)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(b, &cfg); err != nil {
				return nil, fmt.Errorf("parse config: %w", err)
			}
		case errors.Is(err, os.ErrNotExist):
			// env-only setup
		default:
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	_ = godotenv.Load()
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	applyDefaults(&cfg)
	if err := cfg.ValidateCatalog(); err != nil {
		return nil, err
	}

	cfg.Runtime.Dev = dev
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	cfg.Bot.Mode = strings.ToLower(strings.TrimSpace(cfg.Bot.Mode))
	if cfg.Bot.Mode == "" {
		cfg.Bot.Mode = ModePolling
	}
	if cfg.Bot.WebhookPath == "" {
		cfg.Bot.WebhookPath = "/telegram/webhook"
	}
	if cfg.Bot.Workers <= 0 {
		cfg.Bot.Workers = 4
	}
	if cfg.Bot.QueueSize <= 0 {
		cfg.Bot.QueueSize = 32
	}
	if cfg.Bot.Language == "" {
		cfg.Bot.Language = "ru"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.Admin.Port == 0 {
		cfg.Admin.Port = 8080
	}
	if cfg.Catalog.BaseURL == "" {
		cfg.Catalog.BaseURL = "https://api.moltin.com"
	}
	cfg.Catalog.Timeout = normalizeTimeout(cfg.Catalog.Timeout)
	if cfg.Redis.LockTTL <= 0 {
		cfg.Redis.LockTTL = MinLockTTL(cfg.Catalog.Timeout)
	}
	if cfg.Catalog.PlaceholderImage == "" {
		cfg.Catalog.PlaceholderImage = "no_image.jpg"
	}
	if cfg.Catalog.AddressFlow == "" {
		cfg.Catalog.AddressFlow = "pizzeria"
	}
	if cfg.Geocoder.BaseURL == "" {
		cfg.Geocoder.BaseURL = "https://geocode-maps.yandex.ru/1.x"
	}
	cfg.Geocoder.Timeout = normalizeTimeout(cfg.Geocoder.Timeout)
	if len(cfg.Engine.QuantityChoices) == 0 {
		cfg.Engine.QuantityChoices = []int{1, 5, 10}
	}
}

// MaxCatalogCallsPerTurn bounds the catalog requests of one conversation
// turn, token refresh included.
const MaxCatalogCallsPerTurn = 5

// lockTTLSlack covers the Telegram calls of a turn.
const lockTTLSlack = 10 * time.Second

// MinLockTTL is the shortest session lock that outlives a turn in which
// every catalog call runs into its timeout.
func MinLockTTL(catalogTimeout time.Duration) time.Duration {
	return MaxCatalogCallsPerTurn*catalogTimeout + lockTTLSlack
}

// Validate checks everything cmd/app needs.
func (c *Config) Validate() error {
	if err := c.ValidateCatalog(); err != nil {
		return err
	}
	return c.ValidateBot()
}

// ValidateCatalog checks the fields every command needs to reach the catalog.
func (c *Config) ValidateCatalog() error {
	if c.Catalog.ClientID == "" {
		return errors.New("catalog.client_id is required")
	}
	return nil
}

// ValidateBot checks the fields the bot process cannot start without.
func (c *Config) ValidateBot() error {
	if c.Bot.Token == "" {
		return errors.New("bot.token is required")
	}
	if c.Bot.Mode != ModePolling && c.Bot.Mode != ModeWebhook {
		return fmt.Errorf("bot.mode must be %q or %q, got %q", ModePolling, ModeWebhook, c.Bot.Mode)
	}
	if c.Bot.Mode == ModeWebhook {
		if c.Bot.WebhookURL == "" {
			return errors.New("bot.webhook_url is required in webhook mode")
		}
		if !validSecretToken(c.Bot.WebhookSecret) {
			return errors.New("bot.webhook_secret is required in webhook mode: 1-256 characters of A-Z, a-z, 0-9, _ and -")
		}
	}
	if c.Redis.Addr == "" {
		return errors.New("redis.addr is required")
	}
	if floor := MinLockTTL(c.Catalog.Timeout); c.Engine.SessionLock && c.Redis.LockTTL < floor {
		return fmt.Errorf("redis.lock_ttl %s is shorter than a worst-case turn (%s)", c.Redis.LockTTL, floor)
	}
	for _, q := range c.Engine.QuantityChoices {
		if q <= 0 {
			return fmt.Errorf("engine.quantity_choices must be positive, got %d", q)
		}
	}
	return nil
}

// validSecretToken follows Telegram's rules for setWebhook secret_token.
func validSecretToken(s string) bool {
	if len(s) == 0 || len(s) > 256 {
		return false
	}
	for _, r := range s {
		switch {
		case r >= 'A' && r <= 'Z', r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_', r == '-':
		default:
			return false
		}
	}
	return true
}

// Outbound HTTP calls always carry a bounded timeout.
func normalizeTimeout(d time.Duration) time.Duration {
	if d <= 0 {
		return 10 * time.Second
	}
	return d
}
