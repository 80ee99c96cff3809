package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// TelegramConfig holds Telegram bot settings. An empty token disables the Telegram frontend.
type TelegramConfig struct {
	Token   string `yaml:"token" envconfig:"BOT_TOKEN"`
	AdminID int64  `yaml:"admin_id" envconfig:"TELEGRAM_ADMIN_ID"`
	RunMode string `yaml:"run_mode" envconfig:"TELEGRAM_RUN_MODE"`
	// LongPollTimeoutSeconds defines long polling timeout; 0 -> default
	LongPollTimeoutSeconds int `yaml:"longpoll_timeout_seconds" envconfig:"TELEGRAM_LONGPOLL_TIMEOUT_SECONDS"`
}

// WebhookConfig specifies webhook settings.
type WebhookConfig struct {
	URL    string `yaml:"url" envconfig:"WEBHOOK_URL"`
	Listen string `yaml:"listen" envconfig:"WEBHOOK_LISTEN"`
	Port   int    `yaml:"port" envconfig:"WEBHOOK_PORT"`
}

// LoggingConfig defines logging related configuration.
type LoggingConfig struct {
	Level       string `yaml:"level" envconfig:"LOG_LEVEL"`
	Format      string `yaml:"format" envconfig:"LOG_FORMAT"`
	KeysOrder   string `yaml:"keys_order"`
	DebugSample string `yaml:"debug_sample"`
	Dir         string `yaml:"dir"`
	File        string `yaml:"file"`
	// Profile indicates environment profile such as "debug" or "prod".
	Profile string `yaml:"profile" envconfig:"LOG_PROFILE"`
}

// RateLimitConfig holds settings for Telegram rate limiting.
// ExcludeUpdates accepts update types to bypass limiting:
// - "callback": Telegram callback button presses
// - "message": standard text messages
// - "inline_query": inline query updates
type RateLimitConfig struct {
	IntervalMS     int      `yaml:"interval_ms" envconfig:"RATE_LIMIT_INTERVAL_MS"`
	ExcludeUpdates []string `yaml:"exclude_updates" envconfig:"RATE_LIMIT_EXCLUDE_UPDATES"`
}

// AssistantConfig controls language behaviour shared by all actions.
type AssistantConfig struct {
	DefaultLanguage    string  `yaml:"default_language" envconfig:"ASSISTANT_DEFAULT_LANGUAGE"`
	DetectionThreshold float64 `yaml:"detection_threshold" envconfig:"ASSISTANT_DETECTION_THRESHOLD"`
	// TranslateFallback makes action_default translate its message like every other action.
	TranslateFallback bool `yaml:"translate_fallback" envconfig:"ASSISTANT_TRANSLATE_FALLBACK"`
}

// TranslationConfig selects and tunes the translation backend.
type TranslationConfig struct {
	Provider           string  `yaml:"provider" envconfig:"TRANSLATION_PROVIDER"`
	Endpoint           string  `yaml:"endpoint" envconfig:"TRANSLATION_ENDPOINT"`
	APIKey             string  `yaml:"api_key" envconfig:"TRANSLATION_API_KEY"`
	TimeoutMS          int     `yaml:"timeout_ms" envconfig:"TRANSLATION_TIMEOUT_MS"`
	CacheSize          int     `yaml:"cache_size" envconfig:"TRANSLATION_CACHE_SIZE"`
	RateLimitPerSecond float64 `yaml:"rate_limit_per_second" envconfig:"TRANSLATION_RATE_LIMIT_PER_SECOND"`
	Burst              int     `yaml:"burst" envconfig:"TRANSLATION_BURST"`
}

// DetectionConfig tunes the language detector.
type DetectionConfig struct {
	LowAccuracy bool `yaml:"low_accuracy" envconfig:"DETECTION_LOW_ACCURACY"`
}

// ActionServerConfig exposes actions over HTTP for an external dialogue engine.
type ActionServerConfig struct {
	Enabled     bool     `yaml:"enabled" envconfig:"ACTION_SERVER_ENABLED"`
	Listen      string   `yaml:"listen" envconfig:"ACTION_SERVER_LISTEN"`
	Port        int      `yaml:"port" envconfig:"ACTION_SERVER_PORT"`
	Token       string   `yaml:"token" envconfig:"ACTION_SERVER_TOKEN"`
	CORSOrigins []string `yaml:"cors_origins" envconfig:"ACTION_SERVER_CORS_ORIGINS"`
	Metrics     bool     `yaml:"metrics" envconfig:"ACTION_SERVER_METRICS"`
}

// StorageConfig selects where the Telegram host keeps conversations.
type StorageConfig struct {
	Driver       string `yaml:"driver" envconfig:"STORAGE_DRIVER"`
	HistoryLimit int    `yaml:"history_limit" envconfig:"STORAGE_HISTORY_LIMIT"`
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	Host           string `yaml:"host" envconfig:"DB_HOST"`
	Port           string `yaml:"port" envconfig:"DB_PORT"`
	User           string `yaml:"user" envconfig:"DB_USER"`
	Password       string `yaml:"password" envconfig:"DB_PASSWORD"`
	Name           string `yaml:"name" envconfig:"DB_NAME"`
	SSLMode        string `yaml:"sslmode" envconfig:"DB_SSLMODE"`
	MaxConnections int    `yaml:"max_connections" envconfig:"DB_MAX_CONNECTIONS"`
	// MigrationsDir overrides the migrations compiled into the binary.
	MigrationsDir  string `yaml:"migrations_dir" envconfig:"DB_MIGRATIONS_DIR"`
}

const (
	// RunModeWebhook selects webhook mode for Telegram updates.
	RunModeWebhook = "webhook"
	// RunModeLongpoll selects long-polling mode for Telegram updates.
	RunModeLongpoll = "longpoll"
)

const (
	// UpdateCallback identifies callback updates for rate limit exclusions.
	UpdateCallback = "callback"
	// UpdateMessage identifies message updates for rate limit exclusions.
	UpdateMessage = "message"
	// UpdateInlineQuery identifies inline query updates for rate limit exclusions.
	UpdateInlineQuery = "inline_query"
)

// Translation providers.
const (
	ProviderGoogle         = "google"
	ProviderLibreTranslate = "libretranslate"
	ProviderNone           = "none"
)

// Storage drivers.
const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"
)

// Defaults applied by Normalize.
const (
	DefaultLanguage           = "en"
	DefaultDetectionThreshold = 0.5
	DefaultGoogleEndpoint     = "https://translate.googleapis.com/translate_a/single"
	DefaultTranslationTimeout = 5000
	DefaultCacheSize          = 1024
	DefaultActionServerPort   = 5055
	DefaultHistoryLimit       = 100
)

// Config aggregates the application configuration.
type Config struct {
	Telegram     TelegramConfig     `yaml:"telegram"`
	Webhook      WebhookConfig      `yaml:"webhook"`
	Logging      LoggingConfig      `yaml:"logging"`
	RateLimit    RateLimitConfig    `yaml:"rate_limit"`
	Assistant    AssistantConfig    `yaml:"assistant"`
	Translation  TranslationConfig  `yaml:"translation"`
	Detection    DetectionConfig    `yaml:"detection"`
	ActionServer ActionServerConfig `yaml:"action_server"`
	Storage      StorageConfig      `yaml:"storage"`
	Database     DatabaseConfig     `yaml:"database"`
}

// TelegramEnabled reports whether the Telegram frontend should run.
func (c *Config) TelegramEnabled() bool {
	return c != nil && strings.TrimSpace(c.Telegram.Token) != ""
}

// Load reads configuration from a YAML file and environment variables.
func Load(path string) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config: %w", err)
	}
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process env: %w", err)
	}

	if err := Normalize(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Defaults returns a config built from the environment alone, for one-shot
// commands that start no frontend.
func Defaults() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process env: %w", err)
	}
	enabled := cfg.ActionServer.Enabled
	cfg.ActionServer.Enabled = true
	if err := Normalize(&cfg); err != nil {
		return nil, err
	}
	cfg.ActionServer.Enabled = enabled
	return &cfg, nil
}

// Normalize performs basic validation of configuration fields and fills defaults.
func Normalize(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("nil config")
	}
	if !cfg.TelegramEnabled() && !cfg.ActionServer.Enabled {
		return fmt.Errorf("nothing to run: set telegram.token or enable action_server")
	}

	if cfg.TelegramEnabled() {
		if err := normalizeTelegram(cfg); err != nil {
			return err
		}
	}
	if err := normalizeAssistant(&cfg.Assistant); err != nil {
		return err
	}
	if err := normalizeTranslation(&cfg.Translation); err != nil {
		return err
	}
	if err := normalizeActionServer(&cfg.ActionServer); err != nil {
		return err
	}
	return normalizeStorage(cfg)
}

func normalizeTelegram(cfg *Config) error {
	rm := strings.ToLower(strings.TrimSpace(cfg.Telegram.RunMode))
	if rm == "" || rm == "polling" {
		rm = RunModeLongpoll
	}
	switch rm {
	case RunModeWebhook:
		if strings.TrimSpace(cfg.Webhook.URL) == "" {
			return fmt.Errorf("webhook.url is required when telegram.run_mode is 'webhook'")
		}
		if strings.TrimSpace(cfg.Webhook.Listen) == "" {
			return fmt.Errorf("webhook.listen is required when telegram.run_mode is 'webhook'")
		}
		if cfg.Webhook.Port <= 0 {
			return fmt.Errorf("webhook.port must be > 0 when telegram.run_mode is 'webhook'")
		}
	case RunModeLongpoll:
		if cfg.Telegram.LongPollTimeoutSeconds < 0 {
			return fmt.Errorf("telegram.longpoll_timeout_seconds must be >= 0")
		}
	default:
		return fmt.Errorf("invalid telegram.run_mode %q; allowed: webhook, longpoll", cfg.Telegram.RunMode)
	}
	cfg.Telegram.RunMode = rm

	allowed := map[string]struct{}{
		UpdateCallback:    {},
		UpdateMessage:     {},
		UpdateInlineQuery: {},
	}
	for i, v := range cfg.RateLimit.ExcludeUpdates {
		key := strings.ToLower(strings.TrimSpace(v))
		if key == "" {
			continue
		}
		if _, ok := allowed[key]; !ok {
			return fmt.Errorf("invalid rate_limit.exclude_updates value %q; allowed: callback, message, inline_query", v)
		}
		cfg.RateLimit.ExcludeUpdates[i] = key
	}
	return nil
}

func normalizeAssistant(a *AssistantConfig) error {
	a.DefaultLanguage = strings.ToLower(strings.TrimSpace(a.DefaultLanguage))
	if a.DefaultLanguage == "" {
		a.DefaultLanguage = DefaultLanguage
	}
	if a.DetectionThreshold == 0 {
		a.DetectionThreshold = DefaultDetectionThreshold
	}
	if a.DetectionThreshold < 0 || a.DetectionThreshold >= 1 {
		return fmt.Errorf("assistant.detection_threshold must be in [0, 1), got %v", a.DetectionThreshold)
	}
	return nil
}

func normalizeTranslation(t *TranslationConfig) error {
	t.Provider = strings.ToLower(strings.TrimSpace(t.Provider))
	if t.Provider == "" {
		t.Provider = ProviderGoogle
	}
	switch t.Provider {
	case ProviderGoogle:
		if strings.TrimSpace(t.Endpoint) == "" {
			t.Endpoint = DefaultGoogleEndpoint
		}
	case ProviderLibreTranslate:
		if strings.TrimSpace(t.Endpoint) == "" {
			return fmt.Errorf("translation.endpoint is required for provider %q", t.Provider)
		}
	case ProviderNone:
	default:
		return fmt.Errorf("invalid translation.provider %q; allowed: google, libretranslate, none", t.Provider)
	}
	if t.TimeoutMS <= 0 {
		t.TimeoutMS = DefaultTranslationTimeout
	}
	if t.CacheSize < 0 {
		return fmt.Errorf("translation.cache_size must be >= 0")
	}
	if t.CacheSize == 0 {
		t.CacheSize = DefaultCacheSize
	}
	if t.RateLimitPerSecond < 0 {
		return fmt.Errorf("translation.rate_limit_per_second must be >= 0")
	}
	if t.RateLimitPerSecond > 0 && t.Burst <= 0 {
		t.Burst = 1
	}
	return nil
}

func normalizeActionServer(s *ActionServerConfig) error {
	if !s.Enabled {
		return nil
	}
	if s.Port == 0 {
		s.Port = DefaultActionServerPort
	}
	if s.Port < 0 || s.Port > 65535 {
		return fmt.Errorf("action_server.port out of range: %d", s.Port)
	}
	return nil
}

func normalizeStorage(cfg *Config) error {
	s := &cfg.Storage
	s.Driver = strings.ToLower(strings.TrimSpace(s.Driver))
	if s.Driver == "" {
		s.Driver = StorageMemory
	}
	if s.HistoryLimit <= 0 {
		s.HistoryLimit = DefaultHistoryLimit
	}
	switch s.Driver {
	case StorageMemory:
		return nil
	case StoragePostgres:
		if strings.TrimSpace(cfg.Database.Host) == "" || strings.TrimSpace(cfg.Database.Name) == "" {
			return fmt.Errorf("database.host and database.name are required for storage.driver 'postgres'")
		}
		if cfg.Database.Port == "" {
			cfg.Database.Port = "5432"
		}
		if cfg.Database.SSLMode == "" {
			cfg.Database.SSLMode = "disable"
		}
		if cfg.Database.MaxConnections <= 0 {
			cfg.Database.MaxConnections = 5
		}
		return nil
	default:
		return fmt.Errorf("invalid storage.driver %q; allowed: memory, postgres", s.Driver)
	}
}
