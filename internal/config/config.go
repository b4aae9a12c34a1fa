// Package config resolves application configuration from environment
// variables with sensible defaults, plus an optional YAML file overlay.
//
// Environment Variables:
//
// Provider Configuration:
// - PROVIDER_KIND: chat backend, one of openai/openrouter/vllm/mock (default: openrouter)
// - PROVIDER_API_KEY: API key (required unless PROVIDER_KIND=mock)
// - PROVIDER_BASE_URL: API endpoint URL (default: provider-specific)
// - PROVIDER_TIMEOUT: request timeout in seconds (default: 60)
// - PROVIDER_REQUEST_INTERVAL_MS: pause between vision requests (default: 0)
// - VLM_MODEL: vision model name (default: qwen/qwen2.5-vl-72b-instruct)
// - LLM_MODEL: summary model name (default: openai/gpt-4o-mini)
//
// Summary Configuration:
// - SUMMARY_LANGUAGE: auto, zh, or en (default: auto)
// - SUMMARY_MAX_FRAMES: extra cap on frames per run, 0 = strategy default
//
// Cache Configuration:
// - CACHE_DIR: result cache root (default: ./cache)
// - CACHE_READONLY: never write cache entries (default: false)
//
// Server Configuration:
// - SERVER_ADDR: listen address (default: :8080)
// - SERVER_WORKERS: concurrent pipeline runs (default: 2)
// - SERVER_DB_PATH: sqlite job store path (default: ./data/vidsum.db)
//
// Watch Configuration:
// - WATCH_INBOX: drop-folder directory
// - WATCH_CRON: periodic rescan expression (default: "*/10 * * * *")
// - WATCH_SETTLE_SECONDS: quiet time before a dropped file is picked up (default: 3)
package config

import (
	"fmt"
	"os"
	"strconv"

	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"

	"vidsum/pkg/log"
)

type Config struct {
	Provider ProviderConfig `json:"provider" yaml:"provider"`
	Summary  SummaryConfig  `json:"summary" yaml:"summary"`
	Cache    CacheConfig    `json:"cache" yaml:"cache"`
	Server   ServerConfig   `json:"server" yaml:"server"`
	Watch    WatchConfig    `json:"watch" yaml:"watch"`
}

type ProviderConfig struct {
	Kind              string `json:"kind" yaml:"kind"`
	APIKey            string `json:"api_key" yaml:"api_key"`
	BaseURL           string `json:"base_url" yaml:"base_url"`
	TimeoutSeconds    int    `json:"timeout_seconds" yaml:"timeout_seconds"`
	RequestIntervalMS int    `json:"request_interval_ms" yaml:"request_interval_ms"`
	VLMModel          string `json:"vlm_model" yaml:"vlm_model"`
	LLMModel          string `json:"llm_model" yaml:"llm_model"`
}

type SummaryConfig struct {
	Language  string `json:"language" yaml:"language"`
	MaxFrames int    `json:"max_frames" yaml:"max_frames"`
}

type CacheConfig struct {
	Dir      string `json:"dir" yaml:"dir"`
	Readonly bool   `json:"readonly" yaml:"readonly"`
}

type ServerConfig struct {
	Addr    string `json:"addr" yaml:"addr"`
	Workers int    `json:"workers" yaml:"workers"`
	DBPath  string `json:"db_path" yaml:"db_path"`
}

type WatchConfig struct {
	InboxDir      string `json:"inbox_dir" yaml:"inbox_dir"`
	CronExpr      string `json:"cron_expr" yaml:"cron_expr"`
	SettleSeconds int    `json:"settle_seconds" yaml:"settle_seconds"`
}

// Option mutates the config after env resolution, before validation.
type Option func(*Config)

// NewFromEnv resolves the configuration from the environment. When
// configFile is non-empty the YAML file is loaded first and env variables
// override it field by field.
func NewFromEnv(configFile string, opts ...Option) (*Config, error) {
	config := &Config{
		Provider: ProviderConfig{
			Kind:              "openrouter",
			TimeoutSeconds:    60,
			RequestIntervalMS: 0,
			VLMModel:          "qwen/qwen2.5-vl-72b-instruct",
			LLMModel:          "openai/gpt-4o-mini",
		},
		Summary: SummaryConfig{Language: "auto"},
		Cache:   CacheConfig{Dir: "./cache"},
		Server: ServerConfig{
			Addr:    ":8080",
			Workers: 2,
			DBPath:  "./data/vidsum.db",
		},
		Watch: WatchConfig{
			CronExpr:      "*/10 * * * *",
			SettleSeconds: 3,
		},
	}

	if configFile != "" {
		if err := applyFile(config, configFile); err != nil {
			return nil, err
		}
	}
	applyEnv(config)

	for _, opt := range opts {
		opt(config)
	}

	if err := config.validate(); err != nil {
		return nil, err
	}

	log.Debug("config resolved: provider=%s vlm=%s llm=%s cache=%s",
		config.Provider.Kind, config.Provider.VLMModel, config.Provider.LLMModel, config.Cache.Dir)
	return config, nil
}

func applyFile(config *Config, path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(raw, config); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func applyEnv(config *Config) {
	config.Provider.Kind = getEnvString("PROVIDER_KIND", config.Provider.Kind)
	config.Provider.APIKey = getEnvString("PROVIDER_API_KEY", config.Provider.APIKey)
	config.Provider.BaseURL = getEnvString("PROVIDER_BASE_URL", config.Provider.BaseURL)
	config.Provider.TimeoutSeconds = getEnvInt("PROVIDER_TIMEOUT", config.Provider.TimeoutSeconds)
	config.Provider.RequestIntervalMS = getEnvInt("PROVIDER_REQUEST_INTERVAL_MS", config.Provider.RequestIntervalMS)
	config.Provider.VLMModel = getEnvString("VLM_MODEL", config.Provider.VLMModel)
	config.Provider.LLMModel = getEnvString("LLM_MODEL", config.Provider.LLMModel)

	config.Summary.Language = getEnvString("SUMMARY_LANGUAGE", config.Summary.Language)
	config.Summary.MaxFrames = getEnvInt("SUMMARY_MAX_FRAMES", config.Summary.MaxFrames)

	config.Cache.Dir = getEnvString("CACHE_DIR", config.Cache.Dir)
	config.Cache.Readonly = getEnvBool("CACHE_READONLY", config.Cache.Readonly)

	config.Server.Addr = getEnvString("SERVER_ADDR", config.Server.Addr)
	config.Server.Workers = getEnvInt("SERVER_WORKERS", config.Server.Workers)
	config.Server.DBPath = getEnvString("SERVER_DB_PATH", config.Server.DBPath)

	config.Watch.InboxDir = getEnvString("WATCH_INBOX", config.Watch.InboxDir)
	config.Watch.CronExpr = getEnvString("WATCH_CRON", config.Watch.CronExpr)
	config.Watch.SettleSeconds = getEnvInt("WATCH_SETTLE_SECONDS", config.Watch.SettleSeconds)
}

// validate checks required fields and normalizes the summary language.
func (c *Config) validate() error {
	if c.Provider.Kind != "mock" && c.Provider.APIKey == "" {
		return fmt.Errorf("PROVIDER_API_KEY is required for provider %q", c.Provider.Kind)
	}
	if c.Server.Workers <= 0 {
		return fmt.Errorf("SERVER_WORKERS must be positive")
	}

	lang, err := normalizeLanguage(c.Summary.Language)
	if err != nil {
		return err
	}
	c.Summary.Language = lang
	return nil
}

// normalizeLanguage maps any parseable tag onto the two supported output
// languages. "auto" defers the choice to subtitle content.
func normalizeLanguage(raw string) (string, error) {
	if raw == "" || raw == "auto" {
		return "auto", nil
	}
	tag, err := language.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("SUMMARY_LANGUAGE %q: %w", raw, err)
	}
	base, _ := tag.Base()
	switch base.String() {
	case "zh":
		return "zh", nil
	case "en":
		return "en", nil
	}
	return "", fmt.Errorf("SUMMARY_LANGUAGE %q: only zh and en are supported", raw)
}

func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
