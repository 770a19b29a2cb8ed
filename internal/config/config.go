package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type RuntimeConfig struct {
	Dev bool
}

type BotConfig struct {
	Token      string `yaml:"token"`
	Workers    int    `yaml:"workers"`     // update workers (one queue each)
	QueueDepth int    `yaml:"queue_depth"` // per-worker queue depth
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type AdminConfig struct {
	Port int `yaml:"port"` // health + metrics
}

type StateConfig struct {
	Backend string `yaml:"backend"` // memory | redis
}

type RedisConfig struct {
	URL      string        `yaml:"url"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"` // conversation state TTL
}

type OCRConfig struct {
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url"`
}

type AssistantConfig struct {
	HuggingFaceToken string `yaml:"huggingface_token"`
	HuggingFaceURL   string `yaml:"huggingface_url"`
	GeminiKey        string `yaml:"gemini_key"`
	OpenAIKey        string `yaml:"openai_key"`
	Model            string `yaml:"model"`
	MaxTokens        int    `yaml:"max_tokens"`
}

type Config struct {
	Bot       BotConfig       `yaml:"bot"`
	Log       LogConfig       `yaml:"log"`
	Admin     AdminConfig     `yaml:"admin"`
	State     StateConfig     `yaml:"state"`
	Redis     RedisConfig     `yaml:"redis"`
	OCR       OCRConfig       `yaml:"ocr"`
	Assistant AssistantConfig `yaml:"assistant"`

	Runtime RuntimeConfig `yaml:"-"`
}

func LoadConfig(path string, dev bool) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	// defaults
	if cfg.Bot.Workers <= 0 {
		cfg.Bot.Workers = 8
	}
	if cfg.Bot.QueueDepth <= 0 {
		cfg.Bot.QueueDepth = 64
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.State.Backend == "" {
		cfg.State.Backend = "memory"
	}
	if cfg.Redis.TTL <= 0 {
		cfg.Redis.TTL = 24 * time.Hour
	}
	if cfg.Assistant.MaxTokens <= 0 {
		cfg.Assistant.MaxTokens = 150
	}

	// Minimal validation. A missing credential must stop the process at
	// startup rather than let it run degraded.
	if cfg.Bot.Token == "" {
		return nil, errors.New("bot.token is required")
	}
	if cfg.State.Backend != "memory" && cfg.State.Backend != "redis" {
		return nil, fmt.Errorf("state.backend must be memory or redis, got %q", cfg.State.Backend)
	}
	if cfg.State.Backend == "redis" && cfg.Redis.URL == "" {
		return nil, errors.New("redis.url is required when state.backend is redis")
	}
	if !dev {
		if cfg.OCR.APIKey == "" {
			return nil, errors.New("ocr.api_key is required")
		}
		if cfg.Assistant.HuggingFaceToken == "" && cfg.Assistant.GeminiKey == "" && cfg.Assistant.OpenAIKey == "" {
			return nil, errors.New("no assistant provider configured: set assistant.huggingface_token, assistant.gemini_key or assistant.openai_key")
		}
	}

	cfg.Runtime.Dev = dev
	return &cfg, nil
}
