package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
)

// Classifier backends
const (
	BackendGateway = "gateway"
	BackendAdapter = "adapter"
)

// Config holds all configuration for the status formatter
type Config struct {
	// HTTP configuration
	Port         int           `env:"PORT" envDefault:"8080"`
	HealthPort   int           `env:"HEALTH_PORT" envDefault:"8082"`
	AuthToken    string        `env:"AUTH_TOKEN"`
	MaxBodyBytes int64         `env:"MAX_BODY_BYTES" envDefault:"1048576"`
	ReadTimeout  time.Duration `env:"READ_TIMEOUT" envDefault:"10s"`
	WriteTimeout time.Duration `env:"WRITE_TIMEOUT" envDefault:"60s"`
	SanitizeHTML bool          `env:"SANITIZE_HTML" envDefault:"false"`

	// Categories file (embedded definitions when empty)
	CategoriesFile string `env:"CATEGORIES_FILE"`

	// Classifier configuration
	ClassifierBackend string `env:"CLASSIFIER_BACKEND" envDefault:"gateway"`

	// Gateway backend (OpenAI compatible, e.g. Cloudflare AI gateway)
	GatewayURL   string `env:"GATEWAY_URL" envDefault:"https://api.openai.com/v1"`
	OpenAIAPIKey string `env:"OPENAI_API_KEY"`
	CFToken      string `env:"CF_TOKEN"`
	GatewayModel string `env:"GATEWAY_MODEL" envDefault:"gpt-4o-mini"`

	// Adapter backend (dago-adapters)
	LLMProvider string        `env:"LLM_PROVIDER" envDefault:"anthropic"`
	LLMAPIKey   string        `env:"LLM_API_KEY"`
	LLMModel    string        `env:"LLM_MODEL" envDefault:"claude-sonnet-4-20250514"`
	LLMTimeout  time.Duration `env:"LLM_TIMEOUT" envDefault:"30s"`

	// Redis configuration (cache and events)
	RedisEnabled  bool          `env:"REDIS_ENABLED" envDefault:"false"`
	RedisAddr     string        `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword string        `env:"REDIS_PASS" envDefault:""`
	RedisDB       int           `env:"REDIS_DB" envDefault:"0"`
	CacheTTL      time.Duration `env:"CACHE_TTL" envDefault:"24h"`
	EventStream   string        `env:"EVENT_STREAM" envDefault:"formatter.events"`
	EventMaxLen   int64         `env:"EVENT_MAX_LEN" envDefault:"10000"`

	// Logging configuration
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.AuthToken == "" {
		return fmt.Errorf("AUTH_TOKEN is required")
	}

	if !isValidPort(c.Port) {
		return fmt.Errorf("PORT must be between 1 and 65535")
	}

	if !isValidPort(c.HealthPort) {
		return fmt.Errorf("HEALTH_PORT must be between 1 and 65535")
	}

	if c.Port == c.HealthPort {
		return fmt.Errorf("PORT and HEALTH_PORT must differ")
	}

	if c.MaxBodyBytes <= 0 {
		return fmt.Errorf("MAX_BODY_BYTES must be positive")
	}

	switch c.ClassifierBackend {
	case BackendGateway:
		if c.GatewayURL == "" {
			return fmt.Errorf("GATEWAY_URL is required")
		}
		if c.OpenAIAPIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY is required for the gateway backend")
		}
		if c.GatewayModel == "" {
			return fmt.Errorf("GATEWAY_MODEL is required")
		}
	case BackendAdapter:
		if c.LLMProvider == "" {
			return fmt.Errorf("LLM_PROVIDER is required")
		}
		// Local providers such as ollama need no key; the adapter reports
		// missing credentials for the others.
		if c.LLMModel == "" {
			return fmt.Errorf("LLM_MODEL is required")
		}
	default:
		return fmt.Errorf("CLASSIFIER_BACKEND must be one of: gateway, adapter")
	}

	if c.LLMTimeout <= 0 {
		return fmt.Errorf("LLM_TIMEOUT must be positive")
	}

	if c.RedisEnabled {
		if c.RedisAddr == "" {
			return fmt.Errorf("REDIS_ADDR is required when REDIS_ENABLED is set")
		}
		if c.CacheTTL < 0 {
			return fmt.Errorf("CACHE_TTL must be non-negative")
		}
	}

	if !isValidLogLevel(c.LogLevel) {
		return fmt.Errorf("LOG_LEVEL must be one of: debug, info, warn, error")
	}

	return nil
}

func isValidPort(port int) bool {
	return port > 0 && port <= 65535
}

// isValidLogLevel checks if the log level is valid
func isValidLogLevel(level string) bool {
	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	return validLevels[level]
}

// String returns a string representation of the config (without sensitive data)
func (c *Config) String() string {
	return fmt.Sprintf(
		"Config{Port=%d, HealthPort=%d, ClassifierBackend=%s, GatewayURL=%s, GatewayModel=%s, "+
			"LLMProvider=%s, LLMModel=%s, RedisEnabled=%v, RedisAddr=%s, RedisDB=%d, "+
			"CategoriesFile=%q, SanitizeHTML=%v, LogLevel=%s}",
		c.Port,
		c.HealthPort,
		c.ClassifierBackend,
		c.GatewayURL,
		c.GatewayModel,
		c.LLMProvider,
		c.LLMModel,
		c.RedisEnabled,
		c.RedisAddr,
		c.RedisDB,
		c.CategoriesFile,
		c.SanitizeHTML,
		c.LogLevel,
	)
}
