// Package config loads application configuration with multi-source
// priority: environment variables override the config file, which overrides
// defaults.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/viper"
)

var (
	// ErrMissingAPIKey indicates no model backend API key was provided.
	ErrMissingAPIKey = errors.New("missing API key")

	// ErrInvalidProvider indicates the model provider is not supported.
	ErrInvalidProvider = errors.New("invalid provider")

	// ErrInvalidPort indicates a listen port is out of range.
	ErrInvalidPort = errors.New("invalid port")

	// ErrInvalidMaxRounds indicates the tool round bound is out of range.
	ErrInvalidMaxRounds = errors.New("invalid max rounds")
)

// Model provider identifiers used in Config.Provider.
const (
	ProviderAnthropic = "anthropic"
	ProviderOpenAI    = "openai"
)

// Config stores application configuration.
type Config struct {
	// Model backend
	Provider        string  `mapstructure:"provider"`
	ModelName       string  `mapstructure:"model_name"`
	Temperature     float64 `mapstructure:"temperature"`
	MaxTokens       int     `mapstructure:"max_tokens"`
	AnthropicAPIKey string  `mapstructure:"anthropic_api_key"`
	OpenAIAPIKey    string  `mapstructure:"openai_api_key"`

	// Turn loop
	MaxRounds   int `mapstructure:"max_rounds"`
	MaxMessages int `mapstructure:"max_messages"`

	// Sessions
	SessionTTL    time.Duration `mapstructure:"session_ttl"`
	SweepInterval time.Duration `mapstructure:"sweep_interval"`

	// HTTP surfaces
	ChatPort int `mapstructure:"chat_port"`
	EcomPort int `mapstructure:"ecom_port"`

	// Retrieval
	QdrantURL      string `mapstructure:"qdrant_url"`
	RetrievalLimit int    `mapstructure:"retrieval_limit"`

	// MCP tool server
	MCPCommand      string   `mapstructure:"mcp_command"`
	MCPArgs         []string `mapstructure:"mcp_args"`
	EcommerceAPIURL string   `mapstructure:"ecommerce_api_url"`
}

// Load reads configuration from shopchat.yaml in the working directory (if
// present) and SHOPCHAT_* environment variables.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("shopchat")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	setDefaults(v)

	v.SetEnvPrefix("SHOPCHAT")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("provider", ProviderAnthropic)
	v.SetDefault("anthropic_api_key", "")
	v.SetDefault("openai_api_key", "")
	v.SetDefault("model_name", "claude-haiku-4-5-20251001")
	v.SetDefault("temperature", 0.7)
	v.SetDefault("max_tokens", 1024)

	v.SetDefault("max_rounds", 5)
	v.SetDefault("max_messages", 20)

	v.SetDefault("session_ttl", 30*time.Minute)
	v.SetDefault("sweep_interval", 5*time.Minute)

	v.SetDefault("chat_port", 3001)
	v.SetDefault("ecom_port", 3002)

	v.SetDefault("qdrant_url", "")
	v.SetDefault("retrieval_limit", 15)

	v.SetDefault("mcp_command", "")
	v.SetDefault("mcp_args", []string{})
	v.SetDefault("ecommerce_api_url", "http://localhost:3002")
}

// Validate checks cross-field consistency. It is called by Load; callers
// constructing a Config by hand should call it themselves.
func (c *Config) Validate() error {
	switch c.Provider {
	case ProviderAnthropic:
		if c.AnthropicAPIKey == "" {
			return fmt.Errorf("%w: anthropic_api_key (SHOPCHAT_ANTHROPIC_API_KEY)", ErrMissingAPIKey)
		}
	case ProviderOpenAI:
		if c.OpenAIAPIKey == "" {
			return fmt.Errorf("%w: openai_api_key (SHOPCHAT_OPENAI_API_KEY)", ErrMissingAPIKey)
		}
	default:
		return fmt.Errorf("%w: %q (want %q or %q)", ErrInvalidProvider, c.Provider, ProviderAnthropic, ProviderOpenAI)
	}

	for _, port := range []int{c.ChatPort, c.EcomPort} {
		if port < 1 || port > 65535 {
			return fmt.Errorf("%w: %d", ErrInvalidPort, port)
		}
	}

	if c.MaxRounds < 1 || c.MaxRounds > 25 {
		return fmt.Errorf("%w: %d (want 1..25)", ErrInvalidMaxRounds, c.MaxRounds)
	}
	return nil
}
