package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		Provider:        ProviderAnthropic,
		AnthropicAPIKey: "sk-test",
		ChatPort:        3001,
		EcomPort:        3002,
		MaxRounds:       5,
	}
}

func TestValidate(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		require.NoError(t, validConfig().Validate())
	})

	t.Run("missing anthropic key", func(t *testing.T) {
		cfg := validConfig()
		cfg.AnthropicAPIKey = ""
		assert.ErrorIs(t, cfg.Validate(), ErrMissingAPIKey)
	})

	t.Run("openai provider checks its own key", func(t *testing.T) {
		cfg := validConfig()
		cfg.Provider = ProviderOpenAI
		assert.ErrorIs(t, cfg.Validate(), ErrMissingAPIKey)
		cfg.OpenAIAPIKey = "sk-test"
		assert.NoError(t, cfg.Validate())
	})

	t.Run("unknown provider", func(t *testing.T) {
		cfg := validConfig()
		cfg.Provider = "gemini"
		assert.ErrorIs(t, cfg.Validate(), ErrInvalidProvider)
	})

	t.Run("port range", func(t *testing.T) {
		cfg := validConfig()
		cfg.ChatPort = 0
		assert.ErrorIs(t, cfg.Validate(), ErrInvalidPort)
	})

	t.Run("round bound", func(t *testing.T) {
		cfg := validConfig()
		cfg.MaxRounds = 0
		assert.ErrorIs(t, cfg.Validate(), ErrInvalidMaxRounds)
	})
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("SHOPCHAT_ANTHROPIC_API_KEY", "sk-test")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ProviderAnthropic, cfg.Provider)
	assert.Equal(t, 5, cfg.MaxRounds)
	assert.Equal(t, 20, cfg.MaxMessages)
	assert.Equal(t, 3001, cfg.ChatPort)
	assert.Equal(t, "http://localhost:3002", cfg.EcommerceAPIURL)
}
