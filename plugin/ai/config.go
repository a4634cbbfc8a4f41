package ai

import (
	"errors"

	"github.com/hrygo/orbita/internal/profile"
)

// LLMConfig represents LLM configuration.
type LLMConfig struct {
	Provider          string  // openai, deepseek, siliconflow, ollama
	Model             string  // gpt-4o-mini
	APIKey            string
	BaseURL           string
	MaxTokens         int     // default: 1024
	Temperature       float32 // default: 0.2
	RequestsPerSecond float64 // default: 2
}

// NewLLMConfigFromProfile creates LLM config from profile.
func NewLLMConfigFromProfile(p *profile.Profile) *LLMConfig {
	return &LLMConfig{
		Provider:          p.LLMProvider,
		Model:             p.LLMModel,
		APIKey:            p.LLMAPIKey,
		BaseURL:           p.LLMBaseURL,
		MaxTokens:         p.LLMMaxTokens,
		Temperature:       p.LLMTemperature,
		RequestsPerSecond: p.LLMRequestsPerSecond,
	}
}

// Validate validates the configuration.
func (c *LLMConfig) Validate() error {
	switch c.Provider {
	case "openai", "deepseek", "siliconflow", "ollama":
	case "":
		return errors.New("LLM provider is required")
	default:
		return errors.New("unsupported LLM provider: " + c.Provider)
	}
	if c.Model == "" {
		return errors.New("LLM model is required")
	}
	if c.Provider != "ollama" && c.APIKey == "" {
		return errors.New("LLM API key is required")
	}
	return nil
}
