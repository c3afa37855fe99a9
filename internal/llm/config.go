// Package llm provides the language-model client abstraction used as the
// research oracle, with Gemini and OpenAI-compatible backends.
package llm

import "github.com/jonathan/research-analyzer/internal/config"

// ModelTier represents the complexity/capability level of a model
type ModelTier string

const (
	// TierLite is for short structured asks: query plans, keyword lists
	TierLite ModelTier = "lite"
	// TierStandard is for extraction over the aggregated corpus
	TierStandard ModelTier = "standard"
	// TierAdvanced is for the long-form synthesis narrative
	TierAdvanced ModelTier = "advanced"
)

// Provider represents an LLM provider
type Provider string

const (
	// ProviderGemini is the Google Gemini provider
	ProviderGemini Provider = "gemini"
	// ProviderOpenAI is any OpenAI-compatible chat completions endpoint
	// (OpenAI, Groq, local gateways)
	ProviderOpenAI Provider = "openai"
)

// DefaultTemperature matches the sampling used for every research ask.
const DefaultTemperature = 0.3

// Config holds the model configuration for the application
type Config struct {
	Provider    Provider
	Models      map[ModelTier]string
	BaseURL     string
	Temperature float64
}

// DefaultConfig returns the default configuration (Gemini)
func DefaultConfig() *Config {
	return DefaultGeminiConfig()
}

// DefaultGeminiConfig returns the default Gemini configuration
func DefaultGeminiConfig() *Config {
	return &Config{
		Provider: ProviderGemini,
		Models: map[ModelTier]string{
			TierLite:     "gemini-2.5-flash-lite",
			TierStandard: "gemini-2.5-flash",
			TierAdvanced: "gemini-2.5-pro",
		},
		Temperature: DefaultTemperature,
	}
}

// DefaultOpenAIConfig returns the default OpenAI-compatible configuration
func DefaultOpenAIConfig() *Config {
	return &Config{
		Provider: ProviderOpenAI,
		Models: map[ModelTier]string{
			TierLite:     "gpt-4o-mini",
			TierStandard: "gpt-4o-mini",
			TierAdvanced: "gpt-4o",
		},
		Temperature: DefaultTemperature,
	}
}

// FromSettings builds a Config from application settings. A configured model
// name pins every tier to that model.
func FromSettings(s config.LLMConfig) *Config {
	var cfg *Config
	if Provider(s.Provider) == ProviderOpenAI {
		cfg = DefaultOpenAIConfig()
	} else {
		cfg = DefaultGeminiConfig()
	}

	cfg.BaseURL = s.BaseURL
	if s.Temperature > 0 {
		cfg.Temperature = s.Temperature
	}
	if s.Model != "" {
		for tier := range cfg.Models {
			cfg.Models[tier] = s.Model
		}
	}
	return cfg
}

// GetModel returns the model name for a given tier
func (c *Config) GetModel(tier ModelTier) string {
	if model, ok := c.Models[tier]; ok {
		return model
	}
	// Fallback chain: try standard, then lite
	if model, ok := c.Models[TierStandard]; ok {
		return model
	}
	if model, ok := c.Models[TierLite]; ok {
		return model
	}
	return ""
}

// WithModel returns a new Config with a specific model for a tier
func (c *Config) WithModel(tier ModelTier, model string) *Config {
	newConfig := &Config{
		Provider:    c.Provider,
		Models:      make(map[ModelTier]string, len(c.Models)+1),
		BaseURL:     c.BaseURL,
		Temperature: c.Temperature,
	}
	for k, v := range c.Models {
		newConfig.Models[k] = v
	}
	newConfig.Models[tier] = model
	return newConfig
}
