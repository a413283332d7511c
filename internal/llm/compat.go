package llm

import "fmt"

const (
	defaultOpenRouterBaseURL = "https://openrouter.ai/api/v1"
	defaultGroqBaseURL       = "https://api.groq.com/openai/v1"
	defaultCerebrasBaseURL   = "https://api.cerebras.ai/v1"
)

// NewCompatProvider creates a provider for a host that speaks the OpenAI
// chat completions API. name is used in error messages only.
func NewCompatProvider(name string, cfg CompatConfig, defaultBaseURL string) (*OpenAIProvider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%s API key is required", name)
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	return NewOpenAIProvider(OpenAIConfig{
		APIKey:  cfg.APIKey,
		Model:   cfg.Model,
		BaseURL: baseURL,
	})
}

// NewOpenRouterProvider creates a provider targeting the OpenRouter API.
func NewOpenRouterProvider(cfg CompatConfig) (*OpenAIProvider, error) {
	return NewCompatProvider("openrouter", cfg, defaultOpenRouterBaseURL)
}

// NewGroqProvider creates a provider targeting the Groq API.
func NewGroqProvider(cfg CompatConfig) (*OpenAIProvider, error) {
	return NewCompatProvider("groq", cfg, defaultGroqBaseURL)
}

// NewCerebrasProvider creates a provider targeting the Cerebras API.
func NewCerebrasProvider(cfg CompatConfig) (*OpenAIProvider, error) {
	return NewCompatProvider("cerebras", cfg, defaultCerebrasBaseURL)
}
