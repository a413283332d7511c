package llm

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// Config holds all language-model provider configuration.
type Config struct {
	// Provider selects the primary provider.
	// Values: "anthropic", "openai", "gemini", "openrouter", "groq", "cerebras", "mock"
	Provider string

	// Fallback lists providers tried in order when the primary is unavailable.
	Fallback []string

	Anthropic  AnthropicConfig
	OpenAI     OpenAIConfig
	Gemini     GeminiConfig
	OpenRouter CompatConfig
	Groq       CompatConfig
	Cerebras   CompatConfig
	Retry      RetryConfig

	// Timeout bounds a single request including retries. Default: 60s.
	Timeout time.Duration
}

// AnthropicConfig holds Anthropic-specific configuration.
type AnthropicConfig struct {
	APIKey  string
	Model   string // Default: "claude-haiku"
	BaseURL string
}

// OpenAIConfig holds OpenAI-specific configuration.
type OpenAIConfig struct {
	APIKey  string
	Model   string // Default: "gpt-4o-mini"
	BaseURL string
}

// GeminiConfig holds Gemini-specific configuration.
type GeminiConfig struct {
	APIKey  string
	Model   string // Default: "gemini-flash"
	BaseURL string
}

// CompatConfig configures a host exposing an OpenAI-compatible API.
type CompatConfig struct {
	APIKey  string
	Model   string
	BaseURL string
}

// RetryConfig configures retry behavior for transient failures.
type RetryConfig struct {
	MaxAttempts int
	InitialWait time.Duration
	MaxWait     time.Duration
	Multiplier  float64
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Provider: "anthropic",
		Anthropic: AnthropicConfig{
			Model: "claude-haiku",
		},
		OpenAI: OpenAIConfig{
			Model: "gpt-4o-mini",
		},
		Gemini: GeminiConfig{
			Model: "gemini-flash",
		},
		OpenRouter: CompatConfig{
			Model:   "google/gemini-2.0-flash-exp",
			BaseURL: defaultOpenRouterBaseURL,
		},
		Groq: CompatConfig{
			Model:   "llama-3.3-70b-versatile",
			BaseURL: defaultGroqBaseURL,
		},
		Cerebras: CompatConfig{
			Model:   "llama-3.3-70b",
			BaseURL: defaultCerebrasBaseURL,
		},
		Retry: RetryConfig{
			MaxAttempts: 3,
			InitialWait: 1 * time.Second,
			MaxWait:     10 * time.Second,
			Multiplier:  2.0,
		},
		Timeout: 60 * time.Second,
	}
}

// ConfigFromEnv builds a Config from TUTORLY_* environment variables,
// falling back to defaults for unset values.
func ConfigFromEnv() Config {
	cfg := DefaultConfig()

	setString(&cfg.Provider, "TUTORLY_LLM_PROVIDER")
	if f := os.Getenv("TUTORLY_LLM_FALLBACK"); f != "" {
		cfg.Fallback = splitList(f)
	}
	if t := os.Getenv("TUTORLY_LLM_TIMEOUT"); t != "" {
		if d, err := time.ParseDuration(t); err == nil {
			cfg.Timeout = d
		}
	}

	setString(&cfg.Anthropic.APIKey, "TUTORLY_ANTHROPIC_API_KEY")
	setString(&cfg.Anthropic.Model, "TUTORLY_ANTHROPIC_MODEL")

	setString(&cfg.OpenAI.APIKey, "TUTORLY_OPENAI_API_KEY")
	setString(&cfg.OpenAI.Model, "TUTORLY_OPENAI_MODEL")
	setString(&cfg.OpenAI.BaseURL, "TUTORLY_OPENAI_BASE_URL")

	setString(&cfg.Gemini.APIKey, "TUTORLY_GEMINI_API_KEY")
	setString(&cfg.Gemini.Model, "TUTORLY_GEMINI_MODEL")

	setString(&cfg.OpenRouter.APIKey, "TUTORLY_OPENROUTER_API_KEY")
	setString(&cfg.OpenRouter.Model, "TUTORLY_OPENROUTER_MODEL")

	setString(&cfg.Groq.APIKey, "TUTORLY_GROQ_API_KEY")
	setString(&cfg.Groq.Model, "TUTORLY_GROQ_MODEL")

	setString(&cfg.Cerebras.APIKey, "TUTORLY_CEREBRAS_API_KEY")
	setString(&cfg.Cerebras.Model, "TUTORLY_CEREBRAS_MODEL")

	return cfg
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// DiscoverConfig probes the standard API key variables in priority order
// (Gemini, OpenAI, Anthropic, OpenRouter, Groq, Cerebras). The first key
// found selects the primary provider; every other key found becomes a
// fallback. Returns (Config{}, false) if none is set.
func DiscoverConfig() (Config, bool) {
	cfg := DefaultConfig()

	probes := []struct {
		name string
		env  string
		dst  *string
	}{
		{"gemini", "GEMINI_API_KEY", &cfg.Gemini.APIKey},
		{"openai", "OPENAI_API_KEY", &cfg.OpenAI.APIKey},
		{"anthropic", "ANTHROPIC_API_KEY", &cfg.Anthropic.APIKey},
		{"openrouter", "OPENROUTER_API_KEY", &cfg.OpenRouter.APIKey},
		{"groq", "GROQ_API_KEY", &cfg.Groq.APIKey},
		{"cerebras", "CEREBRAS_API_KEY", &cfg.Cerebras.APIKey},
	}

	var found []string
	for _, p := range probes {
		if k := os.Getenv(p.env); k != "" {
			*p.dst = k
			found = append(found, p.name)
		}
	}
	if len(found) == 0 {
		return Config{}, false
	}

	cfg.Provider = found[0]
	cfg.Fallback = found[1:]
	return cfg, true
}

// Validate checks that the primary and every fallback provider have their
// API key set.
func (c Config) Validate() error {
	if err := c.validateProvider(c.Provider); err != nil {
		return err
	}
	for _, name := range c.Fallback {
		if err := c.validateProvider(name); err != nil {
			return fmt.Errorf("fallback: %w", err)
		}
	}
	return nil
}

func (c Config) validateProvider(name string) error {
	var key string
	switch name {
	case "anthropic":
		key = c.Anthropic.APIKey
	case "openai":
		key = c.OpenAI.APIKey
	case "gemini":
		key = c.Gemini.APIKey
	case "openrouter":
		key = c.OpenRouter.APIKey
	case "groq":
		key = c.Groq.APIKey
	case "cerebras":
		key = c.Cerebras.APIKey
	case "mock":
		return nil
	default:
		return fmt.Errorf("unknown LLM provider: %q", name)
	}
	if key == "" {
		return fmt.Errorf("TUTORLY_%s_API_KEY is required for the %s provider", strings.ToUpper(name), name)
	}
	return nil
}
