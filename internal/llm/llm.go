// Package llm turns natural-language questions into SQL through a pluggable
// text-generation provider.
package llm

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Provider defines the interface for text-generation integrations.
type Provider interface {
	// Complete sends prompt as a single user turn and returns the raw text.
	Complete(ctx context.Context, prompt string) (Completion, error)

	// Name returns the provider name for logging/debugging.
	Name() string
}

// Completion is the raw output of one provider call.
type Completion struct {
	Text   string
	Model  string
	Tokens int // Tokens used (for cost tracking), 0 when not reported
}

// Supported provider names.
const (
	ProviderGemini    = "gemini"
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

const defaultTimeout = 60 * time.Second

// Config holds provider configuration.
type Config struct {
	Provider string        // "gemini", "openai" or "anthropic"
	APIKey   string        // API key for the provider
	Model    string        // Model name (e.g., "gemini-1.5-flash", "gpt-4o")
	BaseURL  string        // Base URL (for OpenRouter, proxies, etc.)
	Timeout  time.Duration // HTTP client timeout, 0 = 60s
}

// NewProvider creates a provider based on configuration, applying the
// provider's default model and base URL.
func NewProvider(cfg Config) (Provider, error) {
	cfg.Provider = strings.ToLower(strings.TrimSpace(cfg.Provider))
	if cfg.Provider == "" {
		cfg.Provider = ProviderGemini
	}

	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("api key is required for provider %q", cfg.Provider)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")

	switch cfg.Provider {
	case ProviderGemini:
		if cfg.Model == "" {
			cfg.Model = "gemini-1.5-flash"
		}
		if cfg.BaseURL == "" {
			cfg.BaseURL = "https://generativelanguage.googleapis.com/v1beta"
		}
		return NewGeminiProvider(cfg), nil

	case ProviderOpenAI:
		if cfg.Model == "" {
			cfg.Model = "gpt-4o"
		}
		if cfg.BaseURL == "" {
			cfg.BaseURL = "https://api.openai.com/v1"
		}
		return NewOpenAIProvider(cfg), nil

	case ProviderAnthropic:
		if cfg.Model == "" {
			cfg.Model = "claude-sonnet-4-20250514"
		}
		if cfg.BaseURL == "" {
			cfg.BaseURL = "https://api.anthropic.com/v1"
		}
		return NewAnthropicProvider(cfg), nil

	default:
		return nil, fmt.Errorf("unknown LLM provider: %q (supported: gemini, openai, anthropic)", cfg.Provider)
	}
}

// apiError builds the error for a non-200 provider response, preferring the
// provider's own message.
func apiError(status int, message string) error {
	if message != "" {
		return fmt.Errorf("API error: %s", message)
	}
	return fmt.Errorf("API error: status %d", status)
}
