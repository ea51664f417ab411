package llm

import (
	"context"
	"errors"
	"net/http"
)

const (
	anthropicAPIVersion = "2023-06-01"
	anthropicMaxTokens  = 1024
)

// AnthropicProvider implements the Provider interface for Anthropic's Messages API.
type AnthropicProvider struct {
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
}

// NewAnthropicProvider creates a new Anthropic provider.
func NewAnthropicProvider(cfg Config) *AnthropicProvider {
	return &AnthropicProvider{
		apiKey:  cfg.APIKey,
		model:   cfg.Model,
		baseURL: cfg.BaseURL,
		client:  &http.Client{Timeout: cfg.Timeout},
	}
}

// Name returns the provider name.
func (p *AnthropicProvider) Name() string {
	return ProviderAnthropic
}

// Complete sends the prompt to /messages and returns the first text block.
func (p *AnthropicProvider) Complete(ctx context.Context, prompt string) (Completion, error) {
	payload := anthropicRequest{
		Model:     p.model,
		MaxTokens: anthropicMaxTokens,
		Messages: []anthropicMessage{
			{Role: "user", Content: prompt},
		},
	}

	header := http.Header{}
	header.Set("x-api-key", p.apiKey)
	header.Set("anthropic-version", anthropicAPIVersion)

	var result anthropicResponse
	if err := postJSON(ctx, p.client, p.baseURL+"/messages", header, payload, &result); err != nil {
		return Completion{}, err
	}

	// Find the first text block
	var content string
	for _, block := range result.Content {
		if block.Type == "text" {
			content = block.Text
			break
		}
	}
	if content == "" {
		return Completion{}, errors.New("no text in response")
	}

	return Completion{
		Text:   content,
		Model:  p.model,
		Tokens: result.Usage.InputTokens + result.Usage.OutputTokens,
	}, nil
}

// Anthropic API request/response types

type anthropicRequest struct {
	Model       string             `json:"model"`
	Messages    []anthropicMessage `json:"messages"`
	MaxTokens   int                `json:"max_tokens"`
	Temperature float64            `json:"temperature"`
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicResponse struct {
	Content []anthropicContent `json:"content"`
	Usage   anthropicUsage     `json:"usage"`
}

type anthropicContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type anthropicUsage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}
