package llm

import (
	"context"
	"errors"
	"net/http"
)

// OpenAIProvider implements the Provider interface for OpenAI-compatible APIs.
// This works with OpenAI, OpenRouter, Together.ai, Groq, and other compatible services.
type OpenAIProvider struct {
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
}

// NewOpenAIProvider creates a new OpenAI-compatible provider.
func NewOpenAIProvider(cfg Config) *OpenAIProvider {
	return &OpenAIProvider{
		apiKey:  cfg.APIKey,
		model:   cfg.Model,
		baseURL: cfg.BaseURL,
		client:  &http.Client{Timeout: cfg.Timeout},
	}
}

// Name returns the provider name.
func (p *OpenAIProvider) Name() string {
	return ProviderOpenAI
}

// Complete sends the prompt to /chat/completions as a single user message.
func (p *OpenAIProvider) Complete(ctx context.Context, prompt string) (Completion, error) {
	payload := openAIRequest{
		Model: p.model,
		Messages: []openAIMessage{
			{Role: "user", Content: prompt},
		},
		Temperature: 0,
	}

	header := http.Header{}
	header.Set("Authorization", "Bearer "+p.apiKey)

	var result openAIResponse
	if err := postJSON(ctx, p.client, p.baseURL+"/chat/completions", header, payload, &result); err != nil {
		return Completion{}, err
	}
	if len(result.Choices) == 0 {
		return Completion{}, errors.New("no response from model")
	}

	return Completion{
		Text:   result.Choices[0].Message.Content,
		Model:  p.model,
		Tokens: result.Usage.TotalTokens,
	}, nil
}

// OpenAI API request/response types

type openAIRequest struct {
	Model       string          `json:"model"`
	Messages    []openAIMessage `json:"messages"`
	Temperature float64         `json:"temperature"`
}

type openAIMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openAIResponse struct {
	Choices []openAIChoice `json:"choices"`
	Usage   openAIUsage    `json:"usage"`
}

type openAIChoice struct {
	Message openAIMessage `json:"message"`
}

type openAIUsage struct {
	TotalTokens int `json:"total_tokens"`
}
