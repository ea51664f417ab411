package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// GeminiProvider implements the Provider interface for the Google
// Generative Language API.
type GeminiProvider struct {
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
}

// NewGeminiProvider creates a new Gemini provider.
func NewGeminiProvider(cfg Config) *GeminiProvider {
	return &GeminiProvider{
		apiKey:  cfg.APIKey,
		model:   cfg.Model,
		baseURL: cfg.BaseURL,
		client:  &http.Client{Timeout: cfg.Timeout},
	}
}

// Name returns the provider name.
func (p *GeminiProvider) Name() string {
	return ProviderGemini
}

// Complete calls models/{model}:generateContent and concatenates the text
// parts of the first candidate.
func (p *GeminiProvider) Complete(ctx context.Context, prompt string) (Completion, error) {
	payload := geminiRequest{
		Contents: []geminiContent{
			{Role: "user", Parts: []geminiPart{{Text: prompt}}},
		},
	}

	header := http.Header{}
	header.Set("x-goog-api-key", p.apiKey)

	endpoint := p.baseURL + "/models/" + url.PathEscape(p.model) + ":generateContent"
	var result geminiResponse
	if err := postJSON(ctx, p.client, endpoint, header, payload, &result); err != nil {
		return Completion{}, err
	}
	if len(result.Candidates) == 0 {
		if reason := result.PromptFeedback.BlockReason; reason != "" {
			return Completion{}, fmt.Errorf("prompt blocked: %s", reason)
		}
		return Completion{}, errors.New("no response from model")
	}

	var text strings.Builder
	for _, part := range result.Candidates[0].Content.Parts {
		text.WriteString(part.Text)
	}

	return Completion{
		Text:   text.String(),
		Model:  p.model,
		Tokens: result.UsageMetadata.TotalTokenCount,
	}, nil
}

// Gemini API request/response types

type geminiRequest struct {
	Contents []geminiContent `json:"contents"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
	PromptFeedback struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback"`
	UsageMetadata struct {
		TotalTokenCount int `json:"totalTokenCount"`
	} `json:"usageMetadata"`
}
