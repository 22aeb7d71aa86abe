package llm

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"google.golang.org/genai"
)

// GeminiClient implements Client against the Gemini API.
type GeminiClient struct {
	client *genai.Client
	model  string
}

// GeminiOption configures a GeminiClient.
type GeminiOption func(*genai.ClientConfig)

// WithGeminiEndpoint overrides the API base URL and HTTP client.
func WithGeminiEndpoint(baseURL string, hc *http.Client) GeminiOption {
	return func(cfg *genai.ClientConfig) {
		cfg.HTTPOptions.BaseURL = baseURL
		cfg.HTTPClient = hc
	}
}

// NewGeminiClient creates a client for model authenticated with apiKey.
func NewGeminiClient(ctx context.Context, apiKey, model string, opts ...GeminiOption) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}
	cfg := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	return &GeminiClient{client: client, model: model}, nil
}

// Complete sends prompt as a single user turn.
func (g *GeminiClient) Complete(ctx context.Context, prompt, systemInstruction string) (string, error) {
	config := &genai.GenerateContentConfig{}
	if systemInstruction != "" {
		config.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: systemInstruction}},
		}
	}

	contents := []*genai.Content{genai.NewContentFromText(prompt, genai.RoleUser)}

	slog.Debug("calling gemini", "model", g.model, "promptBytes", len(prompt))
	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, config)
	if err != nil {
		return "", fmt.Errorf("gemini %s: %w", g.model, err)
	}

	text := resp.Text()
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}
