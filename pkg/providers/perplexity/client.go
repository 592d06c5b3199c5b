// Package perplexity implements the provider adapter for Perplexity's
// OpenAI-compatible chat completions API.
package perplexity

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"maestro-hq/maestro/pkg/providers"
)

// DefaultModel is used when no model is configured.
const DefaultModel = "sonar"

// Adapter is the Perplexity provider adapter.
// It implements the providers.Adapter interface over the chat completions API.
type Adapter struct {
	*providers.HTTPAdapter
}

// NewAdapter creates a new Perplexity adapter instance.
func NewAdapter(config providers.AdapterConfig) (*Adapter, error) {
	config.Provider = providers.Perplexity

	if config.BaseURL == "" {
		config.BaseURL = "https://api.perplexity.ai"
	}
	if config.APIKey == "" {
		return nil, &providers.ConfigError{
			Provider: providers.Perplexity,
			Field:    "api_key",
			Message:  "API key is required for Perplexity",
		}
	}
	if config.Model == "" {
		config.Model = DefaultModel
	}
	if config.MaxTokens == 0 {
		config.MaxTokens = 4096
	}
	if config.MaxRetries == 0 {
		config.MaxRetries = 2
	}
	if config.MaxIdleConns == 0 {
		config.MaxIdleConns = 100
	}
	if config.MaxIdleConnsPerHost == 0 {
		config.MaxIdleConnsPerHost = 10
	}

	a := &Adapter{HTTPAdapter: providers.NewHTTPAdapter(config)}

	slog.Info("Perplexity adapter initialized",
		"base_url", config.BaseURL,
		"model", config.Model,
	)

	return a, nil
}

// chatRequest is the chat completions request body.
type chatRequest struct {
	Model     string        `json:"model"`
	Messages  []chatMessage `json:"messages"`
	MaxTokens int           `json:"max_tokens,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// chatResponse is the chat completions response body.
type chatResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Message      chatMessage `json:"message"`
		FinishReason string      `json:"finish_reason"`
	} `json:"choices"`
	Citations []string `json:"citations,omitempty"`
	Usage     struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

// Send submits a prompt to Perplexity and returns the raw answer text.
// Perplexity citations, when present, are appended as numbered source lines
// so downstream source extraction sees them.
func (a *Adapter) Send(ctx context.Context, prompt string) (string, time.Duration, error) {
	cfg := a.Config()

	req := &chatRequest{
		Model:     cfg.Model,
		Messages:  []chatMessage{{Role: "user", Content: prompt}},
		MaxTokens: cfg.MaxTokens,
	}

	url := fmt.Sprintf("%s/chat/completions", cfg.BaseURL)
	headers := map[string]string{
		"Authorization": "Bearer " + cfg.APIKey,
		"Content-Type":  "application/json",
	}

	start := time.Now()
	var resp chatResponse
	if err := a.DoJSONRequest(ctx, "POST", url, req, &resp, headers); err != nil {
		return "", time.Since(start), err
	}
	latency := time.Since(start)

	if len(resp.Choices) == 0 {
		return "", latency, &providers.ParseError{
			Provider: providers.Perplexity,
			Cause:    fmt.Errorf("response contained no choices"),
		}
	}

	text := resp.Choices[0].Message.Content
	if text == "" {
		return "", latency, &providers.ParseError{
			Provider: providers.Perplexity,
			Cause:    fmt.Errorf("choice contained no message content"),
		}
	}

	for i, citation := range resp.Citations {
		text += fmt.Sprintf("\n[%d] %s", i+1, citation)
	}

	slog.Debug("completion request succeeded",
		"provider", providers.Perplexity,
		"model", resp.Model,
		"total_tokens", resp.Usage.TotalTokens,
		"citations", len(resp.Citations),
		"latency", latency,
	)

	return text, latency, nil
}
