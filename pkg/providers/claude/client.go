// Package claude implements the provider adapter for Anthropic's Messages API.
package claude

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"maestro-hq/maestro/pkg/providers"
)

const (
	// DefaultVersion is the Anthropic API version to use
	DefaultVersion = "2023-06-01"

	// DefaultModel is used when no model is configured
	DefaultModel = "claude-sonnet-4-20250514"
)

// Adapter is the Claude provider adapter.
// It implements the providers.Adapter interface over Anthropic's Messages API.
type Adapter struct {
	*providers.HTTPAdapter
}

// NewAdapter creates a new Claude adapter instance.
func NewAdapter(config providers.AdapterConfig) (*Adapter, error) {
	config.Provider = providers.Claude

	if config.BaseURL == "" {
		config.BaseURL = "https://api.anthropic.com"
	}
	if config.APIKey == "" {
		return nil, &providers.ConfigError{
			Provider: providers.Claude,
			Field:    "api_key",
			Message:  "API key is required for Claude",
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

	slog.Info("Claude adapter initialized",
		"base_url", config.BaseURL,
		"model", config.Model,
	)

	return a, nil
}

// messagesRequest is the Anthropic Messages API request body.
type messagesRequest struct {
	Model     string    `json:"model"`
	MaxTokens int       `json:"max_tokens"`
	Messages  []message `json:"messages"`
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// messagesResponse is the Anthropic Messages API response body.
type messagesResponse struct {
	ID      string         `json:"id"`
	Model   string         `json:"model"`
	Content []contentBlock `json:"content"`
	Usage   struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

type contentBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// Send submits a prompt to Claude and returns the raw answer text.
func (a *Adapter) Send(ctx context.Context, prompt string) (string, time.Duration, error) {
	cfg := a.Config()

	req := &messagesRequest{
		Model:     cfg.Model,
		MaxTokens: cfg.MaxTokens,
		Messages:  []message{{Role: "user", Content: prompt}},
	}

	url := fmt.Sprintf("%s/v1/messages", cfg.BaseURL)
	headers := map[string]string{
		"x-api-key":         cfg.APIKey,
		"anthropic-version": DefaultVersion,
		"Content-Type":      "application/json",
	}

	start := time.Now()
	var resp messagesResponse
	if err := a.DoJSONRequest(ctx, "POST", url, req, &resp, headers); err != nil {
		return "", time.Since(start), err
	}
	latency := time.Since(start)

	var text string
	for _, block := range resp.Content {
		if block.Type == "text" {
			text += block.Text
		}
	}
	if text == "" {
		return "", latency, &providers.ParseError{
			Provider: providers.Claude,
			Cause:    fmt.Errorf("response contained no text content"),
		}
	}

	slog.Debug("completion request succeeded",
		"provider", providers.Claude,
		"model", resp.Model,
		"output_tokens", resp.Usage.OutputTokens,
		"latency", latency,
	)

	return text, latency, nil
}
