// Package llm provides the client for the shared local LLM used by the
// synthesizer, the response analyzer, and (optionally) the prompt shaper.
//
// The client speaks an Ollama-style /api/generate endpoint. It is safe for
// concurrent use; the underlying HTTP client pools connections.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// Generator is the local LLM boundary. The synthesizer requires it; the
// analyzer uses it for key-fact extraction; the shaper may use it to
// generate format examples.
type Generator interface {
	// Generate submits a prompt with an optional system prompt and returns
	// the generated text and the number of tokens generated.
	Generate(ctx context.Context, userPrompt, systemPrompt string, maxTokens int, temperature float64) (string, int, error)
}

// Config contains configuration for the local LLM client.
type Config struct {
	// BaseURL is the model server base URL.
	// Default: http://localhost:11434
	BaseURL string

	// Model is the model identifier to generate with
	Model string

	// Timeout is the per-request timeout.
	// Default: 120 seconds
	Timeout time.Duration
}

// Client is an HTTP client for a local Ollama-style model server.
type Client struct {
	config Config
	client *http.Client
	logger *slog.Logger
}

// NewClient creates a new local LLM client.
func NewClient(config Config) (*Client, error) {
	if config.BaseURL == "" {
		config.BaseURL = "http://localhost:11434"
	}
	if config.Model == "" {
		return nil, fmt.Errorf("llm: model is required")
	}
	if config.Timeout == 0 {
		config.Timeout = 120 * time.Second
	}

	return &Client{
		config: config,
		client: &http.Client{Timeout: config.Timeout},
		logger: slog.Default().With("component", "llm.client"),
	}, nil
}

type generateRequest struct {
	Model   string         `json:"model"`
	Prompt  string         `json:"prompt"`
	System  string         `json:"system,omitempty"`
	Stream  bool           `json:"stream"`
	Options map[string]any `json:"options,omitempty"`
}

type generateResponse struct {
	Response  string `json:"response"`
	Done      bool   `json:"done"`
	EvalCount int    `json:"eval_count"`
}

// Generate implements Generator.
func (c *Client) Generate(ctx context.Context, userPrompt, systemPrompt string, maxTokens int, temperature float64) (string, int, error) {
	body, err := json.Marshal(&generateRequest{
		Model:  c.config.Model,
		Prompt: userPrompt,
		System: systemPrompt,
		Stream: false,
		Options: map[string]any{
			"num_predict": maxTokens,
			"temperature": temperature,
		},
	})
	if err != nil {
		return "", 0, fmt.Errorf("llm: failed to marshal request: %w", err)
	}

	url := c.config.BaseURL + "/api/generate"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", 0, fmt.Errorf("llm: failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		return "", 0, fmt.Errorf("llm: generate request failed: %w", err)
	}
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", 0, fmt.Errorf("llm: failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", 0, fmt.Errorf("llm: generate returned status %d: %s", resp.StatusCode, string(respBytes))
	}

	var gen generateResponse
	if err := json.Unmarshal(respBytes, &gen); err != nil {
		return "", 0, fmt.Errorf("llm: failed to unmarshal response: %w", err)
	}

	c.logger.Debug("generation complete",
		"model", c.config.Model,
		"eval_count", gen.EvalCount,
		"latency", time.Since(start),
	)

	return gen.Response, gen.EvalCount, nil
}
