// Package local implements the provider adapter for a locally hosted model
// server speaking the Ollama generate API.
package local

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"maestro-hq/maestro/pkg/providers"
)

// DefaultModel is used when no model is configured.
const DefaultModel = "llama3.1"

// Adapter is the local LLM provider adapter.
// It implements the providers.Adapter interface against an Ollama-style
// /api/generate endpoint. No API key is required.
type Adapter struct {
	*providers.HTTPAdapter
}

// NewAdapter creates a new local adapter instance.
func NewAdapter(config providers.AdapterConfig) (*Adapter, error) {
	config.Provider = providers.Local

	if config.BaseURL == "" {
		config.BaseURL = "http://localhost:11434"
	}
	if config.Model == "" {
		config.Model = DefaultModel
	}
	if config.MaxTokens == 0 {
		config.MaxTokens = 4096
	}
	if config.MaxRetries == 0 {
		config.MaxRetries = 1
	}
	if config.MaxIdleConns == 0 {
		config.MaxIdleConns = 10
	}
	if config.MaxIdleConnsPerHost == 0 {
		config.MaxIdleConnsPerHost = 10
	}

	a := &Adapter{HTTPAdapter: providers.NewHTTPAdapter(config)}

	slog.Info("local adapter initialized",
		"base_url", config.BaseURL,
		"model", config.Model,
	)

	return a, nil
}

// generateRequest is the Ollama generate request body.
type generateRequest struct {
	Model   string         `json:"model"`
	Prompt  string         `json:"prompt"`
	Stream  bool           `json:"stream"`
	Options map[string]any `json:"options,omitempty"`
}

// generateResponse is the Ollama generate response body.
type generateResponse struct {
	Model     string `json:"model"`
	Response  string `json:"response"`
	Done      bool   `json:"done"`
	EvalCount int    `json:"eval_count"`
}

// Send submits a prompt to the local model server and returns the raw text.
func (a *Adapter) Send(ctx context.Context, prompt string) (string, time.Duration, error) {
	cfg := a.Config()

	req := &generateRequest{
		Model:  cfg.Model,
		Prompt: prompt,
		Stream: false,
		Options: map[string]any{
			"num_predict": cfg.MaxTokens,
		},
	}

	url := fmt.Sprintf("%s/api/generate", cfg.BaseURL)

	start := time.Now()
	var resp generateResponse
	if err := a.DoJSONRequest(ctx, "POST", url, req, &resp, nil); err != nil {
		return "", time.Since(start), err
	}
	latency := time.Since(start)

	if resp.Response == "" {
		return "", latency, &providers.ParseError{
			Provider: providers.Local,
			Cause:    fmt.Errorf("response contained no text"),
		}
	}

	slog.Debug("completion request succeeded",
		"provider", providers.Local,
		"model", resp.Model,
		"eval_count", resp.EvalCount,
		"latency", latency,
	)

	return resp.Response, latency, nil
}
