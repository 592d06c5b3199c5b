// Package gemini implements the provider adapter for Google's Generative
// Language API.
package gemini

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"maestro-hq/maestro/pkg/providers"
)

// DefaultModel is used when no model is configured.
const DefaultModel = "gemini-2.0-flash"

// Adapter is the Gemini provider adapter.
// It implements the providers.Adapter interface over the generateContent API.
type Adapter struct {
	*providers.HTTPAdapter
}

// NewAdapter creates a new Gemini adapter instance.
func NewAdapter(config providers.AdapterConfig) (*Adapter, error) {
	config.Provider = providers.Gemini

	if config.BaseURL == "" {
		config.BaseURL = "https://generativelanguage.googleapis.com"
	}
	if config.APIKey == "" {
		return nil, &providers.ConfigError{
			Provider: providers.Gemini,
			Field:    "api_key",
			Message:  "API key is required for Gemini",
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

	slog.Info("Gemini adapter initialized",
		"base_url", config.BaseURL,
		"model", config.Model,
	)

	return a, nil
}

// generateRequest is the generateContent request body.
type generateRequest struct {
	Contents         []content        `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generationConfig struct {
	MaxOutputTokens int `json:"maxOutputTokens,omitempty"`
}

// generateResponse is the generateContent response body.
type generateResponse struct {
	Candidates []struct {
		Content      content `json:"content"`
		FinishReason string  `json:"finishReason"`
	} `json:"candidates"`
	UsageMetadata struct {
		PromptTokenCount     int `json:"promptTokenCount"`
		CandidatesTokenCount int `json:"candidatesTokenCount"`
	} `json:"usageMetadata"`
}

// Send submits a prompt to Gemini and returns the raw answer text.
func (a *Adapter) Send(ctx context.Context, prompt string) (string, time.Duration, error) {
	cfg := a.Config()

	req := &generateRequest{
		Contents: []content{
			{Role: "user", Parts: []part{{Text: prompt}}},
		},
		GenerationConfig: generationConfig{MaxOutputTokens: cfg.MaxTokens},
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent", cfg.BaseURL, cfg.Model)
	headers := map[string]string{
		"x-goog-api-key": cfg.APIKey,
		"Content-Type":   "application/json",
	}

	start := time.Now()
	var resp generateResponse
	if err := a.DoJSONRequest(ctx, "POST", url, req, &resp, headers); err != nil {
		return "", time.Since(start), err
	}
	latency := time.Since(start)

	if len(resp.Candidates) == 0 {
		return "", latency, &providers.ParseError{
			Provider: providers.Gemini,
			Cause:    fmt.Errorf("response contained no candidates"),
		}
	}

	var text string
	for _, p := range resp.Candidates[0].Content.Parts {
		text += p.Text
	}
	if text == "" {
		return "", latency, &providers.ParseError{
			Provider: providers.Gemini,
			Cause:    fmt.Errorf("candidate contained no text parts"),
		}
	}

	slog.Debug("completion request succeeded",
		"provider", providers.Gemini,
		"model", cfg.Model,
		"output_tokens", resp.UsageMetadata.CandidatesTokenCount,
		"latency", latency,
	)

	return text, latency, nil
}
