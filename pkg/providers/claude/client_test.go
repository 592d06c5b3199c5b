package claude

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"maestro-hq/maestro/pkg/providers"
)

func TestNewAdapterRequiresAPIKey(t *testing.T) {
	_, err := NewAdapter(providers.AdapterConfig{})

	var cfgErr *providers.ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("error = %v, want *ConfigError", err)
	}
	if cfgErr.Field != "api_key" {
		t.Errorf("field = %q, want api_key", cfgErr.Field)
	}
}

func TestNewAdapterDefaults(t *testing.T) {
	a, err := NewAdapter(providers.AdapterConfig{APIKey: "test-key"})
	if err != nil {
		t.Fatalf("NewAdapter failed: %v", err)
	}
	defer a.Close()

	cfg := a.Config()
	if cfg.BaseURL != "https://api.anthropic.com" {
		t.Errorf("base URL = %q, want the Anthropic default", cfg.BaseURL)
	}
	if cfg.Model != DefaultModel {
		t.Errorf("model = %q, want %q", cfg.Model, DefaultModel)
	}
	if cfg.MaxTokens != 4096 {
		t.Errorf("max tokens = %d, want 4096", cfg.MaxTokens)
	}
	if a.Provider() != providers.Claude {
		t.Errorf("provider = %q, want claude", a.Provider())
	}
}

func TestSend(t *testing.T) {
	var got messagesRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/messages" {
			t.Errorf("path = %q, want /v1/messages", r.URL.Path)
		}
		if r.Header.Get("x-api-key") != "test-key" {
			t.Errorf("x-api-key = %q, want test-key", r.Header.Get("x-api-key"))
		}
		if r.Header.Get("anthropic-version") != DefaultVersion {
			t.Errorf("anthropic-version = %q, want %q", r.Header.Get("anthropic-version"), DefaultVersion)
		}
		json.NewDecoder(r.Body).Decode(&got)

		json.NewEncoder(w).Encode(messagesResponse{
			ID:    "msg_01",
			Model: "claude-sonnet-4-20250514",
			Content: []contentBlock{
				{Type: "text", Text: "The sky appears "},
				{Type: "text", Text: "blue due to Rayleigh scattering."},
			},
		})
	}))
	defer server.Close()

	a, err := NewAdapter(providers.AdapterConfig{BaseURL: server.URL, APIKey: "test-key"})
	if err != nil {
		t.Fatalf("NewAdapter failed: %v", err)
	}
	defer a.Close()

	text, latency, err := a.Send(context.Background(), "Why is the sky blue?")
	if err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	if text != "The sky appears blue due to Rayleigh scattering." {
		t.Errorf("text = %q, text blocks must be concatenated", text)
	}
	if latency <= 0 {
		t.Errorf("latency = %v, want > 0", latency)
	}

	if len(got.Messages) != 1 || got.Messages[0].Role != "user" {
		t.Fatalf("request messages = %+v, want one user message", got.Messages)
	}
	if got.Messages[0].Content != "Why is the sky blue?" {
		t.Errorf("prompt = %q", got.Messages[0].Content)
	}
	if got.MaxTokens != 4096 {
		t.Errorf("max tokens = %d, want 4096", got.MaxTokens)
	}
}

func TestSendEmptyContent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(messagesResponse{
			Content: []contentBlock{{Type: "tool_use", Text: ""}},
		})
	}))
	defer server.Close()

	a, _ := NewAdapter(providers.AdapterConfig{BaseURL: server.URL, APIKey: "test-key"})
	defer a.Close()

	_, _, err := a.Send(context.Background(), "hello")

	var parseErr *providers.ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("error = %v, want *ParseError for empty content", err)
	}
}

func TestSendAuthFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error": {"type": "authentication_error"}}`, http.StatusUnauthorized)
	}))
	defer server.Close()

	a, _ := NewAdapter(providers.AdapterConfig{BaseURL: server.URL, APIKey: "bad-key"})
	defer a.Close()

	_, _, err := a.Send(context.Background(), "hello")

	if kind := providers.Classify(err); kind != providers.KindAuth {
		t.Errorf("Classify = %q, want auth", kind)
	}
}
