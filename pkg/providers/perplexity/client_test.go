package perplexity

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
}

func TestSend(t *testing.T) {
	var got chatRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("path = %q, want /chat/completions", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Errorf("authorization = %q, want bearer token", r.Header.Get("Authorization"))
		}
		json.NewDecoder(r.Body).Decode(&got)

		w.Write([]byte(`{
			"id": "resp-1",
			"model": "sonar",
			"choices": [{"message": {"role": "assistant", "content": "Go 1.23 was released in August 2024."}, "finish_reason": "stop"}],
			"citations": ["https://go.dev/blog/go1.23", "https://go.dev/doc/go1.23"]
		}`))
	}))
	defer server.Close()

	a, err := NewAdapter(providers.AdapterConfig{BaseURL: server.URL, APIKey: "test-key"})
	if err != nil {
		t.Fatalf("NewAdapter failed: %v", err)
	}
	defer a.Close()

	text, _, err := a.Send(context.Background(), "When was Go 1.23 released?")
	if err != nil {
		t.Fatalf("Send failed: %v", err)
	}

	want := "Go 1.23 was released in August 2024.\n[1] https://go.dev/blog/go1.23\n[2] https://go.dev/doc/go1.23"
	if text != want {
		t.Errorf("text = %q, citations must be appended as numbered lines", text)
	}

	if got.Model != DefaultModel {
		t.Errorf("request model = %q, want %q", got.Model, DefaultModel)
	}
	if len(got.Messages) != 1 || got.Messages[0].Content != "When was Go 1.23 released?" {
		t.Errorf("request messages = %+v", got.Messages)
	}
}

func TestSendWithoutCitations(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices": [{"message": {"role": "assistant", "content": "Just an answer."}}]}`))
	}))
	defer server.Close()

	a, _ := NewAdapter(providers.AdapterConfig{BaseURL: server.URL, APIKey: "test-key"})
	defer a.Close()

	text, _, err := a.Send(context.Background(), "hello")
	if err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	if text != "Just an answer." {
		t.Errorf("text = %q, want the bare answer", text)
	}
}

func TestSendNoChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices": []}`))
	}))
	defer server.Close()

	a, _ := NewAdapter(providers.AdapterConfig{BaseURL: server.URL, APIKey: "test-key"})
	defer a.Close()

	_, _, err := a.Send(context.Background(), "hello")

	var parseErr *providers.ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("error = %v, want *ParseError for empty choices", err)
	}
}
