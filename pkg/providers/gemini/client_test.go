package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
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
	var got generateRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, ":generateContent") {
			t.Errorf("path = %q, want generateContent endpoint", r.URL.Path)
		}
		if !strings.Contains(r.URL.Path, DefaultModel) {
			t.Errorf("path = %q, want model in path", r.URL.Path)
		}
		if r.Header.Get("x-goog-api-key") != "test-key" {
			t.Errorf("x-goog-api-key = %q, want test-key", r.Header.Get("x-goog-api-key"))
		}
		json.NewDecoder(r.Body).Decode(&got)

		json.NewEncoder(w).Encode(generateResponse{
			Candidates: []struct {
				Content      content `json:"content"`
				FinishReason string  `json:"finishReason"`
			}{
				{
					Content: content{
						Role:  "model",
						Parts: []part{{Text: "Water boils at "}, {Text: "100 degrees Celsius."}},
					},
					FinishReason: "STOP",
				},
			},
		})
	}))
	defer server.Close()

	a, err := NewAdapter(providers.AdapterConfig{BaseURL: server.URL, APIKey: "test-key"})
	if err != nil {
		t.Fatalf("NewAdapter failed: %v", err)
	}
	defer a.Close()

	text, _, err := a.Send(context.Background(), "At what temperature does water boil?")
	if err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	if text != "Water boils at 100 degrees Celsius." {
		t.Errorf("text = %q, parts must be concatenated", text)
	}

	if len(got.Contents) != 1 || len(got.Contents[0].Parts) != 1 {
		t.Fatalf("request contents = %+v, want one part", got.Contents)
	}
	if got.Contents[0].Parts[0].Text != "At what temperature does water boil?" {
		t.Errorf("prompt = %q", got.Contents[0].Parts[0].Text)
	}
	if got.GenerationConfig.MaxOutputTokens != 4096 {
		t.Errorf("max output tokens = %d, want 4096", got.GenerationConfig.MaxOutputTokens)
	}
}

func TestSendNoCandidates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"candidates": []}`))
	}))
	defer server.Close()

	a, _ := NewAdapter(providers.AdapterConfig{BaseURL: server.URL, APIKey: "test-key"})
	defer a.Close()

	_, _, err := a.Send(context.Background(), "hello")

	var parseErr *providers.ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("error = %v, want *ParseError for empty candidates", err)
	}
}

func TestSendRateLimited(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "10")
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer server.Close()

	a, _ := NewAdapter(providers.AdapterConfig{BaseURL: server.URL, APIKey: "test-key"})
	defer a.Close()

	_, _, err := a.Send(context.Background(), "hello")

	if kind := providers.Classify(err); kind != providers.KindRateLimited {
		t.Errorf("Classify = %q, want rate_limited", kind)
	}
}
