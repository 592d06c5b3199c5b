package llm

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestNewClientDefaults(t *testing.T) {
	c, err := NewClient(Config{Model: "llama3.1"})
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	if c.config.BaseURL != "http://localhost:11434" {
		t.Errorf("base URL = %q, want default", c.config.BaseURL)
	}
	if c.config.Timeout != 120*time.Second {
		t.Errorf("timeout = %v, want 120s", c.config.Timeout)
	}
}

func TestNewClientRequiresModel(t *testing.T) {
	if _, err := NewClient(Config{}); err == nil {
		t.Error("expected error for missing model")
	}
}

func TestGenerate(t *testing.T) {
	var got generateRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/generate" {
			t.Errorf("path = %q, want /api/generate", r.URL.Path)
		}
		if r.Header.Get("Content-Type") != "application/json" {
			t.Errorf("content type = %q", r.Header.Get("Content-Type"))
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("failed to decode request: %v", err)
		}
		json.NewEncoder(w).Encode(generateResponse{
			Response:  "Paris is the capital of France.",
			Done:      true,
			EvalCount: 9,
		})
	}))
	defer server.Close()

	c, err := NewClient(Config{BaseURL: server.URL, Model: "llama3.1"})
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}

	text, tokens, err := c.Generate(context.Background(), "What is the capital of France?", "Answer briefly.", 256, 0.2)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if text != "Paris is the capital of France." {
		t.Errorf("text = %q", text)
	}
	if tokens != 9 {
		t.Errorf("tokens = %d, want 9", tokens)
	}

	if got.Model != "llama3.1" {
		t.Errorf("request model = %q, want llama3.1", got.Model)
	}
	if got.Prompt != "What is the capital of France?" {
		t.Errorf("request prompt = %q", got.Prompt)
	}
	if got.System != "Answer briefly." {
		t.Errorf("request system = %q", got.System)
	}
	if got.Stream {
		t.Error("streaming must be disabled")
	}
	if got.Options["num_predict"] != float64(256) {
		t.Errorf("num_predict = %v, want 256", got.Options["num_predict"])
	}
	if got.Options["temperature"] != 0.2 {
		t.Errorf("temperature = %v, want 0.2", got.Options["temperature"])
	}
}

func TestGenerateServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not loaded", http.StatusInternalServerError)
	}))
	defer server.Close()

	c, _ := NewClient(Config{BaseURL: server.URL, Model: "llama3.1"})

	_, _, err := c.Generate(context.Background(), "hello", "", 64, 0)
	if err == nil {
		t.Fatal("expected error for 500 response")
	}
	if !strings.Contains(err.Error(), "status 500") {
		t.Errorf("error = %v, want status in message", err)
	}
}

func TestGenerateMalformedResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json at all"))
	}))
	defer server.Close()

	c, _ := NewClient(Config{BaseURL: server.URL, Model: "llama3.1"})

	if _, _, err := c.Generate(context.Background(), "hello", "", 64, 0); err == nil {
		t.Fatal("expected error for malformed body")
	}
}

func TestGenerateContextCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Drain the body so the server notices the client disconnect and
		// cancels the request context; otherwise Close deadlocks.
		io.Copy(io.Discard, r.Body)
		<-r.Context().Done()
	}))
	defer server.Close()

	c, _ := NewClient(Config{BaseURL: server.URL, Model: "llama3.1"})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	if _, _, err := c.Generate(ctx, "hello", "", 64, 0); err == nil {
		t.Fatal("expected error when the context expires")
	}
}
