package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"sync"
	"time"
)

// HTTPAdapter is the base implementation for HTTP-based provider adapters.
// It provides connection pooling, retry logic, timeout handling, and health
// tracking.
//
// Concrete adapters (claude, gemini, perplexity, local) embed this struct and
// implement the Adapter interface on top of DoRequest / DoJSONRequest.
type HTTPAdapter struct {
	// config contains the adapter configuration
	config AdapterConfig

	// client is the HTTP client with connection pooling
	client *http.Client

	// health tracks the adapter's health status
	health Health

	// healthMu protects concurrent access to health status
	healthMu sync.RWMutex
}

// NewHTTPAdapter creates a new base HTTP adapter with connection pooling.
func NewHTTPAdapter(config AdapterConfig) *HTTPAdapter {
	transport := &http.Transport{
		MaxIdleConns:        config.MaxIdleConns,
		MaxIdleConnsPerHost: config.MaxIdleConnsPerHost,
		IdleConnTimeout:     config.IdleConnTimeout,
		DisableCompression:  false,
		ForceAttemptHTTP2:   true,
	}

	client := &http.Client{
		Transport: transport,
		Timeout:   config.Timeout,
	}

	return &HTTPAdapter{
		config: config,
		client: client,
		health: Health{
			IsHealthy:   true, // Start optimistic
			LastCheck:   time.Now(),
			LastSuccess: time.Now(),
		},
	}
}

// Provider returns the provider this adapter reaches.
func (a *HTTPAdapter) Provider() ID {
	return a.config.Provider
}

// Config returns the adapter's configuration.
func (a *HTTPAdapter) Config() AdapterConfig {
	return a.config
}

// IsHealthy returns the current health status.
func (a *HTTPAdapter) IsHealthy() bool {
	a.healthMu.RLock()
	defer a.healthMu.RUnlock()
	return a.health.IsHealthy
}

// GetHealth returns detailed health information.
func (a *HTTPAdapter) GetHealth() Health {
	a.healthMu.RLock()
	defer a.healthMu.RUnlock()
	return a.health
}

// updateHealth updates the adapter's health status after a request.
func (a *HTTPAdapter) updateHealth(success bool, err error) {
	a.healthMu.Lock()
	defer a.healthMu.Unlock()

	a.health.LastCheck = time.Now()

	if success {
		a.health.IsHealthy = true
		a.health.ConsecutiveFailures = 0
		a.health.LastError = nil
		a.health.LastSuccess = time.Now()
		return
	}

	a.health.ConsecutiveFailures++
	a.health.LastError = err

	// Mark unhealthy after 3 consecutive failures
	if a.health.ConsecutiveFailures >= 3 {
		a.health.IsHealthy = false
		slog.Warn("provider marked unhealthy",
			"provider", a.config.Provider,
			"consecutive_failures", a.health.ConsecutiveFailures,
			"error", err,
		)
	}
}

// recordRequest records request totals.
func (a *HTTPAdapter) recordRequest(success bool) {
	a.healthMu.Lock()
	defer a.healthMu.Unlock()

	a.health.TotalRequests++
	if !success {
		a.health.FailedRequests++
	}
}

// DoRequest performs an HTTP request with retry logic and timeout handling.
// Transient errors (network failures, 5xx) are retried with exponential
// backoff up to the configured retry budget. Auth and rate-limit responses
// are returned immediately as typed errors.
func (a *HTTPAdapter) DoRequest(ctx context.Context, method, url string, body []byte, headers map[string]string) (*http.Response, error) {
	var lastErr error

	for attempt := 0; attempt <= a.config.MaxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(math.Pow(2, float64(attempt-1))) * time.Second
			slog.Debug("retrying request",
				"provider", a.config.Provider,
				"attempt", attempt,
				"max_retries", a.config.MaxRetries,
				"backoff", backoff,
			)

			select {
			case <-ctx.Done():
				return nil, &TimeoutError{Provider: a.config.Provider, Timeout: a.config.Timeout}
			case <-time.After(backoff):
			}
		}

		var bodyReader io.Reader
		if body != nil {
			bodyReader = bytes.NewReader(body)
		}

		req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}

		for key, value := range headers {
			req.Header.Set(key, value)
		}
		if req.Header.Get("Content-Type") == "" && body != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		slog.Debug("sending request to provider",
			"provider", a.config.Provider,
			"method", method,
			"url", url,
		)

		resp, err := a.client.Do(req)
		if err != nil {
			a.recordRequest(false)

			if ctx.Err() != nil {
				// Context cancelled or deadline hit - don't retry
				return nil, &TimeoutError{Provider: a.config.Provider, Timeout: a.config.Timeout}
			}

			lastErr = &TransportError{Provider: a.config.Provider, Cause: err}
			slog.Warn("request failed, will retry",
				"provider", a.config.Provider,
				"attempt", attempt+1,
				"error", err,
			)
			continue
		}

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			a.recordRequest(true)
			a.updateHealth(true, nil)
			return resp, nil
		}

		errorBody, _ := io.ReadAll(resp.Body)
		resp.Body.Close()

		switch resp.StatusCode {
		case http.StatusUnauthorized, http.StatusForbidden:
			// Authentication error - don't retry
			a.recordRequest(false)
			a.updateHealth(false, fmt.Errorf("authentication failed"))
			return nil, &AuthError{
				Provider: a.config.Provider,
				Message:  string(errorBody),
			}

		case http.StatusTooManyRequests:
			// Rate limit - the caller decides whether to honour retry-after
			a.recordRequest(false)
			return nil, &RateLimitError{
				Provider:   a.config.Provider,
				RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
				Message:    string(errorBody),
			}

		case http.StatusBadRequest:
			// Bad request - don't retry
			a.recordRequest(false)
			return nil, &ProviderError{
				Provider:   a.config.Provider,
				StatusCode: resp.StatusCode,
				Message:    string(errorBody),
			}

		default:
			// Server error (5xx) or other error - retry
			lastErr = &ProviderError{
				Provider:   a.config.Provider,
				StatusCode: resp.StatusCode,
				Message:    string(errorBody),
			}
			a.recordRequest(false)

			slog.Warn("request returned error status, will retry",
				"provider", a.config.Provider,
				"status", resp.StatusCode,
				"attempt", attempt+1,
			)
		}
	}

	// All retries exhausted
	a.updateHealth(false, lastErr)
	return nil, lastErr
}

// DoJSONRequest performs a JSON request and decodes the response.
func (a *HTTPAdapter) DoJSONRequest(ctx context.Context, method, url string, reqBody interface{}, respBody interface{}, headers map[string]string) error {
	var bodyBytes []byte
	var err error
	if reqBody != nil {
		bodyBytes, err = json.Marshal(reqBody)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
	}

	resp, err := a.DoRequest(ctx, method, url, bodyBytes, headers)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	responseBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return &ParseError{
			Provider: a.config.Provider,
			Cause:    fmt.Errorf("failed to read response: %w", err),
		}
	}

	if respBody != nil && len(responseBytes) > 0 {
		if err := json.Unmarshal(responseBytes, respBody); err != nil {
			return &ParseError{
				Provider:    a.config.Provider,
				RawResponse: string(responseBytes),
				Cause:       fmt.Errorf("failed to unmarshal response: %w", err),
			}
		}
	}

	return nil
}

// Close closes idle connections held by the adapter.
func (a *HTTPAdapter) Close() error {
	a.client.CloseIdleConnections()
	slog.Info("adapter closed", "provider", a.config.Provider)
	return nil
}

// parseRetryAfter parses the Retry-After header value.
// It supports both delay-seconds and HTTP-date formats.
func parseRetryAfter(header string) time.Duration {
	if header == "" {
		return 0
	}

	var seconds int
	if _, err := fmt.Sscanf(header, "%d", &seconds); err == nil {
		return time.Duration(seconds) * time.Second
	}

	if t, err := http.ParseTime(header); err == nil {
		return time.Until(t)
	}

	return 0
}
