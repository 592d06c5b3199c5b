package refinement

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"maestro-hq/maestro/internal/providertest"
	"maestro-hq/maestro/pkg/providers"
	"maestro-hq/maestro/pkg/shaping"
	"maestro-hq/maestro/pkg/validation"
)

// goodJSON is long enough to saturate the completeness dimension.
var goodJSON = `{"name": "Ganymede", "radius_km": 2634, "detail": "` +
	strings.Repeat("largest moon ", 16) + `"}`

func testRequest(provider providers.ID) *RequestRecord {
	return &RequestRecord{
		RequestID: "req-1",
		Provider:  provider,
		Prompt:    "List the largest moon of Jupiter",
		Schema: validation.ExpectedSchema{
			Fields: map[string]string{"name": "", "radius_km": ""},
		},
		Format:           validation.FormatJSON,
		QualityThreshold: 0.7,
		MaxRefinements:   3,
		CreatedAt:        time.Now(),
	}
}

func newTestController(adapter providers.Adapter) *Controller {
	return NewController(adapter, shaping.NewShaper(), validation.NewValidator(), NewRuleSet(nil, nil))
}

func TestRunCompletesFirstTry(t *testing.T) {
	adapter := providertest.NewAdapter(providers.Claude, providertest.Step{Response: goodJSON})
	c := newTestController(adapter)

	result := c.Run(context.Background(), testRequest(providers.Claude))

	if result.Response.Status != StatusCompleted {
		t.Fatalf("status = %q, want completed (error: %s)", result.Response.Status, result.Response.ErrorMessage)
	}
	if result.Response.RefinementCount != 0 {
		t.Errorf("refinement count = %d, want 0", result.Response.RefinementCount)
	}
	if len(result.Attempts) != 0 {
		t.Errorf("attempts = %d, want 0", len(result.Attempts))
	}
	if result.Response.QualityScore < 0.7 {
		t.Errorf("quality = %v, want >= 0.7", result.Response.QualityScore)
	}
	if adapter.Calls() != 1 {
		t.Errorf("adapter calls = %d, want 1", adapter.Calls())
	}
}

func TestRunRecoversAfterRefinement(t *testing.T) {
	adapter := providertest.NewAdapter(providers.Claude,
		providertest.Step{Response: "Sure! Here is some prose instead of JSON."},
		providertest.Step{Response: goodJSON},
	)
	c := newTestController(adapter)

	result := c.Run(context.Background(), testRequest(providers.Claude))

	if result.Response.Status != StatusCompleted {
		t.Fatalf("status = %q, want completed", result.Response.Status)
	}
	if result.Response.RefinementCount != 1 {
		t.Errorf("refinement count = %d, want 1", result.Response.RefinementCount)
	}
	if len(result.Attempts) != 1 {
		t.Fatalf("attempts = %d, want 1", len(result.Attempts))
	}

	attempt := result.Attempts[0]
	if attempt.RefinementNumber != 1 {
		t.Errorf("refinement number = %d, want 1", attempt.RefinementNumber)
	}
	if attempt.Trigger != validation.TriggerFormatMismatch {
		t.Errorf("trigger = %q, want format_mismatch", attempt.Trigger)
	}
	if attempt.Action != string(shaping.ActionClarifyFormat) {
		t.Errorf("action = %q, want clarify_format", attempt.Action)
	}

	// The second call must carry the refinement prompt, not the original.
	prompts := adapter.Prompts()
	if prompts[1] != attempt.RefinementPrompt {
		t.Error("second adapter call did not use the refinement prompt")
	}
}

func TestRunAuthErrorAbortsWithoutAttempts(t *testing.T) {
	adapter := providertest.NewAdapter(providers.Gemini, providertest.Step{
		Err: &providers.AuthError{Provider: providers.Gemini, Message: "invalid key"},
	})
	c := newTestController(adapter)

	result := c.Run(context.Background(), testRequest(providers.Gemini))

	if result.Response.Status != StatusFailed {
		t.Fatalf("status = %q, want failed", result.Response.Status)
	}
	if result.Response.ErrorKind != providers.KindAuth {
		t.Errorf("error kind = %q, want auth", result.Response.ErrorKind)
	}
	if len(result.Attempts) != 0 {
		t.Errorf("attempts = %d, want 0 for an auth abort", len(result.Attempts))
	}
	if adapter.Calls() != 1 {
		t.Errorf("adapter calls = %d, want 1 (no retry on auth)", adapter.Calls())
	}
}

func TestRunRetriesTransportError(t *testing.T) {
	adapter := providertest.NewAdapter(providers.Claude,
		providertest.Step{Err: &providers.TransportError{Provider: providers.Claude, Cause: errors.New("connection reset")}},
		providertest.Step{Response: goodJSON},
	)
	c := newTestController(adapter)

	result := c.Run(context.Background(), testRequest(providers.Claude))

	if result.Response.Status != StatusCompleted {
		t.Fatalf("status = %q, want completed", result.Response.Status)
	}
	if len(result.Attempts) != 1 {
		t.Fatalf("attempts = %d, want 1", len(result.Attempts))
	}
	if result.Attempts[0].Trigger != validation.TriggerIncompleteResponse {
		t.Errorf("trigger = %q, want incomplete_response for a failed call", result.Attempts[0].Trigger)
	}
}

func TestRunExhaustsAttemptBudget(t *testing.T) {
	adapter := providertest.NewAdapter(providers.Claude,
		providertest.Step{Response: "never json"},
	)
	c := newTestController(adapter)

	req := testRequest(providers.Claude)
	result := c.Run(context.Background(), req)

	if result.Response.Status != StatusFailed {
		t.Fatalf("status = %q, want failed", result.Response.Status)
	}
	if adapter.Calls() != req.MaxRefinements {
		t.Errorf("adapter calls = %d, want %d", adapter.Calls(), req.MaxRefinements)
	}
	if len(result.Attempts) != req.MaxRefinements-1 {
		t.Errorf("attempts = %d, want %d", len(result.Attempts), req.MaxRefinements-1)
	}
	if !strings.Contains(result.Response.ErrorMessage, "below threshold") {
		t.Errorf("error message %q does not explain the quality failure", result.Response.ErrorMessage)
	}

	// Refinement numbers are 1-based and gap-free.
	for i, attempt := range result.Attempts {
		if attempt.RefinementNumber != i+1 {
			t.Errorf("attempt %d has refinement number %d", i, attempt.RefinementNumber)
		}
	}
}

func TestRunExpiredContext(t *testing.T) {
	adapter := providertest.NewAdapter(providers.Claude, providertest.Step{Response: goodJSON})
	c := newTestController(adapter)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result := c.Run(ctx, testRequest(providers.Claude))

	if result.Response.Status != StatusFailed {
		t.Fatalf("status = %q, want failed", result.Response.Status)
	}
	if result.Response.ErrorKind != providers.KindTimeout {
		t.Errorf("error kind = %q, want timeout", result.Response.ErrorKind)
	}
	if adapter.Calls() != 0 {
		t.Errorf("adapter calls = %d, want 0", adapter.Calls())
	}
}

func TestRunRateLimitPauseHonoursRetryAfter(t *testing.T) {
	adapter := providertest.NewAdapter(providers.Perplexity,
		providertest.Step{Err: &providers.RateLimitError{
			Provider:   providers.Perplexity,
			RetryAfter: 10 * time.Millisecond,
		}},
		providertest.Step{Response: goodJSON},
	)
	c := newTestController(adapter)

	start := time.Now()
	result := c.Run(context.Background(), testRequest(providers.Perplexity))

	if result.Response.Status != StatusCompleted {
		t.Fatalf("status = %q, want completed", result.Response.Status)
	}
	if elapsed := time.Since(start); elapsed < 10*time.Millisecond {
		t.Errorf("run returned after %s, expected a rate-limit pause", elapsed)
	}
}

func TestRunZeroBudgetFails(t *testing.T) {
	adapter := providertest.NewAdapter(providers.Claude, providertest.Step{Response: goodJSON})
	c := newTestController(adapter)

	req := testRequest(providers.Claude)
	req.MaxRefinements = 0
	result := c.Run(context.Background(), req)

	if result.Response.Status != StatusFailed {
		t.Fatalf("status = %q, want failed", result.Response.Status)
	}
	if adapter.Calls() != 0 {
		t.Errorf("adapter calls = %d, want 0", adapter.Calls())
	}
}
