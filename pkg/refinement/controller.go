package refinement

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"maestro-hq/maestro/pkg/providers"
	"maestro-hq/maestro/pkg/shaping"
	"maestro-hq/maestro/pkg/validation"
)

// snippetLength caps the raw-response excerpt stored on attempt records.
const snippetLength = 200

// Controller runs the refinement loop for one (provider, request) pair.
// A controller is created per request and used once.
type Controller struct {
	adapter   providers.Adapter
	shaper    *shaping.Shaper
	validator *validation.Validator
	rules     *RuleSet
	logger    *slog.Logger
}

// NewController creates a controller bound to one adapter and a rule-table
// snapshot. The snapshot is immutable, so the controller's decisions are
// deterministic for the request's lifetime.
func NewController(adapter providers.Adapter, shaper *shaping.Shaper, validator *validation.Validator, rules *RuleSet) *Controller {
	return &Controller{
		adapter:   adapter,
		shaper:    shaper,
		validator: validator,
		rules:     rules,
		logger: slog.Default().With(
			"component", "refinement",
			"provider", adapter.Provider(),
		),
	}
}

// Result bundles the records produced by one controller run.
type Result struct {
	// Request is the request as sent
	Request *RequestRecord

	// Response is the terminal per-provider outcome
	Response *ResponseRecord

	// Attempts are the refinement decisions in order, 1..k with no gaps
	Attempts []*AttemptRecord
}

// Run executes the refinement loop until the answer meets the quality
// threshold, the attempt cap is reached, or an unrecoverable error occurs.
// The returned response record is always terminal. Run never panics across
// this boundary and never returns nil.
func (c *Controller) Run(ctx context.Context, req *RequestRecord) *Result {
	result := &Result{
		Request: req,
		Response: &ResponseRecord{
			ResponseID: uuid.NewString(),
			RequestID:  req.RequestID,
			Provider:   req.Provider,
			Status:     StatusProcessing,
			Timestamp:  time.Now(),
		},
	}

	prompt := req.Prompt

	for attempt := 1; attempt <= req.MaxRefinements; attempt++ {
		if err := ctx.Err(); err != nil {
			c.fail(result, providers.KindTimeout, "execution deadline exceeded")
			return result
		}

		raw, latency, err := c.send(ctx, prompt, attempt, req.MaxRefinements)
		if err != nil {
			kind := providers.Classify(err)
			if kind == providers.KindAuth {
				// Not retryable; abort with no attempt recorded.
				c.fail(result, kind, err.Error())
				return result
			}

			if kind == providers.KindRateLimited {
				c.pause(ctx, err)
			}

			if ctx.Err() != nil {
				c.fail(result, providers.KindTimeout, "execution deadline exceeded")
				return result
			}

			// Retryable failure: counts as an attempt and becomes a
			// synthetic incomplete_response issue.
			if attempt == req.MaxRefinements {
				c.fail(result, kind, err.Error())
				return result
			}
			issues := []validation.Issue{{
				Trigger: validation.TriggerIncompleteResponse,
				Message: fmt.Sprintf("provider call failed: %s", kind),
			}}
			prompt = c.refine(result, req, attempt, prompt, "", 0, issues, validation.TriggerIncompleteResponse)
			continue
		}

		vres := c.validator.Validate(raw, req.Schema, req.Format)

		if vres.Score >= req.QualityThreshold {
			result.Response.RawText = raw
			result.Response.Parsed = vres.Parsed
			result.Response.QualityScore = vres.Score
			result.Response.RefinementCount = attempt - 1
			result.Response.ResponseTime = latency
			result.Response.markTerminal(StatusCompleted)

			c.logger.Info("request completed",
				"request_id", req.RequestID,
				"refinements", attempt-1,
				"quality", vres.Score,
			)
			return result
		}

		if attempt == req.MaxRefinements {
			result.Response.RawText = raw
			result.Response.QualityScore = vres.Score
			result.Response.RefinementCount = attempt - 1
			result.Response.ResponseTime = latency
			c.fail(result, "", fmt.Sprintf("quality %.2f below threshold %.2f after %d attempts",
				vres.Score, req.QualityThreshold, attempt))
			return result
		}

		result.Response.Status = StatusRefinementNeeded
		prompt = c.refine(result, req, attempt, prompt, raw, vres.Score, vres.Issues, vres.DominantTrigger())
	}

	// MaxRefinements < 1; treat as an immediate failure.
	c.fail(result, "", "no attempts permitted")
	return result
}

// send performs one adapter call under the per-attempt deadline slice:
// remaining deadline divided by the attempts still allowed.
func (c *Controller) send(ctx context.Context, prompt string, attempt, maxRefinements int) (string, time.Duration, error) {
	deadline, ok := ctx.Deadline()
	if !ok {
		return c.adapter.Send(ctx, prompt)
	}

	remaining := time.Until(deadline)
	slice := remaining / time.Duration(maxRefinements-attempt+1)
	attemptCtx, cancel := context.WithTimeout(ctx, slice)
	defer cancel()

	return c.adapter.Send(attemptCtx, prompt)
}

// refine classifies the failure, selects a rule, rewrites the prompt, and
// records the attempt. Returns the next prompt.
func (c *Controller) refine(result *Result, req *RequestRecord, attempt int, prompt, raw string, quality float64, issues []validation.Issue, trigger validation.Trigger) string {
	action, expectedFix := c.rules.Select(trigger, req.Provider, attempt)
	refined := c.shaper.Refine(prompt, raw, issues, action, req.Schema, req.Format)

	result.Attempts = append(result.Attempts, &AttemptRecord{
		AttemptID:        uuid.NewString(),
		RequestID:        req.RequestID,
		RefinementNumber: attempt,
		Trigger:          trigger,
		Action:           string(action),
		RefinementPrompt: refined,
		ExpectedFix:      expectedFix,
		RawSnippet:       truncate(raw, snippetLength),
		Success:          false,
		QualityScore:     quality,
		Timestamp:        time.Now(),
	})

	c.logger.Debug("refinement scheduled",
		"request_id", req.RequestID,
		"attempt", attempt,
		"trigger", trigger,
		"action", action,
		"quality", quality,
	)

	return refined
}

// pause honours a provider-signalled throttle window, bounded by the context.
func (c *Controller) pause(ctx context.Context, err error) {
	wait := 2 * time.Second
	var rateErr *providers.RateLimitError
	if errors.As(err, &rateErr) && rateErr.RetryAfter > 0 {
		wait = rateErr.RetryAfter
	}

	c.logger.Debug("rate limited, pausing", "wait", wait)
	select {
	case <-ctx.Done():
	case <-time.After(wait):
	}
}

// fail moves the response into the failed terminal state.
func (c *Controller) fail(result *Result, kind providers.ErrorKind, message string) {
	result.Response.ErrorKind = kind
	result.Response.ErrorMessage = message
	result.Response.markTerminal(StatusFailed)

	c.logger.Warn("request failed",
		"request_id", result.Request.RequestID,
		"error_kind", kind,
		"error", message,
	)
}

func truncate(text string, max int) string {
	if len(text) <= max {
		return text
	}
	return text[:max]
}
