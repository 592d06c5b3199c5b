package refinement

import (
	"time"

	"maestro-hq/maestro/pkg/providers"
	"maestro-hq/maestro/pkg/validation"
)

// ResponseStatus is the lifecycle state of a per-provider response.
type ResponseStatus string

// The response statuses. Completed and failed are terminal; a record enters
// a terminal state exactly once and is immutable afterwards.
const (
	StatusPending          ResponseStatus = "pending"
	StatusProcessing       ResponseStatus = "processing"
	StatusCompleted        ResponseStatus = "completed"
	StatusRefinementNeeded ResponseStatus = "refinement_needed"
	StatusFailed           ResponseStatus = "failed"
)

// Terminal reports whether the status is terminal.
func (s ResponseStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// RequestRecord describes one (provider, prompt, schema) request as sent.
type RequestRecord struct {
	// RequestID is the unique request identifier
	RequestID string

	// Provider is the target provider
	Provider providers.ID

	// Prompt is the shaped prompt as sent on the first attempt
	Prompt string

	// Schema is the expected answer shape
	Schema validation.ExpectedSchema

	// Format is the target output format
	Format validation.OutputFormat

	// QualityThreshold is the accepting quality bar
	QualityThreshold float64

	// MaxRefinements bounds refinement attempts
	MaxRefinements int

	// CreatedAt is the record creation time
	CreatedAt time.Time
}

// AttemptRecord describes one refinement decision: why the previous answer
// failed and how the prompt was rewritten.
type AttemptRecord struct {
	// AttemptID is the unique attempt identifier
	AttemptID string

	// RequestID links to the owning request
	RequestID string

	// RefinementNumber is 1-based and strictly monotonic per request
	RefinementNumber int

	// Trigger is the dominant issue that drove this refinement
	Trigger validation.Trigger

	// Action is the corrective action the rule table selected
	Action string

	// RefinementPrompt is the rewritten prompt sent next
	RefinementPrompt string

	// ExpectedFix describes what the rewrite is meant to correct
	ExpectedFix string

	// RawSnippet is a truncated copy of the failed raw answer
	RawSnippet string

	// Success indicates whether the attempt's validation passed
	Success bool

	// QualityScore is the failed attempt's validator score
	QualityScore float64

	// Timestamp is the record creation time
	Timestamp time.Time
}

// ResponseRecord is the final per-provider outcome of a request.
type ResponseRecord struct {
	// ResponseID is the unique response identifier
	ResponseID string

	// RequestID links to the owning request
	RequestID string

	// Provider is the provider that produced the response
	Provider providers.ID

	// RawText is the last raw answer received; empty when the provider
	// never answered
	RawText string

	// Parsed is the validator's parsed value (nil on failure)
	Parsed any

	// Status is the lifecycle state
	Status ResponseStatus

	// RefinementCount is the number of refinements performed
	RefinementCount int

	// QualityScore is the final validator score in [0,1]
	QualityScore float64

	// ResponseTime is the final attempt's adapter latency
	ResponseTime time.Duration

	// ErrorKind is set when the response failed on an adapter error
	ErrorKind providers.ErrorKind

	// ErrorMessage is the failure detail (empty on success)
	ErrorMessage string

	// Timestamp is the record creation time
	Timestamp time.Time
}

// markTerminal moves the record into a terminal state. It is a no-op when
// the record is already terminal, which enforces terminal immutability.
func (r *ResponseRecord) markTerminal(status ResponseStatus) {
	if r.Status.Terminal() {
		return
	}
	r.Status = status
}
