package dispatch

import (
	"time"

	"maestro-hq/maestro/pkg/providers"
	"maestro-hq/maestro/pkg/refinement"
	"maestro-hq/maestro/pkg/synthesis"
	"maestro-hq/maestro/pkg/validation"
)

// ExecutionMode selects how the fan-out is scheduled.
type ExecutionMode string

// The execution modes.
const (
	ModeParallel      ExecutionMode = "parallel"
	ModeSequential    ExecutionMode = "sequential"
	ModePriorityBased ExecutionMode = "priority_based"
	ModeLoadBalanced  ExecutionMode = "load_balanced"
)

// Valid reports whether m names a known execution mode.
func (m ExecutionMode) Valid() bool {
	switch m {
	case ModeParallel, ModeSequential, ModePriorityBased, ModeLoadBalanced:
		return true
	}
	return false
}

// Request is the caller's input to Execute.
type Request struct {
	// Prompt is the user's original prompt
	Prompt string

	// Providers is the target provider set
	Providers []providers.ID

	// Schema is the expected answer shape
	Schema validation.ExpectedSchema

	// Format is the target output format
	Format validation.OutputFormat

	// Mode is the execution mode
	Mode ExecutionMode

	// Priority is the caller's base priority, 1..5
	Priority int

	// QualityThreshold is the accepting quality bar in [0,1]
	QualityThreshold float64

	// MaxRefinements bounds refinement attempts per provider, 1..10
	MaxRefinements int

	// Deadline is the wall-clock budget for the whole execution
	Deadline time.Duration
}

// ExecutionRecord is the complete outcome of one execution.
type ExecutionRecord struct {
	// ExecutionID is the unique execution identifier
	ExecutionID string

	// OriginalPrompt is the prompt as the caller supplied it
	OriginalPrompt string

	// Providers are the providers targeted after availability filtering
	Providers []providers.ID

	// Mode is the execution mode used
	Mode ExecutionMode

	// Schema and Format echo the caller's expectations
	Schema validation.ExpectedSchema
	Format validation.OutputFormat

	// Priority is the caller's base priority
	Priority int

	// CreatedAt and CompletedAt bound the execution
	CreatedAt   time.Time
	CompletedAt time.Time

	// ExecutionTime is CompletedAt minus CreatedAt
	ExecutionTime time.Duration

	// SuccessRate is completed responses over attempted providers, in [0,1]
	SuccessRate float64

	// PerProvider maps each attempted provider to its terminal response
	PerProvider map[providers.ID]*refinement.ResponseRecord

	// Requests and Attempts carry the per-provider records for persistence
	Requests []*refinement.RequestRecord
	Attempts []*refinement.AttemptRecord

	// Synthesis is the fused result over the completed responses
	Synthesis *synthesis.Result

	// PersistenceFailed flags that the store rejected this execution's
	// records; the execution itself still completed
	PersistenceFailed bool
}
