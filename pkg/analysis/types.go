package analysis

import (
	"time"

	"maestro-hq/maestro/pkg/providers"
	"maestro-hq/maestro/pkg/refinement"
)

// ContentType classifies what kind of answer a provider produced.
type ContentType string

// The content types, in cascade order.
const (
	ContentTechnical  ContentType = "technical"
	ContentNews       ContentType = "news"
	ContentData       ContentType = "data"
	ContentCreative   ContentType = "creative"
	ContentAnalytical ContentType = "analytical"
	ContentFactual    ContentType = "factual"
)

// maxKeyFacts caps the number of facts extracted per answer.
const maxKeyFacts = 10

// AnalyzedAnswer is one provider answer after analysis, ready for synthesis.
type AnalyzedAnswer struct {
	// Provider is the provider that produced the answer
	Provider providers.ID

	// Content is the raw answer text
	Content string

	// ResponseTime is the adapter latency for the final attempt
	ResponseTime time.Duration

	// Status is the response's terminal status
	Status refinement.ResponseStatus

	// Confidence is the analyzer's confidence in the answer, in [0,1]
	Confidence float64

	// ContentType is the classified answer kind
	ContentType ContentType

	// KeyFacts are up to ten facts extracted by the local LLM
	KeyFacts []string

	// Sources are URLs and citations found in the answer
	Sources []string
}
