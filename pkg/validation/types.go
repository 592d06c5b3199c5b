package validation

// OutputFormat identifies the grammar a provider answer is validated against.
type OutputFormat string

// The supported output formats.
const (
	FormatJSON           OutputFormat = "json"
	FormatStructuredText OutputFormat = "structured_text"
	FormatMarkdown       OutputFormat = "markdown"
	FormatXML            OutputFormat = "xml"
)

// Valid reports whether f names a known output format.
func (f OutputFormat) Valid() bool {
	switch f {
	case FormatJSON, FormatStructuredText, FormatMarkdown, FormatXML:
		return true
	}
	return false
}

// Trigger classifies a validation issue so the refinement controller can
// route it to a corrective action.
type Trigger string

// The refinement triggers.
const (
	TriggerFormatMismatch     Trigger = "format_mismatch"
	TriggerMissingFields      Trigger = "missing_fields"
	TriggerInvalidData        Trigger = "invalid_data"
	TriggerIncompleteResponse Trigger = "incomplete_response"
	TriggerStructureError     Trigger = "structure_error"
	TriggerContentMismatch    Trigger = "content_mismatch"
)

// Valid reports whether t names a known trigger.
func (t Trigger) Valid() bool {
	switch t {
	case TriggerFormatMismatch, TriggerMissingFields, TriggerInvalidData,
		TriggerIncompleteResponse, TriggerStructureError, TriggerContentMismatch:
		return true
	}
	return false
}

// ExpectedSchema is the caller-provided hint describing the wanted shape of a
// provider answer. A schema is either structured (required top-level fields
// with optional value hints) or freeform (a text description plus required
// keywords). The zero value is a freeform schema with no requirements.
type ExpectedSchema struct {
	// Fields maps required top-level field names to optional value hints.
	// A non-empty Fields map makes the schema structured.
	Fields map[string]string `json:"fields,omitempty"`

	// Description is a freeform text description of the wanted answer
	Description string `json:"description,omitempty"`

	// Keywords lists words a freeform answer must contain
	Keywords []string `json:"keywords,omitempty"`
}

// Structured reports whether the schema is the structured variant.
func (s ExpectedSchema) Structured() bool {
	return len(s.Fields) > 0
}

// Issue is a single validation finding tagged with the trigger that should
// drive refinement.
type Issue struct {
	// Trigger classifies the issue
	Trigger Trigger

	// Message is a short human-readable description
	Message string
}

// Result is the outcome of validating one raw answer.
type Result struct {
	// Parsed is the parsed value, or nil when the text did not parse.
	// For JSON this is the unmarshalled value; for the other formats it is
	// a map of extracted fields.
	Parsed any

	// Score is the weighted quality score in [0,1]
	Score float64

	// FormatCompliance is the format dimension in [0,1]
	FormatCompliance float64

	// StructureCompliance is the structure dimension in [0,1]
	StructureCompliance float64

	// Completeness is the length dimension in [0,1]
	Completeness float64

	// Accuracy is the assertiveness heuristic in [0,1]
	Accuracy float64

	// Issues lists the findings, each tagged with a refinement trigger
	Issues []Issue
}

// DominantTrigger returns the trigger of the most significant issue, using
// the order in which issues were recorded (format before structure before
// completeness). Returns TriggerContentMismatch when there are no issues.
func (r *Result) DominantTrigger() Trigger {
	if len(r.Issues) == 0 {
		return TriggerContentMismatch
	}
	return r.Issues[0].Trigger
}

// Scoring weights for the four quality dimensions.
const (
	weightFormat       = 0.30
	weightStructure    = 0.30
	weightCompleteness = 0.20
	weightAccuracy     = 0.20
)

// completenessSaturation is the text length at which the completeness
// dimension reaches 1.0.
const completenessSaturation = 200
