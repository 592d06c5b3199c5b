package shaping

// Strategy selects the shaping transform applied to a prompt.
type Strategy string

// The shaping strategies.
const (
	// StrategyTokenMinimization removes filler to cut prompt tokens
	StrategyTokenMinimization Strategy = "token_minimization"

	// StrategyClarityMaximization enforces imperative voice and terminal punctuation
	StrategyClarityMaximization Strategy = "clarity_maximization"

	// StrategyStructureEnforcement appends an explicit format directive
	StrategyStructureEnforcement Strategy = "structure_enforcement"

	// StrategyPrecisionTargeting appends provider-specific precision hints
	StrategyPrecisionTargeting Strategy = "precision_targeting"
)

// Valid reports whether s names a known strategy.
func (s Strategy) Valid() bool {
	switch s {
	case StrategyTokenMinimization, StrategyClarityMaximization,
		StrategyStructureEnforcement, StrategyPrecisionTargeting:
		return true
	}
	return false
}

// Action is the corrective rewrite applied when a provider answer fails
// validation. Each action has a dedicated refinement template.
type Action string

// The refinement actions.
const (
	ActionClarifyFormat      Action = "clarify_format"
	ActionRequestMissingData Action = "request_missing_data"
	ActionFixStructure       Action = "fix_structure"
	ActionProvideExamples    Action = "provide_examples"
	ActionSimplifyRequest    Action = "simplify_request"
	ActionSplitRequest       Action = "split_request"
)

// Valid reports whether a names a known action.
func (a Action) Valid() bool {
	switch a {
	case ActionClarifyFormat, ActionRequestMissingData, ActionFixStructure,
		ActionProvideExamples, ActionSimplifyRequest, ActionSplitRequest:
		return true
	}
	return false
}

// ShapedPrompt is the outcome of shaping one prompt for one provider.
type ShapedPrompt struct {
	// Text is the shaped prompt ready to send
	Text string

	// TokenReduction estimates the fraction of tokens elided, in [0,1]
	TokenReduction float64

	// Clarity is a heuristic clarity score in [0,1]
	Clarity float64

	// StructureScore is a heuristic structure-compliance score in [0,1]
	StructureScore float64
}
