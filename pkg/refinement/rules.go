package refinement

import (
	"fmt"
	"sort"

	"maestro-hq/maestro/pkg/providers"
	"maestro-hq/maestro/pkg/shaping"
	"maestro-hq/maestro/pkg/validation"
)

// Rule maps a refinement trigger to a corrective action. A rule optionally
// filters by provider and stops applying after MaxAttempts refinements.
type Rule struct {
	// Trigger is the issue class the rule handles
	Trigger validation.Trigger

	// Provider restricts the rule to one provider; empty matches all
	Provider providers.ID

	// Action is the corrective action to take
	Action shaping.Action

	// Priority orders competing rules, 1 (lowest) to 5 (highest)
	Priority int

	// MaxAttempts is the highest attempt number the rule still applies to
	MaxAttempts int

	// ExpectedFix describes what applying the rule should correct
	ExpectedFix string
}

// Key identifies a rule for statistics tracking.
func (r Rule) Key() string {
	return fmt.Sprintf("%s|%s|%s", r.Trigger, r.Provider, r.Action)
}

// RuleStat is the historical success record of one rule.
type RuleStat struct {
	// Applications counts how often the rule was applied
	Applications int64

	// Successes counts applications whose retry passed validation
	Successes int64
}

// SuccessRate returns the rule's historical success fraction, 0 when the
// rule has never been applied.
func (s RuleStat) SuccessRate() float64 {
	if s.Applications == 0 {
		return 0
	}
	return float64(s.Successes) / float64(s.Applications)
}

// RuleSet is an immutable snapshot of the rule table plus historical rule
// statistics. A controller takes one snapshot at start, so its decisions are
// deterministic for the whole request. Configuration reloads build a new
// snapshot rather than mutating an existing one.
type RuleSet struct {
	rules []Rule
	stats map[string]RuleStat
}

// NewRuleSet builds a snapshot from a rule table and historical stats.
// A nil rules slice uses the shipped default table.
func NewRuleSet(rules []Rule, stats map[string]RuleStat) *RuleSet {
	if rules == nil {
		rules = DefaultRules()
	}
	if stats == nil {
		stats = make(map[string]RuleStat)
	}
	copied := make([]Rule, len(rules))
	copy(copied, rules)
	return &RuleSet{rules: copied, stats: stats}
}

// Select picks the refinement action for a failed attempt.
//
// Among rules whose trigger matches, whose provider filter is empty or equal
// to the current provider, and whose MaxAttempts is at least the attempt
// number, the highest-priority rule wins; ties break on highest historical
// success rate, then on table order. When no rule matches, the fallback
// chain by attempt number applies: 1 -> clarify_format, 2 ->
// provide_examples, >=3 -> simplify_request.
func (rs *RuleSet) Select(trigger validation.Trigger, provider providers.ID, attempt int) (shaping.Action, string) {
	var best *Rule
	var bestRate float64

	for i := range rs.rules {
		rule := &rs.rules[i]
		if rule.Trigger != trigger {
			continue
		}
		if rule.Provider != "" && rule.Provider != provider {
			continue
		}
		if rule.MaxAttempts < attempt {
			continue
		}

		rate := rs.stats[rule.Key()].SuccessRate()
		switch {
		case best == nil,
			rule.Priority > best.Priority,
			rule.Priority == best.Priority && rate > bestRate:
			best = rule
			bestRate = rate
		}
	}

	if best != nil {
		return best.Action, best.ExpectedFix
	}

	// Fallback chain by attempt number.
	switch {
	case attempt <= 1:
		return shaping.ActionClarifyFormat, "restate the required format"
	case attempt == 2:
		return shaping.ActionProvideExamples, "show a valid example answer"
	default:
		return shaping.ActionSimplifyRequest, "reduce the request to its minimum"
	}
}

// Rules returns a copy of the rule table.
func (rs *RuleSet) Rules() []Rule {
	out := make([]Rule, len(rs.rules))
	copy(out, rs.rules)
	return out
}

// Stats returns the stat snapshot keys in sorted order, for diagnostics.
func (rs *RuleSet) Stats() []string {
	keys := make([]string, 0, len(rs.stats))
	for k := range rs.stats {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// DefaultRules returns the shipped rule table. Configuration may extend it.
func DefaultRules() []Rule {
	return []Rule{
		{
			Trigger:     validation.TriggerFormatMismatch,
			Action:      shaping.ActionClarifyFormat,
			Priority:    5,
			MaxAttempts: 3,
			ExpectedFix: "reply in the exact target format with no surrounding prose",
		},
		{
			Trigger:     validation.TriggerFormatMismatch,
			Action:      shaping.ActionProvideExamples,
			Priority:    3,
			MaxAttempts: 10,
			ExpectedFix: "imitate a valid example answer",
		},
		{
			Trigger:     validation.TriggerMissingFields,
			Action:      shaping.ActionRequestMissingData,
			Priority:    5,
			MaxAttempts: 10,
			ExpectedFix: "include every required field",
		},
		{
			Trigger:     validation.TriggerStructureError,
			Action:      shaping.ActionFixStructure,
			Priority:    4,
			MaxAttempts: 10,
			ExpectedFix: "rearrange the answer into the required structure",
		},
		{
			Trigger:     validation.TriggerInvalidData,
			Action:      shaping.ActionProvideExamples,
			Priority:    3,
			MaxAttempts: 10,
			ExpectedFix: "replace hedged or invalid values with definite ones",
		},
		{
			Trigger:     validation.TriggerIncompleteResponse,
			Action:      shaping.ActionSimplifyRequest,
			Priority:    3,
			MaxAttempts: 10,
			ExpectedFix: "answer a smaller request completely",
		},
		{
			Trigger:     validation.TriggerIncompleteResponse,
			Provider:    providers.Local,
			Action:      shaping.ActionSplitRequest,
			Priority:    4,
			MaxAttempts: 10,
			ExpectedFix: "answer the first part of the request only",
		},
		{
			Trigger:     validation.TriggerContentMismatch,
			Action:      shaping.ActionClarifyFormat,
			Priority:    2,
			MaxAttempts: 10,
			ExpectedFix: "address the requested content directly",
		},
	}
}
