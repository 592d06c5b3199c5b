package refinement

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"maestro-hq/maestro/pkg/providers"
	"maestro-hq/maestro/pkg/shaping"
	"maestro-hq/maestro/pkg/validation"
)

// ruleFile is the YAML shape of a rule table override.
type ruleFile struct {
	Rules []ruleEntry `yaml:"rules"`
}

// ruleEntry is one rule in YAML form.
type ruleEntry struct {
	Trigger     string `yaml:"trigger"`
	Provider    string `yaml:"provider"`
	Action      string `yaml:"action"`
	Priority    int    `yaml:"priority"`
	MaxAttempts int    `yaml:"max_attempts"`
	ExpectedFix string `yaml:"expected_fix"`
}

// LoadRulesFile reads a rule table from a YAML file. The loaded rules
// replace the built-in table entirely; they are validated field by field so
// a typo in a trigger or action fails the load rather than silently never
// matching.
func LoadRulesFile(path string) ([]Rule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rule file %q: %w", path, err)
	}

	var file ruleFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse rule file %q: %w", path, err)
	}
	if len(file.Rules) == 0 {
		return nil, fmt.Errorf("rule file %q contains no rules", path)
	}

	rules := make([]Rule, 0, len(file.Rules))
	for i, entry := range file.Rules {
		rule, err := entry.toRule()
		if err != nil {
			return nil, fmt.Errorf("rule %d in %q: %w", i+1, path, err)
		}
		rules = append(rules, rule)
	}
	return rules, nil
}

// toRule validates and converts one YAML entry.
func (e ruleEntry) toRule() (Rule, error) {
	trigger := validation.Trigger(e.Trigger)
	if !trigger.Valid() {
		return Rule{}, fmt.Errorf("unknown trigger %q", e.Trigger)
	}

	action := shaping.Action(e.Action)
	if !action.Valid() {
		return Rule{}, fmt.Errorf("unknown action %q", e.Action)
	}

	if e.Priority < 1 || e.Priority > 5 {
		return Rule{}, fmt.Errorf("priority %d out of range 1..5", e.Priority)
	}

	maxAttempts := e.MaxAttempts
	if maxAttempts == 0 {
		maxAttempts = 10
	}
	if maxAttempts < 1 || maxAttempts > 10 {
		return Rule{}, fmt.Errorf("max_attempts %d out of range 1..10", e.MaxAttempts)
	}

	return Rule{
		Trigger:     trigger,
		Provider:    providers.ID(e.Provider),
		Action:      action,
		Priority:    e.Priority,
		MaxAttempts: maxAttempts,
		ExpectedFix: e.ExpectedFix,
	}, nil
}
