package validation

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
)

// hedgingWords are vocabulary that lowers the accuracy heuristic.
var hedgingWords = []string{
	"maybe", "perhaps", "possibly", "might be", "could be",
	"i think", "i believe", "not sure", "unclear", "it seems",
	"probably", "i'm not certain",
}

// assertiveWords are vocabulary that raises the accuracy heuristic.
var assertiveWords = []string{
	"is", "are", "will", "must", "always", "specifically",
	"exactly", "definitely",
}

// Validator parses and scores raw provider answers. The zero value is ready
// to use; a Validator is stateless and safe for concurrent use.
type Validator struct {
	logger *slog.Logger
}

// NewValidator creates a new validator.
func NewValidator() *Validator {
	return &Validator{
		logger: slog.Default().With("component", "validation"),
	}
}

// Validate parses raw against the target format, checks it against the
// expected schema, and returns the scored result with tagged issues.
func (v *Validator) Validate(raw string, schema ExpectedSchema, format OutputFormat) *Result {
	result := &Result{}
	text := strings.TrimSpace(raw)

	if text == "" {
		result.Issues = append(result.Issues, Issue{
			Trigger: TriggerIncompleteResponse,
			Message: "response is empty",
		})
		return result
	}

	// Format dimension: parse attempt plus marker checks per format.
	result.Parsed, result.FormatCompliance = v.checkFormat(text, format, result)

	// Structure dimension: required fields or keywords.
	result.StructureCompliance = v.checkStructure(text, result.Parsed, schema, result)

	// Completeness dimension: piecewise-linear in length.
	result.Completeness = float64(len(text)) / float64(completenessSaturation)
	if result.Completeness > 1 {
		result.Completeness = 1
	}
	if result.Completeness < 0.5 {
		result.Issues = append(result.Issues, Issue{
			Trigger: TriggerIncompleteResponse,
			Message: fmt.Sprintf("response is short (%d chars)", len(text)),
		})
	}

	// Accuracy heuristic: hedging vs assertive vocabulary.
	result.Accuracy = v.checkAccuracy(text, result)

	result.Score = weightFormat*result.FormatCompliance +
		weightStructure*result.StructureCompliance +
		weightCompleteness*result.Completeness +
		weightAccuracy*result.Accuracy

	v.logger.Debug("validated response",
		"format", format,
		"score", result.Score,
		"format_compliance", result.FormatCompliance,
		"structure_compliance", result.StructureCompliance,
		"issues", len(result.Issues),
	)

	return result
}

// checkFormat parses the text against the target format. It returns the
// parsed value (nil when parsing failed entirely) and the format compliance
// score. Partial parses earn fractional credit.
func (v *Validator) checkFormat(text string, format OutputFormat, result *Result) (any, float64) {
	switch format {
	case FormatJSON:
		return v.checkJSON(text, result)
	case FormatXML:
		return v.checkXML(text, result)
	case FormatMarkdown:
		return v.checkMarkdown(text, result)
	case FormatStructuredText:
		return v.checkStructuredText(text, result)
	default:
		result.Issues = append(result.Issues, Issue{
			Trigger: TriggerFormatMismatch,
			Message: fmt.Sprintf("unknown output format %q", format),
		})
		return nil, 0
	}
}

// checkJSON strictly parses the text as JSON; when that fails, it extracts
// the first balanced JSON object and parses that for fractional credit.
func (v *Validator) checkJSON(text string, result *Result) (any, float64) {
	var parsed any
	if err := json.Unmarshal([]byte(text), &parsed); err == nil {
		return parsed, 1.0
	}

	// Fractional credit when the text merely contains a JSON object.
	if extracted := extractJSONObject(text); extracted != "" {
		if err := json.Unmarshal([]byte(extracted), &parsed); err == nil {
			result.Issues = append(result.Issues, Issue{
				Trigger: TriggerFormatMismatch,
				Message: "JSON object is embedded in surrounding prose",
			})
			return parsed, 0.5
		}
	}

	result.Issues = append(result.Issues, Issue{
		Trigger: TriggerFormatMismatch,
		Message: "response is not valid JSON",
	})
	return nil, 0
}

// checkXML verifies the presence of XML syntactic markers and extracts
// top-level elements into a field map.
func (v *Validator) checkXML(text string, result *Result) (any, float64) {
	if !strings.Contains(text, "<") || !strings.Contains(text, ">") {
		result.Issues = append(result.Issues, Issue{
			Trigger: TriggerFormatMismatch,
			Message: "response contains no XML tags",
		})
		return nil, 0
	}

	fields := extractXMLElements(text)
	if len(fields) == 0 {
		result.Issues = append(result.Issues, Issue{
			Trigger: TriggerStructureError,
			Message: "XML tags do not form complete elements",
		})
		return nil, 0.5
	}
	return fields, 1.0
}

// checkMarkdown verifies the presence of markdown structural markers.
func (v *Validator) checkMarkdown(text string, result *Result) (any, float64) {
	markers := 0
	for _, marker := range []string{"#", "-", "*", "|", "```", "1."} {
		if strings.Contains(text, marker) {
			markers++
		}
	}
	if markers == 0 {
		result.Issues = append(result.Issues, Issue{
			Trigger: TriggerFormatMismatch,
			Message: "response contains no markdown structure",
		})
		return map[string]string{"text": text}, 0.3
	}
	return map[string]string{"text": text}, 1.0
}

// checkStructuredText extracts "key: value" lines into a field map.
func (v *Validator) checkStructuredText(text string, result *Result) (any, float64) {
	fields := make(map[string]string)
	for _, line := range strings.Split(text, "\n") {
		key, value, found := strings.Cut(line, ":")
		if !found {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)
		if key != "" && value != "" {
			fields[strings.ToLower(key)] = value
		}
	}

	if len(fields) == 0 {
		result.Issues = append(result.Issues, Issue{
			Trigger: TriggerFormatMismatch,
			Message: "response contains no key: value lines",
		})
		return nil, 0
	}
	return fields, 1.0
}

// checkStructure scores the structure dimension: fraction of required schema
// fields present at the top level (structured mode), or fraction of required
// keywords present in the text (freeform mode).
func (v *Validator) checkStructure(text string, parsed any, schema ExpectedSchema, result *Result) float64 {
	if schema.Structured() {
		return v.checkStructuredSchema(parsed, schema, result)
	}
	return v.checkFreeformSchema(text, schema, result)
}

// checkStructuredSchema checks required top-level fields against the parsed
// value.
func (v *Validator) checkStructuredSchema(parsed any, schema ExpectedSchema, result *Result) float64 {
	fields := topLevelFields(parsed)
	if fields == nil {
		result.Issues = append(result.Issues, Issue{
			Trigger: TriggerStructureError,
			Message: "parsed value is not an object with named fields",
		})
		return 0
	}

	var missing []string
	present := 0
	for name := range schema.Fields {
		if _, ok := fields[strings.ToLower(name)]; ok {
			present++
		} else {
			missing = append(missing, name)
		}
	}

	if len(missing) > 0 {
		result.Issues = append(result.Issues, Issue{
			Trigger: TriggerMissingFields,
			Message: fmt.Sprintf("missing required fields: %s", strings.Join(missing, ", ")),
		})
	}

	return float64(present) / float64(len(schema.Fields))
}

// checkFreeformSchema checks required keywords against the raw text.
func (v *Validator) checkFreeformSchema(text string, schema ExpectedSchema, result *Result) float64 {
	if len(schema.Keywords) == 0 {
		return 1.0
	}

	lower := strings.ToLower(text)
	var missing []string
	present := 0
	for _, keyword := range schema.Keywords {
		if strings.Contains(lower, strings.ToLower(keyword)) {
			present++
		} else {
			missing = append(missing, keyword)
		}
	}

	if len(missing) > 0 {
		result.Issues = append(result.Issues, Issue{
			Trigger: TriggerContentMismatch,
			Message: fmt.Sprintf("missing required keywords: %s", strings.Join(missing, ", ")),
		})
	}

	return float64(present) / float64(len(schema.Keywords))
}

// checkAccuracy computes the assertiveness heuristic. Hedging vocabulary
// lowers the score; assertive vocabulary raises it from the baseline.
func (v *Validator) checkAccuracy(text string, result *Result) float64 {
	lower := strings.ToLower(text)

	score := 0.7 // Baseline for neutral language
	hedges := 0
	for _, word := range hedgingWords {
		if strings.Contains(lower, word) {
			hedges++
		}
	}
	for _, word := range assertiveWords {
		if containsWord(lower, word) {
			score += 0.05
			break
		}
	}

	score -= 0.1 * float64(hedges)
	if hedges > 0 {
		result.Issues = append(result.Issues, Issue{
			Trigger: TriggerInvalidData,
			Message: fmt.Sprintf("response hedges (%d hedging phrases)", hedges),
		})
	}

	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}

// topLevelFields normalizes a parsed value to a lowercase field set.
// Returns nil if the value has no named fields.
func topLevelFields(parsed any) map[string]struct{} {
	switch value := parsed.(type) {
	case map[string]any:
		fields := make(map[string]struct{}, len(value))
		for k := range value {
			fields[strings.ToLower(k)] = struct{}{}
		}
		return fields
	case map[string]string:
		fields := make(map[string]struct{}, len(value))
		for k := range value {
			fields[strings.ToLower(k)] = struct{}{}
		}
		return fields
	default:
		return nil
	}
}

// containsWord reports whether text contains word bounded by non-letters.
func containsWord(text, word string) bool {
	idx := 0
	for {
		i := strings.Index(text[idx:], word)
		if i < 0 {
			return false
		}
		start := idx + i
		end := start + len(word)
		beforeOK := start == 0 || !isLetter(text[start-1])
		afterOK := end == len(text) || !isLetter(text[end])
		if beforeOK && afterOK {
			return true
		}
		idx = start + 1
	}
}

func isLetter(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}
