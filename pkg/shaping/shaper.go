package shaping

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"maestro-hq/maestro/pkg/providers"
	"maestro-hq/maestro/pkg/validation"
)

// footerMarker opens the machine-readable block appended to every shaped
// prompt. Its presence is the idempotence check: shaping a prompt that
// already carries it returns the prompt unchanged.
const footerMarker = "=== RESPONSE REQUIREMENTS ==="

// fillerPhrases are politeness fillers elided from every prompt.
var fillerPhrases = []string{
	"please ", "could you ", "would you ", "can you ", "kindly ",
	"if possible, ", "if you don't mind, ", "i would like you to ",
	"thank you", "thanks",
}

// providerElisions are additional per-provider elisions. These reflect each
// provider's tolerance for terse prompts.
var providerElisions = map[providers.ID][]string{
	providers.Claude:     {"i was wondering if ", "it would be great if "},
	providers.Gemini:     {"i was wondering if ", "let me know "},
	providers.Perplexity: {"search for ", "look up "},
	providers.Local:      {},
}

// precisionHints are provider-specific precision suffixes used by the
// precision_targeting strategy.
var precisionHints = map[providers.ID]string{
	providers.Claude:     "Be precise and complete. Do not add commentary outside the requested structure.",
	providers.Gemini:     "Answer with exact values only. No preamble.",
	providers.Perplexity: "Cite sources inline. Answer with exact values only.",
	providers.Local:      "Answer tersely and exactly in the requested structure.",
}

// Shaper rewrites user prompts into machine-code-mode prompts and renders
// refinement prompts. Shaping is deterministic; a Shaper is safe for
// concurrent use.
type Shaper struct {
	logger *slog.Logger
}

// NewShaper creates a new prompt shaper.
func NewShaper() *Shaper {
	return &Shaper{
		logger: slog.Default().With("component", "shaping"),
	}
}

// Shape rewrites basePrompt for the given provider, expected schema, output
// format and strategy. Shaping an already-shaped prompt returns it unchanged.
func (s *Shaper) Shape(basePrompt string, provider providers.ID, schema validation.ExpectedSchema, format validation.OutputFormat, strategy Strategy) ShapedPrompt {
	if strings.Contains(basePrompt, footerMarker) {
		// Already shaped; idempotent
		return ShapedPrompt{
			Text:           basePrompt,
			TokenReduction: 0,
			Clarity:        1,
			StructureScore: 1,
		}
	}

	original := basePrompt

	// Step 1: provider-specific token elisions.
	text := elide(basePrompt, provider)

	// Step 2: strategy transform.
	text = s.applyStrategy(text, provider, format, strategy)

	// Step 3: machine-readable structural block.
	var b strings.Builder
	b.WriteString(text)
	b.WriteString("\n\n")
	b.WriteString(footerMarker)
	b.WriteString("\n")
	b.WriteString(structuralBlock(schema, format))

	// Step 4: numbered validation checklist.
	b.WriteString("\n\nBefore replying, verify:\n")
	for i, item := range checklist(schema, format) {
		fmt.Fprintf(&b, "%d. %s\n", i+1, item)
	}

	shaped := ShapedPrompt{
		Text:           b.String(),
		TokenReduction: tokenReduction(original, text),
		Clarity:        clarityScore(text),
		StructureScore: structureScore(schema, format),
	}

	s.logger.Debug("shaped prompt",
		"provider", provider,
		"strategy", strategy,
		"format", format,
		"token_reduction", shaped.TokenReduction,
		"clarity", shaped.Clarity,
	)

	return shaped
}

// applyStrategy applies the strategy-specific transform to the elided prompt.
func (s *Shaper) applyStrategy(text string, provider providers.ID, format validation.OutputFormat, strategy Strategy) string {
	switch strategy {
	case StrategyTokenMinimization:
		// Collapse repeated whitespace left behind by elisions.
		return strings.Join(strings.Fields(text), " ")

	case StrategyClarityMaximization:
		text = strings.TrimSpace(text)
		if text == "" {
			return text
		}
		// Imperative voice: strip a leading interrogative framing.
		lower := strings.ToLower(text)
		for _, prefix := range []string{"what is ", "what are ", "tell me "} {
			if strings.HasPrefix(lower, prefix) {
				text = "State " + text[len(prefix):]
				break
			}
		}
		// Terminal punctuation.
		if !strings.HasSuffix(text, ".") && !strings.HasSuffix(text, "?") && !strings.HasSuffix(text, "!") {
			text += "."
		}
		return text

	case StrategyStructureEnforcement:
		return text + "\n\nRespond only in " + formatName(format) + "."

	case StrategyPrecisionTargeting:
		return text + "\n\n" + precisionHints[provider]

	default:
		return text
	}
}

// Refine renders the refinement prompt for a failed attempt. The template is
// selected by action; issues and the required schema are always echoed, and
// provide_examples carries a freshly built example.
func (s *Shaper) Refine(previousPrompt, rawResponse string, issues []validation.Issue, action Action, schema validation.ExpectedSchema, format validation.OutputFormat) string {
	template, ok := refinementTemplates[action]
	if !ok {
		template = refinementTemplates[ActionClarifyFormat]
	}

	bindings := map[string]string{
		"previous_prompt": previousPrompt,
		"issues":          issueList(issues),
		"schema":          structuralBlock(schema, format),
		"format":          formatName(format),
		"raw_response":    snippet(rawResponse, 300),
	}
	if action == ActionProvideExamples {
		bindings["example"] = buildExample(schema, format)
	}

	prompt := template.Render(bindings)

	s.logger.Debug("rendered refinement prompt",
		"action", action,
		"template", template.Name,
		"issues", len(issues),
	)

	return prompt
}

// elide removes filler phrases from the prompt, case-insensitively.
func elide(text string, provider providers.ID) string {
	phrases := append([]string{}, fillerPhrases...)
	phrases = append(phrases, providerElisions[provider]...)

	for _, phrase := range phrases {
		for {
			idx := strings.Index(strings.ToLower(text), phrase)
			if idx < 0 {
				break
			}
			text = text[:idx] + text[idx+len(phrase):]
		}
	}
	return strings.TrimSpace(text)
}

// structuralBlock renders the expected schema in format-specific syntax:
// literal braces for JSON, fenced tags for XML, headings for markdown,
// key lines for structured text.
func structuralBlock(schema validation.ExpectedSchema, format validation.OutputFormat) string {
	if !schema.Structured() {
		var b strings.Builder
		b.WriteString("Required content: ")
		if schema.Description != "" {
			b.WriteString(schema.Description)
		} else {
			b.WriteString("a direct answer to the question")
		}
		if len(schema.Keywords) > 0 {
			b.WriteString("\nMust mention: " + strings.Join(schema.Keywords, ", "))
		}
		b.WriteString("\nFormat: " + formatName(format))
		return b.String()
	}

	fields := sortedFieldNames(schema)

	switch format {
	case validation.FormatJSON:
		var parts []string
		for _, name := range fields {
			hint := schema.Fields[name]
			if hint == "" {
				hint = "..."
			}
			parts = append(parts, fmt.Sprintf("%q: %q", name, hint))
		}
		return "Respond with exactly this JSON shape:\n{" + strings.Join(parts, ", ") + "}"

	case validation.FormatXML:
		var b strings.Builder
		b.WriteString("Respond with exactly these XML elements:\n")
		for _, name := range fields {
			fmt.Fprintf(&b, "<%s>%s</%s>\n", name, hintOrEllipsis(schema.Fields[name]), name)
		}
		return strings.TrimSpace(b.String())

	case validation.FormatMarkdown:
		var b strings.Builder
		b.WriteString("Respond with exactly these markdown sections:\n")
		for _, name := range fields {
			fmt.Fprintf(&b, "## %s\n", name)
		}
		return strings.TrimSpace(b.String())

	default: // structured_text
		var b strings.Builder
		b.WriteString("Respond with exactly these lines:\n")
		for _, name := range fields {
			fmt.Fprintf(&b, "%s: %s\n", name, hintOrEllipsis(schema.Fields[name]))
		}
		return strings.TrimSpace(b.String())
	}
}

// checklist builds the numbered validation checklist appended to shaped
// prompts.
func checklist(schema validation.ExpectedSchema, format validation.OutputFormat) []string {
	items := []string{
		"The entire reply is valid " + formatName(format) + " with no surrounding prose.",
	}
	if schema.Structured() {
		items = append(items, fmt.Sprintf("All %d required fields are present: %s.",
			len(schema.Fields), strings.Join(sortedFieldNames(schema), ", ")))
	} else if len(schema.Keywords) > 0 {
		items = append(items, "The reply mentions: "+strings.Join(schema.Keywords, ", ")+".")
	}
	items = append(items,
		"No field is empty or a placeholder.",
		"No apologies, hedging, or commentary.",
	)
	return items
}

// buildExample constructs a deterministic example answer from the schema
// hints, used by the provide_examples refinement template.
func buildExample(schema validation.ExpectedSchema, format validation.OutputFormat) string {
	if !schema.Structured() {
		return ""
	}

	example := make(map[string]any, len(schema.Fields))
	for name, hint := range schema.Fields {
		if hint == "" {
			hint = "value"
		}
		example[name] = hint
	}

	switch format {
	case validation.FormatJSON:
		out, err := json.Marshal(example)
		if err != nil {
			return ""
		}
		return string(out)
	default:
		fields := make(map[string]string, len(example))
		for k, v := range example {
			fields[k] = fmt.Sprint(v)
		}
		out, err := validation.Reserialize(fields, format)
		if err != nil {
			return ""
		}
		return out
	}
}

// issueList renders validation issues as bullet lines for templates.
func issueList(issues []validation.Issue) string {
	if len(issues) == 0 {
		return "- response did not meet the quality threshold"
	}
	var lines []string
	for _, issue := range issues {
		lines = append(lines, "- "+issue.Message)
	}
	return strings.Join(lines, "\n")
}

// tokenReduction estimates the fraction of whitespace-delimited tokens
// removed by elision.
func tokenReduction(original, elided string) float64 {
	before := len(strings.Fields(original))
	after := len(strings.Fields(elided))
	if before == 0 || after >= before {
		return 0
	}
	return float64(before-after) / float64(before)
}

// clarityScore is a heuristic on the transformed prompt: imperative openings
// and terminal punctuation raise it, hedged phrasing lowers it.
func clarityScore(text string) float64 {
	score := 0.6
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return 0
	}
	if strings.HasSuffix(trimmed, ".") || strings.HasSuffix(trimmed, "?") {
		score += 0.2
	}
	lower := strings.ToLower(trimmed)
	if strings.HasPrefix(lower, "list ") || strings.HasPrefix(lower, "state ") ||
		strings.HasPrefix(lower, "return ") || strings.HasPrefix(lower, "give ") {
		score += 0.2
	}
	if strings.Contains(lower, "maybe") || strings.Contains(lower, "some kind of") {
		score -= 0.2
	}
	return clamp01(score)
}

// structureScore reflects how tightly the structural block pins the answer.
func structureScore(schema validation.ExpectedSchema, format validation.OutputFormat) float64 {
	score := 0.5
	if schema.Structured() {
		score += 0.3
	} else if len(schema.Keywords) > 0 {
		score += 0.15
	}
	if format == validation.FormatJSON || format == validation.FormatXML {
		score += 0.2
	}
	return clamp01(score)
}

func formatName(format validation.OutputFormat) string {
	switch format {
	case validation.FormatJSON:
		return "JSON"
	case validation.FormatXML:
		return "XML"
	case validation.FormatMarkdown:
		return "Markdown"
	default:
		return "structured text (key: value lines)"
	}
}

func sortedFieldNames(schema validation.ExpectedSchema) []string {
	names := make([]string, 0, len(schema.Fields))
	for name := range schema.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func hintOrEllipsis(hint string) string {
	if hint == "" {
		return "..."
	}
	return hint
}

func snippet(text string, max int) string {
	text = strings.TrimSpace(text)
	if len(text) <= max {
		return text
	}
	return text[:max] + "..."
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
