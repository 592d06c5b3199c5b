package validation

import (
	"strings"
	"testing"
)

func TestValidateEmptyResponse(t *testing.T) {
	v := NewValidator()

	result := v.Validate("   ", ExpectedSchema{}, FormatJSON)

	if result.Score != 0 {
		t.Errorf("expected score 0 for empty response, got %v", result.Score)
	}
	if len(result.Issues) != 1 {
		t.Fatalf("expected 1 issue, got %d", len(result.Issues))
	}
	if result.Issues[0].Trigger != TriggerIncompleteResponse {
		t.Errorf("expected trigger %q, got %q", TriggerIncompleteResponse, result.Issues[0].Trigger)
	}
}

func TestValidateJSON(t *testing.T) {
	v := NewValidator()
	schema := ExpectedSchema{Fields: map[string]string{"name": "", "population": "integer"}}

	tests := []struct {
		name          string
		raw           string
		wantFormat    float64
		wantStructure float64
		wantTrigger   Trigger
	}{
		{
			name:          "valid with all fields",
			raw:           `{"name": "Paris", "population": 2100000, "note": "` + strings.Repeat("x", 180) + `"}`,
			wantFormat:    1.0,
			wantStructure: 1.0,
		},
		{
			name:          "embedded in prose",
			raw:           `Here is the answer you asked for: {"name": "Paris", "population": 2100000}`,
			wantFormat:    0.5,
			wantStructure: 1.0,
			wantTrigger:   TriggerFormatMismatch,
		},
		{
			name:          "missing field",
			raw:           `{"name": "Paris"}`,
			wantFormat:    1.0,
			wantStructure: 0.5,
			wantTrigger:   TriggerMissingFields,
		},
		{
			name:          "not JSON at all",
			raw:           "Paris is the largest city in France.",
			wantFormat:    0,
			wantStructure: 0,
			wantTrigger:   TriggerFormatMismatch,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := v.Validate(tt.raw, schema, FormatJSON)

			if result.FormatCompliance != tt.wantFormat {
				t.Errorf("format compliance = %v, want %v", result.FormatCompliance, tt.wantFormat)
			}
			if result.StructureCompliance != tt.wantStructure {
				t.Errorf("structure compliance = %v, want %v", result.StructureCompliance, tt.wantStructure)
			}
			if tt.wantTrigger != "" && !hasTrigger(result, tt.wantTrigger) {
				t.Errorf("expected an issue with trigger %q, got %v", tt.wantTrigger, result.Issues)
			}
		})
	}
}

func TestValidateFieldNamesCaseInsensitive(t *testing.T) {
	v := NewValidator()
	schema := ExpectedSchema{Fields: map[string]string{"Name": ""}}

	result := v.Validate(`{"NAME": "Paris"}`, schema, FormatJSON)

	if result.StructureCompliance != 1.0 {
		t.Errorf("expected case-insensitive field match, structure = %v", result.StructureCompliance)
	}
}

func TestValidateStructuredText(t *testing.T) {
	v := NewValidator()
	schema := ExpectedSchema{Fields: map[string]string{"name": "", "capital": ""}}

	result := v.Validate("Name: France\nCapital: Paris\n", schema, FormatStructuredText)

	if result.FormatCompliance != 1.0 {
		t.Errorf("format compliance = %v, want 1.0", result.FormatCompliance)
	}
	if result.StructureCompliance != 1.0 {
		t.Errorf("structure compliance = %v, want 1.0", result.StructureCompliance)
	}

	fields, ok := result.Parsed.(map[string]string)
	if !ok {
		t.Fatalf("expected parsed field map, got %T", result.Parsed)
	}
	if fields["capital"] != "Paris" {
		t.Errorf("expected extracted capital %q, got %q", "Paris", fields["capital"])
	}
}

func TestValidateStructuredTextNoPairs(t *testing.T) {
	v := NewValidator()

	result := v.Validate("just some prose without any pairs", ExpectedSchema{}, FormatStructuredText)

	if result.FormatCompliance != 0 {
		t.Errorf("format compliance = %v, want 0", result.FormatCompliance)
	}
	if !hasTrigger(result, TriggerFormatMismatch) {
		t.Errorf("expected format_mismatch issue, got %v", result.Issues)
	}
}

func TestValidateMarkdown(t *testing.T) {
	v := NewValidator()

	withStructure := v.Validate("# Title\n\n- first\n- second", ExpectedSchema{}, FormatMarkdown)
	if withStructure.FormatCompliance != 1.0 {
		t.Errorf("format compliance = %v, want 1.0", withStructure.FormatCompliance)
	}

	plain := v.Validate("plain prose with no structure at all", ExpectedSchema{}, FormatMarkdown)
	if plain.FormatCompliance != 0.3 {
		t.Errorf("format compliance = %v, want 0.3", plain.FormatCompliance)
	}
}

func TestValidateXML(t *testing.T) {
	v := NewValidator()
	schema := ExpectedSchema{Fields: map[string]string{"name": ""}}

	result := v.Validate("<name>Paris</name><country>France</country>", schema, FormatXML)

	if result.FormatCompliance != 1.0 {
		t.Errorf("format compliance = %v, want 1.0", result.FormatCompliance)
	}
	if result.StructureCompliance != 1.0 {
		t.Errorf("structure compliance = %v, want 1.0", result.StructureCompliance)
	}
}

func TestValidateFreeformKeywords(t *testing.T) {
	v := NewValidator()
	schema := ExpectedSchema{Keywords: []string{"solar", "wind", "nuclear"}}

	result := v.Validate("# Energy\nSolar and wind are renewable.", schema, FormatMarkdown)

	want := 2.0 / 3.0
	if diff := result.StructureCompliance - want; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("structure compliance = %v, want %v", result.StructureCompliance, want)
	}
	if !hasTrigger(result, TriggerContentMismatch) {
		t.Errorf("expected content_mismatch issue, got %v", result.Issues)
	}
}

func TestValidateHedgingLowersAccuracy(t *testing.T) {
	v := NewValidator()

	hedged := v.Validate("It might be Paris, but I'm not certain, perhaps Lyon.", ExpectedSchema{}, FormatMarkdown)
	assertive := v.Validate("The capital is definitely Paris. It is exactly right.", ExpectedSchema{}, FormatMarkdown)

	if hedged.Accuracy >= assertive.Accuracy {
		t.Errorf("hedged accuracy %v should be below assertive accuracy %v",
			hedged.Accuracy, assertive.Accuracy)
	}
	if !hasTrigger(hedged, TriggerInvalidData) {
		t.Errorf("expected invalid_data issue for hedging, got %v", hedged.Issues)
	}
}

func TestValidateShortResponseFlagged(t *testing.T) {
	v := NewValidator()

	result := v.Validate(`{"a": 1}`, ExpectedSchema{}, FormatJSON)

	if result.Completeness >= 0.5 {
		t.Errorf("completeness = %v, want < 0.5", result.Completeness)
	}
	if !hasTrigger(result, TriggerIncompleteResponse) {
		t.Errorf("expected incomplete_response issue, got %v", result.Issues)
	}
}

func TestDominantTrigger(t *testing.T) {
	result := &Result{}
	if got := result.DominantTrigger(); got != TriggerContentMismatch {
		t.Errorf("empty issue list: got %q, want %q", got, TriggerContentMismatch)
	}

	result.Issues = []Issue{
		{Trigger: TriggerFormatMismatch},
		{Trigger: TriggerMissingFields},
	}
	if got := result.DominantTrigger(); got != TriggerFormatMismatch {
		t.Errorf("got %q, want first recorded trigger %q", got, TriggerFormatMismatch)
	}
}

func TestScoreWeights(t *testing.T) {
	v := NewValidator()

	// A fully compliant long JSON answer scores the sum of all weights.
	raw := `{"name": "Paris", "detail": "` + strings.Repeat("y", 200) + `"}`
	result := v.Validate(raw, ExpectedSchema{Fields: map[string]string{"name": ""}}, FormatJSON)

	want := 0.30*1 + 0.30*1 + 0.20*1 + 0.20*result.Accuracy
	if diff := result.Score - want; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("score = %v, want %v", result.Score, want)
	}
}

func hasTrigger(r *Result, trigger Trigger) bool {
	for _, issue := range r.Issues {
		if issue.Trigger == trigger {
			return true
		}
	}
	return false
}
