package refinement

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"maestro-hq/maestro/pkg/providers"
	"maestro-hq/maestro/pkg/shaping"
	"maestro-hq/maestro/pkg/validation"
)

func writeRules(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "rules.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write rules file: %v", err)
	}
	return path
}

func TestLoadRulesFile(t *testing.T) {
	path := writeRules(t, `
rules:
  - trigger: format_mismatch
    action: clarify_format
    priority: 5
    max_attempts: 3
    expected_fix: reply in the exact format
  - trigger: incomplete_response
    provider: local
    action: split_request
    priority: 4
`)

	rules, err := LoadRulesFile(path)
	if err != nil {
		t.Fatalf("LoadRulesFile failed: %v", err)
	}
	if len(rules) != 2 {
		t.Fatalf("got %d rules, want 2", len(rules))
	}

	if rules[0].Trigger != validation.TriggerFormatMismatch {
		t.Errorf("trigger = %q, want format_mismatch", rules[0].Trigger)
	}
	if rules[0].Action != shaping.ActionClarifyFormat {
		t.Errorf("action = %q, want clarify_format", rules[0].Action)
	}
	if rules[0].MaxAttempts != 3 {
		t.Errorf("max attempts = %d, want 3", rules[0].MaxAttempts)
	}

	if rules[1].Provider != providers.Local {
		t.Errorf("provider = %q, want local", rules[1].Provider)
	}
	if rules[1].MaxAttempts != 10 {
		t.Errorf("omitted max_attempts should default to 10, got %d", rules[1].MaxAttempts)
	}
}

func TestLoadRulesFileErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name:    "empty table",
			content: "rules: []\n",
			wantErr: "no rules",
		},
		{
			name: "unknown trigger",
			content: `
rules:
  - trigger: bogus_trigger
    action: clarify_format
    priority: 3
`,
			wantErr: "unknown trigger",
		},
		{
			name: "unknown action",
			content: `
rules:
  - trigger: format_mismatch
    action: do_magic
    priority: 3
`,
			wantErr: "unknown action",
		},
		{
			name: "priority out of range",
			content: `
rules:
  - trigger: format_mismatch
    action: clarify_format
    priority: 9
`,
			wantErr: "out of range",
		},
		{
			name: "max attempts out of range",
			content: `
rules:
  - trigger: format_mismatch
    action: clarify_format
    priority: 3
    max_attempts: 11
`,
			wantErr: "out of range",
		},
		{
			name:    "not yaml",
			content: "{{{",
			wantErr: "parse",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeRules(t, tt.content)
			_, err := LoadRulesFile(path)
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoadRulesFileMissing(t *testing.T) {
	if _, err := LoadRulesFile(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("expected error for missing file, got nil")
	}
}
