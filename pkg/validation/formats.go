package validation

import (
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// extractJSONObject returns the first balanced top-level JSON object or array
// embedded in text, or "" when none exists. Braces inside string literals are
// ignored.
func extractJSONObject(text string) string {
	start := -1
	var open, close byte
	for i := 0; i < len(text); i++ {
		if text[i] == '{' {
			start, open, close = i, '{', '}'
			break
		}
		if text[i] == '[' {
			start, open, close = i, '[', ']'
			break
		}
	}
	if start < 0 {
		return ""
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case open:
			depth++
		case close:
			depth--
			if depth == 0 {
				return text[start : i+1]
			}
		}
	}
	return ""
}

// xmlElementPattern matches a complete simple XML element.
var xmlElementPattern = regexp.MustCompile(`<([A-Za-z_][\w.-]*)\s*>([^<]*)</([A-Za-z_][\w.-]*)\s*>`)

// extractXMLElements extracts complete top-level elements into a field map
// keyed by lowercase tag name. Mismatched open/close pairs are skipped.
func extractXMLElements(text string) map[string]string {
	fields := make(map[string]string)
	for _, match := range xmlElementPattern.FindAllStringSubmatch(text, -1) {
		if !strings.EqualFold(match[1], match[3]) {
			continue
		}
		fields[strings.ToLower(match[1])] = strings.TrimSpace(match[2])
	}
	if len(fields) == 0 {
		return nil
	}
	return fields
}

// Reserialize renders a parsed value back to the target format. The output
// round-trips: validating it yields format compliance 1.0.
func Reserialize(parsed any, format OutputFormat) (string, error) {
	if parsed == nil {
		return "", fmt.Errorf("validation: nothing to serialize")
	}

	switch format {
	case FormatJSON:
		out, err := json.MarshalIndent(parsed, "", "  ")
		if err != nil {
			return "", fmt.Errorf("validation: marshal failed: %w", err)
		}
		return string(out), nil

	case FormatXML:
		fields, err := fieldMap(parsed)
		if err != nil {
			return "", err
		}
		var b strings.Builder
		b.WriteString("<response>\n")
		for _, key := range sortedKeys(fields) {
			fmt.Fprintf(&b, "  <%s>%s</%s>\n", key, fields[key], key)
		}
		b.WriteString("</response>")
		return b.String(), nil

	case FormatStructuredText:
		fields, err := fieldMap(parsed)
		if err != nil {
			return "", err
		}
		var lines []string
		for _, key := range sortedKeys(fields) {
			lines = append(lines, fmt.Sprintf("%s: %s", key, fields[key]))
		}
		return strings.Join(lines, "\n"), nil

	case FormatMarkdown:
		fields, err := fieldMap(parsed)
		if err != nil {
			return "", err
		}
		var b strings.Builder
		for _, key := range sortedKeys(fields) {
			fmt.Fprintf(&b, "## %s\n\n%s\n\n", key, fields[key])
		}
		return strings.TrimSpace(b.String()), nil

	default:
		return "", fmt.Errorf("validation: unknown format %q", format)
	}
}

// fieldMap flattens a parsed value into string fields for the text formats.
func fieldMap(parsed any) (map[string]string, error) {
	switch value := parsed.(type) {
	case map[string]string:
		return value, nil
	case map[string]any:
		fields := make(map[string]string, len(value))
		for k, v := range value {
			switch s := v.(type) {
			case string:
				fields[k] = s
			default:
				encoded, err := json.Marshal(v)
				if err != nil {
					return nil, fmt.Errorf("validation: cannot flatten field %q: %w", k, err)
				}
				fields[k] = string(encoded)
			}
		}
		return fields, nil
	default:
		return nil, fmt.Errorf("validation: value has no named fields")
	}
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
