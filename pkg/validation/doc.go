// Package validation scores raw provider answers against an expected output
// shape.
//
// # Overview
//
// The validator takes the raw text a provider returned, the caller's expected
// schema, and the target output format, and produces a parsed value (when the
// text parses), a quality score in [0,1], and a list of issues. Each issue is
// tagged with a refinement trigger so the refinement controller can route it
// to a corrective action.
//
// # Scoring
//
// Quality is a weighted combination of four dimensions:
//
//   - Format compliance (0.30): does the text parse as the target format
//   - Structure compliance (0.30): fraction of required fields or keywords present
//   - Completeness (0.20): piecewise-linear in text length, saturating at 200 chars
//   - Accuracy heuristic (0.20): penalises hedging vocabulary, rewards assertive language
//
// The weights are fixed; additional scoring plug-ins extend this validator
// rather than introducing parallel pipelines.
package validation
