// Package shaping rewrites user prompts into machine-code-mode prompts
// targeted at one provider and one output format, and emits the refinement
// prompts used by the refinement loop.
//
// # Shaping pipeline
//
// Shaping is deterministic and idempotent on already-shaped prompts:
//
//  1. Provider-specific token elisions (politeness fillers dropped)
//  2. Strategy transform (minimization, clarity, structure, precision)
//  3. Machine-readable structural block quoting the expected schema
//  4. Numbered validation checklist the provider runs before replying
//
// A shaped prompt carries a footer marker; shaping a prompt that already
// carries the marker returns it unchanged.
//
// # Refinement prompts
//
// Refinement prompts are rendered from one template per refinement action.
// Templates state the issues, echo the required schema, optionally carry a
// freshly generated example, and request a corrected response only.
package shaping
