// Package synthesis fuses analyzed per-provider answers into one coherent
// reply.
//
// A strategy picker chooses between merge, compare, prioritize, complement,
// and fact_check based on the surviving answers and the original query. All
// strategies use the local LLM as the fuser with deterministic
// labeled-concatenation fallbacks, so synthesis always produces output when
// at least one provider succeeded.
//
// Contradiction detection is heuristic: pairwise opposing-keyword matching
// over answers and their key facts. A stronger checker can replace it
// without changing the contract.
package synthesis
