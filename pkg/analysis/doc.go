// Package analysis classifies and scores raw provider answers before
// synthesis.
//
// For each answer the analyzer determines a content type through an ordered
// rule cascade, extracts up to ten key facts through the local LLM, pulls
// sources out of URLs and citation patterns, and computes a confidence score
// seeded from the provider's reliability weight.
package analysis
