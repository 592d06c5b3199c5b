// Package providers implements the adapter layer for conversational AI providers.
//
// # Overview
//
// The providers package gives the orchestrator a uniform way to send a single
// prompt to one provider and get raw text back. It hides whether a provider is
// reached over an HTTP API, a scripted web session, or a local model server;
// the rest of the system only sees the Adapter interface.
//
// # Architecture
//
// The package is organized into several layers:
//
//  1. Adapter Interface - the contract all provider adapters implement
//  2. Base HTTP Adapter - common HTTP client logic (connection pooling, retries, timeouts)
//  3. Concrete Adapters - provider-specific implementations (claude, gemini, perplexity, local)
//  4. Error Taxonomy - typed errors classifying every failure mode
//
// # Basic Usage
//
// Create a single adapter:
//
//	config := providers.AdapterConfig{
//	    Provider: providers.Claude,
//	    BaseURL:  "https://api.anthropic.com",
//	    APIKey:   os.Getenv("ANTHROPIC_API_KEY"),
//	    Timeout:  60 * time.Second,
//	}
//
//	adapter, err := claude.NewAdapter(config)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer adapter.Close()
//
//	raw, latency, err := adapter.Send(ctx, "list three primary colors")
//
// # Error Classification
//
// Errors returned by Send are always one of the typed errors in this package
// (TransportError, AuthError, RateLimitError, TimeoutError, ProviderError).
// Callers classify with errors.As and decide whether the failure is retryable.
// Auth errors are never retryable; transport and timeout errors are.
//
// # Concurrency
//
// Adapters are not reentrant per session. The dispatcher enforces the
// per-provider concurrency cap through the session registry, so an adapter
// never sees more than its configured number of in-flight calls.
package providers
