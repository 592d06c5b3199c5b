// Package refinement drives the bounded feedback loop that rewrites and
// resubmits a prompt when a provider's answer fails validation.
//
// # State machine
//
// For one (provider, request) pair the controller runs:
//
//	send -> validate -> quality >= threshold? -> completed
//	                 -> attempt < cap? no     -> failed
//	                 -> classify -> pick rule -> shape refinement -> send
//
// # Determinism
//
// Per (request, attempt) the controller's decisions are a pure function of
// the validator output, the rule table, and the historical stats snapshot
// taken at controller start. Stats updates are deferred to the persistence
// layer after the request terminates, so concurrent requests see a
// consistent rule table.
//
// # Failure semantics
//
// Transport and timeout errors from the adapter count as attempts and are
// re-routed as synthetic incomplete_response issues. Auth errors abort the
// controller immediately with status failed and no attempts recorded.
package refinement
