// Package logging configures structured logging for Maestro.
//
// All components log through log/slog, scoped with a "component" attribute.
// Setup installs the process-wide default handler from configuration; the
// context helpers carry execution-scoped fields (execution ID, request ID,
// provider) across component boundaries so related log lines correlate.
package logging
