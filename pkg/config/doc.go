// Package config defines Maestro's configuration model and loading.
//
// Configuration is loaded from a YAML file, defaults are applied for any
// omitted field, environment variables override the file, and the final
// configuration is validated before use.
//
// # Loading Sequence
//
//  1. Parse YAML from file
//  2. Apply default values
//  3. Apply environment variable overrides (MAESTRO_SECTION_FIELD)
//  4. Validate the final configuration
//
// # Environment Variables
//
// Environment variables follow the naming convention MAESTRO_SECTION_FIELD:
//
//	MAESTRO_DISPATCHER_DEFAULT_MODE=load_balanced
//	MAESTRO_STORAGE_PATH=/var/lib/maestro/maestro.db
//	MAESTRO_PROVIDERS_CLAUDE_API_KEY=sk-...
//
// Provider variables use MAESTRO_PROVIDERS_<NAME>_<FIELD> with the provider
// name upper-cased.
//
// # Hot Reload
//
// Watch observes the configuration file with fsnotify and delivers reloaded,
// validated snapshots on a channel. Only the refinement rule table and
// provider weights are safe to change at runtime; structural settings
// require a restart.
package config
