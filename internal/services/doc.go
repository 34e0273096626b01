// Package services defines shared utilities consumed by the sync manager,
// remote store client, and API surfaces.
//
// Key responsibilities:
//   - Context helpers that stamp project IDs, staff names, and correlation
//     identifiers for logging and tracing.
//   - Structured error markers plus the Wrap helper that classify failures
//     as retryable or needing operator attention.
//
// Use these helpers when wiring new integrations so error handling and
// observability stay uniform across the daemon.
package services
