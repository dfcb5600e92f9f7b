// Package services defines shared utilities consumed by the reconciliation
// engine and the external integrations.
//
// Key responsibilities:
//   - Context helpers that stamp run IDs, record IDs, and phase names for
//     logging.
//   - Structured error markers plus the Wrap helper that separate per-record
//     failures (missing source, permission denied) from fatal ones (corrupt
//     state, collision journal failure).
//
// Use these helpers when wiring new components so operational behaviour (error
// handling, observability) stays uniform across the run.
package services
