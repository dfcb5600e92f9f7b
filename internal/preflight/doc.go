// Package preflight provides readiness checks for the filesystem paths and
// external services a reconciliation run depends on.
//
// The run command calls RunAll before opening the state store. A failed
// directory check aborts the run so permission problems surface once, up
// front, instead of as a failure on every record. The status command reuses
// the same checks to display service health.
//
// Each service check is gated by its config toggle; disabled features are
// skipped.
package preflight
