// Package notifications pushes run outcomes to ntfy.
//
// The ntfy topic URL comes from config.toml; when it is empty the service is a
// no-op, so callers never need to check whether notifications are enabled.
package notifications
