// Package logging assembles structured slog loggers and formatting helpers used
// across sagelink.
//
// It owns the console and JSON handlers, maps the three configured verbosity
// tiers (critical, informational, debug) onto slog levels, and exposes
// context-aware helpers so engine code automatically tags log lines with the
// run ID, record ID, and phase. The package also provides a no-op logger for
// tests and wiring code that cannot fail.
package logging
