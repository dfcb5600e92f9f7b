// Package config loads, normalizes, and validates sagelink configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// SAGEX_PASSWORD and JELLYFIN_API_KEY. The Config type centralizes every knob
// the run command needs, so the target library root, state location, and
// external service credentials are discovered in one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths and clear validation errors.
package config
