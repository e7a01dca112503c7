// Package config loads, normalizes, and validates subburn configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// SUBBURN_API_TOKEN and the object storage credentials. The Config type
// centralizes every knob the service and CLI need, so working/output
// directories, encoder settings, and optional integrations are discovered in
// one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
