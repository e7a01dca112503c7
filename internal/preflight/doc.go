// Package preflight provides readiness checks for the filesystem paths,
// binaries and optional services subburn depends on.
//
// The daemon runs RunAll at startup and logs failures without refusing to
// start; GET /api/status and "subburn status" report the same checks.
// Disabled features (journal, publish) are reported as skipped, not failed.
package preflight
