// Package notifications delivers job outcome alerts via ntfy.
//
// NewService returns an ntfy-backed implementation when a topic URL is
// configured and a no-op otherwise, so the pipeline can notify
// unconditionally.
package notifications
