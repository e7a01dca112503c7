// Package api defines the wire-format types of the subburn HTTP API and a
// small client for them.
//
// # Key Types
//
// CaptionRequest: body of POST /caption. srt_url and caption_url are
// accepted as aliases; options follow style.Options key rules.
//
// CaptionResponse / ErrorResponse: the success and failure bodies. Failures
// carry a stable error_kind and the HTTP status chosen by StatusForKind.
//
// ServiceStatus, JobListResponse, JobResponse: GET /api/status and the job
// history endpoints.
//
// # Design Notes
//
// Keys are snake_case to match the original service contract. Timestamps are
// RFC3339 via time.Time's JSON encoding.
package api
