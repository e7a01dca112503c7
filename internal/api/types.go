package api

import (
	"subburn/internal/deps"
	"subburn/internal/journal"
	"subburn/internal/preflight"
	"subburn/internal/services"
	"subburn/internal/style"
)

// CaptionResponse is the success body of POST /caption.
type CaptionResponse struct {
	OutputPath     string             `json:"output_path"`
	OutputFilename string             `json:"output_filename"`
	RequestID      string             `json:"request_id"`
	ObjectKey      string             `json:"object_key,omitempty"`
	Diagnostics    []style.Diagnostic `json:"diagnostics,omitempty"`
}

// ErrorResponse is the failure body of every endpoint.
type ErrorResponse struct {
	ErrorKind services.ErrorKind `json:"error_kind,omitempty"`
	Error     string             `json:"error"`
	RequestID string             `json:"request_id,omitempty"`
}

// ServiceStatus aggregates daemon runtime information.
type ServiceStatus struct {
	Running        bool               `json:"running"`
	PID            int                `json:"pid"`
	LockFilePath   string             `json:"lock_file_path"`
	WorkDir        string             `json:"work_dir"`
	OutputDir      string             `json:"output_dir"`
	InFlight       int                `json:"in_flight"`
	Workspaces     int                `json:"workspaces"`
	WorkspaceBytes int64              `json:"workspace_bytes"`
	MaxConcurrent  int                `json:"max_concurrent"`
	JournalEnabled bool               `json:"journal_enabled"`
	Jobs           *journal.Stats     `json:"jobs,omitempty"`
	Dependencies   []deps.Status      `json:"dependencies"`
	Checks         []preflight.Result `json:"checks"`
}

// JobListEntry is a journal entry as exposed over HTTP.
type JobListEntry = journal.Entry

// JobListResponse wraps journal entries for GET /api/jobs.
type JobListResponse struct {
	Jobs []JobListEntry `json:"jobs"`
}

// JobResponse wraps a single journal entry for GET /api/jobs/{id}.
type JobResponse struct {
	Job JobListEntry `json:"job"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status string `json:"status"`
}
