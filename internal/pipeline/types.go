package pipeline

import (
	"context"
	"time"

	"subburn/internal/journal"
	"subburn/internal/notifications"
	"subburn/internal/services"
	"subburn/internal/style"
)

// Stage names reported in logs, metrics and error messages.
const (
	StageValidate      = "validate"
	StageFetchVideo    = "fetch_video"
	StageFetchCaptions = "fetch_captions"
	StageTranscode     = "transcode"
	StageEncode        = "encode"
	StageDeliver       = "deliver"
)

// SubtitleFileName is the presentation track written into each workspace.
const SubtitleFileName = "captions.ass"

// DefaultOutputSuffix is appended to the video stem when none is configured.
const DefaultOutputSuffix = "_captioned"

// Request is one burn-in job.
type Request struct {
	ID         string
	VideoURL   string
	CaptionURL string
	Options    style.Options
}

// Result is the terminal outcome of a run. Exactly one of OutputPath or
// ErrorKind is set.
type Result struct {
	RequestID      string             `json:"request_id"`
	OutputPath     string             `json:"output_path,omitempty"`
	OutputFilename string             `json:"output_filename,omitempty"`
	ObjectKey      string             `json:"object_key,omitempty"`
	ErrorKind      services.ErrorKind `json:"error_kind,omitempty"`
	Message        string             `json:"error,omitempty"`
	Diagnostics    []style.Diagnostic `json:"diagnostics,omitempty"`
}

// Succeeded reports whether the run produced an output.
func (r Result) Succeeded() bool {
	return r.ErrorKind == "" && r.OutputPath != ""
}

// Fetcher downloads a remote asset into dir and returns the local path.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL, dir string) (string, error)
}

// Publisher uploads a finished output and returns its object key.
type Publisher interface {
	Upload(ctx context.Context, localPath, filename, requestID string) (string, error)
}

// Recorder persists run outcomes.
type Recorder interface {
	Record(ctx context.Context, entry journal.Entry) error
}

// Observer receives run and stage measurements.
type Observer interface {
	RunStarted()
	RunFinished(outcome string)
	ObserveStage(stage string, elapsed time.Duration)
}

// Notifier sends job outcome alerts.
type Notifier interface {
	NotifyJobCompleted(ctx context.Context, notice notifications.Notice) error
	NotifyJobFailed(ctx context.Context, notice notifications.Notice) error
}
