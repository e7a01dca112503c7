package pipeline

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"subburn/internal/config"
	"subburn/internal/encoding"
	"subburn/internal/fetch"
	"subburn/internal/fileutil"
	"subburn/internal/fonts"
	"subburn/internal/journal"
	"subburn/internal/logging"
	"subburn/internal/metrics"
	"subburn/internal/notifications"
	"subburn/internal/services"
	"subburn/internal/staging"
	"subburn/internal/style"
	"subburn/internal/subtitles"
	"subburn/internal/textutil"
)

// Runner executes burn-in requests. Publisher, Journal, Metrics and Notifier
// are optional.
type Runner struct {
	WorkDir      string
	OutputDir    string
	OutputSuffix string

	Fetcher Fetcher
	Encoder encoding.Encoder
	Styles  style.Resolver

	Publisher Publisher
	Journal   Recorder
	Metrics   Observer
	Notifier  Notifier
	Logger    *slog.Logger
}

// NewRunner wires a Runner from configuration using the HTTP fetcher, the
// ffmpeg encoder and the configured font directory.
func NewRunner(cfg *config.Config, logger *slog.Logger) *Runner {
	return &Runner{
		WorkDir:      cfg.Paths.WorkDir,
		OutputDir:    cfg.Paths.OutputDir,
		OutputSuffix: cfg.Encoder.OutputSuffix,
		Fetcher:      fetch.New(cfg.Fetch, logger),
		Encoder:      encoding.NewFFmpeg(cfg, logger),
		Styles: style.Resolver{
			Inventory: fonts.Dir{Path: cfg.Paths.FontsDir},
			Fallback:  cfg.Style.DefaultFont,
			Logger:    logger,
		},
		Notifier: notifications.NewService(cfg),
		Logger:   logging.NewComponentLogger(logger, "pipeline"),
	}
}

// Run executes req to completion. On failure the returned Result carries the
// error kind and message and the error is returned as well.
func (r *Runner) Run(ctx context.Context, req Request) (Result, error) {
	started := time.Now()
	requestID := textutil.SanitizeFileName(req.ID)
	if requestID == "" {
		requestID = uuid.NewString()
	}
	ctx = services.WithRequestID(ctx, requestID)
	logger := logging.WithContext(ctx, r.logger())

	r.observer().RunStarted()
	logger.Info("pipeline started",
		logging.String("video_url", redact(req.VideoURL)),
		logging.String("caption_url", redact(req.CaptionURL)),
		logging.String(logging.FieldEventType, "pipeline_start"),
	)

	result, err := r.run(ctx, requestID, req)
	result.RequestID = requestID
	outcome := metrics.OutcomeSuccess
	if err != nil {
		result.ErrorKind = services.KindOf(err)
		result.Message = err.Error()
		result.OutputPath = ""
		result.OutputFilename = ""
		result.ObjectKey = ""
		outcome = string(result.ErrorKind)
		logging.ErrorWithContext(logger, "pipeline failed", "pipeline_failure",
			logging.String(logging.FieldErrorKind, string(result.ErrorKind)),
			logging.Error(err),
			logging.Duration("elapsed", time.Since(started)),
			logging.String(logging.FieldErrorHint, hintFor(result.ErrorKind)),
		)
	} else {
		logger.Info("pipeline completed",
			logging.String("output_path", result.OutputPath),
			logging.String("output_filename", result.OutputFilename),
			logging.Duration("elapsed", time.Since(started)),
			logging.String(logging.FieldEventType, "pipeline_complete"),
		)
	}
	r.observer().RunFinished(outcome)
	r.record(ctx, req, result, started)
	r.notify(ctx, result, time.Since(started))
	return result, err
}

func (r *Runner) run(ctx context.Context, requestID string, req Request) (Result, error) {
	if err := validateRequest(req); err != nil {
		return Result{}, err
	}
	if strings.TrimSpace(r.OutputDir) == "" {
		return Result{}, services.Wrap(nil, StageDeliver, "check output dir", "output directory not configured", nil)
	}

	ws, err := staging.Acquire(r.WorkDir, requestID, r.Logger)
	if err != nil {
		return Result{}, services.Wrap(nil, "", "acquire workspace", "", err)
	}
	defer func() { _ = ws.Release() }()

	var videoPath, captionPath string
	if err := r.stage(ctx, StageFetchVideo, func(ctx context.Context) error {
		dir, err := ws.Subdir("video")
		if err != nil {
			return services.Wrap(nil, StageFetchVideo, "prepare workspace", "", err)
		}
		videoPath, err = r.Fetcher.Fetch(ctx, req.VideoURL, dir)
		if err != nil {
			return services.Wrap(services.ErrFetch, StageFetchVideo, "download video", "", err)
		}
		return nil
	}); err != nil {
		return Result{}, err
	}

	if err := r.stage(ctx, StageFetchCaptions, func(ctx context.Context) error {
		dir, err := ws.Subdir("captions")
		if err != nil {
			return services.Wrap(nil, StageFetchCaptions, "prepare workspace", "", err)
		}
		captionPath, err = r.Fetcher.Fetch(ctx, req.CaptionURL, dir)
		if err != nil {
			return services.Wrap(services.ErrFetch, StageFetchCaptions, "download captions", "", err)
		}
		return nil
	}); err != nil {
		return Result{}, err
	}

	var diagnostics []style.Diagnostic
	if err := r.stage(ctx, StageTranscode, func(ctx context.Context) error {
		raw, err := os.ReadFile(captionPath)
		if err != nil {
			return services.Wrap(services.ErrTranscode, StageTranscode, "read captions", "", err)
		}
		styles := r.Styles
		styles.Logger = logging.WithContext(ctx, styles.Logger)
		resolved := styles.Resolve(req.Options)
		diagnostics = resolved.Diagnostics
		track, err := subtitles.TranscodeBytes(raw, resolved)
		if err != nil {
			return services.Wrap(services.ErrTranscode, StageTranscode, "convert captions", "", err)
		}
		if err := track.WriteFile(ws.Join(SubtitleFileName)); err != nil {
			return services.Wrap(services.ErrTranscode, StageTranscode, "write presentation track", "", err)
		}
		logging.WithContext(ctx, r.logger()).Debug("presentation track written",
			logging.Int("events", len(track.Events)),
			logging.String("font", resolved.FontName),
		)
		return nil
	}); err != nil {
		return Result{}, err
	}

	name := OutputFileName(videoPath, r.OutputSuffix)
	var encodedPath string
	if err := r.stage(ctx, StageEncode, func(ctx context.Context) error {
		outDir, err := ws.Subdir("out")
		if err != nil {
			return services.Wrap(nil, StageEncode, "prepare workspace", "", err)
		}
		encoded, err := r.Encoder.Encode(ctx, encoding.Request{
			Workspace:    ws.Path(),
			InputPath:    videoPath,
			SubtitleFile: SubtitleFileName,
			OutputPath:   filepath.Join(outDir, name),
		})
		if err != nil {
			return services.Wrap(services.ErrEncode, StageEncode, "burn captions", "", err)
		}
		encodedPath = encoded.OutputPath
		return nil
	}); err != nil {
		return Result{}, err
	}

	finalPath := filepath.Join(r.OutputDir, name)
	if err := r.stage(ctx, StageDeliver, func(context.Context) error {
		if err := fileutil.MoveFile(encodedPath, finalPath); err != nil {
			return services.Wrap(nil, StageDeliver, "move output", "", err)
		}
		return nil
	}); err != nil {
		return Result{}, err
	}

	result := Result{
		OutputPath:     finalPath,
		OutputFilename: name,
		Diagnostics:    diagnostics,
	}
	result.ObjectKey = r.publish(ctx, finalPath, name, requestID)
	return result, nil
}

// stage runs fn with the stage recorded on ctx and reports its duration.
func (r *Runner) stage(ctx context.Context, name string, fn func(context.Context) error) error {
	ctx = services.WithStage(ctx, name)
	logger := logging.WithContext(ctx, r.logger())
	logger.Debug("stage started", logging.String(logging.FieldEventType, "stage_start"))
	started := time.Now()
	err := fn(ctx)
	elapsed := time.Since(started)
	r.observer().ObserveStage(name, elapsed)
	if err != nil {
		return err
	}
	logger.Debug("stage completed",
		logging.String(logging.FieldEventType, "stage_complete"),
		logging.Duration("stage_duration", elapsed),
	)
	return nil
}

func (r *Runner) publish(ctx context.Context, path, name, requestID string) string {
	if r.Publisher == nil {
		return ""
	}
	key, err := r.Publisher.Upload(ctx, path, name, requestID)
	if err != nil {
		logging.WarnWithContext(logging.WithContext(ctx, r.logger()), "output publish failed", "publish_failed",
			logging.Error(err),
			logging.String("output_path", path),
			logging.String(logging.FieldErrorHint, "check publish endpoint, bucket and credentials"),
			logging.String(logging.FieldImpact, "captioned video is available locally only"),
		)
		return ""
	}
	return key
}

func (r *Runner) record(ctx context.Context, req Request, result Result, started time.Time) {
	if r.Journal == nil {
		return
	}
	entry := journal.Entry{
		ID:             result.RequestID,
		VideoURL:       redact(req.VideoURL),
		CaptionURL:     redact(req.CaptionURL),
		Status:         journal.StatusSucceeded,
		OutputPath:     result.OutputPath,
		OutputFilename: result.OutputFilename,
		ObjectKey:      result.ObjectKey,
		StartedAt:      started.UTC(),
		FinishedAt:     time.Now().UTC(),
	}
	if !result.Succeeded() {
		entry.Status = journal.StatusFailed
		entry.ErrorKind = string(result.ErrorKind)
		entry.Message = result.Message
	}
	if err := r.Journal.Record(context.WithoutCancel(ctx), entry); err != nil {
		logging.WarnWithContext(logging.WithContext(ctx, r.logger()), "journal write failed", "journal_write_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check journal.path permissions and disk space"),
			logging.String(logging.FieldImpact, "request missing from history"),
		)
	}
}

func (r *Runner) notify(ctx context.Context, result Result, elapsed time.Duration) {
	if r.Notifier == nil {
		return
	}
	notice := notifications.Notice{
		RequestID:      result.RequestID,
		OutputFilename: result.OutputFilename,
		ObjectKey:      result.ObjectKey,
		ErrorKind:      string(result.ErrorKind),
		Message:        result.Message,
		Elapsed:        elapsed,
	}
	ctx = context.WithoutCancel(ctx)
	var err error
	if result.Succeeded() {
		err = r.Notifier.NotifyJobCompleted(ctx, notice)
	} else {
		err = r.Notifier.NotifyJobFailed(ctx, notice)
	}
	if err != nil {
		logging.WarnWithContext(logging.WithContext(ctx, r.logger()), "notification failed", "notification_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check notifications.ntfy_topic"),
		)
	}
}

func validateRequest(req Request) error {
	for _, field := range []struct {
		name  string
		value string
	}{
		{"video_url", req.VideoURL},
		{"srt_url", req.CaptionURL},
	} {
		if strings.TrimSpace(field.value) == "" {
			return services.Wrap(services.ErrValidation, StageValidate, "check request", field.name+" is required", nil)
		}
		if _, err := fetch.ParseURL(field.value); err != nil {
			return services.Wrap(services.ErrValidation, StageValidate, "check request", field.name+" is invalid", err)
		}
	}
	if err := req.Options.Validate(); err != nil {
		return services.Wrap(services.ErrValidation, StageValidate, "check options", "", err)
	}
	return nil
}

func (r *Runner) observer() Observer {
	if r.Metrics == nil {
		return noopObserver{}
	}
	return r.Metrics
}

func (r *Runner) logger() *slog.Logger {
	if r.Logger == nil {
		return logging.NewNop()
	}
	return r.Logger
}

func redact(raw string) string {
	u, err := fetch.ParseURL(raw)
	if err != nil {
		return strings.TrimSpace(raw)
	}
	return fetch.Redact(u)
}

func hintFor(kind services.ErrorKind) string {
	switch kind {
	case services.KindValidation:
		return "supply both video_url and srt_url as http(s) URLs"
	case services.KindFetch:
		return "verify the asset URLs are reachable from this host"
	case services.KindTranscode:
		return "check the caption file is well-formed SRT"
	case services.KindEncode:
		return "inspect the ffmpeg output in the error message"
	default:
		return "check work_dir and output_dir permissions"
	}
}

type noopObserver struct{}

func (noopObserver) RunStarted() {}

func (noopObserver) RunFinished(string) {}

func (noopObserver) ObserveStage(string, time.Duration) {}
