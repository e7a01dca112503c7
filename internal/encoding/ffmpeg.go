package encoding

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"subburn/internal/config"
	"subburn/internal/logging"
	"subburn/internal/textutil"
)

// Request describes one burn-in invocation. SubtitleFile is a bare file name
// inside Workspace; InputPath and OutputPath may be absolute or relative to
// Workspace.
type Request struct {
	Workspace    string
	InputPath    string
	SubtitleFile string
	OutputPath   string
}

// Result describes a successful encode.
type Result struct {
	OutputPath string
	SizeBytes  int64
	Elapsed    time.Duration
}

// Encoder produces a captioned video.
type Encoder interface {
	Encode(ctx context.Context, req Request) (Result, error)
}

// ExitError reports a non-zero encoder exit. Stderr is the encoder's
// diagnostic output, unmodified.
type ExitError struct {
	ExitCode int
	Stderr   string
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("ffmpeg exited with status %d: %s", e.ExitCode, e.Stderr)
}

// DefaultPreset is passed to -preset when none is configured.
const DefaultPreset = "fast"

// FFmpeg drives the ffmpeg binary.
type FFmpeg struct {
	Binary  string
	Preset  string
	Timeout time.Duration
	Runner  CommandRunner
	Logger  *slog.Logger
}

// NewFFmpeg constructs an FFmpeg encoder from configuration.
func NewFFmpeg(cfg *config.Config, logger *slog.Logger) *FFmpeg {
	return &FFmpeg{
		Binary:  cfg.FFmpegBinary(),
		Preset:  cfg.Encoder.Preset,
		Timeout: time.Duration(cfg.Encoder.TimeoutSeconds) * time.Second,
		Runner:  ExecRunner{},
		Logger:  logging.NewComponentLogger(logger, "encoder"),
	}
}

// Args returns the ordered ffmpeg arguments for req: overwrite, input,
// subtitle burn-in filter, audio stream copy, speed preset, output.
func (f *FFmpeg) Args(req Request) []string {
	preset := strings.TrimSpace(f.Preset)
	if preset == "" {
		preset = DefaultPreset
	}
	return []string{
		"-hide_banner",
		"-nostdin",
		"-y",
		"-i", req.InputPath,
		"-vf", "subtitles=" + req.SubtitleFile,
		"-c:a", "copy",
		"-preset", preset,
		req.OutputPath,
	}
}

// Encode runs ffmpeg and verifies that it produced a non-empty output file.
func (f *FFmpeg) Encode(ctx context.Context, req Request) (Result, error) {
	if err := validateRequest(req); err != nil {
		return Result{}, err
	}
	if f.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.Timeout)
		defer cancel()
	}

	binary := strings.TrimSpace(f.Binary)
	if binary == "" {
		binary = "ffmpeg"
	}
	cmd := Command{Dir: req.Workspace, Name: binary, Args: f.Args(req)}
	logger := logging.WithContext(ctx, f.logger())
	logger.Info("ffmpeg started",
		logging.String("command", binary+" "+strings.Join(cmd.Args, " ")),
		logging.String("workspace", req.Workspace),
		logging.String(logging.FieldEventType, "encode_started"),
	)

	started := time.Now()
	result, err := f.runner().Run(ctx, cmd)
	elapsed := time.Since(started)
	if err != nil {
		switch {
		case result.ExitCode > 0:
			return Result{}, &ExitError{ExitCode: result.ExitCode, Stderr: result.Stderr}
		case ctx.Err() != nil:
			return Result{}, fmt.Errorf("ffmpeg interrupted after %s: %w", elapsed.Round(time.Millisecond), ctx.Err())
		default:
			return Result{}, fmt.Errorf("run %s: %w", binary, err)
		}
	}

	outputPath := req.OutputPath
	if !filepath.IsAbs(outputPath) {
		outputPath = filepath.Join(req.Workspace, outputPath)
	}
	info, err := os.Stat(outputPath)
	if err != nil {
		return Result{}, fmt.Errorf("ffmpeg reported success but output is missing: %w", err)
	}
	if info.Size() == 0 {
		return Result{}, fmt.Errorf("ffmpeg produced an empty output file %s", filepath.Base(outputPath))
	}

	logger.Info("ffmpeg finished",
		logging.String("output", outputPath),
		logging.Int64("size_bytes", info.Size()),
		logging.Duration("elapsed", elapsed),
		logging.String(logging.FieldEventType, "encode_finished"),
	)
	return Result{OutputPath: outputPath, SizeBytes: info.Size(), Elapsed: elapsed}, nil
}

func validateRequest(req Request) error {
	switch {
	case strings.TrimSpace(req.Workspace) == "":
		return errors.New("encode request missing workspace")
	case strings.TrimSpace(req.InputPath) == "":
		return errors.New("encode request missing input path")
	case strings.TrimSpace(req.OutputPath) == "":
		return errors.New("encode request missing output path")
	}
	// The filter argument is not escaped, so only names that need no
	// filtergraph quoting are accepted.
	if req.SubtitleFile == "" || textutil.SanitizeFileName(req.SubtitleFile) != req.SubtitleFile {
		return fmt.Errorf("subtitle file %q must be a plain file name inside the workspace", req.SubtitleFile)
	}
	return nil
}

func (f *FFmpeg) runner() CommandRunner {
	if f.Runner != nil {
		return f.Runner
	}
	return ExecRunner{}
}

func (f *FFmpeg) logger() *slog.Logger {
	if f.Logger != nil {
		return f.Logger
	}
	return logging.NewNop()
}
