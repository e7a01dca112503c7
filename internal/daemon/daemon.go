package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"

	"subburn/internal/api"
	"subburn/internal/config"
	"subburn/internal/journal"
	"subburn/internal/logging"
	"subburn/internal/metrics"
	"subburn/internal/pipeline"
	"subburn/internal/preflight"
	"subburn/internal/staging"
)

// LockFileName is created in the work directory while a daemon runs.
const LockFileName = "subburn.lock"

// Runner executes burn-in requests.
type Runner interface {
	Run(ctx context.Context, req pipeline.Request) (pipeline.Result, error)
}

// JobStore exposes recorded job history.
type JobStore interface {
	List(ctx context.Context, limit int) ([]journal.Entry, error)
	Get(ctx context.Context, id string) (*journal.Entry, error)
	Stats(ctx context.Context) (journal.Stats, error)
}

// Daemon serves caption requests and enforces single-instance execution per
// work directory.
type Daemon struct {
	cfg     *config.Config
	logger  *slog.Logger
	runner  Runner
	jobs    JobStore
	metrics *metrics.Metrics

	lockPath string
	lock     *flock.Flock

	slots    chan struct{}
	inflight atomic.Int64

	mu      sync.Mutex
	running atomic.Bool
	server  *apiServer
	cancel  context.CancelFunc
}

// New constructs a daemon. jobs and m may be nil.
func New(cfg *config.Config, runner Runner, jobs JobStore, m *metrics.Metrics, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil || runner == nil {
		return nil, errors.New("daemon requires config and pipeline runner")
	}
	slots := cfg.Service.MaxConcurrentJobs
	if slots <= 0 {
		slots = 1
	}
	lockPath := filepath.Join(cfg.Paths.WorkDir, LockFileName)
	return &Daemon{
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "daemon"),
		runner:   runner,
		jobs:     jobs,
		metrics:  m,
		lockPath: lockPath,
		lock:     flock.New(lockPath),
		slots:    make(chan struct{}, slots),
	}, nil
}

// Start acquires the daemon lock, sweeps stale workspaces, runs preflight
// checks and starts the HTTP server.
func (d *Daemon) Start(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	if err := os.MkdirAll(d.cfg.Paths.WorkDir, 0o755); err != nil {
		return fmt.Errorf("ensure work dir: %w", err)
	}
	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return fmt.Errorf("another subburn daemon is already using %s", d.cfg.Paths.WorkDir)
	}

	d.sweepWorkspaces()
	d.logPreflight()

	runCtx, cancel := context.WithCancel(ctx)
	server := newAPIServer(d.cfg.Paths.APIBind, d.cfg.Paths.APIToken, d, d.logger)
	if err := server.start(runCtx); err != nil {
		cancel()
		_ = d.lock.Unlock()
		return err
	}

	d.server = server
	d.cancel = cancel
	d.running.Store(true)
	d.logger.Info("subburn daemon started",
		logging.String("lock", d.lockPath),
		logging.String("address", server.address()),
		logging.Int("max_concurrent_jobs", cap(d.slots)),
		logging.String(logging.FieldEventType, "daemon_start"),
	)
	return nil
}

// Stop drains the HTTP server and releases the daemon lock.
func (d *Daemon) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.running.Load() {
		return
	}

	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.server.stop()
	d.server = nil
	if err := d.lock.Unlock(); err != nil {
		logging.WarnWithContext(d.logger, "failed to release daemon lock", "daemon_lock_release_failed",
			logging.Error(err),
			logging.String("lock", d.lockPath),
			logging.String(logging.FieldErrorHint, "remove the lock file if no daemon is running"),
		)
	}
	d.running.Store(false)
	d.logger.Info("subburn daemon stopped", logging.String(logging.FieldEventType, "daemon_stop"))
}

// Address returns the bound listener address while running.
func (d *Daemon) Address() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.server == nil {
		return ""
	}
	return d.server.address()
}

// Status reports daemon runtime information.
func (d *Daemon) Status(ctx context.Context) api.ServiceStatus {
	status := api.ServiceStatus{
		Running:        d.running.Load(),
		PID:            os.Getpid(),
		LockFilePath:   d.lockPath,
		WorkDir:        d.cfg.Paths.WorkDir,
		OutputDir:      d.cfg.Paths.OutputDir,
		InFlight:       int(d.inflight.Load()),
		MaxConcurrent:  cap(d.slots),
		JournalEnabled: d.jobs != nil,
		Dependencies:   preflight.CheckSystemDeps(ctx, d.cfg),
		Checks:         preflight.RunAll(d.cfg),
	}
	if dirs, err := staging.ListDirectories(d.cfg.Paths.WorkDir); err == nil {
		status.Workspaces = len(dirs)
		for _, dir := range dirs {
			status.WorkspaceBytes += dir.Size
		}
	}
	if d.cfg.Publish.Enabled {
		status.Checks = append(status.Checks, preflight.CheckPublishFromConfig(ctx, d.cfg))
	}
	if d.jobs != nil {
		if stats, err := d.jobs.Stats(ctx); err == nil {
			status.Jobs = &stats
		} else {
			d.logger.Debug("journal stats unavailable", logging.Error(err))
		}
	}
	return status
}

// run executes req while holding a concurrency slot.
func (d *Daemon) run(ctx context.Context, req pipeline.Request) (pipeline.Result, error) {
	select {
	case d.slots <- struct{}{}:
	case <-ctx.Done():
		return pipeline.Result{}, ctx.Err()
	}
	d.inflight.Add(1)
	defer func() {
		d.inflight.Add(-1)
		<-d.slots
	}()
	return d.runner.Run(ctx, req)
}

func (d *Daemon) sweepWorkspaces() {
	maxAge := time.Duration(d.cfg.Service.StaleWorkspaceMinutes) * time.Minute
	if maxAge <= 0 {
		return
	}
	result := staging.CleanStale(d.cfg.Paths.WorkDir, maxAge, d.logger)
	if len(result.Removed) > 0 || len(result.Errors) > 0 {
		d.logger.Info("stale workspace sweep finished",
			logging.Int("removed", len(result.Removed)),
			logging.Int("errors", len(result.Errors)),
		)
	}
}

func (d *Daemon) logPreflight() {
	for _, result := range preflight.Failed(preflight.RunAll(d.cfg)) {
		logging.WarnWithContext(d.logger, "preflight check failed", "preflight_failed",
			logging.String("check", result.Name),
			logging.String("detail", result.Detail),
			logging.String(logging.FieldImpact, "requests depending on this check may fail"),
		)
	}
}
