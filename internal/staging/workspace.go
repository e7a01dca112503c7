package staging

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"

	"subburn/internal/logging"
	"subburn/internal/textutil"
)

// DirPrefix marks directories owned by staging inside the work directory.
const DirPrefix = "req-"

// Workspace is a private directory for one request.
type Workspace struct {
	id     string
	path   string
	logger *slog.Logger

	mu         sync.Mutex
	released   bool
	releaseErr error
}

// Acquire creates a fresh workspace under root. An empty requestID gets a
// random one. Acquire fails if the directory already exists so two requests
// never share a workspace.
func Acquire(root, requestID string, logger *slog.Logger) (*Workspace, error) {
	root = strings.TrimSpace(root)
	if root == "" {
		return nil, errors.New("staging root not configured")
	}
	// Workspace paths are handed to tools running with a different cwd.
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve staging root: %w", err)
	}
	id := textutil.SanitizeFileName(requestID)
	if id == "" {
		id = uuid.NewString()
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("ensure staging root: %w", err)
	}
	path := filepath.Join(root, DirPrefix+id)
	if err := os.Mkdir(path, 0o700); err != nil {
		return nil, fmt.Errorf("create workspace: %w", err)
	}
	ws := &Workspace{id: id, path: path, logger: logging.NewComponentLogger(logger, "staging")}
	ws.logger.Debug("workspace acquired", logging.String("path", path))
	return ws, nil
}

// ID returns the workspace identifier.
func (w *Workspace) ID() string { return w.id }

// Path returns the workspace directory.
func (w *Workspace) Path() string { return w.path }

// Join returns a path inside the workspace.
func (w *Workspace) Join(elem ...string) string {
	return filepath.Join(append([]string{w.path}, elem...)...)
}

// Subdir creates (if needed) and returns a directory inside the workspace.
func (w *Workspace) Subdir(name string) (string, error) {
	dir := w.Join(name)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("create workspace dir %s: %w", name, err)
	}
	return dir, nil
}

// Release removes the workspace and everything in it. Calling Release more
// than once returns the first result.
func (w *Workspace) Release() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.released {
		return w.releaseErr
	}
	w.released = true
	if err := os.RemoveAll(w.path); err != nil {
		w.releaseErr = fmt.Errorf("release workspace: %w", err)
		logging.WarnWithContext(w.logger, "workspace cleanup failed", "workspace_release_failed",
			logging.String("path", w.path),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check work_dir permissions; the next service start sweeps leftovers"),
			logging.String(logging.FieldImpact, "disk space not reclaimed"),
		)
		return w.releaseErr
	}
	w.logger.Debug("workspace released", logging.String("path", w.path))
	return nil
}

// Released reports whether Release has run.
func (w *Workspace) Released() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.released
}
