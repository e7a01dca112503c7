package preflight

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"golang.org/x/sys/unix"

	"subburn/internal/config"
	"subburn/internal/deps"
	"subburn/internal/fonts"
)

// BucketChecker reports whether the publish bucket exists.
type BucketChecker interface {
	BucketExists(ctx context.Context, bucket string) (bool, error)
}

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckFonts reports how many fonts the inventory exposes. An unavailable
// inventory fails the check; requests still succeed with the fallback font.
func CheckFonts(name string, inventory fonts.Inventory) Result {
	if inventory == nil {
		return Result{Name: name, Detail: "no font inventory configured"}
	}
	set, err := inventory.Fonts()
	if err != nil {
		if errors.Is(err, fonts.ErrUnavailable) {
			return Result{Name: name, Detail: fmt.Sprintf("unavailable (%v); every request uses the fallback font", err)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("scan failed: %v", err)}
	}
	if len(set) == 0 {
		return Result{Name: name, Detail: "no .ttf/.otf fonts found; every request uses the fallback font"}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%d fonts available", len(set))}
}

// CheckBucket verifies the publish bucket is reachable.
func CheckBucket(ctx context.Context, checker BucketChecker, bucket string) Result {
	const name = "Publish bucket"
	if checker == nil {
		return Result{Name: name, Detail: "object store client unavailable"}
	}
	checkCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	exists, err := checker.BucketExists(checkCtx, bucket)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return Result{Name: name, Detail: "check timed out (object store unreachable)"}
		}
		return Result{Name: name, Detail: fmt.Sprintf("check failed (%v)", err)}
	}
	if !exists {
		return Result{Name: name, Detail: fmt.Sprintf("bucket %q missing (created on first serve)", bucket)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("bucket %q reachable", bucket)}
}

// CheckSystemDeps evaluates the external binaries required by the config.
func CheckSystemDeps(ctx context.Context, cfg *config.Config) []deps.Status {
	return []deps.Status{deps.CheckFFmpeg(ctx, cfg.FFmpegBinary())}
}
