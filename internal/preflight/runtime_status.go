package preflight

import (
	"context"
	"fmt"

	"subburn/internal/config"
	"subburn/internal/journal"
	"subburn/internal/publish"
)

// CheckJournalFromConfig opens the journal and reports its size.
func CheckJournalFromConfig(ctx context.Context, cfg *config.Config) Result {
	const name = "Journal"

	if cfg == nil {
		return Result{Name: name, Detail: "Unknown"}
	}
	if !cfg.Journal.Enabled {
		return Result{Name: name, Passed: true, Detail: "Disabled"}
	}
	store, err := journal.Open(cfg.Journal.Path)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("open failed: %v", err)}
	}
	defer store.Close()

	stats, err := store.Stats(ctx)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("query failed: %v", err)}
	}
	return Result{
		Name:   name,
		Passed: true,
		Detail: fmt.Sprintf("%s (%d jobs: %d succeeded, %d failed)", cfg.Journal.Path, stats.Total, stats.Succeeded, stats.Failed),
	}
}

// CheckPublishFromConfig evaluates object storage status from config and connectivity.
func CheckPublishFromConfig(ctx context.Context, cfg *config.Config) Result {
	const name = "Publish bucket"

	if cfg == nil {
		return Result{Name: name, Detail: "Unknown"}
	}
	if !cfg.Publish.Enabled {
		return Result{Name: name, Passed: true, Detail: "Disabled"}
	}
	pub, err := publish.NewMinIO(cfg.Publish, nil)
	if err != nil {
		return Result{Name: name, Detail: err.Error()}
	}
	return CheckBucket(ctx, pub, pub.Bucket())
}
