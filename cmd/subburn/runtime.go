package main

import (
	"context"
	"fmt"
	"log/slog"

	"subburn/internal/config"
	"subburn/internal/journal"
	"subburn/internal/pipeline"
	"subburn/internal/publish"
)

// serviceRuntime bundles a configured pipeline with the optional stores it writes to.
type serviceRuntime struct {
	runner  *pipeline.Runner
	journal *journal.Store
}

func (r *serviceRuntime) Close() {
	if r != nil && r.journal != nil {
		_ = r.journal.Close()
	}
}

// buildRuntime wires the pipeline with the job journal and publisher when
// they are enabled.
func buildRuntime(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*serviceRuntime, error) {
	rt := &serviceRuntime{runner: pipeline.NewRunner(cfg, logger)}

	if cfg.Journal.Enabled {
		store, err := journal.Open(cfg.Journal.Path)
		if err != nil {
			return nil, fmt.Errorf("open job journal: %w", err)
		}
		rt.journal = store
		rt.runner.Journal = store
	}

	if cfg.Publish.Enabled {
		pub, err := publish.NewMinIO(cfg.Publish, logger)
		if err != nil {
			rt.Close()
			return nil, fmt.Errorf("configure publisher: %w", err)
		}
		if err := pub.EnsureBucket(ctx); err != nil {
			rt.Close()
			return nil, fmt.Errorf("ensure publish bucket: %w", err)
		}
		rt.runner.Publisher = pub
	}

	return rt, nil
}
