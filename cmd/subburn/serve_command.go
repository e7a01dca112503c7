package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"subburn/internal/daemon"
	"subburn/internal/logging"
	"subburn/internal/metrics"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	var envFile string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the caption burn-in HTTP service",
		// The .env file must be applied before config env fallbacks are read.
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := loadEnvFile(envFile); err != nil {
				return err
			}
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			signalCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			logger, err := logging.NewFromConfig(cfg)
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			currentLog := filepath.Join(cfg.Paths.LogDir, logging.LogFileName(time.Now()))
			logging.CleanupOldLogs(logger, cfg.Paths.LogDir, logging.LogFilePattern, cfg.Logging.RetentionDays, currentLog)

			rt, err := buildRuntime(signalCtx, cfg, logger)
			if err != nil {
				logger.Error("service setup failed", logging.Error(err))
				return err
			}
			defer rt.Close()

			m := metrics.New()
			rt.runner.Metrics = m

			var jobs daemon.JobStore
			if rt.journal != nil {
				jobs = rt.journal
			}
			d, err := daemon.New(cfg, rt.runner, jobs, m, logger)
			if err != nil {
				return fmt.Errorf("create daemon: %w", err)
			}
			if err := d.Start(signalCtx); err != nil {
				return fmt.Errorf("start daemon: %w", err)
			}
			defer d.Stop()

			<-signalCtx.Done()
			logger.Info("subburn shutting down")
			return nil
		},
	}

	cmd.Flags().StringVar(&envFile, "env-file", ".env", "Environment file loaded before configuration (ignored when missing)")
	return cmd
}

func loadEnvFile(path string) error {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("inspect env file: %w", err)
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load env file %s: %w", path, err)
	}
	return nil
}
