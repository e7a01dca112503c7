package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"subburn/internal/api"
	"subburn/internal/config"
	"subburn/internal/deps"
	"subburn/internal/preflight"
)

// statusReport is the --json shape of `subburn status`.
type statusReport struct {
	ConfigPath   string             `json:"config_path"`
	Service      *api.ServiceStatus `json:"service,omitempty"`
	ServiceError string             `json:"service_error,omitempty"`
	Dependencies []deps.Status      `json:"dependencies"`
	Checks       []preflight.Result `json:"checks"`
}

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show service, dependency and preflight status",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			client, err := ctx.client()
			if err != nil {
				return err
			}

			statusCtx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
			defer cancel()

			report := collectStatus(statusCtx, cfg, client)
			report.ConfigPath = ctx.configPath
			if jsonOutput {
				return writeJSON(cmd, report)
			}
			renderStatus(newStatusWriter(cmd.OutOrStdout()), cfg, report)
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print status as JSON")
	return cmd
}

// collectStatus prefers the running service's view and falls back to local
// checks when no service answers.
func collectStatus(ctx context.Context, cfg *config.Config, client *api.Client) statusReport {
	var report statusReport
	remote, err := client.Status(ctx)
	if err == nil {
		report.Service = remote
		report.Dependencies = remote.Dependencies
		report.Checks = remote.Checks
		return report
	}

	if api.IsUnreachable(err) {
		report.ServiceError = "not running at " + client.BaseURL
	} else {
		report.ServiceError = err.Error()
	}
	report.Dependencies = preflight.CheckSystemDeps(ctx, cfg)
	report.Checks = preflight.RunAll(cfg)
	if cfg.Journal.Enabled {
		report.Checks = append(report.Checks, preflight.CheckJournalFromConfig(ctx, cfg))
	}
	if cfg.Publish.Enabled {
		report.Checks = append(report.Checks, preflight.CheckPublishFromConfig(ctx, cfg))
	}
	return report
}

func renderStatus(w *statusWriter, cfg *config.Config, report statusReport) {
	w.section("Service")
	if svc := report.Service; svc != nil {
		w.line("Daemon", statusOK, fmt.Sprintf("running (pid %d)", svc.PID))
		w.line("Jobs in flight", statusInfo, fmt.Sprintf("%d of %d", svc.InFlight, svc.MaxConcurrent))
		w.line("Workspaces", statusInfo, fmt.Sprintf("%d (%d bytes)", svc.Workspaces, svc.WorkspaceBytes))
		if svc.Jobs != nil {
			w.line("Journal", statusInfo, fmt.Sprintf("%d jobs (%d succeeded, %d failed)", svc.Jobs.Total, svc.Jobs.Succeeded, svc.Jobs.Failed))
		} else {
			w.line("Journal", statusInfo, "disabled")
		}
	} else {
		w.line("Daemon", statusWarn, report.ServiceError)
	}
	w.line("Work directory", statusInfo, cfg.Paths.WorkDir)
	w.line("Output directory", statusInfo, cfg.Paths.OutputDir)
	if report.ConfigPath != "" {
		w.line("Config", statusInfo, report.ConfigPath)
	}

	w.section("Dependencies")
	for _, dep := range report.Dependencies {
		failure := statusError
		if dep.Optional {
			failure = statusWarn
		}
		detail := dep.Detail
		if detail == "" {
			detail = dep.Command
		}
		w.line(dep.Name, passKind(dep.Available, failure), detail)
	}

	w.section("Checks")
	for _, check := range report.Checks {
		w.line(check.Name, passKind(check.Passed, statusError), check.Detail)
	}
}
