package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"subburn/internal/api"
	"subburn/internal/journal"
)

var errJournalDisabled = errors.New("job journal is disabled; set journal.enabled = true")

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var (
		limit      int
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent caption jobs",
		RunE: func(cmd *cobra.Command, args []string) error {
			entries, err := listJobs(cmd.Context(), ctx, limit)
			if err != nil {
				return err
			}
			if jsonOutput {
				if entries == nil {
					entries = []journal.Entry{}
				}
				return writeJSON(cmd, entries)
			}
			printJobs(cmd.OutOrStdout(), entries)
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of jobs to show")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print jobs as JSON")

	cmd.AddCommand(newHistoryShowCommand(ctx))
	cmd.AddCommand(newHistoryPruneCommand(ctx))
	return cmd
}

func newHistoryShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one job in detail",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			entry, err := getJob(cmd.Context(), ctx, strings.TrimSpace(args[0]))
			if err != nil {
				return err
			}
			return writeJSON(cmd, entry)
		},
	}
}

func newHistoryPruneCommand(ctx *commandContext) *cobra.Command {
	var olderThan time.Duration

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete journal entries older than a cutoff",
		RunE: func(cmd *cobra.Command, args []string) error {
			if olderThan <= 0 {
				return errors.New("--older-than must be positive")
			}
			store, err := openJournal(ctx)
			if err != nil {
				return err
			}
			defer store.Close()
			removed, err := store.Prune(cmd.Context(), time.Now().Add(-olderThan))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d jobs\n", removed)
			return nil
		},
	}
	cmd.Flags().DurationVar(&olderThan, "older-than", 30*24*time.Hour, "Age after which jobs are removed")
	return cmd
}

// listJobs asks the running service first and reads the journal directly
// when no service answers.
func listJobs(ctx context.Context, cmdCtx *commandContext, limit int) ([]journal.Entry, error) {
	client, err := cmdCtx.client()
	if err != nil {
		return nil, err
	}
	entries, err := client.Jobs(ctx, limit)
	if err == nil {
		return entries, nil
	}
	if !api.IsUnreachable(err) {
		return nil, remoteJournalError(err)
	}
	store, err := openJournal(cmdCtx)
	if err != nil {
		return nil, err
	}
	defer store.Close()
	return store.List(ctx, limit)
}

func getJob(ctx context.Context, cmdCtx *commandContext, id string) (*journal.Entry, error) {
	client, err := cmdCtx.client()
	if err != nil {
		return nil, err
	}
	entry, err := client.Job(ctx, id)
	if err == nil {
		return entry, nil
	}
	if !api.IsUnreachable(err) {
		return nil, remoteJournalError(err)
	}
	store, err := openJournal(cmdCtx)
	if err != nil {
		return nil, err
	}
	defer store.Close()
	entry, err = store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if entry == nil {
		return nil, fmt.Errorf("job %s not found", id)
	}
	return entry, nil
}

func remoteJournalError(err error) error {
	var remote *api.RemoteError
	if errors.As(err, &remote) && remote.Message != "" {
		return errors.New(remote.Message)
	}
	return err
}

func openJournal(cmdCtx *commandContext) (*journal.Store, error) {
	cfg, err := cmdCtx.ensureConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if !cfg.Journal.Enabled {
		return nil, errJournalDisabled
	}
	return journal.Open(cfg.Journal.Path)
}

func printJobs(out io.Writer, entries []journal.Entry) {
	if len(entries) == 0 {
		fmt.Fprintln(out, "No jobs recorded")
		return
	}
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		result := e.OutputFilename
		if e.Status == journal.StatusFailed {
			result = e.ErrorKind
		}
		rows = append(rows, []string{
			e.ID,
			string(e.Status),
			result,
			e.FinishedAt.Local().Format("2006-01-02 15:04:05"),
			e.Duration().Round(time.Second).String(),
		})
	}
	fmt.Fprintln(out, renderTable([]column{
		{header: "ID"},
		{header: "Status"},
		{header: "Result"},
		{header: "Finished"},
		{header: "Duration", right: true},
	}, rows))
}
