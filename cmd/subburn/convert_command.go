package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"subburn/internal/config"
	"subburn/internal/logging"
	"subburn/internal/style"
	"subburn/internal/subtitles"
)

func newConvertCommand(ctx *commandContext) *cobra.Command {
	var (
		styles     styleFlags
		outputPath string
	)

	cmd := &cobra.Command{
		Use:   "convert <input.srt>",
		Short: "Convert an SRT file into a styled ASS track",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			inputPath, err := config.ExpandPath(args[0])
			if err != nil {
				return err
			}
			raw, err := os.ReadFile(inputPath)
			if err != nil {
				return fmt.Errorf("read captions: %w", err)
			}

			opts := styles.options(cmd)
			if err := opts.Validate(); err != nil {
				return err
			}
			resolved := resolverFor(cfg, logging.NewNop()).Resolve(opts)
			track, err := subtitles.TranscodeBytes(raw, resolved)
			if err != nil {
				return err
			}
			printDiagnostics(cmd.ErrOrStderr(), resolved.Diagnostics)

			target := strings.TrimSpace(outputPath)
			if target == "" || target == "-" {
				_, err := track.WriteTo(cmd.OutOrStdout())
				return err
			}
			if target, err = config.ExpandPath(target); err != nil {
				return err
			}
			if err := track.WriteFile(target); err != nil {
				return fmt.Errorf("write track: %w", err)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %d events to %s\n", len(track.Events), target)
			return nil
		},
	}

	styles.register(cmd)
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Destination .ass file (stdout when empty)")
	return cmd
}

func newStyleCommand(ctx *commandContext) *cobra.Command {
	var (
		styles     styleFlags
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "style",
		Short: "Show the ASS style resolved from caption options",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			opts := styles.options(cmd)
			if err := opts.Validate(); err != nil {
				return err
			}
			resolved := resolverFor(cfg, logging.NewNop()).Resolve(opts)
			if jsonOutput {
				return writeJSON(cmd, resolved)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, style.StyleFormat)
			fmt.Fprintln(out, resolved.StyleLine())
			printDiagnostics(out, resolved.Diagnostics)
			return nil
		},
	}

	styles.register(cmd)
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the resolved style as JSON")
	return cmd
}
