package main

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"subburn/internal/fonts"
)

func newFontsCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "fonts",
		Short: "List fonts available for captions",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			set, err := fonts.Dir{Path: cfg.Paths.FontsDir}.Fonts()
			if err != nil {
				if errors.Is(err, fonts.ErrUnavailable) {
					return fmt.Errorf("%w; set paths.fonts_dir to a readable directory", err)
				}
				return err
			}
			names := fonts.Sorted(set)
			if jsonOutput {
				return writeJSON(cmd, names)
			}

			out := cmd.OutOrStdout()
			if len(names) == 0 {
				fmt.Fprintf(out, "No fonts found in %s; captions will use %s\n", cfg.Paths.FontsDir, cfg.Style.DefaultFont)
				return nil
			}
			rows := make([][]string, 0, len(names))
			for i, name := range names {
				rows = append(rows, []string{strconv.Itoa(i + 1), name, yesNo(name == cfg.Style.DefaultFont)})
			}
			fmt.Fprintln(out, renderTable([]column{{header: "#", right: true}, {header: "Font"}, {header: "Fallback"}}, rows))
			fmt.Fprintf(out, "%d fonts in %s\n", len(names), cfg.Paths.FontsDir)
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print font names as JSON")
	return cmd
}
