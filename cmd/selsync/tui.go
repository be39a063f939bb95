package main

import (
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/vango-dev/selsync/internal/config"
	"github.com/vango-dev/selsync/internal/tui"
)

var demoOptions = []string{"alpha", "beta", "gamma", "delta", "epsilon"}

func tuiCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Run the terminal demo",
		Long: `Run a terminal demo with an extended list and a single-select list
bound to one model selection.

Options and the initial selection come from the selection section of the
configuration when present.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			options := cfg.Selection.Options
			if len(options) == 0 {
				options = demoOptions
			}

			// The screen belongs to the program; logs would corrupt it.
			logger := slog.New(slog.NewTextHandler(io.Discard, nil))

			m, err := tui.New(options, cfg.Selection.Initial, logger)
			if err != nil {
				return err
			}
			return tui.Run(cmd.Context(), m)
		},
	}
}
