package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/vango-dev/selsync/internal/errors"
	"github.com/vango-dev/selsync/pkg/dispatch"
	"github.com/vango-dev/selsync/pkg/filectl"
	"github.com/vango-dev/selsync/pkg/selection"
)

func mirrorCmd() *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:   "mirror <left> <right>",
		Short: "Keep two selection files in sync",
		Long: `Keep two selection files in sync until interrupted.

Each file holds one item per line. Blank lines and lines starting with #
are ignored. Missing files are created. When both files hold items at
start, the left file wins.

Examples:
  selsync mirror a.txt b.txt`,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 2 {
				return errors.New("E141").
					WithDetail(fmt.Sprintf("mirror takes two files, got %d", len(args))).
					WithSuggestion("Run 'selsync mirror left.txt right.txt'")
			}
			if args[0] == args[1] {
				return errors.New("E141").WithDetail("Both sides name the same file")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			level := slog.LevelInfo
			if verbose {
				level = slog.LevelDebug
			}
			logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
			return runMirror(cmd.Context(), args[0], args[1], logger)
		},
	}

	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Log every propagation")

	return cmd
}

func runMirror(ctx context.Context, leftPath, rightPath string, logger *slog.Logger) error {
	loop := dispatch.New(dispatch.WithLogger(logger))
	defer loop.Close()

	left, err := filectl.Open(leftPath, loop, filectl.WithLogger(logger))
	if err != nil {
		return errors.New("E142").Wrap(err)
	}
	defer left.Close()
	right, err := filectl.Open(rightPath, loop, filectl.WithLogger(logger))
	if err != nil {
		return errors.New("E142").Wrap(err)
	}
	defer right.Close()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return ignoreCanceled(loop.Run(ctx)) })

	var syncer *selection.Synchronizer
	err = loop.Call(ctx, func() error {
		l, err := left.Selection()
		if err != nil {
			return err
		}
		r, err := right.Selection()
		if err != nil {
			return err
		}
		syncer = selection.Synchronize[string](l, r,
			selection.WithName("mirror"),
			selection.WithLogger(logger),
			selection.WithContext(ctx),
		)
		return nil
	})
	if err != nil {
		loop.Close()
		_ = g.Wait()
		return err
	}
	defer syncer.Dispose()

	g.Go(func() error { return ignoreCanceled(left.Run(ctx)) })
	g.Go(func() error { return ignoreCanceled(right.Run(ctx)) })

	success("Mirroring %s <-> %s", left.Path(), right.Path())
	return g.Wait()
}
