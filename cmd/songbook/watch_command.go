package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"songbook/internal/watch"
	"songbook/internal/workflow"
)

func newWatchCommand(ctx *commandContext) *cobra.Command {
	var rename bool

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Reconcile whenever audio files in the dataset change",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := ctx.setup()
			if err != nil {
				return err
			}
			hist, err := ctx.openHistory(cfg)
			if err != nil {
				return err
			}
			defer hist.Close()

			runner, err := workflow.NewRunner(cfg, hist, logger)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			pass := func(passCtx context.Context) error {
				report, err := runner.Run(passCtx, workflow.Options{Rename: rename})
				if errors.Is(err, workflow.ErrNothingToReconcile) {
					return nil
				}
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "%s run %s: %d/%d matched, %d unmatched, %d renamed\n",
					report.FinishedAt.Format("15:04:05"), shortID(report.RunID),
					report.Matched, report.Records, len(report.Unmatched), report.Renamed())
				return nil
			}

			fmt.Fprintf(out, "Watching %s (Ctrl+C to stop)\n", cfg.Paths.DatasetDir)
			return watch.New(cfg, pass, logger, watch.WithInitialPass(true)).Run(cmd.Context())
		},
	}

	cmd.Flags().BoolVar(&rename, "rename", false, "Rename matched files to their canonical names on every pass")
	return cmd
}
