package main

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"songbook/internal/history"
)

type runJSON struct {
	ID          string               `json:"id"`
	StartedAt   time.Time            `json:"started_at"`
	FinishedAt  time.Time            `json:"finished_at"`
	DatasetDir  string               `json:"dataset_dir"`
	Records     int                  `json:"records"`
	Matched     int                  `json:"matched"`
	Unmatched   int                  `json:"unmatched"`
	Renamed     int                  `json:"renamed"`
	DryRun      bool                 `json:"dry_run"`
	Assignments []history.Assignment `json:"assignments,omitempty"`
}

func toRunJSON(run history.Run) runJSON {
	return runJSON{
		ID:         run.ID,
		StartedAt:  run.StartedAt,
		FinishedAt: run.FinishedAt,
		DatasetDir: run.DatasetDir,
		Records:    run.Records,
		Matched:    run.Matched,
		Unmatched:  run.Unmatched,
		Renamed:    run.Renamed,
		DryRun:     run.DryRun,
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history [run-id]",
		Short: "List past reconciliation runs or show one run's assignments",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			hist, err := ctx.openHistory(cfg)
			if err != nil {
				return err
			}
			defer hist.Close()

			if len(args) == 1 {
				return showRun(cmd, ctx, hist, args[0])
			}

			runs, err := hist.ListRuns(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if ctx.jsonOutput() {
				payload := make([]runJSON, 0, len(runs))
				for _, run := range runs {
					payload = append(payload, toRunJSON(run))
				}
				return writeJSON(cmd, payload)
			}
			out := cmd.OutOrStdout()
			if len(runs) == 0 {
				fmt.Fprintln(out, "No runs recorded")
				return nil
			}
			rows := make([][]string, 0, len(runs))
			for _, run := range runs {
				rows = append(rows, []string{
					shortID(run.ID),
					humanize.Time(run.StartedAt),
					formatDuration(run.Duration()),
					fmt.Sprint(run.Records),
					fmt.Sprint(run.Matched),
					fmt.Sprint(run.Unmatched),
					fmt.Sprint(run.Renamed),
					yesNo(run.DryRun),
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Run", "Started", "Took", "Records", "Matched", "Unmatched", "Renamed", "Dry run"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignRight, alignRight, alignRight, alignLeft},
			))
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of runs to list (0 for all)")
	cmd.AddCommand(newHistoryPruneCommand(ctx))
	return cmd
}

func showRun(cmd *cobra.Command, ctx *commandContext, hist *history.Store, id string) error {
	run, err := hist.FindRun(cmd.Context(), id)
	if err != nil {
		return err
	}
	assignments, err := hist.Assignments(cmd.Context(), run.ID)
	if err != nil {
		return err
	}
	if ctx.jsonOutput() {
		payload := toRunJSON(run)
		payload.Assignments = assignments
		return writeJSON(cmd, payload)
	}

	out := cmd.OutOrStdout()
	p := newPalette(out)
	fmt.Fprintf(out, "Run %s\n", run.ID)
	fmt.Fprintf(out, "  Started:   %s (%s)\n", run.StartedAt.Local().Format(time.DateTime), humanize.Time(run.StartedAt))
	fmt.Fprintf(out, "  Dataset:   %s\n", run.DatasetDir)
	fmt.Fprintf(out, "  Matched:   %d of %d\n", run.Matched, run.Records)
	fmt.Fprintf(out, "  Renamed:   %d\n", run.Renamed)
	fmt.Fprintf(out, "  Dry run:   %s\n", yesNo(run.DryRun))

	rows := make([][]string, 0, len(assignments))
	for _, a := range assignments {
		file := a.File
		tn := toneOK
		switch a.Strategy {
		case "unmatched":
			file, tn = "-", toneBad
		case "fuzzy":
			tn = toneWarn
		}
		rows = append(rows, []string{formatIndex(a.RecordIndex), a.Title, p.paint(tn, a.Strategy), formatFile(file), formatScore(a.Score)})
	}
	if len(rows) > 0 {
		fmt.Fprintln(out, renderTable(
			[]string{"#", "Title", "Strategy", "File", "Score"},
			rows,
			[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignRight},
		))
	}
	return nil
}

func newHistoryPruneCommand(ctx *commandContext) *cobra.Command {
	var olderThan time.Duration

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete runs older than a given age",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if olderThan <= 0 {
				return fmt.Errorf("--older-than must be positive")
			}
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			hist, err := ctx.openHistory(cfg)
			if err != nil {
				return err
			}
			defer hist.Close()

			removed, err := hist.PruneBefore(cmd.Context(), time.Now().Add(-olderThan))
			if err != nil {
				return err
			}
			if ctx.jsonOutput() {
				return writeJSON(cmd, map[string]int64{"removed": removed})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d run(s)\n", removed)
			return nil
		},
	}
	cmd.Flags().DurationVar(&olderThan, "older-than", 30*24*time.Hour, "Age threshold, e.g. 720h")
	return cmd
}
