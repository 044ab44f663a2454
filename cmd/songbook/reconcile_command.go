package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"songbook/internal/catalog"
	"songbook/internal/reconcile"
	"songbook/internal/renamer"
	"songbook/internal/workflow"
)

type outcomeJSON struct {
	Position int     `json:"position"`
	Index    *int    `json:"index"`
	Title    string  `json:"title"`
	Strategy string  `json:"strategy"`
	File     string  `json:"file,omitempty"`
	Score    float64 `json:"score"`
}

type renameJSON struct {
	Position int    `json:"position"`
	Title    string `json:"title"`
	From     string `json:"from,omitempty"`
	To       string `json:"to,omitempty"`
	Status   string `json:"status"`
	Reason   string `json:"reason,omitempty"`
}

type reconcileJSON struct {
	RunID      string                   `json:"run_id"`
	DryRun     bool                     `json:"dry_run"`
	Records    int                      `json:"records"`
	Files      int                      `json:"files"`
	Matched    int                      `json:"matched"`
	Strategies map[string]int           `json:"strategies"`
	Unmatched  []catalog.UnmatchedEntry `json:"unmatched"`
	Outcomes   []outcomeJSON            `json:"outcomes"`
	Renames    []renameJSON             `json:"renames,omitempty"`
	Issues     []string                 `json:"issues,omitempty"`
}

func newReconcileCommand(ctx *commandContext) *cobra.Command {
	var rename bool
	var dryRun bool
	var verbose bool

	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Match catalog records to audio files and write the unmatched report",
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
			report, err := runner.Run(cmd.Context(), workflow.Options{Rename: rename, DryRun: dryRun})
			if errors.Is(err, workflow.ErrNothingToReconcile) {
				fmt.Fprintln(cmd.OutOrStdout(), "Catalog is empty; nothing to reconcile")
				return nil
			}
			if err != nil {
				return err
			}

			if ctx.jsonOutput() {
				return writeJSON(cmd, reconcileReportJSON(report))
			}
			printReconcileReport(cmd, report, verbose)
			return nil
		},
	}

	cmd.Flags().BoolVar(&rename, "rename", false, "Rename matched files to their canonical names")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Report what would change without writing anything")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "List the outcome of every record")
	return cmd
}

func reconcileReportJSON(report workflow.Report) reconcileJSON {
	out := reconcileJSON{
		RunID:      report.RunID,
		DryRun:     report.DryRun,
		Records:    report.Records,
		Files:      report.Files,
		Matched:    report.Matched,
		Strategies: map[string]int{},
		Unmatched:  report.Unmatched,
		Outcomes:   make([]outcomeJSON, 0, len(report.Outcomes)),
	}
	for _, o := range report.Outcomes {
		out.Strategies[string(o.Strategy)]++
		file := o.File
		if !o.Matched() {
			file = ""
		}
		out.Outcomes = append(out.Outcomes, outcomeJSON{
			Position: o.Position,
			Index:    o.Index,
			Title:    o.Title,
			Strategy: string(o.Strategy),
			File:     file,
			Score:    o.Score,
		})
	}
	for _, r := range report.Renames {
		out.Renames = append(out.Renames, renameJSON{
			Position: r.Position,
			Title:    r.Title,
			From:     r.From,
			To:       r.To,
			Status:   string(r.Status),
			Reason:   r.Reason,
		})
	}
	for _, issue := range report.Issues {
		out.Issues = append(out.Issues, issue.Error())
	}
	return out
}

func printReconcileReport(cmd *cobra.Command, report workflow.Report, verbose bool) {
	out := cmd.OutOrStdout()
	p := newPalette(out)

	prefix := ""
	if report.DryRun {
		prefix = p.paint(toneWarn, "[dry run] ")
	}
	fmt.Fprintf(out, "%sRun %s: %d records, %d files\n", prefix, report.RunID, report.Records, report.Files)

	counts := make(map[reconcile.Strategy]int)
	for _, o := range report.Outcomes {
		counts[o.Strategy]++
	}
	fmt.Fprintf(out, "  Matched:   %s (index %d, disambiguated %d, existing %d, fuzzy %d)\n",
		p.paint(toneOK, fmt.Sprint(report.Matched)),
		counts[reconcile.StrategyIndex],
		counts[reconcile.StrategyIndexDisambiguated],
		counts[reconcile.StrategyExisting],
		counts[reconcile.StrategyFuzzy])
	unmatchedTone := toneOK
	if len(report.Unmatched) > 0 {
		unmatchedTone = toneBad
	}
	fmt.Fprintf(out, "  Unmatched: %s\n", p.paint(unmatchedTone, fmt.Sprint(len(report.Unmatched))))
	if len(report.Renames) > 0 {
		rc := report.RenameCounts()
		fmt.Fprintf(out, "  Renamed:   %d (in place %d, conflicts %d, not found %d, errors %d)\n",
			rc[renamer.StatusRenamed], rc[renamer.StatusInPlace], rc[renamer.StatusSkippedConflict],
			rc[renamer.StatusNotFound], rc[renamer.StatusError])
	}
	for _, issue := range report.Issues {
		fmt.Fprintf(out, "  %s %s\n", p.paint(toneWarn, "skipped:"), issue.Error())
	}

	if verbose && len(report.Outcomes) > 0 {
		rows := make([][]string, 0, len(report.Outcomes))
		for _, o := range report.Outcomes {
			file := "-"
			if o.Matched() {
				file = o.File
			}
			rows = append(rows, []string{formatIndex(o.Index), o.Title, strategyLabel(p, o.Strategy), file, formatScore(o.Score)})
		}
		fmt.Fprintln(out, renderTable(
			[]string{"#", "Title", "Strategy", "File", "Score"},
			rows,
			[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignRight},
		))
	}

	if len(report.Unmatched) > 0 {
		fmt.Fprintln(out, renderTable([]string{"#", "Title", "Artist", "Expected file"}, unmatchedRows(report.Unmatched),
			[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft}))
	}

	var renameRows [][]string
	for _, r := range report.Renames {
		if r.Status == renamer.StatusInPlace {
			continue
		}
		renameRows = append(renameRows, []string{r.Title, formatFile(r.From), formatFile(r.To), renameLabel(p, r.Status), r.Reason})
	}
	if len(renameRows) > 0 {
		fmt.Fprintln(out, renderTable([]string{"Title", "From", "To", "Status", "Reason"}, renameRows, nil))
	}
}

func unmatchedRows(entries []catalog.UnmatchedEntry) [][]string {
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		expected := "-"
		if e.ExpectedFile != nil {
			expected = *e.ExpectedFile
		}
		rows = append(rows, []string{formatIndex(e.Index), e.Title, e.Artist, expected})
	}
	return rows
}

func strategyLabel(p palette, s reconcile.Strategy) string {
	switch s {
	case reconcile.StrategyUnmatched:
		return p.paint(toneBad, string(s))
	case reconcile.StrategyFuzzy:
		return p.paint(toneWarn, string(s))
	default:
		return p.paint(toneOK, string(s))
	}
}

func renameLabel(p palette, s renamer.Status) string {
	switch s {
	case renamer.StatusRenamed:
		return p.paint(toneOK, string(s))
	case renamer.StatusError:
		return p.paint(toneBad, string(s))
	default:
		return p.paint(toneWarn, string(s))
	}
}
