package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"songbook/internal/download"
	"songbook/internal/lyrics"
	"songbook/internal/prune"
	"songbook/internal/separation"
)

type itemJSON struct {
	Title  string `json:"title"`
	File   string `json:"file,omitempty"`
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

// statusSummary renders "3 saved, 1 failed" in first-seen order.
func statusSummary(statuses []string) string {
	counts := make(map[string]int)
	var order []string
	for _, s := range statuses {
		if counts[s] == 0 {
			order = append(order, s)
		}
		counts[s]++
	}
	if len(order) == 0 {
		return "nothing to do"
	}
	parts := make([]string, 0, len(order))
	for _, s := range order {
		parts = append(parts, fmt.Sprintf("%d %s", counts[s], s))
	}
	return strings.Join(parts, ", ")
}

func printFailures(cmd *cobra.Command, items []itemJSON, failed string) {
	var rows [][]string
	for _, item := range items {
		if item.Status == failed {
			rows = append(rows, []string{item.Title, formatFile(item.File), item.Error})
		}
	}
	if len(rows) > 0 {
		fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Title", "File", "Error"}, rows, nil))
	}
}

func newDownloadCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "download [playlist-url]",
		Short: "Download a playlist into the dataset and catalog each track",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := ctx.setup()
			if err != nil {
				return err
			}
			url := ""
			if len(args) == 1 {
				url = args[0]
			}
			report, err := download.New(cfg, nil, logger).Run(cmd.Context(), url)
			if err != nil {
				return err
			}

			items := make([]itemJSON, 0, len(report.Results))
			statuses := make([]string, 0, len(report.Results))
			for _, r := range report.Results {
				items = append(items, itemJSON{Title: r.Title, File: r.File, Status: string(r.Status), Error: errString(r.Err)})
				statuses = append(statuses, string(r.Status))
			}
			if ctx.jsonOutput() {
				return writeJSON(cmd, map[string]any{
					"playlist":  report.Playlist,
					"cataloged": report.Cataloged(),
					"results":   items,
				})
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Playlist %q: %s; %d added to the catalog\n", report.Playlist, statusSummary(statuses), report.Cataloged())
			printFailures(cmd, items, string(download.StatusFailed))
			return nil
		},
	}
}

func newPruneCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "prune",
		Short: "Delete placeholder downloads and drop records whose file is gone",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := ctx.setup()
			if err != nil {
				return err
			}
			report, err := prune.New(cfg, logger).Run()
			if err != nil {
				return err
			}

			failures := make([]itemJSON, 0, len(report.Failed))
			for _, f := range report.Failed {
				failures = append(failures, itemJSON{File: f.Name, Status: "failed", Error: errString(f.Err)})
			}
			if ctx.jsonOutput() {
				return writeJSON(cmd, map[string]any{
					"deleted":         report.Deleted,
					"failed":          failures,
					"dropped":         report.Dropped,
					"kept":            report.Kept,
					"catalog_missing": report.CatalogMissing,
				})
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Deleted %d placeholder file(s)\n", len(report.Deleted))
			if report.CatalogMissing {
				fmt.Fprintln(out, "No catalog found; nothing to synchronize")
			} else {
				fmt.Fprintf(out, "Dropped %d record(s), kept %d\n", len(report.Dropped), report.Kept)
			}
			if len(report.Dropped) > 0 {
				fmt.Fprintln(out, renderTable(recordHeaders, recordRows(report.Dropped), recordAligns))
			}
			printFailures(cmd, failures, "failed")
			return nil
		},
	}
}

func newLyricsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "lyrics",
		Short: "Store a Genius lyrics link for every catalog track",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := ctx.setup()
			if err != nil {
				return err
			}
			fetcher, err := lyrics.New(cfg, nil, logger)
			if errors.Is(err, lyrics.ErrNoToken) {
				return fmt.Errorf("%w (set GENIUS_API_TOKEN or lyrics.api_token)", err)
			}
			if err != nil {
				return err
			}
			results, err := fetcher.Run(cmd.Context())
			if err != nil {
				return err
			}

			items := make([]itemJSON, 0, len(results))
			statuses := make([]string, 0, len(results))
			for _, r := range results {
				items = append(items, itemJSON{Title: r.Title, File: r.Path, Status: string(r.Status), Error: errString(r.Err)})
				statuses = append(statuses, string(r.Status))
			}
			if ctx.jsonOutput() {
				return writeJSON(cmd, items)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Lyrics: %s\n", statusSummary(statuses))
			printFailures(cmd, items, string(lyrics.StatusFailed))
			return nil
		},
	}
}

func newSeparateCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "separate",
		Short: "Split catalog tracks into vocal and accompaniment stems",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := ctx.setup()
			if err != nil {
				return err
			}
			results, err := separation.New(cfg, logger).Run(cmd.Context())
			if err != nil {
				return err
			}

			items := make([]itemJSON, 0, len(results))
			statuses := make([]string, 0, len(results))
			for _, r := range results {
				items = append(items, itemJSON{Title: r.Title, File: r.Output, Status: string(r.Status), Error: errString(r.Err)})
				statuses = append(statuses, string(r.Status))
			}
			if ctx.jsonOutput() {
				return writeJSON(cmd, items)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Separation: %s\n", statusSummary(statuses))
			printFailures(cmd, items, string(separation.StatusFailed))
			return nil
		},
	}
}
