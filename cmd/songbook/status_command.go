package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"songbook/internal/catalog"
	"songbook/internal/workflow"
)

type statusJSON struct {
	DatasetDir   string                `json:"dataset_dir"`
	Records      int                   `json:"records"`
	Files        int                   `json:"files"`
	TotalBytes   int64                 `json:"total_bytes"`
	TotalSeconds float64               `json:"total_seconds,omitempty"`
	Missing      []catalog.TrackRecord `json:"missing"`
	Unplaced     []catalog.TrackRecord `json:"unplaced"`
	Orphans      []string              `json:"orphans"`
	Issues       []string              `json:"issues,omitempty"`
}

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var audio bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Compare the catalog with the dataset directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			report, err := workflow.Status(cfg, audio)
			if err != nil {
				return err
			}

			if ctx.jsonOutput() {
				payload := statusJSON{
					DatasetDir:   report.DatasetDir,
					Records:      report.Records,
					Files:        report.Files,
					TotalBytes:   report.TotalBytes,
					TotalSeconds: report.TotalAudio.Seconds(),
					Missing:      catalog.CloneRecords(report.Missing),
					Unplaced:     catalog.CloneRecords(report.Unplaced),
					Orphans:      make([]string, 0, len(report.Orphans)),
				}
				for _, o := range report.Orphans {
					payload.Orphans = append(payload.Orphans, o.Name)
				}
				for _, issue := range report.Issues {
					payload.Issues = append(payload.Issues, issue.Error())
				}
				return writeJSON(cmd, payload)
			}

			out := cmd.OutOrStdout()
			p := newPalette(out)
			fmt.Fprintf(out, "Dataset:  %s\n", report.DatasetDir)
			fmt.Fprintf(out, "Records:  %d\n", report.Records)
			fmt.Fprintf(out, "Files:    %d (%s)\n", report.Files, formatBytes(report.TotalBytes))
			if audio {
				fmt.Fprintf(out, "Audio:    %s\n", formatDuration(report.TotalAudio))
			}
			fmt.Fprintf(out, "Missing:  %s\n", countLabel(p, len(report.Missing), toneBad))
			fmt.Fprintf(out, "Unplaced: %s\n", countLabel(p, len(report.Unplaced), toneWarn))
			fmt.Fprintf(out, "Orphans:  %s\n", countLabel(p, len(report.Orphans), toneWarn))
			for _, issue := range report.Issues {
				fmt.Fprintf(out, "%s %s\n", p.paint(toneWarn, "unreadable:"), issue.Error())
			}

			if len(report.Missing) > 0 {
				fmt.Fprintln(out, "\nRecords whose file is missing:")
				fmt.Fprintln(out, renderTable(recordHeaders, recordRows(report.Missing), recordAligns))
			}
			if len(report.Orphans) > 0 {
				rows := make([][]string, 0, len(report.Orphans))
				for _, o := range report.Orphans {
					length := "-"
					if o.Audio != nil {
						length = formatDuration(o.Audio.Duration)
					}
					rows = append(rows, []string{o.Name, formatBytes(o.Size), length})
				}
				fmt.Fprintln(out, "\nFiles no record refers to:")
				fmt.Fprintln(out, renderTable([]string{"File", "Size", "Length"}, rows,
					[]columnAlignment{alignLeft, alignRight, alignRight}))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&audio, "audio", false, "Read WAV headers to report audio length")
	return cmd
}

func countLabel(p palette, n int, bad tone) string {
	if n == 0 {
		return p.paint(toneOK, "0")
	}
	return p.paint(bad, fmt.Sprint(n))
}
