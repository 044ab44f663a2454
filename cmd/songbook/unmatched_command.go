package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newUnmatchedCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "unmatched",
		Short: "Show the records the last reconciliation could not place",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			entries, err := ctx.catalogStore(cfg).LoadUnmatched()
			if err != nil {
				return err
			}
			if ctx.jsonOutput() {
				return writeJSON(cmd, entries)
			}
			out := cmd.OutOrStdout()
			if len(entries) == 0 {
				fmt.Fprintln(out, "No unmatched records")
				return nil
			}
			fmt.Fprintln(out, renderTable([]string{"#", "Title", "Artist", "Expected file"}, unmatchedRows(entries),
				[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft}))
			return nil
		},
	}
}
