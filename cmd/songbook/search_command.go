package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"songbook/internal/catalog"
)

func newSearchCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "search <query>",
		Short: "Find catalog tracks by title or artist",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			records, err := ctx.catalogStore(cfg).Load()
			if err != nil {
				return err
			}
			query := strings.Join(args, " ")
			hits := catalog.Search(records, query)

			if ctx.jsonOutput() {
				return writeJSON(cmd, hits)
			}
			out := cmd.OutOrStdout()
			if len(hits) == 0 {
				fmt.Fprintf(out, "No tracks match %q\n", query)
				return nil
			}
			fmt.Fprintln(out, renderTable(recordHeaders, recordRows(hits), recordAligns))
			return nil
		},
	}
}
