package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"songbook/internal/preflight"
)

type checkJSON struct {
	Name     string `json:"name"`
	Passed   bool   `json:"passed"`
	Optional bool   `json:"optional"`
	Detail   string `json:"detail"`
}

var errChecksFailed = errors.New("one or more required checks failed")

func newDoctorCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check directories, external tools, and the Genius API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			results := preflight.RunAll(cmd.Context(), cfg)

			if ctx.jsonOutput() {
				payload := make([]checkJSON, 0, len(results))
				for _, r := range results {
					payload = append(payload, checkJSON{Name: r.Name, Passed: r.Passed, Optional: r.Optional, Detail: r.Detail})
				}
				if err := writeJSON(cmd, payload); err != nil {
					return err
				}
			} else {
				p := newPalette(cmd.OutOrStdout())
				rows := make([][]string, 0, len(results))
				for _, r := range results {
					state := p.paint(toneOK, "ok")
					switch {
					case r.Failed():
						state = p.paint(toneBad, "fail")
					case !r.Passed:
						state = p.paint(toneWarn, "warn")
					}
					rows = append(rows, []string{r.Name, state, r.Detail})
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Check", "State", "Detail"}, rows, nil))
			}

			if preflight.AnyFailed(results) {
				return errChecksFailed
			}
			return nil
		},
	}
}
