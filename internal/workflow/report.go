package workflow

import (
	"time"

	"songbook/internal/catalog"
	"songbook/internal/history"
	"songbook/internal/inventory"
	"songbook/internal/reconcile"
	"songbook/internal/renamer"
)

// Report summarizes one pass.
type Report struct {
	RunID      string
	StartedAt  time.Time
	FinishedAt time.Time
	DatasetDir string
	DryRun     bool

	Records   int
	Files     int
	Matched   int
	Unmatched []catalog.UnmatchedEntry
	Outcomes  []reconcile.Outcome
	Renames   []renamer.Result
	Issues    []inventory.Issue
}

// Duration is the wall time of the pass.
func (r Report) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// Renamed counts files moved (or that would be moved in a dry run).
func (r Report) Renamed() int {
	return r.countRenames(renamer.StatusRenamed)
}

// RenameCounts tallies rename results per status.
func (r Report) RenameCounts() map[renamer.Status]int {
	counts := make(map[renamer.Status]int)
	for _, res := range r.Renames {
		counts[res.Status]++
	}
	return counts
}

func (r Report) countRenames(status renamer.Status) int {
	n := 0
	for _, res := range r.Renames {
		if res.Status == status {
			n++
		}
	}
	return n
}

// Assignments converts outcomes to history rows.
func (r Report) Assignments() []history.Assignment {
	out := make([]history.Assignment, 0, len(r.Outcomes))
	for _, o := range r.Outcomes {
		out = append(out, history.Assignment{
			RunID:       r.RunID,
			Position:    o.Position,
			RecordIndex: o.Index,
			Title:       o.Title,
			Strategy:    string(o.Strategy),
			File:        o.File,
			Score:       o.Score,
		})
	}
	return out
}
