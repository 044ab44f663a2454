package reconcile

import (
	"log/slog"
	"strings"

	"songbook/internal/catalog"
	"songbook/internal/inventory"
	"songbook/internal/logging"
	"songbook/internal/similarity"
	"songbook/internal/textnorm"
)

// Strategy names the cascade step that settled a record.
type Strategy string

const (
	StrategyIndex              Strategy = "index"
	StrategyIndexDisambiguated Strategy = "index-disambiguated"
	StrategyExisting           Strategy = "existing"
	StrategyFuzzy              Strategy = "fuzzy"
	StrategyUnmatched          Strategy = "unmatched"
)

// Outcome explains how one record was settled. Score is the title
// similarity of the chosen file (plus the artist bonus for fuzzy matches).
type Outcome struct {
	Position int
	Index    *int
	Title    string
	Strategy Strategy
	File     string
	Score    float64
}

// Matched reports whether the record was assigned a file.
func (o Outcome) Matched() bool { return o.Strategy != StrategyUnmatched }

// Result is the output of a reconciliation pass. Records is a fresh copy of
// the input in the same order.
type Result struct {
	Records   []catalog.TrackRecord
	Matched   int
	Unmatched []catalog.UnmatchedEntry
	Outcomes  []Outcome
}

// CountByStrategy tallies outcomes per strategy.
func (r Result) CountByStrategy() map[Strategy]int {
	counts := make(map[Strategy]int)
	for _, o := range r.Outcomes {
		counts[o.Strategy]++
	}
	return counts
}

// Engine assigns inventory files to catalog records. It is stateless between
// calls and safe for concurrent use.
type Engine struct {
	policy Policy
	scorer similarity.Scorer
	logger *slog.Logger
}

// NewEngine builds an engine. A nil scorer selects the default metric.
func NewEngine(policy Policy, scorer similarity.Scorer, logger *slog.Logger) *Engine {
	if scorer == nil {
		scorer = similarity.Default()
	}
	return &Engine{
		policy: policy.normalized(),
		scorer: scorer,
		logger: logging.NewComponentLogger(logger, "reconcile"),
	}
}

// Policy returns the effective policy after defaults were applied.
func (e *Engine) Policy() Policy { return e.policy }

// Reconcile runs the cascade for every record: exact index, existing
// filename, fuzzy title match, and finally unmatched. The input slice is
// never modified.
func (e *Engine) Reconcile(records []catalog.TrackRecord, inv inventory.Inventory) Result {
	out := catalog.CloneRecords(records)
	result := Result{
		Records:   out,
		Unmatched: []catalog.UnmatchedEntry{},
		Outcomes:  make([]Outcome, 0, len(out)),
	}

	byIndex := make(map[int][]int)
	for i, entry := range inv.Entries {
		if entry.Index != nil {
			byIndex[*entry.Index] = append(byIndex[*entry.Index], i)
		}
	}

	for pos := range out {
		rec := &out[pos]
		outcome := e.match(*rec, inv, byIndex)
		outcome.Position = pos
		outcome.Index = rec.Index
		outcome.Title = rec.Title

		if outcome.Matched() {
			rec.File = outcome.File
			result.Matched++
		} else {
			result.Unmatched = append(result.Unmatched, rec.Unmatched())
		}
		result.Outcomes = append(result.Outcomes, outcome)

		attrs := append([]logging.Attr{
			logging.Int("position", pos),
			logging.String("title", rec.Title),
		}, logging.MatchAttrs(string(outcome.Strategy), outcome.File, outcome.Score)...)
		e.logger.Debug("record reconciled", logging.Args(attrs...)...)
	}

	return result
}

func (e *Engine) match(rec catalog.TrackRecord, inv inventory.Inventory, byIndex map[int][]int) Outcome {
	title := textnorm.Normalize(rec.Title)

	if rec.Index != nil {
		if candidates := byIndex[*rec.Index]; len(candidates) > 0 {
			if len(candidates) == 1 {
				entry := inv.Entries[candidates[0]]
				return Outcome{
					Strategy: StrategyIndex,
					File:     entry.Name,
					Score:    e.scorer.Score(title, entry.NormalizedBody),
				}
			}
			best, bestScore := -1, -1.0
			for _, i := range candidates {
				score := e.scorer.Score(title, inv.Entries[i].NormalizedBody)
				if score > bestScore {
					best, bestScore = i, score
				}
			}
			return Outcome{
				Strategy: StrategyIndexDisambiguated,
				File:     inv.Entries[best].Name,
				Score:    bestScore,
			}
		}
	}

	if rec.File != "" && inv.Contains(rec.File) {
		score := 0.0
		if entry, ok := inv.Lookup(rec.File); ok {
			score = e.scorer.Score(title, entry.NormalizedBody)
		}
		return Outcome{Strategy: StrategyExisting, File: rec.File, Score: score}
	}

	artist := textnorm.Normalize(rec.Artist)
	best, bestScore := -1, 0.0
	for i, entry := range inv.Entries {
		score := e.scorer.Score(title, entry.NormalizedBody)
		if artist != "" && strings.Contains(entry.NormalizedBody, artist) {
			score += e.policy.ArtistBonus
		}
		if score > bestScore {
			best, bestScore = i, score
		}
	}
	if best >= 0 && bestScore >= e.policy.FuzzyThreshold {
		return Outcome{Strategy: StrategyFuzzy, File: inv.Entries[best].Name, Score: bestScore}
	}

	return Outcome{Strategy: StrategyUnmatched, File: rec.File}
}
