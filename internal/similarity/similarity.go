package similarity

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/adrg/strutil"
	"github.com/adrg/strutil/metrics"
	"github.com/agnivade/levenshtein"
)

// Metric names accepted by New.
const (
	MetricLevenshtein       = "levenshtein"
	MetricJaroWinkler       = "jaro-winkler"
	MetricSorensenDice      = "sorensen-dice"
	MetricSmithWatermanGoto = "smith-waterman-gotoh"
)

// DefaultMetric is used when no metric is configured.
const DefaultMetric = MetricLevenshtein

// ErrUnknownMetric is returned by New for unsupported metric names.
var ErrUnknownMetric = errors.New("unknown similarity metric")

// Scorer computes a bounded similarity ratio between two normalized strings.
type Scorer interface {
	// Score returns a value in [0,1]. Identical strings (including two empty
	// strings) score 1 and an empty string against a non-empty one scores 0.
	Score(a, b string) float64
	// Name reports the metric backing the scorer.
	Name() string
}

// New returns the scorer registered under name. An empty name selects
// DefaultMetric.
func New(name string) (Scorer, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		key = DefaultMetric
	}
	switch key {
	case MetricLevenshtein:
		return levenshteinScorer{}, nil
	case MetricJaroWinkler:
		return strutilScorer{name: key, metric: metrics.NewJaroWinkler()}, nil
	case MetricSorensenDice:
		return strutilScorer{name: key, metric: metrics.NewSorensenDice()}, nil
	case MetricSmithWatermanGoto:
		return strutilScorer{name: key, metric: metrics.NewSmithWatermanGotoh()}, nil
	default:
		return nil, fmt.Errorf("%w: %q (supported: %s)", ErrUnknownMetric, name, strings.Join(Metrics(), ", "))
	}
}

// Default returns the default scorer.
func Default() Scorer {
	return levenshteinScorer{}
}

// Metrics lists the supported metric names in sorted order.
func Metrics() []string {
	names := []string{MetricLevenshtein, MetricJaroWinkler, MetricSorensenDice, MetricSmithWatermanGoto}
	sort.Strings(names)
	return names
}

// trivial resolves the cases every metric must agree on.
func trivial(a, b string) (float64, bool) {
	switch {
	case a == b:
		return 1, true
	case a == "" || b == "":
		return 0, true
	}
	return 0, false
}

func clamp(v float64) float64 {
	switch {
	case v != v: // NaN
		return 0
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}

type levenshteinScorer struct{}

func (levenshteinScorer) Name() string { return MetricLevenshtein }

func (levenshteinScorer) Score(a, b string) float64 {
	if v, ok := trivial(a, b); ok {
		return v
	}
	longest := max(utf8.RuneCountInString(a), utf8.RuneCountInString(b))
	distance := levenshtein.ComputeDistance(a, b)
	return clamp(1 - float64(distance)/float64(longest))
}

type strutilScorer struct {
	name   string
	metric strutil.StringMetric
}

func (s strutilScorer) Name() string { return s.name }

func (s strutilScorer) Score(a, b string) float64 {
	if v, ok := trivial(a, b); ok {
		return v
	}
	return clamp(strutil.Similarity(a, b, s.metric))
}
