package similarity_test

import (
	"errors"
	"math"
	"testing"

	"songbook/internal/similarity"
)

func allScorers(t *testing.T) []similarity.Scorer {
	t.Helper()
	scorers := make([]similarity.Scorer, 0, len(similarity.Metrics()))
	for _, name := range similarity.Metrics() {
		s, err := similarity.New(name)
		if err != nil {
			t.Fatalf("New(%q): %v", name, err)
		}
		scorers = append(scorers, s)
	}
	return scorers
}

func TestScoreIdentityAndEmpty(t *testing.T) {
	for _, s := range allScorers(t) {
		t.Run(s.Name(), func(t *testing.T) {
			if got := s.Score("", ""); got != 1 {
				t.Fatalf("Score(\"\", \"\") = %v, want 1", got)
			}
			if got := s.Score("", "abc"); got != 0 {
				t.Fatalf("Score(\"\", \"abc\") = %v, want 0", got)
			}
			if got := s.Score("abc", ""); got != 0 {
				t.Fatalf("Score(\"abc\", \"\") = %v, want 0", got)
			}
			for _, v := range []string{"a", "hello world", "좋은 날"} {
				if got := s.Score(v, v); got != 1 {
					t.Fatalf("Score(%q, %q) = %v, want 1", v, v, got)
				}
			}
		})
	}
}

func TestScoreIsBounded(t *testing.T) {
	pairs := [][2]string{
		{"song a", "unrelated"},
		{"hello world", "goodbye moon"},
		{"abc", "xyz"},
		{"좋은 날", "좋은 아침"},
	}
	for _, s := range allScorers(t) {
		for _, p := range pairs {
			got := s.Score(p[0], p[1])
			if got < 0 || got > 1 || math.IsNaN(got) {
				t.Fatalf("%s: Score(%q, %q) = %v out of range", s.Name(), p[0], p[1], got)
			}
		}
	}
}

func TestLevenshteinScoreValues(t *testing.T) {
	s := similarity.Default()
	if s.Name() != similarity.MetricLevenshtein {
		t.Fatalf("expected default metric %q, got %q", similarity.MetricLevenshtein, s.Name())
	}
	if got := s.Score("abc", "xyz"); got != 0 {
		t.Fatalf("disjoint strings scored %v, want 0", got)
	}
	if got := s.Score("abcd", "abcx"); got != 0.75 {
		t.Fatalf("Score(abcd, abcx) = %v, want 0.75", got)
	}
	if got, want := s.Score("좋은 날", "좋은 밤"), 0.75; got != want {
		t.Fatalf("rune-based ratio = %v, want %v", got, want)
	}
	if s.Score("song a", "song a live") <= s.Score("song a", "unrelated") {
		t.Fatal("expected a partial overlap to outscore an unrelated string")
	}
}

func TestScoreIsSymmetricForLevenshtein(t *testing.T) {
	s := similarity.Default()
	if a, b := s.Score("kitten", "sitting"), s.Score("sitting", "kitten"); a != b {
		t.Fatalf("expected symmetric score, got %v and %v", a, b)
	}
}

func TestNewRejectsUnknownMetric(t *testing.T) {
	_, err := similarity.New("cosine")
	if !errors.Is(err, similarity.ErrUnknownMetric) {
		t.Fatalf("expected ErrUnknownMetric, got %v", err)
	}
}

func TestNewDefaultsAndCase(t *testing.T) {
	s, err := similarity.New("")
	if err != nil {
		t.Fatalf("New(\"\"): %v", err)
	}
	if s.Name() != similarity.DefaultMetric {
		t.Fatalf("expected default metric, got %q", s.Name())
	}
	s, err = similarity.New("  Jaro-Winkler ")
	if err != nil {
		t.Fatalf("New(Jaro-Winkler): %v", err)
	}
	if s.Name() != similarity.MetricJaroWinkler {
		t.Fatalf("unexpected metric %q", s.Name())
	}
}
