package engine

import (
	"math"
	"strings"
	"testing"
)

func TestIndexThenSearchRoundTrip(t *testing.T) {
	e := New()
	first := e.IndexDocument("Chateau Margaux Bordeaux")
	second := e.IndexDocument("Barolo Piedmont")
	if first != 0 || second != 1 {
		t.Fatalf("ids = %d, %d; want 0, 1", first, second)
	}

	hits := e.Search("Margaux")
	if len(hits) != 1 {
		t.Fatalf("got %d hits, want 1", len(hits))
	}
	if hits[0].ID != first {
		t.Errorf("hit id = %d, want %d", hits[0].ID, first)
	}
	if hits[0].Document != "Chateau Margaux Bordeaux" {
		t.Errorf("hit document = %q", hits[0].Document)
	}
}

// idf is computed against corpus size at call time, so the same query
// scores differently as the corpus grows.
func TestScoresTrackCorpusGrowth(t *testing.T) {
	e := New()
	e.IndexDocument("Margaux estate")
	e.IndexDocument("another wine")

	before := e.Search("Margaux")[0].Score // ln(2/1)
	e.IndexDocument("yet another wine")
	after := e.Search("Margaux")[0].Score // ln(3/1)

	if math.Abs(before-math.Log(2)) > 1e-9 {
		t.Errorf("score before growth = %v, want ln(2)", before)
	}
	if math.Abs(after-math.Log(3)) > 1e-9 {
		t.Errorf("score after growth = %v, want ln(3)", after)
	}
}

func TestCustomTokenizer(t *testing.T) {
	e := New(WithTokenizer(func(text string) []string {
		return strings.Split(text, "|")
	}))
	e.IndexDocument("alpha|beta")
	e.IndexDocument("gamma delta")

	if hits := e.Search("beta"); len(hits) != 1 {
		t.Errorf("custom tokenizer: got %d hits for %q, want 1", len(hits), "beta")
	}
	// Whitespace is no separator under the custom tokenizer.
	if hits := e.Search("gamma"); len(hits) != 0 {
		t.Errorf("custom tokenizer: got %d hits for %q, want 0", len(hits), "gamma")
	}
}

func TestSearchEmptyEngine(t *testing.T) {
	e := New()
	if hits := e.Search("anything"); len(hits) != 0 {
		t.Errorf("got %d hits on empty engine, want 0", len(hits))
	}
}

func TestStats(t *testing.T) {
	e := New()
	e.IndexDocument("a b c")
	e.IndexDocument("c d")
	s := e.Stats()
	if s.Documents != 2 {
		t.Errorf("Stats.Documents = %d, want 2", s.Documents)
	}
	if s.Terms != 4 {
		t.Errorf("Stats.Terms = %d, want 4", s.Terms)
	}
}
