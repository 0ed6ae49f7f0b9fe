package scorer

import (
	"math"
	"sort"
	"testing"

	"github.com/minerva-search/minerva/internal/index"
)

const tolerance = 1e-9

// wineCorpus builds the reference 10-document corpus: exactly 3 documents
// contain "Bordeaux", 2 of which also contain "Margaux".
func wineCorpus(t *testing.T) *index.Index {
	t.Helper()
	docs := []string{
		"Chateau Margaux Bordeaux 2015",
		"Pavillon Rouge Margaux Bordeaux",
		"Saint-Emilion Bordeaux grand cru",
		"Barolo Piedmont nebbiolo",
		"Chianti Classico Tuscany",
		"Rioja Reserva tempranillo",
		"Napa Valley cabernet",
		"Mosel riesling kabinett",
		"Champagne brut reserve",
		"Douro vintage port",
	}
	ix := index.New(nil)
	for _, d := range docs {
		ix.Add(d)
	}
	return ix
}

func scoresByDoc(hits []Hit) map[string]float64 {
	m := make(map[string]float64, len(hits))
	for _, h := range hits {
		m[h.Document] = h.Score
	}
	return m
}

func TestSingleTermReferenceScores(t *testing.T) {
	ix := wineCorpus(t)
	hits := Score(ix, nil, "Bordeaux")

	if len(hits) != 3 {
		t.Fatalf("got %d hits, want 3", len(hits))
	}
	want := math.Log(10.0 / 3.0) // ≈ 1.20397
	for _, h := range hits {
		if math.Abs(h.Score-want) > tolerance {
			t.Errorf("doc %q scored %v, want ln(10/3) = %v", h.Document, h.Score, want)
		}
	}
}

func TestMultiTermCombination(t *testing.T) {
	ix := wineCorpus(t)
	hits := Score(ix, nil, "Margaux Bordeaux")

	if len(hits) != 3 {
		t.Fatalf("got %d hits, want 3", len(hits))
	}
	both := math.Log(10.0/2.0) + math.Log(10.0/3.0) // ≈ 2.81341
	only := math.Log(10.0 / 3.0)                    // ≈ 1.20397

	got := scoresByDoc(hits)
	for _, doc := range []string{"Chateau Margaux Bordeaux 2015", "Pavillon Rouge Margaux Bordeaux"} {
		if math.Abs(got[doc]-both) > tolerance {
			t.Errorf("doc %q scored %v, want %v", doc, got[doc], both)
		}
	}
	if doc := "Saint-Emilion Bordeaux grand cru"; math.Abs(got[doc]-only) > tolerance {
		t.Errorf("doc %q scored %v, want %v", doc, got[doc], only)
	}
}

func TestUnknownQueryTermsIgnored(t *testing.T) {
	ix := wineCorpus(t)
	plain := Score(ix, nil, "Bordeaux")
	padded := Score(ix, nil, "hello Bordeaux")

	if len(plain) != len(padded) {
		t.Fatalf("padded query returned %d hits, plain returned %d", len(padded), len(plain))
	}
	wantScores := scoresByDoc(plain)
	for doc, score := range scoresByDoc(padded) {
		if math.Abs(score-wantScores[doc]) > tolerance {
			t.Errorf("doc %q: padded score %v differs from plain %v", doc, score, wantScores[doc])
		}
	}
}

func TestZeroOverlapYieldsEmptyResult(t *testing.T) {
	ix := wineCorpus(t)
	if hits := Score(ix, nil, "Burgundy"); len(hits) != 0 {
		t.Errorf("got %d hits for a term in no document, want 0", len(hits))
	}
}

func TestEmptyQuery(t *testing.T) {
	ix := wineCorpus(t)
	if hits := Score(ix, nil, ""); len(hits) != 0 {
		t.Errorf("got %d hits for empty query, want 0", len(hits))
	}
}

func TestEmptyCorpus(t *testing.T) {
	ix := index.New(nil)
	if hits := Score(ix, nil, "anything"); len(hits) != 0 {
		t.Errorf("got %d hits on empty corpus, want 0", len(hits))
	}
}

// A term present in the only document has df = N = 1, so idf and the score
// are exactly zero. The document must still be returned as a candidate.
func TestSelfSearchSingleDocument(t *testing.T) {
	ix := index.New(nil)
	ix.Add("solitary")

	hits := Score(ix, nil, "solitary")
	if len(hits) != 1 {
		t.Fatalf("got %d hits, want 1", len(hits))
	}
	if hits[0].Score != 0 {
		t.Errorf("score = %v, want 0 (df = N = 1)", hits[0].Score)
	}
	if hits[0].Document != "solitary" {
		t.Errorf("document = %q, want %q", hits[0].Document, "solitary")
	}
}

func TestUbiquitousTermScoresZero(t *testing.T) {
	ix := index.New(nil)
	ix.Add("wine red")
	ix.Add("wine white")
	ix.Add("wine rose")

	hits := Score(ix, nil, "wine")
	if len(hits) != 3 {
		t.Fatalf("got %d hits, want 3", len(hits))
	}
	for _, h := range hits {
		if h.Score != 0 {
			t.Errorf("doc %q scored %v, want 0 for a term with df = N", h.Document, h.Score)
		}
	}
}

func TestRarerTermOutweighsCommonTerm(t *testing.T) {
	ix := wineCorpus(t)
	// df(Margaux) = 2 < df(Bordeaux) = 3, so idf(Margaux) > idf(Bordeaux).
	margaux := Score(ix, nil, "Margaux")
	bordeaux := Score(ix, nil, "Bordeaux")
	if margaux[0].Score <= bordeaux[0].Score {
		t.Errorf("idf not monotonic: rare term scored %v, common term %v", margaux[0].Score, bordeaux[0].Score)
	}
}

func TestTermFrequencyScalesScore(t *testing.T) {
	ix := index.New(nil)
	once := ix.Add("Margaux plus filler text")
	thrice := ix.Add("Margaux Margaux Margaux wine")
	ix.Add("unrelated document entirely")

	hits := Score(ix, nil, "Margaux")
	got := make(map[index.DocID]float64, len(hits))
	for _, h := range hits {
		got[h.ID] = h.Score
	}
	if math.Abs(got[thrice]-3*got[once]) > tolerance {
		t.Errorf("tf=3 score %v is not triple the tf=1 score %v", got[thrice], got[once])
	}
}

func TestRepeatedQueryTermScalesScore(t *testing.T) {
	ix := wineCorpus(t)
	single := scoresByDoc(Score(ix, nil, "Bordeaux"))
	double := scoresByDoc(Score(ix, nil, "Bordeaux Bordeaux"))
	for doc, s := range single {
		if math.Abs(double[doc]-2*s) > tolerance {
			t.Errorf("doc %q: qtf=2 score %v, want double of %v", doc, double[doc], s)
		}
	}
}

func TestHitsSortableByCaller(t *testing.T) {
	ix := wineCorpus(t)
	hits := Score(ix, nil, "Margaux Bordeaux")
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].ID < hits[j].ID
	})
	if hits[len(hits)-1].Document != "Saint-Emilion Bordeaux grand cru" {
		t.Errorf("lowest-scored hit = %q, want the Bordeaux-only document", hits[len(hits)-1].Document)
	}
}
