package index

import (
	"fmt"
	"sync"
	"testing"
)

func TestAddAssignsDenseIDs(t *testing.T) {
	ix := New(nil)
	for i := 0; i < 5; i++ {
		id := ix.Add(fmt.Sprintf("document number %d", i))
		if int(id) != i {
			t.Fatalf("Add returned id %d, want %d", id, i)
		}
	}
	if got := ix.DocCount(); got != 5 {
		t.Errorf("DocCount() = %d, want 5", got)
	}
}

func TestDocumentStoredVerbatim(t *testing.T) {
	ix := New(nil)
	text := "  Chateau Margaux, Bordeaux "
	id := ix.Add(text)
	got, ok := ix.Document(id)
	if !ok {
		t.Fatalf("Document(%d) not found", id)
	}
	if got != text {
		t.Errorf("Document(%d) = %q, want verbatim %q", id, got, text)
	}
	if _, ok := ix.Document(id + 1); ok {
		t.Error("Document returned ok for unassigned id")
	}
}

// Every nonzero vector entry must have a matching posting entry and vice
// versa, and no posting list may hold the same id twice for one insertion.
func TestPostingVectorConsistency(t *testing.T) {
	ix := New(nil)
	docs := []string{
		"red red red wine",
		"white wine, from Bordeaux",
		"red and white",
	}
	ids := make([]DocID, len(docs))
	for i, d := range docs {
		ids[i] = ix.Add(d)
	}

	for _, id := range ids {
		for term, count := range ix.Vector(id) {
			if count == 0 {
				t.Errorf("doc %d: term %q stored with zero count", id, term)
			}
			occurrences := 0
			for _, posted := range ix.Postings(term) {
				if posted == id {
					occurrences++
				}
			}
			if occurrences != 1 {
				t.Errorf("doc %d: term %q appears %d times in posting list, want exactly 1", id, term, occurrences)
			}
		}
	}

	// Reverse direction: every posting entry is backed by a vector entry.
	for _, term := range []string{"red", "white", "wine", "Bordeaux", "and", "from"} {
		for _, id := range ix.Postings(term) {
			if ix.Vector(id)[term] == 0 {
				t.Errorf("term %q: posting for doc %d has no vector entry", term, id)
			}
		}
	}
}

func TestRepeatedTermPostedOnce(t *testing.T) {
	ix := New(nil)
	id := ix.Add("wine wine wine")
	if got := ix.Vector(id)["wine"]; got != 3 {
		t.Errorf("Vector[wine] = %d, want 3", got)
	}
	if got := len(ix.Postings("wine")); got != 1 {
		t.Errorf("len(Postings(wine)) = %d, want 1", got)
	}
}

func TestPostingsInsertionOrder(t *testing.T) {
	ix := New(nil)
	ix.Add("shared alpha")
	ix.Add("beta only")
	ix.Add("shared gamma")

	got := ix.Postings("shared")
	want := []DocID{0, 2}
	if len(got) != len(want) {
		t.Fatalf("Postings(shared) = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Postings(shared) = %v, want %v", got, want)
		}
	}
}

func TestPostingsUnknownTerm(t *testing.T) {
	ix := New(nil)
	ix.Add("some text")
	if got := ix.Postings("absent"); got != nil {
		t.Errorf("Postings(absent) = %v, want nil", got)
	}
	if got := ix.DocFreq("absent"); got != 0 {
		t.Errorf("DocFreq(absent) = %d, want 0", got)
	}
}

func TestTermCount(t *testing.T) {
	ix := New(nil)
	ix.Add("a b c")
	ix.Add("b c d")
	if got := ix.TermCount(); got != 4 {
		t.Errorf("TermCount() = %d, want 4", got)
	}
}

func TestConcurrentReadsDuringWrites(t *testing.T) {
	ix := New(nil)
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		for i := 0; i < 500; i++ {
			ix.Add("concurrent insert workload")
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 500; i++ {
			for _, id := range ix.Postings("concurrent") {
				if ix.Vector(id)["concurrent"] == 0 {
					t.Error("observed posting without vector entry")
					return
				}
			}
		}
	}()
	wg.Wait()
}
