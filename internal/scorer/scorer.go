// Package scorer ranks documents against a query using the vector space
// model with tf-idf weighting. Documents and queries are sparse vectors over
// the query's term dimensions; relevance is their key-matched dot product.
package scorer

import (
	"math"

	"github.com/minerva-search/minerva/internal/index"
	"github.com/minerva-search/minerva/internal/tokenizer"
)

// Corpus is the read-only view of an index the scorer needs. *index.Index
// satisfies it; tests substitute small fakes.
type Corpus interface {
	DocCount() int
	Postings(term string) []index.DocID
	Vector(id index.DocID) index.TermVector
	Document(id index.DocID) (string, bool)
}

// Hit pairs a candidate document with its relevance score. The slice
// returned by Score carries no ordering guarantee; callers sort if they
// need determinism.
type Hit struct {
	ID       index.DocID `json:"id"`
	Score    float64     `json:"score"`
	Document string      `json:"document"`
}

// Score tokenizes query with the same tokenizer the corpus was built with,
// collects every document sharing at least one query term, and scores each
// candidate by the dot product of the query and document tf-idf vectors
// restricted to the query's term dimensions:
//
//	score(d) = Σ_t qtf(t) · dtf(d,t) · idf(t),  idf(t) = ln(N / df(t))
//
// Query terms absent from the corpus contribute nothing. A term present in
// every document has idf 0 and likewise contributes nothing; that is the
// expected zero discriminative weight, not an error. An empty query, or one
// whose terms all miss the corpus, yields an empty result. With N = 0 there
// are no postings, so the candidate set is empty and idf is never evaluated.
func Score(c Corpus, tokenize tokenizer.Func, query string) []Hit {
	if tokenize == nil {
		tokenize = tokenizer.Split
	}
	queryVector := index.CountTerms(tokenize(query))

	// idf per query term known to the corpus, and the candidate union.
	total := float64(c.DocCount())
	idf := make(map[string]float64, len(queryVector))
	candidates := make(map[index.DocID]struct{})
	for term := range queryVector {
		postings := c.Postings(term)
		if len(postings) == 0 {
			continue
		}
		idf[term] = math.Log(total / float64(len(postings)))
		for _, id := range postings {
			candidates[id] = struct{}{}
		}
	}
	if len(candidates) == 0 {
		return nil
	}

	hits := make([]Hit, 0, len(candidates))
	for id := range candidates {
		docVector := c.Vector(id)
		var score float64
		for term, weight := range idf {
			// Missing terms zero-fill: absent map lookups read as 0.
			score += float64(queryVector[term]) * float64(docVector[term]) * weight
		}
		text, _ := c.Document(id)
		hits = append(hits, Hit{ID: id, Score: score, Document: text})
	}
	return hits
}
