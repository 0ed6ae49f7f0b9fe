// Package index implements the in-memory inverted index at the core of the
// search engine: per-term posting lists plus per-document raw term-frequency
// vectors, kept mutually consistent under a single lock.
package index

import (
	"sync"

	"github.com/minerva-search/minerva/internal/tokenizer"
)

// Index owns the document store, the vector store, and the postings map for
// its process lifetime. The only mutation is Add; there is no update or
// delete. A document id becomes visible to readers only together with its
// fully populated vector and posting entries.
type Index struct {
	mu       sync.RWMutex
	tokenize tokenizer.Func
	docs     []string
	vectors  []TermVector
	postings map[string][]DocID
}

// New creates an empty Index using the given tokenizer. A nil tokenize
// falls back to the default tokenizer.Split.
func New(tokenize tokenizer.Func) *Index {
	if tokenize == nil {
		tokenize = tokenizer.Split
	}
	return &Index{
		tokenize: tokenize,
		postings: make(map[string][]DocID),
	}
}

// Add tokenizes text, stores it verbatim under the next dense id, records
// its raw term-frequency vector, and appends the id exactly once to the
// posting list of every distinct term. The three mutations happen under one
// exclusive lock, so readers never observe a partially indexed document.
func (ix *Index) Add(text string) DocID {
	tokens := ix.tokenize(text)
	vector := CountTerms(tokens)

	ix.mu.Lock()
	defer ix.mu.Unlock()

	id := DocID(len(ix.docs))
	ix.docs = append(ix.docs, text)
	ix.vectors = append(ix.vectors, vector)
	for term := range vector {
		ix.postings[term] = append(ix.postings[term], id)
	}
	return id
}

// Document returns the verbatim text stored under id.
func (ix *Index) Document(id DocID) (string, bool) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	if int(id) >= len(ix.docs) {
		return "", false
	}
	return ix.docs[id], true
}

// Vector returns the raw term-frequency vector of the given document. The
// returned map must not be mutated by callers.
func (ix *Index) Vector(id DocID) TermVector {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	if int(id) >= len(ix.vectors) {
		return nil
	}
	return ix.vectors[id]
}

// Postings returns the insertion-ordered posting list for term, or nil when
// no indexed document contains it. The returned slice is a copy.
func (ix *Index) Postings(term string) []DocID {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	list, ok := ix.postings[term]
	if !ok {
		return nil
	}
	out := make([]DocID, len(list))
	copy(out, list)
	return out
}

// DocFreq returns the number of documents containing term.
func (ix *Index) DocFreq(term string) int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.postings[term])
}

// DocCount returns the total number of indexed documents.
func (ix *Index) DocCount() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.docs)
}

// TermCount returns the current vocabulary size.
func (ix *Index) TermCount() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.postings)
}
