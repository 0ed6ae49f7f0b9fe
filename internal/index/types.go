package index

// DocID identifies a document by its insertion position: dense, zero-based,
// assigned once at index time, never reused or compacted.
type DocID uint32

// TermVector is a sparse mapping from term to its raw occurrence count
// within a single document or query. Counts are never zero: a term is
// either present with a positive count or absent.
type TermVector map[string]uint32

// CountTerms builds a TermVector from a token sequence.
func CountTerms(tokens []string) TermVector {
	v := make(TermVector, len(tokens))
	for _, term := range tokens {
		v[term]++
	}
	return v
}
