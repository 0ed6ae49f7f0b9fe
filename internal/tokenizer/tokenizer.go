// Package tokenizer provides text tokenisation for the search engine. The
// default tokenizer splits on runs of whitespace and commas and performs no
// further normalisation: terms stay case-sensitive, unstemmed, and exact.
package tokenizer

import "regexp"

// Func is the pluggable tokenizer contract consumed by the engine. Any
// implementation must be deterministic and total: every string, including
// the empty string, tokenizes without error.
type Func func(text string) []string

var separators = regexp.MustCompile(`[\s,]+`)

// Split breaks text into terms on runs of whitespace and/or commas.
//
// Inputs with leading or trailing separators produce an empty-string token
// at the corresponding edge, and the empty input produces a single empty
// token. This is a known quirk of regexp splitting that the scoring layer
// depends on for term-count parity; do not filter the empties here.
func Split(text string) []string {
	return separators.Split(text, -1)
}
