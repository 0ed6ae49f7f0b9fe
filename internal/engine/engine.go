// Package engine ties the tokenizer, inverted index, and scorer together
// behind the two-operation contract of the search core: append a document,
// search the corpus.
package engine

import (
	"log/slog"

	"github.com/minerva-search/minerva/internal/index"
	"github.com/minerva-search/minerva/internal/scorer"
	"github.com/minerva-search/minerva/internal/tokenizer"
	"github.com/minerva-search/minerva/pkg/metrics"
)

// Stats is a point-in-time snapshot of corpus size.
type Stats struct {
	Documents int `json:"documents"`
	Terms     int `json:"terms"`
}

// Engine is the search core. Indexing serialises through the index's
// exclusive lock; searches run concurrently against a consistent snapshot.
type Engine struct {
	tokenize tokenizer.Func
	index    *index.Index
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithTokenizer replaces the default whitespace-and-comma tokenizer. The
// same tokenizer is applied to documents and queries.
func WithTokenizer(fn tokenizer.Func) Option {
	return func(e *Engine) { e.tokenize = fn }
}

// WithMetrics wires Prometheus collectors into the engine.
func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// New creates an empty Engine.
func New(opts ...Option) *Engine {
	e := &Engine{
		tokenize: tokenizer.Split,
		logger:   slog.Default().With("component", "engine"),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.index = index.New(e.tokenize)
	return e
}

// IndexDocument appends text to the corpus and returns its assigned id.
// It is total: every string, including the empty one, indexes successfully.
func (e *Engine) IndexDocument(text string) index.DocID {
	id := e.index.Add(text)
	if e.metrics != nil {
		e.metrics.DocsIndexedTotal.Inc()
		e.metrics.IndexDocCount.Set(float64(e.index.DocCount()))
		e.metrics.IndexTermCount.Set(float64(e.index.TermCount()))
	}
	e.logger.Debug("document indexed",
		"doc_id", id,
		"text_len", len(text),
	)
	return id
}

// Search scores every document sharing at least one query term. The result
// order is unspecified; callers sort if they need determinism.
func (e *Engine) Search(query string) []scorer.Hit {
	hits := scorer.Score(e.index, e.tokenize, query)
	if e.metrics != nil {
		resultType := "hit"
		if len(hits) == 0 {
			resultType = "zero_result"
		}
		e.metrics.SearchQueriesTotal.WithLabelValues(resultType).Inc()
		e.metrics.SearchResultsCount.Observe(float64(len(hits)))
	}
	e.logger.Debug("search executed",
		"query", query,
		"hits", len(hits),
	)
	return hits
}

// Document returns the verbatim text stored under id.
func (e *Engine) Document(id index.DocID) (string, bool) {
	return e.index.Document(id)
}

// Stats reports current corpus size.
func (e *Engine) Stats() Stats {
	return Stats{
		Documents: e.index.DocCount(),
		Terms:     e.index.TermCount(),
	}
}
