// Package query executes searches against the engine and shapes the
// transport-facing result: the engine's unordered hits are sorted by score
// (ties broken by ascending document id) and truncated to the caller's
// limit. The ordering lives here, not in the engine, because the core
// contract is explicitly unordered.
package query

import (
	"log/slog"
	"sort"

	"github.com/minerva-search/minerva/internal/engine"
	"github.com/minerva-search/minerva/internal/scorer"
)

// Result is the executed search result served over HTTP and cached in Redis.
type Result struct {
	Query     string       `json:"query"`
	TotalHits int          `json:"total_hits"`
	Results   []scorer.Hit `json:"results"`
}

// Executor runs queries against a single engine.
type Executor struct {
	engine *engine.Engine
	logger *slog.Logger
}

// New creates an Executor.
func New(e *engine.Engine) *Executor {
	return &Executor{
		engine: e,
		logger: slog.Default().With("component", "query-executor"),
	}
}

// Execute searches, sorts descending by score with id as tiebreaker, and
// keeps at most limit results. TotalHits counts all candidates before
// truncation. limit <= 0 means no truncation.
func (ex *Executor) Execute(q string, limit int) *Result {
	hits := ex.engine.Search(q)
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].ID < hits[j].ID
	})

	total := len(hits)
	if limit > 0 && len(hits) > limit {
		hits = hits[:limit]
	}
	ex.logger.Debug("query executed",
		"query", q,
		"total_hits", total,
		"returned", len(hits),
	)
	if hits == nil {
		hits = []scorer.Hit{}
	}
	return &Result{
		Query:     q,
		TotalHits: total,
		Results:   hits,
	}
}
