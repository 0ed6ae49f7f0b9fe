// Package server exposes the search engine over HTTP: document indexing,
// search, document lookup, stats, and cache administration.
package server

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/minerva-search/minerva/internal/archive"
	"github.com/minerva-search/minerva/internal/cache"
	"github.com/minerva-search/minerva/internal/engine"
	"github.com/minerva-search/minerva/internal/index"
	"github.com/minerva-search/minerva/internal/ingest"
	"github.com/minerva-search/minerva/internal/query"
	"github.com/minerva-search/minerva/internal/stats"
	"github.com/minerva-search/minerva/internal/tokenizer"
	apperrors "github.com/minerva-search/minerva/pkg/errors"
	"github.com/minerva-search/minerva/pkg/logger"
	"github.com/minerva-search/minerva/pkg/metrics"
)

// Handler carries the service dependencies for all HTTP endpoints. cache,
// collector, publisher, archive, and metrics are all optional.
type Handler struct {
	engine       *engine.Engine
	executor     *query.Executor
	cache        *cache.QueryCache
	collector    *stats.Collector
	publisher    *ingest.Publisher
	archive      *archive.Archive
	metrics      *metrics.Metrics
	defaultLimit int
	maxResults   int
	logger       *slog.Logger
}

// Option configures a Handler.
type Option func(*Handler)

// WithCache enables the Redis query cache.
func WithCache(c *cache.QueryCache) Option {
	return func(h *Handler) { h.cache = c }
}

// WithCollector enables search analytics tracking.
func WithCollector(c *stats.Collector) Option {
	return func(h *Handler) { h.collector = c }
}

// WithPublisher enables async indexing through Kafka.
func WithPublisher(p *ingest.Publisher) Option {
	return func(h *Handler) { h.publisher = p }
}

// WithArchive enables synchronous document archiving to Postgres.
func WithArchive(a *archive.Archive) Option {
	return func(h *Handler) { h.archive = a }
}

// WithMetrics wires Prometheus collectors into the handlers.
func WithMetrics(m *metrics.Metrics) Option {
	return func(h *Handler) { h.metrics = m }
}

// New creates a Handler around the engine.
func New(e *engine.Engine, defaultLimit, maxResults int, opts ...Option) *Handler {
	h := &Handler{
		engine:       e,
		executor:     query.New(e),
		defaultLimit: defaultLimit,
		maxResults:   maxResults,
		logger:       slog.Default().With("component", "http-handler"),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

type indexRequest struct {
	Text string `json:"text"`
}

type indexResponse struct {
	ID         index.DocID `json:"id"`
	TokenCount int         `json:"token_count"`
}

// IndexDocument handles POST /api/v1/documents. With ?async=true and a
// configured publisher, the document is queued on Kafka instead of being
// indexed inline.
func (h *Handler) IndexDocument(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromContext(ctx)

	var req indexRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "request body must be JSON with a 'text' field")
		return
	}
	if req.Text == "" {
		h.writeError(w, http.StatusBadRequest, "'text' must not be empty")
		return
	}

	if r.URL.Query().Get("async") == "true" && h.publisher != nil {
		hash, err := h.publisher.Publish(ctx, req.Text)
		if err != nil {
			statusCode := apperrors.HTTPStatusCode(err)
			log.Error("async ingest failed", "error", err, "status_code", statusCode)
			h.writeError(w, statusCode, "ingest queue unavailable")
			return
		}
		h.writeJSON(w, http.StatusAccepted, map[string]string{
			"status":       "queued",
			"content_hash": hash,
		})
		return
	}

	id := h.engine.IndexDocument(req.Text)
	tokenCount := len(tokenizer.Split(req.Text))

	if h.archive != nil {
		if err := h.archive.Save(ctx, id, req.Text, tokenCount); err != nil {
			// The document is already searchable; archiving is best effort.
			log.Error("failed to archive document", "doc_id", id, "error", err)
		}
	}

	log.Info("document indexed", "doc_id", id, "token_count", tokenCount)
	h.writeJSON(w, http.StatusCreated, indexResponse{ID: id, TokenCount: tokenCount})
}

// Ingest handles POST /api/v1/ingest, queueing the document on Kafka for
// asynchronous indexing.
func (h *Handler) Ingest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromContext(ctx)

	if h.publisher == nil {
		h.writeError(w, http.StatusServiceUnavailable, "async ingest is disabled")
		return
	}

	var req ingest.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "request body must be JSON with a 'text' field")
		return
	}
	if req.Text == "" {
		h.writeError(w, http.StatusBadRequest, "'text' must not be empty")
		return
	}

	hash, err := h.publisher.Publish(ctx, req.Text)
	if err != nil {
		statusCode := apperrors.HTTPStatusCode(err)
		log.Error("ingest failed", "error", err, "status_code", statusCode)
		h.writeError(w, statusCode, "ingest queue unavailable")
		return
	}
	log.Info("document queued for indexing", "content_hash", hash)
	h.writeJSON(w, http.StatusAccepted, map[string]string{
		"status":       "queued",
		"content_hash": hash,
	})
}

// Search handles GET /api/v1/search?q=...&limit=N.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx := r.Context()
	log := logger.FromContext(ctx)

	q := r.URL.Query().Get("q")
	if q == "" {
		h.writeError(w, http.StatusBadRequest, "query parameter 'q' is required")
		return
	}

	limit := h.defaultLimit
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err != nil || parsed < 1 {
			h.writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		if parsed > h.maxResults {
			parsed = h.maxResults
		}
		limit = parsed
	}

	var result *query.Result
	cacheHit := false
	if h.cache != nil {
		result, cacheHit = h.cache.GetOrCompute(ctx, q, limit, func() *query.Result {
			return h.executor.Execute(q, limit)
		})
	} else {
		result = h.executor.Execute(q, limit)
	}

	latency := time.Since(start)
	if h.metrics != nil {
		cacheStatus := "miss"
		if cacheHit {
			cacheStatus = "hit"
		}
		h.metrics.SearchLatency.WithLabelValues(cacheStatus).Observe(latency.Seconds())
		if cacheHit {
			h.metrics.CacheHitsTotal.Inc()
		} else if h.cache != nil {
			h.metrics.CacheMissesTotal.Inc()
		}
	}
	if h.collector != nil {
		h.collector.Track(stats.SearchEvent{
			Query:     q,
			TotalHits: result.TotalHits,
			Returned:  len(result.Results),
			LatencyMs: latency.Milliseconds(),
			CacheHit:  cacheHit,
			Timestamp: time.Now().UTC(),
			RequestID: logger.RequestID(ctx),
		})
	}

	log.Info("search completed",
		"query", q,
		"total_hits", result.TotalHits,
		"returned", len(result.Results),
		"cache_hit", cacheHit,
		"latency_ms", latency.Milliseconds(),
	)
	h.writeJSON(w, http.StatusOK, result)
}

type documentResponse struct {
	ID   index.DocID `json:"id"`
	Text string      `json:"text"`
}

// GetDocument handles GET /api/v1/documents/{id}.
func (h *Handler) GetDocument(w http.ResponseWriter, r *http.Request) {
	idStr := r.PathValue("id")
	parsed, err := strconv.ParseUint(idStr, 10, 32)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "document id must be a non-negative integer")
		return
	}
	id := index.DocID(parsed)
	text, ok := h.engine.Document(id)
	if !ok {
		h.writeError(w, http.StatusNotFound, fmt.Sprintf("document %d not found", id))
		return
	}
	h.writeJSON(w, http.StatusOK, documentResponse{ID: id, Text: text})
}

// Stats handles GET /api/v1/stats with corpus size and search analytics.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	response := map[string]any{
		"index": h.engine.Stats(),
	}
	if h.collector != nil {
		response["searches"] = h.collector.Stats()
	}
	h.writeJSON(w, http.StatusOK, response)
}

// CacheStats handles GET /api/v1/cache/stats.
func (h *Handler) CacheStats(w http.ResponseWriter, r *http.Request) {
	if h.cache == nil {
		h.writeJSON(w, http.StatusOK, map[string]string{"status": "disabled"})
		return
	}
	hits, misses := h.cache.Stats()
	total := hits + misses
	var hitRate float64
	if total > 0 {
		hitRate = float64(hits) / float64(total) * 100
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"hits":     hits,
		"misses":   misses,
		"total":    total,
		"hit_rate": fmt.Sprintf("%.1f%%", hitRate),
	})
}

// CacheInvalidate handles POST /api/v1/cache/invalidate.
func (h *Handler) CacheInvalidate(w http.ResponseWriter, r *http.Request) {
	if h.cache == nil {
		h.writeError(w, http.StatusServiceUnavailable, "caching is disabled")
		return
	}
	if err := h.cache.Invalidate(r.Context()); err != nil {
		h.logger.Error("cache invalidation failed", "error", err)
		h.writeError(w, http.StatusInternalServerError, "cache invalidation failed")
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "invalidated"})
}

// Register mounts all API routes on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/v1/documents", h.IndexDocument)
	mux.HandleFunc("GET /api/v1/documents/{id}", h.GetDocument)
	mux.HandleFunc("POST /api/v1/ingest", h.Ingest)
	mux.HandleFunc("GET /api/v1/search", h.Search)
	mux.HandleFunc("GET /api/v1/stats", h.Stats)
	mux.HandleFunc("GET /api/v1/cache/stats", h.CacheStats)
	mux.HandleFunc("POST /api/v1/cache/invalidate", h.CacheInvalidate)
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to write response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
