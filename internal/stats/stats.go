// Package stats collects per-query analytics in process: totals, zero-result
// counts, latency percentiles, and top queries. Events flow through a
// buffered channel so the search path never blocks on bookkeeping.
package stats

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// SearchEvent describes one completed search request.
type SearchEvent struct {
	Query     string    `json:"query"`
	TotalHits int       `json:"total_hits"`
	Returned  int       `json:"returned"`
	LatencyMs int64     `json:"latency_ms"`
	CacheHit  bool      `json:"cache_hit"`
	Timestamp time.Time `json:"timestamp"`
	RequestID string    `json:"request_id"`
}

// QueryCount pairs a query string with its occurrence count.
type QueryCount struct {
	Query string `json:"query"`
	Count int64  `json:"count"`
}

// Snapshot is the aggregated view served on the stats endpoint.
type Snapshot struct {
	TotalSearches     int64        `json:"total_searches"`
	CacheHits         int64        `json:"cache_hits"`
	CacheMisses       int64        `json:"cache_misses"`
	ZeroResultCount   int64        `json:"zero_result_count"`
	AvgLatencyMs      float64      `json:"avg_latency_ms"`
	P50LatencyMs      int64        `json:"p50_latency_ms"`
	P95LatencyMs      int64        `json:"p95_latency_ms"`
	P99LatencyMs      int64        `json:"p99_latency_ms"`
	TopQueries        []QueryCount `json:"top_queries"`
	ZeroResultQueries []QueryCount `json:"zero_result_queries"`
	QueriesPerMinute  float64      `json:"queries_per_minute"`
}

// Collector buffers search events and folds them into running aggregates.
type Collector struct {
	mu                sync.RWMutex
	totalSearches     atomic.Int64
	cacheHits         atomic.Int64
	cacheMisses       atomic.Int64
	zeroResults       atomic.Int64
	latencies         []int64
	queryCounts       map[string]int64
	zeroResultQueries map[string]int64
	startTime         time.Time

	eventCh chan SearchEvent
	done    chan struct{}
	logger  *slog.Logger
}

// NewCollector creates a Collector with the given channel buffer size.
func NewCollector(bufferSize int) *Collector {
	if bufferSize <= 0 {
		bufferSize = 10000
	}
	return &Collector{
		latencies:         make([]int64, 0, 10000),
		queryCounts:       make(map[string]int64),
		zeroResultQueries: make(map[string]int64),
		startTime:         time.Now(),
		eventCh:           make(chan SearchEvent, bufferSize),
		done:              make(chan struct{}),
		logger:            slog.Default().With("component", "stats-collector"),
	}
}

// Start launches the aggregation loop. It runs until ctx is cancelled or
// Close is called.
func (c *Collector) Start(ctx context.Context) {
	go func() {
		defer close(c.done)
		for {
			select {
			case event, ok := <-c.eventCh:
				if !ok {
					return
				}
				c.record(event)
			case <-ctx.Done():
				c.drainRemaining()
				return
			}
		}
	}()
	c.logger.Info("stats collector started", "buffer_size", cap(c.eventCh))
}

// Track enqueues an event, dropping it when the buffer is full.
func (c *Collector) Track(event SearchEvent) {
	select {
	case c.eventCh <- event:
	default:
		c.logger.Warn("stats event dropped (buffer full)")
	}
}

// Close stops accepting events and waits for the loop to finish.
func (c *Collector) Close() {
	close(c.eventCh)
	<-c.done
}

func (c *Collector) drainRemaining() {
	for {
		select {
		case event, ok := <-c.eventCh:
			if !ok {
				return
			}
			c.record(event)
		default:
			return
		}
	}
}

func (c *Collector) record(event SearchEvent) {
	c.totalSearches.Add(1)
	if event.CacheHit {
		c.cacheHits.Add(1)
	} else {
		c.cacheMisses.Add(1)
	}
	if event.TotalHits == 0 {
		c.zeroResults.Add(1)
	}

	c.mu.Lock()
	c.latencies = append(c.latencies, event.LatencyMs)
	c.queryCounts[event.Query]++
	if event.TotalHits == 0 {
		c.zeroResultQueries[event.Query]++
	}
	c.mu.Unlock()
}

// Stats returns the current aggregate snapshot.
func (c *Collector) Stats() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()

	snap := Snapshot{
		TotalSearches:   c.totalSearches.Load(),
		CacheHits:       c.cacheHits.Load(),
		CacheMisses:     c.cacheMisses.Load(),
		ZeroResultCount: c.zeroResults.Load(),
	}
	if len(c.latencies) > 0 {
		sorted := make([]int64, len(c.latencies))
		copy(sorted, c.latencies)
		sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

		var sum int64
		for _, l := range sorted {
			sum += l
		}
		snap.AvgLatencyMs = float64(sum) / float64(len(sorted))
		snap.P50LatencyMs = percentile(sorted, 50)
		snap.P95LatencyMs = percentile(sorted, 95)
		snap.P99LatencyMs = percentile(sorted, 99)
	}
	snap.TopQueries = topN(c.queryCounts, 10)
	snap.ZeroResultQueries = topN(c.zeroResultQueries, 10)
	if elapsed := time.Since(c.startTime).Minutes(); elapsed > 0 {
		snap.QueriesPerMinute = float64(snap.TotalSearches) / elapsed
	}
	return snap
}

func percentile(sorted []int64, pct int) int64 {
	if len(sorted) == 0 {
		return 0
	}
	idx := (pct * len(sorted)) / 100
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}

func topN(counts map[string]int64, n int) []QueryCount {
	result := make([]QueryCount, 0, len(counts))
	for q, count := range counts {
		result = append(result, QueryCount{Query: q, Count: count})
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Count != result[j].Count {
			return result[i].Count > result[j].Count
		}
		return result[i].Query < result[j].Query
	})
	if len(result) > n {
		result = result[:n]
	}
	return result
}
