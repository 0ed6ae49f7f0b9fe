package stats

import (
	"context"
	"testing"
	"time"
)

func TestCollectorAggregates(t *testing.T) {
	c := NewCollector(100)
	c.Start(context.Background())

	c.Track(SearchEvent{Query: "Bordeaux", TotalHits: 3, LatencyMs: 4, CacheHit: false})
	c.Track(SearchEvent{Query: "Bordeaux", TotalHits: 3, LatencyMs: 2, CacheHit: true})
	c.Track(SearchEvent{Query: "Burgundy", TotalHits: 0, LatencyMs: 1, CacheHit: false})
	c.Close()

	snap := c.Stats()
	if snap.TotalSearches != 3 {
		t.Errorf("TotalSearches = %d, want 3", snap.TotalSearches)
	}
	if snap.CacheHits != 1 || snap.CacheMisses != 2 {
		t.Errorf("cache hits/misses = %d/%d, want 1/2", snap.CacheHits, snap.CacheMisses)
	}
	if snap.ZeroResultCount != 1 {
		t.Errorf("ZeroResultCount = %d, want 1", snap.ZeroResultCount)
	}
	if len(snap.TopQueries) == 0 || snap.TopQueries[0].Query != "Bordeaux" {
		t.Errorf("TopQueries = %v, want Bordeaux first", snap.TopQueries)
	}
	if len(snap.ZeroResultQueries) != 1 || snap.ZeroResultQueries[0].Query != "Burgundy" {
		t.Errorf("ZeroResultQueries = %v, want only Burgundy", snap.ZeroResultQueries)
	}
}

func TestCollectorDropsWhenFull(t *testing.T) {
	c := NewCollector(1)
	// Not started: the buffer holds one event, the second is dropped
	// rather than blocking the caller.
	done := make(chan struct{})
	go func() {
		c.Track(SearchEvent{Query: "a"})
		c.Track(SearchEvent{Query: "b"})
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Track blocked on a full buffer")
	}
}
