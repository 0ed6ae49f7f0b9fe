package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"math"
	"math/rand"
	"net/http"
	"net/url"
	"os"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

type runConfig struct {
	baseURL       string
	concurrency   int
	duration      time.Duration
	writeFraction float64
	seedDocs      int
}

type runStats struct {
	totalRequests atomic.Int64
	successCount  atomic.Int64
	errorCount    atomic.Int64
	latencies     []time.Duration
	latenciesMu   sync.Mutex
	statusCodes   map[int]*atomic.Int64
	statusCodesMu sync.Mutex
}

func newRunStats() *runStats {
	return &runStats{
		latencies:   make([]time.Duration, 0, 100000),
		statusCodes: make(map[int]*atomic.Int64),
	}
}

func (s *runStats) record(duration time.Duration, statusCode int, err error) {
	s.totalRequests.Add(1)
	if err != nil {
		s.errorCount.Add(1)
		return
	}
	if statusCode >= 200 && statusCode < 300 {
		s.successCount.Add(1)
	} else {
		s.errorCount.Add(1)
	}

	s.latenciesMu.Lock()
	s.latencies = append(s.latencies, duration)
	s.latenciesMu.Unlock()

	s.statusCodesMu.Lock()
	if _, ok := s.statusCodes[statusCode]; !ok {
		s.statusCodes[statusCode] = &atomic.Int64{}
	}
	s.statusCodes[statusCode].Add(1)
	s.statusCodesMu.Unlock()
}

var vocabulary = []string{
	"Bordeaux", "Margaux", "Chateau", "Pavillon", "Saint-Emilion",
	"Barolo", "Piedmont", "nebbiolo", "Chianti", "Tuscany", "sangiovese",
	"Rioja", "tempranillo", "Burgundy", "pinot", "noir", "grand", "cru",
	"reserve", "vintage", "2015", "2018", "2020", "estate", "vineyard",
}

var queries = []string{
	"Bordeaux",
	"Margaux Bordeaux",
	"grand cru",
	"Barolo Piedmont",
	"pinot noir",
	"vintage reserve",
	"Chianti sangiovese",
	"estate vineyard 2018",
}

func main() {
	baseURL := flag.String("url", "http://localhost:8080", "base URL of the search service")
	concurrency := flag.Int("concurrency", 10, "number of concurrent workers")
	duration := flag.Duration("duration", 30*time.Second, "test duration")
	writeFraction := flag.Float64("writes", 0.1, "fraction of requests that index a document")
	seedDocs := flag.Int("seed", 500, "documents to index before the test starts")
	flag.Parse()

	cfg := runConfig{
		baseURL:       *baseURL,
		concurrency:   *concurrency,
		duration:      *duration,
		writeFraction: *writeFraction,
		seedDocs:      *seedDocs,
	}

	fmt.Println("=== Search Service Load Test ===")
	fmt.Printf("Target:      %s\n", cfg.baseURL)
	fmt.Printf("Concurrency: %d\n", cfg.concurrency)
	fmt.Printf("Duration:    %s\n", cfg.duration)
	fmt.Printf("Write mix:   %.0f%%\n", cfg.writeFraction*100)
	fmt.Println()

	client := &http.Client{
		Timeout: 10 * time.Second,
		Transport: &http.Transport{
			MaxIdleConns:        cfg.concurrency * 2,
			MaxIdleConnsPerHost: cfg.concurrency * 2,
			IdleConnTimeout:     90 * time.Second,
		},
	}

	if err := seedCorpus(client, cfg); err != nil {
		fmt.Fprintf(os.Stderr, "seeding failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Seeded %d documents\n", cfg.seedDocs)

	stats := run(client, cfg)
	printReport(stats, cfg.duration)
}

func seedCorpus(client *http.Client, cfg runConfig) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	for i := 0; i < cfg.seedDocs; i++ {
		if err := indexDocument(ctx, client, cfg.baseURL, randomDocument()); err != nil {
			return fmt.Errorf("seeding document %d: %w", i, err)
		}
	}
	return nil
}

func run(client *http.Client, cfg runConfig) *runStats {
	stats := newRunStats()
	ctx, cancel := context.WithTimeout(context.Background(), cfg.duration)
	defer cancel()

	var wg sync.WaitGroup
	fmt.Print("Running")

	for w := 0; w < cfg.concurrency; w++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			rng := rand.New(rand.NewSource(int64(workerID)))
			queryIdx := workerID

			for {
				select {
				case <-ctx.Done():
					return
				default:
				}

				start := time.Now()
				var statusCode int
				var err error
				if rng.Float64() < cfg.writeFraction {
					statusCode, err = doIndex(ctx, client, cfg.baseURL, randomDocument())
				} else {
					query := queries[queryIdx%len(queries)]
					queryIdx++
					statusCode, err = doSearch(ctx, client, cfg.baseURL, query)
				}
				stats.record(time.Since(start), statusCode, err)
			}
		}(w)
	}

	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				fmt.Print(".")
			}
		}
	}()

	wg.Wait()
	fmt.Println(" done!")
	fmt.Println()
	return stats
}

func randomDocument() string {
	n := 4 + rand.Intn(8)
	words := make([]string, n)
	for i := range words {
		words[i] = vocabulary[rand.Intn(len(vocabulary))]
	}
	return strings.Join(words, " ")
}

func doSearch(ctx context.Context, client *http.Client, baseURL, query string) (int, error) {
	searchURL := fmt.Sprintf("%s/api/v1/search?q=%s&limit=10", baseURL, url.QueryEscape(query))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, nil)
	if err != nil {
		return 0, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return 0, err
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	return resp.StatusCode, nil
}

func doIndex(ctx context.Context, client *http.Client, baseURL, text string) (int, error) {
	body := fmt.Sprintf(`{"text":%q}`, text)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		baseURL+"/api/v1/documents", strings.NewReader(body))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := client.Do(req)
	if err != nil {
		return 0, err
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	return resp.StatusCode, nil
}

func indexDocument(ctx context.Context, client *http.Client, baseURL, text string) error {
	status, err := doIndex(ctx, client, baseURL, text)
	if err != nil {
		return err
	}
	if status != http.StatusCreated {
		return fmt.Errorf("unexpected status %d", status)
	}
	return nil
}

func printReport(stats *runStats, duration time.Duration) {
	total := stats.totalRequests.Load()
	success := stats.successCount.Load()
	errors := stats.errorCount.Load()

	fmt.Println("=== Results ===")
	fmt.Printf("Total Requests:  %d\n", total)
	fmt.Printf("Successful:      %d\n", success)
	fmt.Printf("Errors:          %d\n", errors)

	if total > 0 {
		errorRate := float64(errors) / float64(total) * 100
		fmt.Printf("Error Rate:      %.2f%%\n", errorRate)
		rps := float64(total) / duration.Seconds()
		fmt.Printf("Requests/sec:    %.2f\n", rps)
	}

	stats.latenciesMu.Lock()
	latencies := make([]time.Duration, len(stats.latencies))
	copy(latencies, stats.latencies)
	stats.latenciesMu.Unlock()

	if len(latencies) > 0 {
		sort.Slice(latencies, func(i, j int) bool {
			return latencies[i] < latencies[j]
		})

		var sum time.Duration
		for _, l := range latencies {
			sum += l
		}
		avg := sum / time.Duration(len(latencies))

		fmt.Println()
		fmt.Println("=== Latency ===")
		fmt.Printf("Min: %s\n", latencies[0])
		fmt.Printf("Avg: %s\n", avg)
		fmt.Printf("P50: %s\n", percentile(latencies, 50))
		fmt.Printf("P95: %s\n", percentile(latencies, 95))
		fmt.Printf("P99: %s\n", percentile(latencies, 99))
		fmt.Printf("Max: %s\n", latencies[len(latencies)-1])
	}

	fmt.Println()
	fmt.Println("=== Status Codes ===")
	stats.statusCodesMu.Lock()
	codes := make([]int, 0, len(stats.statusCodes))
	for code := range stats.statusCodes {
		codes = append(codes, code)
	}
	sort.Ints(codes)
	for _, code := range codes {
		fmt.Printf("  %d: %d\n", code, stats.statusCodes[code].Load())
	}
	stats.statusCodesMu.Unlock()

	if total == 0 {
		fmt.Println()
		fmt.Println("WARNING: No requests completed. Is the service running?")
		os.Exit(1)
	}
}

func percentile(sorted []time.Duration, p float64) time.Duration {
	if len(sorted) == 0 {
		return 0
	}
	idx := int(math.Ceil(p/100*float64(len(sorted)))) - 1
	if idx < 0 {
		idx = 0
	}
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}
