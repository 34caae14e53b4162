package main

import (
	"bytes"
	"fmt"
	"io"
	"math/rand"
	"net"
	"net/http"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	json "github.com/goccy/go-json"
)

const (
	baseURL      = "http://127.0.0.1:18090"
	numWorkers   = 50
	testDuration = 10 * time.Second
	numDecks     = 20
	numSlides    = 12
)

var httpClient = &http.Client{
	Timeout: 5 * time.Second,
	Transport: &http.Transport{
		MaxIdleConns:        200,
		MaxIdleConnsPerHost: 200,
		IdleConnTimeout:     30 * time.Second,
		DialContext: (&net.Dialer{
			Timeout:   2 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
	},
}

type result struct {
	endpoint string
	status   int
	latency  time.Duration
	err      bool
}

type stats struct {
	count     int64
	errors    int64
	latencies []time.Duration
}

func main() {
	fmt.Println("=== deckd Load Test ===")
	fmt.Printf("Workers: %d | Duration: %s\n", numWorkers, testDuration)
	fmt.Printf("Decks: %d | Slides per deck: %d\n\n", numDecks, numSlides)

	// Wait for server
	fmt.Print("Waiting for server... ")
	for i := 0; i < 30; i++ {
		resp, err := httpClient.Get(baseURL + "/health")
		if err == nil {
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			break
		}
		if i == 29 {
			fmt.Println("FAILED: server not responding")
			return
		}
		time.Sleep(200 * time.Millisecond)
	}
	fmt.Println("OK")

	// Phase 0: load decks
	ids := make([]string, 0, numDecks)
	for i := 0; i < numDecks; i++ {
		id, err := loadDeck(i)
		if err != nil {
			fmt.Printf("FAILED: load deck %d: %s\n", i, err)
			return
		}
		ids = append(ids, id)
	}
	fmt.Printf("Loaded %d decks\n", len(ids))

	// Phase 1: Read-heavy playback
	fmt.Println("\n--- Phase 1: Playback (render + state) ---")
	runPhase(testDuration, func(rng *rand.Rand) result {
		id := ids[rng.Intn(len(ids))]
		if rng.Float64() < 0.7 {
			return doRender(id)
		}
		return doState(id)
	})

	// Phase 2: Mixed editing load
	fmt.Println("\n--- Phase 2: Editing (30% annotate, 20% navigate, 50% render) ---")
	runPhase(testDuration, func(rng *rand.Rand) result {
		id := ids[rng.Intn(len(ids))]
		r := rng.Float64()
		switch {
		case r < 0.30:
			return doAnnotate(rng, id)
		case r < 0.50:
			return doNavigate(rng, id)
		default:
			return doRender(id)
		}
	})
}

func runPhase(duration time.Duration, workFn func(rng *rand.Rand) result) {
	results := make(chan result, 10000)
	var wg sync.WaitGroup
	var totalOps atomic.Int64
	stop := make(chan struct{})

	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		go func(seed int64) {
			defer wg.Done()
			rng := rand.New(rand.NewSource(seed))
			for {
				select {
				case <-stop:
					return
				default:
					r := workFn(rng)
					totalOps.Add(1)
					results <- r
				}
			}
		}(rand.Int63() + int64(i))
	}

	allResults := make(map[string]*stats)
	done := make(chan struct{})
	go func() {
		for r := range results {
			s, ok := allResults[r.endpoint]
			if !ok {
				s = &stats{}
				allResults[r.endpoint] = s
			}
			s.count++
			if r.err {
				s.errors++
			}
			s.latencies = append(s.latencies, r.latency)
		}
		close(done)
	}()

	time.Sleep(duration)
	close(stop)
	wg.Wait()
	close(results)
	<-done

	printResults(allResults, duration)
}

func printResults(allResults map[string]*stats, duration time.Duration) {
	var totalOps int64
	var totalErrors int64

	endpoints := make([]string, 0, len(allResults))
	for ep := range allResults {
		endpoints = append(endpoints, ep)
	}
	sort.Strings(endpoints)

	fmt.Printf("\n  %-22s %8s %6s %10s %10s %10s %10s\n",
		"Endpoint", "Reqs", "Errs", "Avg", "P50", "P95", "P99")
	fmt.Println("  " + repeat("-", 88))

	for _, ep := range endpoints {
		s := allResults[ep]
		totalOps += s.count
		totalErrors += s.errors

		sort.Slice(s.latencies, func(i, j int) bool {
			return s.latencies[i] < s.latencies[j]
		})

		avg := avgDuration(s.latencies)
		p50 := percentile(s.latencies, 0.50)
		p95 := percentile(s.latencies, 0.95)
		p99 := percentile(s.latencies, 0.99)

		fmt.Printf("  %-22s %8d %6d %10s %10s %10s %10s\n",
			ep, s.count, s.errors, fmtDur(avg), fmtDur(p50), fmtDur(p95), fmtDur(p99))
	}

	rps := float64(totalOps) / duration.Seconds()
	fmt.Println("  " + repeat("-", 88))
	fmt.Printf("  Total: %d reqs | Errors: %d (%.1f%%) | RPS: %.0f\n",
		totalOps, totalErrors, float64(totalErrors)/float64(totalOps)*100, rps)
}

func deck(seed int) []byte {
	snaps := make([]map[string]any, 0, numSlides)
	snaps = append(snaps, map[string]any{
		"kind": "start", "timestamp": 0, "html": "<main><h1>Deck " + fmt.Sprint(seed) + "</h1></main>",
		"url": "https://app.example.com", "viewportWidth": 1920, "viewportHeight": 1080,
	})
	for i := 1; i < numSlides; i++ {
		snaps = append(snaps, map[string]any{
			"kind": "click", "timestamp": i * 1000, "html": fmt.Sprintf("<main><p>step %d</p></main>", i),
			"url": fmt.Sprintf("https://app.example.com/step/%d", i), "clickX": 100 + i*50, "clickY": 80 + i*30,
			"viewportWidth": 1920, "viewportHeight": 1080,
		})
	}
	data, _ := json.Marshal(map[string]any{"version": "2.0", "startTime": 0, "snapshots": snaps})
	return data
}

func loadDeck(seed int) (string, error) {
	resp, err := httpClient.Post(baseURL+"/recordings", "application/json", bytes.NewReader(deck(seed)))
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		return "", fmt.Errorf("status %d", resp.StatusCode)
	}
	var out struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", err
	}
	return out.ID, nil
}

func do(endpoint string, want int, req func() (*http.Response, error)) result {
	start := time.Now()
	resp, err := req()
	lat := time.Since(start)
	if err != nil {
		return result{endpoint, 0, lat, true}
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	return result{endpoint, resp.StatusCode, lat, resp.StatusCode != want}
}

func doRender(id string) result {
	return do("GET /render", http.StatusOK, func() (*http.Response, error) {
		return httpClient.Get(baseURL + "/render?w=1280&h=720&id=" + id)
	})
}

func doState(id string) result {
	return do("GET /state", http.StatusOK, func() (*http.Response, error) {
		return httpClient.Get(baseURL + "/state?id=" + id)
	})
}

func doAnnotate(rng *rand.Rand, id string) result {
	body, _ := json.Marshal(map[string]any{
		"index":  rng.Intn(numSlides),
		"label":  fmt.Sprintf("Step %d", rng.Intn(1000)),
		"script": "<p>Click <strong>here</strong></p>",
	})
	return do("POST /annotation", http.StatusOK, func() (*http.Response, error) {
		return httpClient.Post(baseURL+"/annotation?id="+id, "application/json", bytes.NewReader(body))
	})
}

// Navigation conflicts while a transition runs are expected under load.
func doNavigate(rng *rand.Rand, id string) result {
	body, _ := json.Marshal(map[string]any{"index": rng.Intn(numSlides)})
	r := do("POST /navigate", http.StatusOK, func() (*http.Response, error) {
		return httpClient.Post(baseURL+"/navigate?id="+id, "application/json", bytes.NewReader(body))
	})
	if r.status == http.StatusConflict {
		r.err = false
	}
	return r
}

func avgDuration(d []time.Duration) time.Duration {
	if len(d) == 0 {
		return 0
	}
	var sum time.Duration
	for _, v := range d {
		sum += v
	}
	return sum / time.Duration(len(d))
}

func percentile(d []time.Duration, p float64) time.Duration {
	if len(d) == 0 {
		return 0
	}
	idx := int(float64(len(d)) * p)
	if idx >= len(d) {
		idx = len(d) - 1
	}
	return d[idx]
}

func fmtDur(d time.Duration) string {
	if d < time.Millisecond {
		return fmt.Sprintf("%dus", d.Microseconds())
	}
	return fmt.Sprintf("%.1fms", float64(d.Microseconds())/1000.0)
}

func repeat(s string, n int) string {
	return strings.Repeat(s, n)
}
