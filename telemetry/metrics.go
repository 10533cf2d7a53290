package telemetry

import (
	"sort"
	"sync"
)

const maxTimingsPerName = 5000

// Metrics is a concurrent counter/latency registry with a cheap snapshot.
// It is the only shared mutable state besides the cache; callers never lock.
type Metrics struct {
	mu       sync.Mutex
	counters map[string]int64
	timings  map[string][]float64
}

// NewMetrics returns an empty registry.
func NewMetrics() *Metrics {
	return &Metrics{
		counters: make(map[string]int64),
		timings:  make(map[string][]float64),
	}
}

// Inc increments a counter.
func (m *Metrics) Inc(name string, amount int64) {
	m.mu.Lock()
	m.counters[name] += amount
	m.mu.Unlock()
}

// ObserveMS records one latency sample, keeping a bounded window.
func (m *Metrics) ObserveMS(name string, durationMS float64) {
	m.mu.Lock()
	samples := append(m.timings[name], durationMS)
	if len(samples) > maxTimingsPerName {
		samples = samples[len(samples)-maxTimingsPerName:]
	}
	m.timings[name] = samples
	m.mu.Unlock()
}

// TimingStats summarizes one latency series.
type TimingStats struct {
	Count int     `json:"count"`
	P50   float64 `json:"p50"`
	P95   float64 `json:"p95"`
	Max   float64 `json:"max"`
}

// Snapshot returns current counters and latency percentiles.
func (m *Metrics) Snapshot() (map[string]int64, map[string]TimingStats) {
	m.mu.Lock()
	counters := make(map[string]int64, len(m.counters))
	for k, v := range m.counters {
		counters[k] = v
	}
	timings := make(map[string][]float64, len(m.timings))
	for k, v := range m.timings {
		timings[k] = append([]float64(nil), v...)
	}
	m.mu.Unlock()

	stats := make(map[string]TimingStats, len(timings))
	for name, samples := range timings {
		stats[name] = summarize(samples)
	}
	return counters, stats
}

func summarize(samples []float64) TimingStats {
	if len(samples) == 0 {
		return TimingStats{}
	}
	sorted := append([]float64(nil), samples...)
	sort.Float64s(sorted)
	n := len(sorted)
	return TimingStats{
		Count: n,
		P50:   sorted[(n-1)/2],
		P95:   sorted[(95 * (n - 1)) / 100],
		Max:   sorted[n-1],
	}
}
