package performance

import (
	"sort"
	"sync"
	"time"
)

const maxLatencySamples = 10000

// LatencyTracker keeps the most recent latency samples and reports
// percentiles over them. It is safe for concurrent use.
type LatencyTracker struct {
	samples []time.Duration
	total   int64
	mu      sync.Mutex
}

// NewLatencyTracker creates a latency tracker
func NewLatencyTracker() *LatencyTracker {
	return &LatencyTracker{
		samples: make([]time.Duration, 0, 64),
	}
}

// Record records a latency sample
func (lt *LatencyTracker) Record(d time.Duration) {
	lt.mu.Lock()
	defer lt.mu.Unlock()

	lt.total++
	lt.samples = append(lt.samples, d)
	if len(lt.samples) > maxLatencySamples {
		lt.samples = lt.samples[len(lt.samples)-maxLatencySamples:]
	}
}

// Count returns the number of samples ever recorded.
func (lt *LatencyTracker) Count() int64 {
	lt.mu.Lock()
	defer lt.mu.Unlock()
	return lt.total
}

// GetPercentiles returns latency percentiles over the retained samples
func (lt *LatencyTracker) GetPercentiles() (p50, p95, p99 time.Duration) {
	lt.mu.Lock()
	sorted := make([]time.Duration, len(lt.samples))
	copy(sorted, lt.samples)
	lt.mu.Unlock()

	if len(sorted) == 0 {
		return 0, 0, 0
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	p50 = sorted[len(sorted)*50/100]
	p95 = sorted[len(sorted)*95/100]
	p99 = sorted[len(sorted)*99/100]
	return
}
