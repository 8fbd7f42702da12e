package monitoring

import (
	"sort"
	"sync"
	"time"

	"gonum.org/v1/gonum/stat"
)

// DefaultStatsWindow is how many recent builds the summary covers
const DefaultStatsWindow = 256

// Summary describes recent successful build durations in milliseconds
type Summary struct {
	Count  int     `json:"count"`
	Mean   float64 `json:"mean_ms"`
	StdDev float64 `json:"stddev_ms"`
	Min    float64 `json:"min_ms"`
	Max    float64 `json:"max_ms"`
	P50    float64 `json:"p50_ms"`
	P95    float64 `json:"p95_ms"`
}

// BuildStats keeps a ring of recent build durations
type BuildStats struct {
	mu      sync.Mutex
	samples []float64
	next    int
	full    bool
}

// NewBuildStats creates a ring holding up to size samples
func NewBuildStats(size int) *BuildStats {
	if size <= 0 {
		size = DefaultStatsWindow
	}
	return &BuildStats{samples: make([]float64, size)}
}

// Add records one duration
func (s *BuildStats) Add(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.samples[s.next] = float64(d) / float64(time.Millisecond)
	s.next++
	if s.next == len(s.samples) {
		s.next = 0
		s.full = true
	}
}

// Summary computes statistics over the current window
func (s *BuildStats) Summary() Summary {
	s.mu.Lock()
	n := s.next
	if s.full {
		n = len(s.samples)
	}
	data := make([]float64, n)
	copy(data, s.samples[:n])
	s.mu.Unlock()

	if n == 0 {
		return Summary{}
	}

	sort.Float64s(data)
	sum := Summary{
		Count: n,
		Mean:  stat.Mean(data, nil),
		Min:   data[0],
		Max:   data[n-1],
		P50:   stat.Quantile(0.5, stat.Empirical, data, nil),
		P95:   stat.Quantile(0.95, stat.Empirical, data, nil),
	}
	if n > 1 {
		sum.StdDev = stat.StdDev(data, nil)
	}
	return sum
}
